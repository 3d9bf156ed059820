package domain

import (
	"fmt"
	"strings"
	"time"
)

// KnowledgeType represents the kind of content a knowledge item was created from
type KnowledgeType string

const (
	KnowledgeTypeText  KnowledgeType = "text"
	KnowledgeTypeAudio KnowledgeType = "audio"
	KnowledgeTypePDF   KnowledgeType = "pdf"
)

// KnowledgeStatus represents the processing status of a knowledge item
type KnowledgeStatus string

const (
	KnowledgeStatusProcessing KnowledgeStatus = "processing"
	KnowledgeStatusIndexed    KnowledgeStatus = "indexed"
	KnowledgeStatusError      KnowledgeStatus = "error"
)

// KnowledgeItem is one ingested unit of content belonging to a project.
// An item is created in the processing state and transitions exactly once,
// to indexed (content and embedding populated) or to error (message populated).
type KnowledgeItem struct {
	ID           string
	ProjectID    string
	Type         KnowledgeType
	Status       KnowledgeStatus
	Content      string
	FileName     string
	FileKey      string
	FileURL      string
	Embedding    []float32
	ErrorMessage string
	CreatedAt    time.Time
}

// NewKnowledgeItem creates a knowledge item in the processing state.
func NewKnowledgeItem(id, projectID string, itemType KnowledgeType, fileName string, createdAt time.Time) *KnowledgeItem {
	return &KnowledgeItem{
		ID:        id,
		ProjectID: projectID,
		Type:      itemType,
		Status:    KnowledgeStatusProcessing,
		FileName:  fileName,
		CreatedAt: createdAt,
	}
}

// MarkIndexed transitions the item to indexed with its extracted content and
// embedding. Only valid from the processing state.
func (k *KnowledgeItem) MarkIndexed(content string, embedding []float32) error {
	if k.Status != KnowledgeStatusProcessing {
		return fmt.Errorf("cannot index item in status %q", k.Status)
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if len(embedding) == 0 {
		return fmt.Errorf("indexed item requires an embedding")
	}
	k.Content = content
	k.Embedding = embedding
	k.Status = KnowledgeStatusIndexed
	k.ErrorMessage = ""
	return nil
}

// MarkError transitions the item to the error state with a message.
// Only valid from the processing state.
func (k *KnowledgeItem) MarkError(message string) error {
	if k.Status != KnowledgeStatusProcessing {
		return fmt.Errorf("cannot fail item in status %q", k.Status)
	}
	if message == "" {
		message = "unknown error"
	}
	k.Status = KnowledgeStatusError
	k.ErrorMessage = message
	return nil
}

// ValidateKnowledgeItem validates a KnowledgeItem instance
func ValidateKnowledgeItem(k *KnowledgeItem) error {
	if k == nil {
		return fmt.Errorf("knowledge item cannot be nil")
	}

	if k.ID == "" {
		return fmt.Errorf("knowledge item ID is required")
	}

	if k.ProjectID == "" {
		return fmt.Errorf("knowledge item ProjectID is required")
	}

	if !isValidKnowledgeType(k.Type) {
		return fmt.Errorf("knowledge item Type is invalid: %s", k.Type)
	}

	if !isValidKnowledgeStatus(k.Status) {
		return fmt.Errorf("knowledge item Status is invalid: %s", k.Status)
	}

	// embedding is non-empty iff the item is indexed
	if k.Status == KnowledgeStatusIndexed && len(k.Embedding) == 0 {
		return fmt.Errorf("indexed knowledge item must have an embedding")
	}
	if k.Status != KnowledgeStatusIndexed && len(k.Embedding) > 0 {
		return fmt.Errorf("only indexed knowledge items may have an embedding")
	}

	if k.Status == KnowledgeStatusError && k.ErrorMessage == "" {
		return fmt.Errorf("errored knowledge item must have an error message")
	}

	return nil
}

// isValidKnowledgeType checks if a KnowledgeType is valid
func isValidKnowledgeType(t KnowledgeType) bool {
	switch t {
	case KnowledgeTypeText, KnowledgeTypeAudio, KnowledgeTypePDF:
		return true
	}
	return false
}

// isValidKnowledgeStatus checks if a KnowledgeStatus is valid
func isValidKnowledgeStatus(s KnowledgeStatus) bool {
	switch s {
	case KnowledgeStatusProcessing, KnowledgeStatusIndexed, KnowledgeStatusError:
		return true
	}
	return false
}
