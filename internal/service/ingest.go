package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/praxis-labs/lorebase/internal/telemetry"
)

// KnowledgeStore defines the persistence operations the ingest pipeline needs.
type KnowledgeStore interface {
	Create(ctx context.Context, k *domain.KnowledgeItem) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.KnowledgeItem, error)
	MarkIndexed(ctx context.Context, id, content string, embedding []float32) error
	MarkError(ctx context.Context, id, message string) error
	SetFile(ctx context.Context, id, fileKey, fileURL string) error
	Delete(ctx context.Context, id string) (bool, error)
}

// ObjectStore defines the blob storage operations for uploaded files.
type ObjectStore interface {
	UploadObject(ctx context.Context, key string, contentType string, body io.Reader) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// IngestInput describes one piece of content to add to a project's knowledge
// base. Content carries the text for text items; File carries the raw bytes
// for audio and pdf items.
type IngestInput struct {
	ProjectID   string
	Type        domain.KnowledgeType
	Content     string
	FileName    string
	ContentType string
	File        io.Reader
}

// IngestService runs the ingestion pipeline: persist a processing row, store
// the raw file, extract text, embed it, and record the outcome. A failed item
// stays visible in the error state rather than disappearing.
type IngestService struct {
	store     KnowledgeStore
	objects   ObjectStore
	embedding EmbeddingClient
	audio     TranscriptionClient
}

// NewIngestService creates a new IngestService instance. objects and audio
// may be nil when storage or transcription is not configured; the matching
// item types are then rejected at ingest time.
func NewIngestService(store KnowledgeStore, objects ObjectStore, embedding EmbeddingClient, audio TranscriptionClient) *IngestService {
	return &IngestService{store: store, objects: objects, embedding: embedding, audio: audio}
}

// Ingest creates the item and processes it to completion. The returned item
// reflects the final state; a processing failure returns the item in the
// error state together with the error.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*domain.KnowledgeItem, error) {
	if input.ProjectID == "" {
		return nil, domain.ErrMissingProjectID
	}

	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		ProjectID: input.ProjectID,
		Operation: "ingest",
	})
	defer span.End()

	item := domain.NewKnowledgeItem(uuid.NewString(), input.ProjectID, input.Type, input.FileName, time.Now().UTC())
	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), err)
	}

	if err := s.store.Create(ctx, item); err != nil {
		span.SetError(err)
		return nil, err
	}

	content, err := s.process(ctx, item, input)
	if err != nil {
		s.fail(ctx, item, err)
		span.SetError(err)
		return item, err
	}

	embedding, err := s.embedding.GenerateEmbedding(ctx, content)
	if err != nil {
		err = domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "embedding generation failed", err)
		s.fail(ctx, item, err)
		span.SetError(err)
		return item, err
	}

	if err := item.MarkIndexed(content, embedding); err != nil {
		s.fail(ctx, item, err)
		span.SetError(err)
		return item, err
	}
	if err := s.store.MarkIndexed(ctx, item.ID, content, embedding); err != nil {
		span.SetError(err)
		return item, err
	}

	log.Printf("ingest: indexed %s item %s in project %s (%d chars)", item.Type, item.ID, item.ProjectID, len(content))
	return item, nil
}

// process extracts plain text for the item according to its type, uploading
// the raw file first so it survives extraction failures.
func (s *IngestService) process(ctx context.Context, item *domain.KnowledgeItem, input IngestInput) (string, error) {
	switch input.Type {
	case domain.KnowledgeTypeText:
		if strings.TrimSpace(input.Content) == "" {
			return "", domain.ErrEmptyContent
		}
		return input.Content, nil

	case domain.KnowledgeTypeAudio:
		data, err := s.storeFile(ctx, item, input)
		if err != nil {
			return "", err
		}
		if s.audio == nil {
			return "", domain.NewDomainError(domain.ErrCodeProcessing, "transcription is not configured")
		}
		text, err := s.audio.Transcribe(ctx, bytes.NewReader(data), input.FileName)
		if err != nil {
			return "", domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "audio transcription failed", err)
		}
		if strings.TrimSpace(text) == "" {
			return "", domain.NewDomainError(domain.ErrCodeProcessing, "transcription produced no text")
		}
		return text, nil

	case domain.KnowledgeTypePDF:
		data, err := s.storeFile(ctx, item, input)
		if err != nil {
			return "", err
		}
		text, err := extractPDFText(data)
		if err != nil {
			return "", domain.NewDomainErrorWithCause(domain.ErrCodeProcessing, "pdf text extraction failed", err)
		}
		if strings.TrimSpace(text) == "" {
			return "", domain.NewDomainError(domain.ErrCodeProcessing, "pdf contains no extractable text")
		}
		return text, nil

	default:
		return "", domain.ErrInvalidItemType
	}
}

// storeFile reads the upload fully, writes it to object storage, and records
// the key on the item. The bytes are returned for extraction.
func (s *IngestService) storeFile(ctx context.Context, item *domain.KnowledgeItem, input IngestInput) ([]byte, error) {
	if input.File == nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "file is required for this item type")
	}
	if s.objects == nil {
		return nil, domain.NewDomainError(domain.ErrCodeProcessing, "file storage is not configured")
	}

	data, err := io.ReadAll(input.File)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProcessing, "failed to read uploaded file", err)
	}
	if len(data) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "uploaded file is empty")
	}

	key := fmt.Sprintf("%s/%s/%s", item.ProjectID, item.ID, input.FileName)
	if err := s.objects.UploadObject(ctx, key, input.ContentType, bytes.NewReader(data)); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to store uploaded file", err)
	}

	url, err := s.objects.GenerateDownloadURL(ctx, key)
	if err != nil {
		log.Printf("ingest: failed to presign download for %s: %v", key, err)
		url = ""
	}

	item.FileKey = key
	item.FileURL = url
	if err := s.store.SetFile(ctx, item.ID, key, url); err != nil {
		return nil, err
	}

	return data, nil
}

// fail records the error transition; a failure to record it only logs, the
// original error is what the caller sees.
func (s *IngestService) fail(ctx context.Context, item *domain.KnowledgeItem, cause error) {
	if markErr := item.MarkError(cause.Error()); markErr != nil {
		log.Printf("ingest: item %s: %v", item.ID, markErr)
		return
	}
	if err := s.store.MarkError(ctx, item.ID, item.ErrorMessage); err != nil {
		log.Printf("ingest: failed to record error for item %s: %v", item.ID, err)
	}
	telemetry.CaptureError(ctx, cause)
}

// List returns the project's items newest first, refreshing download URLs
// for items with stored files.
func (s *IngestService) List(ctx context.Context, projectID string) ([]*domain.KnowledgeItem, error) {
	if projectID == "" {
		return nil, domain.ErrMissingProjectID
	}

	items, err := s.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if s.objects != nil {
		for _, item := range items {
			if item.FileKey == "" {
				continue
			}
			url, err := s.objects.GenerateDownloadURL(ctx, item.FileKey)
			if err != nil {
				log.Printf("ingest: failed to presign download for %s: %v", item.FileKey, err)
				continue
			}
			item.FileURL = url
		}
	}

	return items, nil
}

// Delete removes the item and its stored file. Deleting an item that no
// longer exists is not an error.
func (s *IngestService) Delete(ctx context.Context, id string) error {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}

	if item.FileKey != "" && s.objects != nil {
		if err := s.objects.DeleteObject(ctx, item.FileKey); err != nil {
			// The row still goes; an orphaned object is recoverable, a
			// dangling row pointing at a deleted object is not.
			log.Printf("ingest: failed to delete object %s: %v", item.FileKey, err)
			telemetry.CaptureError(ctx, err)
		}
	}

	if _, err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

// extractPDFText pulls the plain text out of a PDF document.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}
