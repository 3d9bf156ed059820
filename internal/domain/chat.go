package domain

import (
	"fmt"
	"time"
)

// MessageRole identifies the author of a chat message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Chat is a conversation scoped to a project. Messages are append-only.
type Chat struct {
	ID        string
	ProjectID string
	CreatedAt time.Time
}

// Message is a single turn in a chat, ordered by creation time ascending.
type Message struct {
	ID        string
	ChatID    string
	Role      MessageRole
	Content   string
	CreatedAt time.Time
}

// NewChat creates a new Chat instance
func NewChat(id, projectID string, createdAt time.Time) *Chat {
	return &Chat{
		ID:        id,
		ProjectID: projectID,
		CreatedAt: createdAt,
	}
}

// NewMessage creates a new Message instance
func NewMessage(id, chatID string, role MessageRole, content string, createdAt time.Time) *Message {
	return &Message{
		ID:        id,
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: createdAt,
	}
}

// ValidateMessage validates a Message instance
func ValidateMessage(m *Message) error {
	if m == nil {
		return fmt.Errorf("message cannot be nil")
	}

	if m.ID == "" {
		return fmt.Errorf("message ID is required")
	}

	if m.ChatID == "" {
		return fmt.Errorf("message ChatID is required")
	}

	if m.Role != MessageRoleUser && m.Role != MessageRoleAssistant {
		return fmt.Errorf("message Role is invalid: %s", m.Role)
	}

	if m.Content == "" {
		return fmt.Errorf("message Content is required")
	}

	return nil
}
