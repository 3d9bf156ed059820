package domain

import (
	"fmt"
	"strings"
	"time"
)

// Project is a named container for knowledge items and chats.
// Deleting a project cascades to everything it owns.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// NewProject creates a new Project instance
func NewProject(id, name string, createdAt time.Time) *Project {
	return &Project{
		ID:        id,
		Name:      strings.TrimSpace(name),
		CreatedAt: createdAt,
	}
}

// ValidateProject validates a Project instance
func ValidateProject(p *Project) error {
	if p == nil {
		return fmt.Errorf("project cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("project ID is required")
	}

	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project Name is required")
	}

	return nil
}
