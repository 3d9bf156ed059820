package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/praxis-labs/lorebase/internal/telemetry"
)

// ProjectStore defines the persistence operations for projects.
type ProjectStore interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

// FileKeyLister enumerates the stored objects owned by a project so they can
// be cleaned up before the database cascade removes the rows.
type FileKeyLister interface {
	ListFileKeysByProject(ctx context.Context, projectID string) ([]string, error)
}

// ProjectService manages project lifecycle, including storage cleanup when a
// project is deleted.
type ProjectService struct {
	store    ProjectStore
	fileKeys FileKeyLister
	objects  ObjectStore
}

// NewProjectService creates a new ProjectService instance. fileKeys and
// objects may be nil when file storage is not configured.
func NewProjectService(store ProjectStore, fileKeys FileKeyLister, objects ObjectStore) *ProjectService {
	return &ProjectService{store: store, fileKeys: fileKeys, objects: objects}
}

// Create validates and persists a new project.
func (s *ProjectService) Create(ctx context.Context, name string) (*domain.Project, error) {
	project := domain.NewProject(uuid.NewString(), name, time.Now().UTC())
	if err := domain.ValidateProject(project); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), err)
	}

	if err := s.store.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get returns the project by id.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	if id == "" {
		return nil, domain.ErrMissingProjectID
	}
	return s.store.GetByID(ctx, id)
}

// List returns all projects, newest first.
func (s *ProjectService) List(ctx context.Context) ([]*domain.Project, error) {
	return s.store.List(ctx)
}

// Delete removes the project and everything it owns. Stored files are
// deleted first; the database cascade then takes the rows. Object deletion
// failures are logged, not fatal, so a flaky storage backend cannot wedge
// project deletion.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrMissingProjectID
	}

	ctx, span := telemetry.StartSpan(ctx, "ProjectService.Delete", telemetry.SpanAttributes{
		ProjectID: id,
		Operation: "project_delete",
	})
	defer span.End()

	if s.fileKeys != nil && s.objects != nil {
		keys, err := s.fileKeys.ListFileKeysByProject(ctx, id)
		if err != nil {
			log.Printf("project: failed to list file keys for %s: %v", id, err)
			telemetry.CaptureError(ctx, err)
		}
		for _, key := range keys {
			if err := s.objects.DeleteObject(ctx, key); err != nil {
				log.Printf("project: failed to delete object %s: %v", key, err)
				telemetry.CaptureError(ctx, err)
			}
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}
