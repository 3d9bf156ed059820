package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/praxis-labs/lorebase/internal/domain"
)

const (
	// DefaultStuckAge is how long an item may sit in the processing state
	// before the reindex worker considers it abandoned.
	DefaultStuckAge = 10 * time.Minute

	// DefaultBatchSize caps how many stuck items one pass will touch.
	DefaultBatchSize = 10
)

// StuckItemRepository defines the persistence operations for recovering
// items whose ingestion was interrupted.
type StuckItemRepository interface {
	ListStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*domain.KnowledgeItem, error)
	MarkIndexed(ctx context.Context, id, content string, embedding []float32) error
	MarkError(ctx context.Context, id, message string) error
}

// Embedder defines the interface for generating embeddings
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ReindexWorker sweeps knowledge items abandoned mid-ingestion, typically
// after a crash. Items whose text was already extracted are re-embedded and
// indexed; items that never got content are moved to the error state so the
// failure is visible instead of the item sitting in processing forever.
type ReindexWorker struct {
	repo      StuckItemRepository
	embedder  Embedder
	stuckAge  time.Duration
	batchSize int
}

// NewReindexWorker creates a new ReindexWorker instance
func NewReindexWorker(repo StuckItemRepository, embedder Embedder) *ReindexWorker {
	return &ReindexWorker{
		repo:      repo,
		embedder:  embedder,
		stuckAge:  DefaultStuckAge,
		batchSize: DefaultBatchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ReindexWorker) ProcessJobs(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.stuckAge)

	items, err := w.repo.ListStuckProcessing(ctx, cutoff, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list stuck items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	log.Printf("Recovering %d stuck knowledge items", len(items))

	for _, item := range items {
		if err := w.recover(ctx, item); err != nil {
			log.Printf("Error recovering item %s: %v", item.ID, err)
		}
	}

	return nil
}

func (w *ReindexWorker) recover(ctx context.Context, item *domain.KnowledgeItem) error {
	if item.Content == "" {
		// No extracted text to work with; surface the interruption.
		msg := "ingestion interrupted before text extraction"
		if err := w.repo.MarkError(ctx, item.ID, msg); err != nil {
			return fmt.Errorf("failed to mark item as errored: %w", err)
		}
		log.Printf("Item %s moved to error state: %s", item.ID, msg)
		return nil
	}

	embedding, err := w.embedder.GenerateEmbedding(ctx, item.Content)
	if err != nil {
		// Leave the item in processing; the next sweep retries it.
		return fmt.Errorf("failed to re-embed item: %w", err)
	}

	if err := w.repo.MarkIndexed(ctx, item.ID, item.Content, embedding); err != nil {
		return fmt.Errorf("failed to mark item as indexed: %w", err)
	}

	log.Printf("Item %s recovered and indexed", item.ID)
	return nil
}
