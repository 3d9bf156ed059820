package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RetrievalLogEntry records one retrieval pass for later inspection of what
// the search paths actually returned.
type RetrievalLogEntry struct {
	ID          string
	ProjectID   string
	Query       string
	Vague       bool
	VectorHits  int
	KeywordHits int
	CreatedAt   time.Time
}

type RetrievalLogRepository struct {
	pool *pgxpool.Pool
}

func NewRetrievalLogRepository(pool *pgxpool.Pool) *RetrievalLogRepository {
	return &RetrievalLogRepository{pool: pool}
}

func (r *RetrievalLogRepository) Create(ctx context.Context, entry *RetrievalLogEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO retrieval_log (id, project_id, query, vague, vector_hits, keyword_hits, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ProjectID, entry.Query, entry.Vague, entry.VectorHits, entry.KeywordHits, entry.CreatedAt,
	)
	return err
}
