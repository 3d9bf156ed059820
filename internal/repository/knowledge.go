package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/praxis-labs/lorebase/internal/domain"
)

type KnowledgeRepository struct {
	pool *pgxpool.Pool
}

func NewKnowledgeRepository(pool *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{pool: pool}
}

func (r *KnowledgeRepository) Create(ctx context.Context, k *domain.KnowledgeItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO knowledge_items (id, project_id, type, status, content, file_name, file_key, file_url, error_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		k.ID, k.ProjectID, k.Type, k.Status, nullableString(k.Content), nullableString(k.FileName),
		nullableString(k.FileKey), nullableString(k.FileURL), nullableString(k.ErrorMessage), k.CreatedAt,
	)
	return err
}

func (r *KnowledgeRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, project_id, type, status, content, file_name, file_key, file_url, error_message, created_at
		 FROM knowledge_items WHERE id = $1`,
		id,
	)
	item, err := scanKnowledgeItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKnowledgeItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *KnowledgeRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.KnowledgeItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, type, status, content, file_name, file_key, file_url, error_message, created_at
		 FROM knowledge_items WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKnowledgeItemRows(rows)
}

// MarkIndexed persists the indexed transition: content, embedding, and
// status land in one statement.
func (r *KnowledgeRepository) MarkIndexed(ctx context.Context, id, content string, embedding []float32) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE knowledge_items SET content = $1, embedding = $2, status = $3, error_message = NULL WHERE id = $4`,
		content, pgvector.NewVector(embedding), domain.KnowledgeStatusIndexed, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeItemNotFound
	}
	return nil
}

// MarkError persists the error transition.
func (r *KnowledgeRepository) MarkError(ctx context.Context, id, message string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE knowledge_items SET status = $1, error_message = $2 WHERE id = $3`,
		domain.KnowledgeStatusError, message, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeItemNotFound
	}
	return nil
}

// SetFile records the stored object for an uploaded file.
func (r *KnowledgeRepository) SetFile(ctx context.Context, id, fileKey, fileURL string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE knowledge_items SET file_key = $1, file_url = $2 WHERE id = $3`,
		fileKey, fileURL, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrKnowledgeItemNotFound
	}
	return nil
}

// Delete removes the row and reports whether anything was deleted, so the
// caller can keep deletion idempotent.
func (r *KnowledgeRepository) Delete(ctx context.Context, id string) (bool, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM knowledge_items WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, err
	}
	return cmdTag.RowsAffected() > 0, nil
}

// SearchByEmbedding runs a cosine-similarity nearest-neighbor search over
// the project's indexed items, returning ranked matches above the threshold.
func (r *KnowledgeRepository) SearchByEmbedding(ctx context.Context, projectID string, embedding []float32, threshold float64, limit int) ([]*domain.Match, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, content, 1 - (embedding <=> $1) AS similarity
		 FROM knowledge_items
		 WHERE project_id = $2
		   AND status = $3
		   AND embedding IS NOT NULL
		   AND 1 - (embedding <=> $1) > $4
		 ORDER BY embedding <=> $1
		 LIMIT $5`,
		pgvector.NewVector(embedding), projectID, domain.KnowledgeStatusIndexed, threshold, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		var m domain.Match
		var content *string
		if err := rows.Scan(&m.ID, &content, &m.Similarity); err != nil {
			return nil, err
		}
		if content != nil {
			m.Content = *content
		}
		m.Source = domain.MatchSourceVector
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// SearchByKeywords runs a case-insensitive substring search over the
// project's indexed items, matching any of the given keywords.
func (r *KnowledgeRepository) SearchByKeywords(ctx context.Context, projectID string, keywords []string, limit int) ([]*domain.Match, error) {
	if len(keywords) == 0 {
		return []*domain.Match{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	patterns := make([]string, len(keywords))
	for i, kw := range keywords {
		patterns[i] = "%" + kw + "%"
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, content
		 FROM knowledge_items
		 WHERE project_id = $1
		   AND status = $2
		   AND content IS NOT NULL
		   AND content ILIKE ANY($3)
		 LIMIT $4`,
		projectID, domain.KnowledgeStatusIndexed, patterns, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.Content); err != nil {
			return nil, err
		}
		m.Source = domain.MatchSourceKeyword
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

// SampleByProject returns up to limit items in random order, used for
// prompt suggestions.
func (r *KnowledgeRepository) SampleByProject(ctx context.Context, projectID string, limit int) ([]*domain.KnowledgeItem, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, type, status, content, file_name, file_key, file_url, error_message, created_at
		 FROM knowledge_items WHERE project_id = $1 ORDER BY random() LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKnowledgeItemRows(rows)
}

// ListStuckProcessing returns items still in the processing state older than
// the cutoff, for the reindex worker to retry after a crash.
func (r *KnowledgeRepository) ListStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*domain.KnowledgeItem, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, type, status, content, file_name, file_key, file_url, error_message, created_at
		 FROM knowledge_items
		 WHERE status = $1 AND created_at < $2
		 ORDER BY created_at ASC
		 LIMIT $3`,
		domain.KnowledgeStatusProcessing, olderThan, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanKnowledgeItemRows(rows)
}

// ListFileKeysByProject returns the storage keys of every item in the
// project that has an uploaded file, for cleanup before a cascade delete.
func (r *KnowledgeRepository) ListFileKeysByProject(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT file_key FROM knowledge_items WHERE project_id = $1 AND file_key IS NOT NULL`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKnowledgeItem(row rowScanner) (*domain.KnowledgeItem, error) {
	var k domain.KnowledgeItem
	var content, fileName, fileKey, fileURL, errorMessage *string
	if err := row.Scan(&k.ID, &k.ProjectID, &k.Type, &k.Status, &content, &fileName, &fileKey, &fileURL, &errorMessage, &k.CreatedAt); err != nil {
		return nil, err
	}
	if content != nil {
		k.Content = *content
	}
	if fileName != nil {
		k.FileName = *fileName
	}
	if fileKey != nil {
		k.FileKey = *fileKey
	}
	if fileURL != nil {
		k.FileURL = *fileURL
	}
	if errorMessage != nil {
		k.ErrorMessage = *errorMessage
	}
	return &k, nil
}

func scanKnowledgeItemRows(rows pgx.Rows) ([]*domain.KnowledgeItem, error) {
	var results []*domain.KnowledgeItem
	for rows.Next() {
		item, err := scanKnowledgeItem(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
