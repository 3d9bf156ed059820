package service

import (
	"context"
	"log"
	"sync"

	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/praxis-labs/lorebase/internal/telemetry"
)

const (
	// Deliberately permissive: weak semantic matches are kept so the model
	// can judge relevance itself, and keyword hits backstop exact terms the
	// vector search underweights.
	defaultMatchThreshold = 0.1
	defaultMatchCount     = 20
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SearchRepository defines the retrieval queries the knowledge store must support
type SearchRepository interface {
	SearchByEmbedding(ctx context.Context, projectID string, embedding []float32, threshold float64, limit int) ([]*domain.Match, error)
	SearchByKeywords(ctx context.Context, projectID string, keywords []string, limit int) ([]*domain.Match, error)
}

// RetrievalResult is the fused outcome of one retrieval pass.
type RetrievalResult struct {
	Matches     []*domain.Match
	Vague       bool
	VectorHits  int
	KeywordHits int
}

// RetrieverConfig controls search thresholds and caps.
type RetrieverConfig struct {
	MatchThreshold float64
	MatchCount     int
}

// DefaultRetrieverConfig returns the default retrieval configuration.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		MatchThreshold: defaultMatchThreshold,
		MatchCount:     defaultMatchCount,
	}
}

// Retriever gathers candidate knowledge for a query by fusing vector
// similarity search with a keyword substring search.
type Retriever struct {
	embedding EmbeddingClient
	repo      SearchRepository
	cfg       RetrieverConfig
}

// NewRetriever creates a new Retriever instance
func NewRetriever(embedding EmbeddingClient, repo SearchRepository) *Retriever {
	return NewRetrieverWithConfig(embedding, repo, DefaultRetrieverConfig())
}

// NewRetrieverWithConfig creates a Retriever with explicit configuration.
func NewRetrieverWithConfig(embedding EmbeddingClient, repo SearchRepository, cfg RetrieverConfig) *Retriever {
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = defaultMatchThreshold
	}
	if cfg.MatchCount <= 0 {
		cfg.MatchCount = defaultMatchCount
	}
	return &Retriever{embedding: embedding, repo: repo, cfg: cfg}
}

// Search runs both retrieval paths for the query and merges them: vector
// matches first in similarity order, then keyword matches whose item id was
// not already seen. A failure on either search path degrades that path to
// zero results; only an embedding failure aborts the whole request.
func (r *Retriever) Search(ctx context.Context, projectID, query string) (*RetrievalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Search", telemetry.SpanAttributes{
		ProjectID: projectID,
		Operation: "search",
	})
	defer span.End()

	embedding, err := r.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "embedding generation failed", err)
	}

	keywords := ExtractKeywords(query)

	// The two searches are independent reads; run them concurrently.
	var (
		wg             sync.WaitGroup
		vectorMatches  []*domain.Match
		keywordMatches []*domain.Match
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		matches, err := r.repo.SearchByEmbedding(ctx, projectID, embedding, r.cfg.MatchThreshold, r.cfg.MatchCount)
		if err != nil {
			log.Printf("vector search failed (continuing with keyword results): %v", err)
			telemetry.CaptureError(ctx, err)
			return
		}
		vectorMatches = matches
	}()

	if len(keywords) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			matches, err := r.repo.SearchByKeywords(ctx, projectID, keywords, r.cfg.MatchCount)
			if err != nil {
				log.Printf("keyword search failed (continuing with vector results): %v", err)
				telemetry.CaptureError(ctx, err)
				return
			}
			keywordMatches = matches
		}()
	}

	wg.Wait()

	fused := fuseMatches(vectorMatches, keywordMatches)

	return &RetrievalResult{
		Matches:     fused,
		Vague:       IsVagueQuery(query),
		VectorHits:  len(vectorMatches),
		KeywordHits: len(keywordMatches),
	}, nil
}

// fuseMatches merges the two result lists, deduplicating by knowledge item
// id. Vector matches keep their similarity-ranked order and take precedence
// over keyword hits for the same item.
func fuseMatches(vectorMatches, keywordMatches []*domain.Match) []*domain.Match {
	seen := make(map[string]struct{}, len(vectorMatches)+len(keywordMatches))
	fused := make([]*domain.Match, 0, len(vectorMatches)+len(keywordMatches))

	for _, m := range vectorMatches {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		m.Source = domain.MatchSourceVector
		fused = append(fused, m)
	}

	for _, m := range keywordMatches {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		m.Source = domain.MatchSourceKeyword
		fused = append(fused, m)
	}

	return fused
}
