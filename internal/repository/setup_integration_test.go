//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/praxis-labs/lorebase/internal/testutil"
	"github.com/stretchr/testify/require"
)

var (
	testPoolOnce sync.Once
	testPool     *pgxpool.Pool
)

// testDB returns a pool backed by a shared pgvector container, truncated for
// isolation. The container is reaped by testcontainers when the run ends.
func testDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	testPoolOnce.Do(func() {
		pc := testutil.NewPostgresContainer(ctx, t)
		testPool = testutil.NewTestPool(ctx, t, pc, "../../migrations")
	})

	require.NoError(t, testutil.TruncateAll(ctx, testPool))
	return testPool
}

func createTestProject(t *testing.T, pool *pgxpool.Pool, name string) *domain.Project {
	t.Helper()
	project := domain.NewProject(uuid.NewString(), name, time.Now().UTC())
	require.NoError(t, NewProjectRepository(pool).Create(context.Background(), project))
	return project
}

// testEmbedding builds a deterministic unit-ish vector sized for the
// embedding column.
func testEmbedding(seed float32) []float32 {
	vec := make([]float32, 1536)
	for i := range vec {
		vec[i] = seed
	}
	vec[0] = 1
	return vec
}
