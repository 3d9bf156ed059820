//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnowledgeRepository_CreateAndGet(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")
	item := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypePDF, "notes.pdf", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KnowledgeStatusProcessing, got.Status)
	assert.Equal(t, "notes.pdf", got.FileName)
	assert.Empty(t, got.Content)
}

func TestKnowledgeRepository_MarkIndexedThenMarkError(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")

	indexed := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, indexed))
	require.NoError(t, repo.MarkIndexed(ctx, indexed.ID, "extracted text", testEmbedding(0.1)))

	got, err := repo.GetByID(ctx, indexed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KnowledgeStatusIndexed, got.Status)
	assert.Equal(t, "extracted text", got.Content)

	errored := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, errored))
	require.NoError(t, repo.MarkError(ctx, errored.ID, "no content to index"))

	got, err = repo.GetByID(ctx, errored.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KnowledgeStatusError, got.Status)
	assert.Equal(t, "no content to index", got.ErrorMessage)
}

func TestKnowledgeRepository_MarkIndexed_NotFound(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)

	err := repo.MarkIndexed(context.Background(), uuid.NewString(), "text", testEmbedding(0.1))
	assert.ErrorIs(t, err, domain.ErrKnowledgeItemNotFound)
}

func TestKnowledgeRepository_SetFile(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")
	item := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeAudio, "memo.mp3", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, item))

	key := project.ID + "/" + item.ID + "/memo.mp3"
	require.NoError(t, repo.SetFile(ctx, item.ID, key, "https://objects.example/memo.mp3"))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, key, got.FileKey)
	assert.Equal(t, "https://objects.example/memo.mp3", got.FileURL)
}

func TestKnowledgeRepository_Delete_Idempotent(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")
	item := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, item))

	deleted, err := repo.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestKnowledgeRepository_SearchByEmbedding(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")

	near := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, near))
	require.NoError(t, repo.MarkIndexed(ctx, near.ID, "closely related document", testEmbedding(0.5)))

	// Still processing, must never surface in search.
	pending := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, pending))

	otherProject := createTestProject(t, pool, "other")
	foreign := domain.NewKnowledgeItem(uuid.NewString(), otherProject.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, foreign))
	require.NoError(t, repo.MarkIndexed(ctx, foreign.ID, "foreign document", testEmbedding(0.5)))

	matches, err := repo.SearchByEmbedding(ctx, project.ID, testEmbedding(0.5), 0.1, 20)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, near.ID, matches[0].ID)
	assert.Equal(t, "closely related document", matches[0].Content)
	assert.Equal(t, domain.MatchSourceVector, matches[0].Source)
	assert.Greater(t, matches[0].Similarity, 0.9)
}

func TestKnowledgeRepository_SearchByKeywords(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")

	billing := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, billing))
	require.NoError(t, repo.MarkIndexed(ctx, billing.ID, "Billing runs on the first of the month.", testEmbedding(0.2)))

	deploys := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, deploys))
	require.NoError(t, repo.MarkIndexed(ctx, deploys.ID, "Deploys happen every Friday.", testEmbedding(0.3)))

	matches, err := repo.SearchByKeywords(ctx, project.ID, []string{"billing"}, 20)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, billing.ID, matches[0].ID)
	assert.Equal(t, domain.MatchSourceKeyword, matches[0].Source)

	matches, err = repo.SearchByKeywords(ctx, project.ID, []string{"billing", "friday"}, 20)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = repo.SearchByKeywords(ctx, project.ID, nil, 20)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestKnowledgeRepository_SampleByProject(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")
	for i := 0; i < 5; i++ {
		item := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
		require.NoError(t, repo.Create(ctx, item))
	}

	items, err := repo.SampleByProject(ctx, project.ID, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestKnowledgeRepository_ListStuckProcessing(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")

	stuck := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, stuck))

	fresh := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, fresh))

	indexed := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, indexed))
	require.NoError(t, repo.MarkIndexed(ctx, indexed.ID, "done", testEmbedding(0.4)))

	items, err := repo.ListStuckProcessing(ctx, time.Now().UTC().Add(-10*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, stuck.ID, items[0].ID)
}

func TestKnowledgeRepository_ListFileKeysByProject(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")

	withFile := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypePDF, "a.pdf", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, withFile))
	require.NoError(t, repo.SetFile(ctx, withFile.ID, "key/a.pdf", "https://objects.example/a.pdf"))

	textOnly := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, textOnly))

	keys, err := repo.ListFileKeysByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"key/a.pdf"}, keys)
}

func TestKnowledgeRepository_ListByProject_NewestFirst(t *testing.T) {
	pool := testDB(t)
	repo := NewKnowledgeRepository(pool)
	ctx := context.Background()

	project := createTestProject(t, pool, "kb")

	older := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, older))
	newer := domain.NewKnowledgeItem(uuid.NewString(), project.ID, domain.KnowledgeTypeText, "", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, newer))

	items, err := repo.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
}
