package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKnowledgeStore struct {
	mock.Mock
}

func (m *MockKnowledgeStore) Create(ctx context.Context, k *domain.KnowledgeItem) error {
	args := m.Called(ctx, k)
	return args.Error(0)
}

func (m *MockKnowledgeStore) GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *MockKnowledgeStore) ListByProject(ctx context.Context, projectID string) ([]*domain.KnowledgeItem, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeItem), args.Error(1)
}

func (m *MockKnowledgeStore) MarkIndexed(ctx context.Context, id, content string, embedding []float32) error {
	args := m.Called(ctx, id, content, embedding)
	return args.Error(0)
}

func (m *MockKnowledgeStore) MarkError(ctx context.Context, id, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *MockKnowledgeStore) SetFile(ctx context.Context, id, fileKey, fileURL string) error {
	args := m.Called(ctx, id, fileKey, fileURL)
	return args.Error(0)
}

func (m *MockKnowledgeStore) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) UploadObject(ctx context.Context, key string, contentType string, body io.Reader) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockTranscriptionClient struct {
	mock.Mock
}

func (m *MockTranscriptionClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	args := m.Called(ctx, audio, filename)
	return args.String(0), args.Error(1)
}

func TestIngestService_Ingest_Text(t *testing.T) {
	store := &MockKnowledgeStore{}
	embedding := &MockEmbeddingClient{}

	vec := []float32{0.1, 0.2, 0.3}
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	embedding.On("GenerateEmbedding", mock.Anything, "The deploy runs every Friday.").Return(vec, nil)
	store.On("MarkIndexed", mock.Anything, mock.Anything, "The deploy runs every Friday.", vec).Return(nil)

	svc := NewIngestService(store, nil, embedding, nil)

	item, err := svc.Ingest(context.Background(), IngestInput{
		ProjectID: "p1",
		Type:      domain.KnowledgeTypeText,
		Content:   "The deploy runs every Friday.",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.KnowledgeStatusIndexed, item.Status)
	assert.Equal(t, "The deploy runs every Friday.", item.Content)
	assert.NotEmpty(t, item.ID)
	store.AssertExpectations(t)
}

func TestIngestService_Ingest_MissingProjectID(t *testing.T) {
	svc := NewIngestService(&MockKnowledgeStore{}, nil, &MockEmbeddingClient{}, nil)

	_, err := svc.Ingest(context.Background(), IngestInput{Type: domain.KnowledgeTypeText, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrMissingProjectID)
}

func TestIngestService_Ingest_EmptyTextMarksError(t *testing.T) {
	store := &MockKnowledgeStore{}

	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkError", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewIngestService(store, nil, &MockEmbeddingClient{}, nil)

	item, err := svc.Ingest(context.Background(), IngestInput{
		ProjectID: "p1",
		Type:      domain.KnowledgeTypeText,
		Content:   "   ",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	// The item survives in the error state instead of vanishing.
	require.NotNil(t, item)
	assert.Equal(t, domain.KnowledgeStatusError, item.Status)
	store.AssertCalled(t, "MarkError", mock.Anything, item.ID, mock.Anything)
}

func TestIngestService_Ingest_Audio(t *testing.T) {
	store := &MockKnowledgeStore{}
	objects := &MockObjectStore{}
	embedding := &MockEmbeddingClient{}
	audio := &MockTranscriptionClient{}

	vec := []float32{0.5}
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	objects.On("UploadObject", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "p1/") && strings.HasSuffix(key, "/standup.mp3")
	}), "audio/mpeg", mock.Anything).Return(nil)
	objects.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://objects.example/standup.mp3", nil)
	store.On("SetFile", mock.Anything, mock.Anything, mock.Anything, "https://objects.example/standup.mp3").Return(nil)
	audio.On("Transcribe", mock.Anything, mock.Anything, "standup.mp3").Return("We shipped the billing fix.", nil)
	embedding.On("GenerateEmbedding", mock.Anything, "We shipped the billing fix.").Return(vec, nil)
	store.On("MarkIndexed", mock.Anything, mock.Anything, "We shipped the billing fix.", vec).Return(nil)

	svc := NewIngestService(store, objects, embedding, audio)

	item, err := svc.Ingest(context.Background(), IngestInput{
		ProjectID:   "p1",
		Type:        domain.KnowledgeTypeAudio,
		FileName:    "standup.mp3",
		ContentType: "audio/mpeg",
		File:        strings.NewReader("fake-mp3-bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.KnowledgeStatusIndexed, item.Status)
	assert.Equal(t, "We shipped the billing fix.", item.Content)
	assert.NotEmpty(t, item.FileKey)
	assert.Equal(t, "https://objects.example/standup.mp3", item.FileURL)
	objects.AssertExpectations(t)
	audio.AssertExpectations(t)
}

func TestIngestService_Ingest_AudioWithoutFile(t *testing.T) {
	store := &MockKnowledgeStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkError", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewIngestService(store, &MockObjectStore{}, &MockEmbeddingClient{}, &MockTranscriptionClient{})

	item, err := svc.Ingest(context.Background(), IngestInput{
		ProjectID: "p1",
		Type:      domain.KnowledgeTypeAudio,
		FileName:  "standup.mp3",
	})
	require.Error(t, err)
	assert.Equal(t, domain.KnowledgeStatusError, item.Status)
}

func TestIngestService_Ingest_PDFGarbageMarksError(t *testing.T) {
	store := &MockKnowledgeStore{}
	objects := &MockObjectStore{}

	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	objects.On("UploadObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	objects.On("GenerateDownloadURL", mock.Anything, mock.Anything).Return("https://objects.example/broken.pdf", nil)
	store.On("SetFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("MarkError", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewIngestService(store, objects, &MockEmbeddingClient{}, nil)

	item, err := svc.Ingest(context.Background(), IngestInput{
		ProjectID:   "p1",
		Type:        domain.KnowledgeTypePDF,
		FileName:    "broken.pdf",
		ContentType: "application/pdf",
		File:        strings.NewReader("this is not a pdf"),
	})
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeProcessing, domainErr.Code)
	assert.Equal(t, domain.KnowledgeStatusError, item.Status)

	// The raw upload is kept even though extraction failed.
	objects.AssertCalled(t, "UploadObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestService_Ingest_EmbeddingFailureMarksError(t *testing.T) {
	store := &MockKnowledgeStore{}
	embedding := &MockEmbeddingClient{}

	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	embedding.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
	store.On("MarkError", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewIngestService(store, nil, embedding, nil)

	item, err := svc.Ingest(context.Background(), IngestInput{
		ProjectID: "p1",
		Type:      domain.KnowledgeTypeText,
		Content:   "some content",
	})
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUpstream, domainErr.Code)
	assert.Equal(t, domain.KnowledgeStatusError, item.Status)
}

func TestIngestService_Ingest_UnknownType(t *testing.T) {
	store := &MockKnowledgeStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkError", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewIngestService(store, nil, &MockEmbeddingClient{}, nil)

	_, err := svc.Ingest(context.Background(), IngestInput{
		ProjectID: "p1",
		Type:      domain.KnowledgeType("video"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItemType)
}

func TestIngestService_List_RefreshesDownloadURLs(t *testing.T) {
	store := &MockKnowledgeStore{}
	objects := &MockObjectStore{}

	items := []*domain.KnowledgeItem{
		{ID: "i1", ProjectID: "p1", FileKey: "p1/i1/notes.pdf", FileURL: "stale"},
		{ID: "i2", ProjectID: "p1"},
	}
	store.On("ListByProject", mock.Anything, "p1").Return(items, nil)
	objects.On("GenerateDownloadURL", mock.Anything, "p1/i1/notes.pdf").Return("https://objects.example/fresh", nil)

	svc := NewIngestService(store, objects, &MockEmbeddingClient{}, nil)

	got, err := svc.List(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "https://objects.example/fresh", got[0].FileURL)
	assert.Empty(t, got[1].FileURL)
	objects.AssertNumberOfCalls(t, "GenerateDownloadURL", 1)
}

func TestIngestService_List_MissingProjectID(t *testing.T) {
	svc := NewIngestService(&MockKnowledgeStore{}, nil, &MockEmbeddingClient{}, nil)

	_, err := svc.List(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingProjectID)
}

func TestIngestService_Delete_RemovesStoredFile(t *testing.T) {
	store := &MockKnowledgeStore{}
	objects := &MockObjectStore{}

	store.On("GetByID", mock.Anything, "i1").Return(&domain.KnowledgeItem{
		ID: "i1", ProjectID: "p1", FileKey: "p1/i1/notes.pdf",
	}, nil)
	objects.On("DeleteObject", mock.Anything, "p1/i1/notes.pdf").Return(nil)
	store.On("Delete", mock.Anything, "i1").Return(true, nil)

	svc := NewIngestService(store, objects, &MockEmbeddingClient{}, nil)

	require.NoError(t, svc.Delete(context.Background(), "i1"))
	objects.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestIngestService_Delete_MissingItemIsIdempotent(t *testing.T) {
	store := &MockKnowledgeStore{}
	store.On("GetByID", mock.Anything, "gone").
		Return(nil, domain.NewDomainError(domain.ErrCodeNotFound, "knowledge item not found"))

	svc := NewIngestService(store, nil, &MockEmbeddingClient{}, nil)

	assert.NoError(t, svc.Delete(context.Background(), "gone"))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestIngestService_Delete_ObjectFailureStillDeletesRow(t *testing.T) {
	store := &MockKnowledgeStore{}
	objects := &MockObjectStore{}

	store.On("GetByID", mock.Anything, "i1").Return(&domain.KnowledgeItem{
		ID: "i1", ProjectID: "p1", FileKey: "p1/i1/notes.pdf",
	}, nil)
	objects.On("DeleteObject", mock.Anything, mock.Anything).Return(errors.New("storage offline"))
	store.On("Delete", mock.Anything, "i1").Return(true, nil)

	svc := NewIngestService(store, objects, &MockEmbeddingClient{}, nil)

	assert.NoError(t, svc.Delete(context.Background(), "i1"))
	store.AssertCalled(t, "Delete", mock.Anything, "i1")
}
