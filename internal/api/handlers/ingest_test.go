package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/praxis-labs/lorebase/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(ctx context.Context, input service.IngestInput) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *MockIngester) List(ctx context.Context, projectID string) ([]*domain.KnowledgeItem, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeItem), args.Error(1)
}

func (m *MockIngester) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestIngestHandler_Create_Text(t *testing.T) {
	ingester := &MockIngester{}
	ingester.On("Ingest", mock.Anything, mock.MatchedBy(func(input service.IngestInput) bool {
		return input.ProjectID == "p1" && input.Type == domain.KnowledgeTypeText && input.Content == "some notes"
	})).Return(&domain.KnowledgeItem{ID: "i1", Status: domain.KnowledgeStatusIndexed}, nil)

	handler := NewIngestHandler(ingester)

	body, contentType := multipartBody(t, map[string]string{
		"projectId": "p1",
		"type":      "text",
		"content":   "some notes",
	})
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"id":"i1","status":"indexed"}`, rec.Body.String())
}

func TestIngestHandler_Create_WithFile(t *testing.T) {
	ingester := &MockIngester{}
	ingester.On("Ingest", mock.Anything, mock.MatchedBy(func(input service.IngestInput) bool {
		return input.FileName == "notes.pdf" && input.File != nil
	})).Return(&domain.KnowledgeItem{ID: "i1", Status: domain.KnowledgeStatusIndexed}, nil)

	handler := NewIngestHandler(ingester)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("projectId", "p1"))
	require.NoError(t, writer.WriteField("type", "pdf"))
	part, err := writer.CreateFormFile("file", "notes.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/ingest", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestIngestHandler_Create_MissingProjectID(t *testing.T) {
	handler := NewIngestHandler(&MockIngester{})

	body, contentType := multipartBody(t, map[string]string{"type": "text", "content": "x"})
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestHandler_Create_FailedItemStillReported(t *testing.T) {
	ingester := &MockIngester{}
	ingester.On("Ingest", mock.Anything, mock.Anything).Return(
		&domain.KnowledgeItem{ID: "i1", Status: domain.KnowledgeStatusError, ErrorMessage: "no content to index"},
		domain.ErrEmptyContent,
	)

	handler := NewIngestHandler(ingester)

	body, contentType := multipartBody(t, map[string]string{"projectId": "p1", "type": "text"})
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"id":"i1","status":"error","error":"[VALIDATION_ERROR] no content to index"}`, rec.Body.String())
}

func TestIngestHandler_List(t *testing.T) {
	ingester := &MockIngester{}
	ingester.On("List", mock.Anything, "p1").Return([]*domain.KnowledgeItem{
		{ID: "i1", ProjectID: "p1", Type: domain.KnowledgeTypeText, Status: domain.KnowledgeStatusIndexed},
	}, nil)

	handler := NewIngestHandler(ingester)

	req := httptest.NewRequest(http.MethodGet, "/ingest?projectId=p1", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items"`)
	assert.Contains(t, rec.Body.String(), `"i1"`)
}

func TestIngestHandler_List_MissingProjectID(t *testing.T) {
	handler := NewIngestHandler(&MockIngester{})

	req := httptest.NewRequest(http.MethodGet, "/ingest", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestHandler_Delete(t *testing.T) {
	ingester := &MockIngester{}
	ingester.On("Delete", mock.Anything, "i1").Return(nil)

	handler := NewIngestHandler(ingester)

	req := httptest.NewRequest(http.MethodDelete, "/ingest?id=i1", nil)
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"deleted":"i1"}`, rec.Body.String())
}

func TestIngestHandler_Delete_MissingID(t *testing.T) {
	handler := NewIngestHandler(&MockIngester{})

	req := httptest.NewRequest(http.MethodDelete, "/ingest", nil)
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
