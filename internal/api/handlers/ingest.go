package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/praxis-labs/lorebase/internal/api"
	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/praxis-labs/lorebase/internal/service"
)

const maxUploadMemory = 10 << 20 // 10 MiB buffered in memory, rest spills to disk

// Ingester defines the ingestion operations the handler exposes.
type Ingester interface {
	Ingest(ctx context.Context, input service.IngestInput) (*domain.KnowledgeItem, error)
	List(ctx context.Context, projectID string) ([]*domain.KnowledgeItem, error)
	Delete(ctx context.Context, id string) error
}

type IngestHandler struct {
	ingester Ingester
}

func NewIngestHandler(ingester Ingester) *IngestHandler {
	return &IngestHandler{ingester: ingester}
}

type ingestItemResponse struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	FileName     string    `json:"file_name,omitempty"`
	FileURL      string    `json:"file_url,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toIngestItemResponse(item *domain.KnowledgeItem) ingestItemResponse {
	return ingestItemResponse{
		ID:           item.ID,
		ProjectID:    item.ProjectID,
		Type:         string(item.Type),
		Status:       string(item.Status),
		FileName:     item.FileName,
		FileURL:      item.FileURL,
		ErrorMessage: item.ErrorMessage,
		CreatedAt:    item.CreatedAt,
	}
}

// Create accepts a multipart form with projectId, type, and either content
// (text) or file (audio, pdf). Processing runs inline; a failed item is still
// reported with its id so the client can show the error state.
func (h *IngestHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	input := service.IngestInput{
		ProjectID: r.FormValue("projectId"),
		Type:      domain.KnowledgeType(r.FormValue("type")),
		Content:   r.FormValue("content"),
	}

	if input.ProjectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		input.File = file
		input.FileName = header.Filename
		input.ContentType = header.Header.Get("Content-Type")
	}

	item, err := h.ingester.Ingest(r.Context(), input)
	if err != nil {
		if item == nil {
			api.HandleError(w, err)
			return
		}
		// Item exists in the error state; report it with the failure.
		api.JSON(w, api.DomainErrorToHTTP(err), map[string]any{
			"success": false,
			"id":      item.ID,
			"status":  string(item.Status),
			"error":   err.Error(),
		})
		return
	}

	api.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      item.ID,
		"status":  string(item.Status),
	})
}

// List returns the project's knowledge items newest first.
func (h *IngestHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	items, err := h.ingester.List(r.Context(), projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]ingestItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toIngestItemResponse(item))
	}

	api.JSON(w, http.StatusOK, map[string]any{"items": resp})
}

// Delete removes an item and its stored file. Deleting twice succeeds both
// times.
func (h *IngestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.ingester.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"success": true, "deleted": id})
}
