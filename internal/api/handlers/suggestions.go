package handlers

import (
	"context"
	"net/http"

	"github.com/praxis-labs/lorebase/internal/api"
	"github.com/praxis-labs/lorebase/internal/service"
)

// Suggester builds prompt suggestions for a project.
type Suggester interface {
	Suggest(ctx context.Context, projectID string) ([]service.Suggestion, error)
}

type SuggestionHandler struct {
	suggester Suggester
}

func NewSuggestionHandler(suggester Suggester) *SuggestionHandler {
	return &SuggestionHandler{suggester: suggester}
}

// List returns up to three prompt suggestions drawn from the project's
// knowledge items.
func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	suggestions, err := h.suggester.Suggest(r.Context(), projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
