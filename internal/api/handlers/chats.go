package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/praxis-labs/lorebase/internal/api"
	"github.com/praxis-labs/lorebase/internal/domain"
)

// ChatHistoryStore defines the read operations for chat history.
type ChatHistoryStore interface {
	GetChatByID(ctx context.Context, id string) (*domain.Chat, error)
	ListChatsByProject(ctx context.Context, projectID string) ([]*domain.Chat, error)
	ListMessagesByChat(ctx context.Context, chatID string) ([]*domain.Message, error)
}

type ChatHistoryHandler struct {
	store ChatHistoryStore
}

func NewChatHistoryHandler(store ChatHistoryStore) *ChatHistoryHandler {
	return &ChatHistoryHandler{store: store}
}

type chatResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the project's chats newest first.
func (h *ChatHistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}

	chats, err := h.store.ListChatsByProject(r.Context(), projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]chatResponse, 0, len(chats))
	for _, c := range chats {
		resp = append(resp, chatResponse{ID: c.ID, ProjectID: c.ProjectID, CreatedAt: c.CreatedAt})
	}

	api.Success(w, http.StatusOK, resp)
}

// Get returns one chat with its messages oldest first.
func (h *ChatHistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")

	chat, err := h.store.GetChatByID(r.Context(), chatID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	messages, err := h.store.ListMessagesByChat(r.Context(), chatID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	msgs := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, messageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	api.Success(w, http.StatusOK, map[string]any{
		"chat":     chatResponse{ID: chat.ID, ProjectID: chat.ProjectID, CreatedAt: chat.CreatedAt},
		"messages": msgs,
	})
}
