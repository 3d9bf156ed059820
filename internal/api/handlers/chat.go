package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/praxis-labs/lorebase/internal/api"
	"github.com/praxis-labs/lorebase/internal/service"
)

// ChatStreamer runs the chat pipeline, emitting text chunks through the
// callback as they arrive.
type ChatStreamer interface {
	EnsureChat(ctx context.Context, projectID, chatID string) string
	Stream(ctx context.Context, input service.ChatInput, onChunk func(string) error) (*service.ChatOutput, error)
}

type ChatHandler struct {
	chat ChatStreamer
}

func NewChatHandler(chat ChatStreamer) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type ChatRequest struct {
	Messages  []service.ChatMessage `json:"messages"`
	ProjectID string                `json:"projectId"`
	ChatID    string                `json:"chatId,omitempty"`
}

// Create streams the assistant's reply as plain text. The chat id lands in
// the X-Chat-ID header so clients can continue the conversation. Errors
// before the first chunk produce a JSON error; once streaming has started
// the connection simply ends early.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProjectID == "" {
		api.Error(w, http.StatusBadRequest, "projectId is required")
		return
	}
	if len(req.Messages) == 0 {
		api.Error(w, http.StatusBadRequest, "messages are required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	chatID := h.chat.EnsureChat(r.Context(), req.ProjectID, req.ChatID)

	input := service.ChatInput{
		ProjectID: req.ProjectID,
		ChatID:    chatID,
		Messages:  req.Messages,
	}

	started := false
	writeHeader := func() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if chatID != "" {
			w.Header().Set("X-Chat-ID", chatID)
		}
		w.WriteHeader(http.StatusOK)
		started = true
	}

	_, err := h.chat.Stream(r.Context(), input, func(chunk string) error {
		if !started {
			writeHeader()
		}
		if _, werr := w.Write([]byte(chunk)); werr != nil {
			return werr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			api.HandleError(w, err)
		} else {
			log.Printf("chat: stream aborted: %v", err)
		}
		return
	}

	// Stream may legitimately produce no chunks; still answer.
	if !started {
		writeHeader()
	}
}
