package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/praxis-labs/lorebase/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChatStreamer scripts the service behavior for handler tests.
type stubChatStreamer struct {
	chatID string
	chunks []string
	output *service.ChatOutput
	err    error

	gotInput service.ChatInput
}

func (s *stubChatStreamer) EnsureChat(ctx context.Context, projectID, chatID string) string {
	if chatID != "" {
		return chatID
	}
	return s.chatID
}

func (s *stubChatStreamer) Stream(ctx context.Context, input service.ChatInput, onChunk func(string) error) (*service.ChatOutput, error) {
	s.gotInput = input
	if s.err != nil {
		return nil, s.err
	}
	for _, chunk := range s.chunks {
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}
	return s.output, nil
}

func TestChatHandler_Create_StreamsReply(t *testing.T) {
	streamer := &stubChatStreamer{
		chatID: "chat-1",
		chunks: []string{"Hello ", "world."},
		output: &service.ChatOutput{ChatID: "chat-1", Reply: "Hello world."},
	}
	handler := NewChatHandler(streamer)

	body := `{"projectId":"p1","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "chat-1", rec.Header().Get("X-Chat-ID"))
	assert.Equal(t, "Hello world.", rec.Body.String())
	assert.Equal(t, "chat-1", streamer.gotInput.ChatID)
}

func TestChatHandler_Create_ReusesProvidedChatID(t *testing.T) {
	streamer := &stubChatStreamer{
		chatID: "new-chat",
		chunks: []string{"ok"},
		output: &service.ChatOutput{ChatID: "existing", Reply: "ok"},
	}
	handler := NewChatHandler(streamer)

	body := `{"projectId":"p1","chatId":"existing","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, "existing", rec.Header().Get("X-Chat-ID"))
}

func TestChatHandler_Create_Validation(t *testing.T) {
	handler := NewChatHandler(&stubChatStreamer{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing projectId", `{"messages":[{"role":"user","content":"hi"}]}`},
		{"missing messages", `{"projectId":"p1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestChatHandler_Create_ErrorBeforeFirstChunk(t *testing.T) {
	streamer := &stubChatStreamer{
		err: domain.NewDomainError(domain.ErrCodeUpstream, "chat completion failed"),
	}
	handler := NewChatHandler(streamer)

	body := `{"projectId":"p1","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"[UPSTREAM_ERROR] chat completion failed"}`, rec.Body.String())
}

func TestChatHandler_Create_EmptyStreamStillAnswers(t *testing.T) {
	streamer := &stubChatStreamer{
		chatID: "chat-1",
		output: &service.ChatOutput{ChatID: "chat-1"},
	}
	handler := NewChatHandler(streamer)

	body := `{"projectId":"p1","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "chat-1", rec.Header().Get("X-Chat-ID"))
}

// errAfterStart simulates a stream failing mid-flight.
type errAfterStart struct {
	stubChatStreamer
}

func (s *errAfterStart) Stream(ctx context.Context, input service.ChatInput, onChunk func(string) error) (*service.ChatOutput, error) {
	if err := onChunk("partial "); err != nil {
		return nil, err
	}
	return nil, errors.New("upstream hung up")
}

func TestChatHandler_Create_ErrorAfterFirstChunkKeepsPartialBody(t *testing.T) {
	handler := NewChatHandler(&errAfterStart{})

	body := `{"projectId":"p1","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	// Headers were already sent; the body just ends early with no JSON error.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial ", rec.Body.String())
}
