package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/praxis-labs/lorebase/internal/domain"
	"github.com/praxis-labs/lorebase/internal/telemetry"
)

// Searcher runs one retrieval pass for a query.
type Searcher interface {
	Search(ctx context.Context, projectID, query string) (*RetrievalResult, error)
}

// ChatStore persists chats and their messages.
type ChatStore interface {
	CreateChat(ctx context.Context, chat *domain.Chat) error
	GetChatByID(ctx context.Context, id string) (*domain.Chat, error)
	CreateMessage(ctx context.Context, m *domain.Message) error
}

// RetrievalLogger records retrieval outcomes. Logging is best-effort and
// never affects the request.
type RetrievalLogger interface {
	LogRetrieval(ctx context.Context, projectID, query string, result *RetrievalResult)
}

// ChatInput is one chat request: the full prior conversation plus the
// project to answer from. ChatID is empty for a fresh conversation.
type ChatInput struct {
	ProjectID string
	ChatID    string
	Messages  []ChatMessage
}

// ChatOutput reports what the stream produced.
type ChatOutput struct {
	ChatID        string
	Disambiguated bool
	Reply         string
}

// ChatService drives the retrieval-augmented chat pipeline: fuse searches,
// gate on the vague/not-vague decision, and stream either a disambiguation
// question or a grounded answer.
type ChatService struct {
	searcher   Searcher
	completion CompletionClient
	store      ChatStore
	logger     RetrievalLogger
}

// NewChatService creates a new ChatService instance
func NewChatService(searcher Searcher, completion CompletionClient, store ChatStore) *ChatService {
	return &ChatService{searcher: searcher, completion: completion, store: store}
}

// WithRetrievalLogger attaches a best-effort retrieval logger.
func (s *ChatService) WithRetrievalLogger(logger RetrievalLogger) *ChatService {
	s.logger = logger
	return s
}

// Stream validates the request, runs retrieval, and streams the response
// through onChunk. The user message is persisted before streaming and the
// assistant reply after; persistence failures degrade to logging only.
func (s *ChatService) Stream(ctx context.Context, input ChatInput, onChunk func(string) error) (*ChatOutput, error) {
	if input.ProjectID == "" {
		return nil, domain.ErrMissingProjectID
	}
	if len(input.Messages) == 0 {
		return nil, domain.ErrMissingMessages
	}

	userQuery := ""
	for i := len(input.Messages) - 1; i >= 0; i-- {
		if input.Messages[i].Role == "user" {
			userQuery = input.Messages[i].Content
			break
		}
	}
	if userQuery == "" {
		return nil, domain.ErrNoUserMessage
	}

	ctx, span := telemetry.StartSpan(ctx, "ChatService.Stream", telemetry.SpanAttributes{
		ProjectID: input.ProjectID,
		ChatID:    input.ChatID,
		Operation: "chat",
	})
	defer span.End()

	result, err := s.searcher.Search(ctx, input.ProjectID, userQuery)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if s.logger != nil {
		s.logger.LogRetrieval(ctx, input.ProjectID, userQuery, result)
	}

	chatID := s.ensureChat(ctx, input)
	s.saveMessage(ctx, chatID, domain.MessageRoleUser, userQuery)

	var stream ChatStream
	disambiguated := false

	if result.Vague && len(result.Matches) > 1 {
		topics := ExtractTopics(result.Matches)
		telemetry.AddBreadcrumb(ctx, "chat", "disambiguating broad query")
		log.Printf("chat: vague query with %d matches, offering %d topics", len(result.Matches), len(topics))

		stream, err = s.completion.StreamChatCompletion(ctx, disambiguationSystemPrompt, []ChatMessage{
			{Role: "user", Content: BuildDisambiguationPrompt(topics)},
		})
		disambiguated = true
	} else {
		stream, err = s.completion.StreamChatCompletion(ctx, BuildSystemPrompt(result.Matches), input.Messages)
	}
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "chat completion failed", err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			span.SetError(err)
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "chat completion failed", err)
		}
		if chunk == "" {
			continue
		}
		reply.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			// Caller went away; stop streaming but keep what we have.
			log.Printf("chat: client disconnected mid-stream: %v", err)
			break
		}
	}

	s.saveMessage(ctx, chatID, domain.MessageRoleAssistant, reply.String())

	return &ChatOutput{
		ChatID:        chatID,
		Disambiguated: disambiguated,
		Reply:         reply.String(),
	}, nil
}

// EnsureChat resolves or creates the chat row for a conversation, returning
// its id. Callers that need the id before streaming starts (for a response
// header) resolve it here and pass it back in ChatInput.
func (s *ChatService) EnsureChat(ctx context.Context, projectID, chatID string) string {
	return s.ensureChat(ctx, ChatInput{ProjectID: projectID, ChatID: chatID})
}

// ensureChat resolves or creates the chat row. Failures are logged and
// leave the conversation unpersisted rather than failing the request.
func (s *ChatService) ensureChat(ctx context.Context, input ChatInput) string {
	if s.store == nil {
		return ""
	}

	if input.ChatID != "" {
		if _, err := s.store.GetChatByID(ctx, input.ChatID); err != nil {
			log.Printf("chat: unknown chat id %s: %v", input.ChatID, err)
			return ""
		}
		return input.ChatID
	}

	chat := domain.NewChat(uuid.NewString(), input.ProjectID, time.Now().UTC())
	if err := s.store.CreateChat(ctx, chat); err != nil {
		log.Printf("chat: failed to create chat: %v", err)
		return ""
	}
	return chat.ID
}

func (s *ChatService) saveMessage(ctx context.Context, chatID string, role domain.MessageRole, content string) {
	if s.store == nil || chatID == "" || content == "" {
		return
	}

	msg := domain.NewMessage(uuid.NewString(), chatID, role, content, time.Now().UTC())
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		log.Printf("chat: failed to save %s message: %v", role, err)
	}
}
