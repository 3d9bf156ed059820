package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/praxis-labs/lorebase/internal/api/handlers"
	"github.com/praxis-labs/lorebase/internal/api/middleware"
)

type RouterConfig struct {
	ChatHandler        *handlers.ChatHandler
	ChatHistoryHandler *handlers.ChatHistoryHandler
	IngestHandler      *handlers.IngestHandler
	ProjectHandler     *handlers.ProjectHandler
	SpeechHandler      *handlers.SpeechHandler
	SuggestionHandler  *handlers.SuggestionHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Large enough for audio uploads, small enough to shed abuse.
	const maxBodyBytes int64 = 25 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", handlers.Health)

	r.Post("/chat", cfg.ChatHandler.Create)

	r.Route("/chats", func(r chi.Router) {
		r.Get("/", cfg.ChatHistoryHandler.List)
		r.Get("/{chatId}", cfg.ChatHistoryHandler.Get)
	})

	r.Route("/ingest", func(r chi.Router) {
		r.Post("/", cfg.IngestHandler.Create)
		r.Get("/", cfg.IngestHandler.List)
		r.Delete("/", cfg.IngestHandler.Delete)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Post("/", cfg.ProjectHandler.Create)
		r.Get("/", cfg.ProjectHandler.List)
		r.Delete("/", cfg.ProjectHandler.Delete)
	})

	r.Post("/speak", cfg.SpeechHandler.Speak)
	r.Post("/transcribe", cfg.SpeechHandler.Transcribe)

	r.Get("/suggestions", cfg.SuggestionHandler.List)

	return r
}
