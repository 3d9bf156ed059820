package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	sdkopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/praxis-labs/lorebase/internal/api/handlers"
	"github.com/praxis-labs/lorebase/internal/config"
	"github.com/praxis-labs/lorebase/internal/database"
	"github.com/praxis-labs/lorebase/internal/jobs"
	"github.com/praxis-labs/lorebase/internal/openai"
	"github.com/praxis-labs/lorebase/internal/repository"
	"github.com/praxis-labs/lorebase/internal/server"
	"github.com/praxis-labs/lorebase/internal/service"
	"github.com/praxis-labs/lorebase/internal/storage"
	"github.com/praxis-labs/lorebase/internal/telemetry"
)

const reindexPollInterval = time.Minute

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the lorebase API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("LOREBASE_OPENAI_API_KEY is required")
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	projectRepo := repository.NewProjectRepository(pool)
	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	retrievalLogRepo := repository.NewRetrievalLogRepository(pool)

	openaiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		EmbeddingModel: sdkopenai.EmbeddingModel(cfg.EmbeddingModel),
		ChatModel:      cfg.ChatModel,
	})

	var objectStore service.ObjectStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		objectStore = s3Client
	} else {
		log.Println("S3 not configured; file ingestion disabled")
	}

	retriever := service.NewRetriever(openaiClient, knowledgeRepo)
	chatSvc := service.NewChatService(retriever, openaiClient, chatRepo).
		WithRetrievalLogger(&retrievalLogAdapter{repo: retrievalLogRepo})
	ingestSvc := service.NewIngestService(knowledgeRepo, objectStore, openaiClient, openaiClient)
	projectSvc := service.NewProjectService(projectRepo, knowledgeRepo, objectStore)
	suggestionSvc := service.NewSuggestionService(knowledgeRepo)

	reindexWorker := jobs.NewWorker(jobs.NewReindexWorker(knowledgeRepo, openaiClient), reindexPollInterval)
	workerCtx, stopWorker := context.WithCancel(ctx)
	go reindexWorker.Start(workerCtx)
	defer stopWorker()
	log.Println("reindex worker started")

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:        handlers.NewChatHandler(chatSvc),
		ChatHistoryHandler: handlers.NewChatHistoryHandler(chatRepo),
		IngestHandler:      handlers.NewIngestHandler(ingestSvc),
		ProjectHandler:     handlers.NewProjectHandler(projectSvc),
		SpeechHandler:      handlers.NewSpeechHandler(openaiClient, openaiClient),
		SuggestionHandler:  handlers.NewSuggestionHandler(suggestionSvc),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	reindexWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// retrievalLogAdapter records retrieval outcomes asynchronously so logging
// never adds latency to a chat request.
type retrievalLogAdapter struct {
	repo *repository.RetrievalLogRepository
}

func (a *retrievalLogAdapter) LogRetrieval(ctx context.Context, projectID, query string, result *service.RetrievalResult) {
	entry := &repository.RetrievalLogEntry{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Query:       query,
		Vague:       result.Vague,
		VectorHits:  result.VectorHits,
		KeywordHits: result.KeywordHits,
		CreatedAt:   time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.repo.Create(ctx, entry); err != nil {
			log.Printf("retrieval log write failed: %v", err)
		}
	}()
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is empty (no migrations to apply)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if upErr == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
