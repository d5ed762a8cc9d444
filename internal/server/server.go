package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/conceptlab/genea/internal/queue"
	mid "github.com/conceptlab/genea/internal/server/middleware"
	"github.com/conceptlab/genea/internal/storage"
	"github.com/conceptlab/genea/internal/util"
	"github.com/conceptlab/genea/pkg/ai"
	oai "github.com/conceptlab/genea/pkg/ai/ollama"
	gai "github.com/conceptlab/genea/pkg/ai/openai"
	"github.com/conceptlab/genea/pkg/logger"
	pgxstore "github.com/conceptlab/genea/pkg/store/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Auth is optional: without AUTH_URL and MASTER_API_KEY the API runs
	// open, the expected mode for local single-user deployments.
	authURL := util.GetEnv("AUTH_URL")
	masterAPIKey := util.GetEnv("MASTER_API_KEY")

	var key *keyfunc.Keyfunc
	if authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	runMigrations()

	conn, err := pgxstore.Connect(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	if err := queue.SetupQueues(ch, queue.QueueNames); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	app := &mid.App{
		DBConn:       conn,
		Store:        pgxstore.New(conn),
		Queue:        ch,
		Key:          key,
		S3:           s3,
		AIClient:     newAIClient(),
		MasterAPIKey: masterAPIKey,
		AuthEnabled:  authURL != "" || masterAPIKey != "",
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("512M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// newAIClient builds the provider-backed AI client selected by AI_ADAPTER.
// Built once per process, the client carries the request semaphore shared
// by all handlers.
func newAIClient() ai.GenealogyAIClient {
	adapter := util.GetEnv("AI_ADAPTER")
	maxParallel := int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 1))

	switch adapter {
	case "ollama":
		client, err := oai.NewGenealogyOllamaClient(oai.NewGenealogyOllamaClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: maxParallel,
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewGenealogyOpenAIClient(gai.NewGenealogyOpenAIClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: maxParallel,
		})
	}
}

func runMigrations() {
	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "file://migrations")

	m, err := migrate.New(migrationsPath, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to init migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
	logger.Info("Database schema up to date")
}
