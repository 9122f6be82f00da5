package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"research-assistant/internal/ai"
	"research-assistant/internal/config"
	"research-assistant/internal/pkg/logger"
	"research-assistant/internal/platform/database"
	postgresClient "research-assistant/internal/platform/postgres"
	rabbitmqClient "research-assistant/internal/platform/rabbitmq"
	redisClient "research-assistant/internal/platform/redis"
	"research-assistant/internal/repository"
	"research-assistant/internal/vectorindex"
	"research-assistant/internal/vectorindex/pgvector"
	"research-assistant/internal/worker"
)

// App holds the process-wide resources. Redis, MQConn, PgPool and
// EventWorker are nil when their backend is not configured.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	DB          *gorm.DB
	DBDriver    string
	Redis       *redis.Client
	MQConn      *amqp.Connection
	PgPool      *pgxpool.Pool
	Index       vectorindex.Index
	LLM         *ai.OpenAICompatibleClient
	EventWorker *worker.EventAuditWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log := logger.New(cfg.App.GinMode)
	app := &App{Config: cfg, Logger: log, StartedAt: time.Now()}

	app.DB, app.DBDriver, err = database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if app.Redis, err = redisClient.New(ctx, cfg.Redis); err != nil {
		app.Close()
		return nil, err
	}

	if app.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL); err != nil {
		app.Close()
		return nil, err
	}
	if app.MQConn != nil {
		app.EventWorker = worker.NewEventAuditWorker(
			app.MQConn, repository.NewEventRepository(app.DB), cfg.RabbitMQ.EventQueue, log)
		if err := app.EventWorker.Start(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("start event worker failed: %w", err)
		}
	}

	switch cfg.Index.Backend {
	case "pgvector":
		if app.PgPool, err = postgresClient.New(ctx, cfg.Index.PgvectorDSN); err != nil {
			app.Close()
			return nil, err
		}
		if app.Index, err = pgvector.New(ctx, app.PgPool); err != nil {
			app.Close()
			return nil, err
		}
	default:
		app.Index = vectorindex.NewSQLIndex(repository.NewChunkRepository(app.DB))
	}

	if cfg.LLM.APIKey == "" {
		log.Warn("no LLM api key configured; uploads and questions will fail upstream")
	}
	app.LLM = ai.NewOpenAICompatibleClient(ai.Config{
		BaseURL:            cfg.LLM.BaseURL,
		APIKey:             cfg.LLM.APIKey,
		ChatModel:          cfg.LLM.Model,
		EmbeddingModel:     cfg.LLM.EmbeddingModel,
		Temperature:        cfg.LLM.Temperature,
		Timeout:            time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		RequestsPerMinute:  cfg.LLM.RequestsPerMinute,
		BreakerMaxFailures: cfg.LLM.BreakerMaxFailures,
	}, log)

	log.Info("resources ready",
		"database", app.DBDriver,
		"index", cfg.Index.Backend,
		"redis", app.Redis != nil,
		"rabbitmq", app.MQConn != nil,
	)
	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.PgPool != nil {
		a.PgPool.Close()
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
