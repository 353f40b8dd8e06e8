package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"admitbot/internal/ai"
	"admitbot/internal/config"
	"admitbot/internal/model"
	mysqlClient "admitbot/internal/platform/mysql"
	rabbitmqClient "admitbot/internal/platform/rabbitmq"
	redisClient "admitbot/internal/platform/redis"
	"admitbot/internal/repository"
	"admitbot/internal/worker"
)

type App struct {
	Config           *config.Config
	MySQL            *gorm.DB
	Redis            *redis.Client
	MQConn           *amqp.Connection
	Gateway          *ai.Gateway
	Embedder         *ai.EmbeddingClient
	TranscriptWorker *worker.TranscriptPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Document{},
		&model.Chunk{},
		&model.Query{},
		&model.Response{},
		&model.ResponseSource{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.TranscriptPersistQueue)
	if err != nil {
		return nil, err
	}

	transcriptRepo := repository.NewTranscriptRepository(mysqlDB)
	transcriptWorker := worker.NewTranscriptPersistWorker(mqConn, transcriptRepo, cfg.RabbitMQ.TranscriptPersistQueue)
	if err := transcriptWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start transcript worker failed: %w", err)
	}

	return &App{
		Config:           cfg,
		MySQL:            mysqlDB,
		Redis:            redisCli,
		MQConn:           mqConn,
		Gateway:          ai.NewGateway(buildBackend(ctx, cfg)),
		Embedder:         ai.NewEmbeddingClient(cfg.Embedding),
		TranscriptWorker: transcriptWorker,
		StartedAt:        time.Now(),
	}, nil
}

// buildBackend assembles the generation chain: the hosted backend when an
// API key is configured, the local Ollama backend when a model is named,
// chained so that either can cover for the other.
func buildBackend(ctx context.Context, cfg *config.Config) ai.Backend {
	var hosted ai.Backend
	if cfg.LLM.APIKey != "" {
		hosted = ai.NewOpenAIClient(cfg.LLM)
	}

	var local ai.Backend
	if cfg.Ollama.Model != "" {
		ollama := ai.NewOllamaClient(cfg.Ollama)
		ollama.WarmUp(ctx)
		local = ollama
	}

	switch {
	case hosted != nil && local != nil:
		if cfg.Ollama.Primary {
			return ai.NewFallbackBackend(local, hosted)
		}
		return ai.NewFallbackBackend(hosted, local)
	case hosted != nil:
		return hosted
	case local != nil:
		return local
	default:
		return nil
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TranscriptWorker != nil {
		a.TranscriptWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
