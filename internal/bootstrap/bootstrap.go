// Package bootstrap builds the infrastructure shared by cmd/api and
// cmd/worker from config.
package bootstrap

import (
	"context"
	"net/http"
	"regexp"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"pantry-service/internal/apperr"
	"pantry-service/internal/config"
	"pantry-service/internal/detect"
	"pantry-service/internal/generate"
	"pantry-service/internal/jobstore"
	"pantry-service/internal/repository/postgresql"
	"pantry-service/internal/service"
	"pantry-service/internal/storage"
)

// connectBudget bounds startup retries against Redis and Postgres. Provider
// calls are never retried.
const connectBudget = 30 * time.Second

func retryOpts(log zerolog.Logger, what string) []backoff.RetryOption {
	return []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(connectBudget),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msgf("%s not reachable yet", what)
		}),
	}
}

func ConnectRedis(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	_, err := backoff.Retry(ctx, func() (string, error) {
		return rdb.Ping(ctx).Result()
	}, retryOpts(log, "redis")...)
	if err != nil {
		_ = rdb.Close()
		return nil, apperr.Wrapf(err, "redis %s", cfg.Addr)
	}
	log.Info().Str("addr", cfg.Addr).Msg("redis connected")
	return rdb, nil
}

func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		return postgresql.NewPool(ctx, cfg.URL, cfg.MaxConns)
	}, retryOpts(log, "postgres")...)
	if err != nil {
		return nil, apperr.Wrapf(err, "postgres %s", RedactDSN(cfg.URL))
	}
	log.Info().Str("dsn", RedactDSN(cfg.URL)).Msg("postgres connected")
	return pool, nil
}

var dsnPassword = regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)

// RedactDSN masks the password: user:pass@ -> user:****@.
func RedactDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, `://$1:****@`)
}

// NewJobStore picks the job ledger. rdb may be nil for the memory driver.
func NewJobStore(cfg config.JobsConfig, rdb redis.Cmdable) jobstore.Store {
	if cfg.StoreDriver == "memory" {
		return jobstore.NewMemory()
	}
	return jobstore.NewRedis(rdb, cfg.KeyPrefix)
}

// NewQueue returns the Redis reliable queue, or an in-process queue when
// the job store is in memory.
func NewQueue(cfg config.Config, rdb redis.Cmdable) service.Queue {
	if cfg.Jobs.StoreDriver == "memory" {
		return service.NewMemoryQueue(256)
	}
	return service.NewRedisQueue(rdb, cfg.Queue.QueueKey, cfg.Queue.ProcessingKey, cfg.Queue.VisibilityTimeout)
}

// NewImageStore returns the store and a close func for its client.
func NewImageStore(ctx context.Context, cfg config.StorageConfig) (storage.ImageStore, func() error, error) {
	switch cfg.Driver {
	case "gcs":
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, nil, apperr.Wrap(err, "create storage client")
		}
		return storage.NewGCSStore(client, cfg.GCSBucket), client.Close, nil
	default:
		fs, err := storage.NewFileStore(cfg.Path, cfg.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() error { return nil }, nil
	}
}

func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperr.Wrap(err, "create genai client")
	}
	return client, nil
}

// NewDetector builds the configured detection adapter. genAI is only used
// for DETECTOR=gemini.
func NewDetector(cfg config.Config, genAI *genai.Client) (detect.Detector, error) {
	switch cfg.Detect.Provider {
	case "yolo":
		return detect.NewYOLO(cfg.Detect.YOLOURL, &http.Client{Timeout: cfg.Detect.Timeout}), nil
	case "gemini":
		if genAI == nil {
			return nil, apperr.New("gemini detector needs a genai client")
		}
		return detect.NewGemini(genAI.Models, cfg.Generate.GeminiModel), nil
	default:
		return nil, apperr.Newf("unknown detector %q", cfg.Detect.Provider)
	}
}

// NewGenerator builds the configured recipe generation adapter.
func NewGenerator(cfg config.GenerateConfig, genAI *genai.Client) (generate.Generator, error) {
	switch cfg.Provider {
	case "openai":
		client := generate.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		return generate.NewOpenAI(&client.Chat.Completions, cfg.OpenAIModel), nil
	case "gemini":
		if genAI == nil {
			return nil, apperr.New("gemini generator needs a genai client")
		}
		return generate.NewGemini(genAI.Models, cfg.GeminiModel), nil
	default:
		return nil, apperr.Newf("unknown generator %q", cfg.Provider)
	}
}

// NeedsGenAI reports whether any configured adapter talks to Gemini.
func NeedsGenAI(cfg config.Config, withGenerator bool) bool {
	return cfg.Detect.Provider == "gemini" || (withGenerator && cfg.Generate.Provider == "gemini")
}
