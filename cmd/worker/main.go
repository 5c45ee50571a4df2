// cmd/worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pantry-service/internal/bootstrap"
	"pantry-service/internal/config"
	"pantry-service/internal/jobstore"
	"pantry-service/internal/logging"
	"pantry-service/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.AppEnv, cfg.LogLevel)

	if err := cfg.ValidateWorker(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("worker stopped with error")
	}
	log.Info().Msg("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Redis
	rdb, err := bootstrap.ConnectRedis(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	images, closeImages, err := bootstrap.NewImageStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeImages(); err != nil {
			log.Error().Err(err).Msg("close image store")
		}
	}()

	genAI, err := bootstrap.NewGenAIClient(ctx, cfg.Generate.GeminiAPIKey)
	if err != nil && bootstrap.NeedsGenAI(*cfg, false) {
		return err
	}
	detector, err := bootstrap.NewDetector(*cfg, genAI)
	if err != nil {
		return err
	}

	// DI
	store := bootstrap.NewJobStore(cfg.Jobs, rdb)
	queue := bootstrap.NewQueue(*cfg, rdb)
	ttl := jobstore.TTL{Pending: cfg.Jobs.PendingTTL, Terminal: cfg.Jobs.TerminalTTL}

	processor := worker.NewProcessor(store, images, detector, ttl, cfg.Detect.Timeout, log)
	pool := worker.NewPool(queue, processor, cfg.Queue.Workers, log)

	// returns tasks from processing to the queue if a worker died mid-job
	reaper := worker.NewReaper(queue, cfg.Queue.ReapInterval, log)

	log.Info().
		Int("workers", cfg.Queue.Workers).
		Str("detector", detector.Name()).
		Str("redis_addr", cfg.Redis.Addr).
		Str("queue_key", cfg.Queue.QueueKey).
		Str("processing_key", cfg.Queue.ProcessingKey).
		Dur("visibility_timeout", cfg.Queue.VisibilityTimeout).
		Dur("detect_timeout", cfg.Detect.Timeout).
		Msg("worker started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { pool.Run(gctx); return nil })
	g.Go(func() error { reaper.Run(gctx); return nil })
	return g.Wait()
}
