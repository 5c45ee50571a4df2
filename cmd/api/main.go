// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "pantry-service/docs"
	"pantry-service/internal/bootstrap"
	"pantry-service/internal/config"
	"pantry-service/internal/detect"
	"pantry-service/internal/jobstore"
	"pantry-service/internal/logging"
	"pantry-service/internal/repository/postgresql"
	"pantry-service/internal/service"
	"pantry-service/internal/storage"
	httptransport "pantry-service/internal/transport/http"
	"pantry-service/internal/worker"
)

// @title Pantry Service API
// @version 1.0
// @description Pantry photo ingredient detection and recipe generation.
// @BasePath /
func main() {
	// optional .env
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.AppEnv, cfg.LogLevel)

	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped with error")
	}
	log.Info().Msg("api stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Postgres
	pool, err := bootstrap.ConnectPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgresql.Migrate(ctx, pool, logging.Component(log, "migrate")); err != nil {
		return err
	}

	// Redis, unless everything runs in process
	var rdb *redis.Client
	checks := []httptransport.ReadyCheck{{Name: "postgres", Check: pool.Ping}}
	if cfg.Jobs.StoreDriver == "redis" {
		rdb, err = bootstrap.ConnectRedis(ctx, cfg.Redis, log)
		if err != nil {
			return err
		}
		defer rdb.Close()
		checks = append(checks, httptransport.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

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
	if err != nil && bootstrap.NeedsGenAI(*cfg, true) {
		return err
	}
	generator, err := bootstrap.NewGenerator(cfg.Generate, genAI)
	if err != nil {
		return err
	}

	store := bootstrap.NewJobStore(cfg.Jobs, rdb)
	queue := bootstrap.NewQueue(*cfg, rdb)
	ttl := jobstore.TTL{Pending: cfg.Jobs.PendingTTL, Terminal: cfg.Jobs.TerminalTTL}

	// DI
	detections := service.NewDetectionService(store, images, queue, ttl, cfg.Storage.MaxUploadBytes, log)
	recipes := service.NewRecipeService(postgresql.NewRecipeRepository(pool), generator, cfg.Generate.Timeout, log)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Queue.Embedded {
		detector, err := bootstrap.NewDetector(*cfg, genAI)
		if err != nil {
			return err
		}
		if y, ok := detector.(*detect.YOLO); ok {
			checks = append(checks, httptransport.ReadyCheck{Name: "yolo", Check: y.Healthy})
		}
		processor := worker.NewProcessor(store, images, detector, ttl, cfg.Detect.Timeout, log)
		workers := worker.NewPool(queue, processor, cfg.Queue.Workers, log)
		reaper := worker.NewReaper(queue, cfg.Queue.ReapInterval, log)

		g.Go(func() error { workers.Run(gctx); return nil })
		g.Go(func() error { reaper.Run(gctx); return nil })
		log.Info().Int("workers", cfg.Queue.Workers).Str("detector", detector.Name()).Msg("embedded worker enabled")
	}

	opts := httptransport.RouteOptions{
		UploadPerMinute:   cfg.Limits.UploadPerMinute,
		GeneratePerMinute: cfg.Limits.GeneratePerMinute,
	}
	if fs, ok := images.(*storage.FileStore); ok {
		opts.StorageDir = fs.BasePath()
	}
	h := httptransport.NewHandler(detections, recipes, cfg.Storage.MaxUploadBytes, log, checks...)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httptransport.Routes(h, opts, logging.Component(log, "http")),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).
			Str("job_store", cfg.Jobs.StoreDriver).
			Str("storage", cfg.Storage.Driver).
			Str("generator", generator.Name()).
			Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
		return nil
	})

	return g.Wait()
}
