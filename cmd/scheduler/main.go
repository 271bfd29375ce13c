package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	entityrepo "crm_search_backend/internal/entities/repository"
	"crm_search_backend/internal/entities/snapshot"
	"crm_search_backend/internal/events"
	"crm_search_backend/internal/scheduler"
	"crm_search_backend/platform/config"
	"crm_search_backend/platform/db"
	"crm_search_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.GetDatabaseURL() == "" {
		panic("DATABASE_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	bucket, err := snapshot.NewBucket(cfg)
	if err != nil {
		log.Error("failed to initialize snapshot bucket", "error", err)
		panic("failed to initialize snapshot bucket: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure snapshot bucket", 5, 2*time.Second, func() error {
		return bucket.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure snapshot bucket exists", "error", err, "bucket", bucket.BucketName())
		panic("failed to ensure snapshot bucket exists: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	eventBus.Subscribe(events.SnapshotExported{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		exported, ok := e.(events.SnapshotExported)
		if !ok {
			return nil
		}
		log.Debug("snapshot available", "bucket", exported.Bucket, "object", exported.ObjectKey, "at", exported.OccurredAt())
		return nil
	}))

	exporter := scheduler.NewExporter(entityrepo.New(pool), bucket, eventBus, log)

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, exporter, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
