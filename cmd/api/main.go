package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_search_backend/internal/entities"
	entityrepo "crm_search_backend/internal/entities/repository"
	"crm_search_backend/internal/entities/snapshot"
	"crm_search_backend/internal/events"
	"crm_search_backend/internal/facets"
	facetsapi "crm_search_backend/internal/facets/api"
	facetrepo "crm_search_backend/internal/facets/repository"
	facetservice "crm_search_backend/internal/facets/service"
	"crm_search_backend/internal/filters"
	filtersapi "crm_search_backend/internal/filters/api"
	apphttp "crm_search_backend/internal/http"
	"crm_search_backend/internal/http/router"
	"crm_search_backend/internal/scheduler"
	"crm_search_backend/internal/search"
	"crm_search_backend/internal/search/engine"
	"crm_search_backend/platform/cache"
	"crm_search_backend/platform/config"
	"crm_search_backend/platform/db"
	"crm_search_backend/platform/logger"
	"crm_search_backend/platform/phone"
	"crm_search_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.GetHTTPAddr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	catalog, err := filters.DefaultCatalog()
	if err != nil {
		panic("failed to load field catalog: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	store := entities.NewStore(eventBus)

	var pool *pgxpool.Pool
	var loader entities.Loader
	var facetSource facets.Source
	if cfg.GetDatabaseURL() != "" {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")

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
		log.Info("database connection established")

		loader = entityrepo.New(pool)
		facetSource = facetrepo.New(pool, catalog)
	} else {
		bucket, err := snapshot.NewBucket(cfg)
		if err != nil {
			panic("failed to initialize snapshot bucket: " + err.Error())
		}
		log.Info("no database configured; serving the pool from object storage",
			"bucket", bucket.BucketName(), "object", bucket.ObjectKey())
		loader = bucket
		facetSource = facets.NewStoreSource(store)
	}

	refresher := entities.NewRefresher(loader, store, log, cfg.GetPoolRefreshInterval())
	if err := withRetry(ctx, log, "initial pool load", 5, 2*time.Second, func() error {
		return refresher.Refresh(ctx)
	}); err != nil {
		log.Error("failed to load entity pool", "error", err)
		panic("failed to load entity pool: " + err.Error())
	}
	go refresher.Run(ctx)

	var facetCache facetservice.Cache
	var snapshots *scheduler.Client
	if cfg.GetRedisURL() != "" {
		redisClient, err := cache.NewClient(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable; facet cache disabled", "error", err)
		} else {
			defer func() { _ = redisClient.Close() }()
			facetCache = facetservice.NewRedisCache(redisClient)
		}

		snapshots, err = scheduler.NewClient(cfg)
		if err != nil {
			log.Warn("snapshot export client disabled", "error", err)
		} else {
			defer func() { _ = snapshots.Close() }()
		}
	} else {
		log.Warn("REDIS_URL not configured; facet cache and snapshot exports disabled")
	}

	val := validator.New()

	// ========================================================================
	// Feature Modules (Composition Root)
	// ========================================================================

	searchEngine := engine.NewEngine(phone.NewParser(cfg.GetPhoneDefaultRegion()), time.Now)
	searchModule := search.NewModule(store, searchEngine, cfg, eventBus, val, log)
	go searchModule.Run(ctx)

	facetsModule := facetsapi.NewModule(facetSource, catalog, facetCache, store.Version, cfg, val, log)
	filtersModule := filtersapi.NewModule(catalog, facetsModule.Service(), val, log)

	modules := []apphttp.Module{searchModule, facetsModule, filtersModule}
	if snapshots != nil {
		modules = append(modules, scheduler.NewAdminModule(snapshots))
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:      cfg,
		Logger:      log,
		Health:      db.NewPoolAdapter(pool),
		PoolVersion: store.Version,
		EventBus:    eventBus,
		Modules:     modules,
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.GetHTTPAddr())
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
