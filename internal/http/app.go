package http

import (
	"context"

	"crm_search_backend/internal/events"
	"crm_search_backend/platform/config"
	"crm_search_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// It is populated by main.go (the composition root) and passed to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is pinged by /api/health; nil means always healthy.
	Health HealthChecker
	// PoolVersion reports the loaded entity pool version on /api/health.
	PoolVersion func() uint64
	EventBus    events.Bus
	Modules     []Module
}
