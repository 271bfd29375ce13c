// Package search wires the global search sessions into the HTTP API.
package search

import (
	"context"

	"crm_search_backend/internal/events"
	apphttp "crm_search_backend/internal/http"
	"crm_search_backend/internal/search/engine"
	"crm_search_backend/internal/search/handler"
	"crm_search_backend/internal/search/service"
	"crm_search_backend/platform/config"
	"crm_search_backend/platform/logger"
	"crm_search_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule builds the search module. Sessions drop their caches whenever
// bus carries a pool change.
func NewModule(pool engine.PoolReader, eng *engine.Engine, cfg config.SearchConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(pool, eng, cfg, log)
	if bus != nil {
		bus.Subscribe(events.PoolChanged{}.EventName(), svc)
	}
	return &Module{handler: handler.New(svc, val), svc: svc}
}

func (m *Module) Name() string {
	return "search"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/search")
	m.handler.RegisterRoutes(group)
}

// Run expires idle sessions until ctx is done.
func (m *Module) Run(ctx context.Context) {
	m.svc.Run(ctx)
}

var _ apphttp.Module = (*Module)(nil)
