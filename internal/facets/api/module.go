// Package api mounts the facet endpoints.
package api

import (
	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/facets/handler"
	"crm_search_backend/internal/facets/service"
	"crm_search_backend/internal/filters"
	apphttp "crm_search_backend/internal/http"
	"crm_search_backend/platform/config"
	"crm_search_backend/platform/logger"
	"crm_search_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule builds the facets module over source. cache may be nil.
func NewModule(source facets.Source, catalog *filters.Catalog, cache service.Cache, version service.VersionFunc, cfg config.FacetsConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(source, catalog, cache, version, cfg.GetFacetsCacheTTL(), log)
	return &Module{handler: handler.New(svc, val), svc: svc}
}

// Service exposes the facet service to modules that resolve filter options.
func (m *Module) Service() *service.Service {
	return m.svc
}

func (m *Module) Name() string {
	return "facets"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/facets")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
