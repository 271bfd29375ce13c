// Package api mounts the filter builder endpoints.
package api

import (
	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/filters"
	"crm_search_backend/internal/filters/handler"
	"crm_search_backend/internal/filters/options"
	apphttp "crm_search_backend/internal/http"
	"crm_search_backend/platform/logger"
	"crm_search_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
}

// NewModule wires the filter endpoints; fetch supplies data-driven options.
func NewModule(catalog *filters.Catalog, fetch facets.Fetcher, val *validator.Validator, log *logger.Logger) *Module {
	resolver := options.NewResolver(catalog, fetch, log)
	return &Module{handler: handler.New(catalog, resolver, val)}
}

func (m *Module) Name() string {
	return "filters"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/filters")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
