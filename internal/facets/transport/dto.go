package transport

import (
	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/filters"
	"crm_search_backend/platform/sanitize"
)

type FacetsRequest struct {
	Fields  []string            `json:"fields" validate:"required,min=1,max=20,dive,required,max=64"`
	Filters []filters.Condition `json:"filters" validate:"max=50"`
	Search  string              `json:"search" validate:"max=200"`
	Entity  string              `json:"entity" validate:"omitempty,oneof=lead client"`
}

type FacetsResponse struct {
	Facets map[string][]string `json:"facets"`
}

// ToRequest maps the API payload onto a facets request.
func (r FacetsRequest) ToRequest() facets.Request {
	return facets.Request{
		Fields:  r.Fields,
		Filters: r.Filters,
		Search:  sanitize.Query(r.Search),
		Entity:  entities.Kind(r.Entity),
	}
}
