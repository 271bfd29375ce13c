package facets

import (
	"context"
	"fmt"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/filters"
	"crm_search_backend/internal/search/fields"
	"crm_search_backend/internal/search/textmatch"
)

// Request asks for the distinct values of Fields among the records that
// satisfy Filters and Search.
type Request struct {
	Fields  []string            `json:"fields"`
	Filters []filters.Condition `json:"filters"`
	Search  string              `json:"search"`
	// Entity selects leads or clients; empty means leads.
	Entity entities.Kind `json:"entity,omitempty"`
}

// Raw holds unnormalized distinct values per field key.
type Raw map[string][]any

// Source produces raw facet values.
type Source interface {
	Fetch(ctx context.Context, req Request) (Raw, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req Request) (Raw, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, req Request) (Raw, error) {
	return f(ctx, req)
}

// PoolReader is the read side of the entity store.
type PoolReader interface {
	Snapshot() entities.Snapshot
}

// StoreSource computes facets from the in-memory pool.
type StoreSource struct {
	pool PoolReader
}

func NewStoreSource(pool PoolReader) *StoreSource {
	return &StoreSource{pool: pool}
}

// Fetch implements Source.
func (s *StoreSource) Fetch(ctx context.Context, req Request) (Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.pool.Snapshot()
	records := snap.Leads
	if req.Entity == entities.KindClient {
		records = snap.Clients
	}
	needle := textmatch.NormalizeForCompare(req.Search)

	raw := make(Raw, len(req.Fields))
	seen := make(map[string]map[string]struct{}, len(req.Fields))
	for _, key := range req.Fields {
		raw[key] = []any{}
		seen[key] = make(map[string]struct{})
	}

	for _, rec := range records {
		if !filters.MatchAll(req.Filters, rec) {
			continue
		}
		if needle != "" && !matchesSearch(rec, snap.CustomDocuments, needle) {
			continue
		}
		for _, key := range req.Fields {
			v, ok := rec.Attribute(key)
			if !ok || v == nil {
				continue
			}
			id := fmt.Sprint(v)
			if _, dup := seen[key][id]; dup {
				continue
			}
			seen[key][id] = struct{}{}
			raw[key] = append(raw[key], v)
		}
	}
	return raw, nil
}

func matchesSearch(rec entities.Record, defs []entities.CustomDocumentDefinition, needle string) bool {
	strs := fields.ExtractSearchStrings(rec, defs)
	for _, group := range [][]string{strs.Base, strs.Dynamic} {
		for _, s := range group {
			if textmatch.ScoreSubstring(textmatch.NormalizeForCompare(s), needle) >= 0 {
				return true
			}
		}
	}
	return false
}

var _ Source = (*StoreSource)(nil)
