package options

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/filters"
	"crm_search_backend/platform/apperr"
	"crm_search_backend/platform/logger"
)

type fakeFetcher struct {
	mu       sync.Mutex
	values   map[string][]string
	failures map[string]error
	requests []facets.Request
}

func (f *fakeFetcher) Facets(_ context.Context, req facets.Request) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	out := make(map[string][]string, len(req.Fields))
	for _, key := range req.Fields {
		if err := f.failures[key]; err != nil {
			return nil, err
		}
		out[key] = f.values[key]
	}
	return out, nil
}

func newResolver(t *testing.T, fetch facets.Fetcher) *Resolver {
	t.Helper()
	catalog, err := filters.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return NewResolver(catalog, fetch, logger.NewNop())
}

func TestResolveStaticOptions(t *testing.T) {
	fetch := &fakeFetcher{}
	r := newResolver(t, fetch)

	editor, err := r.Resolve(context.Background(), []filters.Condition{{Field: "status", Op: filters.OpIn, Value: []any{}}}, 0, Scope{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if editor.Kind != filters.EditorSelectMulti {
		t.Errorf("expected select-multi, got %s", editor.Kind)
	}
	if len(editor.Options) != 5 || editor.Options[0] != (filters.Option{Value: "new", Label: "New"}) {
		t.Errorf("static options not passed through: %+v", editor.Options)
	}
	if len(fetch.requests) != 0 {
		t.Errorf("static field must not query facets")
	}
}

func TestResolveDataDrivenUsesOtherCompleteConditions(t *testing.T) {
	fetch := &fakeFetcher{values: map[string][]string{"country": {" spain", "SPAIN", "netherlands"}}}
	r := newResolver(t, fetch)

	conditions := []filters.Condition{
		{Field: "city", Op: filters.OpEquals, Value: "Madrid"},
		{Field: "country", Op: filters.OpIn, Value: []any{}},
		{Field: "email", Op: filters.OpContains, Value: ""},
	}
	editor, err := r.Resolve(context.Background(), conditions, 1, Scope{Search: "ana"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	want := []filters.Option{{Value: "Netherlands", Label: "Netherlands"}, {Value: "Spain", Label: "Spain"}}
	if !reflect.DeepEqual(editor.Options, want) {
		t.Fatalf("unexpected options %+v", editor.Options)
	}
	if len(fetch.requests) != 1 {
		t.Fatalf("expected one facet request, got %d", len(fetch.requests))
	}
	req := fetch.requests[0]
	if !reflect.DeepEqual(req.Fields, []string{"country"}) || req.Search != "ana" {
		t.Errorf("unexpected request %+v", req)
	}
	if len(req.Filters) != 1 || req.Filters[0].Field != "city" {
		t.Errorf("expected only the complete city condition, got %+v", req.Filters)
	}
}

func TestResolveReportsFailureOnEditor(t *testing.T) {
	fetch := &fakeFetcher{
		values:   map[string][]string{"city": {"madrid"}},
		failures: map[string]error{"country": errors.New("timeout")},
	}
	r := newResolver(t, fetch)

	conditions := []filters.Condition{
		{Field: "country", Op: filters.OpIn, Value: []any{}},
		{Field: "city", Op: filters.OpEquals, Value: ""},
		{},
		{Field: "score", Op: filters.OpBetween, Value: []any{"", ""}},
	}
	editors, err := r.ResolveAll(context.Background(), conditions, Scope{})
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if len(editors) != 3 {
		t.Fatalf("expected editors for configured conditions only, got %d", len(editors))
	}

	if editors[0].Error != "Error loading options: timeout" || len(editors[0].Options) != 0 {
		t.Errorf("country editor: %+v", editors[0])
	}
	if editors[1].Error != "" || len(editors[1].Options) != 1 || editors[1].Options[0].Value != "Madrid" {
		t.Errorf("city editor should be unaffected: %+v", editors[1])
	}
	if editors[2].Index != 3 || editors[2].Kind != filters.EditorNumberRange {
		t.Errorf("score editor: %+v", editors[2])
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	r := newResolver(t, &fakeFetcher{})
	ctx := context.Background()

	if _, err := r.Resolve(ctx, nil, 0, Scope{}); !apperr.Is(err, apperr.KindBadRequest) {
		t.Errorf("expected bad request for index, got %v", err)
	}
	if _, err := r.Resolve(ctx, []filters.Condition{{}}, 0, Scope{}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for empty field, got %v", err)
	}
	if _, err := r.Resolve(ctx, []filters.Condition{{Field: "id", Op: "equals"}}, 0, Scope{}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for non-filterable field, got %v", err)
	}
	bad := []filters.Condition{
		{Field: "city", Op: filters.OpIn, Value: []any{}},
		{Field: "score", Op: filters.OpBetween, Value: "not-a-range"},
	}
	if _, err := r.Resolve(ctx, bad, 0, Scope{}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for a malformed sibling condition, got %v", err)
	}
	if _, err := r.ResolveAll(ctx, bad, Scope{}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error from resolve all, got %v", err)
	}
}
