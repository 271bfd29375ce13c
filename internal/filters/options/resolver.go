// Package options resolves the value editor of a filter condition, including
// the choices offered by select fields.
package options

import (
	"context"
	"log/slog"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/filters"
	"crm_search_backend/platform/apperr"
	"crm_search_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const loadErrorPrefix = "Error loading options: "

// Editor describes how one condition's value is edited.
type Editor struct {
	Index     int                `json:"index"`
	Field     string             `json:"field"`
	Kind      filters.EditorKind `json:"kind"`
	Operators []string           `json:"operators"`
	Options   []filters.Option   `json:"options"`
	Error     string             `json:"error,omitempty"`
}

// Scope narrows the records data-driven options are drawn from.
type Scope struct {
	Search string
	Entity entities.Kind
}

type Resolver struct {
	catalog *filters.Catalog
	fetch   facets.Fetcher
	log     *logger.Logger
}

func NewResolver(catalog *filters.Catalog, fetch facets.Fetcher, log *logger.Logger) *Resolver {
	return &Resolver{catalog: catalog, fetch: fetch, log: log}
}

// Resolve builds the editor of conditions[index]. Data-driven fields are
// offered the values still reachable under every other complete condition. A
// failed lookup is reported on the editor itself and is not returned as an
// error.
func (r *Resolver) Resolve(ctx context.Context, conditions []filters.Condition, index int, scope Scope) (Editor, error) {
	if err := filters.ValidateAll(r.catalog, conditions); err != nil {
		return Editor{}, err
	}
	return r.resolve(ctx, conditions, index, scope)
}

func (r *Resolver) resolve(ctx context.Context, conditions []filters.Condition, index int, scope Scope) (Editor, error) {
	if index < 0 || index >= len(conditions) {
		return Editor{}, apperr.BadRequest("condition index out of range").WithDetails(index)
	}
	cond := conditions[index]
	if cond.Field == "" {
		return Editor{}, apperr.Validation("select a field first")
	}
	field, ok := r.catalog.Field(cond.Field)
	if !ok || !field.IsFilterable() {
		return Editor{}, apperr.Validation("unknown filter field").WithDetails(cond.Field)
	}

	editor := Editor{
		Index:     index,
		Field:     field.Key,
		Kind:      filters.ValueEditorKind(field, cond.Op),
		Operators: filters.OperatorsFor(field),
		Options:   []filters.Option{},
	}

	switch {
	case len(field.Options) > 0:
		editor.Options = append(editor.Options, field.Options...)
	case field.UsesFacets():
		values, err := r.fetch.Facets(ctx, facets.Request{
			Fields:  []string{field.Key},
			Filters: filters.CompleteExcept(conditions, index),
			Search:  scope.Search,
			Entity:  scope.Entity,
		})
		if err != nil {
			r.log.Warn("filter_options_failed", slog.String("field", field.Key), slog.String("error", err.Error()))
			editor.Error = loadErrorPrefix + err.Error()
			return editor, nil
		}
		for _, v := range facets.NormalizeFacetList(field.Key, facets.Strings(values[field.Key])) {
			editor.Options = append(editor.Options, filters.Option{Value: v, Label: v})
		}
	}
	return editor, nil
}

// ResolveAll resolves the editors of every configured condition concurrently.
// Conditions without a field are skipped.
func (r *Resolver) ResolveAll(ctx context.Context, conditions []filters.Condition, scope Scope) ([]Editor, error) {
	if err := filters.ValidateAll(r.catalog, conditions); err != nil {
		return nil, err
	}
	editors := make([]Editor, len(conditions))
	g, gctx := errgroup.WithContext(ctx)
	for i, cond := range conditions {
		if cond.Field == "" {
			continue
		}
		g.Go(func() error {
			editor, err := r.resolve(gctx, conditions, i, scope)
			if err != nil {
				return err
			}
			editors[i] = editor
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := editors[:0]
	for i, editor := range editors {
		if conditions[i].Field != "" {
			out = append(out, editor)
		}
	}
	return out, nil
}
