package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/filters"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// maxFacetValues bounds a single distinct-value list.
const maxFacetValues = 500

// Repository computes facets with SELECT DISTINCT against the entity tables.
type Repository struct {
	pool    *pgxpool.Pool
	catalog *filters.Catalog
}

func New(pool *pgxpool.Pool, catalog *filters.Catalog) *Repository {
	return &Repository{pool: pool, catalog: catalog}
}

// Fetch implements facets.Source. Fields are queried concurrently.
func (r *Repository) Fetch(ctx context.Context, req facets.Request) (facets.Raw, error) {
	table := "crm_leads"
	if req.Entity == entities.KindClient {
		table = "crm_clients"
	}

	where, args, err := buildFacetWhere(r.catalog, req)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]string, len(req.Fields))
	for _, key := range req.Fields {
		field, ok := r.catalog.Field(key)
		if !ok || field.Column == "" {
			return nil, fmt.Errorf("facet field %q has no column", key)
		}
		columns[key] = field.Column
	}

	var mu sync.Mutex
	raw := make(facets.Raw, len(columns))
	g, gctx := errgroup.WithContext(ctx)
	for key, column := range columns {
		g.Go(func() error {
			values, err := r.distinct(gctx, table, column, where, args)
			if err != nil {
				return fmt.Errorf("facet %s: %w", key, err)
			}
			mu.Lock()
			raw[key] = values
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *Repository) distinct(ctx context.Context, table, column, where string, args []interface{}) ([]any, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM %s WHERE %s AND %s IS NOT NULL ORDER BY 1 LIMIT %d",
		column, table, where, column, maxFacetValues,
	)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]any, 0)
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// buildFacetWhere turns complete conditions into a WHERE clause. Columns come
// from the catalog only; values are always bound parameters.
func buildFacetWhere(catalog *filters.Catalog, req facets.Request) (string, []interface{}, error) {
	whereClauses := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argIdx := 1

	next := func(value interface{}) string {
		args = append(args, value)
		placeholder := fmt.Sprintf("$%d", argIdx)
		argIdx++
		return placeholder
	}

	if search := strings.TrimSpace(req.Search); search != "" {
		p := next("%" + search + "%")
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(full_name ILIKE %[1]s OR first_name ILIKE %[1]s OR last_name ILIKE %[1]s OR email ILIKE %[1]s OR phone_number ILIKE %[1]s OR account_id ILIKE %[1]s OR id ILIKE %[1]s)",
			p,
		))
	}

	for _, c := range filters.CompleteExcept(req.Filters, -1) {
		field, ok := catalog.Field(c.Field)
		if !ok || field.Column == "" {
			return "", nil, fmt.Errorf("filter field %q has no column", c.Field)
		}
		clause, err := conditionClause(field, c, next)
		if err != nil {
			return "", nil, err
		}
		whereClauses = append(whereClauses, clause)
	}

	return strings.Join(whereClauses, " AND "), args, nil
}

func conditionClause(field filters.Field, c filters.Condition, next func(interface{}) string) (string, error) {
	col := field.Column
	text := "LOWER(TRIM(" + col + "))"

	switch c.Op {
	case filters.OpEquals, filters.OpNotEquals:
		cmp := "="
		if c.Op == filters.OpNotEquals {
			cmp = "<>"
		}
		switch field.Type {
		case filters.TypeNumber:
			n, err := toFloat(c.Value)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s %s %s", col, cmp, next(n)), nil
		case filters.TypeBoolean:
			return fmt.Sprintf("%s %s %s", col, cmp, next(c.Value)), nil
		default:
			return fmt.Sprintf("%s %s LOWER(TRIM(%s))", text, cmp, next(toString(c.Value))), nil
		}
	case filters.OpContains:
		return fmt.Sprintf("%s ILIKE %s", col, next("%"+toString(c.Value)+"%")), nil
	case filters.OpNotContains:
		return fmt.Sprintf("(%s IS NULL OR %s NOT ILIKE %s)", col, col, next("%"+toString(c.Value)+"%")), nil
	case filters.OpStartsWith:
		return fmt.Sprintf("%s ILIKE %s", col, next(toString(c.Value)+"%")), nil
	case filters.OpEndsWith:
		return fmt.Sprintf("%s ILIKE %s", col, next("%"+toString(c.Value))), nil
	case filters.OpIn:
		return fmt.Sprintf("%s = ANY(%s)", text, next(lowerList(c.Value))), nil
	case filters.OpNotIn:
		return fmt.Sprintf("(%s IS NULL OR %s <> ALL(%s))", col, text, next(lowerList(c.Value))), nil
	case filters.OpIs:
		return fmt.Sprintf("%s = %s", col, next(c.Value)), nil
	case filters.OpBetween:
		return betweenClause(field, c.Value, next)
	case filters.OpGreater, filters.OpGreaterEq, filters.OpLess, filters.OpLessEq:
		n, err := toFloat(c.Value)
		if err != nil {
			return "", err
		}
		ops := map[string]string{filters.OpGreater: ">", filters.OpGreaterEq: ">=", filters.OpLess: "<", filters.OpLessEq: "<="}
		return fmt.Sprintf("%s %s %s", col, ops[c.Op], next(n)), nil
	case filters.OpBefore:
		return fmt.Sprintf("%s < %s::date", col, next(toString(c.Value))), nil
	case filters.OpAfter:
		return fmt.Sprintf("%s >= %s::date + interval '1 day'", col, next(toString(c.Value))), nil
	case filters.OpOn:
		p := next(toString(c.Value))
		return fmt.Sprintf("(%s >= %s::date AND %s < %s::date + interval '1 day')", col, p, col, p), nil
	}
	return "", fmt.Errorf("operator %q is not supported", c.Op)
}

func betweenClause(field filters.Field, value any, next func(interface{}) string) (string, error) {
	bounds, ok := value.([]any)
	if !ok || len(bounds) != 2 {
		return "", fmt.Errorf("between on %s needs two bounds", field.Key)
	}

	var parts []string
	lo, hi := toString(bounds[0]), toString(bounds[1])
	if field.Type == filters.TypeDate {
		if lo != "" {
			parts = append(parts, fmt.Sprintf("%s >= %s::date", field.Column, next(lo)))
		}
		if hi != "" {
			parts = append(parts, fmt.Sprintf("%s < %s::date + interval '1 day'", field.Column, next(hi)))
		}
	} else {
		if lo != "" {
			n, err := toFloat(lo)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s >= %s", field.Column, next(n)))
		}
		if hi != "" {
			n, err := toFloat(hi)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s <= %s", field.Column, next(n)))
		}
	}
	if len(parts) == 0 {
		return "TRUE", nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", nil
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", val)
		}
		return n, nil
	}
	return 0, fmt.Errorf("invalid number %v", v)
}

func lowerList(v any) []string {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []string:
		for _, s := range list {
			items = append(items, s)
		}
	default:
		items = []any{list}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.ToLower(toString(item)))
	}
	return out
}

var _ facets.Source = (*Repository)(nil)
