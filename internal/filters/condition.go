package filters

import (
	"slices"
	"strings"
	"time"

	"crm_search_backend/platform/apperr"
)

// EditorKind names the widget that edits a condition value.
type EditorKind string

const (
	EditorBooleanToggle EditorKind = "boolean-toggle"
	EditorDateRange     EditorKind = "date-range"
	EditorDateSingle    EditorKind = "date-single"
	EditorNumberRange   EditorKind = "number-range"
	EditorNumberSingle  EditorKind = "number-single"
	EditorSelectSingle  EditorKind = "select-single"
	EditorSelectMulti   EditorKind = "select-multi"
	EditorFreeText      EditorKind = "free-text"
)

// Condition is one row of a filter. An empty Field marks a condition that has
// been added but not configured yet.
type Condition struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// OperatorsFor returns the field's operators in catalog order.
func OperatorsFor(f Field) []string {
	return slices.Clone(f.Operators)
}

// DefaultValue is the value a condition gets when its operator is set.
func DefaultValue(op string) any {
	switch op {
	case OpBetween:
		return []any{"", ""}
	case OpIn, OpNotIn:
		return []any{}
	case OpIs:
		return true
	default:
		return ""
	}
}

// ValueEditorKind picks the value editor for a field and operator.
func ValueEditorKind(f Field, op string) EditorKind {
	switch f.Type {
	case TypeBoolean:
		return EditorBooleanToggle
	case TypeDate:
		if op == OpBetween {
			return EditorDateRange
		}
		return EditorDateSingle
	case TypeNumber:
		if op == OpBetween {
			return EditorNumberRange
		}
		return EditorNumberSingle
	case TypeSelect, TypeMultiSelect:
		if op == OpIn || op == OpNotIn || f.Type == TypeMultiSelect {
			return EditorSelectMulti
		}
		return EditorSelectSingle
	default:
		return EditorFreeText
	}
}

// IsComplete reports whether the condition can be applied: a field, an
// operator and a value that is not blank.
func (c Condition) IsComplete() bool {
	if c.Field == "" || c.Op == "" {
		return false
	}
	switch v := c.Value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) == "" {
				continue
			}
			if item != nil {
				return true
			}
		}
		return false
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// Validate checks c against the catalog. A condition without a field may not
// carry an operator; otherwise the field must be filterable, the operator one
// of the field's, and the value shaped for the operator: a scalar, a [from, to]
// pair for between, a list for in and not_in. Blank values are accepted, they
// only keep the condition from being complete.
func (c Condition) Validate(catalog *Catalog) error {
	if c.Field == "" {
		if c.Op != "" {
			return apperr.Validation("select a field first").WithDetails(map[string]string{"op": c.Op})
		}
		return nil
	}
	f, ok := catalog.Field(c.Field)
	if !ok || !f.IsFilterable() {
		return apperr.Validation("unknown filter field").WithDetails(c.Field)
	}
	if !slices.Contains(f.Operators, c.Op) {
		return apperr.Validation("operator not allowed for field").WithDetails(map[string]string{"field": f.Key, "op": c.Op})
	}
	if msg := valueShapeError(f, c.Op, c.Value); msg != "" {
		return apperr.Validation(msg).WithDetails(map[string]string{"field": f.Key, "op": c.Op})
	}
	return nil
}

// ValidateAll validates every condition, reporting the first failure.
func ValidateAll(catalog *Catalog, conditions []Condition) error {
	for _, c := range conditions {
		if err := c.Validate(catalog); err != nil {
			return err
		}
	}
	return nil
}

func valueShapeError(f Field, op string, v any) string {
	if v == nil {
		return ""
	}
	switch op {
	case OpBetween:
		list, ok := asList(v)
		if !ok || len(list) != 2 {
			return "between needs a [from, to] value"
		}
		return listItemsError(f, list)
	case OpIn, OpNotIn:
		list, ok := asList(v)
		if !ok {
			return op + " needs a list value"
		}
		return listItemsError(f, list)
	default:
		return scalarError(f, v)
	}
}

func listItemsError(f Field, list []any) string {
	for _, item := range list {
		if msg := scalarError(f, item); msg != "" {
			return msg
		}
	}
	return ""
}

func asList(v any) ([]any, bool) {
	switch v.(type) {
	case []any, []string:
		return toList(v), true
	}
	return nil, false
}

// scalarError rejects lists and objects, and non-blank values the field's
// type cannot read.
func scalarError(f Field, v any) string {
	switch v.(type) {
	case nil, string, bool, float64, int, int64, time.Time:
	default:
		return "value must be a single text, number or boolean"
	}
	if isBlank(v) {
		return ""
	}
	switch f.Type {
	case TypeNumber:
		if _, ok := toFloat(v); !ok {
			return "value must be a number"
		}
	case TypeDate:
		if _, _, ok := toTime(v); !ok {
			return "value must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"
		}
	case TypeBoolean:
		if _, ok := toBool(v); !ok {
			return "value must be true or false"
		}
	}
	return ""
}

// Builder edits an ordered list of conditions against a catalog.
type Builder struct {
	catalog    *Catalog
	conditions []Condition
}

// NewBuilder starts from a copy of initial, which must pass Validate.
func NewBuilder(catalog *Catalog, initial []Condition) (*Builder, error) {
	if err := ValidateAll(catalog, initial); err != nil {
		return nil, err
	}
	return &Builder{catalog: catalog, conditions: slices.Clone(initial)}, nil
}

// Conditions returns a copy of the current list.
func (b *Builder) Conditions() []Condition {
	return slices.Clone(b.conditions)
}

// Add appends an empty condition and returns its index.
func (b *Builder) Add() int {
	b.conditions = append(b.conditions, Condition{Value: ""})
	return len(b.conditions) - 1
}

// SetField selects a field, resetting the operator to the field's first one
// and the value to that operator's default.
func (b *Builder) SetField(i int, key string) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	f, ok := b.catalog.Field(key)
	if !ok || !f.IsFilterable() {
		return apperr.Validation("unknown filter field").WithDetails(key)
	}
	op := f.Operators[0]
	b.conditions[i] = Condition{Field: f.Key, Op: op, Value: DefaultValue(op)}
	return nil
}

// SetOperator changes the operator and resets the value to its default.
func (b *Builder) SetOperator(i int, op string) error {
	f, err := b.selectedField(i)
	if err != nil {
		return err
	}
	if !slices.Contains(f.Operators, op) {
		return apperr.Validation("operator not allowed for field").WithDetails(map[string]string{"field": f.Key, "op": op})
	}
	b.conditions[i].Op = op
	b.conditions[i].Value = DefaultValue(op)
	return nil
}

// SetValue replaces the value of a configured condition. The value must have
// the shape the condition's operator expects.
func (b *Builder) SetValue(i int, value any) error {
	if _, err := b.selectedField(i); err != nil {
		return err
	}
	next := b.conditions[i]
	next.Value = value
	if err := next.Validate(b.catalog); err != nil {
		return err
	}
	b.conditions[i] = next
	return nil
}

// Remove deletes a condition; later conditions shift down by one.
func (b *Builder) Remove(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	b.conditions = slices.Delete(b.conditions, i, i+1)
	return nil
}

// Complete returns the conditions that can be applied, skipping exclude
// (pass -1 to keep all).
func (b *Builder) Complete(exclude int) []Condition {
	return CompleteExcept(b.conditions, exclude)
}

// CompleteExcept filters conditions down to the complete ones, leaving out the
// one at index exclude.
func CompleteExcept(conditions []Condition, exclude int) []Condition {
	out := make([]Condition, 0, len(conditions))
	for i, c := range conditions {
		if i == exclude || !c.IsComplete() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (b *Builder) selectedField(i int) (Field, error) {
	if err := b.checkIndex(i); err != nil {
		return Field{}, err
	}
	key := b.conditions[i].Field
	if key == "" {
		return Field{}, apperr.Validation("select a field first")
	}
	f, ok := b.catalog.Field(key)
	if !ok {
		return Field{}, apperr.Validation("unknown filter field").WithDetails(key)
	}
	return f, nil
}

func (b *Builder) checkIndex(i int) error {
	if i < 0 || i >= len(b.conditions) {
		return apperr.BadRequest("condition index out of range").WithDetails(i)
	}
	return nil
}
