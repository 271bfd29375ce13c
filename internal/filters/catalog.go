// Package filters holds the field catalog and the filter condition engine
// behind the lead and client list filters.
package filters

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// FieldType decides which value editor a field gets.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeSelect      FieldType = "select"
	TypeMultiSelect FieldType = "multiselect"
	TypeNumber      FieldType = "number"
	TypeDate        FieldType = "date"
	TypeBoolean     FieldType = "boolean"
)

// Operators understood by the condition engine.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpStartsWith  = "starts_with"
	OpEndsWith    = "ends_with"
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpIs          = "is"
	OpBetween     = "between"
	OpGreater     = "gt"
	OpGreaterEq   = "gte"
	OpLess        = "lt"
	OpLessEq      = "lte"
	OpBefore      = "before"
	OpAfter       = "after"
	OpOn          = "on"
)

var knownOperators = []string{
	OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpEndsWith,
	OpIn, OpNotIn, OpIs, OpBetween, OpGreater, OpGreaterEq, OpLess, OpLessEq,
	OpBefore, OpAfter, OpOn,
}

// Option is a static choice of a select field.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Field is one catalog entry.
type Field struct {
	Key        string    `yaml:"key" json:"key"`
	Label      string    `yaml:"label" json:"label"`
	Type       FieldType `yaml:"type" json:"type"`
	Operators  []string  `yaml:"operators" json:"operators"`
	Options    []Option  `yaml:"options" json:"options,omitempty"`
	DataDriven bool      `yaml:"dataDriven" json:"dataDriven,omitempty"`
	Filterable *bool     `yaml:"filterable" json:"filterable,omitempty"`
	// Column is the SQL column backing the field.
	Column string `yaml:"column" json:"-"`
}

// IsFilterable reports whether the field may appear in a condition. Fields
// are filterable unless the catalog says otherwise.
func (f Field) IsFilterable() bool {
	return f.Filterable == nil || *f.Filterable
}

// UsesFacets reports whether the field's options come from live data.
func (f Field) UsesFacets() bool {
	return f.DataDriven && len(f.Options) == 0
}

// Catalog is the read-only set of fields, in declaration order.
type Catalog struct {
	fields []Field
	byKey  map[string]int
}

type catalogFile struct {
	Fields []Field `yaml:"fields"`
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse field catalog: %w", err)
	}

	c := &Catalog{byKey: make(map[string]int, len(file.Fields))}
	for _, f := range file.Fields {
		if err := validateField(f); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[f.Key]; dup {
			return nil, fmt.Errorf("field catalog: duplicate key %q", f.Key)
		}
		c.byKey[f.Key] = len(c.fields)
		c.fields = append(c.fields, f)
	}
	return c, nil
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

func validateField(f Field) error {
	if f.Key == "" {
		return fmt.Errorf("field catalog: entry without key")
	}
	switch f.Type {
	case TypeText, TypeSelect, TypeMultiSelect, TypeNumber, TypeDate, TypeBoolean:
	default:
		return fmt.Errorf("field catalog: %s has unknown type %q", f.Key, f.Type)
	}
	if len(f.Operators) == 0 {
		return fmt.Errorf("field catalog: %s has no operators", f.Key)
	}
	for _, op := range f.Operators {
		if !slices.Contains(knownOperators, op) {
			return fmt.Errorf("field catalog: %s has unknown operator %q", f.Key, op)
		}
	}
	return nil
}

// Fields returns every entry.
func (c *Catalog) Fields() []Field {
	return slices.Clone(c.fields)
}

// Filterable returns the entries that may be used in conditions.
func (c *Catalog) Filterable() []Field {
	out := make([]Field, 0, len(c.fields))
	for _, f := range c.fields {
		if f.IsFilterable() {
			out = append(out, f)
		}
	}
	return out
}

// Field looks an entry up by key.
func (c *Catalog) Field(key string) (Field, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}
