package filters

import (
	"reflect"
	"testing"
	"time"

	"crm_search_backend/internal/entities"
	"crm_search_backend/platform/apperr"
)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	return c
}

func TestDefaultCatalog(t *testing.T) {
	c := mustCatalog(t)

	email, ok := c.Field("email")
	if !ok || email.Operators[0] != OpContains {
		t.Fatalf("email must exist with contains first, got %+v", email)
	}
	score, ok := c.Field("score")
	if !ok || score.Operators[0] != OpBetween || score.Type != TypeNumber {
		t.Fatalf("unexpected score entry %+v", score)
	}
	status, _ := c.Field("status")
	if status.UsesFacets() || len(status.Options) == 0 {
		t.Error("status has static options and must not use facets")
	}
	country, _ := c.Field("country")
	if !country.UsesFacets() {
		t.Error("country is data-driven")
	}
	for _, f := range c.Filterable() {
		if f.Key == "id" {
			t.Error("id is not filterable")
		}
	}
	if len(c.Fields()) != len(c.Filterable())+1 {
		t.Errorf("expected exactly one non-filterable field")
	}
}

func TestParseCatalogRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing key", "fields:\n  - {type: text, operators: [equals]}\n"},
		{"unknown type", "fields:\n  - {key: a, type: color, operators: [equals]}\n"},
		{"no operators", "fields:\n  - {key: a, type: text}\n"},
		{"unknown operator", "fields:\n  - {key: a, type: text, operators: [like]}\n"},
		{"duplicate", "fields:\n  - {key: a, type: text, operators: [equals]}\n  - {key: a, type: text, operators: [equals]}\n"},
		{"not yaml", "fields: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDefaultValue(t *testing.T) {
	tests := []struct {
		op   string
		want any
	}{
		{OpBetween, []any{"", ""}},
		{OpIn, []any{}},
		{OpNotIn, []any{}},
		{OpIs, true},
		{OpContains, ""},
		{OpEquals, ""},
		{OpBefore, ""},
	}
	for _, tt := range tests {
		if got := DefaultValue(tt.op); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DefaultValue(%q) = %#v, want %#v", tt.op, got, tt.want)
		}
	}
}

func TestValueEditorKind(t *testing.T) {
	tests := []struct {
		typ  FieldType
		op   string
		want EditorKind
	}{
		{TypeBoolean, OpIs, EditorBooleanToggle},
		{TypeDate, OpBetween, EditorDateRange},
		{TypeDate, OpBefore, EditorDateSingle},
		{TypeNumber, OpBetween, EditorNumberRange},
		{TypeNumber, OpGreater, EditorNumberSingle},
		{TypeSelect, OpIn, EditorSelectMulti},
		{TypeSelect, OpNotIn, EditorSelectMulti},
		{TypeSelect, OpEquals, EditorSelectSingle},
		{TypeMultiSelect, OpEquals, EditorSelectMulti},
		{TypeText, OpContains, EditorFreeText},
	}
	for _, tt := range tests {
		if got := ValueEditorKind(Field{Type: tt.typ}, tt.op); got != tt.want {
			t.Errorf("%s/%s: got %s, want %s", tt.typ, tt.op, got, tt.want)
		}
	}
}

func TestChangingFieldResetsOperatorAndValue(t *testing.T) {
	b, err := NewBuilder(mustCatalog(t), []Condition{{Field: "score", Op: OpBetween, Value: []any{10.0, 20.0}}})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}

	if err := b.SetField(0, "email"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	got := b.Conditions()[0]
	if got.Op != OpContains || got.Value != "" {
		t.Fatalf("expected contains with empty value, got %+v", got)
	}
}

func TestBuilderLifecycle(t *testing.T) {
	b, err := NewBuilder(mustCatalog(t), nil)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}

	first := b.Add()
	second := b.Add()
	if err := b.SetValue(first, "x"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("value before field must fail validation, got %v", err)
	}

	if err := b.SetField(first, "country"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if got := b.Conditions()[first]; got.Op != OpIn || !reflect.DeepEqual(got.Value, []any{}) {
		t.Fatalf("unexpected defaults %+v", got)
	}
	if err := b.SetOperator(first, OpEquals); err != nil {
		t.Fatalf("set operator: %v", err)
	}
	if err := b.SetOperator(first, OpBetween); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("operator outside catalog must fail, got %v", err)
	}
	if err := b.SetValue(first, "Spain"); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := b.SetField(second, "hasDeposit"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if err := b.SetField(second, "id"); err == nil {
		t.Fatal("non-filterable field must be rejected")
	}

	third := b.Add()
	if got := b.Complete(-1); len(got) != 2 {
		t.Fatalf("expected 2 complete conditions, got %+v", got)
	}
	if got := b.Complete(first); len(got) != 1 || got[0].Field != "hasDeposit" {
		t.Fatalf("expected only hasDeposit when excluding first, got %+v", got)
	}

	if err := b.Remove(first); err != nil {
		t.Fatalf("remove: %v", err)
	}
	conds := b.Conditions()
	if len(conds) != 2 || conds[0].Field != "hasDeposit" || conds[third-1].Field != "" {
		t.Fatalf("later conditions must shift down, got %+v", conds)
	}
	if err := b.Remove(5); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for out of range, got %v", err)
	}
}

func TestConditionMatches(t *testing.T) {
	score := 42.0
	login := time.Date(2026, 2, 10, 15, 30, 0, 0, time.UTC)
	rec := entities.Record{
		ID:          "L1",
		FullName:    "Ana Torres",
		Email:       "ana@mail.es",
		Country:     "Spain",
		Score:       &score,
		HasDeposit:  true,
		LastLoginAt: &login,
		CreatedAt:   time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"contains", Condition{"email", OpContains, "MAIL"}, true},
		{"not contains", Condition{"email", OpNotContains, "mail"}, false},
		{"starts with", Condition{"fullName", OpStartsWith, "ana"}, true},
		{"ends with", Condition{"email", OpEndsWith, ".com"}, false},
		{"equals text", Condition{"country", OpEquals, " spain "}, true},
		{"in", Condition{"country", OpIn, []any{"France", "SPAIN"}}, true},
		{"not in", Condition{"country", OpNotIn, []any{"Spain"}}, false},
		{"is", Condition{"hasDeposit", OpIs, false}, false},
		{"between numbers", Condition{"score", OpBetween, []any{"10", 50.0}}, true},
		{"between open upper", Condition{"score", OpBetween, []any{"50", ""}}, false},
		{"gt", Condition{"score", OpGreater, "41.5"}, true},
		{"lte", Condition{"score", OpLessEq, 42.0}, true},
		{"between dates inclusive", Condition{"lastLoginAt", OpBetween, []any{"2026-02-01", "2026-02-10"}}, true},
		{"before", Condition{"createdAt", OpBefore, "2025-12-01"}, false},
		{"after", Condition{"createdAt", OpAfter, "2025-11-30"}, true},
		{"on", Condition{"lastLoginAt", OpOn, "2026-02-10"}, true},
		{"incomplete matches", Condition{"country", OpIn, []any{}}, true},
		{"unknown attribute matches", Condition{"nope", OpEquals, "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.Matches(rec); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	missingScore := entities.Record{ID: "L2"}
	if (Condition{"score", OpGreater, "1"}).Matches(missingScore) {
		t.Error("records without a score must not satisfy numeric comparisons")
	}
}

func TestConditionValidate(t *testing.T) {
	catalog := mustCatalog(t)
	tests := []struct {
		name string
		cond Condition
		ok   bool
	}{
		{"added, not configured", Condition{Value: ""}, true},
		{"blank between", Condition{"score", OpBetween, []any{"", ""}}, true},
		{"numeric between", Condition{"score", OpBetween, []any{"10", 20.0}}, true},
		{"empty in", Condition{"country", OpIn, []any{}}, true},
		{"string list in", Condition{"country", OpIn, []string{"Spain"}}, true},
		{"date after", Condition{"createdAt", OpAfter, "2026-01-31"}, true},
		{"boolean is", Condition{"hasDeposit", OpIs, false}, true},
		{"nil value", Condition{"email", OpContains, nil}, true},
		{"operator without field", Condition{"", OpEquals, "x"}, false},
		{"unknown field", Condition{"nope", OpIn, []any{"a"}}, false},
		{"non-filterable field", Condition{"id", OpEquals, "L1"}, false},
		{"operator not offered by field", Condition{"score", OpContains, "x"}, false},
		{"missing operator", Condition{"score", "", "1"}, false},
		{"between scalar", Condition{"score", OpBetween, "not-a-range"}, false},
		{"between three items", Condition{"score", OpBetween, []any{1.0, 2.0, 3.0}}, false},
		{"between non-numeric bound", Condition{"score", OpBetween, []any{"low", ""}}, false},
		{"in scalar", Condition{"country", OpIn, "Spain"}, false},
		{"in nested list", Condition{"country", OpIn, []any{[]any{"Spain"}}}, false},
		{"equals list", Condition{"city", OpEquals, []any{"Madrid"}}, false},
		{"contains object", Condition{"email", OpContains, map[string]any{"a": 1.0}}, false},
		{"gt text", Condition{"score", OpGreater, "lots"}, false},
		{"before non-date", Condition{"createdAt", OpBefore, "yesterday"}, false},
		{"is non-boolean", Condition{"hasDeposit", OpIs, "maybe"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate(catalog)
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBuilderRejectsInvalidConditions(t *testing.T) {
	catalog := mustCatalog(t)

	_, err := NewBuilder(catalog, []Condition{
		{Field: "score", Op: OpGreater, Value: "1"},
		{Field: "nope", Op: OpIn, Value: []any{"a"}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown field in initial conditions must fail, got %v", err)
	}

	b, err := NewBuilder(catalog, nil)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	i := b.Add()
	if err := b.SetField(i, "score"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if err := b.SetValue(i, "not-a-range"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("scalar value for between must fail, got %v", err)
	}
	if got := b.Conditions()[i].Value; !reflect.DeepEqual(got, []any{"", ""}) {
		t.Fatalf("rejected value must not be stored, got %#v", got)
	}
	if err := b.SetValue(i, []any{"5", "9"}); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if got := b.Complete(-1); len(got) != 1 {
		t.Fatalf("expected the score range to be complete, got %+v", got)
	}
}
