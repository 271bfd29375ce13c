package transport

import (
	"crm_search_backend/internal/filters"
	"crm_search_backend/internal/filters/options"
)

// Condition edit actions.
const (
	ActionAdd         = "add"
	ActionSetField    = "set_field"
	ActionSetOperator = "set_operator"
	ActionSetValue    = "set_value"
	ActionRemove      = "remove"
)

type CatalogResponse struct {
	Fields []filters.Field `json:"fields"`
}

type ConditionActionRequest struct {
	Conditions []filters.Condition `json:"conditions" validate:"max=50"`
	Action     string              `json:"action" validate:"required,oneof=add set_field set_operator set_value remove"`
	Index      int                 `json:"index" validate:"min=0"`
	Field      string              `json:"field" validate:"required_if=Action set_field,max=64"`
	Op         string              `json:"op" validate:"required_if=Action set_operator,max=32"`
	Value      any                 `json:"value"`
}

type ConditionsResponse struct {
	Conditions []filters.Condition `json:"conditions"`
	Complete   []filters.Condition `json:"complete"`
	// Index is the condition the action touched; for add it is the new one.
	Index int `json:"index"`
}

type EditorRequest struct {
	Conditions []filters.Condition `json:"conditions" validate:"max=50"`
	// Index selects one condition; without it every configured one is resolved.
	Index  *int   `json:"index" validate:"omitempty,min=0"`
	Search string `json:"search" validate:"max=200"`
	Entity string `json:"entity" validate:"omitempty,oneof=lead client"`
}

type EditorResponse struct {
	Editors []options.Editor `json:"editors"`
}
