package transport

import (
	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/search/engine"
	"crm_search_backend/internal/search/textmatch"
)

type SearchRequest struct {
	Query string `form:"q" validate:"max=200"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

type SearchResultItem struct {
	engine.Result
	Link           string           `json:"link"`           // Frontend route of the profile
	TitleHighlight []textmatch.Span `json:"titleHighlight"` // Title split around the first match
}

type SearchResponse struct {
	Query string             `json:"query"`
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}

type SessionResponse struct {
	SessionID   string             `json:"sessionId"`
	Query       string             `json:"query"`
	Items       []SearchResultItem `json:"items"`
	IsSearching bool               `json:"isSearching"`
}

type SetQueryRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type SelectRequest struct {
	ID   string        `json:"id" validate:"required,max=200"`
	Type entities.Kind `json:"type" validate:"required,oneof=lead client"`
}

type SelectResponse struct {
	Route string `json:"route"`
}

// NewItems decorates engine results for the API.
func NewItems(query string, results []engine.Result) []SearchResultItem {
	needle := textmatch.NormalizeForCompare(query)
	items := make([]SearchResultItem, len(results))
	for i, r := range results {
		items[i] = SearchResultItem{
			Result:         r,
			Link:           engine.ProfileRoute(r.ID),
			TitleHighlight: textmatch.HighlightSpans(r.Title, needle),
		}
	}
	return items
}

// NewSessionResponse renders a session state.
func NewSessionResponse(sessionID string, state engine.State) SessionResponse {
	return SessionResponse{
		SessionID:   sessionID,
		Query:       state.Query,
		Items:       NewItems(state.Query, state.Results),
		IsSearching: state.IsSearching,
	}
}
