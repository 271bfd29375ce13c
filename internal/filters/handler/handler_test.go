package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/filters"
	"crm_search_backend/internal/filters/options"
	"crm_search_backend/internal/filters/transport"
	"crm_search_backend/platform/logger"
	"crm_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type staticFetcher map[string][]string

func (f staticFetcher) Facets(_ context.Context, req facets.Request) (map[string][]string, error) {
	out := make(map[string][]string, len(req.Fields))
	for _, key := range req.Fields {
		out[key] = f[key]
	}
	return out, nil
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog, err := filters.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	resolver := options.NewResolver(catalog, staticFetcher{"city": {"madrid", "Madrid ", "oslo"}}, logger.NewNop())
	r := gin.New()
	New(catalog, resolver, validator.New()).RegisterRoutes(r.Group("/filters"))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCatalogHidesNonFilterableFields(t *testing.T) {
	w := do(newRouter(t), http.MethodGet, "/filters/catalog", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp transport.CatalogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Fields) == 0 {
		t.Fatal("expected fields")
	}
	for _, f := range resp.Fields {
		if f.Key == "id" {
			t.Fatal("id must not be offered as a filter")
		}
	}
}

func TestApplyAction(t *testing.T) {
	r := newRouter(t)

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantLen   int
		wantOp    string
		wantIndex int
	}{
		{"add", `{"conditions":[],"action":"add"}`, http.StatusOK, 1, "", 0},
		{"set field", `{"conditions":[{"field":"","op":"","value":""}],"action":"set_field","index":0,"field":"score"}`, http.StatusOK, 1, "between", 0},
		{"set operator", `{"conditions":[{"field":"score","op":"between","value":["",""]}],"action":"set_operator","index":0,"op":"gt"}`, http.StatusOK, 1, "gt", 0},
		{"remove", `{"conditions":[{"field":"score","op":"gt","value":"1"},{"field":"email","op":"contains","value":"x"}],"action":"remove","index":0}`, http.StatusOK, 1, "contains", 0},
		{"unknown action", `{"conditions":[],"action":"explode"}`, http.StatusBadRequest, 0, "", 0},
		{"missing field", `{"conditions":[{}],"action":"set_field","index":0}`, http.StatusBadRequest, 0, "", 0},
		{"bad operator", `{"conditions":[{"field":"score","op":"gt","value":""}],"action":"set_operator","index":0,"op":"contains"}`, http.StatusBadRequest, 0, "", 0},
		{"out of range", `{"conditions":[],"action":"remove","index":2}`, http.StatusBadRequest, 0, "", 0},
		{"unknown field in conditions", `{"conditions":[{"field":"nope","op":"in","value":["a"]}],"action":"add"}`, http.StatusBadRequest, 0, "", 0},
		{"operator not offered", `{"conditions":[{"field":"score","op":"contains","value":"x"}],"action":"set_value","index":0,"value":"abc"}`, http.StatusBadRequest, 0, "", 0},
		{"value shape", `{"conditions":[{"field":"score","op":"between","value":["",""]}],"action":"set_value","index":0,"value":"not-a-range"}`, http.StatusBadRequest, 0, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/filters/conditions", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp transport.ConditionsResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Conditions) != tt.wantLen {
				t.Fatalf("expected %d conditions, got %+v", tt.wantLen, resp.Conditions)
			}
			if resp.Conditions[0].Op != tt.wantOp || resp.Index != tt.wantIndex {
				t.Errorf("unexpected result %+v", resp)
			}
		})
	}
}

func TestApplyActionReportsCompleteConditions(t *testing.T) {
	body := `{"conditions":[{"field":"email","op":"contains","value":""},{"field":"city","op":"equals","value":""}],"action":"set_value","index":1,"value":"Oslo"}`
	w := do(newRouter(t), http.MethodPost, "/filters/conditions", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp transport.ConditionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Complete) != 1 || resp.Complete[0].Field != "city" || resp.Complete[0].Value != "Oslo" {
		t.Fatalf("unexpected complete list %+v", resp.Complete)
	}
}

func TestEditor(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/filters/editor", `{"conditions":[{"field":"city","op":"in","value":[]},{"field":"hasDeposit","op":"is","value":true}],"index":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp transport.EditorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Editors) != 1 {
		t.Fatalf("expected one editor, got %d", len(resp.Editors))
	}
	ed := resp.Editors[0]
	if ed.Kind != filters.EditorSelectMulti || len(ed.Options) != 2 || ed.Options[0].Value != "Madrid" || ed.Options[1].Value != "Oslo" {
		t.Fatalf("unexpected editor %+v", ed)
	}

	w = do(r, http.MethodPost, "/filters/editor", `{"conditions":[{"field":"city","op":"in","value":[]},{"field":"hasDeposit","op":"is","value":true}]}`)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Editors) != 2 || resp.Editors[1].Kind != filters.EditorBooleanToggle {
		t.Fatalf("unexpected editors %+v", resp.Editors)
	}

	if w := do(r, http.MethodPost, "/filters/editor", `{"conditions":[],"entity":"deal"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad entity, got %d", w.Code)
	}
}
