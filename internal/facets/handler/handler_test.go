package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/facets/service"
	"crm_search_backend/internal/facets/transport"
	"crm_search_backend/internal/filters"
	"crm_search_backend/platform/logger"
	"crm_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func newRouter(t *testing.T, src facets.Source) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	catalog, err := filters.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	svc := service.New(src, catalog, nil, nil, 0, logger.NewNop())
	r := gin.New()
	New(svc, validator.New()).RegisterRoutes(r.Group("/facets"))
	return r
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/facets", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFacetsEndpoint(t *testing.T) {
	var seen facets.Request
	src := facets.SourceFunc(func(ctx context.Context, req facets.Request) (facets.Raw, error) {
		seen = req
		return facets.Raw{"countryCode": {"es", " ES", "nl"}}, nil
	})
	r := newRouter(t, src)

	w := post(r, `{"fields":["countryCode"],"filters":[{"field":"city","op":"equals","value":"Madrid"}],"search":"ana","entity":"client"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp transport.FacetsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(resp.Facets["countryCode"], []string{"ES", "NL"}) {
		t.Fatalf("unexpected facets %v", resp.Facets)
	}
	if seen.Search != "ana" || seen.Entity != "client" || len(seen.Filters) != 1 || seen.Filters[0].Value != "Madrid" {
		t.Errorf("request not passed through: %+v", seen)
	}
}

func TestFacetsEndpointErrors(t *testing.T) {
	failing := facets.SourceFunc(func(context.Context, facets.Request) (facets.Raw, error) {
		return nil, errors.New("db down")
	})
	r := newRouter(t, failing)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"fields":`, http.StatusBadRequest},
		{"no fields", `{"fields":[]}`, http.StatusBadRequest},
		{"bad entity", `{"fields":["city"],"entity":"deal"}`, http.StatusBadRequest},
		{"unknown field", `{"fields":["shoeSize"]}`, http.StatusBadRequest},
		{"invalid filter", `{"fields":["city"],"filters":[{"field":"score","op":"gt","value":"lots"}]}`, http.StatusBadRequest},
		{"source down", `{"fields":["city"]}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := post(r, tt.body); w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}
