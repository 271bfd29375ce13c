package handler

import (
	"net/http"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/filters"
	"crm_search_backend/internal/filters/options"
	"crm_search_backend/internal/filters/transport"
	"crm_search_backend/platform/httpkit"
	"crm_search_backend/platform/sanitize"
	"crm_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	catalog  *filters.Catalog
	resolver *options.Resolver
	val      *validator.Validator
}

func New(catalog *filters.Catalog, resolver *options.Resolver, val *validator.Validator) *Handler {
	return &Handler{catalog: catalog, resolver: resolver, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.Catalog)
	rg.POST("/conditions", h.ApplyAction)
	rg.POST("/editor", h.Editor)
}

func (h *Handler) Catalog(c *gin.Context) {
	httpkit.OK(c, transport.CatalogResponse{Fields: h.catalog.Filterable()})
}

func (h *Handler) ApplyAction(c *gin.Context) {
	var req transport.ConditionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	b, err := filters.NewBuilder(h.catalog, req.Conditions)
	if httpkit.HandleError(c, err) {
		return
	}
	index := req.Index
	switch req.Action {
	case transport.ActionAdd:
		index = b.Add()
	case transport.ActionSetField:
		err = b.SetField(req.Index, req.Field)
	case transport.ActionSetOperator:
		err = b.SetOperator(req.Index, req.Op)
	case transport.ActionSetValue:
		err = b.SetValue(req.Index, req.Value)
	case transport.ActionRemove:
		err = b.Remove(req.Index)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ConditionsResponse{
		Conditions: b.Conditions(),
		Complete:   b.Complete(-1),
		Index:      index,
	})
}

func (h *Handler) Editor(c *gin.Context) {
	var req transport.EditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	scope := options.Scope{Search: sanitize.Query(req.Search), Entity: entities.Kind(req.Entity)}
	ctx := c.Request.Context()

	if req.Index != nil {
		editor, err := h.resolver.Resolve(ctx, req.Conditions, *req.Index, scope)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, transport.EditorResponse{Editors: []options.Editor{editor}})
		return
	}

	editors, err := h.resolver.ResolveAll(ctx, req.Conditions, scope)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.EditorResponse{Editors: editors})
}
