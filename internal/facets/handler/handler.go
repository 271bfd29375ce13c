package handler

import (
	"net/http"

	"crm_search_backend/internal/facets/service"
	"crm_search_backend/internal/facets/transport"
	"crm_search_backend/platform/httpkit"
	"crm_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Facets)
}

func (h *Handler) Facets(c *gin.Context) {
	var req transport.FacetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Facets(c.Request.Context(), req.ToRequest())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FacetsResponse{Facets: result})
}
