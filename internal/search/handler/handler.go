package handler

import (
	"encoding/json"
	"net/http"

	"crm_search_backend/internal/search/service"
	"crm_search_backend/internal/search/transport"
	"crm_search_backend/platform/httpkit"
	"crm_search_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidSessionID = "invalid session id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.GlobalSearch)
	rg.POST("/sessions", h.CreateSession)
	rg.GET("/sessions/:id", h.GetSession)
	rg.PUT("/sessions/:id/query", h.SetQuery)
	rg.DELETE("/sessions/:id/query", h.ClearQuery)
	rg.POST("/sessions/:id/select", h.Select)
	rg.GET("/sessions/:id/stream", h.Stream)
	rg.DELETE("/sessions/:id", h.CloseSession)
}

func (h *Handler) GlobalSearch(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	result, err := h.svc.GlobalSearch(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CreateSession(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	httpkit.JSON(c, http.StatusCreated, h.svc.CreateSession(c.Request.Context(), identity.UserID()))
}

func (h *Handler) GetSession(c *gin.Context) {
	userID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}
	result, err := h.svc.GetSession(c.Request.Context(), userID, sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SetQuery(c *gin.Context) {
	userID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}
	var req transport.SetQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SetQuery(c.Request.Context(), userID, sessionID, req.Query)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ClearQuery(c *gin.Context) {
	userID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}
	result, err := h.svc.ClearQuery(c.Request.Context(), userID, sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Select(c *gin.Context) {
	userID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}
	var req transport.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Select(c.Request.Context(), userID, sessionID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CloseSession(c *gin.Context) {
	userID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}
	if err := h.svc.CloseSession(c.Request.Context(), userID, sessionID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// Stream pushes session states as server-sent events until the client leaves
// or the session closes.
func (h *Handler) Stream(c *gin.Context) {
	userID, sessionID, ok := h.sessionParams(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	states, cancel, err := h.svc.Subscribe(ctx, userID, sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	current, err := h.svc.GetSession(ctx, userID, sessionID)
	if err != nil {
		return
	}
	writeState(c, current)

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				c.SSEvent("closed", gin.H{"sessionId": sessionID})
				c.Writer.Flush()
				return
			}
			writeState(c, transport.NewSessionResponse(sessionID.String(), state))
		}
	}
}

func writeState(c *gin.Context, state transport.SessionResponse) {
	data, _ := json.Marshal(state)
	c.SSEvent("state", string(data))
	c.Writer.Flush()
}

func (h *Handler) sessionParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSessionID, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return identity.UserID(), sessionID, true
}
