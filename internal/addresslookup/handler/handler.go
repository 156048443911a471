package handler

import (
	"net/http"

	"address_lookup_backend/internal/addresslookup/service"
	"address_lookup_backend/internal/addresslookup/transport"
	"address_lookup_backend/platform/httpkit"
	"address_lookup_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler serves the address lookup session API.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/widgets", h.ListWidgets)
	rg.POST("/sessions", h.OpenSession)
	rg.GET("/sessions/:id", h.GetSession)
	rg.DELETE("/sessions/:id", h.CloseSession)
	rg.POST("/sessions/:id/search", h.Search)
	rg.POST("/sessions/:id/select", h.Select)
	rg.PUT("/sessions/:id/fields/:role", h.SetField)
	rg.POST("/sessions/:id/save", h.Save)
}

func (h *Handler) ListWidgets(c *gin.Context) {
	defs := h.svc.Widgets()
	items := make([]transport.WidgetResponse, 0, len(defs))
	for _, def := range defs {
		items = append(items, transport.ToWidgetResponse(def))
	}
	httpkit.OK(c, transport.WidgetListResponse{Items: items})
}

func (h *Handler) OpenSession(c *gin.Context) {
	var req transport.OpenSessionRequest
	if !h.bind(c, &req) {
		return
	}

	sess, err := h.svc.Open(c.Request.Context(), req.Widget, req.RecordID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToSessionResponse(sess))
}

func (h *Handler) GetSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToSessionResponse(sess))
}

func (h *Handler) CloseSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Close(id)) {
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Search(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req transport.SearchRequest
	if !h.bind(c, &req) {
		return
	}

	state, err := h.svc.Search(c.Request.Context(), id, req.Query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStateResponse(state))
}

func (h *Handler) Select(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req transport.SelectRequest
	if !h.bind(c, &req) {
		return
	}

	state, err := h.svc.Select(c.Request.Context(), id, req.CandidateID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStateResponse(state))
}

func (h *Handler) SetField(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req transport.SetFieldRequest
	if !h.bind(c, &req) {
		return
	}

	state, err := h.svc.SetField(id, c.Param("role"), req.Value)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStateResponse(state))
}

// Save always answers 200 once the session exists: validation and store
// failures are part of the widget state, not transport errors.
func (h *Handler) Save(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	state, result, err := h.svc.Save(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToSaveResponse(state, result))
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
