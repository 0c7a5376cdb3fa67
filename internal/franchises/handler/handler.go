package handler

import (
	"net/http"

	"dojoflow_backend/internal/franchises/service"
	"dojoflow_backend/internal/franchises/transport"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for franchises.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List handles GET /franchises
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.List(c.Request.Context(), identity.HasRole(httpkit.RoleAdmin), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create handles POST /franchises
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateFranchiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Get handles GET /franchises/:slug
func (h *Handler) Get(c *gin.Context) {
	_, slug, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	result, err := h.svc.GetBySlug(c.Request.Context(), slug)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateSettings handles PUT /franchises/:slug/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.UpdateSettings(c.Request.Context(), franchiseID, req.Settings)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Pipeline handles GET /franchises/:slug/pipeline
func (h *Handler) Pipeline(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	result, err := h.svc.Pipeline(c.Request.Context(), franchiseID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Session handles GET /franchises/:slug/session
func (h *Handler) Session(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	httpkit.OK(c, service.Session(identity.UserID(), identity.Roles(), franchiseID, httpkit.ViewAs(c)))
}
