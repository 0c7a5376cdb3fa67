package handler

import (
	"context"
	"net/http"

	"dojoflow_backend/internal/leads/lifecycle"
	"dojoflow_backend/internal/leads/transport"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

// Service is the lead lifecycle surface the handler drives.
type Service interface {
	List(ctx context.Context, franchiseID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error)
	Create(ctx context.Context, scope lifecycle.Scope, req transport.CreateLeadRequest) (transport.LeadResponse, error)
	Get(ctx context.Context, franchiseID, leadID uuid.UUID) (transport.LeadResponse, error)
	Update(ctx context.Context, franchiseID, leadID uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error)
	Delete(ctx context.Context, franchiseID, leadID uuid.UUID) error
	UpdateStatus(ctx context.Context, scope lifecycle.Scope, leadID uuid.UUID, req transport.ChangeStatusRequest) (transport.LeadResponse, error)
}

type Handler struct {
	svc Service
	val *validator.Validator
}

func New(svc Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

func scope(c *gin.Context) (lifecycle.Scope, bool) {
	id, slug, ok := httpkit.MustFranchise(c)
	return lifecycle.Scope{FranchiseID: id, Slug: slug}, ok
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) List(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.List(c.Request.Context(), sc.FranchiseID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), sc, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Get(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	id, ok := leadID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), sc.FranchiseID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Update(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Update(c.Request.Context(), sc.FranchiseID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Delete(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	id, ok := leadID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), sc.FranchiseID, id)) {
		return
	}
	httpkit.Success(c, http.StatusOK, nil)
}

// UpdateStatus handles PATCH /leads/:id/status and answers {success, lead}.
func (h *Handler) UpdateStatus(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), sc, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusOK, gin.H{"lead": result})
}
