package handler

import (
	"context"
	"net/http"

	"dojoflow_backend/internal/tours/transport"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidTourID    = "invalid tour id"
)

// Service is the tour booking surface the handler drives.
type Service interface {
	BookTour(ctx context.Context, franchiseSlug string, req transport.BookTourRequest) (transport.BookTourResponse, error)
	List(ctx context.Context, franchiseID uuid.UUID, req transport.ListToursRequest) (transport.TourListResponse, error)
	UpdateTourStatus(ctx context.Context, franchiseID uuid.UUID, franchiseSlug string, id uuid.UUID, req transport.UpdateTourStatusRequest) (transport.TourResponse, error)
	CheckInQR(ctx context.Context, franchiseID uuid.UUID, franchiseSlug string, id uuid.UUID) ([]byte, error)
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
	rg.POST("", h.Book)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.GET("/:id/qr", h.QR)
}

func (h *Handler) Book(c *gin.Context) {
	_, slug, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	var req transport.BookTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.BookTour(c.Request.Context(), slug, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusCreated, gin.H{
		"tour":        result.Tour,
		"leadId":      result.LeadID,
		"leadCreated": result.LeadCreated,
	})
}

func (h *Handler) List(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	var req transport.ListToursRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.List(c.Request.Context(), franchiseID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	franchiseID, slug, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTourID, nil)
		return
	}

	var req transport.UpdateTourStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.UpdateTourStatus(c.Request.Context(), franchiseID, slug, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Success(c, http.StatusOK, gin.H{"tour": result})
}

func (h *Handler) QR(c *gin.Context) {
	franchiseID, slug, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTourID, nil)
		return
	}

	png, err := h.svc.CheckInQR(c.Request.Context(), franchiseID, slug, id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
