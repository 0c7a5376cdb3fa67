package handler

import (
	"net/http"

	"dojoflow_backend/internal/automations/service"
	"dojoflow_backend/internal/automations/transport"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest      = "invalid request"
	msgValidationFailed    = "validation failed"
	msgInvalidAutomationID = "invalid automation id"
	msgInvalidLeadID       = "invalid lead id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the read routes on rg and the rule builder on managers.
func (h *Handler) RegisterRoutes(rg, managers *gin.RouterGroup) {
	rg.GET("/automations", h.List)
	rg.GET("/automations/:id", h.Get)
	rg.GET("/automation-logs", h.ListLogs)
	rg.GET("/leads/:id/interactions", h.ListInteractions)

	managers.POST("/automations", h.Create)
	managers.POST("/automations/defaults", h.InstallDefaults)
	managers.PUT("/automations/:id", h.Update)
	managers.PATCH("/automations/:id/active", h.SetActive)
	managers.DELETE("/automations/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	var req transport.ListAutomationsRequest
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

func (h *Handler) Get(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAutomationID, nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), franchiseID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Create(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	var req transport.AutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Create(c.Request.Context(), franchiseID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Update(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAutomationID, nil)
		return
	}

	var req transport.AutomationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Update(c.Request.Context(), franchiseID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SetActive(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAutomationID, nil)
		return
	}

	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.SetActive(c.Request.Context(), franchiseID, id, *req.Active)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Delete(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidAutomationID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), franchiseID, id)) {
		return
	}
	httpkit.Success(c, http.StatusOK, nil)
}

func (h *Handler) InstallDefaults(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	installed, err := h.svc.InstallDefaults(c.Request.Context(), franchiseID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.InstallDefaultsResponse{Installed: installed})
}

func (h *Handler) ListLogs(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}

	var req transport.ListLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.svc.ListLogs(c.Request.Context(), franchiseID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListInteractions(c *gin.Context) {
	franchiseID, _, ok := httpkit.MustFranchise(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	result, err := h.svc.ListInteractions(c.Request.Context(), franchiseID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
