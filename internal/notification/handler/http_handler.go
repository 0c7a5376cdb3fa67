package handler

import (
	"net/http"

	"dojoflow_backend/internal/email"
	"dojoflow_backend/internal/sms"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/phone"
	"dojoflow_backend/platform/sanitize"
	"dojoflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgSendEmailFailed  = "Failed to send email"
	msgSendSMSFailed    = "Failed to send SMS"
	msgNoValidNumbers   = "no valid phone numbers"
)

type SendEmailRequest struct {
	To      []string `json:"to" validate:"required,min=1,max=50,dive,email"`
	Subject string   `json:"subject" validate:"required,max=200"`
	HTML    string   `json:"html" validate:"required,max=100000"`
}

type SendSMSRequest struct {
	To      []string `json:"to" validate:"required,min=1,max=50,dive,min=5,max=30"`
	Message string   `json:"message" validate:"required,max=1600"`
}

// HTTPHandler exposes the dashboard's direct send endpoints.
type HTTPHandler struct {
	email       email.Sender
	sms         sms.Sender
	val         *validator.Validator
	phoneRegion string
	log         *logger.Logger
}

func NewHTTPHandler(emailSender email.Sender, smsSender sms.Sender, val *validator.Validator, phoneRegion string, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{email: emailSender, sms: smsSender, val: val, phoneRegion: phoneRegion, log: log}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/email", h.SendEmail)
	rg.POST("/sms", h.SendSMS)
}

func (h *HTTPHandler) SendEmail(c *gin.Context) {
	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	subject := sanitize.Text(req.Subject)
	if err := h.email.SendEmail(c.Request.Context(), req.To, subject, sanitize.HTML(req.HTML)); err != nil {
		h.log.WithContext(c.Request.Context()).Error("send email failed", "recipients", len(req.To), "error", err)
		httpkit.Error(c, http.StatusBadGateway, msgSendEmailFailed, nil)
		return
	}
	httpkit.Success(c, http.StatusOK, nil)
}

func (h *HTTPHandler) SendSMS(c *gin.Context) {
	var req SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	numbers := make([]string, 0, len(req.To))
	for _, raw := range req.To {
		if n := phone.NormalizeE164(raw, h.phoneRegion); n != "" {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		httpkit.Error(c, http.StatusBadRequest, msgNoValidNumbers, nil)
		return
	}

	if err := h.sms.SendSMS(c.Request.Context(), numbers, sanitize.Text(req.Message)); err != nil {
		h.log.WithContext(c.Request.Context()).Error("send sms failed", "recipients", len(numbers), "error", err)
		httpkit.Error(c, http.StatusBadGateway, msgSendSMSFailed, nil)
		return
	}
	httpkit.Success(c, http.StatusOK, nil)
}
