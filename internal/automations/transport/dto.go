package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AutomationRequest is used for both create and full replacement.
type AutomationRequest struct {
	Name       string          `json:"name" validate:"required,min=1,max=120"`
	Trigger    string          `json:"trigger" validate:"required,automation_trigger"`
	Conditions json.RawMessage `json:"conditions"`
	Actions    json.RawMessage `json:"actions" validate:"required"`
	Active     *bool           `json:"active"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type ListAutomationsRequest struct {
	Trigger string `form:"trigger" validate:"omitempty,automation_trigger"`
}

type ListLogsRequest struct {
	AutomationID string `form:"automationId" validate:"omitempty,uuid"`
	LeadID       string `form:"leadId" validate:"omitempty,uuid"`
	Status       string `form:"status" validate:"omitempty,oneof=success failed"`
	Limit        int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

type AutomationResponse struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Trigger    string          `json:"trigger"`
	Conditions json.RawMessage `json:"conditions"`
	Actions    json.RawMessage `json:"actions"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type AutomationListResponse struct {
	Items []AutomationResponse `json:"items"`
}

type LogResponse struct {
	ID           uuid.UUID `json:"id"`
	AutomationID uuid.UUID `json:"automationId"`
	LeadID       uuid.UUID `json:"leadId"`
	ActionType   string    `json:"actionType"`
	Status       string    `json:"status"`
	ErrorMessage *string   `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type LogListResponse struct {
	Items []LogResponse `json:"items"`
}

type InteractionResponse struct {
	ID           uuid.UUID  `json:"id"`
	LeadID       uuid.UUID  `json:"leadId"`
	AutomationID *uuid.UUID `json:"automationId,omitempty"`
	Type         string     `json:"type"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type InteractionListResponse struct {
	Items []InteractionResponse `json:"items"`
}

type InstallDefaultsResponse struct {
	Installed int `json:"installed"`
}
