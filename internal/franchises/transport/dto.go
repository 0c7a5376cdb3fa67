package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateFranchiseRequest struct {
	Name     string          `json:"name" validate:"required,min=2,max=120"`
	Slug     string          `json:"slug" validate:"required,min=2,max=60,slug"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

type UpdateSettingsRequest struct {
	Settings json.RawMessage `json:"settings" validate:"required"`
}

type FranchiseResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Settings  json.RawMessage `json:"settings"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type FranchiseListResponse struct {
	Items []FranchiseResponse `json:"items"`
}

// PipelineResponse summarises the sales pipeline for the dashboard.
type PipelineResponse struct {
	LeadsByStatus map[string]int `json:"leadsByStatus"`
	PendingTasks  int            `json:"pendingTasks"`
	OverdueTasks  int            `json:"overdueTasks"`
	ToursThisWeek int            `json:"toursThisWeek"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}

// SessionResponse describes the caller's session for the UI. ViewAs is a
// display preference only.
type SessionResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Roles     []string  `json:"roles"`
	ViewAs    string    `json:"viewAs,omitempty"`
	ReadOnly  bool      `json:"readOnly"`
	Franchise uuid.UUID `json:"franchiseId"`
}
