package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	LeadID      *uuid.UUID `json:"leadId"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=4000"`
	DueDate     *time.Time `json:"dueDate"`
	Type        string     `json:"type" validate:"omitempty,task_type"`
}

type CompleteTaskRequest struct {
	Outcome *string `json:"outcome" validate:"omitempty,max=2000"`
}

type ListTasksRequest struct {
	LeadID  string `form:"leadId" validate:"omitempty,uuid"`
	Status  string `form:"status" validate:"omitempty,oneof=pending completed"`
	Overdue bool   `form:"overdue"`
	Limit   int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Status      string     `json:"status"`
	Type        string     `json:"type"`
	Outcome     *string    `json:"outcome,omitempty"`
	Overdue     bool       `json:"overdue"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type TaskListResponse struct {
	Items []TaskResponse `json:"items"`
}
