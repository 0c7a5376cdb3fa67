package transport

import (
	"time"

	"github.com/google/uuid"
)

type GuardianInput struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,min=5,max=30"`
}

type StudentInput struct {
	FirstName       string   `json:"firstName" validate:"required,min=1,max=100"`
	LastName        string   `json:"lastName" validate:"max=100"`
	DOB             *string  `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	ProgramInterest []string `json:"programInterest" validate:"omitempty,dive,min=1,max=40"`
}

type CreateLeadRequest struct {
	Source   string         `json:"source" validate:"max=120"`
	Notes    string         `json:"notes" validate:"max=4000"`
	Guardian GuardianInput  `json:"guardian" validate:"required"`
	Students []StudentInput `json:"students" validate:"omitempty,dive"`
}

type UpdateLeadRequest struct {
	Source *string `json:"source" validate:"omitempty,max=120"`
	Notes  *string `json:"notes" validate:"omitempty,max=4000"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,lead_status"`
}

type ListLeadsRequest struct {
	Status   string `form:"status" validate:"omitempty,lead_status"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type GuardianResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
}

type StudentResponse struct {
	ID              uuid.UUID  `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	DOB             *time.Time `json:"dob,omitempty"`
	ProgramInterest []string   `json:"programInterest"`
	CurrentBelt     string     `json:"currentBelt"`
}

type LeadResponse struct {
	ID          uuid.UUID         `json:"id"`
	FranchiseID uuid.UUID         `json:"franchiseId"`
	Status      string            `json:"status"`
	Source      *string           `json:"source,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
	Guardian    *GuardianResponse `json:"guardian,omitempty"`
	Students    []StudentResponse `json:"students,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type LeadListItem struct {
	ID            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	Source        *string   `json:"source,omitempty"`
	GuardianName  *string   `json:"guardianName,omitempty"`
	GuardianEmail *string   `json:"guardianEmail,omitempty"`
	GuardianPhone *string   `json:"guardianPhone,omitempty"`
	StudentCount  int       `json:"studentCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type LeadListResponse struct {
	Items      []LeadListItem `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}
