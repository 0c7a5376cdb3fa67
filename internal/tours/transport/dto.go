package transport

import (
	"time"

	leadtransport "dojoflow_backend/internal/leads/transport"

	"github.com/google/uuid"
)

type ChildInput struct {
	Name            string   `json:"name" validate:"required,min=1,max=200"`
	DOB             *string  `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	ProgramInterest []string `json:"programInterest" validate:"omitempty,dive,min=1,max=40"`
}

// NewLeadInput is the inline lead entered on the booking form.
type NewLeadInput struct {
	Guardian leadtransport.GuardianInput `json:"guardian" validate:"required"`
	Children []ChildInput                `json:"children" validate:"omitempty,dive"`
}

type BookTourRequest struct {
	LeadID      *uuid.UUID    `json:"leadId"`
	ScheduledAt time.Time     `json:"scheduledAt" validate:"required"`
	NewLead     *NewLeadInput `json:"newLead" validate:"omitempty"`
	Notes       string        `json:"notes" validate:"max=2000"`
}

type UpdateTourStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled completed no-show"`
}

type ListToursRequest struct {
	From   string `form:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To     string `form:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Status string `form:"status" validate:"omitempty,oneof=scheduled completed no-show"`
	LeadID string `form:"leadId" validate:"omitempty,uuid"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

type TourResponse struct {
	ID           uuid.UUID `json:"id"`
	LeadID       uuid.UUID `json:"leadId"`
	ScheduledAt  time.Time `json:"scheduledAt"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes,omitempty"`
	GuardianName *string   `json:"guardianName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type TourListResponse struct {
	Items []TourResponse `json:"items"`
}

type BookTourResponse struct {
	Tour        TourResponse `json:"tour"`
	LeadID      uuid.UUID    `json:"leadId"`
	LeadCreated bool         `json:"leadCreated"`
}

// PartialBookingDetails accompanies a booking whose tour was stored but whose
// follow-up status write failed.
type PartialBookingDetails struct {
	TourID uuid.UUID `json:"tourId"`
	LeadID uuid.UUID `json:"leadId"`
}
