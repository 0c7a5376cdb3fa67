package transport

import (
	"time"

	"github.com/google/uuid"
)

type PromoteRequest struct {
	// BeltRank defaults to the next belt on the ladder.
	BeltRank   string  `json:"beltRank" validate:"omitempty,belt_rank"`
	PromotedAt *string `json:"promotedAt" validate:"omitempty,datetime=2006-01-02"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}

type ListStudentsRequest struct {
	Search   string `form:"search" validate:"max=100"`
	Belt     string `form:"belt" validate:"omitempty,belt_rank"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type StudentResponse struct {
	ID                uuid.UUID  `json:"id"`
	LeadID            uuid.UUID  `json:"leadId"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	DOB               *time.Time `json:"dob,omitempty"`
	ProgramInterest   []string   `json:"programInterest"`
	CurrentBelt       string     `json:"currentBelt"`
	LastPromotionDate *time.Time `json:"lastPromotionDate,omitempty"`
	GuardianName      string     `json:"guardianName"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type StudentListResponse struct {
	Items    []StudentResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

type PromotionResponse struct {
	ID         uuid.UUID `json:"id"`
	StudentID  uuid.UUID `json:"studentId"`
	BeltRank   string    `json:"beltRank"`
	PromotedAt time.Time `json:"promotedAt"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PromotionListResponse struct {
	Items []PromotionResponse `json:"items"`
}
