package service

import (
	"context"
	"time"

	franchisedomain "dojoflow_backend/internal/franchises/domain"
	"dojoflow_backend/internal/tours/repository"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, t repository.Tour) (repository.Tour, error)
	Get(ctx context.Context, id, franchiseID uuid.UUID) (repository.Tour, error)
	UpdateStatus(ctx context.Context, id, franchiseID uuid.UUID, status string) (repository.Tour, error)
	List(ctx context.Context, p repository.ListParams) ([]repository.ListItem, error)
}

// Franchise is the slice of a franchise the booking flow reads.
type Franchise struct {
	ID       uuid.UUID
	Slug     string
	Settings franchisedomain.Settings
}

// FranchiseReader resolves a franchise by slug. A missing franchise is an
// apperr NotFound.
type FranchiseReader interface {
	GetFranchise(ctx context.Context, slug string) (Franchise, error)
}

type NewGuardian struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type NewChild struct {
	FirstName string
	LastName  string
	DOB       *time.Time
	Programs  []string
}

// NewLead is an inline lead created while booking.
type NewLead struct {
	Source   string
	Notes    string
	Guardian NewGuardian
	Children []NewChild
}

// LeadGateway is the lead lifecycle as seen from tour booking.
type LeadGateway interface {
	LeadInFranchise(ctx context.Context, franchiseID, leadID uuid.UUID) (bool, error)
	// CreateLead stores the lead chain and fires lead_created.
	CreateLead(ctx context.Context, franchise Franchise, in NewLead) (uuid.UUID, error)
	// MarkTourBooked writes tour_booked without the lifecycle side effects;
	// the booking flow runs its own.
	MarkTourBooked(ctx context.Context, franchiseID, leadID uuid.UUID) error
	// MarkTourCompleted runs the full lifecycle status change.
	MarkTourCompleted(ctx context.Context, leadID uuid.UUID, franchiseSlug string) error
}

// TourTask is the task documenting a booked tour.
type TourTask struct {
	FranchiseID uuid.UUID
	LeadID      uuid.UUID
	Title       string
	DueDate     time.Time
}

type TaskCreator interface {
	CreateTourTask(ctx context.Context, task TourTask) error
}

// TriggerRun asks the automation engine to fire one trigger for a lead.
type TriggerRun struct {
	Trigger       string
	FranchiseID   uuid.UUID
	LeadID        uuid.UUID
	NewStatus     *string
	FranchiseSlug string
}

type AutomationRunner interface {
	RunAutomations(ctx context.Context, run TriggerRun)
}
