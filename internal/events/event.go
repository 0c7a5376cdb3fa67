// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"dojoflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent = events.NewBaseEvent
	SubscribeAll = events.SubscribeAll
	LogAttrs     = events.LogAttrs
)

// =============================================================================
// Leads
// =============================================================================

// LeadCreated is published after a lead chain has been committed.
type LeadCreated struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	FranchiseID uuid.UUID `json:"franchiseId"`
	Source      string    `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string    { return "leads.lead.created" }
func (e LeadCreated) Franchise() uuid.UUID { return e.FranchiseID }

// LeadStatusChanged is published after a lead status write succeeded.
type LeadStatusChanged struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	FranchiseID uuid.UUID `json:"franchiseId"`
	NewStatus   string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string    { return "leads.lead.status_changed" }
func (e LeadStatusChanged) Franchise() uuid.UUID { return e.FranchiseID }

// =============================================================================
// Tasks
// =============================================================================

// TaskChanged is published when a task is created, completed or removed.
type TaskChanged struct {
	BaseEvent
	TaskID      uuid.UUID  `json:"taskId"`
	FranchiseID uuid.UUID  `json:"franchiseId"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	Change      string     `json:"change"`
}

func (e TaskChanged) EventName() string    { return "tasks.task.changed" }
func (e TaskChanged) Franchise() uuid.UUID { return e.FranchiseID }

// =============================================================================
// Tours
// =============================================================================

// TourBooked is published once a tour row exists.
type TourBooked struct {
	BaseEvent
	TourID      uuid.UUID `json:"tourId"`
	LeadID      uuid.UUID `json:"leadId"`
	FranchiseID uuid.UUID `json:"franchiseId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

func (e TourBooked) EventName() string    { return "tours.tour.booked" }
func (e TourBooked) Franchise() uuid.UUID { return e.FranchiseID }

// TourStatusChanged is published when staff mark a tour completed or no-show.
type TourStatusChanged struct {
	BaseEvent
	TourID      uuid.UUID `json:"tourId"`
	LeadID      uuid.UUID `json:"leadId"`
	FranchiseID uuid.UUID `json:"franchiseId"`
	Status      string    `json:"status"`
}

func (e TourStatusChanged) EventName() string    { return "tours.tour.status_changed" }
func (e TourStatusChanged) Franchise() uuid.UUID { return e.FranchiseID }

// TourReminderDue is published by the scheduler worker when a reminder fires.
type TourReminderDue struct {
	BaseEvent
	TourID      uuid.UUID `json:"tourId"`
	FranchiseID uuid.UUID `json:"franchiseId"`
}

func (e TourReminderDue) EventName() string    { return "tours.tour.reminder_due" }
func (e TourReminderDue) Franchise() uuid.UUID { return e.FranchiseID }

// =============================================================================
// Students
// =============================================================================

// StudentPromoted is published after a promotion transaction committed.
type StudentPromoted struct {
	BaseEvent
	StudentID   uuid.UUID `json:"studentId"`
	FranchiseID uuid.UUID `json:"franchiseId"`
	BeltRank    string    `json:"beltRank"`
	PromotedAt  time.Time `json:"promotedAt"`
}

func (e StudentPromoted) EventName() string    { return "students.student.promoted" }
func (e StudentPromoted) Franchise() uuid.UUID { return e.FranchiseID }

// =============================================================================
// Cache revalidation
// =============================================================================

// CacheRevalidate asks connected clients of a franchise to refetch a view.
type CacheRevalidate struct {
	BaseEvent
	FranchiseID uuid.UUID `json:"franchiseId"`
	Path        string    `json:"path"`
}

func (e CacheRevalidate) EventName() string    { return "ui.cache.revalidate" }
func (e CacheRevalidate) Franchise() uuid.UUID { return e.FranchiseID }
