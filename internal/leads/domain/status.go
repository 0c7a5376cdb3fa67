// Package domain holds the lead status machine and its follow-up rules.
package domain

import "time"

// Status is a lead pipeline status.
type Status string

const (
	StatusNew           Status = "new"
	StatusContacted     Status = "contacted"
	StatusTourBooked    Status = "tour_booked"
	StatusTourCompleted Status = "tour_completed"
	StatusEnrolled      Status = "enrolled"
	StatusLost          Status = "lost"
)

// Statuses lists every status in pipeline order, lost last.
var Statuses = []Status{
	StatusNew,
	StatusContacted,
	StatusTourBooked,
	StatusTourCompleted,
	StatusEnrolled,
	StatusLost,
}

// StatusValues returns Statuses as strings, for validators and schemas.
func StatusValues() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}

// Valid reports whether s is a known status. Any known status may be set
// directly; there is no enforced sequence.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// SpecificTrigger returns the extra automation trigger fired when a lead
// enters s, if any.
func (s Status) SpecificTrigger() (string, bool) {
	switch s {
	case StatusTourBooked:
		return "tour_booked", true
	case StatusTourCompleted:
		return "tour_completed", true
	default:
		return "", false
	}
}

// FollowUp describes the task created when a lead enters a status.
type FollowUp struct {
	Title string
	Type  string
	Delay time.Duration
}

// FollowUpFor returns the default follow-up task for s.
func FollowUpFor(s Status) (FollowUp, bool) {
	switch s {
	case StatusTourBooked:
		return FollowUp{Title: "Confirm Tour Appointment", Type: "call"}, true
	case StatusTourCompleted:
		return FollowUp{Title: "Follow up on Tour", Type: "call", Delay: 24 * time.Hour}, true
	default:
		return FollowUp{}, false
	}
}

// IntakeFollowUps are the tasks created for every new lead.
var IntakeFollowUps = []FollowUp{
	{Title: "Initial Phone Call", Type: "call"},
	{Title: "Follow-up Call", Type: "call", Delay: 2 * 24 * time.Hour},
	{Title: "Review Lead", Type: "review", Delay: 4 * 24 * time.Hour},
}
