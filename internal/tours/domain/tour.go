// Package domain holds tour states and the text the booking flow writes.
package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no-show"
)

var Statuses = []string{string(StatusScheduled), string(StatusCompleted), string(StatusNoShow)}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// BookingSource is the lead source recorded for leads created while booking.
const BookingSource = "Tour Booking"

// Child is a child entered inline on the booking form.
type Child struct {
	Name     string
	Programs []string
}

// SplitName splits "First Last Names" at the first space.
func SplitName(full string) (first, last string) {
	full = strings.Join(strings.Fields(full), " ")
	first, last, _ = strings.Cut(full, " ")
	return first, last
}

// ChildrenSummary renders the lead notes for an inline booking, e.g.
// "Children: Sam (jr, little-dragons); Ana".
func ChildrenSummary(children []Child) string {
	if len(children) == 0 {
		return ""
	}
	parts := make([]string, 0, len(children))
	for _, c := range children {
		name := strings.TrimSpace(c.Name)
		if len(c.Programs) == 0 {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", name, strings.Join(c.Programs, ", ")))
	}
	return "Children: " + strings.Join(parts, "; ")
}

// ScheduledTaskTitle is the title of the task documenting a booked tour.
// at should already be in the franchise timezone.
func ScheduledTaskTitle(at time.Time) string {
	return "Tour scheduled for " + at.Format("Mon Jan 2, 2006 3:04 PM")
}
