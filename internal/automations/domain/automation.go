// Package domain defines automation rules: triggers, conditions and the
// actions a rule runs.
package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Trigger is the lifecycle moment an automation listens for.
type Trigger string

const (
	TriggerLeadCreated   Trigger = "lead_created"
	TriggerStatusChanged Trigger = "status_changed"
	TriggerTourBooked    Trigger = "tour_booked"
	TriggerTourCompleted Trigger = "tour_completed"
)

var Triggers = []Trigger{TriggerLeadCreated, TriggerStatusChanged, TriggerTourBooked, TriggerTourCompleted}

func (t Trigger) Valid() bool {
	return slices.Contains(Triggers, t)
}

// TriggerValues returns Triggers as strings.
func TriggerValues() []string {
	out := make([]string, len(Triggers))
	for i, t := range Triggers {
		out[i] = string(t)
	}
	return out
}

// Skip reasons reported when Conditions do not match.
const (
	SkipStatus   = "status_mismatch"
	SkipLeadPath = "lead_path_mismatch"
)

// Conditions narrow when an automation runs. Zero values match everything.
type Conditions struct {
	Status   *string  `json:"status,omitempty" yaml:"status,omitempty"`
	LeadPath []string `json:"lead_path,omitempty" yaml:"lead_path,omitempty"`
}

// ParseConditions decodes the stored conditions JSON. Empty input matches all.
func ParseConditions(raw []byte) (Conditions, error) {
	var c Conditions
	if len(raw) == 0 || string(raw) == "null" {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Conditions{}, fmt.Errorf("decode conditions: %w", err)
	}
	return c, nil
}

// Match reports whether the rule applies to a lead with the given effective
// status and program interests. On a mismatch the skip reason is returned.
func (c Conditions) Match(status string, programs []string) (bool, string) {
	if c.Status != nil && *c.Status != "" && *c.Status != status {
		return false, SkipStatus
	}
	if len(c.LeadPath) > 0 && !intersects(c.LeadPath, programs) {
		return false, SkipLeadPath
	}
	return true, ""
}

func intersects(want, have []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[strings.ToLower(strings.TrimSpace(w))]; ok {
			return true
		}
	}
	return false
}
