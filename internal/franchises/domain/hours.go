// Package domain holds franchise rules that do not touch storage: settings
// parsing and operating-hours checks used when booking tours.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"dojoflow_backend/platform/apperr"
)

// Weekday keys used in settings.operating_hours.
var weekdayKeys = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DayHours is an opening window in "HH:mm" form.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OperatingHours maps a weekday key to its window. A nil or missing entry
// means the franchise is closed that day.
type OperatingHours map[string]*DayHours

// DefaultOperatingHours applies when a franchise has not configured any.
func DefaultOperatingHours() OperatingHours {
	weekday := func() *DayHours { return &DayHours{Open: "10:00", Close: "19:00"} }
	return OperatingHours{
		"Mon": weekday(),
		"Tue": weekday(),
		"Wed": weekday(),
		"Thu": weekday(),
		"Fri": weekday(),
		"Sat": {Open: "09:00", Close: "14:00"},
		"Sun": nil,
	}
}

// WeekdayKey returns the three-letter key for t's weekday.
func WeekdayKey(t time.Time) string {
	return weekdayKeys[t.Weekday()]
}

// CheckTourTime reports whether a tour may start at t. Only the hour is
// compared: a start hour h is allowed when open <= h < close.
func (h OperatingHours) CheckTourTime(t time.Time) error {
	day := WeekdayKey(t)
	window := h[day]
	if window == nil {
		return apperr.Validation(fmt.Sprintf("We are closed on %s.", day))
	}

	openHour, closeHour, err := window.hours()
	if err != nil {
		return apperr.Validation(fmt.Sprintf("Operating hours for %s are misconfigured.", day))
	}

	if hour := t.Hour(); hour < openHour || hour >= closeHour {
		return apperr.Validation(fmt.Sprintf("Tours on %s are available between %s and %s.", day, window.Open, window.Close))
	}
	return nil
}

// Validate rejects windows whose times do not parse or that do not open
// before they close.
func (h OperatingHours) Validate() error {
	for _, day := range weekdayKeys {
		window := h[day]
		if window == nil {
			continue
		}
		if _, _, err := window.hours(); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
		if window.Open >= window.Close {
			return fmt.Errorf("%s: opening time must be before closing time", day)
		}
	}
	return nil
}

func (w DayHours) hours() (int, int, error) {
	openHour, err := hourOf(w.Open)
	if err != nil {
		return 0, 0, err
	}
	closeHour, err := hourOf(w.Close)
	if err != nil {
		return 0, 0, err
	}
	return openHour, closeHour, nil
}

func hourOf(hhmm string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(hhmm), ":")
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return hour, nil
}

// Settings is the typed view of the franchise settings bag. Unknown keys are
// preserved in Extra so admin edits round-trip.
type Settings struct {
	OperatingHours OperatingHours             `json:"operating_hours,omitempty"`
	Timezone       string                     `json:"timezone,omitempty"`
	Extra          map[string]json.RawMessage `json:"-"`
}

// ParseSettings decodes the raw settings JSON. Empty input yields zero Settings.
// A malformed timezone is reported but the remaining keys are still decoded.
func ParseSettings(raw []byte) (Settings, error) {
	var s Settings
	if len(raw) == 0 || string(raw) == "null" {
		return s, nil
	}

	var bag map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bag); err != nil {
		return s, fmt.Errorf("decode settings: %w", err)
	}

	if v, ok := bag["operating_hours"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &s.OperatingHours); err != nil {
			return s, fmt.Errorf("decode operating_hours: %w", err)
		}
	}
	var tzErr error
	if v, ok := bag["timezone"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &s.Timezone); err != nil {
			tzErr = fmt.Errorf("decode timezone: %w", err)
		}
	}

	delete(bag, "operating_hours")
	delete(bag, "timezone")
	if len(bag) > 0 {
		s.Extra = bag
	}
	return s, tzErr
}

// MarshalJSON writes the typed fields back alongside Extra.
func (s Settings) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	if len(s.OperatingHours) > 0 {
		out["operating_hours"] = s.OperatingHours
	}
	if s.Timezone != "" {
		out["timezone"] = s.Timezone
	}
	return json.Marshal(out)
}

// EffectiveHours returns the configured hours or the defaults.
func (s Settings) EffectiveHours() OperatingHours {
	if len(s.OperatingHours) == 0 {
		return DefaultOperatingHours()
	}
	return s.OperatingHours
}

// Location returns the franchise timezone, falling back to fallback.
func (s Settings) Location(fallback *time.Location) *time.Location {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}
