package domain

import (
	"testing"
	"time"
)

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []Status{"", "won", "Tour_Booked"} {
		if s.Valid() {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestSpecificTrigger(t *testing.T) {
	cases := map[Status]string{
		StatusTourBooked:    "tour_booked",
		StatusTourCompleted: "tour_completed",
		StatusNew:           "",
		StatusEnrolled:      "",
		StatusLost:          "",
	}
	for status, want := range cases {
		got, ok := status.SpecificTrigger()
		if got != want || ok != (want != "") {
			t.Fatalf("%s: got %q (%v), want %q", status, got, ok, want)
		}
	}
}

func TestFollowUpFor(t *testing.T) {
	f, ok := FollowUpFor(StatusTourBooked)
	if !ok || f.Title != "Confirm Tour Appointment" || f.Type != "call" || f.Delay != 0 {
		t.Fatalf("unexpected tour_booked follow-up %+v", f)
	}
	f, ok = FollowUpFor(StatusTourCompleted)
	if !ok || f.Title != "Follow up on Tour" || f.Delay != 24*time.Hour {
		t.Fatalf("unexpected tour_completed follow-up %+v", f)
	}
	if _, ok := FollowUpFor(StatusContacted); ok {
		t.Fatal("contacted has no follow-up")
	}
}

func TestIntakeFollowUps(t *testing.T) {
	if len(IntakeFollowUps) != 3 {
		t.Fatalf("expected 3 intake tasks, got %d", len(IntakeFollowUps))
	}
	last := IntakeFollowUps[2]
	if last.Title != "Review Lead" || last.Type != "review" || last.Delay != 96*time.Hour {
		t.Fatalf("unexpected review task %+v", last)
	}
}
