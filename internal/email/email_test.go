package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRenderTourReminder(t *testing.T) {
	html, err := renderTourReminder(TourReminder{
		GuardianName:  "Pat",
		FranchiseName: "North <Dojo>",
		ScheduledAt:   time.Date(2026, time.March, 3, 16, 0, 0, 0, time.UTC),
		CheckInURL:    "https://app.example.com/north-dojo/tours/1/check-in",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Hi Pat,",
		"North &lt;Dojo&gt;",
		"Tuesday, March 3 at 4:00 PM",
		`href="https://app.example.com/north-dojo/tours/1/check-in"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output", want)
		}
	}
}

func TestRenderCustomKeepsBodyMarkup(t *testing.T) {
	html, err := renderCustom("Class update", "<p>See you <strong>Saturday</strong></p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<strong>Saturday</strong>") {
		t.Fatal("expected body markup preserved")
	}
	if !strings.Contains(html, "<title>Class update</title>") {
		t.Fatal("expected subject as title")
	}
}

func TestBuildMessageRequiresRecipients(t *testing.T) {
	s := &SMTPSender{fromName: "Dojo", fromEmail: "dojo@example.com"}
	if _, err := s.buildMessage(nil, "hi", "<p>x</p>"); !errors.Is(err, errNoRecipients) {
		t.Fatalf("expected errNoRecipients, got %v", err)
	}
	if _, err := s.buildMessage([]string{"a@example.com", "b@example.com"}, "hi", "<p>x</p>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNoopSenderSucceeds(t *testing.T) {
	var s Sender = NewNoopSender(nil)
	if err := s.SendEmail(context.Background(), []string{"a@example.com"}, "hi", "body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
