package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	leadsrepo "dojoflow_backend/internal/leads/repository"
	"dojoflow_backend/internal/notification"
	tourrepo "dojoflow_backend/internal/tours/repository"
	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeChainReader struct {
	chain leadsrepo.LeadChain
	err   error
}

func (f fakeChainReader) GetChain(context.Context, uuid.UUID, *uuid.UUID) (leadsrepo.LeadChain, error) {
	return f.chain, f.err
}

func strPtr(s string) *string { return &s }

func TestLeadSnapshotMergesStudentPrograms(t *testing.T) {
	leadID := uuid.New()
	reader := NewAutomationLeadReader(fakeChainReader{chain: leadsrepo.LeadChain{
		Lead:     leadsrepo.Lead{ID: leadID, Status: "new"},
		Guardian: &leadsrepo.Guardian{Email: strPtr("jane@example.com")},
		Students: []leadsrepo.Student{
			{ProgramInterest: []string{"robotics", "jr"}},
			{ProgramInterest: []string{"jr"}},
		},
	}})

	snap, err := reader.GetLeadSnapshot(context.Background(), leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.GuardianEmail != "jane@example.com" || snap.GuardianPhone != "" {
		t.Fatalf("unexpected contact %+v", snap)
	}
	if len(snap.Programs) != 2 || snap.Programs[0] != "robotics" || snap.Programs[1] != "jr" {
		t.Fatalf("unexpected programs %v", snap.Programs)
	}
}

func TestLeadSnapshotMissingLeadIsNil(t *testing.T) {
	reader := NewAutomationLeadReader(fakeChainReader{err: leadsrepo.ErrNotFound})
	snap, err := reader.GetLeadSnapshot(context.Background(), uuid.New())
	if err != nil || snap != nil {
		t.Fatalf("expected nil snapshot, got %v, %v", snap, err)
	}
}

type fakeOwnership struct {
	err error
}

func (f fakeOwnership) GetByID(context.Context, uuid.UUID, uuid.UUID) (leadsrepo.Lead, error) {
	return leadsrepo.Lead{}, f.err
}

func TestLeadInFranchise(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		want    bool
		wantErr bool
	}{
		{name: "owned", want: true},
		{name: "foreign", err: leadsrepo.ErrNotFound},
		{name: "db down", err: errors.New("conn refused"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := NewTourLeadGateway(nil, fakeOwnership{err: tc.err})
			got, err := gw.LeadInFranchise(context.Background(), uuid.New(), uuid.New())
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

type fakeReminderContexts struct {
	rc  tourrepo.ReminderContext
	err error
}

func (f fakeReminderContexts) GetReminderContext(context.Context, uuid.UUID) (tourrepo.ReminderContext, error) {
	return f.rc, f.err
}

func TestTourReminderUsesFranchiseTimezone(t *testing.T) {
	tourID := uuid.New()
	rc := tourrepo.ReminderContext{
		Tour: tourrepo.Tour{
			ID:          tourID,
			Status:      "scheduled",
			ScheduledAt: time.Date(2026, 3, 5, 22, 0, 0, 0, time.UTC),
		},
		FranchiseName:     "Dojo North",
		FranchiseSlug:     "dojo-north",
		FranchiseSettings: json.RawMessage(`{"timezone":"America/New_York"}`),
		GuardianFirstName: strPtr(" Maria "),
		GuardianEmail:     strPtr("maria@example.com"),
	}
	reader := NewTourReminderReader(fakeReminderContexts{rc: rc}, func(slug string, id uuid.UUID) string {
		return "https://app.example.com/" + slug + "/tours/" + id.String() + "/check-in"
	}, time.UTC, logger.Nop())

	details, err := reader.GetTourReminder(context.Background(), tourID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.ScheduledAt.Hour() != 17 {
		t.Fatalf("expected 17:00 local, got %v", details.ScheduledAt)
	}
	if details.GuardianName != "Maria" || details.Phone != "" {
		t.Fatalf("unexpected guardian %+v", details)
	}
	if details.CheckInURL != "https://app.example.com/dojo-north/tours/"+tourID.String()+"/check-in" {
		t.Fatalf("unexpected check-in url %q", details.CheckInURL)
	}
}

func TestTourReminderMissingTour(t *testing.T) {
	reader := NewTourReminderReader(fakeReminderContexts{err: tourrepo.ErrNotFound}, nil, nil, logger.Nop())
	_, err := reader.GetTourReminder(context.Background(), uuid.New())
	if !errors.Is(err, notification.ErrReminderNotFound) {
		t.Fatalf("expected ErrReminderNotFound, got %v", err)
	}
}
