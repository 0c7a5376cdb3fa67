package lifecycle

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/internal/leads/domain"
	"dojoflow_backend/internal/leads/repository"
	"dojoflow_backend/internal/leads/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
)

type harness struct {
	svc   *Service
	repo  *fakeRepo
	tasks *fakeTasks
	autos *fakeAutomations
	bus   *recordingBus
	calls []string
}

func newHarness() *harness {
	h := &harness{}
	h.repo = newFakeRepo(&h.calls)
	h.tasks = &fakeTasks{calls: &h.calls, pending: map[uuid.UUID]int{}}
	h.autos = &fakeAutomations{calls: &h.calls}
	h.bus = &recordingBus{}
	h.svc = New(h.repo, h.tasks, h.autos, h.bus, "US", logger.Nop())
	h.svc.now = func() time.Time { return fixedNow }
	return h
}

func TestChangeLeadStatusOrdering(t *testing.T) {
	h := newHarness()
	franchiseID := uuid.New()
	leadID := h.repo.seed(franchiseID, "contacted")

	if err := h.svc.ChangeLeadStatus(context.Background(), leadID, domain.StatusTourBooked, "downtown"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"get_franchise",
		"delete_pending",
		"update_status",
		"automations:status_changed",
		"automations:tour_booked",
		"insert_task:Confirm Tour Appointment",
	}
	if !reflect.DeepEqual(h.calls, want) {
		t.Fatalf("unexpected call order:\n got %v\nwant %v", h.calls, want)
	}

	for _, run := range h.autos.runs {
		if run.NewStatus == nil || *run.NewStatus != "tour_booked" {
			t.Fatalf("expected newStatus context on %s", run.Trigger)
		}
		if run.FranchiseID != franchiseID || run.FranchiseSlug != "downtown" {
			t.Fatalf("unexpected run scope %+v", run)
		}
	}

	task := h.tasks.created[0]
	if task.Type != "call" || !task.DueDate.Equal(fixedNow) || task.FranchiseID != franchiseID {
		t.Fatalf("unexpected follow-up task %+v", task)
	}
	if h.repo.leads[leadID].Lead.Status != "tour_booked" {
		t.Fatal("status not written")
	}
}

func TestChangeLeadStatusTourCompletedFollowUpIsNextDay(t *testing.T) {
	h := newHarness()
	leadID := h.repo.seed(uuid.New(), "tour_booked")

	if err := h.svc.ChangeLeadStatus(context.Background(), leadID, domain.StatusTourCompleted, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.tasks.created) != 1 {
		t.Fatalf("expected one follow-up, got %d", len(h.tasks.created))
	}
	task := h.tasks.created[0]
	if task.Title != "Follow up on Tour" || !task.DueDate.Equal(fixedNow.Add(24*time.Hour)) {
		t.Fatalf("unexpected follow-up %+v", task)
	}
	if h.autos.runs[1].Trigger != "tour_completed" {
		t.Fatalf("expected tour_completed trigger, got %+v", h.autos.runs)
	}
}

func TestChangeLeadStatusPlainStatusHasNoExtras(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusNew, domain.StatusContacted, domain.StatusEnrolled, domain.StatusLost} {
		t.Run(string(status), func(t *testing.T) {
			h := newHarness()
			leadID := h.repo.seed(uuid.New(), "new")

			if err := h.svc.ChangeLeadStatus(context.Background(), leadID, status, ""); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(h.autos.runs) != 1 || h.autos.runs[0].Trigger != "status_changed" {
				t.Fatalf("expected only status_changed, got %+v", h.autos.runs)
			}
			if len(h.tasks.created) != 0 {
				t.Fatalf("expected no tasks, got %+v", h.tasks.created)
			}
		})
	}
}

func TestChangeLeadStatusRejectsInvalidStatusBeforeMutation(t *testing.T) {
	h := newHarness()
	leadID := h.repo.seed(uuid.New(), "new")

	err := h.svc.ChangeLeadStatus(context.Background(), leadID, domain.Status("won"), "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.calls) != 0 {
		t.Fatalf("expected no side effects, got %v", h.calls)
	}
}

func TestChangeLeadStatusUnresolvedFranchiseStillWrites(t *testing.T) {
	h := newHarness()
	leadID := h.repo.seed(uuid.New(), "new")
	h.repo.lookupErr = fmt.Errorf("connection reset")

	if err := h.svc.ChangeLeadStatus(context.Background(), leadID, domain.StatusTourBooked, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"get_franchise", "delete_pending", "update_status"}
	if !reflect.DeepEqual(h.calls, want) {
		t.Fatalf("expected automations and tasks to be skipped, got %v", h.calls)
	}
}

func TestChangeLeadStatusMissingLead(t *testing.T) {
	h := newHarness()

	err := h.svc.ChangeLeadStatus(context.Background(), uuid.New(), domain.StatusContacted, "")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(h.autos.runs) != 0 {
		t.Fatal("automations must not run for a missing lead")
	}
}

func TestChangeLeadStatusWriteFailureIsFatal(t *testing.T) {
	h := newHarness()
	leadID := h.repo.seed(uuid.New(), "new")
	h.repo.statusErr = errBoom

	err := h.svc.ChangeLeadStatus(context.Background(), leadID, domain.StatusTourBooked, "")
	if !apperr.Is(err, apperr.KindInternal) || !strings.Contains(err.Error(), "Failed to update lead status") {
		t.Fatalf("expected status update error, got %v", err)
	}
	if len(h.autos.runs) != 0 || len(h.tasks.created) != 0 {
		t.Fatal("no side effects may follow a failed status write")
	}
}

func TestChangeLeadStatusSideEffectFailuresAreSwallowed(t *testing.T) {
	h := newHarness()
	leadID := h.repo.seed(uuid.New(), "new")
	h.tasks.deleteErr = errBoom
	h.tasks.insertErr = errBoom

	if err := h.svc.ChangeLeadStatus(context.Background(), leadID, domain.StatusTourBooked, ""); err != nil {
		t.Fatalf("best-effort failures must not surface: %v", err)
	}
	if h.repo.leads[leadID].Lead.Status != "tour_booked" {
		t.Fatal("status write must survive side-effect failures")
	}
}

func TestCreateLeadFiresTriggerThenDefaultTasks(t *testing.T) {
	h := newHarness()
	scope := Scope{FranchiseID: uuid.New(), Slug: "downtown"}

	chain, err := h.svc.CreateLead(context.Background(), scope, NewLead{
		Source:   " Website ",
		Notes:    "<b>Wants</b> evening classes",
		Guardian: NewGuardian{FirstName: "Ana", LastName: "Silva", Email: " Ana@Example.COM ", Phone: "(650) 253-0000"},
		Students: []NewStudent{{FirstName: "Leo", ProgramInterest: []string{" JR ", "jr", "robotics"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"create_chain",
		"automations:lead_created",
		"insert_task:Initial Phone Call",
		"insert_task:Follow-up Call",
		"insert_task:Review Lead",
	}
	if !reflect.DeepEqual(h.calls, want) {
		t.Fatalf("unexpected call order:\n got %v\nwant %v", h.calls, want)
	}

	offsets := []time.Duration{0, 48 * time.Hour, 96 * time.Hour}
	for i, task := range h.tasks.created {
		if !task.DueDate.Equal(fixedNow.Add(offsets[i])) {
			t.Fatalf("task %q due %s, want now+%s", task.Title, task.DueDate, offsets[i])
		}
		if task.LeadID != chain.Lead.ID {
			t.Fatalf("task %q not attached to lead", task.Title)
		}
	}

	g := chain.Guardian
	if *g.Email != "ana@example.com" || *g.Phone != "+16502530000" {
		t.Fatalf("guardian contact not normalized: %s %s", *g.Email, *g.Phone)
	}
	if *chain.Lead.Source != "Website" || *chain.Lead.Notes != "Wants evening classes" {
		t.Fatalf("lead text not sanitized: %q %q", *chain.Lead.Source, *chain.Lead.Notes)
	}
	if got := chain.Students[0].ProgramInterest; !reflect.DeepEqual(got, []string{"jr", "robotics"}) {
		t.Fatalf("unexpected program interest %v", got)
	}

	if len(h.bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(h.bus.published))
	}
	if e, ok := h.bus.published[0].(events.LeadCreated); !ok || e.LeadID != chain.Lead.ID || e.Source != "Website" {
		t.Fatalf("unexpected event %#v", h.bus.published[0])
	}
}

func TestCreateLeadChainErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: %w", repository.ErrLeadInsert, errBoom), "Failed to create lead record"},
		{fmt.Errorf("%w: %w", repository.ErrGuardianInsert, errBoom), "Failed to create guardian record"},
		{fmt.Errorf("%w: %w", repository.ErrStudentInsert, errBoom), "Failed to create student record"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			h := newHarness()
			h.repo.chainErr = tc.err

			_, err := h.svc.CreateLead(context.Background(), Scope{FranchiseID: uuid.New()}, NewLead{Guardian: NewGuardian{FirstName: "A"}})
			if err == nil || err.Error() != tc.want {
				t.Fatalf("got %v, want %q", err, tc.want)
			}
			if len(h.autos.runs) != 0 || len(h.tasks.created) != 0 {
				t.Fatal("nothing may run after a failed chain")
			}
		})
	}
}

func TestCreateLeadDefaultTaskFailureIsSwallowed(t *testing.T) {
	h := newHarness()
	h.tasks.insertErr = errBoom

	if _, err := h.svc.CreateLead(context.Background(), Scope{FranchiseID: uuid.New()}, NewLead{Guardian: NewGuardian{FirstName: "A"}}); err != nil {
		t.Fatalf("default task failure must not surface: %v", err)
	}
}

func TestCreateRejectsBadDOB(t *testing.T) {
	h := newHarness()
	bad := "31/12/2015"

	_, err := h.svc.Create(context.Background(), Scope{FranchiseID: uuid.New()}, transport.CreateLeadRequest{
		Guardian: transport.GuardianInput{FirstName: "A"},
		Students: []transport.StudentInput{{FirstName: "B", DOB: &bad}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.calls) != 0 {
		t.Fatalf("expected no writes, got %v", h.calls)
	}
}

func TestUpdateStatusChecksFranchiseScope(t *testing.T) {
	h := newHarness()
	leadID := h.repo.seed(uuid.New(), "new")

	_, err := h.svc.UpdateStatus(context.Background(), Scope{FranchiseID: uuid.New()}, leadID, transport.ChangeStatusRequest{Status: "contacted"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for foreign lead, got %v", err)
	}
	if h.repo.leads[leadID].Lead.Status != "new" {
		t.Fatal("foreign lead must not change")
	}
}

func TestWriteStatusSkipsSideEffects(t *testing.T) {
	h := newHarness()
	franchiseID := uuid.New()
	leadID := h.repo.seed(franchiseID, "new")

	if err := h.svc.WriteStatus(context.Background(), franchiseID, leadID, domain.StatusTourBooked); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(h.calls, []string{"update_status"}) {
		t.Fatalf("expected a bare write, got %v", h.calls)
	}
}

func TestListPaging(t *testing.T) {
	h := newHarness()
	franchiseID := uuid.New()
	for i := 0; i < 5; i++ {
		h.repo.seed(franchiseID, "new")
	}
	h.repo.seed(uuid.New(), "new")

	res, err := h.svc.List(context.Background(), franchiseID, transport.ListLeadsRequest{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 5 || res.TotalPages != 3 || len(res.Items) != 2 || res.Page != 2 {
		t.Fatalf("unexpected page %+v", res)
	}
}
