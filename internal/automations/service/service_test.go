package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"dojoflow_backend/internal/automations/domain"
	"dojoflow_backend/internal/automations/repository"
	"dojoflow_backend/internal/automations/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
)

type memRepo struct {
	rows    map[uuid.UUID]repository.Automation
	logs    []repository.Log
	filter  repository.LogFilter
	failAdd error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[uuid.UUID]repository.Automation{}}
}

func (m *memRepo) List(_ context.Context, franchiseID uuid.UUID, trigger *string) ([]repository.Automation, error) {
	out := []repository.Automation{}
	for _, row := range m.rows {
		if row.FranchiseID != franchiseID {
			continue
		}
		if trigger != nil && row.Trigger != *trigger {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id, franchiseID uuid.UUID) (repository.Automation, error) {
	row, ok := m.rows[id]
	if !ok || row.FranchiseID != franchiseID {
		return repository.Automation{}, repository.ErrNotFound
	}
	return row, nil
}

func (m *memRepo) Create(_ context.Context, a repository.Automation) (repository.Automation, error) {
	m.rows[a.ID] = a
	return a, nil
}

func (m *memRepo) CreateIfNameAbsent(_ context.Context, a repository.Automation) (bool, error) {
	if m.failAdd != nil {
		return false, m.failAdd
	}
	for _, row := range m.rows {
		if row.FranchiseID == a.FranchiseID && row.Name == a.Name {
			return false, nil
		}
	}
	m.rows[a.ID] = a
	return true, nil
}

func (m *memRepo) Update(ctx context.Context, a repository.Automation) (repository.Automation, error) {
	if _, err := m.Get(ctx, a.ID, a.FranchiseID); err != nil {
		return repository.Automation{}, err
	}
	m.rows[a.ID] = a
	return a, nil
}

func (m *memRepo) SetActive(ctx context.Context, id, franchiseID uuid.UUID, active bool) (repository.Automation, error) {
	row, err := m.Get(ctx, id, franchiseID)
	if err != nil {
		return repository.Automation{}, err
	}
	row.Active = active
	m.rows[id] = row
	return row, nil
}

func (m *memRepo) Delete(ctx context.Context, id, franchiseID uuid.UUID) error {
	if _, err := m.Get(ctx, id, franchiseID); err != nil {
		return err
	}
	delete(m.rows, id)
	return nil
}

func (m *memRepo) ListLogs(_ context.Context, f repository.LogFilter) ([]repository.Log, error) {
	m.filter = f
	return m.logs, nil
}

func (m *memRepo) ListInteractions(context.Context, uuid.UUID, uuid.UUID) ([]repository.Interaction, error) {
	return nil, nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return New(repo, logger.Nop()), repo
}

func TestEmbeddedDefaultsAreValid(t *testing.T) {
	items, err := loadDefaults(defaultsYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected starter automations")
	}
	for _, item := range items {
		row, err := item.row(uuid.New())
		if err != nil {
			t.Fatalf("%s: %v", item.Name, err)
		}
		if err := conditionsSchema.ValidateJSON(row.Conditions); err != nil {
			t.Fatalf("%s: conditions rejected: %v", item.Name, err)
		}
		if err := actionsSchema.ValidateJSON(row.Actions); err != nil {
			t.Fatalf("%s: actions rejected: %v", item.Name, err)
		}
		if _, err := domain.ParseActions(row.Actions); err != nil {
			t.Fatalf("%s: actions unreadable: %v", item.Name, err)
		}
	}
}

func TestLoadDefaultsRejectsUnknownTrigger(t *testing.T) {
	data := []byte("- name: Bad\n  trigger: lead_archived\n  actions:\n    - type: send_email\n")
	if _, err := loadDefaults(data); err == nil {
		t.Fatal("expected unknown trigger to be rejected")
	}
}

func TestInstallDefaultsSkipsExistingNames(t *testing.T) {
	svc, repo := newTestService()
	franchiseID := uuid.New()

	first, err := svc.InstallDefaults(context.Background(), franchiseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == 0 || len(repo.rows) != first {
		t.Fatalf("expected %d rows, got %d", first, len(repo.rows))
	}

	second, err := svc.InstallDefaults(context.Background(), franchiseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != 0 {
		t.Fatalf("expected reinstall to add nothing, added %d", second)
	}
}

func TestInstallDefaultsReportsRepositoryFailure(t *testing.T) {
	svc, repo := newTestService()
	repo.failAdd = errors.New("db down")

	if _, err := svc.InstallDefaults(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error")
	}
}

func TestCreateDefaultsConditionsAndActive(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Create(context.Background(), uuid.New(), transport.AutomationRequest{
		Name:    "  Welcome <b>email</b> ",
		Trigger: string(domain.TriggerLeadCreated),
		Actions: json.RawMessage(`[{"type":"send_email","message":"Hi"}]`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Conditions) != "{}" {
		t.Fatalf("expected empty conditions, got %s", resp.Conditions)
	}
	if !resp.Active {
		t.Fatal("expected new automation to be active")
	}
	if resp.Name != "Welcome email" {
		t.Fatalf("expected sanitized name, got %q", resp.Name)
	}
}

func TestCreateRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name       string
		conditions string
		actions    string
	}{
		{name: "unknown action type", actions: `[{"type":"send_fax"}]`},
		{name: "empty actions", actions: `[]`},
		{name: "actions not a list", actions: `{"type":"send_email"}`},
		{name: "unknown condition key", conditions: `{"program":"jr"}`, actions: `[{"type":"send_sms"}]`},
		{name: "unknown status", conditions: `{"status":"archived"}`, actions: `[{"type":"send_sms"}]`},
		{name: "malformed json", actions: `[{"type":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			req := transport.AutomationRequest{
				Name:    "Rule",
				Trigger: string(domain.TriggerStatusChanged),
				Actions: json.RawMessage(tt.actions),
			}
			if tt.conditions != "" {
				req.Conditions = json.RawMessage(tt.conditions)
			}

			_, err := svc.Create(context.Background(), uuid.New(), req)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(repo.rows) != 0 {
				t.Fatal("invalid automation must not be stored")
			}
		})
	}
}

func TestUpdateAndDeleteAreFranchiseScoped(t *testing.T) {
	svc, _ := newTestService()
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, transport.AutomationRequest{
		Name:    "Rule",
		Trigger: string(domain.TriggerTourBooked),
		Actions: json.RawMessage(`[{"type":"send_sms"}]`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := uuid.New()
	_, err = svc.SetActive(context.Background(), other, created.ID, false)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for other franchise, got %v", err)
	}
	if err := svc.Delete(context.Background(), other, created.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for other franchise, got %v", err)
	}

	toggled, err := svc.SetActive(context.Background(), owner, created.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toggled.Active {
		t.Fatal("expected automation to be deactivated")
	}
}

func TestListLogsBuildsFilter(t *testing.T) {
	svc, repo := newTestService()
	franchiseID := uuid.New()
	leadID := uuid.New()

	_, err := svc.ListLogs(context.Background(), franchiseID, transport.ListLogsRequest{
		LeadID: leadID.String(),
		Status: "failed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.filter.FranchiseID != franchiseID || repo.filter.LeadID == nil || *repo.filter.LeadID != leadID {
		t.Fatalf("unexpected filter %+v", repo.filter)
	}
	if repo.filter.Status == nil || *repo.filter.Status != "failed" {
		t.Fatal("expected status filter")
	}
	if repo.filter.Limit != defaultLogLimit {
		t.Fatalf("expected default limit, got %d", repo.filter.Limit)
	}
}
