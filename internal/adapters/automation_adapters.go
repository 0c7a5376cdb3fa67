package adapters

import (
	"context"
	"errors"

	"dojoflow_backend/internal/automations/engine"
	leadsrepo "dojoflow_backend/internal/leads/repository"
	taskservice "dojoflow_backend/internal/tasks/service"

	"github.com/google/uuid"
)

// LeadChainReader is the lead read the automation snapshot needs.
type LeadChainReader interface {
	GetChain(ctx context.Context, leadID uuid.UUID, franchiseID *uuid.UUID) (leadsrepo.LeadChain, error)
}

// AutomationLeadReader builds engine snapshots from the leads repository.
type AutomationLeadReader struct {
	leads LeadChainReader
}

func NewAutomationLeadReader(leads LeadChainReader) *AutomationLeadReader {
	return &AutomationLeadReader{leads: leads}
}

// GetLeadSnapshot returns nil when the lead no longer exists.
func (a *AutomationLeadReader) GetLeadSnapshot(ctx context.Context, leadID uuid.UUID) (*engine.LeadSnapshot, error) {
	chain, err := a.leads.GetChain(ctx, leadID, nil)
	if errors.Is(err, leadsrepo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap := &engine.LeadSnapshot{
		LeadID:      chain.Lead.ID,
		FranchiseID: chain.Lead.FranchiseID,
		Status:      chain.Lead.Status,
	}
	if g := chain.Guardian; g != nil {
		snap.GuardianEmail = deref(g.Email)
		snap.GuardianPhone = deref(g.Phone)
	}

	seen := make(map[string]bool)
	for _, st := range chain.Students {
		for _, p := range st.ProgramInterest {
			if !seen[p] {
				seen[p] = true
				snap.Programs = append(snap.Programs, p)
			}
		}
	}
	return snap, nil
}

// AutomationTaskCreator adapts the tasks service for create_task actions.
type AutomationTaskCreator struct {
	tasks *taskservice.Service
}

func NewAutomationTaskCreator(tasks *taskservice.Service) *AutomationTaskCreator {
	return &AutomationTaskCreator{tasks: tasks}
}

func (a *AutomationTaskCreator) CreateTask(ctx context.Context, spec engine.TaskSpec) error {
	leadID := spec.LeadID
	_, err := a.tasks.InsertTask(ctx, taskservice.NewTask{
		FranchiseID: spec.FranchiseID,
		LeadID:      &leadID,
		Title:       spec.Title,
		Description: spec.Description,
		Type:        spec.Type,
	})
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Compile-time checks.
var (
	_ engine.LeadReader  = (*AutomationLeadReader)(nil)
	_ engine.TaskCreator = (*AutomationTaskCreator)(nil)
)
