package adapters

import (
	"context"
	"errors"

	"dojoflow_backend/internal/automations/domain"
	"dojoflow_backend/internal/automations/engine"
	franchiseservice "dojoflow_backend/internal/franchises/service"
	leaddomain "dojoflow_backend/internal/leads/domain"
	"dojoflow_backend/internal/leads/lifecycle"
	leadsrepo "dojoflow_backend/internal/leads/repository"
	taskdomain "dojoflow_backend/internal/tasks/domain"
	taskservice "dojoflow_backend/internal/tasks/service"
	tourservice "dojoflow_backend/internal/tours/service"

	"github.com/google/uuid"
)

// TourFranchiseReader adapts the franchises service for tour booking.
type TourFranchiseReader struct {
	franchises *franchiseservice.Service
}

func NewTourFranchiseReader(franchises *franchiseservice.Service) *TourFranchiseReader {
	return &TourFranchiseReader{franchises: franchises}
}

func (a *TourFranchiseReader) GetFranchise(ctx context.Context, slug string) (tourservice.Franchise, error) {
	f, err := a.franchises.Lookup(ctx, slug)
	if err != nil {
		return tourservice.Franchise{}, err
	}
	return tourservice.Franchise{ID: f.ID, Slug: f.Slug, Settings: f.Settings}, nil
}

// LeadOwnershipReader checks a lead against a franchise.
type LeadOwnershipReader interface {
	GetByID(ctx context.Context, id, franchiseID uuid.UUID) (leadsrepo.Lead, error)
}

// TourLeadGateway exposes the lead lifecycle to tour booking.
type TourLeadGateway struct {
	lifecycle *lifecycle.Service
	leads     LeadOwnershipReader
}

func NewTourLeadGateway(lc *lifecycle.Service, leads LeadOwnershipReader) *TourLeadGateway {
	return &TourLeadGateway{lifecycle: lc, leads: leads}
}

func (a *TourLeadGateway) LeadInFranchise(ctx context.Context, franchiseID, leadID uuid.UUID) (bool, error) {
	_, err := a.leads.GetByID(ctx, leadID, franchiseID)
	if errors.Is(err, leadsrepo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateLead stores the chain without the intake follow-up tasks; the
// booking creates its own tour task.
func (a *TourLeadGateway) CreateLead(ctx context.Context, franchise tourservice.Franchise, in tourservice.NewLead) (uuid.UUID, error) {
	lead := lifecycle.NewLead{
		Source: in.Source,
		Notes:  in.Notes,
		Guardian: lifecycle.NewGuardian{
			FirstName: in.Guardian.FirstName,
			LastName:  in.Guardian.LastName,
			Email:     in.Guardian.Email,
			Phone:     in.Guardian.Phone,
		},
	}
	for _, child := range in.Children {
		lead.Students = append(lead.Students, lifecycle.NewStudent{
			FirstName:       child.FirstName,
			LastName:        child.LastName,
			DOB:             child.DOB,
			ProgramInterest: child.Programs,
		})
	}

	chain, err := a.lifecycle.CreateLeadChain(ctx, lifecycle.Scope{FranchiseID: franchise.ID, Slug: franchise.Slug}, lead)
	if err != nil {
		return uuid.Nil, err
	}
	return chain.Lead.ID, nil
}

func (a *TourLeadGateway) MarkTourBooked(ctx context.Context, franchiseID, leadID uuid.UUID) error {
	return a.lifecycle.WriteStatus(ctx, franchiseID, leadID, leaddomain.StatusTourBooked)
}

func (a *TourLeadGateway) MarkTourCompleted(ctx context.Context, leadID uuid.UUID, franchiseSlug string) error {
	return a.lifecycle.ChangeLeadStatus(ctx, leadID, leaddomain.StatusTourCompleted, franchiseSlug)
}

// TourTaskCreator records booked tours as review tasks.
type TourTaskCreator struct {
	tasks *taskservice.Service
}

func NewTourTaskCreator(tasks *taskservice.Service) *TourTaskCreator {
	return &TourTaskCreator{tasks: tasks}
}

func (a *TourTaskCreator) CreateTourTask(ctx context.Context, task tourservice.TourTask) error {
	leadID := task.LeadID
	due := task.DueDate
	_, err := a.tasks.InsertTask(ctx, taskservice.NewTask{
		FranchiseID: task.FranchiseID,
		LeadID:      &leadID,
		Title:       task.Title,
		DueDate:     &due,
		Type:        taskdomain.TypeReview,
	})
	return err
}

// TourAutomationRunner forwards booking triggers to the engine.
type TourAutomationRunner struct {
	engine *engine.Engine
}

func NewTourAutomationRunner(e *engine.Engine) *TourAutomationRunner {
	return &TourAutomationRunner{engine: e}
}

func (a *TourAutomationRunner) RunAutomations(ctx context.Context, run tourservice.TriggerRun) {
	a.engine.RunAutomations(ctx, engine.Run{
		Trigger:       domain.Trigger(run.Trigger),
		FranchiseID:   run.FranchiseID,
		LeadID:        run.LeadID,
		NewStatus:     run.NewStatus,
		FranchiseSlug: run.FranchiseSlug,
	})
}

// Compile-time checks.
var (
	_ tourservice.FranchiseReader  = (*TourFranchiseReader)(nil)
	_ tourservice.LeadGateway      = (*TourLeadGateway)(nil)
	_ tourservice.TaskCreator      = (*TourTaskCreator)(nil)
	_ tourservice.AutomationRunner = (*TourAutomationRunner)(nil)
)
