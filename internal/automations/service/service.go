// Package service implements automation management: the rule builder CRUD,
// the execution log and the interaction history.
package service

import (
	"context"
	"encoding/json"
	"errors"

	"dojoflow_backend/internal/automations/repository"
	"dojoflow_backend/internal/automations/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgAutomationNotFound = "Automation not found"
	defaultLogLimit       = 100
)

type Repository interface {
	List(ctx context.Context, franchiseID uuid.UUID, trigger *string) ([]repository.Automation, error)
	Get(ctx context.Context, id, franchiseID uuid.UUID) (repository.Automation, error)
	Create(ctx context.Context, a repository.Automation) (repository.Automation, error)
	CreateIfNameAbsent(ctx context.Context, a repository.Automation) (bool, error)
	Update(ctx context.Context, a repository.Automation) (repository.Automation, error)
	SetActive(ctx context.Context, id, franchiseID uuid.UUID, active bool) (repository.Automation, error)
	Delete(ctx context.Context, id, franchiseID uuid.UUID) error
	ListLogs(ctx context.Context, f repository.LogFilter) ([]repository.Log, error)
	ListInteractions(ctx context.Context, franchiseID, leadID uuid.UUID) ([]repository.Interaction, error)
}

type Service struct {
	repo Repository
	log  *logger.Logger
}

func New(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context, franchiseID uuid.UUID, req transport.ListAutomationsRequest) (transport.AutomationListResponse, error) {
	var trigger *string
	if req.Trigger != "" {
		trigger = &req.Trigger
	}
	rows, err := s.repo.List(ctx, franchiseID, trigger)
	if err != nil {
		return transport.AutomationListResponse{}, err
	}
	items := make([]transport.AutomationResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toResponse(row))
	}
	return transport.AutomationListResponse{Items: items}, nil
}

func (s *Service) Get(ctx context.Context, franchiseID, id uuid.UUID) (transport.AutomationResponse, error) {
	row, err := s.repo.Get(ctx, id, franchiseID)
	if err != nil {
		return transport.AutomationResponse{}, mapNotFound(err)
	}
	return toResponse(row), nil
}

func (s *Service) Create(ctx context.Context, franchiseID uuid.UUID, req transport.AutomationRequest) (transport.AutomationResponse, error) {
	row, err := buildRow(uuid.New(), franchiseID, req)
	if err != nil {
		return transport.AutomationResponse{}, err
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return transport.AutomationResponse{}, err
	}
	return toResponse(created), nil
}

// Update replaces the automation's definition.
func (s *Service) Update(ctx context.Context, franchiseID, id uuid.UUID, req transport.AutomationRequest) (transport.AutomationResponse, error) {
	row, err := buildRow(id, franchiseID, req)
	if err != nil {
		return transport.AutomationResponse{}, err
	}
	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return transport.AutomationResponse{}, mapNotFound(err)
	}
	return toResponse(updated), nil
}

func (s *Service) SetActive(ctx context.Context, franchiseID, id uuid.UUID, active bool) (transport.AutomationResponse, error) {
	row, err := s.repo.SetActive(ctx, id, franchiseID, active)
	if err != nil {
		return transport.AutomationResponse{}, mapNotFound(err)
	}
	return toResponse(row), nil
}

func (s *Service) Delete(ctx context.Context, franchiseID, id uuid.UUID) error {
	return mapNotFound(s.repo.Delete(ctx, id, franchiseID))
}

func (s *Service) ListLogs(ctx context.Context, franchiseID uuid.UUID, req transport.ListLogsRequest) (transport.LogListResponse, error) {
	filter := repository.LogFilter{FranchiseID: franchiseID, Limit: req.Limit}
	if filter.Limit == 0 {
		filter.Limit = defaultLogLimit
	}
	if req.AutomationID != "" {
		id, err := uuid.Parse(req.AutomationID)
		if err != nil {
			return transport.LogListResponse{}, apperr.Validation("invalid automation id")
		}
		filter.AutomationID = &id
	}
	if req.LeadID != "" {
		id, err := uuid.Parse(req.LeadID)
		if err != nil {
			return transport.LogListResponse{}, apperr.Validation("invalid lead id")
		}
		filter.LeadID = &id
	}
	if req.Status != "" {
		filter.Status = &req.Status
	}

	rows, err := s.repo.ListLogs(ctx, filter)
	if err != nil {
		return transport.LogListResponse{}, err
	}
	items := make([]transport.LogResponse, 0, len(rows))
	for _, l := range rows {
		items = append(items, transport.LogResponse{
			ID:           l.ID,
			AutomationID: l.AutomationID,
			LeadID:       l.LeadID,
			ActionType:   l.ActionType,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			CreatedAt:    l.CreatedAt,
		})
	}
	return transport.LogListResponse{Items: items}, nil
}

func (s *Service) ListInteractions(ctx context.Context, franchiseID, leadID uuid.UUID) (transport.InteractionListResponse, error) {
	rows, err := s.repo.ListInteractions(ctx, franchiseID, leadID)
	if err != nil {
		return transport.InteractionListResponse{}, err
	}
	items := make([]transport.InteractionResponse, 0, len(rows))
	for _, i := range rows {
		items = append(items, transport.InteractionResponse{
			ID:           i.ID,
			LeadID:       i.LeadID,
			AutomationID: i.AutomationID,
			Type:         i.Type,
			Content:      i.Content,
			CreatedAt:    i.CreatedAt,
		})
	}
	return transport.InteractionListResponse{Items: items}, nil
}

// buildRow validates conditions and actions against their schemas before
// they are stored.
func buildRow(id, franchiseID uuid.UUID, req transport.AutomationRequest) (repository.Automation, error) {
	conditions := req.Conditions
	if len(conditions) == 0 || string(conditions) == "null" {
		conditions = json.RawMessage(`{}`)
	}
	if err := conditionsSchema.ValidateJSON(conditions); err != nil {
		return repository.Automation{}, err
	}
	if err := actionsSchema.ValidateJSON(req.Actions); err != nil {
		return repository.Automation{}, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return repository.Automation{
		ID:          id,
		FranchiseID: franchiseID,
		Name:        sanitize.Text(req.Name),
		Trigger:     req.Trigger,
		Conditions:  conditions,
		Actions:     req.Actions,
		Active:      active,
	}, nil
}

func toResponse(row repository.Automation) transport.AutomationResponse {
	return transport.AutomationResponse{
		ID:         row.ID,
		Name:       row.Name,
		Trigger:    row.Trigger,
		Conditions: row.Conditions,
		Actions:    row.Actions,
		Active:     row.Active,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgAutomationNotFound)
	}
	return err
}
