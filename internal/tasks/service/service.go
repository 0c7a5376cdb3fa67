// Package service implements task management. Lifecycle and automation code
// create tasks through InsertTask; staff use the CRUD operations.
package service

import (
	"context"
	"errors"
	"time"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/internal/tasks/domain"
	"dojoflow_backend/internal/tasks/repository"
	"dojoflow_backend/internal/tasks/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgTaskNotFound  = "Task not found"
	defaultListLimit = 200
)

type Repository interface {
	Insert(ctx context.Context, t repository.Task) (repository.Task, error)
	DeletePendingForLead(ctx context.Context, leadID uuid.UUID) (int64, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Task, error)
	Complete(ctx context.Context, id, franchiseID uuid.UUID, outcome *string) (repository.Task, error)
	Delete(ctx context.Context, id, franchiseID uuid.UUID) (repository.Task, error)
}

// NewTask is a task created by the system rather than by staff.
type NewTask struct {
	FranchiseID uuid.UUID
	LeadID      *uuid.UUID
	Title       string
	Description *string
	DueDate     *time.Time
	Type        string
}

type Service struct {
	repo Repository
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

func New(repo Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, now: time.Now}
}

// InsertTask stores a pending task.
func (s *Service) InsertTask(ctx context.Context, t NewTask) (uuid.UUID, error) {
	row, err := s.repo.Insert(ctx, repository.Task{
		ID:          uuid.New(),
		FranchiseID: t.FranchiseID,
		LeadID:      t.LeadID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      domain.StatusPending,
		Type:        domain.NormalizeType(t.Type),
	})
	if err != nil {
		return uuid.UUID{}, err
	}
	s.publish(ctx, row, "created")
	return row.ID, nil
}

// DeletePendingTasksForLead clears a lead's outstanding tasks.
func (s *Service) DeletePendingTasksForLead(ctx context.Context, leadID uuid.UUID) error {
	n, err := s.repo.DeletePendingForLead(ctx, leadID)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.WithContext(ctx).Debug("deleted pending tasks", "leadId", leadID, "count", n)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, franchiseID uuid.UUID, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	row, err := s.repo.Insert(ctx, repository.Task{
		ID:          uuid.New(),
		FranchiseID: franchiseID,
		LeadID:      req.LeadID,
		Title:       sanitize.Text(req.Title),
		Description: sanitize.TextPtr(req.Description),
		DueDate:     req.DueDate,
		Status:      domain.StatusPending,
		Type:        domain.NormalizeType(req.Type),
	})
	if err != nil {
		return transport.TaskResponse{}, err
	}
	s.publish(ctx, row, "created")
	return s.toResponse(row), nil
}

func (s *Service) List(ctx context.Context, franchiseID uuid.UUID, req transport.ListTasksRequest) (transport.TaskListResponse, error) {
	params := repository.ListParams{FranchiseID: franchiseID, Limit: req.Limit}
	if params.Limit == 0 {
		params.Limit = defaultListLimit
	}
	if req.LeadID != "" {
		id, err := uuid.Parse(req.LeadID)
		if err != nil {
			return transport.TaskListResponse{}, apperr.Validation("invalid lead id")
		}
		params.LeadID = &id
	}
	if req.Status != "" {
		params.Status = &req.Status
	}
	if req.Overdue {
		now := s.now()
		pending := domain.StatusPending
		params.Status = &pending
		params.DueBefore = &now
	}

	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.TaskListResponse{}, err
	}
	items := make([]transport.TaskResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toResponse(row))
	}
	return transport.TaskListResponse{Items: items}, nil
}

// Complete marks a task done and records its outcome.
func (s *Service) Complete(ctx context.Context, franchiseID, taskID uuid.UUID, req transport.CompleteTaskRequest) (transport.TaskResponse, error) {
	row, err := s.repo.Complete(ctx, taskID, franchiseID, sanitize.TextPtr(req.Outcome))
	if err != nil {
		return transport.TaskResponse{}, mapNotFound(err)
	}
	s.publish(ctx, row, "completed")
	return s.toResponse(row), nil
}

func (s *Service) Delete(ctx context.Context, franchiseID, taskID uuid.UUID) error {
	row, err := s.repo.Delete(ctx, taskID, franchiseID)
	if err != nil {
		return mapNotFound(err)
	}
	s.publish(ctx, row, "deleted")
	return nil
}

func (s *Service) publish(ctx context.Context, row repository.Task, change string) {
	s.bus.Publish(ctx, events.TaskChanged{
		BaseEvent:   events.NewBaseEvent(),
		TaskID:      row.ID,
		FranchiseID: row.FranchiseID,
		LeadID:      row.LeadID,
		Change:      change,
	})
}

func (s *Service) toResponse(row repository.Task) transport.TaskResponse {
	overdue := row.Status == domain.StatusPending && row.DueDate != nil && row.DueDate.Before(s.now())
	return transport.TaskResponse{
		ID:          row.ID,
		LeadID:      row.LeadID,
		Title:       row.Title,
		Description: row.Description,
		DueDate:     row.DueDate,
		Status:      row.Status,
		Type:        row.Type,
		Outcome:     row.Outcome,
		Overdue:     overdue,
		CreatedAt:   row.CreatedAt,
		CompletedAt: row.CompletedAt,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgTaskNotFound)
	}
	return err
}
