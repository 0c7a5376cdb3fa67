// Package service implements student records and belt promotions.
package service

import (
	"context"
	"errors"
	"time"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/internal/students/domain"
	"dojoflow_backend/internal/students/repository"
	"dojoflow_backend/internal/students/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgStudentNotFound   = "Student not found"
	msgPromotionFailed   = "Failed to record promotion"
	msgInvalidBelt       = "invalid belt rank"
	msgHighestBelt       = "Student already holds the highest belt"
	msgInvalidPromotedAt = "invalid promotion date"

	defaultPageSize = 25
)

type Repository interface {
	Get(ctx context.Context, id, franchiseID uuid.UUID) (repository.Student, error)
	List(ctx context.Context, p repository.ListParams) ([]repository.Student, int, error)
	ListPromotions(ctx context.Context, studentID uuid.UUID) ([]repository.Promotion, error)
	Promote(ctx context.Context, p repository.PromoteParams) (repository.Promotion, error)
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

// PromoteStudent records a belt promotion. Without an explicit belt the
// student moves one step up the ladder; without a date it is today.
func (s *Service) PromoteStudent(ctx context.Context, franchiseID, studentID uuid.UUID, req transport.PromoteRequest) (transport.PromotionResponse, error) {
	student, err := s.repo.Get(ctx, studentID, franchiseID)
	if err != nil {
		return transport.PromotionResponse{}, mapNotFound(err)
	}

	belt, err := targetBelt(student.CurrentBelt, req.BeltRank)
	if err != nil {
		return transport.PromotionResponse{}, err
	}

	promotedAt := dateOf(s.now())
	if req.PromotedAt != nil && *req.PromotedAt != "" {
		promotedAt, err = time.Parse("2006-01-02", *req.PromotedAt)
		if err != nil {
			return transport.PromotionResponse{}, apperr.Validation(msgInvalidPromotedAt)
		}
	}

	promo, err := s.repo.Promote(ctx, repository.PromoteParams{
		StudentID:   studentID,
		FranchiseID: franchiseID,
		BeltRank:    belt,
		PromotedAt:  promotedAt,
		Notes:       sanitize.TextPtr(req.Notes),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.PromotionResponse{}, apperr.NotFound(msgStudentNotFound)
		}
		return transport.PromotionResponse{}, apperr.Wrap(apperr.KindInternal, msgPromotionFailed, err)
	}

	s.log.WithContext(ctx).Info("student promoted", "studentId", studentID, "from", student.CurrentBelt, "to", belt)
	s.bus.Publish(ctx, events.StudentPromoted{
		BaseEvent:   events.NewBaseEvent(),
		StudentID:   studentID,
		FranchiseID: franchiseID,
		BeltRank:    belt,
		PromotedAt:  promotedAt,
	})
	return toPromotionResponse(promo), nil
}

func targetBelt(current, requested string) (string, error) {
	if requested == "" {
		next, ok := domain.Next(current)
		if !ok {
			return "", apperr.Validation(msgHighestBelt)
		}
		return next, nil
	}
	belt, ok := domain.Canonical(requested)
	if !ok {
		return "", apperr.Validation(msgInvalidBelt)
	}
	return belt, nil
}

func (s *Service) Get(ctx context.Context, franchiseID, studentID uuid.UUID) (transport.StudentResponse, error) {
	student, err := s.repo.Get(ctx, studentID, franchiseID)
	if err != nil {
		return transport.StudentResponse{}, mapNotFound(err)
	}
	return toStudentResponse(student), nil
}

func (s *Service) List(ctx context.Context, franchiseID uuid.UUID, req transport.ListStudentsRequest) (transport.StudentListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	belt := ""
	if req.Belt != "" {
		belt, _ = domain.Canonical(req.Belt)
	}

	rows, total, err := s.repo.List(ctx, repository.ListParams{
		FranchiseID: franchiseID,
		Search:      req.Search,
		Belt:        belt,
		Limit:       size,
		Offset:      (page - 1) * size,
	})
	if err != nil {
		return transport.StudentListResponse{}, err
	}

	items := make([]transport.StudentResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toStudentResponse(row))
	}
	return transport.StudentListResponse{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// ListPromotions returns a student's promotion history, newest first.
func (s *Service) ListPromotions(ctx context.Context, franchiseID, studentID uuid.UUID) (transport.PromotionListResponse, error) {
	if _, err := s.repo.Get(ctx, studentID, franchiseID); err != nil {
		return transport.PromotionListResponse{}, mapNotFound(err)
	}
	rows, err := s.repo.ListPromotions(ctx, studentID)
	if err != nil {
		return transport.PromotionListResponse{}, err
	}
	items := make([]transport.PromotionResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toPromotionResponse(row))
	}
	return transport.PromotionListResponse{Items: items}, nil
}

func toStudentResponse(s repository.Student) transport.StudentResponse {
	programs := s.ProgramInterest
	if programs == nil {
		programs = []string{}
	}
	return transport.StudentResponse{
		ID:                s.ID,
		LeadID:            s.LeadID,
		FirstName:         s.FirstName,
		LastName:          s.LastName,
		DOB:               s.DOB,
		ProgramInterest:   programs,
		CurrentBelt:       s.CurrentBelt,
		LastPromotionDate: s.LastPromotionDate,
		GuardianName:      s.GuardianName,
		CreatedAt:         s.CreatedAt,
	}
}

func toPromotionResponse(p repository.Promotion) transport.PromotionResponse {
	return transport.PromotionResponse{
		ID:         p.ID,
		StudentID:  p.StudentID,
		BeltRank:   p.BeltRank,
		PromotedAt: p.PromotedAt,
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt,
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgStudentNotFound)
	}
	return err
}
