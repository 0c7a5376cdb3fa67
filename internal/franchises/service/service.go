// Package service implements franchise lookups, settings management and the
// pipeline dashboard.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"dojoflow_backend/internal/franchises/domain"
	"dojoflow_backend/internal/franchises/repository"
	"dojoflow_backend/internal/franchises/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const msgFranchiseNotFound = "Franchise not found"

// Repository is the storage the service needs.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (repository.Franchise, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Franchise, error)
	List(ctx context.Context, ids []uuid.UUID) ([]repository.Franchise, error)
	Create(ctx context.Context, f repository.Franchise) (repository.Franchise, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings json.RawMessage) (repository.Franchise, error)
	CountLeadsByStatus(ctx context.Context, franchiseID uuid.UUID) (map[string]int, error)
	CountOpenTasks(ctx context.Context, franchiseID uuid.UUID, now time.Time) (int, int, error)
	CountUpcomingTours(ctx context.Context, franchiseID uuid.UUID, from, to time.Time) (int, error)
}

// DefaultsInstaller seeds the starter automations of a new franchise.
type DefaultsInstaller interface {
	InstallDefaults(ctx context.Context, franchiseID uuid.UUID) (int, error)
}

// Franchise is the resolved franchise handed to other modules.
type Franchise struct {
	ID       uuid.UUID
	Name     string
	Slug     string
	Settings domain.Settings
}

type Service struct {
	repo      Repository
	installer DefaultsInstaller
	log       *logger.Logger
	now       func() time.Time
}

func New(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// SetDefaultsInstaller wires the automation defaults installer.
func (s *Service) SetDefaultsInstaller(installer DefaultsInstaller) {
	s.installer = installer
}

// ResolveSlug maps a slug to a franchise id for route scoping.
func (s *Service) ResolveSlug(ctx context.Context, slug string) (uuid.UUID, error) {
	f, err := s.Lookup(ctx, slug)
	if err != nil {
		return uuid.UUID{}, err
	}
	return f.ID, nil
}

// Lookup returns the franchise with parsed settings.
func (s *Service) Lookup(ctx context.Context, slug string) (Franchise, error) {
	row, err := s.repo.GetBySlug(ctx, normalizeSlug(slug))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Franchise{}, apperr.NotFound(msgFranchiseNotFound)
		}
		return Franchise{}, err
	}
	return toFranchise(row, s.log), nil
}

// LookupByID returns the franchise with parsed settings.
func (s *Service) LookupByID(ctx context.Context, id uuid.UUID) (Franchise, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Franchise{}, apperr.NotFound(msgFranchiseNotFound)
		}
		return Franchise{}, err
	}
	return toFranchise(row, s.log), nil
}

func toFranchise(row repository.Franchise, log *logger.Logger) Franchise {
	settings, err := domain.ParseSettings(row.Settings)
	if err != nil && log != nil {
		log.Warn("franchise settings unreadable, using defaults", "franchiseId", row.ID, "error", err)
	}
	return Franchise{ID: row.ID, Name: row.Name, Slug: row.Slug, Settings: settings}
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (transport.FranchiseResponse, error) {
	row, err := s.repo.GetBySlug(ctx, normalizeSlug(slug))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.FranchiseResponse{}, apperr.NotFound(msgFranchiseNotFound)
		}
		return transport.FranchiseResponse{}, err
	}
	return toResponse(row), nil
}

// List returns every franchise for admins, otherwise only the caller's own.
func (s *Service) List(ctx context.Context, isAdmin bool, tenantID *uuid.UUID) (transport.FranchiseListResponse, error) {
	var ids []uuid.UUID
	if !isAdmin {
		if tenantID == nil {
			return transport.FranchiseListResponse{Items: []transport.FranchiseResponse{}}, nil
		}
		ids = []uuid.UUID{*tenantID}
	}

	rows, err := s.repo.List(ctx, ids)
	if err != nil {
		return transport.FranchiseListResponse{}, err
	}
	items := make([]transport.FranchiseResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toResponse(row))
	}
	return transport.FranchiseListResponse{Items: items}, nil
}

// Create onboards a franchise and installs its starter automations.
func (s *Service) Create(ctx context.Context, req transport.CreateFranchiseRequest) (transport.FranchiseResponse, error) {
	settings := req.Settings
	if len(settings) > 0 {
		if err := validateSettings(settings); err != nil {
			return transport.FranchiseResponse{}, err
		}
	}

	row, err := s.repo.Create(ctx, repository.Franchise{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.Name),
		Slug:     normalizeSlug(req.Slug),
		Settings: settings,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return transport.FranchiseResponse{}, apperr.Conflict("franchise slug already exists")
		}
		return transport.FranchiseResponse{}, err
	}

	if s.installer != nil {
		if n, err := s.installer.InstallDefaults(ctx, row.ID); err != nil {
			s.log.SideEffectFailed("franchises.install_default_automations", err, "franchiseId", row.ID)
		} else {
			s.log.Info("installed default automations", "franchiseId", row.ID, "count", n)
		}
	}

	return toResponse(row), nil
}

// UpdateSettings replaces the settings bag after validating its known keys.
func (s *Service) UpdateSettings(ctx context.Context, franchiseID uuid.UUID, raw json.RawMessage) (transport.FranchiseResponse, error) {
	if err := validateSettings(raw); err != nil {
		return transport.FranchiseResponse{}, err
	}

	row, err := s.repo.UpdateSettings(ctx, franchiseID, raw)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.FranchiseResponse{}, apperr.NotFound(msgFranchiseNotFound)
		}
		return transport.FranchiseResponse{}, err
	}
	return toResponse(row), nil
}

func validateSettings(raw json.RawMessage) error {
	if err := settingsSchema.ValidateJSON(raw); err != nil {
		return err
	}
	parsed, err := domain.ParseSettings(raw)
	if err != nil {
		return apperr.Validation("invalid settings")
	}
	if parsed.Timezone != "" {
		if _, err := time.LoadLocation(parsed.Timezone); err != nil {
			return apperr.Validation("unknown timezone " + parsed.Timezone)
		}
	}
	if err := parsed.OperatingHours.Validate(); err != nil {
		return apperr.Validation("invalid operating hours: " + err.Error())
	}
	return nil
}

// Pipeline loads the dashboard counters concurrently.
func (s *Service) Pipeline(ctx context.Context, franchiseID uuid.UUID) (transport.PipelineResponse, error) {
	now := s.now()
	resp := transport.PipelineResponse{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.CountLeadsByStatus(gctx, franchiseID)
		resp.LeadsByStatus = counts
		return err
	})
	g.Go(func() error {
		pending, overdue, err := s.repo.CountOpenTasks(gctx, franchiseID, now)
		resp.PendingTasks, resp.OverdueTasks = pending, overdue
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountUpcomingTours(gctx, franchiseID, now, now.AddDate(0, 0, 7))
		resp.ToursThisWeek = n
		return err
	})

	if err := g.Wait(); err != nil {
		return transport.PipelineResponse{}, err
	}
	if resp.LeadsByStatus == nil {
		resp.LeadsByStatus = map[string]int{}
	}
	return resp, nil
}

// Session describes the caller for the UI. viewAs only toggles the read-only
// presentation; access checks never read it.
func Session(userID uuid.UUID, roles []string, franchiseID uuid.UUID, viewAs string) transport.SessionResponse {
	readOnly := false
	if viewAs != "" {
		readOnly = viewAs != "owner" && viewAs != "manager" && viewAs != "admin"
	}
	return transport.SessionResponse{
		UserID:    userID,
		Roles:     roles,
		ViewAs:    viewAs,
		ReadOnly:  readOnly,
		Franchise: franchiseID,
	}
}

func toResponse(row repository.Franchise) transport.FranchiseResponse {
	settings := row.Settings
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}
	return transport.FranchiseResponse{
		ID:        row.ID,
		Name:      row.Name,
		Slug:      row.Slug,
		Settings:  settings,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
