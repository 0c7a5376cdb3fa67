// Package lifecycle owns the lead status machine: intake of new leads, status
// changes and the follow-up tasks and automations each change sets off.
package lifecycle

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/internal/leads/domain"
	"dojoflow_backend/internal/leads/repository"
	"dojoflow_backend/internal/leads/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/metrics"
	"dojoflow_backend/platform/phone"
	"dojoflow_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgLeadNotFound        = "Lead not found"
	msgStatusUpdateFailed  = "Failed to update lead status"
	msgLeadInsertFailed    = "Failed to create lead record"
	msgGuardianInsertFail  = "Failed to create guardian record"
	msgStudentInsertFailed = "Failed to create student record"
	msgInvalidStatus       = "invalid lead status"

	triggerLeadCreated   = "lead_created"
	triggerStatusChanged = "status_changed"

	defaultPageSize = 20
)

// Scope is the franchise an operation runs in. Slug may be empty for
// background callers; it only drives UI revalidation.
type Scope struct {
	FranchiseID uuid.UUID
	Slug        string
}

type NewGuardian struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type NewStudent struct {
	FirstName       string
	LastName        string
	DOB             *time.Time
	ProgramInterest []string
}

// NewLead is the intake payload for a lead, its guardian and children.
type NewLead struct {
	Source   string
	Notes    string
	Guardian NewGuardian
	Students []NewStudent
}

type Service struct {
	repo        Repository
	tasks       TaskWriter
	automations AutomationRunner
	bus         events.Bus
	log         *logger.Logger
	phoneRegion string
	now         func() time.Time
}

func New(repo Repository, tasks TaskWriter, automations AutomationRunner, bus events.Bus, phoneRegion string, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		tasks:       tasks,
		automations: automations,
		bus:         bus,
		log:         log,
		phoneRegion: phoneRegion,
		now:         time.Now,
	}
}

// CreateLeadChain stores a lead with its guardian and students atomically and
// fires lead_created. No follow-up tasks are created.
func (s *Service) CreateLeadChain(ctx context.Context, scope Scope, in NewLead) (repository.LeadChain, error) {
	params := repository.CreateLeadChainParams{
		FranchiseID: scope.FranchiseID,
		Source:      optional(sanitize.Text(in.Source)),
		Notes:       optional(sanitize.Text(in.Notes)),
		Guardian: repository.Guardian{
			FirstName: sanitize.Text(in.Guardian.FirstName),
			LastName:  sanitize.Text(in.Guardian.LastName),
			Email:     optional(strings.ToLower(strings.TrimSpace(in.Guardian.Email))),
			Phone:     optional(phone.NormalizeE164(in.Guardian.Phone, s.phoneRegion)),
		},
	}
	for _, st := range in.Students {
		params.Students = append(params.Students, repository.Student{
			FirstName:       sanitize.Text(st.FirstName),
			LastName:        sanitize.Text(st.LastName),
			DOB:             st.DOB,
			ProgramInterest: normalizePrograms(st.ProgramInterest),
		})
	}

	chain, err := s.repo.CreateLeadChain(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStudentInsert):
			return repository.LeadChain{}, apperr.Wrap(apperr.KindInternal, msgStudentInsertFailed, err)
		case errors.Is(err, repository.ErrGuardianInsert):
			return repository.LeadChain{}, apperr.Wrap(apperr.KindInternal, msgGuardianInsertFail, err)
		default:
			return repository.LeadChain{}, apperr.Wrap(apperr.KindInternal, msgLeadInsertFailed, err)
		}
	}

	s.automations.RunAutomations(ctx, AutomationRun{
		Trigger:       triggerLeadCreated,
		FranchiseID:   scope.FranchiseID,
		LeadID:        chain.Lead.ID,
		FranchiseSlug: scope.Slug,
	})

	source := ""
	if chain.Lead.Source != nil {
		source = *chain.Lead.Source
	}
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      chain.Lead.ID,
		FranchiseID: scope.FranchiseID,
		Source:      source,
	})

	return chain, nil
}

// CreateLead runs intake: the transactional chain, lead_created automations,
// then the three default follow-up tasks.
func (s *Service) CreateLead(ctx context.Context, scope Scope, in NewLead) (repository.LeadChain, error) {
	chain, err := s.CreateLeadChain(ctx, scope, in)
	if err != nil {
		return repository.LeadChain{}, err
	}

	now := s.now()
	for _, f := range domain.IntakeFollowUps {
		task := NewTask{
			FranchiseID: scope.FranchiseID,
			LeadID:      chain.Lead.ID,
			Title:       f.Title,
			Type:        f.Type,
			DueDate:     now.Add(f.Delay),
		}
		if err := s.tasks.InsertTask(ctx, task); err != nil {
			s.sideEffectFailed(ctx, "leads.create_default_task", err, "leadId", chain.Lead.ID, "title", f.Title)
		}
	}

	return chain, nil
}

// ChangeLeadStatus moves a lead to newStatus. Pending tasks are cleared before
// the write; automations and follow-up tasks after it are best-effort. A lead
// whose franchise cannot be resolved still gets the status write.
func (s *Service) ChangeLeadStatus(ctx context.Context, leadID uuid.UUID, newStatus domain.Status, franchiseSlug string) error {
	if !newStatus.Valid() {
		return apperr.Validation(msgInvalidStatus)
	}

	franchiseID, resolved := s.resolveFranchise(ctx, leadID)

	if err := s.tasks.DeletePendingTasksForLead(ctx, leadID); err != nil {
		s.sideEffectFailed(ctx, "leads.delete_pending_tasks", err, "leadId", leadID)
	}

	if err := s.repo.UpdateLeadStatus(ctx, leadID, string(newStatus)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgLeadNotFound)
		}
		return apperr.Wrap(apperr.KindInternal, msgStatusUpdateFailed, err)
	}
	metrics.LeadStatusChanged(string(newStatus))

	if !resolved {
		return nil
	}

	status := string(newStatus)
	run := AutomationRun{
		Trigger:       triggerStatusChanged,
		FranchiseID:   franchiseID,
		LeadID:        leadID,
		NewStatus:     &status,
		FranchiseSlug: franchiseSlug,
	}
	s.automations.RunAutomations(ctx, run)

	if trigger, ok := newStatus.SpecificTrigger(); ok {
		run.Trigger = trigger
		s.automations.RunAutomations(ctx, run)
	}

	if f, ok := domain.FollowUpFor(newStatus); ok {
		task := NewTask{
			FranchiseID: franchiseID,
			LeadID:      leadID,
			Title:       f.Title,
			Type:        f.Type,
			DueDate:     s.now().Add(f.Delay),
		}
		if err := s.tasks.InsertTask(ctx, task); err != nil {
			s.sideEffectFailed(ctx, "leads.create_status_task", err, "leadId", leadID, "status", status)
		}
	}

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      leadID,
		FranchiseID: franchiseID,
		NewStatus:   status,
	})
	return nil
}

// WriteStatus stores a status without clearing tasks or firing automations.
// Tour booking uses it and runs its own side effects.
func (s *Service) WriteStatus(ctx context.Context, franchiseID, leadID uuid.UUID, newStatus domain.Status) error {
	if !newStatus.Valid() {
		return apperr.Validation(msgInvalidStatus)
	}
	if err := s.repo.UpdateLeadStatus(ctx, leadID, string(newStatus)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(msgLeadNotFound)
		}
		return apperr.Wrap(apperr.KindInternal, msgStatusUpdateFailed, err)
	}
	metrics.LeadStatusChanged(string(newStatus))

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      leadID,
		FranchiseID: franchiseID,
		NewStatus:   string(newStatus),
	})
	return nil
}

func (s *Service) resolveFranchise(ctx context.Context, leadID uuid.UUID) (uuid.UUID, bool) {
	franchiseID, err := s.repo.GetLeadFranchiseID(ctx, leadID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.WithContext(ctx).DatabaseError("leads.get_franchise_id", err)
		}
		return uuid.UUID{}, false
	}
	return franchiseID, true
}

// UpdateStatus is ChangeLeadStatus for a lead that must belong to scope.
func (s *Service) UpdateStatus(ctx context.Context, scope Scope, leadID uuid.UUID, req transport.ChangeStatusRequest) (transport.LeadResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID, scope.FranchiseID); err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	if err := s.ChangeLeadStatus(ctx, leadID, domain.Status(req.Status), scope.Slug); err != nil {
		return transport.LeadResponse{}, err
	}
	return s.Get(ctx, scope.FranchiseID, leadID)
}

// Create validates the request payload and runs CreateLead.
func (s *Service) Create(ctx context.Context, scope Scope, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	in := NewLead{
		Source: req.Source,
		Notes:  req.Notes,
		Guardian: NewGuardian{
			FirstName: req.Guardian.FirstName,
			LastName:  req.Guardian.LastName,
			Email:     deref(req.Guardian.Email),
			Phone:     deref(req.Guardian.Phone),
		},
	}
	for _, st := range req.Students {
		dob, err := parseDate(st.DOB)
		if err != nil {
			return transport.LeadResponse{}, apperr.Validation("invalid date of birth")
		}
		in.Students = append(in.Students, NewStudent{
			FirstName:       st.FirstName,
			LastName:        st.LastName,
			DOB:             dob,
			ProgramInterest: st.ProgramInterest,
		})
	}

	chain, err := s.CreateLead(ctx, scope, in)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(chain), nil
}

func (s *Service) Get(ctx context.Context, franchiseID, leadID uuid.UUID) (transport.LeadResponse, error) {
	chain, err := s.repo.GetChain(ctx, leadID, &franchiseID)
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	return toLeadResponse(chain), nil
}

func (s *Service) Update(ctx context.Context, franchiseID, leadID uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	_, err := s.repo.Update(ctx, leadID, franchiseID, repository.UpdateLeadParams{
		Source: sanitize.TextPtr(req.Source),
		Notes:  sanitize.TextPtr(req.Notes),
	})
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	return s.Get(ctx, franchiseID, leadID)
}

func (s *Service) Delete(ctx context.Context, franchiseID, leadID uuid.UUID) error {
	return mapNotFound(s.repo.Delete(ctx, leadID, franchiseID))
}

func (s *Service) List(ctx context.Context, franchiseID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		FranchiseID: franchiseID,
		Search:      req.Search,
		Offset:      (page - 1) * pageSize,
		Limit:       pageSize,
	}
	if req.Status != "" {
		params.Status = &req.Status
	}

	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, transport.LeadListItem{
			ID:            row.ID,
			Status:        row.Status,
			Source:        row.Source,
			GuardianName:  row.GuardianName,
			GuardianEmail: row.GuardianEmail,
			GuardianPhone: row.GuardianPhone,
			StudentCount:  row.StudentCount,
			CreatedAt:     row.CreatedAt,
		})
	}

	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (s *Service) sideEffectFailed(ctx context.Context, op string, err error, args ...any) {
	metrics.SideEffectFailed(op)
	s.log.WithContext(ctx).SideEffectFailed(op, err, args...)
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound)
	}
	return err
}

func toLeadResponse(chain repository.LeadChain) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:          chain.Lead.ID,
		FranchiseID: chain.Lead.FranchiseID,
		Status:      chain.Lead.Status,
		Source:      chain.Lead.Source,
		Notes:       chain.Lead.Notes,
		CreatedAt:   chain.Lead.CreatedAt,
		UpdatedAt:   chain.Lead.UpdatedAt,
	}
	if g := chain.Guardian; g != nil {
		resp.Guardian = &transport.GuardianResponse{
			ID:        g.ID,
			FirstName: g.FirstName,
			LastName:  g.LastName,
			Email:     g.Email,
			Phone:     g.Phone,
		}
	}
	for _, st := range chain.Students {
		resp.Students = append(resp.Students, transport.StudentResponse{
			ID:              st.ID,
			FirstName:       st.FirstName,
			LastName:        st.LastName,
			DOB:             st.DOB,
			ProgramInterest: st.ProgramInterest,
			CurrentBelt:     st.CurrentBelt,
		})
	}
	return resp
}

func normalizePrograms(programs []string) []string {
	out := make([]string, 0, len(programs))
	seen := make(map[string]struct{}, len(programs))
	for _, p := range programs {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
