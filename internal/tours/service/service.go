// Package service implements tour booking and the tour follow-up operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/internal/tours/domain"
	"dojoflow_backend/internal/tours/repository"
	"dojoflow_backend/internal/tours/transport"
	"dojoflow_backend/platform/apperr"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/metrics"
	"dojoflow_backend/platform/sanitize"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	msgTourNotFound      = "Tour not found"
	msgLeadNotFound      = "Lead not found"
	msgLeadRequired      = "Select or create a lead before booking."
	msgTourInsertFailed  = "Failed to create tour"
	msgBookedPartial     = "Tour booked, but failed to update lead status."
	msgCompletedPartial  = "Tour updated, but failed to update lead status."
	msgInvalidStatus     = "invalid tour status"
	msgInvalidChildDOB   = "invalid child date of birth"
	msgInvalidTimeFilter = "invalid time filter"

	leadStatusTourBooked = "tour_booked"
	triggerStatusChanged = "status_changed"
	triggerTourBooked    = "tour_booked"

	defaultListLimit = 200
	qrSize           = 256
)

// Options are the regional defaults the service applies.
type Options struct {
	// DefaultLocation is used for franchises without a timezone.
	DefaultLocation *time.Location
	// AppBaseURL prefixes check-in links encoded in QR codes.
	AppBaseURL string
}

type Service struct {
	repo        Repository
	franchises  FranchiseReader
	leads       LeadGateway
	tasks       TaskCreator
	automations AutomationRunner
	bus         events.Bus
	opts        Options
	log         *logger.Logger
}

func New(repo Repository, franchises FranchiseReader, leads LeadGateway, tasks TaskCreator, automations AutomationRunner, bus events.Bus, opts Options, log *logger.Logger) *Service {
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	return &Service{
		repo:        repo,
		franchises:  franchises,
		leads:       leads,
		tasks:       tasks,
		automations: automations,
		bus:         bus,
		opts:        opts,
		log:         log,
	}
}

// BookTour checks the requested time against the franchise's hours, creates
// the lead inline when asked to, stores the tour and moves the lead to
// tour_booked. Once the tour row exists, only a failed status write is
// reported, as a partial error.
func (s *Service) BookTour(ctx context.Context, franchiseSlug string, req transport.BookTourRequest) (transport.BookTourResponse, error) {
	franchise, err := s.franchises.GetFranchise(ctx, franchiseSlug)
	if err != nil {
		return transport.BookTourResponse{}, err
	}

	local := req.ScheduledAt.In(franchise.Settings.Location(s.opts.DefaultLocation))
	if err := franchise.Settings.EffectiveHours().CheckTourTime(local); err != nil {
		metrics.TourBooking("outside_hours")
		return transport.BookTourResponse{}, err
	}

	leadID, created, err := s.resolveLead(ctx, franchise, req)
	if err != nil {
		metrics.TourBooking("lead_failed")
		return transport.BookTourResponse{}, err
	}

	tour, err := s.repo.Insert(ctx, repository.Tour{
		ID:          uuid.New(),
		FranchiseID: franchise.ID,
		LeadID:      leadID,
		ScheduledAt: req.ScheduledAt.UTC(),
		Status:      string(domain.StatusScheduled),
		Notes:       optional(sanitize.Text(req.Notes)),
	})
	if err != nil {
		metrics.TourBooking("failed")
		return transport.BookTourResponse{}, apperr.Wrap(apperr.KindInternal, msgTourInsertFailed, err)
	}

	resp := transport.BookTourResponse{Tour: toResponse(tour, nil), LeadID: leadID, LeadCreated: created}

	if err := s.leads.MarkTourBooked(ctx, franchise.ID, leadID); err != nil {
		s.log.WithContext(ctx).Error("tour booked without lead status update", "tourId", tour.ID, "leadId", leadID, "error", err)
		metrics.TourBooking("partial")
		s.publishBooked(ctx, tour)
		return resp, apperr.Wrap(apperr.KindPartial, msgBookedPartial, err).
			WithDetails(transport.PartialBookingDetails{TourID: tour.ID, LeadID: leadID})
	}

	if err := s.tasks.CreateTourTask(ctx, TourTask{
		FranchiseID: franchise.ID,
		LeadID:      leadID,
		Title:       domain.ScheduledTaskTitle(local),
		DueDate:     tour.ScheduledAt,
	}); err != nil {
		s.log.WithContext(ctx).SideEffectFailed("tours.create_task", err, "tourId", tour.ID)
		metrics.SideEffectFailed("tours.create_task")
	}

	status := leadStatusTourBooked
	run := TriggerRun{
		Trigger:       triggerStatusChanged,
		FranchiseID:   franchise.ID,
		LeadID:        leadID,
		NewStatus:     &status,
		FranchiseSlug: franchise.Slug,
	}
	s.automations.RunAutomations(ctx, run)
	run.Trigger = triggerTourBooked
	s.automations.RunAutomations(ctx, run)

	s.publishBooked(ctx, tour)
	metrics.TourBooking("booked")
	return resp, nil
}

func (s *Service) resolveLead(ctx context.Context, franchise Franchise, req transport.BookTourRequest) (uuid.UUID, bool, error) {
	if req.LeadID != nil && *req.LeadID != uuid.Nil {
		ok, err := s.leads.LeadInFranchise(ctx, franchise.ID, *req.LeadID)
		if err != nil {
			return uuid.Nil, false, err
		}
		if !ok {
			return uuid.Nil, false, apperr.NotFound(msgLeadNotFound)
		}
		return *req.LeadID, false, nil
	}

	if req.NewLead == nil {
		return uuid.Nil, false, apperr.Validation(msgLeadRequired)
	}

	in, err := newLeadFromRequest(req.NewLead)
	if err != nil {
		return uuid.Nil, false, err
	}
	leadID, err := s.leads.CreateLead(ctx, franchise, in)
	if err != nil {
		return uuid.Nil, false, err
	}
	if leadID == uuid.Nil {
		return uuid.Nil, false, apperr.Validation(msgLeadRequired)
	}
	return leadID, true, nil
}

// newLeadFromRequest turns the booking form into a lead chain with one
// student per child.
func newLeadFromRequest(in *transport.NewLeadInput) (NewLead, error) {
	lead := NewLead{
		Source: domain.BookingSource,
		Guardian: NewGuardian{
			FirstName: in.Guardian.FirstName,
			LastName:  in.Guardian.LastName,
			Email:     deref(in.Guardian.Email),
			Phone:     deref(in.Guardian.Phone),
		},
	}

	summary := make([]domain.Child, 0, len(in.Children))
	for _, c := range in.Children {
		first, last := domain.SplitName(c.Name)
		child := NewChild{FirstName: first, LastName: last, Programs: c.ProgramInterest}
		if c.DOB != nil && *c.DOB != "" {
			dob, err := time.Parse("2006-01-02", *c.DOB)
			if err != nil {
				return NewLead{}, apperr.Validation(msgInvalidChildDOB)
			}
			child.DOB = &dob
		}
		lead.Children = append(lead.Children, child)
		summary = append(summary, domain.Child{Name: c.Name, Programs: c.ProgramInterest})
	}
	lead.Notes = domain.ChildrenSummary(summary)
	return lead, nil
}

func (s *Service) publishBooked(ctx context.Context, tour repository.Tour) {
	s.bus.Publish(ctx, events.TourBooked{
		BaseEvent:   events.NewBaseEvent(),
		TourID:      tour.ID,
		LeadID:      tour.LeadID,
		FranchiseID: tour.FranchiseID,
		ScheduledAt: tour.ScheduledAt,
	})
}

// UpdateTourStatus records the tour outcome. Completing a tour moves the lead
// to tour_completed through the lifecycle.
func (s *Service) UpdateTourStatus(ctx context.Context, franchiseID uuid.UUID, franchiseSlug string, id uuid.UUID, req transport.UpdateTourStatusRequest) (transport.TourResponse, error) {
	status := domain.Status(req.Status)
	if !status.Valid() {
		return transport.TourResponse{}, apperr.Validation(msgInvalidStatus)
	}

	tour, err := s.repo.UpdateStatus(ctx, id, franchiseID, string(status))
	if err != nil {
		return transport.TourResponse{}, mapNotFound(err)
	}

	s.bus.Publish(ctx, events.TourStatusChanged{
		BaseEvent:   events.NewBaseEvent(),
		TourID:      tour.ID,
		LeadID:      tour.LeadID,
		FranchiseID: tour.FranchiseID,
		Status:      tour.Status,
	})

	resp := toResponse(tour, nil)
	if status == domain.StatusCompleted {
		if err := s.leads.MarkTourCompleted(ctx, tour.LeadID, franchiseSlug); err != nil {
			return resp, apperr.Wrap(apperr.KindPartial, msgCompletedPartial, err).
				WithDetails(transport.PartialBookingDetails{TourID: tour.ID, LeadID: tour.LeadID})
		}
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context, franchiseID uuid.UUID, req transport.ListToursRequest) (transport.TourListResponse, error) {
	params := repository.ListParams{FranchiseID: franchiseID, Limit: req.Limit}
	if params.Limit == 0 {
		params.Limit = defaultListLimit
	}
	if req.Status != "" {
		params.Status = &req.Status
	}
	if req.LeadID != "" {
		leadID, err := uuid.Parse(req.LeadID)
		if err != nil {
			return transport.TourListResponse{}, apperr.Validation("invalid lead id")
		}
		params.LeadID = &leadID
	}
	var err error
	if params.From, err = parseTime(req.From); err != nil {
		return transport.TourListResponse{}, err
	}
	if params.To, err = parseTime(req.To); err != nil {
		return transport.TourListResponse{}, err
	}

	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.TourListResponse{}, err
	}
	items := make([]transport.TourResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toResponse(row.Tour, row.GuardianName))
	}
	return transport.TourListResponse{Items: items}, nil
}

// CheckInURL is the link staff scan to check a visitor in.
func (s *Service) CheckInURL(franchiseSlug string, tourID uuid.UUID) string {
	return CheckInURL(s.opts.AppBaseURL, franchiseSlug, tourID)
}

// CheckInURL builds the check-in link under baseURL.
func CheckInURL(baseURL, franchiseSlug string, tourID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/tours/%s/check-in", strings.TrimRight(baseURL, "/"), franchiseSlug, tourID)
}

// CheckInQR renders the check-in link of a tour as a PNG QR code.
func (s *Service) CheckInQR(ctx context.Context, franchiseID uuid.UUID, franchiseSlug string, id uuid.UUID) ([]byte, error) {
	tour, err := s.repo.Get(ctx, id, franchiseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	png, err := qrcode.Encode(s.CheckInURL(franchiseSlug, tour.ID), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func toResponse(t repository.Tour, guardianName *string) transport.TourResponse {
	return transport.TourResponse{
		ID:           t.ID,
		LeadID:       t.LeadID,
		ScheduledAt:  t.ScheduledAt,
		Status:       t.Status,
		Notes:        t.Notes,
		GuardianName: guardianName,
		CreatedAt:    t.CreatedAt,
	}
}

func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Validation(msgInvalidTimeFilter)
	}
	return &t, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgTourNotFound)
	}
	return err
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
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
