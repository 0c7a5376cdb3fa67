// Package notification reacts to domain events: it schedules and delivers
// tour reminders over email and SMS, and pushes revalidation hints to
// connected dashboards. Domain modules never talk to providers directly.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dojoflow_backend/internal/email"
	"dojoflow_backend/internal/events"
	apphttp "dojoflow_backend/internal/http"
	notifhandler "dojoflow_backend/internal/notification/handler"
	"dojoflow_backend/internal/notification/sse"
	"dojoflow_backend/internal/sms"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/phone"
	"dojoflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const tourStatusScheduled = "scheduled"

// ErrReminderNotFound is returned by a ReminderReader when the tour is gone.
var ErrReminderNotFound = errors.New("tour reminder target not found")

// TourReminderDetails is the resolved view of a tour at reminder time.
// ScheduledAt is already converted to the franchise's local time.
type TourReminderDetails struct {
	TourID        uuid.UUID
	FranchiseID   uuid.UUID
	Status        string
	ScheduledAt   time.Time
	FranchiseName string
	GuardianName  string
	Email         string
	Phone         string
	CheckInURL    string
}

// ReminderReader loads reminder details for a tour.
type ReminderReader interface {
	GetTourReminder(ctx context.Context, tourID uuid.UUID) (*TourReminderDetails, error)
}

// ReminderScheduler enqueues a delayed reminder job.
type ReminderScheduler interface {
	ScheduleTourReminder(ctx context.Context, tourID, franchiseID uuid.UUID, runAt time.Time) error
}

type Options struct {
	// ReminderLead is how long before the tour the reminder fires.
	ReminderLead time.Duration
	PhoneRegion  string
}

// Module handles all notification-related event subscriptions.
type Module struct {
	email     email.Sender
	sms       sms.Sender
	sse       *sse.Service
	reminders ReminderReader
	scheduler ReminderScheduler
	opts      Options
	handler   *notifhandler.HTTPHandler
	log       *logger.Logger
	now       func() time.Time
}

func New(emailSender email.Sender, smsSender sms.Sender, hub *sse.Service, reminders ReminderReader, opts Options, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		email:     emailSender,
		sms:       smsSender,
		sse:       hub,
		reminders: reminders,
		opts:      opts,
		handler:   notifhandler.NewHTTPHandler(emailSender, smsSender, val, opts.PhoneRegion, log),
		log:       log,
		now:       time.Now,
	}
}

// SetReminderScheduler wires the job queue. Without one, tour reminders are
// not scheduled.
func (m *Module) SetReminderScheduler(s ReminderScheduler) { m.scheduler = s }

// SSE returns the dashboard event hub.
func (m *Module) SSE() *sse.Service { return m.sse }

func (m *Module) Name() string { return "notification" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Managers.Group("/notifications"))
	ctx.Franchise.GET("/events", m.sse.Handler(sseUserID, sseFranchiseID))
}

func sseUserID(c *gin.Context) (uuid.UUID, bool) {
	id := httpkit.GetIdentity(c)
	if id == nil || !id.IsAuthenticated() {
		return uuid.UUID{}, false
	}
	return id.UserID(), true
}

func sseFranchiseID(c *gin.Context) (uuid.UUID, bool) {
	id, _, ok := httpkit.Franchise(c)
	return id, ok
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	events.SubscribeAll(bus, m,
		events.TourBooked{},
		events.TourReminderDue{},
		events.TourStatusChanged{},
		events.LeadCreated{},
		events.LeadStatusChanged{},
		events.TaskChanged{},
		events.StudentPromoted{},
		events.CacheRevalidate{},
	)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.TourBooked:
		m.sse.Revalidate(e.FranchiseID, "/tours")
		return m.handleTourBooked(ctx, e)
	case events.TourReminderDue:
		return m.handleTourReminderDue(ctx, e)
	case events.TourStatusChanged:
		m.sse.Revalidate(e.FranchiseID, "/tours")
		m.sse.Revalidate(e.FranchiseID, "/pipeline")
	case events.LeadCreated:
		m.sse.Revalidate(e.FranchiseID, "/leads")
	case events.LeadStatusChanged:
		m.sse.Revalidate(e.FranchiseID, "/leads")
		m.sse.Revalidate(e.FranchiseID, "/pipeline")
	case events.TaskChanged:
		m.sse.Revalidate(e.FranchiseID, "/tasks")
	case events.StudentPromoted:
		m.sse.Revalidate(e.FranchiseID, "/students")
	case events.CacheRevalidate:
		m.sse.Revalidate(e.FranchiseID, e.Path)
	default:
		m.log.With(events.LogAttrs(event)...).Warn("unhandled event type")
	}
	return nil
}

func (m *Module) handleTourBooked(ctx context.Context, e events.TourBooked) error {
	if m.scheduler == nil {
		return nil
	}
	runAt := e.ScheduledAt.Add(-m.opts.ReminderLead)
	if !runAt.After(m.now()) {
		m.log.Info("tour reminder skipped, too close to tour", "tourId", e.TourID)
		return nil
	}
	if err := m.scheduler.ScheduleTourReminder(ctx, e.TourID, e.FranchiseID, runAt); err != nil {
		m.log.SideEffectFailed("schedule tour reminder", err, "tourId", e.TourID)
		return err
	}
	return nil
}

func (m *Module) handleTourReminderDue(ctx context.Context, e events.TourReminderDue) error {
	log := m.log.WithContext(ctx).With("tourId", e.TourID)

	details, err := m.reminders.GetTourReminder(ctx, e.TourID)
	if errors.Is(err, ErrReminderNotFound) {
		log.Info("tour reminder skipped, tour no longer exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load tour reminder: %w", err)
	}
	if details.FranchiseID != e.FranchiseID {
		log.Warn("tour reminder franchise mismatch", "franchiseId", e.FranchiseID)
		return nil
	}
	if details.Status != tourStatusScheduled {
		log.Info("tour reminder skipped", "status", details.Status)
		return nil
	}

	var errs []error
	if details.Email != "" {
		reminder := email.TourReminder{
			GuardianName:  details.GuardianName,
			FranchiseName: details.FranchiseName,
			ScheduledAt:   details.ScheduledAt,
			CheckInURL:    details.CheckInURL,
		}
		if err := m.email.SendTourReminderEmail(ctx, details.Email, reminder); err != nil {
			log.SideEffectFailed("send tour reminder email", err)
			errs = append(errs, err)
		}
	}
	if details.Phone != "" {
		number := phone.NormalizeE164(details.Phone, m.opts.PhoneRegion)
		if err := m.sms.SendSMS(ctx, []string{number}, tourReminderSMS(details)); err != nil {
			log.SideEffectFailed("send tour reminder sms", err)
			errs = append(errs, err)
		}
	}
	if details.Email == "" && details.Phone == "" {
		log.Info("tour reminder skipped, guardian has no contact details")
	}
	return errors.Join(errs...)
}

func tourReminderSMS(d *TourReminderDetails) string {
	greeting := "Hi"
	if d.GuardianName != "" {
		greeting = "Hi " + d.GuardianName
	}
	return fmt.Sprintf("%s, this is a reminder of your tour at %s on %s.",
		greeting, d.FranchiseName, d.ScheduledAt.Format("Mon Jan 2 at 3:04 PM"))
}

var _ apphttp.Module = (*Module)(nil)
