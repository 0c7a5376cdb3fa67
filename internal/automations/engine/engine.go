// Package engine evaluates a franchise's automations when a lifecycle trigger
// fires and executes their actions. Every attempted action leaves one log
// row; no failure propagates to the caller.
package engine

import (
	"context"
	"fmt"
	"time"

	"dojoflow_backend/internal/automations/domain"
	"dojoflow_backend/internal/automations/repository"
	"dojoflow_backend/internal/events"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	logSuccess = "success"
	logFailed  = "failed"

	skipDuplicate         = "duplicate"
	skipInvalidConditions = "invalid_conditions"

	// actionInvalid is logged when an automation's actions cannot be decoded.
	actionInvalid = "invalid_actions"
)

// Run is one trigger firing for a lead.
type Run struct {
	Trigger     domain.Trigger
	FranchiseID uuid.UUID
	LeadID      uuid.UUID
	// NewStatus overrides the stored lead status for condition matching.
	NewStatus *string
	// FranchiseSlug, when set, triggers revalidation of /{slug}/actions after
	// a task is created.
	FranchiseSlug string
}

// LeadSnapshot is what conditions and actions read about a lead.
type LeadSnapshot struct {
	LeadID        uuid.UUID
	FranchiseID   uuid.UUID
	Status        string
	GuardianEmail string
	GuardianPhone string
	// Programs is the union of every student's program interests.
	Programs []string
}

// TaskSpec is a task requested by a create_task action.
type TaskSpec struct {
	FranchiseID uuid.UUID
	LeadID      uuid.UUID
	Title       string
	Description *string
	Type        string
}

// Store is the automation storage the engine needs.
type Store interface {
	ListActive(ctx context.Context, franchiseID uuid.UUID, trigger string) ([]repository.Automation, error)
	InsertLog(ctx context.Context, l repository.Log) error
	InsertInteraction(ctx context.Context, i repository.Interaction) error
}

// LeadReader loads lead snapshots. A missing lead yields (nil, nil).
type LeadReader interface {
	GetLeadSnapshot(ctx context.Context, leadID uuid.UUID) (*LeadSnapshot, error)
}

// TaskCreator creates tasks for create_task actions.
type TaskCreator interface {
	CreateTask(ctx context.Context, spec TaskSpec) error
}

// Guard suppresses repeat runs of an automation for the same lead and
// trigger. Errors fail open.
type Guard interface {
	Claim(ctx context.Context, automationID, leadID uuid.UUID, trigger string) (bool, error)
}

type Engine struct {
	store Store
	leads LeadReader
	tasks TaskCreator
	bus   events.Bus
	guard Guard
	log   *logger.Logger
}

func New(store Store, leads LeadReader, tasks TaskCreator, bus events.Bus, log *logger.Logger) *Engine {
	return &Engine{store: store, leads: leads, tasks: tasks, bus: bus, log: log}
}

// SetGuard enables the idempotency guard.
func (e *Engine) SetGuard(g Guard) {
	e.guard = g
}

// RunAutomations evaluates every active automation of the franchise that
// listens for run.Trigger and executes the matching ones in order. Caller
// cancellation is ignored: the triggering write has already committed.
func (e *Engine) RunAutomations(ctx context.Context, run Run) {
	ctx = context.WithoutCancel(ctx)
	log := e.log.WithContext(ctx).With("trigger", string(run.Trigger), "leadId", run.LeadID)
	metrics.AutomationRun(string(run.Trigger))

	automations, err := e.store.ListActive(ctx, run.FranchiseID, string(run.Trigger))
	if err != nil {
		log.Error("failed to load automations", "error", err)
		return
	}
	if len(automations) == 0 {
		return
	}

	lead, err := e.leads.GetLeadSnapshot(ctx, run.LeadID)
	if err != nil {
		log.Error("failed to load lead snapshot", "error", err)
		return
	}
	if lead == nil {
		return
	}

	status := lead.Status
	if run.NewStatus != nil {
		status = *run.NewStatus
	}

	for _, a := range automations {
		conditions, err := domain.ParseConditions(a.Conditions)
		if err != nil {
			log.Warn("skipping automation with unreadable conditions", "automationId", a.ID, "error", err)
			metrics.AutomationSkipped(skipInvalidConditions)
			continue
		}
		if ok, reason := conditions.Match(status, lead.Programs); !ok {
			metrics.AutomationSkipped(reason)
			continue
		}
		if !e.claim(ctx, log, a.ID, run) {
			metrics.AutomationSkipped(skipDuplicate)
			continue
		}

		e.execute(ctx, log, a, lead, run)
	}
}

func (e *Engine) claim(ctx context.Context, log *logger.Logger, automationID uuid.UUID, run Run) bool {
	if e.guard == nil {
		return true
	}
	ok, err := e.guard.Claim(ctx, automationID, run.LeadID, string(run.Trigger))
	if err != nil {
		log.Warn("automation dedupe unavailable, running anyway", "automationId", automationID, "error", err)
		return true
	}
	return ok
}

func (e *Engine) execute(ctx context.Context, log *logger.Logger, a repository.Automation, lead *LeadSnapshot, run Run) {
	actions, err := domain.ParseActions(a.Actions)
	if err != nil {
		e.writeLog(ctx, log, a, run, actionInvalid, err)
		return
	}

	for _, action := range actions {
		attempted, err := e.perform(ctx, a, lead, run, action)
		if !attempted {
			continue
		}
		e.writeLog(ctx, log, a, run, string(action.Type()), err)
	}
}

// perform runs one action. attempted is false when the action was skipped for
// lack of a recipient; such skips leave no log. A panic counts as a failure.
func (e *Engine) perform(ctx context.Context, a repository.Automation, lead *LeadSnapshot, run Run, action domain.Action) (attempted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			attempted = true
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()

	switch act := action.(type) {
	case domain.SendEmail:
		if lead.GuardianEmail == "" {
			return false, nil
		}
		return true, e.recordInteraction(ctx, a, run, "email", act.Content(a.Name))

	case domain.SendSMS:
		if lead.GuardianPhone == "" {
			return false, nil
		}
		return true, e.recordInteraction(ctx, a, run, "sms", act.Content(a.Name))

	case domain.CreateTask:
		taskType := ""
		if act.TaskType != nil {
			taskType = *act.TaskType
		}
		if err := e.tasks.CreateTask(ctx, TaskSpec{
			FranchiseID: run.FranchiseID,
			LeadID:      run.LeadID,
			Title:       act.TaskTitle(a.Name),
			Description: act.Description(),
			Type:        taskType,
		}); err != nil {
			return true, err
		}
		if run.FranchiseSlug != "" {
			e.bus.Publish(ctx, events.CacheRevalidate{
				BaseEvent:   events.NewBaseEvent(),
				FranchiseID: run.FranchiseID,
				Path:        "/" + run.FranchiseSlug + "/actions",
			})
		}
		return true, nil

	case domain.Unknown:
		return true, fmt.Errorf("unknown action type %q", act.Kind)

	default:
		return true, fmt.Errorf("unsupported action %T", action)
	}
}

func (e *Engine) recordInteraction(ctx context.Context, a repository.Automation, run Run, kind, content string) error {
	automationID := a.ID
	return e.store.InsertInteraction(ctx, repository.Interaction{
		ID:           uuid.New(),
		FranchiseID:  run.FranchiseID,
		LeadID:       run.LeadID,
		AutomationID: &automationID,
		Type:         kind,
		Content:      content,
		CreatedAt:    time.Now(),
	})
}

func (e *Engine) writeLog(ctx context.Context, log *logger.Logger, a repository.Automation, run Run, actionType string, actionErr error) {
	entry := repository.Log{
		ID:           uuid.New(),
		AutomationID: a.ID,
		LeadID:       run.LeadID,
		FranchiseID:  run.FranchiseID,
		ActionType:   actionType,
		Status:       logSuccess,
	}
	if actionErr != nil {
		msg := actionErr.Error()
		entry.Status = logFailed
		entry.ErrorMessage = &msg
		log.Warn("automation action failed", "automationId", a.ID, "action", actionType, "error", actionErr)
	}
	metrics.AutomationAction(actionType, entry.Status)

	if err := e.store.InsertLog(ctx, entry); err != nil {
		log.Error("failed to write automation log", "automationId", a.ID, "action", actionType, "error", err)
	}
}
