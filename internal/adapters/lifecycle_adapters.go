// Package adapters implements the ports one bounded context declares using
// the services of another, so modules never import each other directly.
package adapters

import (
	"context"

	"dojoflow_backend/internal/automations/domain"
	"dojoflow_backend/internal/automations/engine"
	"dojoflow_backend/internal/leads/lifecycle"
	taskservice "dojoflow_backend/internal/tasks/service"

	"github.com/google/uuid"
)

// LifecycleTaskWriter adapts the tasks service for the lead lifecycle.
type LifecycleTaskWriter struct {
	tasks *taskservice.Service
}

func NewLifecycleTaskWriter(tasks *taskservice.Service) *LifecycleTaskWriter {
	return &LifecycleTaskWriter{tasks: tasks}
}

func (a *LifecycleTaskWriter) InsertTask(ctx context.Context, task lifecycle.NewTask) error {
	leadID := task.LeadID
	due := task.DueDate
	_, err := a.tasks.InsertTask(ctx, taskservice.NewTask{
		FranchiseID: task.FranchiseID,
		LeadID:      &leadID,
		Title:       task.Title,
		DueDate:     &due,
		Type:        task.Type,
	})
	return err
}

func (a *LifecycleTaskWriter) DeletePendingTasksForLead(ctx context.Context, leadID uuid.UUID) error {
	return a.tasks.DeletePendingTasksForLead(ctx, leadID)
}

// LifecycleAutomationRunner forwards lifecycle trigger firings to the engine.
type LifecycleAutomationRunner struct {
	engine *engine.Engine
}

func NewLifecycleAutomationRunner(e *engine.Engine) *LifecycleAutomationRunner {
	return &LifecycleAutomationRunner{engine: e}
}

func (a *LifecycleAutomationRunner) RunAutomations(ctx context.Context, run lifecycle.AutomationRun) {
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
	_ lifecycle.TaskWriter       = (*LifecycleTaskWriter)(nil)
	_ lifecycle.AutomationRunner = (*LifecycleAutomationRunner)(nil)
)
