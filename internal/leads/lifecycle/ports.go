package lifecycle

import (
	"context"
	"time"

	"dojoflow_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Repository is the lead storage the lifecycle needs.
type Repository interface {
	CreateLeadChain(ctx context.Context, params repository.CreateLeadChainParams) (repository.LeadChain, error)
	GetByID(ctx context.Context, id, franchiseID uuid.UUID) (repository.Lead, error)
	GetChain(ctx context.Context, leadID uuid.UUID, franchiseID *uuid.UUID) (repository.LeadChain, error)
	GetLeadFranchiseID(ctx context.Context, leadID uuid.UUID) (uuid.UUID, error)
	UpdateLeadStatus(ctx context.Context, leadID uuid.UUID, status string) error
	Update(ctx context.Context, id, franchiseID uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	Delete(ctx context.Context, id, franchiseID uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) ([]repository.ListItem, int, error)
}

// NewTask is a task the lifecycle creates for a lead.
type NewTask struct {
	FranchiseID uuid.UUID
	LeadID      uuid.UUID
	Title       string
	Type        string
	DueDate     time.Time
}

// TaskWriter creates and clears lead tasks.
type TaskWriter interface {
	InsertTask(ctx context.Context, task NewTask) error
	DeletePendingTasksForLead(ctx context.Context, leadID uuid.UUID) error
}

// AutomationRun identifies one trigger firing for a lead.
type AutomationRun struct {
	Trigger     string
	FranchiseID uuid.UUID
	LeadID      uuid.UUID
	// NewStatus is set for status driven triggers.
	NewStatus *string
	// FranchiseSlug enables UI revalidation after task actions when set.
	FranchiseSlug string
}

// AutomationRunner evaluates the franchise's automations for a trigger.
// Implementations swallow their own failures.
type AutomationRunner interface {
	RunAutomations(ctx context.Context, run AutomationRun)
}
