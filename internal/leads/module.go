// Package leads provides the lead bounded context: intake, the status
// machine and lead CRUD.
package leads

import (
	"dojoflow_backend/internal/events"
	apphttp "dojoflow_backend/internal/http"
	"dojoflow_backend/internal/leads/domain"
	"dojoflow_backend/internal/leads/handler"
	"dojoflow_backend/internal/leads/lifecycle"
	"dojoflow_backend/internal/leads/repository"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	lifecycle *lifecycle.Service
	repo      *repository.Repository
}

// NewModule wires the lifecycle service. Tasks and automations are ports
// implemented by the adapters package.
func NewModule(pool *pgxpool.Pool, tasks lifecycle.TaskWriter, automations lifecycle.AutomationRunner, eventBus events.Bus, val *validator.Validator, phoneRegion string, log *logger.Logger) *Module {
	_ = val.RegisterValidation("lead_status", validator.OneOf(domain.StatusValues()...))

	repo := repository.New(pool)
	svc := lifecycle.New(repo, tasks, automations, eventBus, phoneRegion, log)

	return &Module{
		handler:   handler.New(svc, val),
		lifecycle: svc,
		repo:      repo,
	}
}

func (m *Module) Name() string {
	return "leads"
}

// Lifecycle returns the lead lifecycle service for other modules.
func (m *Module) Lifecycle() *lifecycle.Service {
	return m.lifecycle
}

// Repository exposes lead reads for the automation snapshot adapter.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Franchise.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
