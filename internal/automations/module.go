// Package automations provides the franchise automation rules: the rule
// builder, the execution engine invoked by the lead lifecycle, and the
// execution and interaction history.
package automations

import (
	"dojoflow_backend/internal/automations/domain"
	"dojoflow_backend/internal/automations/engine"
	"dojoflow_backend/internal/automations/handler"
	"dojoflow_backend/internal/automations/repository"
	"dojoflow_backend/internal/automations/service"
	"dojoflow_backend/internal/events"
	apphttp "dojoflow_backend/internal/http"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	engine  *engine.Engine
}

// NewModule wires the module. leads and tasks are the engine's ports into
// the lead and task modules.
func NewModule(pool *pgxpool.Pool, leads engine.LeadReader, tasks engine.TaskCreator, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	_ = val.RegisterValidation("automation_trigger", validator.OneOf(domain.TriggerValues()...))

	repo := repository.New(pool)
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		engine:  engine.New(repo, leads, tasks, eventBus, log),
	}
}

func (m *Module) Name() string {
	return "automations"
}

// Engine returns the automation runner used by the lead lifecycle.
func (m *Module) Engine() *engine.Engine {
	return m.engine
}

// Service returns the management service; it also installs starter rules.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Franchise, ctx.Managers)
}

var _ apphttp.Module = (*Module)(nil)
