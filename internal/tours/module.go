// Package tours provides tour booking: the operating-hours check, inline
// lead intake and the hand-off to the lead lifecycle and automations.
package tours

import (
	"dojoflow_backend/internal/events"
	apphttp "dojoflow_backend/internal/http"
	"dojoflow_backend/internal/tours/handler"
	"dojoflow_backend/internal/tours/repository"
	"dojoflow_backend/internal/tours/service"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies are the ports tour booking reaches other modules through.
type Dependencies struct {
	Franchises  service.FranchiseReader
	Leads       service.LeadGateway
	Tasks       service.TaskCreator
	Automations service.AutomationRunner
}

type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

func NewModule(pool *pgxpool.Pool, deps Dependencies, eventBus events.Bus, opts service.Options, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, deps.Franchises, deps.Leads, deps.Tasks, deps.Automations, eventBus, opts, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

func (m *Module) Name() string {
	return "tours"
}

func (m *Module) Service() *service.Service {
	return m.service
}

// Repository is used by the reminder worker to load reminder details.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Franchise.Group("/tours"))
}

var _ apphttp.Module = (*Module)(nil)
