// Package tasks provides the task bounded context module.
package tasks

import (
	"dojoflow_backend/internal/events"
	apphttp "dojoflow_backend/internal/http"
	"dojoflow_backend/internal/tasks/domain"
	"dojoflow_backend/internal/tasks/handler"
	"dojoflow_backend/internal/tasks/repository"
	"dojoflow_backend/internal/tasks/service"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	_ = val.RegisterValidation("task_type", validator.OneOf(domain.Types...))

	svc := service.New(repository.New(pool), eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "tasks"
}

// Service returns the task service for the lifecycle and automation adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Franchise.Group("/tasks"))
}

var _ apphttp.Module = (*Module)(nil)
