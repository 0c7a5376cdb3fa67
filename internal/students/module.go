// Package students provides student records and belt promotions.
package students

import (
	"dojoflow_backend/internal/events"
	apphttp "dojoflow_backend/internal/http"
	"dojoflow_backend/internal/students/domain"
	"dojoflow_backend/internal/students/handler"
	"dojoflow_backend/internal/students/repository"
	"dojoflow_backend/internal/students/service"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	_ = val.RegisterValidation("belt_rank", func(fl govalidator.FieldLevel) bool {
		return domain.Rank(fl.Field().String()) >= 0
	})

	svc := service.New(repository.New(pool), eventBus, log)
	return &Module{handler: handler.New(svc, val)}
}

func (m *Module) Name() string {
	return "students"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Franchise.Group("/students"))
}

var _ apphttp.Module = (*Module)(nil)
