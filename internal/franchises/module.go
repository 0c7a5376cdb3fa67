// Package franchises provides the franchise bounded context: lookup by slug,
// settings (operating hours, timezone) and the pipeline dashboard.
package franchises

import (
	"regexp"

	"dojoflow_backend/internal/franchises/handler"
	"dojoflow_backend/internal/franchises/repository"
	"dojoflow_backend/internal/franchises/service"
	apphttp "dojoflow_backend/internal/http"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Module is the franchises module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	_ = val.RegisterValidation("slug", func(fl govalidator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	svc := service.New(repository.New(pool), log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "franchises"
}

// Service returns the franchise service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Resolver returns the slug resolver used by the router.
func (m *Module) Resolver() httpkit.FranchiseResolver {
	return m.service.ResolveSlug
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/franchises", m.handler.List)
	ctx.Protected.POST("/franchises", httpkit.RequireAnyRole(httpkit.RoleAdmin), m.handler.Create)

	ctx.Franchise.GET("", m.handler.Get)
	ctx.Franchise.GET("/session", m.handler.Session)
	ctx.Franchise.GET("/pipeline", m.handler.Pipeline)
	ctx.Managers.PUT("/settings", m.handler.UpdateSettings)
}

var _ apphttp.Module = (*Module)(nil)
