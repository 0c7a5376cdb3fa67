package http

import (
	"dojoflow_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared route groups for module registration.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected is the authenticated group under /api/v1.
	Protected *gin.RouterGroup
	// Franchise is the authenticated, franchise-scoped group
	// /api/v1/franchises/:slug.
	Franchise *gin.RouterGroup
	// Managers is Franchise restricted to owners and managers.
	Managers *gin.RouterGroup
	// Admin is the admin-only group under /api/v1/admin.
	Admin  *gin.RouterGroup
	Config config.JWTConfig
}
