// Package router builds the gin engine from the registered modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "dojoflow_backend/internal/http"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the HTTP engine.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(metrics.Middleware())
	engine.Use(cors.New(corsConfig(app.Config)))

	limiter := httpkit.PerMinute(app.Config.GetRateLimitPerMinute(), app.Logger)

	engine.GET("/metrics", metrics.Handler())

	v1 := engine.Group("/api/v1")
	v1.Use(limiter.RateLimit())
	v1.GET("/health", healthHandler(app.Health))

	auth := httpkit.AuthRequired(app.Config)
	protected := v1.Group("")
	protected.Use(auth)

	franchise := protected.Group("/franchises/:slug")
	franchise.Use(httpkit.RequireFranchise(app.Franchises))

	managers := franchise.Group("")
	managers.Use(httpkit.RequireAnyRole("owner", "manager"))

	admin := protected.Group("/admin")
	admin.Use(httpkit.RequireAnyRole(httpkit.RoleAdmin))

	rc := &apphttp.RouterContext{
		Engine:    engine,
		V1:        v1,
		Protected: protected,
		Franchise: franchise,
		Managers:  managers,
		Admin:     admin,
		Config:    app.Config,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(rc)
		app.Logger.Debug("registered module routes", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", httpkit.ViewAsHeader},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.GetCORSOrigins()
	}
	return c
}

func healthHandler(health apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health.Ping(ctx); err != nil {
				httpkit.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
				return
			}
		}
		httpkit.OK(c, gin.H{"status": "ok"})
	}
}
