// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/platform/config"
	"dojoflow_backend/platform/httpkit"
	"dojoflow_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is used for readiness checks (DB ping).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Franchises resolves the :slug segment of franchise-scoped routes.
	Franchises httpkit.FranchiseResolver
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
