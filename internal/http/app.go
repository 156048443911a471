// Package http holds the composition types shared by the router and the
// feature modules it mounts.
package http

import (
	"context"
	"net/http"

	"address_lookup_backend/internal/events"
	"address_lookup_backend/platform/config"
	"address_lookup_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker backs /api/health. records.Module implements it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled in main and consumed by router.New.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Middleware runs after the platform middleware on every route.
	Middleware []gin.HandlerFunc
	Modules    []Module
}
