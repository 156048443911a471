package http

import (
	"address_lookup_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a feature that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what the router hands to each Module.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is mounted at /api/v1.
	V1 *gin.RouterGroup
	// RateLimiter is nil when per-IP limiting is disabled.
	RateLimiter *httpkit.IPRateLimiter
}

// Limited returns a V1 subgroup behind the per-IP limiter, if one is configured.
// Use it for routes that trigger calls to the lookup provider.
func (rc *RouterContext) Limited(relativePath string) *gin.RouterGroup {
	group := rc.V1.Group(relativePath)
	if rc.RateLimiter != nil {
		group.Use(rc.RateLimiter.RateLimit())
	}
	return group
}
