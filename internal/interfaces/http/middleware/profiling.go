package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/onixgym/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled   bool
	SkipPaths []string
}

func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{Enabled: true, SkipPaths: []string{"/health"}}
}

// ProfilingWithConfig runs the rest of the chain under pyroscope labels
// (controller, route, method, rol), so CPU spent composing cards shows up
// apart from client listings. It needs the JWT middleware before it for
// the rol label.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return noopMiddleware
	}
	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		route := c.FullPath()
		labels := telemetry.HTTPRequestLabels(routeController(route), route, c.Request.Method, GetJWTRole(c))
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// routeController is the first meaningful segment of a route pattern:
// "/api/v1/clients/:id/card" gives "clients", "/api/v1/admin/card-jobs"
// gives "card-jobs".
func routeController(route string) string {
	for _, part := range strings.Split(route, "/") {
		switch {
		case part == "", part == "api", part == "admin", strings.HasPrefix(part, ":"), isVersionSegment(part):
			continue
		}
		return part
	}
	return ""
}

// isVersionSegment matches v1, v2, V10
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	return strings.Trim(segment[1:], "0123456789") == ""
}
