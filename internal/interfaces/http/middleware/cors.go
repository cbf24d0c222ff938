package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/onixgym/backend/internal/infrastructure/config"
)

// CORSConfig lists what cross-origin callers (the reception SPA) may do
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no origin at all; origins must be configured.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodPatch, http.MethodOptions,
		},
		AllowHeaders:     []string{"Accept", "Authorization", "Cache-Control", "Content-Type", "Origin", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORSConfigFromHTTP applies the GYM_HTTP_CORS_* settings
func CORSConfigFromHTTP(cfg config.HTTPConfig) CORSConfig {
	out := DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		out.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		out.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		out.AllowHeaders = cfg.CORSAllowHeaders
	}
	return out
}

func (c CORSConfig) options() cors.Options {
	opts := cors.Options{
		AllowedOrigins:   c.AllowOrigins,
		AllowedMethods:   c.AllowMethods,
		AllowedHeaders:   c.AllowHeaders,
		ExposedHeaders:   c.ExposeHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           int(c.MaxAge.Seconds()),
	}
	wildcard := false
	for _, o := range c.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
	}
	// Browsers reject credentials with a wildcard origin anyway.
	if wildcard {
		opts.AllowCredentials = false
	}
	// go-chi/cors treats an empty list as "allow all".
	if len(c.AllowOrigins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return opts
}

// CORS runs go-chi/cors inside the gin chain. Preflights never reach the
// handlers and end with 204.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	handler := cors.New(cfg.options()).Handler
	return func(c *gin.Context) {
		reached := false
		handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			reached = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if !reached {
			c.AbortWithStatus(http.StatusNoContent)
		}
	}
}
