package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// Filter drops requests from tracing when it returns false
	Filter func(*http.Request) bool
}

// DefaultTracingConfig traces everything but the health probe
func DefaultTracingConfig(serviceName string) TracingConfig {
	return TracingConfig{
		ServiceName: serviceName,
		Enabled:     true,
		Filter:      func(r *http.Request) bool { return r.URL.Path != "/health" },
	}
}

// TracingWithConfig starts one server span per request, named after the
// route pattern ("GET /api/v1/clients/:id"). SpanEnricher must follow it.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return noopMiddleware
	}
	var opts []otelgin.Option
	if cfg.Filter != nil {
		opts = append(opts, otelgin.WithFilter(cfg.Filter))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher runs inside the request span. Once the handler is done it
// adds request ID, user, role and status class, and marks 5xx answers as
// errors. A 4xx such as an already paid period is a business outcome, so
// the span status stays unset.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		attrs := []attribute.KeyValue{attribute.String("http.status_class", HTTPStatusClass(status))}
		for key, value := range map[string]string{
			"request_id": GetRequestID(c),
			"user_id":    GetJWTUserID(c),
			"user_role":  GetJWTRole(c),
		} {
			if value != "" {
				attrs = append(attrs, attribute.String(key, value))
			}
		}
		span.SetAttributes(attrs...)

		if status >= http.StatusInternalServerError {
			msg := http.StatusText(status)
			if last := c.Errors.Last(); last != nil {
				msg = last.Error()
			}
			span.SetStatus(codes.Error, msg)
		}
	}
}
