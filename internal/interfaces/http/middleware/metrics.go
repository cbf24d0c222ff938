// Package middleware provides the gin middleware of the gym API.
package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onixgym/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPMetricsConfig selects the meter provider for request metrics
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
	Logger        *zap.Logger
}

var (
	requestSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}
	// card images land in the upper buckets
	responseSizeBuckets = append(append([]float64(nil), requestSizeBuckets...), 5000000)
)

type httpInstruments struct {
	requests  *telemetry.Counter
	latency   *telemetry.Histogram
	reqBytes  *telemetry.Histogram
	respBytes *telemetry.Histogram
	inFlight  metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var (
		in   httpInstruments
		err  error
		errs []error
	)
	in.requests, err = telemetry.NewCounter(meter, "http_server_request_total", "Total number of HTTP requests", "{request}")
	errs = append(errs, err)
	in.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	errs = append(errs, err)
	in.reqBytes, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_size_bytes",
		Description: "HTTP request body size in bytes",
		Unit:        "By",
		Boundaries:  requestSizeBuckets,
	})
	errs = append(errs, err)
	in.respBytes, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size in bytes",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	})
	errs = append(errs, err)
	in.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests being served"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &in, nil
}

func noopMiddleware(c *gin.Context) {
	c.Next()
}

// HTTPMetrics counts requests and records latency and body sizes per
// route template. The caller's role is a label; user ids never are.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return noopMiddleware
	}
	in, err := newHTTPInstruments(cfg.MeterProvider.Meter("http.server"))
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return noopMiddleware
	}
	return in.middleware()
}

// HTTPMetricsWithMeter is HTTPMetrics on a caller supplied meter
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	in, err := newHTTPInstruments(meter)
	if err != nil {
		return noopMiddleware
	}
	return in.middleware()
}

func (in *httpInstruments) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		in.inFlight.Add(ctx, 1)
		defer in.inFlight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		common := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}

		counted := append(common[:len(common):len(common)], telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		if role := GetJWTRole(c); role != "" {
			counted = append(counted, telemetry.AttrRole.String(role))
		}
		in.requests.Inc(ctx, counted...)
		in.latency.RecordDuration(ctx, time.Since(start), common...)

		if n := c.Request.ContentLength; n > 0 {
			in.reqBytes.Record(ctx, float64(n), common...)
		}
		if n := c.Writer.Size(); n > 0 {
			in.respBytes.Record(ctx, float64(n), common...)
		}
	}
}

// HTTPStatusClass buckets a status code as "2xx" to "5xx", or "other"
func HTTPStatusClass(status int) string {
	if status < 200 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
