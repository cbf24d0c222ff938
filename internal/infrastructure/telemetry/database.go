package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/onixgym/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// DBInstrumentation is a GORM plugin that records query metrics, marks
// failing or slow statements on the active span and reports connection
// pool usage. With tracing enabled it also installs otelgorm, which opens
// one span per statement.
type DBInstrumentation struct {
	tracing   bool
	fullSQL   bool
	slow      time.Duration
	meter     metric.Meter
	logger    *zap.Logger
	registrar metric.Registration

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
}

// NewDBInstrumentation creates the plugin. Register it with db.Use.
func NewDBInstrumentation(cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	slow := cfg.DBSlowQueryThresh
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	p := &DBInstrumentation{
		tracing: cfg.Enabled && cfg.DBTraceEnabled,
		fullSQL: cfg.DBLogFullSQL,
		slow:    slow,
		meter:   meter,
		logger:  logger,
	}

	var err error
	if p.queryTotal, err = NewCounter(meter, "db_query_total", "Database statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if p.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if p.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Statements slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements gorm.Plugin
func (p *DBInstrumentation) Name() string {
	return "onixgym:db_instrumentation"
}

// Initialize implements gorm.Plugin
func (p *DBInstrumentation) Initialize(db *gorm.DB) error {
	if p.tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !p.fullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(before, after func(*gorm.DB)) error
	}{
		{"create", func(b, a func(*gorm.DB)) error {
			return errors.Join(cb.Create().Before("gorm:create").Register("metrics:before_create", b),
				cb.Create().After("gorm:create").Register("metrics:after_create", a))
		}},
		{"query", func(b, a func(*gorm.DB)) error {
			return errors.Join(cb.Query().Before("gorm:query").Register("metrics:before_query", b),
				cb.Query().After("gorm:query").Register("metrics:after_query", a))
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			return errors.Join(cb.Update().Before("gorm:update").Register("metrics:before_update", b),
				cb.Update().After("gorm:update").Register("metrics:after_update", a))
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			return errors.Join(cb.Delete().Before("gorm:delete").Register("metrics:before_delete", b),
				cb.Delete().After("gorm:delete").Register("metrics:after_delete", a))
		}},
		{"row", func(b, a func(*gorm.DB)) error {
			return errors.Join(cb.Row().Before("gorm:row").Register("metrics:before_row", b),
				cb.Row().After("gorm:row").Register("metrics:after_row", a))
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			return errors.Join(cb.Raw().Before("gorm:raw").Register("metrics:before_raw", b),
				cb.Raw().After("gorm:raw").Register("metrics:after_raw", a))
		}},
	}
	for _, s := range steps {
		op := s.op
		if err := s.register(p.before, func(tx *gorm.DB) { p.after(tx, op) }); err != nil {
			return err
		}
	}

	return p.observePool(db)
}

func (p *DBInstrumentation) before(tx *gorm.DB) {
	if tx.Statement.Context == nil {
		return
	}
	tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
}

func (p *DBInstrumentation) after(tx *gorm.DB, op string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	if op == "raw" || op == "row" {
		op = operationFromSQL(tx.Statement.SQL.String(), op)
	}

	attrs := []attribute.KeyValue{AttrDBOperation.String(op)}
	if tx.Statement.Table != "" {
		attrs = append(attrs, AttrDBTable.String(tx.Statement.Table))
	}
	p.queryTotal.Inc(ctx, attrs...)

	span := trace.SpanFromContext(ctx)
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	p.queryDuration.RecordDuration(ctx, elapsed, attrs...)
	if elapsed <= p.slow {
		return
	}
	p.slowQueryTotal.Inc(ctx, attrs...)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

// observePool reports sql.DB pool stats on every collection cycle
func (p *DBInstrumentation) observePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	conns, err := p.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	maxConns, err := p.meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	p.registrar, err = p.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.WaitCount), metric.WithAttributes(AttrDBState.String("wait")))
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		return nil
	}, conns, maxConns)
	return err
}

// Close unregisters the pool callback
func (p *DBInstrumentation) Close() error {
	if p.registrar == nil {
		return nil
	}
	return p.registrar.Unregister()
}

func operationFromSQL(sql, fallback string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return fallback
	}
	switch verb := strings.ToLower(fields[0]); verb {
	case "select", "insert", "update", "delete", "with":
		if verb == "with" {
			return "select"
		}
		return verb
	}
	return fallback
}
