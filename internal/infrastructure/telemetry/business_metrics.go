package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks the gym's ledger and card pipeline.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	paymentRegisteredTotal *Counter
	paymentAmountTotal     *Counter
	paymentDuplicateTotal  *Counter
	paymentVoidedTotal     *Counter
	clientRegisteredTotal  *Counter
	cardRenderTotal        *Counter
	cardRenderDuration     *Histogram

	clientsByStatus *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	statusProvider StatusCountsProvider
	now            func() time.Time
}

// StatusCountsProvider is the slice of the stats repository the periodic
// collector reads.
type StatusCountsProvider interface {
	CountByStatus(ctx context.Context, today time.Time) (membership.StatusCounts, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	StatusProvider StatusCountsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		statusProvider: cfg.StatusProvider,
		now:            time.Now,
	}

	var err error
	if bm.paymentRegisteredTotal, err = NewCounter(cfg.Meter,
		"gym_payment_registered_total", "Total number of paid periods registered", "{payments}"); err != nil {
		return nil, err
	}
	if bm.paymentAmountTotal, err = NewCounter(cfg.Meter,
		"gym_payment_amount_total", "Total amount collected in cents", "{cents}"); err != nil {
		return nil, err
	}
	if bm.paymentDuplicateTotal, err = NewCounter(cfg.Meter,
		"gym_payment_duplicate_total", "Payments rejected because the period was already paid", "{payments}"); err != nil {
		return nil, err
	}
	if bm.paymentVoidedTotal, err = NewCounter(cfg.Meter,
		"gym_payment_voided_total", "Total number of voided payments", "{payments}"); err != nil {
		return nil, err
	}
	if bm.clientRegisteredTotal, err = NewCounter(cfg.Meter,
		"gym_client_registered_total", "Total number of clients registered", "{clients}"); err != nil {
		return nil, err
	}
	if bm.cardRenderTotal, err = NewCounter(cfg.Meter,
		"gym_card_render_total", "Card renders by outcome", "{renders}"); err != nil {
		return nil, err
	}
	if bm.cardRenderDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "gym_card_render_duration",
		Description: "Time spent drawing and uploading a card image",
		Unit:        "s",
		Boundaries:  RenderDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.clientsByStatus, err = NewGauge(cfg.Meter,
		"gym_clients", "Active clients by membership status", "{clients}"); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordPaymentRegistered counts a paid period and its amount
func (bm *BusinessMetrics) RecordPaymentRegistered(ctx context.Context, method membership.PaymentMethod, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrPaymentMethod.String(string(method))}
	bm.paymentRegisteredTotal.Inc(ctx, attrs...)
	bm.paymentAmountTotal.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart(), attrs...)
}

// RecordDuplicatePayment counts a rejected second payment for a period
func (bm *BusinessMetrics) RecordDuplicatePayment(ctx context.Context) {
	bm.paymentDuplicateTotal.Inc(ctx)
}

// RecordPaymentVoided counts a void
func (bm *BusinessMetrics) RecordPaymentVoided(ctx context.Context, method membership.PaymentMethod) {
	bm.paymentVoidedTotal.Inc(ctx, AttrPaymentMethod.String(string(method)))
}

// RecordClientRegistered counts an alta
func (bm *BusinessMetrics) RecordClientRegistered(ctx context.Context) {
	bm.clientRegisteredTotal.Inc(ctx)
}

// RenderOutcome labels a card render
type RenderOutcome string

const (
	RenderOutcomeRendered RenderOutcome = "rendered"
	RenderOutcomeSkipped  RenderOutcome = "skipped"
	RenderOutcomeFailed   RenderOutcome = "failed"
)

// RecordCardRender counts one render attempt and its duration
func (bm *BusinessMetrics) RecordCardRender(ctx context.Context, outcome RenderOutcome, d time.Duration) {
	attrs := []attribute.KeyValue{AttrRenderOutcome.String(string(outcome))}
	bm.cardRenderTotal.Inc(ctx, attrs...)
	if outcome != RenderOutcomeSkipped {
		bm.cardRenderDuration.RecordDuration(ctx, d, attrs...)
	}
}

// RecordStatusCounts publishes the client gauge for each status
func (bm *BusinessMetrics) RecordStatusCounts(ctx context.Context, counts membership.StatusCounts) {
	bm.clientsByStatus.Record(ctx, counts.Active, AttrMembershipStatus.String(string(membership.StatusActive)))
	bm.clientsByStatus.Record(ctx, counts.Expiring, AttrMembershipStatus.String(string(membership.StatusExpiring)))
	bm.clientsByStatus.Record(ctx, counts.Expired, AttrMembershipStatus.String(string(membership.StatusInactive)))
}

// StartPeriodicCollection refreshes the client gauges every interval
// (default 5 minutes) until Stop is called or ctx ends.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectStatusCounts(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectStatusCounts(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectStatusCounts(ctx context.Context) {
	if bm.statusProvider == nil {
		bm.logger.Debug("No status provider configured, skipping client gauges")
		return
	}
	counts, err := bm.statusProvider.CountByStatus(ctx, bm.now())
	if err != nil {
		bm.logger.Warn("Failed to count clients by status", zap.Error(err))
		return
	}
	bm.RecordStatusCounts(ctx, counts)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
