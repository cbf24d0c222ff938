package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// OutboxProcessorConfig tunes the render and invalidation worker
type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxRetries overrides the per-row retry budget when positive
	MaxRetries int
	// Cleanup deletes sent rows older than CleanupRetention
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxProcessorConfig keeps a week of sent rows for the card jobs admin
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        50,
		PollInterval:     2 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessorConfigFrom maps the event section of the application config
func OutboxProcessorConfigFrom(cfg config.EventConfig) OutboxProcessorConfig {
	out := DefaultOutboxProcessorConfig()
	if cfg.BatchSize > 0 {
		out.BatchSize = cfg.BatchSize
	}
	if cfg.PollInterval > 0 {
		out.PollInterval = cfg.PollInterval
	}
	if cfg.MaxRetries > 0 {
		out.MaxRetries = cfg.MaxRetries
	}
	out.CleanupEnabled = cfg.CleanupEnabled
	if cfg.CleanupRetention > 0 {
		out.CleanupRetention = cfg.CleanupRetention
	}
	return out
}

// OutboxProcessor replays committed outbox rows onto the event bus. This is
// where card renders and dashboard invalidations run, after the payment
// transaction that queued them has committed.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor. Zero intervals fall
// back to DefaultOutboxProcessorConfig.
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	bus shared.EventPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	defaults := DefaultOutboxProcessorConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.CleanupRetention <= 0 {
		config.CleanupRetention = defaults.CleanupRetention
	}
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		serializer: serializer,
		config:     config,
		logger:     logger,
	}
}

// Start launches the polling loop, plus the cleanup loop when enabled.
// The first pass runs immediately so renders queued before a restart go
// out without waiting a full interval.
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.loop(ctx, p.config.PollInterval, true, func(ctx context.Context) { p.ProcessOnce(ctx) })
	if p.config.CleanupEnabled {
		p.loop(ctx, p.config.CleanupInterval, false, p.cleanup)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Bool("cleanup", p.config.CleanupEnabled),
	)
	return nil
}

// Stop cancels the loops and waits for the batch in flight, or for ctx
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) loop(ctx context.Context, every time.Duration, immediate bool, tick func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if immediate {
			tick(ctx)
		}

		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick(ctx)
			}
		}
	}()
}

// ProcessOnce claims one batch of new rows and one batch of rows whose retry
// is due, delivers them and reports how many were sent.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	sent := 0

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending entries", zap.Error(err))
		return sent
	}
	sent += p.claimAndDeliver(ctx, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable entries", zap.Error(err))
		return sent
	}
	return sent + p.claimAndDeliver(ctx, retryable)
}

// claimAndDeliver marks entries as processing and delivers those this
// instance won. Rows claimed by another instance are skipped.
func (p *OutboxProcessor) claimAndDeliver(ctx context.Context, entries []*shared.OutboxEntry) int {
	if len(entries) == 0 {
		return 0
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to mark entries as processing", zap.Error(err))
		return 0
	}

	sent := 0
	for _, entry := range claimed {
		if p.settle(ctx, entry, p.deliver(ctx, entry)) {
			sent++
		}
	}
	return sent
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to deserialize event: %w", err)
	}
	if err := p.bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// settle records the outcome of one delivery. A failure schedules the next
// attempt, or dead-letters the row once its retry budget is spent.
func (p *OutboxProcessor) settle(ctx context.Context, entry *shared.OutboxEntry, deliveryErr error) bool {
	fields := []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("idempotency_key", entry.IdempotencyKey),
	}

	if deliveryErr == nil {
		entry.MarkSent()
	} else {
		if p.config.MaxRetries > 0 {
			entry.MaxRetries = p.config.MaxRetries
		}
		entry.MarkFailed(deliveryErr.Error())
		p.logger.Error("outbox delivery failed",
			append(fields, zap.Int("attempt", entry.RetryCount), zap.Error(deliveryErr))...)
		if entry.IsDead() {
			p.logger.Warn("event moved to dead letter queue",
				append(fields,
					zap.String("aggregate_id", entry.AggregateID.String()),
					zap.Int("retry_count", entry.RetryCount),
				)...)
		}
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("failed to record outbox outcome", append(fields, zap.Error(err))...)
		return false
	}
	if deliveryErr == nil {
		p.logger.Debug("event delivered", fields...)
	}
	return deliveryErr == nil
}

// cleanup deletes sent rows older than the retention window
func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up outbox entries", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
