package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onixgym/backend/internal/domain/shared"
	appconfig "github.com/onixgym/backend/internal/infrastructure/config"
	"github.com/onixgym/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type processorFixture struct {
	repo       *GormOutboxRepository
	bus        *InMemoryEventBus
	serializer *EventSerializer
	handler    *testHandler
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	serializer := NewEventSerializer()
	Register[testEvent](serializer, "TestEvent")

	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	return &processorFixture{
		repo:       NewGormOutboxRepository(setupSQLiteDB(t)),
		bus:        bus,
		serializer: serializer,
		handler:    handler,
	}
}

// stage stores one serialized TestEvent as a pending row
func (f *processorFixture) stage(t *testing.T) *shared.OutboxEntry {
	t.Helper()
	ev := newTestEvent("TestEvent")
	payload, err := f.serializer.Serialize(ev)
	require.NoError(t, err)
	entry := shared.NewOutboxEntry(ev, payload)
	require.NoError(t, f.repo.Save(context.Background(), entry))
	return entry
}

func (f *processorFixture) processor(cfg OutboxProcessorConfig, log *zap.Logger) *OutboxProcessor {
	return NewOutboxProcessor(f.repo, f.bus, f.serializer, cfg, log)
}

func (f *processorFixture) reload(t *testing.T, entry *shared.OutboxEntry) *shared.OutboxEntry {
	t.Helper()
	found, err := f.repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	return found
}

func TestOutboxProcessor_DeliversOnStart(t *testing.T) {
	f := newProcessorFixture(t)
	entry := f.stage(t)

	// a long interval: only the immediate first pass can deliver the row
	p := f.processor(OutboxProcessorConfig{PollInterval: time.Hour}, zaptest.NewLogger(t))
	require.NoError(t, p.Start(context.Background()))
	t.Cleanup(func() { _ = p.Stop(context.Background()) })

	delivered := testutil.WaitForCondition(func() bool {
		return len(f.handler.getHandled()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.True(t, delivered, "the queued render should run without waiting a poll interval")

	require.NoError(t, p.Stop(testutil.ContextWithTimeout(t, time.Second)))
	stored := f.reload(t, entry)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestOutboxProcessor_StopWithoutWork(t *testing.T) {
	f := newProcessorFixture(t)
	p := f.processor(DefaultOutboxProcessorConfig(), zap.NewNop())

	require.NoError(t, p.Start(context.Background()))
	assert.NoError(t, p.Stop(testutil.ContextWithTimeout(t, time.Second)))
}

func TestOutboxProcessor_UndecodableRowFails(t *testing.T) {
	f := newProcessorFixture(t)
	entry := shared.NewOutboxEntry(newTestEvent("membership.unknown"), []byte(`{}`))
	require.NoError(t, f.repo.Save(context.Background(), entry))

	core, logs := observer.New(zap.ErrorLevel)
	p := f.processor(OutboxProcessorConfig{}, zap.New(core))

	assert.Equal(t, 0, p.ProcessOnce(context.Background()))

	stored := f.reload(t, entry)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Contains(t, stored.LastError, "not registered")
	assert.Empty(t, f.handler.getHandled())
	assert.Equal(t, 1, logs.FilterMessage("outbox delivery failed").Len())
}

func TestOutboxProcessor_RetriesThenDeadLetters(t *testing.T) {
	f := newProcessorFixture(t)
	f.handler.setError(errors.New("storage unavailable"))
	entry := f.stage(t)

	core, logs := observer.New(zap.WarnLevel)
	p := f.processor(OutboxProcessorConfig{MaxRetries: 2}, zap.New(core))
	ctx := context.Background()

	p.ProcessOnce(ctx)
	stored := f.reload(t, entry)
	assert.Equal(t, shared.OutboxStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Contains(t, stored.LastError, "storage unavailable")
	require.NotNil(t, stored.NextRetryAt)
	assert.True(t, stored.NextRetryAt.After(time.Now()))

	// the backoff has not elapsed, so a regular pass leaves it alone
	p.ProcessOnce(ctx)
	assert.Equal(t, 1, f.reload(t, entry).RetryCount)

	// second attempt exhausts the budget
	assert.Equal(t, 0, p.claimAndDeliver(ctx, []*shared.OutboxEntry{stored}))
	dead := f.reload(t, entry)
	assert.Equal(t, shared.OutboxStatusDead, dead.Status)
	assert.Equal(t, 2, dead.RetryCount)
	assert.Len(t, f.handler.getHandled(), 2)
	assert.Equal(t, 1, logs.FilterMessage("event moved to dead letter queue").Len())
}

func TestOutboxProcessor_RecoversAfterTransientFailure(t *testing.T) {
	f := newProcessorFixture(t)
	f.handler.setError(errors.New("timeout"))
	entry := f.stage(t)

	p := f.processor(DefaultOutboxProcessorConfig(), zap.NewNop())
	ctx := context.Background()

	p.ProcessOnce(ctx)
	f.handler.setError(nil)
	assert.Equal(t, 1, p.claimAndDeliver(ctx, []*shared.OutboxEntry{f.reload(t, entry)}))

	stored := f.reload(t, entry)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
}

func TestOutboxProcessor_CleanupKeepsRecentRows(t *testing.T) {
	f := newProcessorFixture(t)
	old := f.stage(t)
	recent := f.stage(t)
	ctx := context.Background()

	p := f.processor(DefaultOutboxProcessorConfig(), zap.NewNop())
	require.Equal(t, 2, p.ProcessOnce(ctx))

	stale := f.reload(t, old)
	processed := time.Now().Add(-30 * 24 * time.Hour)
	stale.ProcessedAt = &processed
	require.NoError(t, f.repo.Update(ctx, stale))

	p.cleanup(ctx)

	_, err := f.repo.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, shared.OutboxStatusSent, f.reload(t, recent).Status)
}

type failingOutbox struct {
	*GormOutboxRepository
}

func (failingOutbox) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) {
	return nil, errors.New("connection reset")
}

func TestOutboxProcessor_RepositoryErrorIsLogged(t *testing.T) {
	f := newProcessorFixture(t)
	core, logs := observer.New(zap.ErrorLevel)
	p := NewOutboxProcessor(failingOutbox{f.repo}, f.bus, f.serializer, OutboxProcessorConfig{}, zap.New(core))

	assert.Equal(t, 0, p.ProcessOnce(context.Background()))
	entries := logs.FilterMessage("failed to find pending entries").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "connection reset", entries[0].ContextMap()["error"])
}

func TestDefaultOutboxProcessorConfig(t *testing.T) {
	cfg := DefaultOutboxProcessorConfig()

	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.True(t, cfg.CleanupEnabled)
	assert.Equal(t, 7*24*time.Hour, cfg.CleanupRetention)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestOutboxProcessorConfigFrom(t *testing.T) {
	cfg := OutboxProcessorConfigFrom(appconfig.EventConfig{
		BatchSize:    20,
		PollInterval: time.Second,
		MaxRetries:   3,
	})

	assert.Equal(t, 20, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.False(t, cfg.CleanupEnabled)
	assert.Equal(t, 7*24*time.Hour, cfg.CleanupRetention)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
