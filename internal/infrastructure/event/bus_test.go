package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Client", uuid.New()),
		Data:            "carnet 2024",
	}
}

type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("font missing") }

func (panickingHandler) EventTypes() []string { return []string{"TestEvent"} }

func TestInMemoryEventBus_Routing(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	render := newTestHandler("membership.card.render_requested")
	dashboard := newTestHandler("membership.payment.registered", "membership.payment.voided")
	audit := newTestHandler()
	bus.Subscribe(render)
	bus.Subscribe(dashboard)
	bus.Subscribe(audit)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("membership.payment.registered"),
		newTestEvent("membership.card.render_requested"),
		newTestEvent("membership.payment.voided"),
		newTestEvent("membership.client.registered"),
	))

	assert.Len(t, render.getHandled(), 1)
	assert.Len(t, dashboard.getHandled(), 2)
	assert.Len(t, audit.getHandled(), 4, "a handler without types sees every event")
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("membership.payment.registered")
	bus.Subscribe(handler, "membership.payment.voided")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("membership.payment.registered")))
	assert.Empty(t, handler.getHandled())

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("membership.payment.voided")))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_FailuresAreJoined(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("TestEvent")
	failing.setError(errors.New("storage unavailable"))
	after := newTestHandler("TestEvent")
	bus.Subscribe(failing)
	bus.Subscribe(panickingHandler{})
	bus.Subscribe(after)

	err := bus.Publish(context.Background(), newTestEvent("TestEvent"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage unavailable")
	assert.Contains(t, err.Error(), "font missing")
	assert.Len(t, after.getHandled(), 1, "later handlers still run")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("membership.payment.registered", "membership.payment.voided")
	other := newTestHandler("membership.payment.voided")
	catchAll := newTestHandler()
	bus.Subscribe(handler)
	bus.Subscribe(other)
	bus.Subscribe(catchAll)

	bus.Unsubscribe(handler)
	bus.Unsubscribe(catchAll)
	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("membership.payment.registered"),
		newTestEvent("membership.payment.voided"),
	))

	assert.Empty(t, handler.getHandled())
	assert.Empty(t, catchAll.getHandled())
	assert.Len(t, other.getHandled(), 1)
	assert.Empty(t, bus.handlersFor("membership.payment.registered"))
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(ctx, newTestEvent("TestEvent")))
	require.NoError(t, bus.Stop(ctx))

	assert.Len(t, handler.getHandled(), 1)
}
