package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CardRenderHandler draws and uploads card images for
// CardRenderRequestedEvent. A returned error leaves the outbox entry for
// retry with backoff; an upload failure is the usual retryable case.
type CardRenderHandler struct {
	registry *CardRegistry
	logger   *zap.Logger
}

// NewCardRenderHandler creates a new handler for card render requests
func NewCardRenderHandler(registry *CardRegistry, logger *zap.Logger) *CardRenderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardRenderHandler{
		registry: registry,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *CardRenderHandler) EventTypes() []string {
	return []string{membership.EventTypeCardRenderRequested}
}

// Handle renders the client's active card. The image is always drawn from
// the card's full month set, so several queued requests for one client
// collapse into a single upload.
func (h *CardRenderHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	req, ok := event.(*membership.CardRenderRequestedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", membership.EventTypeCardRenderRequested),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			membership.EventTypeCardRenderRequested, event.EventType())
	}

	stored, err := h.registry.RefreshImage(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, membership.ErrCardNotFound) {
			h.logger.Warn("card render requested for client without active card",
				zap.String("client_id", req.ClientID.String()),
				zap.String("idempotency_key", req.IdempotencyKey()),
			)
			return nil
		}
		h.logger.Error("card render failed",
			zap.String("client_id", req.ClientID.String()),
			zap.String("idempotency_key", req.IdempotencyKey()),
			zap.Int("revision", req.Revision),
			zap.String("code", shared.CodeOf(err)),
			zap.Error(err),
		)
		return err
	}

	h.logger.Debug("card render handled",
		zap.String("client_id", req.ClientID.String()),
		zap.String("idempotency_key", req.IdempotencyKey()),
		zap.Bool("stored", stored),
	)
	return nil
}

// Ensure CardRenderHandler implements EventHandler
var _ shared.EventHandler = (*CardRenderHandler)(nil)
