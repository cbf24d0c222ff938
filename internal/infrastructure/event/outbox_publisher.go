package event

import (
	"context"
	"fmt"

	"github.com/onixgym/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher writes domain events into outbox_events using the
// caller's transaction, so a render job is committed together with the
// payment that requested it or not at all.
type OutboxPublisher struct {
	serializer *EventSerializer
}

// NewOutboxPublisher returns a publisher encoding payloads with serializer
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// PublishWithTx stages events on tx. Nothing is written unless every
// event encodes.
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	staged, err := p.stage(events)
	if err != nil || len(staged) == 0 {
		return err
	}
	return NewGormOutboxRepository(tx).Save(ctx, staged...)
}

func (p *OutboxPublisher) stage(events []shared.DomainEvent) ([]*shared.OutboxEntry, error) {
	staged := make([]*shared.OutboxEntry, 0, len(events))
	for _, ev := range events {
		payload, err := p.serializer.Serialize(ev)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", ev.EventType(), err)
		}
		staged = append(staged, shared.NewOutboxEntry(ev, payload))
	}
	return staged, nil
}
