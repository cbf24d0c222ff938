package event

import (
	"github.com/onixgym/backend/internal/domain/membership"
)

// RegisterAllEvents registers the membership events with the serializer.
// The outbox only accepts, and the processor only replays, these types.
func RegisterAllEvents(serializer *EventSerializer) {
	Register[membership.ClientRegisteredEvent](serializer, membership.EventTypeClientRegistered)
	Register[membership.PaymentRegisteredEvent](serializer, membership.EventTypePaymentRegistered)
	Register[membership.PaymentVoidedEvent](serializer, membership.EventTypePaymentVoided)
	Register[membership.CardRenderRequestedEvent](serializer, membership.EventTypeCardRenderRequested)
}
