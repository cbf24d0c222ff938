package membership

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Membership domain event types
const (
	EventTypeClientRegistered    = "membership.client.registered"
	EventTypePaymentRegistered   = "membership.payment.registered"
	EventTypePaymentVoided       = "membership.payment.voided"
	EventTypeCardRenderRequested = "membership.card.render_requested"
)

// ClientRegisteredEvent is published when an alta completes
type ClientRegisteredEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID `json:"client_id"`
	FullName string    `json:"full_name"`
}

// NewClientRegisteredEvent creates a new ClientRegisteredEvent
func NewClientRegisteredEvent(c *Client) *ClientRegisteredEvent {
	return &ClientRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientRegistered, aggregateTypeClient, c.ID),
		ClientID:        c.ID,
		FullName:        c.FullName(),
	}
}

// PaymentRegisteredEvent is published when a paid period enters the ledger
type PaymentRegisteredEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	ClientID  uuid.UUID       `json:"client_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Period    Period          `json:"period"`
}

// NewPaymentRegisteredEvent creates a new PaymentRegisteredEvent
func NewPaymentRegisteredEvent(p *Payment) *PaymentRegisteredEvent {
	return &PaymentRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRegistered, aggregateTypeClient, p.ClientID),
		PaymentID:       p.ID,
		ClientID:        p.ClientID,
		Amount:          p.Amount,
		Method:          p.Method,
		Period:          p.Period,
	}
}

// PaymentVoidedEvent is published when a paid row is anulado
type PaymentVoidedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	ClientID  uuid.UUID       `json:"client_id"`
	Amount    decimal.Decimal `json:"amount"`
	Period    Period          `json:"period"`
	Reason    string          `json:"reason"`
}

// NewPaymentVoidedEvent creates a new PaymentVoidedEvent
func NewPaymentVoidedEvent(p *Payment) *PaymentVoidedEvent {
	return &PaymentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentVoided, aggregateTypeClient, p.ClientID),
		PaymentID:       p.ID,
		ClientID:        p.ClientID,
		Amount:          p.Amount,
		Period:          p.Period,
		Reason:          p.VoidReason,
	}
}

// CardRenderRequestedEvent asks the outbox to draw and upload the card
// image. It is written in the same transaction as the card row change.
type CardRenderRequestedEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID `json:"client_id"`
	CardID   uuid.UUID `json:"card_id"`
	Revision int       `json:"revision"`
	Period   Period    `json:"period"`
}

// NewCardRenderRequestedEvent creates a render job for the card at revision
func NewCardRenderRequestedEvent(card *MembershipCard, period Period) *CardRenderRequestedEvent {
	return &CardRenderRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCardRenderRequested, aggregateTypeCard, card.ID),
		ClientID:        card.ClientID,
		CardID:          card.ID,
		Revision:        card.Revision,
		Period:          period,
	}
}

// IdempotencyKey is clientId:YYYY-MM
func (e *CardRenderRequestedEvent) IdempotencyKey() string {
	return RenderIdempotencyKey(e.ClientID, e.Period)
}

// RenderIdempotencyKey builds the token that identifies a render job
func RenderIdempotencyKey(clientID uuid.UUID, p Period) string {
	return fmt.Sprintf("%s:%s", clientID, p.Key())
}
