package membership

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a fee was paid
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "efectivo"
	PaymentMethodCard     PaymentMethod = "tarjeta"
	PaymentMethodTransfer PaymentMethod = "transferencia"
	PaymentMethodOther    PaymentMethod = "otro"
)

// AllPaymentMethods returns the accepted methods
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodOther}
}

// IsValid reports whether m is a known method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// ParsePaymentMethod accepts the stored values case-insensitively; empty means cash
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PaymentMethodCash, nil
	}
	m := PaymentMethod(s)
	if !m.IsValid() {
		return "", shared.NewDomainError(CodeInvalidMethod, "Unknown payment method: "+s)
	}
	return m, nil
}

// PaymentStatus is the ledger state of a payment row
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "pagado"
	PaymentStatusPending PaymentStatus = "pendiente"
	PaymentStatusVoid    PaymentStatus = "anulado"
	PaymentStatusExpired PaymentStatus = "vencido"
)

// IsValid reports whether s is a known status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusVoid, PaymentStatusExpired:
		return true
	}
	return false
}

// Payment is a ledger row. Once paid it is immutable except for an explicit void.
type Payment struct {
	shared.BaseEntity
	ClientID     uuid.UUID
	Amount       decimal.Decimal
	Method       PaymentMethod
	Period       Period
	PaymentDate  time.Time
	DueDate      time.Time
	Status       PaymentStatus
	Reference    string
	Notes        string
	RegisteredBy *uuid.UUID
	VoidedAt     *time.Time
	VoidedBy     *uuid.UUID
	VoidReason   string
}

// NewPaymentInput collects what the ledger needs to record a paid period
type NewPaymentInput struct {
	ClientID     uuid.UUID
	Amount       decimal.Decimal
	Method       PaymentMethod
	Period       Period
	PaymentDate  time.Time
	DueDate      *time.Time
	Reference    string
	Notes        string
	RegisteredBy uuid.UUID
}

// NewPaidPayment validates the input and builds a paid ledger row.
// The due date defaults to one calendar month after the payment date.
func NewPaidPayment(in NewPaymentInput) (*Payment, error) {
	if in.ClientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment requires a client")
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !in.Method.IsValid() {
		return nil, shared.NewDomainError(CodeInvalidMethod, "Unknown payment method: "+string(in.Method))
	}
	if _, err := NewPeriod(in.Period.Month, in.Period.Year); err != nil {
		return nil, err
	}
	if in.PaymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Payment date is required")
	}

	due := AddMonths(in.PaymentDate, 1)
	if in.DueDate != nil {
		due = DateOf(*in.DueDate)
	}

	p := &Payment{
		BaseEntity:  shared.NewBaseEntity(),
		ClientID:    in.ClientID,
		Amount:      in.Amount,
		Method:      in.Method,
		Period:      in.Period,
		PaymentDate: in.PaymentDate,
		DueDate:     due,
		Status:      PaymentStatusPaid,
		Reference:   strings.TrimSpace(in.Reference),
		Notes:       strings.TrimSpace(in.Notes),
	}
	if in.RegisteredBy != uuid.Nil {
		by := in.RegisteredBy
		p.RegisteredBy = &by
	}
	return p, nil
}

// IsPaid reports whether the row counts toward the period
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// Void marks a paid row as anulado. The row stays in the ledger.
func (p *Payment) Void(reason string, by uuid.UUID, now time.Time) error {
	if p.Status != PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Only paid payments can be voided")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "A reason is required to void a payment")
	}
	p.Status = PaymentStatusVoid
	p.VoidReason = reason
	p.VoidedAt = &now
	if by != uuid.Nil {
		p.VoidedBy = &by
	}
	p.UpdatedAt = now
	return nil
}
