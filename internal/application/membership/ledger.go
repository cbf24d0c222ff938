package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/shopspring/decimal"
)

// Ledger records paid periods. Build one per transaction so the duplicate
// check and the insert run on the same connection as the client row lock.
type Ledger struct {
	payments membership.PaymentRepository
}

// NewLedger creates a ledger over payments
func NewLedger(payments membership.PaymentRepository) *Ledger {
	return &Ledger{payments: payments}
}

// RegisterCommand is a validated request to record one paid period
type RegisterCommand struct {
	ClientID     uuid.UUID
	Amount       decimal.Decimal
	Method       membership.PaymentMethod
	Period       membership.Period
	PaymentDate  time.Time
	DueDate      *time.Time
	Reference    string
	Notes        string
	RegisteredBy uuid.UUID
}

// Register inserts a paid row for the period. It fails with
// PERIOD_ALREADY_PAID when the client already paid it; the partial unique
// index catches the same conflict if two writers race past the check.
func (l *Ledger) Register(ctx context.Context, cmd RegisterCommand) (*membership.Payment, error) {
	payment, err := membership.NewPaidPayment(membership.NewPaymentInput{
		ClientID:     cmd.ClientID,
		Amount:       cmd.Amount,
		Method:       cmd.Method,
		Period:       cmd.Period,
		PaymentDate:  cmd.PaymentDate,
		DueDate:      cmd.DueDate,
		Reference:    cmd.Reference,
		Notes:        cmd.Notes,
		RegisteredBy: cmd.RegisteredBy,
	})
	if err != nil {
		return nil, err
	}

	existing, err := l.payments.FindPaid(ctx, cmd.ClientID, cmd.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to check paid period: %w", err)
	}
	if existing != nil {
		return nil, membership.NewPeriodAlreadyPaidError(cmd.Period)
	}

	if err := l.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, membership.ErrPeriodAlreadyPaid) {
			return nil, membership.NewPeriodAlreadyPaidError(cmd.Period)
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

// ResolvePeriod turns the optional month and year of a request into a
// period. Both absent means the month of paymentDate; giving only one of
// them is an error.
func ResolvePeriod(month, year *int, paymentDate time.Time) (membership.Period, error) {
	switch {
	case month == nil && year == nil:
		return membership.PeriodOf(paymentDate), nil
	case month == nil || year == nil:
		return membership.Period{}, membership.NewInvalidPeriodError("month and year are required together")
	}
	return membership.NewPeriod(*month, *year)
}

// ParseDate reads an optional YYYY-MM-DD value; empty yields fallback
func ParseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return membership.DateOf(fallback), nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, membership.NewInvalidDateError(value)
	}
	return t, nil
}
