package membership

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPaymentInput() NewPaymentInput {
	return NewPaymentInput{
		ClientID:    uuid.New(),
		Amount:      decimal.NewFromInt(24000),
		Method:      PaymentMethodCash,
		Period:      Period{Month: 1, Year: 2024},
		PaymentDate: day(2024, 1, 31),
	}
}

func TestNewPaidPayment(t *testing.T) {
	t.Run("defaults due date to one clamped month later", func(t *testing.T) {
		p, err := NewPaidPayment(validPaymentInput())
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPaid, p.Status)
		assert.Equal(t, day(2024, 2, 29), p.DueDate)
		assert.True(t, p.IsPaid())
		assert.Nil(t, p.RegisteredBy)
	})

	t.Run("keeps an explicit due date", func(t *testing.T) {
		in := validPaymentInput()
		due := day(2024, 2, 15)
		in.DueDate = &due
		p, err := NewPaidPayment(in)
		require.NoError(t, err)
		assert.Equal(t, due, p.DueDate)
	})

	t.Run("records who registered it", func(t *testing.T) {
		in := validPaymentInput()
		in.RegisteredBy = uuid.New()
		p, err := NewPaidPayment(in)
		require.NoError(t, err)
		require.NotNil(t, p.RegisteredBy)
		assert.Equal(t, in.RegisteredBy, *p.RegisteredBy)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
			in := validPaymentInput()
			in.Amount = amount
			_, err := NewPaidPayment(in)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
	})

	t.Run("rejects unknown methods", func(t *testing.T) {
		in := validPaymentInput()
		in.Method = "bitcoin"
		_, err := NewPaidPayment(in)
		assert.ErrorIs(t, err, ErrInvalidMethod)
	})

	t.Run("rejects invalid periods", func(t *testing.T) {
		in := validPaymentInput()
		in.Period = Period{Month: 13, Year: 2024}
		_, err := NewPaidPayment(in)
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCash, m)

	m, err = ParsePaymentMethod(" Transferencia ")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodTransfer, m)

	_, err = ParsePaymentMethod("cheque")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestPayment_Void(t *testing.T) {
	p, err := NewPaidPayment(validPaymentInput())
	require.NoError(t, err)
	by := uuid.New()
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	assert.Error(t, p.Void("  ", by, now))

	require.NoError(t, p.Void("cargado dos veces", by, now))
	assert.Equal(t, PaymentStatusVoid, p.Status)
	assert.False(t, p.IsPaid())
	assert.Equal(t, "cargado dos veces", p.VoidReason)
	assert.Equal(t, &by, p.VoidedBy)
	assert.Equal(t, now, *p.VoidedAt)

	assert.Error(t, p.Void("otra vez", by, now))
}
