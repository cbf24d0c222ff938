package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "usuario", AccountModel{}.TableName())
	assert.Equal(t, "cliente", ClientModel{}.TableName())
	assert.Equal(t, "entrenador", TrainerModel{}.TableName())
	assert.Equal(t, "pagos", PaymentModel{}.TableName())
	assert.Equal(t, "carnets", CardModel{}.TableName())
	assert.Equal(t, "outbox_events", OutboxEventModel{}.TableName())
}

func TestPeriodList_Value(t *testing.T) {
	l := PeriodList(membership.NewPeriodSet(
		membership.Period{Month: 7, Year: 2024},
		membership.Period{Month: 3, Year: 2024},
	))

	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, `[{"mes":3,"ano":2024},{"mes":7,"ano":2024}]`, v)

	empty, err := PeriodList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)
}

func TestPeriodList_Scan(t *testing.T) {
	t.Run("bytes are normalized", func(t *testing.T) {
		var l PeriodList
		require.NoError(t, l.Scan([]byte(`[{"mes":2,"ano":2024},{"mes":1,"ano":2024},{"mes":2,"ano":2024}]`)))
		assert.Equal(t, []int{1, 2}, membership.PeriodSet(l).MonthsOf(2024))
	})

	t.Run("string", func(t *testing.T) {
		var l PeriodList
		require.NoError(t, l.Scan(`[{"mes":12,"ano":2023}]`))
		assert.True(t, membership.PeriodSet(l).Contains(membership.Period{Month: 12, Year: 2023}))
	})

	t.Run("nil", func(t *testing.T) {
		l := PeriodList{{Month: 1, Year: 2024}}
		require.NoError(t, l.Scan(nil))
		assert.Nil(t, l)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var l PeriodList
		assert.Error(t, l.Scan(42))
	})
}

func TestClientModel_RoundTrip(t *testing.T) {
	id := uuid.New()
	client, err := membership.NewClient(id, "Ana", "Pérez", "11 5555 0000", time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	client.ApplyPaidPeriod(membership.Period{Month: 1, Year: 2024}, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	got := ClientModelFromDomain(client).ToDomain()

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, client.InscriptionDate, got.InscriptionDate)
	require.NotNil(t, got.ExpirationDate)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), *got.ExpirationDate)
	assert.Equal(t, client.Status, got.Status)
	assert.Equal(t, client.Version, got.Version)
}

func TestPaymentModel_RoundTrip(t *testing.T) {
	p, err := membership.NewPaidPayment(membership.NewPaymentInput{
		ClientID:    uuid.New(),
		Amount:      decimal.NewFromInt(24000),
		Method:      membership.PaymentMethodTransfer,
		Period:      membership.Period{Month: 5, Year: 2024},
		PaymentDate: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
		Reference:   "TRX-1",
	})
	require.NoError(t, err)

	m := PaymentModelFromDomain(p)
	assert.Equal(t, 5, m.PeriodMonth)
	assert.Equal(t, 2024, m.PeriodYear)

	got := m.ToDomain()
	assert.Equal(t, p.Period, got.Period)
	assert.True(t, p.Amount.Equal(got.Amount))
	assert.Equal(t, membership.PaymentStatusPaid, got.Status)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), got.DueDate)
}

func TestCardModel_RoundTrip(t *testing.T) {
	issuer := uuid.New()
	card, err := membership.NewMembershipCard(uuid.New(), issuer, membership.Period{Month: 1, Year: 2024}, time.Now())
	require.NoError(t, err)
	_, err = card.Merge(membership.Period{Month: 2, Year: 2024})
	require.NoError(t, err)

	got := CardModelFromDomain(card).ToDomain()

	assert.Equal(t, card.ID, got.ID)
	assert.Equal(t, []int{1, 2}, got.MonthsForYear())
	assert.Equal(t, 2, got.Revision)
	assert.Equal(t, &issuer, got.IssuedBy)
	assert.True(t, got.Active)
}
