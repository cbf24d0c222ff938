package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNotificationService_UpcomingExpirations(t *testing.T) {
	store := newMemoryStore()
	today := day(2024, 3, 10)
	add := func(name, phone string, expiration *int) {
		c, err := membership.NewClient(uuid.New(), name, "Test", phone, day(2024, 1, 1))
		require.NoError(t, err)
		if expiration != nil {
			exp := today.AddDate(0, 0, *expiration)
			c.ExpirationDate = &exp
		}
		require.NoError(t, memClients{store}.Create(context.Background(), c))
	}
	add("Hoy", "1100000001", intPtr(0))
	add("Tres", "1100000003", intPtr(3))
	add("Cinco", "1100000005", intPtr(5))
	add("Vencido", "1100000009", intPtr(-1))
	add("SinTelefono", "", intPtr(1))
	add("SinPago", "1100000010", nil)

	svc := NewNotificationService(memClients{store}, messaging.NewWhatsAppLinkBuilder("54", "ONIX GYM"), 3, zaptest.NewLogger(t))
	svc.SetClock(fixedClock(today))

	reminders, err := svc.UpcomingExpirations(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, reminders, 2)
	assert.Equal(t, "Hoy Test", reminders[0].Client.FullName)
	assert.Equal(t, 0, reminders[0].DaysLeft)
	assert.Equal(t, "Tres Test", reminders[1].Client.FullName)
	assert.Equal(t, 3, reminders[1].DaysLeft)
	assert.Equal(t, "2024-03-13", reminders[1].ExpirationDate)

	require.NotNil(t, reminders[1].WhatsApp)
	assert.Equal(t, "541100000003", reminders[1].WhatsApp.Phone)
	assert.Contains(t, reminders[1].WhatsApp.URL, "https://wa.me/541100000003?text=")
	assert.Contains(t, reminders[1].WhatsApp.Message, "RECORDATORIO")

	reminders, err = svc.UpcomingExpirations(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, reminders, 3)
}

func TestNotificationService_WindowIsCapped(t *testing.T) {
	today := day(2024, 3, 10)
	clients := new(MockClientRepository)
	clients.On("FindExpiringBetween", mock.Anything, today, today.AddDate(0, 0, 60)).Return([]*membership.Client{}, nil)

	svc := NewNotificationService(clients, messaging.NewWhatsAppLinkBuilder("", ""), 0, zaptest.NewLogger(t))
	svc.SetClock(fixedClock(today))

	reminders, err := svc.UpcomingExpirations(context.Background(), 365)
	require.NoError(t, err)
	assert.Empty(t, reminders)
	clients.AssertExpectations(t)
}

func TestNotificationService_RepositoryError(t *testing.T) {
	clients := new(MockClientRepository)
	clients.On("FindExpiringBetween", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	svc := NewNotificationService(clients, messaging.NewWhatsAppLinkBuilder("", ""), 3, zaptest.NewLogger(t))
	_, err := svc.UpcomingExpirations(context.Background(), 3)
	assert.ErrorContains(t, err, "failed to find expiring clients")
}
