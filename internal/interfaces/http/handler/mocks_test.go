package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/application/event"
	appmembership "github.com/onixgym/backend/internal/application/membership"
	"github.com/onixgym/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

// MockAuthUseCases is a mock implementation of AuthUseCases
type MockAuthUseCases struct {
	mock.Mock
}

func (m *MockAuthUseCases) Login(ctx context.Context, req appmembership.LoginRequest) (*appmembership.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.LoginResponse), args.Error(1)
}

func (m *MockAuthUseCases) Logout(ctx context.Context, claims *auth.Claims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

// MockMembershipUseCases is a mock implementation of MembershipUseCases
type MockMembershipUseCases struct {
	mock.Mock
}

func (m *MockMembershipUseCases) RegisterClient(ctx context.Context, actorID uuid.UUID, req appmembership.RegisterClientRequest) (*appmembership.RegistrationResponse, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.RegistrationResponse), args.Error(1)
}

func (m *MockMembershipUseCases) RegisterPayment(ctx context.Context, actorID uuid.UUID, req appmembership.RegisterPaymentRequest) (*appmembership.PaymentReceipt, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.PaymentReceipt), args.Error(1)
}

func (m *MockMembershipUseCases) VoidPayment(ctx context.Context, actorID, paymentID uuid.UUID, req appmembership.VoidPaymentRequest) (*appmembership.PaymentReceipt, error) {
	args := m.Called(ctx, actorID, paymentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.PaymentReceipt), args.Error(1)
}

// MockClientUseCases is a mock implementation of ClientUseCases
type MockClientUseCases struct {
	mock.Mock
}

func (m *MockClientUseCases) GetByID(ctx context.Context, id uuid.UUID) (*appmembership.ClientResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.ClientResponse), args.Error(1)
}

func (m *MockClientUseCases) List(ctx context.Context, filter appmembership.ClientListFilter) ([]appmembership.ClientResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appmembership.ClientResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientUseCases) Update(ctx context.Context, id uuid.UUID, req appmembership.UpdateClientRequest) (*appmembership.ClientResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.ClientResponse), args.Error(1)
}

func (m *MockClientUseCases) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPaymentQueries is a mock implementation of PaymentQueries
type MockPaymentQueries struct {
	mock.Mock
}

func (m *MockPaymentQueries) GetByID(ctx context.Context, id uuid.UUID) (*appmembership.PaymentResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.PaymentResponse), args.Error(1)
}

func (m *MockPaymentQueries) List(ctx context.Context, filter appmembership.PaymentListFilter) ([]appmembership.PaymentResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appmembership.PaymentResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentQueries) ListForClient(ctx context.Context, clientID uuid.UUID, filter appmembership.PaymentListFilter) ([]appmembership.PaymentResponse, int64, error) {
	args := m.Called(ctx, clientID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appmembership.PaymentResponse), args.Get(1).(int64), args.Error(2)
}

// MockCardUseCases is a mock implementation of CardUseCases
type MockCardUseCases struct {
	mock.Mock
}

func (m *MockCardUseCases) Get(ctx context.Context, clientID uuid.UUID) (*appmembership.CardResponse, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.CardResponse), args.Error(1)
}

func (m *MockCardUseCases) Image(ctx context.Context, clientID uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCardUseCases) Regenerate(ctx context.Context, clientID uuid.UUID) (*appmembership.CardResponse, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.CardResponse), args.Error(1)
}

func (m *MockCardUseCases) WhatsAppLink(ctx context.Context, clientID uuid.UUID, req appmembership.CardLinkRequest) (*appmembership.CardLinkResponse, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.CardLinkResponse), args.Error(1)
}

// MockTrainerQueries is a mock implementation of TrainerQueries
type MockTrainerQueries struct {
	mock.Mock
}

func (m *MockTrainerQueries) List(ctx context.Context, availableOnly bool) ([]appmembership.TrainerResponse, error) {
	args := m.Called(ctx, availableOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appmembership.TrainerResponse), args.Error(1)
}

// MockDashboardQueries is a mock implementation of DashboardQueries
type MockDashboardQueries struct {
	mock.Mock
}

func (m *MockDashboardQueries) Summary(ctx context.Context) (*appmembership.DashboardResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmembership.DashboardResponse), args.Error(1)
}

// MockReminderQueries is a mock implementation of ReminderQueries
type MockReminderQueries struct {
	mock.Mock
}

func (m *MockReminderQueries) UpcomingExpirations(ctx context.Context, days int) ([]appmembership.ExpirationReminder, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appmembership.ExpirationReminder), args.Error(1)
}

// MockCardJobUseCases is a mock implementation of CardJobUseCases
type MockCardJobUseCases struct {
	mock.Mock
}

func (m *MockCardJobUseCases) ListDead(ctx context.Context, filter event.CardJobFilter) (*event.CardJobListResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.CardJobListResult), args.Error(1)
}

func (m *MockCardJobUseCases) Get(ctx context.Context, id uuid.UUID) (*event.CardJobDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.CardJobDTO), args.Error(1)
}

func (m *MockCardJobUseCases) Retry(ctx context.Context, id uuid.UUID) (*event.CardJobDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.CardJobDTO), args.Error(1)
}

func (m *MockCardJobUseCases) RetryAllDead(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCardJobUseCases) Stats(ctx context.Context) (*event.CardJobStatsDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.CardJobStatsDTO), args.Error(1)
}
