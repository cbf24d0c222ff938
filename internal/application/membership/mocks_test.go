package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of membership.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *membership.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByUsername(ctx context.Context, username string) (*membership.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Account), args.Error(1)
}

func (m *MockAccountRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockClientRepository is a mock implementation of membership.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *membership.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Update(ctx context.Context, client *membership.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*membership.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Client), args.Error(1)
}

func (m *MockClientRepository) FindAll(ctx context.Context, filter membership.ClientFilter) ([]*membership.Client, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*membership.Client), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientRepository) FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*membership.Client, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*membership.Client), args.Error(1)
}

// MockPaymentRepository is a mock implementation of membership.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *membership.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *membership.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindPaid(ctx context.Context, clientID uuid.UUID, period membership.Period) (*membership.Payment, error) {
	args := m.Called(ctx, clientID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Payment), args.Error(1)
}

func (m *MockPaymentRepository) PaidPeriods(ctx context.Context, clientID uuid.UUID) (membership.PeriodSet, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(membership.PeriodSet), args.Error(1)
}

func (m *MockPaymentRepository) FindAll(ctx context.Context, filter membership.PaymentFilter) ([]*membership.Payment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*membership.Payment), args.Get(1).(int64), args.Error(2)
}

// MockTrainerRepository is a mock implementation of membership.TrainerRepository
type MockTrainerRepository struct {
	mock.Mock
}

func (m *MockTrainerRepository) FindAll(ctx context.Context, availableOnly bool) ([]*membership.Trainer, error) {
	args := m.Called(ctx, availableOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*membership.Trainer), args.Error(1)
}

func (m *MockTrainerRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.Trainer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Trainer), args.Error(1)
}

// MockStatsRepository is a mock implementation of membership.StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) CountByStatus(ctx context.Context, today time.Time) (membership.StatusCounts, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(membership.StatusCounts), args.Error(1)
}

func (m *MockStatsRepository) RecentClients(ctx context.Context, limit int) ([]*membership.Client, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*membership.Client), args.Error(1)
}

func (m *MockStatsRepository) OverdueClients(ctx context.Context, today time.Time, limit int) ([]*membership.Client, error) {
	args := m.Called(ctx, today, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*membership.Client), args.Error(1)
}

func (m *MockStatsRepository) MonthlyIncome(ctx context.Context, months int) ([]membership.MonthlyIncome, error) {
	args := m.Called(ctx, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]membership.MonthlyIncome), args.Error(1)
}

// MockCardRepository is a mock implementation of membership.CardRepository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) FindActive(ctx context.Context, clientID uuid.UUID) (*membership.MembershipCard, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.MembershipCard), args.Error(1)
}

func (m *MockCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*membership.MembershipCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.MembershipCard), args.Error(1)
}

func (m *MockCardRepository) UpsertForPeriod(ctx context.Context, card *membership.MembershipCard) (*membership.MembershipCard, error) {
	args := m.Called(ctx, card)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.MembershipCard), args.Error(1)
}

func (m *MockCardRepository) SupersedeOlderThan(ctx context.Context, clientID uuid.UUID, year int, now time.Time) (bool, error) {
	args := m.Called(ctx, clientID, year, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockCardRepository) SaveMonths(ctx context.Context, card *membership.MembershipCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) MarkRendered(ctx context.Context, cardID uuid.UUID, revision int, key, url string) (bool, error) {
	args := m.Called(ctx, cardID, revision, key, url)
	return args.Bool(0), args.Error(1)
}

// MockCardStore is a mock implementation of CardStore
type MockCardStore struct {
	mock.Mock
}

func (m *MockCardStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockCardStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCardStore) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// MockCardRenderer is a mock implementation of CardRenderer
type MockCardRenderer struct {
	mock.Mock
}

func (m *MockCardRenderer) Render(face membership.CardFace) ([]byte, error) {
	args := m.Called(face)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
