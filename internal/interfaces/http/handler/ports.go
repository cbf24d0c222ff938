package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/application/event"
	appmembership "github.com/onixgym/backend/internal/application/membership"
	"github.com/onixgym/backend/internal/infrastructure/auth"
)

// The interfaces below are the application services the handlers call.
// The concrete services in application/membership and application/event
// satisfy them.

// AuthUseCases issues and revokes access tokens
type AuthUseCases interface {
	Login(ctx context.Context, req appmembership.LoginRequest) (*appmembership.LoginResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

// MembershipUseCases are the writes that touch the ledger and the card
type MembershipUseCases interface {
	RegisterClient(ctx context.Context, actorID uuid.UUID, req appmembership.RegisterClientRequest) (*appmembership.RegistrationResponse, error)
	RegisterPayment(ctx context.Context, actorID uuid.UUID, req appmembership.RegisterPaymentRequest) (*appmembership.PaymentReceipt, error)
	VoidPayment(ctx context.Context, actorID, paymentID uuid.UUID, req appmembership.VoidPaymentRequest) (*appmembership.PaymentReceipt, error)
}

// ClientUseCases read and edit client profiles
type ClientUseCases interface {
	GetByID(ctx context.Context, id uuid.UUID) (*appmembership.ClientResponse, error)
	List(ctx context.Context, filter appmembership.ClientListFilter) ([]appmembership.ClientResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, req appmembership.UpdateClientRequest) (*appmembership.ClientResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// PaymentQueries read the ledger
type PaymentQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*appmembership.PaymentResponse, error)
	List(ctx context.Context, filter appmembership.PaymentListFilter) ([]appmembership.PaymentResponse, int64, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, filter appmembership.PaymentListFilter) ([]appmembership.PaymentResponse, int64, error)
}

// CardUseCases serve the membership card of a client
type CardUseCases interface {
	Get(ctx context.Context, clientID uuid.UUID) (*appmembership.CardResponse, error)
	Image(ctx context.Context, clientID uuid.UUID) ([]byte, error)
	Regenerate(ctx context.Context, clientID uuid.UUID) (*appmembership.CardResponse, error)
	WhatsAppLink(ctx context.Context, clientID uuid.UUID, req appmembership.CardLinkRequest) (*appmembership.CardLinkResponse, error)
}

// TrainerQueries list entrenadores
type TrainerQueries interface {
	List(ctx context.Context, availableOnly bool) ([]appmembership.TrainerResponse, error)
}

// DashboardQueries build the staff overview
type DashboardQueries interface {
	Summary(ctx context.Context) (*appmembership.DashboardResponse, error)
}

// ReminderQueries list members about to lapse
type ReminderQueries interface {
	UpcomingExpirations(ctx context.Context, days int) ([]appmembership.ExpirationReminder, error)
}

// CardJobUseCases manage card render jobs in the outbox
type CardJobUseCases interface {
	ListDead(ctx context.Context, filter event.CardJobFilter) (*event.CardJobListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*event.CardJobDTO, error)
	Retry(ctx context.Context, id uuid.UUID) (*event.CardJobDTO, error)
	RetryAllDead(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*event.CardJobStatsDTO, error)
}

var (
	_ AuthUseCases       = (*appmembership.AuthService)(nil)
	_ MembershipUseCases = (*appmembership.MembershipService)(nil)
	_ ClientUseCases     = (*appmembership.ClientService)(nil)
	_ PaymentQueries     = (*appmembership.PaymentService)(nil)
	_ CardUseCases       = (*appmembership.CardService)(nil)
	_ TrainerQueries     = (*appmembership.TrainerService)(nil)
	_ DashboardQueries   = (*appmembership.DashboardService)(nil)
	_ ReminderQueries    = (*appmembership.NotificationService)(nil)
	_ CardJobUseCases    = (*event.CardJobService)(nil)
)
