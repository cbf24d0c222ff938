package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository persists usuario rows
type AccountRepository interface {
	// Create inserts a new account
	Create(ctx context.Context, account *Account) error

	// FindByID finds an account by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByUsername finds an account by its case-insensitive username
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// RecordLogin stamps the last successful login
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// ExistsByUsername checks if a username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if an email is taken
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Deactivate disables the login
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ClientRepository persists cliente rows
type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	Update(ctx context.Context, client *Client) error

	// FindByID returns ErrClientNotFound when there is no row
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindByIDForUpdate loads the client and holds a row lock until the
	// surrounding transaction ends. Payments for one client serialize here.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindAll lists clients matching the filter
	FindAll(ctx context.Context, filter ClientFilter) ([]*Client, int64, error)

	// FindExpiringBetween lists active clients with a phone whose expiration
	// falls within [from, to]
	FindExpiringBetween(ctx context.Context, from, to time.Time) ([]*Client, error)
}

// ClientFilter narrows client listings
type ClientFilter struct {
	Search    string
	Status    *Status
	TrainerID *uuid.UUID
	// IncludeInactive also returns soft-deactivated clients
	IncludeInactive bool
	// Today anchors the status filter; zero means now
	Today time.Time
	// SortBy is an API sort key; the store whitelists it
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// PaymentRepository is the ledger store
type PaymentRepository interface {
	// Create inserts a ledger row. A concurrent paid row for the same
	// (client, period) surfaces as ErrPeriodAlreadyPaid.
	Create(ctx context.Context, payment *Payment) error

	// Update persists a void
	Update(ctx context.Context, payment *Payment) error

	// FindByID returns ErrPaymentNotFound when there is no row
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindPaid returns the paid row for (client, period), or nil
	FindPaid(ctx context.Context, clientID uuid.UUID, period Period) (*Payment, error)

	// PaidPeriods returns every period the client has a paid row for
	PaidPeriods(ctx context.Context, clientID uuid.UUID) (PeriodSet, error)

	// FindAll lists payments matching the filter, newest first
	FindAll(ctx context.Context, filter PaymentFilter) ([]*Payment, int64, error)
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	ClientID  *uuid.UUID
	Status    *PaymentStatus
	Method    *PaymentMethod
	Month     *int
	Year      *int
	From      *time.Time
	To        *time.Time
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// CardRepository persists carnets rows
type CardRepository interface {
	// FindActive returns the client's active card or ErrCardNotFound
	FindActive(ctx context.Context, clientID uuid.UUID) (*MembershipCard, error)

	// FindByID returns the card regardless of its active flag
	FindByID(ctx context.Context, id uuid.UUID) (*MembershipCard, error)

	// UpsertForPeriod inserts the active card for the client or merges
	// period into the existing one in a single statement. A card of a
	// different year is returned unchanged.
	UpsertForPeriod(ctx context.Context, card *MembershipCard) (*MembershipCard, error)

	// SupersedeOlderThan deactivates the active card when its year is
	// earlier than year. It reports whether a card was retired.
	SupersedeOlderThan(ctx context.Context, clientID uuid.UUID, year int, now time.Time) (bool, error)

	// SaveMonths persists MonthsPaid and Revision of an existing card
	SaveMonths(ctx context.Context, card *MembershipCard) error

	// MarkRendered stores the blob reference if revision is newer than the
	// one already rendered. It reports whether the row changed.
	MarkRendered(ctx context.Context, cardID uuid.UUID, revision int, key, url string) (bool, error)
}

// TrainerRepository reads entrenador rows
type TrainerRepository interface {
	FindAll(ctx context.Context, availableOnly bool) ([]*Trainer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Trainer, error)
}
