package membership

import (
	"context"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to the membership repositories.
// Everything done through the repositories handed to fn, including events
// written to the outbox, commits or rolls back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all membership repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	Accounts() membership.AccountRepository
	Clients() membership.ClientRepository
	Payments() membership.PaymentRepository
	Cards() membership.CardRepository
	// Events writes domain events to the outbox inside the transaction
	Events() shared.EventPublisher
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	accounts membership.AccountRepository
	clients  membership.ClientRepository
	payments membership.PaymentRepository
	cards    membership.CardRepository
	events   shared.EventPublisher
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	accounts membership.AccountRepository,
	clients membership.ClientRepository,
	payments membership.PaymentRepository,
	cards membership.CardRepository,
	events shared.EventPublisher,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		accounts: accounts,
		clients:  clients,
		payments: payments,
		cards:    cards,
		events:   events,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Accounts returns the account repository.
func (s *NoOpTransactionScope) Accounts() membership.AccountRepository { return s.accounts }

// Clients returns the client repository.
func (s *NoOpTransactionScope) Clients() membership.ClientRepository { return s.clients }

// Payments returns the payment repository.
func (s *NoOpTransactionScope) Payments() membership.PaymentRepository { return s.payments }

// Cards returns the card repository.
func (s *NoOpTransactionScope) Cards() membership.CardRepository { return s.cards }

// Events returns the event publisher.
func (s *NoOpTransactionScope) Events() shared.EventPublisher { return s.events }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
