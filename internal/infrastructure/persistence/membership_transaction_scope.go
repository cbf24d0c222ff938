package persistence

import (
	"context"

	appmembership "github.com/onixgym/backend/internal/application/membership"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// TxEventWriter writes domain events using the given transaction.
// event.OutboxPublisher satisfies it.
type TxEventWriter interface {
	PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error
}

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db     *gorm.DB
	events TxEventWriter
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, events TxEventWriter) *GormTransactionScope {
	return &GormTransactionScope{db: db, events: events}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appmembership.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, events: s.events})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	events TxEventWriter
}

// Accounts returns the account repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Accounts() membership.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// Clients returns the client repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Clients() membership.ClientRepository {
	return NewGormClientRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() membership.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Cards returns the card repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Cards() membership.CardRepository {
	return NewGormCardRepository(r.tx)
}

// Events returns a publisher that appends to the outbox inside the transaction.
func (r *gormTransactionalRepositories) Events() shared.EventPublisher {
	return txPublisher{tx: r.tx, writer: r.events}
}

type txPublisher struct {
	tx     *gorm.DB
	writer TxEventWriter
}

func (p txPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return p.writer.PublishWithTx(ctx, p.tx, events...)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appmembership.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appmembership.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
