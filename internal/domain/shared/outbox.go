package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the lifecycle state of a follow-up job
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
	// MaxBackoff caps the delay between two attempts of the same job
	MaxBackoff = 5 * time.Minute
)

// ErrInvalidOutboxTransition is returned when a job is moved to a state its
// current state does not allow.
var ErrInvalidOutboxTransition = errors.New("invalid outbox transition")

// OutboxEntry is a follow-up job (card render, card upload) written in the
// same transaction as the membership change that produced it. The processor
// picks it up later, so a slow renderer never blocks the reception desk.
type OutboxEntry struct {
	ID             uuid.UUID
	EventID        uuid.UUID
	EventType      string
	AggregateID    uuid.UUID
	AggregateType  string
	IdempotencyKey string
	Payload        []byte
	Status         OutboxStatus
	RetryCount     int
	MaxRetries     int
	LastError      string
	NextRetryAt    *time.Time
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewOutboxEntry wraps an already serialized event
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	entry := &OutboxEntry{
		ID:            uuid.New(),
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		Payload:       payload,
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultMaxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if keyed, ok := event.(KeyedEvent); ok {
		entry.IdempotencyKey = keyed.IdempotencyKey()
	}
	return entry
}

// RetryBackoff is the delay before the given attempt: 1s, 2s, 4s and so on,
// capped at MaxBackoff.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	delay := DefaultBaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= MaxBackoff {
			return MaxBackoff
		}
	}
	return delay
}

func (e *OutboxEntry) transition(to OutboxStatus, allowed ...OutboxStatus) error {
	for _, from := range allowed {
		if e.Status == from {
			e.Status = to
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidOutboxTransition, e.Status, to)
}

// CanRetry reports whether a failed job still has attempts left
func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

// MarkProcessing claims a pending or failed job
func (e *OutboxEntry) MarkProcessing() error {
	return e.transition(OutboxStatusProcessing, OutboxStatusPending, OutboxStatusFailed)
}

func (e *OutboxEntry) MarkSent() {
	now := time.Now()
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records the error. The job is scheduled again after
// RetryBackoff, or dead-lettered once MaxRetries attempts have failed.
func (e *OutboxEntry) MarkFailed(errMsg string) {
	now := time.Now()
	e.RetryCount++
	e.LastError = errMsg
	e.UpdatedAt = now

	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := now.Add(RetryBackoff(e.RetryCount))
	e.NextRetryAt = &next
}

// ResetForRetry puts a dead job back in the queue with a fresh budget
func (e *OutboxEntry) ResetForRetry() error {
	if err := e.transition(OutboxStatusPending, OutboxStatusDead); err != nil {
		return err
	}
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	return nil
}

func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// OutboxRepository persists follow-up jobs
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns failed jobs whose NextRetryAt is before the given time
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	FindDead(ctx context.Context, page, pageSize int) ([]*OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// MarkProcessing claims the given jobs and returns the ones this caller won
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteOlderThan removes sent jobs processed before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
