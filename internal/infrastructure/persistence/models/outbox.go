package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
)

// OutboxEventModel is a row of outbox_events: one staged domain event,
// in practice a card render job, plus its delivery bookkeeping.
type OutboxEventModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType      string    `gorm:"type:varchar(255);not null"`
	AggregateID    uuid.UUID `gorm:"type:uuid;not null;index:idx_outbox_aggregate"`
	AggregateType  string    `gorm:"type:varchar(255);not null"`
	IdempotencyKey string    `gorm:"type:varchar(255);index:idx_outbox_idempotency_key"`
	Payload        []byte    `gorm:"type:jsonb;not null"`

	Status      shared.OutboxStatus `gorm:"type:varchar(20);not null;default:PENDING;index:idx_outbox_status_created,priority:1"`
	RetryCount  int                 `gorm:"not null;default:0"`
	MaxRetries  int                 `gorm:"not null;default:5"`
	LastError   string              `gorm:"type:text"`
	NextRetryAt *time.Time          `gorm:"index:idx_outbox_next_retry"`
	ProcessedAt *time.Time

	CreatedAt time.Time `gorm:"not null;index:idx_outbox_status_created,priority:2"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OutboxEventModel) TableName() string {
	return "outbox_events"
}

// NewOutboxEventModel maps an outbox entry onto its row
func NewOutboxEventModel(e *shared.OutboxEntry) *OutboxEventModel {
	return &OutboxEventModel{
		ID:             e.ID,
		EventID:        e.EventID,
		EventType:      e.EventType,
		AggregateID:    e.AggregateID,
		AggregateType:  e.AggregateType,
		IdempotencyKey: e.IdempotencyKey,
		Payload:        e.Payload,
		Status:         e.Status,
		RetryCount:     e.RetryCount,
		MaxRetries:     e.MaxRetries,
		LastError:      e.LastError,
		NextRetryAt:    e.NextRetryAt,
		ProcessedAt:    e.ProcessedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// Entry rebuilds the domain outbox entry
func (m *OutboxEventModel) Entry() *shared.OutboxEntry {
	return &shared.OutboxEntry{
		ID:             m.ID,
		EventID:        m.EventID,
		EventType:      m.EventType,
		AggregateID:    m.AggregateID,
		AggregateType:  m.AggregateType,
		IdempotencyKey: m.IdempotencyKey,
		Payload:        m.Payload,
		Status:         m.Status,
		RetryCount:     m.RetryCount,
		MaxRetries:     m.MaxRetries,
		LastError:      m.LastError,
		NextRetryAt:    m.NextRetryAt,
		ProcessedAt:    m.ProcessedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
