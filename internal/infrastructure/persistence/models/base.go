package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/shared"
)

// BaseModel holds the id and the creado_en / actualizado_en columns
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"column:creado_en;not null"`
	UpdatedAt time.Time `gorm:"column:actualizado_en;not null"`
}

// ToEntity converts the columns to a domain BaseEntity
func (m *BaseModel) ToEntity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// FromEntity copies a domain BaseEntity into the columns
func (m *BaseModel) FromEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AuditedModel adds the version and creado_por columns of usuario and cliente
type AuditedModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	CreatedBy *uuid.UUID `gorm:"column:creado_por;type:uuid"`
}

// ToAudited converts the columns to a domain Audited
func (m *AuditedModel) ToAudited() shared.Audited {
	return shared.Audited{
		Versioned: shared.Versioned{BaseEntity: m.ToEntity(), Version: m.Version},
		CreatedBy: m.CreatedBy,
	}
}

// FromAudited copies a domain Audited into the columns
func (m *AuditedModel) FromAudited(a shared.Audited) {
	m.FromEntity(a.BaseEntity)
	m.Version = a.Version
	m.CreatedBy = a.CreatedBy
}
