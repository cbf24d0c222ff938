package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps every row has
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps a fresh id
func NewBaseEntity() BaseEntity {
	return NewBaseEntityWithID(uuid.New())
}

// NewBaseEntityWithID is for ids chosen by the caller: a client reuses the
// id of its account.
func NewBaseEntityWithID(id uuid.UUID) BaseEntity {
	now := time.Now()
	return BaseEntity{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// Versioned is an entity whose rows carry a version column. Mutations call
// Bump.
type Versioned struct {
	BaseEntity
	Version int
}

// NewVersioned starts at version 1
func NewVersioned(id uuid.UUID) Versioned {
	return Versioned{BaseEntity: NewBaseEntityWithID(id), Version: 1}
}

// Bump records a mutation
func (v *Versioned) Bump() {
	v.Touch()
	v.Version++
}

// Audited is a Versioned entity that remembers the staff account that
// created it (creado_por).
type Audited struct {
	Versioned
	CreatedBy *uuid.UUID
}

// SetCreatedBy sets the creator. uuid.Nil leaves it unset.
func (a *Audited) SetCreatedBy(userID uuid.UUID) {
	if userID == uuid.Nil {
		return
	}
	a.CreatedBy = &userID
}
