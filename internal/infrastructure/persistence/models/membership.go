package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/shopspring/decimal"
)

// All lists every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&AccountModel{},
		&TrainerModel{},
		&ClientModel{},
		&PaymentModel{},
		&CardModel{},
		&OutboxEventModel{},
	}
}

// AccountModel is the persistence model for the usuario table
type AccountModel struct {
	AuditedModel
	Username     string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Email        string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	PasswordHash string          `gorm:"type:varchar(255);not null"`
	Role         membership.Role `gorm:"column:rol;type:varchar(20);not null;default:'cliente'"`
	Active       bool            `gorm:"column:activo;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:ultimo_login"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "usuario"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *membership.Account {
	a := &membership.Account{
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		Active:       m.Active,
		LastLoginAt:  m.LastLoginAt,
	}
	a.Audited = m.ToAudited()
	return a
}

// FromDomain populates the persistence model from a domain Account
func (m *AccountModel) FromDomain(a *membership.Account) {
	m.FromAudited(a.Audited)
	m.Username = a.Username
	m.Email = a.Email
	m.PasswordHash = a.PasswordHash
	m.Role = a.Role
	m.Active = a.Active
	m.LastLoginAt = a.LastLoginAt
}

// AccountModelFromDomain creates a new persistence model from a domain Account
func AccountModelFromDomain(a *membership.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// ClientModel is the persistence model for the cliente table. Its id is the
// usuario id.
type ClientModel struct {
	AuditedModel
	Name            string            `gorm:"column:nombre;type:varchar(100);not null"`
	Surname         string            `gorm:"column:apellido;type:varchar(100);not null"`
	Phone           string            `gorm:"column:telefono;type:varchar(30)"`
	Address         string            `gorm:"column:direccion;type:varchar(255)"`
	TrainerID       *uuid.UUID        `gorm:"column:entrenador_id;type:uuid;index"`
	InscriptionDate time.Time         `gorm:"column:fecha_inscripcion;type:date;not null"`
	ExpirationDate  *time.Time        `gorm:"column:fecha_vencimiento;type:date;index"`
	Status          membership.Status `gorm:"column:estado_cuota;type:varchar(20);not null;default:'inactivo'"`
	Active          bool              `gorm:"column:activo;not null;default:true"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "cliente"
}

// ToDomain converts the persistence model to a domain Client
func (m *ClientModel) ToDomain() *membership.Client {
	c := &membership.Client{
		Name:            m.Name,
		Surname:         m.Surname,
		Phone:           m.Phone,
		Address:         m.Address,
		TrainerID:       m.TrainerID,
		InscriptionDate: membership.DateOf(m.InscriptionDate),
		Status:          m.Status,
		Active:          m.Active,
	}
	if m.ExpirationDate != nil {
		exp := membership.DateOf(*m.ExpirationDate)
		c.ExpirationDate = &exp
	}
	c.Audited = m.ToAudited()
	return c
}

// FromDomain populates the persistence model from a domain Client
func (m *ClientModel) FromDomain(c *membership.Client) {
	m.FromAudited(c.Audited)
	m.Name = c.Name
	m.Surname = c.Surname
	m.Phone = c.Phone
	m.Address = c.Address
	m.TrainerID = c.TrainerID
	m.InscriptionDate = c.InscriptionDate
	m.ExpirationDate = c.ExpirationDate
	m.Status = c.Status
	m.Active = c.Active
}

// ClientModelFromDomain creates a new persistence model from a domain Client
func ClientModelFromDomain(c *membership.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// TrainerModel is the persistence model for the entrenador table
type TrainerModel struct {
	BaseModel
	DNI            string          `gorm:"column:dni;type:varchar(20);not null;uniqueIndex"`
	Name           string          `gorm:"column:nombre;type:varchar(100);not null"`
	Surname        string          `gorm:"column:apellido;type:varchar(100);not null"`
	Phone          string          `gorm:"column:telefono;type:varchar(30)"`
	Specialization string          `gorm:"column:especializacion;type:varchar(100)"`
	Bio            string          `gorm:"column:bio;type:text"`
	CurrentClients int             `gorm:"column:clientes_actuales;not null;default:0"`
	AverageRating  decimal.Decimal `gorm:"column:calificacion_promedio;type:decimal(3,2);not null;default:0"`
	Available      bool            `gorm:"column:disponible;not null;default:true"`
	HiredAt        time.Time       `gorm:"column:fecha_contratacion;type:date;not null"`
}

// TableName returns the table name for GORM
func (TrainerModel) TableName() string {
	return "entrenador"
}

// ToDomain converts the persistence model to a domain Trainer
func (m *TrainerModel) ToDomain() *membership.Trainer {
	rating, _ := m.AverageRating.Float64()
	return &membership.Trainer{
		ID:             m.ID,
		DNI:            m.DNI,
		Name:           m.Name,
		Surname:        m.Surname,
		Phone:          m.Phone,
		Specialization: m.Specialization,
		Bio:            m.Bio,
		CurrentClients: m.CurrentClients,
		AverageRating:  rating,
		Available:      m.Available,
		HiredAt:        m.HiredAt,
	}
}

// PaymentModel is the persistence model for the pagos ledger. The partial
// unique index allows any number of voided rows per period but one paid row.
type PaymentModel struct {
	BaseModel
	ClientID     uuid.UUID                `gorm:"column:cliente_id;type:uuid;not null;index;uniqueIndex:ux_pagos_cliente_periodo_pagado,priority:1,where:estado = 'pagado'"`
	Amount       decimal.Decimal          `gorm:"column:monto;type:decimal(12,2);not null"`
	Method       membership.PaymentMethod `gorm:"column:metodo;type:varchar(20);not null;default:'efectivo'"`
	Status       membership.PaymentStatus `gorm:"column:estado;type:varchar(20);not null;default:'pagado';index"`
	PeriodMonth  int                      `gorm:"column:periodo_mes;not null;uniqueIndex:ux_pagos_cliente_periodo_pagado,priority:2"`
	PeriodYear   int                      `gorm:"column:periodo_ano;not null;uniqueIndex:ux_pagos_cliente_periodo_pagado,priority:3"`
	PaymentDate  time.Time                `gorm:"column:fecha_pago;not null;index"`
	DueDate      time.Time                `gorm:"column:fecha_vencimiento;type:date;not null"`
	Reference    string                   `gorm:"column:referencia;type:varchar(100)"`
	Notes        string                   `gorm:"column:observaciones;type:text"`
	RegisteredBy *uuid.UUID               `gorm:"column:registrado_por;type:uuid"`
	VoidedAt     *time.Time               `gorm:"column:anulado_en"`
	VoidedBy     *uuid.UUID               `gorm:"column:anulado_por;type:uuid"`
	VoidReason   string                   `gorm:"column:motivo_anulacion;type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "pagos"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *membership.Payment {
	return &membership.Payment{
		BaseEntity:   m.ToEntity(),
		ClientID:     m.ClientID,
		Amount:       m.Amount,
		Method:       m.Method,
		Period:       membership.Period{Month: m.PeriodMonth, Year: m.PeriodYear},
		PaymentDate:  m.PaymentDate,
		DueDate:      membership.DateOf(m.DueDate),
		Status:       m.Status,
		Reference:    m.Reference,
		Notes:        m.Notes,
		RegisteredBy: m.RegisteredBy,
		VoidedAt:     m.VoidedAt,
		VoidedBy:     m.VoidedBy,
		VoidReason:   m.VoidReason,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *membership.Payment) {
	m.FromEntity(p.BaseEntity)
	m.ClientID = p.ClientID
	m.Amount = p.Amount
	m.Method = p.Method
	m.Status = p.Status
	m.PeriodMonth = p.Period.Month
	m.PeriodYear = p.Period.Year
	m.PaymentDate = p.PaymentDate
	m.DueDate = p.DueDate
	m.Reference = p.Reference
	m.Notes = p.Notes
	m.RegisteredBy = p.RegisteredBy
	m.VoidedAt = p.VoidedAt
	m.VoidedBy = p.VoidedBy
	m.VoidReason = p.VoidReason
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *membership.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// CardModel is the persistence model for the carnets table
type CardModel struct {
	BaseModel
	ClientID         uuid.UUID  `gorm:"column:cliente_id;type:uuid;not null;uniqueIndex:ux_carnets_cliente_activo,where:activo"`
	IssuedBy         *uuid.UUID `gorm:"column:usuario_id;type:uuid"`
	Year             int        `gorm:"column:anio;not null"`
	MonthsPaid       PeriodList `gorm:"column:meses_pagados;type:jsonb;not null"`
	BlobKey          string     `gorm:"column:blob_key;type:varchar(255)"`
	BlobURL          string     `gorm:"column:carnet_url;type:text"`
	Active           bool       `gorm:"column:activo;not null"`
	ValidFrom        time.Time  `gorm:"column:fecha_desde;type:date;not null"`
	ValidUntil       *time.Time `gorm:"column:fecha_hasta;type:date"`
	Revision         int        `gorm:"column:revision;not null;default:1"`
	RenderedRevision int        `gorm:"column:rendered_revision;not null;default:0"`
}

// TableName returns the table name for GORM
func (CardModel) TableName() string {
	return "carnets"
}

// ToDomain converts the persistence model to a domain MembershipCard
func (m *CardModel) ToDomain() *membership.MembershipCard {
	return &membership.MembershipCard{
		BaseEntity:       m.ToEntity(),
		ClientID:         m.ClientID,
		IssuedBy:         m.IssuedBy,
		Year:             m.Year,
		MonthsPaid:       membership.PeriodSet(m.MonthsPaid),
		BlobKey:          m.BlobKey,
		BlobURL:          m.BlobURL,
		Active:           m.Active,
		ValidFrom:        membership.DateOf(m.ValidFrom),
		ValidUntil:       m.ValidUntil,
		Revision:         m.Revision,
		RenderedRevision: m.RenderedRevision,
	}
}

// FromDomain populates the persistence model from a domain MembershipCard
func (m *CardModel) FromDomain(c *membership.MembershipCard) {
	m.FromEntity(c.BaseEntity)
	m.ClientID = c.ClientID
	m.IssuedBy = c.IssuedBy
	m.Year = c.Year
	m.MonthsPaid = PeriodList(c.MonthsPaid)
	m.BlobKey = c.BlobKey
	m.BlobURL = c.BlobURL
	m.Active = c.Active
	m.ValidFrom = c.ValidFrom
	m.ValidUntil = c.ValidUntil
	m.Revision = c.Revision
	m.RenderedRevision = c.RenderedRevision
}

// CardModelFromDomain creates a new persistence model from a domain MembershipCard
func CardModelFromDomain(c *membership.MembershipCard) *CardModel {
	m := &CardModel{}
	m.FromDomain(c)
	return m
}

// PeriodList stores a PeriodSet as a jsonb array of {"mes","ano"} objects,
// sorted so equal sets compare equal in SQL.
type PeriodList membership.PeriodSet

// Value implements driver.Valuer
func (l PeriodList) Value() (driver.Value, error) {
	b, err := json.Marshal(membership.PeriodSet(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *PeriodList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PeriodList", src)
	}

	var set membership.PeriodSet
	if err := json.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("decode meses_pagados: %w", err)
	}
	*l = PeriodList(set)
	return nil
}
