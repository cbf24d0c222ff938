package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/messaging"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// RegisterClientRequest is an alta: the login, the client profile and the
// first paid month.
type RegisterClientRequest struct {
	Username        string     `json:"username" binding:"required,min=3,max=50"`
	Email           string     `json:"email" binding:"required,email,max=100"`
	Password        string     `json:"password" binding:"required,min=6,max=72"`
	Name            string     `json:"name" binding:"required,min=1,max=100"`
	Surname         string     `json:"surname" binding:"required,min=1,max=100"`
	Phone           string     `json:"phone" binding:"required,min=6,max=20"`
	Address         string     `json:"address" binding:"max=255"`
	TrainerID       *uuid.UUID `json:"trainer_id"`
	InscriptionDate string     `json:"inscription_date" binding:"omitempty,datetime=2006-01-02"`

	Amount    *decimal.Decimal `json:"amount"`
	Method    string           `json:"method" binding:"omitempty,oneof=efectivo tarjeta transferencia otro"`
	Month     *int             `json:"month" binding:"omitempty,period_month"`
	Year      *int             `json:"year" binding:"omitempty,min=2000,max=2100"`
	Reference string           `json:"reference" binding:"max=100"`
	Notes     string           `json:"notes" binding:"max=500"`
}

// RegisterPaymentRequest records one paid month for an existing client
type RegisterPaymentRequest struct {
	ClientID    uuid.UUID        `json:"client_id" binding:"required"`
	Amount      *decimal.Decimal `json:"amount"`
	Method      string           `json:"method" binding:"omitempty,oneof=efectivo tarjeta transferencia otro"`
	Month       *int             `json:"month" binding:"omitempty,period_month"`
	Year        *int             `json:"year" binding:"omitempty,min=2000,max=2100"`
	PaymentDate string           `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate     string           `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Reference   string           `json:"reference" binding:"max=100"`
	Notes       string           `json:"notes" binding:"max=500"`
}

// VoidPaymentRequest anula a paid row
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// UpdateClientRequest edits the contact fields of a client. Empty name,
// surname and phone keep the stored values.
type UpdateClientRequest struct {
	Name      string     `json:"name" binding:"max=100"`
	Surname   string     `json:"surname" binding:"max=100"`
	Phone     string     `json:"phone" binding:"omitempty,min=6,max=20"`
	Address   string     `json:"address" binding:"max=255"`
	TrainerID *uuid.UUID `json:"trainer_id"`
}

// ClientListFilter is the query string of the client listing
type ClientListFilter struct {
	Search          string `form:"search" binding:"max=100"`
	Status          string `form:"status" binding:"omitempty,oneof=activo por_vencer inactivo"`
	TrainerID       string `form:"trainer_id" binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"include_inactive"`
	SortBy          string `form:"sort_by" binding:"omitempty,oneof=name surname inscription_date expiration_date created_at"`
	SortOrder       string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PaymentListFilter is the query string of the payment listings
type PaymentListFilter struct {
	ClientID  string `form:"client_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=pagado pendiente anulado vencido"`
	Method    string `form:"method" binding:"omitempty,oneof=efectivo tarjeta transferencia otro"`
	Month     *int   `form:"month" binding:"omitempty,period_month"`
	Year      *int   `form:"year" binding:"omitempty,min=2000,max=2100"`
	From      string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=payment_date due_date amount created_at"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CardLinkRequest picks the paid month announced in the WhatsApp message
type CardLinkRequest struct {
	Month *int `form:"month" binding:"omitempty,period_month"`
	Year  *int `form:"year" binding:"omitempty,min=2000,max=2100"`
}

// LoginRequest carries the credentials of a usuario
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=72"`
}

// ClientResponse is a client with its standing derived for today
type ClientResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Surname             string     `json:"surname"`
	FullName            string     `json:"full_name"`
	Phone               string     `json:"phone"`
	Address             string     `json:"address"`
	TrainerID           *uuid.UUID `json:"trainer_id,omitempty"`
	InscriptionDate     string     `json:"inscription_date"`
	DueDay              int        `json:"due_day"`
	ExpirationDate      *string    `json:"expiration_date"`
	DaysUntilExpiration *int       `json:"days_until_expiration"`
	Status              string     `json:"status"`
	Active              bool       `json:"active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ToClientResponse converts a client. Status is derived from the expiration
// date on today, never read from the stored column.
func ToClientResponse(c *membership.Client, today time.Time) ClientResponse {
	resp := ClientResponse{
		ID:              c.ID,
		Name:            c.Name,
		Surname:         c.Surname,
		FullName:        c.FullName(),
		Phone:           c.Phone,
		Address:         c.Address,
		TrainerID:       c.TrainerID,
		InscriptionDate: c.InscriptionDate.Format(DateLayout),
		DueDay:          c.DueDay(),
		Status:          string(c.CurrentStatus(today)),
		Active:          c.Active,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.ExpirationDate != nil {
		exp := c.ExpirationDate.Format(DateLayout)
		days := membership.DaysUntil(*c.ExpirationDate, today)
		resp.ExpirationDate = &exp
		resp.DaysUntilExpiration = &days
	}
	return resp
}

// ToClientResponses converts a page of clients
func ToClientResponses(clients []*membership.Client, today time.Time) []ClientResponse {
	out := make([]ClientResponse, len(clients))
	for i, c := range clients {
		out[i] = ToClientResponse(c, today)
	}
	return out
}

// PaymentResponse is a ledger row
type PaymentResponse struct {
	ID           uuid.UUID       `json:"id"`
	ClientID     uuid.UUID       `json:"client_id"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method"`
	Month        int             `json:"month"`
	Year         int             `json:"year"`
	Period       string          `json:"period"`
	PaymentDate  string          `json:"payment_date"`
	DueDate      string          `json:"due_date"`
	Status       string          `json:"status"`
	Reference    string          `json:"reference,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	RegisteredBy *uuid.UUID      `json:"registered_by,omitempty"`
	VoidReason   string          `json:"void_reason,omitempty"`
	VoidedAt     *time.Time      `json:"voided_at,omitempty"`
	VoidedBy     *uuid.UUID      `json:"voided_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a payment
func ToPaymentResponse(p *membership.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		ClientID:     p.ClientID,
		Amount:       p.Amount,
		Method:       string(p.Method),
		Month:        p.Period.Month,
		Year:         p.Period.Year,
		Period:       p.Period.Key(),
		PaymentDate:  p.PaymentDate.Format(DateLayout),
		DueDate:      p.DueDate.Format(DateLayout),
		Status:       string(p.Status),
		Reference:    p.Reference,
		Notes:        p.Notes,
		RegisteredBy: p.RegisteredBy,
		VoidReason:   p.VoidReason,
		VoidedAt:     p.VoidedAt,
		VoidedBy:     p.VoidedBy,
		CreatedAt:    p.CreatedAt,
	}
}

// ToPaymentResponses converts a page of payments
func ToPaymentResponses(payments []*membership.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = ToPaymentResponse(p)
	}
	return out
}

// CardResponse is the metadata of a membership card
type CardResponse struct {
	ID            uuid.UUID  `json:"id"`
	ClientID      uuid.UUID  `json:"client_id"`
	Year          int        `json:"year"`
	Months        []int      `json:"months"`
	ImageURL      string     `json:"image_url,omitempty"`
	Active        bool       `json:"active"`
	ValidFrom     string     `json:"valid_from"`
	ValidUntil    *string    `json:"valid_until,omitempty"`
	Revision      int        `json:"revision"`
	RenderPending bool       `json:"render_pending"`
	IssuedBy      *uuid.UUID `json:"issued_by,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToCardResponse converts a card
func ToCardResponse(c *membership.MembershipCard) CardResponse {
	months := c.MonthsForYear()
	if months == nil {
		months = []int{}
	}
	resp := CardResponse{
		ID:            c.ID,
		ClientID:      c.ClientID,
		Year:          c.Year,
		Months:        months,
		ImageURL:      c.BlobURL,
		Active:        c.Active,
		ValidFrom:     c.ValidFrom.Format(DateLayout),
		Revision:      c.Revision,
		RenderPending: c.NeedsRender(),
		IssuedBy:      c.IssuedBy,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.ValidUntil != nil {
		until := c.ValidUntil.Format(DateLayout)
		resp.ValidUntil = &until
	}
	return resp
}

// RegistrationResponse is the outcome of an alta
type RegistrationResponse struct {
	Client  ClientResponse  `json:"client"`
	Payment PaymentResponse `json:"payment"`
	Card    CardResponse    `json:"card"`
}

// PaymentReceipt is the outcome of registering or voiding a payment. Card
// is nil when the period did not touch the active card.
type PaymentReceipt struct {
	Payment PaymentResponse `json:"payment"`
	Client  ClientResponse  `json:"client"`
	Card    *CardResponse   `json:"card,omitempty"`
}

// TrainerResponse is an entrenador
type TrainerResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Surname        string    `json:"surname"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	CurrentClients int       `json:"current_clients"`
	AverageRating  float64   `json:"average_rating"`
	Available      bool      `json:"available"`
	HiredAt        string    `json:"hired_at"`
}

// ToTrainerResponse converts a trainer
func ToTrainerResponse(t *membership.Trainer) TrainerResponse {
	return TrainerResponse{
		ID:             t.ID,
		Name:           t.Name,
		Surname:        t.Surname,
		FullName:       t.FullName(),
		Phone:          t.Phone,
		Specialization: t.Specialization,
		Bio:            t.Bio,
		CurrentClients: t.CurrentClients,
		AverageRating:  t.AverageRating,
		Available:      t.Available,
		HiredAt:        t.HiredAt.Format(DateLayout),
	}
}

// ClientSummary is the short client row shown on the dashboard
type ClientSummary struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone"`
	InscriptionDate string    `json:"inscription_date"`
	ExpirationDate  *string   `json:"expiration_date"`
	Status          string    `json:"status"`
}

func toClientSummary(c *membership.Client, today time.Time) ClientSummary {
	s := ClientSummary{
		ID:              c.ID,
		FullName:        c.FullName(),
		Phone:           c.Phone,
		InscriptionDate: c.InscriptionDate.Format(DateLayout),
		Status:          string(c.CurrentStatus(today)),
	}
	if c.ExpirationDate != nil {
		exp := c.ExpirationDate.Format(DateLayout)
		s.ExpirationDate = &exp
	}
	return s
}

// OverdueClient is a client whose membership already lapsed
type OverdueClient struct {
	ClientSummary
	DaysOverdue int `json:"days_overdue"`
}

// IncomeEntry is the paid total of one period
type IncomeEntry struct {
	Period   string          `json:"period"`
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Total    decimal.Decimal `json:"total"`
	Payments int64           `json:"payments"`
}

// DashboardResponse is the staff overview
type DashboardResponse struct {
	Counts        membership.StatusCounts `json:"counts"`
	RecentClients []ClientSummary         `json:"recent_clients"`
	Overdue       []OverdueClient         `json:"overdue_clients"`
	MonthlyIncome []IncomeEntry           `json:"monthly_income"`
	GeneratedAt   time.Time               `json:"generated_at"`
}

// ExpirationReminder is a member about to lapse with a ready reminder link
type ExpirationReminder struct {
	Client         ClientSummary   `json:"client"`
	ExpirationDate string          `json:"expiration_date"`
	DaysLeft       int             `json:"days_left"`
	WhatsApp       *messaging.Link `json:"whatsapp,omitempty"`
}

// CardLinkResponse is the WhatsApp link announcing a paid month
type CardLinkResponse struct {
	ClientID uuid.UUID       `json:"client_id"`
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	CardURL  string          `json:"card_url"`
	WhatsApp *messaging.Link `json:"whatsapp"`
}

// LoginResponse is a signed access token and the account it belongs to
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}
