package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
)

// PaymentService reads the ledger. Writes go through MembershipService.
type PaymentService struct {
	payments membership.PaymentRepository
	clients  membership.ClientRepository
}

// NewPaymentService creates a new payment service
func NewPaymentService(payments membership.PaymentRepository, clients membership.ClientRepository) *PaymentService {
	return &PaymentService{payments: payments, clients: clients}
}

// GetByID returns one ledger row
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// List returns a page of payments, newest first
func (s *PaymentService) List(ctx context.Context, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter, err := toPaymentFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	payments, total, err := s.payments.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return ToPaymentResponses(payments), total, nil
}

// ListForClient returns a page of one client's payments. An unknown client
// is CLIENT_NOT_FOUND rather than an empty page.
func (s *PaymentService) ListForClient(ctx context.Context, clientID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return nil, 0, err
	}
	filter.ClientID = clientID.String()
	return s.List(ctx, filter)
}

func toPaymentFilter(filter PaymentListFilter) (membership.PaymentFilter, error) {
	out := membership.PaymentFilter{
		Month:     filter.Month,
		Year:      filter.Year,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	}
	if filter.ClientID != "" {
		id, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return out, shared.NewDomainError("VALIDATION_ERROR", "Invalid client id")
		}
		out.ClientID = &id
	}
	if filter.Status != "" {
		status := membership.PaymentStatus(filter.Status)
		if !status.IsValid() {
			return out, shared.NewDomainError("VALIDATION_ERROR", "Unknown payment status: "+filter.Status)
		}
		out.Status = &status
	}
	if filter.Method != "" {
		method, err := membership.ParsePaymentMethod(filter.Method)
		if err != nil {
			return out, err
		}
		out.Method = &method
	}
	if filter.Month != nil && (*filter.Month < 1 || *filter.Month > 12) {
		return out, membership.NewInvalidPeriodError("month must be between 1 and 12")
	}
	if filter.From != "" {
		from, err := ParseDate(filter.From, time.Time{})
		if err != nil {
			return out, err
		}
		out.From = &from
	}
	if filter.To != "" {
		to, err := ParseDate(filter.To, time.Time{})
		if err != nil {
			return out, err
		}
		out.To = &to
	}
	return out, nil
}

// TrainerService lists entrenadores
type TrainerService struct {
	trainers membership.TrainerRepository
}

// NewTrainerService creates a new trainer service
func NewTrainerService(trainers membership.TrainerRepository) *TrainerService {
	return &TrainerService{trainers: trainers}
}

// List returns trainers, only the available ones when availableOnly is set
func (s *TrainerService) List(ctx context.Context, availableOnly bool) ([]TrainerResponse, error) {
	trainers, err := s.trainers.FindAll(ctx, availableOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainers: %w", err)
	}
	out := make([]TrainerResponse, len(trainers))
	for i, t := range trainers {
		out[i] = ToTrainerResponse(t)
	}
	return out, nil
}
