package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SessionRevoker ends every session of an account
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID string, now time.Time) error
}

// ClientService reads and edits client profiles
type ClientService struct {
	clients  membership.ClientRepository
	trainers membership.TrainerRepository
	txScope  TransactionScope
	sessions SessionRevoker
	clock    Clock
	logger   *zap.Logger
}

// NewClientService creates a new client service
func NewClientService(
	clients membership.ClientRepository,
	trainers membership.TrainerRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{
		clients:  clients,
		trainers: trainers,
		txScope:  txScope,
		clock:    time.Now,
		logger:   logger,
	}
}

// SetSessionRevoker sets where deactivations revoke tokens
func (s *ClientService) SetSessionRevoker(r SessionRevoker) {
	s.sessions = r
}

// SetClock replaces the time source
func (s *ClientService) SetClock(clock Clock) {
	s.clock = clock
}

// GetByID returns a client with its derived status
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(client, s.clock())
	return &resp, nil
}

// List returns a page of clients. The status filter is evaluated against
// the expiration date on today, matching what each row reports.
func (s *ClientService) List(ctx context.Context, filter ClientListFilter) ([]ClientResponse, int64, error) {
	now := s.clock()
	domainFilter := membership.ClientFilter{
		Search:          filter.Search,
		IncludeInactive: filter.IncludeInactive,
		Today:           now,
		SortBy:          filter.SortBy,
		SortOrder:       filter.SortOrder,
		Page:            filter.Page,
		PageSize:        filter.PageSize,
	}
	if filter.Status != "" {
		status := membership.Status(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("VALIDATION_ERROR", "Unknown status: "+filter.Status)
		}
		domainFilter.Status = &status
	}
	if filter.TrainerID != "" {
		trainerID, err := uuid.Parse(filter.TrainerID)
		if err != nil {
			return nil, 0, shared.NewDomainError("VALIDATION_ERROR", "Invalid trainer id")
		}
		domainFilter.TrainerID = &trainerID
	}

	clients, total, err := s.clients.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	return ToClientResponses(clients, now), total, nil
}

// Update edits the contact fields of a client
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TrainerID != nil && s.trainers != nil {
		if _, err := s.trainers.FindByID(ctx, *req.TrainerID); err != nil {
			return nil, err
		}
	}
	if err := client.UpdateProfile(req.Name, req.Surname, req.Phone, req.Address, req.TrainerID); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	s.logger.Info("Client updated", zap.String("client_id", id.String()))
	resp := ToClientResponse(client, s.clock())
	return &resp, nil
}

// Deactivate soft-deletes the client, disables its login and revokes the
// tokens already issued to it. Ledger rows and cards are kept.
func (s *ClientService) Deactivate(ctx context.Context, id uuid.UUID) error {
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		client, err := repos.Clients().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := client.Deactivate(); err != nil {
			return err
		}
		if err := repos.Clients().Update(ctx, client); err != nil {
			return fmt.Errorf("failed to deactivate client: %w", err)
		}
		if err := repos.Accounts().Deactivate(ctx, id); err != nil {
			return fmt.Errorf("failed to deactivate account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.sessions != nil {
		if err := s.sessions.RevokeUser(ctx, id.String(), s.clock()); err != nil {
			s.logger.Error("Failed to revoke sessions of deactivated client",
				zap.String("client_id", id.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Client deactivated", zap.String("client_id", id.String()))
	return nil
}
