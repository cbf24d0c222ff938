package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/messaging"
	"go.uber.org/zap"
)

// CardService serves card metadata and images and queues re-renders
type CardService struct {
	cards   membership.CardRepository
	clients membership.ClientRepository
	store   CardStore
	txScope TransactionScope
	links   *messaging.WhatsAppLinkBuilder
	logger  *zap.Logger
}

// NewCardService creates a new card service
func NewCardService(
	cards membership.CardRepository,
	clients membership.ClientRepository,
	store CardStore,
	txScope TransactionScope,
	links *messaging.WhatsAppLinkBuilder,
	logger *zap.Logger,
) *CardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardService{
		cards:   cards,
		clients: clients,
		store:   store,
		txScope: txScope,
		links:   links,
		logger:  logger,
	}
}

// activeCard loads the client's active card; an unknown client is
// CLIENT_NOT_FOUND and a client without card CARD_NOT_FOUND
func (s *CardService) activeCard(ctx context.Context, clientID uuid.UUID) (*membership.Client, *membership.MembershipCard, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	card, err := s.cards.FindActive(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	return client, card, nil
}

// imageURL returns a fresh URL for the stored image. Presigned URLs expire,
// so the one recorded at render time is only a fallback.
func (s *CardService) imageURL(ctx context.Context, card *membership.MembershipCard) string {
	if card.BlobKey == "" {
		return ""
	}
	url, err := s.store.URL(ctx, card.BlobKey)
	if err != nil {
		s.logger.Warn("Failed to build card URL", zap.String("key", card.BlobKey), zap.Error(err))
		return card.BlobURL
	}
	return url
}

// Get returns the metadata of the client's active card
func (s *CardService) Get(ctx context.Context, clientID uuid.UUID) (*CardResponse, error) {
	_, card, err := s.activeCard(ctx, clientID)
	if err != nil {
		return nil, err
	}
	resp := ToCardResponse(card)
	resp.ImageURL = s.imageURL(ctx, card)
	return &resp, nil
}

// Image returns the PNG of the client's active card as last rendered
func (s *CardService) Image(ctx context.Context, clientID uuid.UUID) ([]byte, error) {
	_, card, err := s.activeCard(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if card.BlobKey == "" {
		return nil, ErrCardImageNotFound
	}
	data, err := s.store.Get(ctx, card.BlobKey)
	if err != nil {
		if errors.Is(err, ErrCardImageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read card image: %w", err)
	}
	return data, nil
}

// Regenerate marks the active card stale and queues a render of its full
// month set, for when the template changed or an image went missing.
func (s *CardService) Regenerate(ctx context.Context, clientID uuid.UUID) (*CardResponse, error) {
	var card *membership.MembershipCard
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Clients().FindByIDForUpdate(ctx, clientID); err != nil {
			return err
		}
		var err error
		card, err = repos.Cards().FindActive(ctx, clientID)
		if err != nil {
			return err
		}
		latest, ok := card.MonthsPaid.Latest()
		if !ok {
			latest = membership.Period{Month: 1, Year: card.Year}
		}
		card.Invalidate()
		if err := repos.Cards().SaveMonths(ctx, card); err != nil {
			return fmt.Errorf("failed to mark card stale: %w", err)
		}
		return repos.Events().Publish(ctx, membership.NewCardRenderRequestedEvent(card, latest))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Card regeneration queued",
		zap.String("client_id", clientID.String()),
		zap.Int("revision", card.Revision),
	)
	resp := ToCardResponse(card)
	resp.ImageURL = s.imageURL(ctx, card)
	return &resp, nil
}

// WhatsAppLink builds the "month paid" message with the card URL. Without
// month and year it announces the latest month on the card.
func (s *CardService) WhatsAppLink(ctx context.Context, clientID uuid.UUID, req CardLinkRequest) (*CardLinkResponse, error) {
	client, card, err := s.activeCard(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var period membership.Period
	if req.Month == nil && req.Year == nil {
		latest, ok := card.MonthsPaid.Latest()
		if !ok {
			return nil, membership.NewInvalidPeriodError("the card has no paid month")
		}
		period = latest
	} else {
		period, err = ResolvePeriod(req.Month, req.Year, card.ValidFrom)
		if err != nil {
			return nil, err
		}
		if !card.Certifies(period) {
			return nil, membership.NewInvalidPeriodError("period " + period.Key() + " is not on the card")
		}
	}

	url := s.imageURL(ctx, card)
	if url == "" {
		return nil, ErrCardImageNotFound
	}

	link, err := s.links.CardLink(messaging.CardMessage{
		Phone:   client.Phone,
		Name:    client.Name,
		Month:   period.Month,
		Year:    period.Year,
		CardURL: url,
	})
	if err != nil {
		return nil, err
	}
	return &CardLinkResponse{
		ClientID: clientID,
		Month:    period.Month,
		Year:     period.Year,
		CardURL:  url,
		WhatsApp: link,
	}, nil
}
