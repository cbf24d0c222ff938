package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CardImageContentType is the MIME type of rendered cards
const CardImageContentType = "image/png"

// CardRegistry keeps one active card per client in step with the ledger
// and draws its image.
type CardRegistry struct {
	cards     membership.CardRepository
	clients   membership.ClientRepository
	renderer  CardRenderer
	store     CardStore
	keyPrefix string
	logger    *zap.Logger
	metrics   *telemetry.BusinessMetrics
}

// NewCardRegistry creates a registry. renderer and store may be nil when
// the registry is only used inside transactions.
func NewCardRegistry(
	cards membership.CardRepository,
	clients membership.ClientRepository,
	renderer CardRenderer,
	store CardStore,
	keyPrefix string,
	logger *zap.Logger,
) *CardRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CardRegistry{
		cards:     cards,
		clients:   clients,
		renderer:  renderer,
		store:     store,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// SetBusinessMetrics sets the business metrics recorder
func (r *CardRegistry) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	r.metrics = bm
}

// Within returns a registry bound to the repositories of a transaction
func (r *CardRegistry) Within(repos TransactionalRepositories) *CardRegistry {
	scoped := *r
	scoped.cards = repos.Cards()
	scoped.clients = repos.Clients()
	return &scoped
}

// CardChange describes what a ledger change did to the active card
type CardChange struct {
	Card *membership.MembershipCard
	// Changed is true when the certified months moved and the image is stale
	Changed bool
	// Superseded is true when a card of an earlier year was retired
	Superseded bool
}

// EnsureCardForPeriod makes the active card certify p. Calling it again for
// the same period changes nothing. A period of a later year retires the
// current card and opens a new one; a period of an earlier year leaves the
// card alone. The caller must hold the client's row lock.
func (r *CardRegistry) EnsureCardForPeriod(ctx context.Context, clientID, issuedBy uuid.UUID, p membership.Period, now time.Time) (*CardChange, error) {
	existing, err := r.cards.FindActive(ctx, clientID)
	if err != nil && !errors.Is(err, membership.ErrCardNotFound) {
		return nil, fmt.Errorf("failed to load active card: %w", err)
	}

	change := &CardChange{}
	if existing != nil {
		switch existing.ActionFor(p) {
		case membership.CardIgnore:
			change.Card = existing
			return change, nil
		case membership.CardMerge:
			if existing.Certifies(p) {
				change.Card = existing
				return change, nil
			}
		case membership.CardSupersede:
			retired, err := r.cards.SupersedeOlderThan(ctx, clientID, p.Year, now)
			if err != nil {
				return nil, fmt.Errorf("failed to supersede card: %w", err)
			}
			change.Superseded = retired
			if retired {
				r.logger.Info("Card superseded",
					zap.String("client_id", clientID.String()),
					zap.Int("old_year", existing.Year),
					zap.Int("new_year", p.Year),
				)
			}
		}
	}

	candidate, err := membership.NewMembershipCard(clientID, issuedBy, p, now)
	if err != nil {
		return nil, err
	}
	card, err := r.cards.UpsertForPeriod(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert card: %w", err)
	}

	change.Card = card
	switch {
	case existing == nil || change.Superseded:
		change.Changed = true
	case card.Year == p.Year:
		change.Changed = card.Revision != existing.Revision
	}
	return change, nil
}

// RemovePeriod takes a voided period off the active card. Nothing happens
// when the client has no card or the card belongs to another year.
func (r *CardRegistry) RemovePeriod(ctx context.Context, clientID uuid.UUID, p membership.Period) (*CardChange, error) {
	card, err := r.cards.FindActive(ctx, clientID)
	if err != nil {
		if errors.Is(err, membership.ErrCardNotFound) {
			return &CardChange{}, nil
		}
		return nil, fmt.Errorf("failed to load active card: %w", err)
	}
	if card.Year != p.Year || !card.Remove(p) {
		return &CardChange{Card: card}, nil
	}
	if err := r.cards.SaveMonths(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to save card months: %w", err)
	}
	return &CardChange{Card: card, Changed: true}, nil
}

// RefreshImage draws the active card from its full set of months, uploads
// it and records the reference. The stored reference only moves forward
// in revision, so an older render finishing late cannot replace a newer
// image. It reports whether a new image was stored.
func (r *CardRegistry) RefreshImage(ctx context.Context, clientID uuid.UUID) (bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_registry", "refresh_image", "client_id", clientID)
	defer span.End()

	start := time.Now()
	var stored bool
	var opErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("card_render", nil), func(c context.Context) {
		stored, opErr = r.refresh(c, clientID)
	})

	outcome := telemetry.RenderOutcomeRendered
	switch {
	case opErr != nil:
		outcome = telemetry.RenderOutcomeFailed
		telemetry.RecordError(span, opErr)
	case !stored:
		outcome = telemetry.RenderOutcomeSkipped
	default:
		telemetry.SetOK(span)
	}
	if r.metrics != nil {
		r.metrics.RecordCardRender(ctx, outcome, time.Since(start))
	}
	return stored, opErr
}

func (r *CardRegistry) refresh(ctx context.Context, clientID uuid.UUID) (bool, error) {
	if r.renderer == nil || r.store == nil {
		return false, errors.New("card registry has no renderer or store")
	}

	card, err := r.cards.FindActive(ctx, clientID)
	if err != nil {
		return false, err
	}
	if !card.NeedsRender() {
		r.logger.Debug("Card image is current",
			zap.String("client_id", clientID.String()),
			zap.Int("revision", card.Revision),
		)
		return false, nil
	}

	client, err := r.clients.FindByID(ctx, clientID)
	if err != nil {
		return false, err
	}

	image, err := r.renderer.Render(card.FaceFor(client))
	if err != nil {
		return false, err
	}

	key := membership.BlobKeyFor(r.keyPrefix, clientID, card.Year)
	url, err := r.store.Put(ctx, key, image, CardImageContentType)
	if err != nil {
		return false, fmt.Errorf("%w: %w", membership.ErrStorageUploadFailure, err)
	}

	updated, err := r.cards.MarkRendered(ctx, card.ID, card.Revision, key, url)
	if err != nil {
		return false, fmt.Errorf("failed to record card image: %w", err)
	}
	if !updated {
		r.logger.Info("Newer card image already stored",
			zap.String("client_id", clientID.String()),
			zap.Int("revision", card.Revision),
		)
		return false, nil
	}

	r.logger.Info("Card image stored",
		zap.String("client_id", clientID.String()),
		zap.String("key", key),
		zap.Int("revision", card.Revision),
		zap.Ints("months", card.MonthsForYear()),
	)
	return true, nil
}
