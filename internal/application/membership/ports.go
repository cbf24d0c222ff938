package membership

import (
	"context"
	"time"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
)

// ErrCardImageNotFound is returned by a CardStore when no object exists under the key
var ErrCardImageNotFound = shared.NewDomainError("CARD_IMAGE_NOT_FOUND", "Card image not found")

// CardStore is the blob store holding rendered card images
type CardStore interface {
	// Put stores data under key, replacing any previous object, and returns
	// the URL the card is reachable at.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get reads the object stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// URL returns a URL for key without reading the object
	URL(ctx context.Context, key string) (string, error)
}

// CardRenderer draws the card image for a face
type CardRenderer interface {
	Render(face membership.CardFace) ([]byte, error)
}

// Cache is a small byte cache with per-entry TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time
