package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// RevocationStore is the key-value store revocations are kept in. The
// membership cache implementations satisfy it.
type RevocationStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RevocationList invalidates access tokens before they expire, either one
// token at a time (logout) or every token issued to a user so far
// (account deactivation). Entries live in the shared cache, so with the
// Redis cache every replica sees them.
type RevocationList struct {
	store     RevocationStore
	keyPrefix string
	userTTL   time.Duration
}

// NewRevocationList creates a revocation list on top of store. userTTL
// should be at least the access token lifetime.
func NewRevocationList(store RevocationStore, userTTL time.Duration) *RevocationList {
	return &RevocationList{
		store:     store,
		keyPrefix: "token:revoked:",
		userTTL:   userTTL,
	}
}

func (r *RevocationList) jtiKey(jti string) string {
	return r.keyPrefix + "jti:" + jti
}

func (r *RevocationList) userKey(userID string) string {
	return r.keyPrefix + "user:" + userID
}

// RevokeToken rejects the token with this JTI for the rest of its lifetime
func (r *RevocationList) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.store.Set(ctx, r.jtiKey(jti), []byte("1"), ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeUser rejects every token issued to userID up to now
func (r *RevocationList) RevokeUser(ctx context.Context, userID string, now time.Time) error {
	value := []byte(strconv.FormatInt(now.Unix(), 10))
	if err := r.store.Set(ctx, r.userKey(userID), value, r.userTTL); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsRevoked reports whether claims belong to a revoked token or user
func (r *RevocationList) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	if claims.ID != "" {
		_, found, err := r.store.Get(ctx, r.jtiKey(claims.ID))
		if err != nil {
			return false, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if found {
			return true, nil
		}
	}

	raw, found, err := r.store.Get(ctx, r.userKey(claims.UserID))
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	if !found {
		return false, nil
	}
	revokedAt, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return claims.IssuedAtTime().Unix() <= revokedAt, nil
}
