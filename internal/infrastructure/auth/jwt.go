package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/infrastructure/config"
)

// TokenType tells access tokens apart from any other token signed with
// the same secret
type TokenType string

const TokenTypeAccess TokenType = "access"

const defaultAccessTTL = 24 * time.Hour

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingRole      = errors.New("missing role in claims")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims is the payload of an access token. The role claim keeps the
// "rol" name the gym front end already reads.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"rol"`
	TokenType TokenType `json:"token_type"`
}

// UserUUID parses the user_id claim
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// HasRole reports whether the token carries one of roles
func (c *Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if r == c.Role {
			return true
		}
	}
	return false
}

// IssuedAtTime is the iat claim, zero when absent
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// RemainingTTL is how long the token stays valid, never negative
func (c *Claims) RemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// IssuedToken is what login returns to the client
type IssuedToken struct {
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

// GenerateTokenInput identifies the account a token is issued for
type GenerateTokenInput struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// JWTService signs and verifies HS256 access tokens
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTService builds the service from the jwt config section. A zero
// lifetime means one day.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	ttl := cfg.AccessTokenExpiration
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &JWTService{secret: []byte(cfg.Secret), ttl: ttl, issuer: cfg.Issuer, now: time.Now}
}

// GenerateAccessToken signs a token for the account. Every token gets its
// own jti so it can be revoked alone.
func (s *JWTService) GenerateAccessToken(in GenerateTokenInput) (*IssuedToken, error) {
	switch {
	case in.UserID == uuid.Nil:
		return nil, ErrMissingUserID
	case in.Role == "":
		return nil, ErrMissingRole
	}

	// NumericDate drops sub-second precision
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   in.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    in.UserID.String(),
		Username:  in.Username,
		Role:      in.Role,
		TokenType: TokenTypeAccess,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{AccessToken: signed, ExpiresAt: expiresAt, TokenType: "Bearer"}, nil
}

// ValidateAccessToken verifies signature, issuer and lifetime, then checks
// that the token is an access token naming a user and a role.
func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.TokenType != TokenTypeAccess:
		return nil, ErrInvalidTokenType
	case claims.UserID == "":
		return nil, ErrMissingUserID
	case claims.Role == "":
		return nil, ErrMissingRole
	}
	return claims, nil
}
