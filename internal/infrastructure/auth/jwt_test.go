package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		UserID:   uuid.New(),
		Username: "recepcion",
		Role:     "admin",
	}
}

func TestNewJWTService(t *testing.T) {
	svc := newTestJWTService()
	assert.Equal(t, []byte("test-secret-key-at-least-32-chars"), svc.secret)
	assert.Equal(t, 15*time.Minute, svc.ttl)
	assert.Equal(t, "test-issuer", svc.issuer)

	defaulted := NewJWTService(config.JWTConfig{Secret: "s"})
	assert.Equal(t, 24*time.Hour, defaulted.ttl)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	issued, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.AccessToken)
	assert.Equal(t, "Bearer", issued.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, 2*time.Second)

	claims, err := svc.ValidateAccessToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, "recepcion", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "test-issuer", claims.Issuer)

	userID, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userID)
	assert.True(t, claims.HasRole("entrenador", "admin"))
	assert.False(t, claims.HasRole("cliente"))
	assert.Greater(t, claims.RemainingTTL(), 14*time.Minute)
}

func TestJWTService_UniqueTokenIDs(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	a, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	b, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
}

func TestJWTService_GenerateRequiresUserAndRole(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.GenerateAccessToken(GenerateTokenInput{Role: "admin"})
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, err = svc.GenerateAccessToken(GenerateTokenInput{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrMissingRole)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	issued, err := svc.GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(issued.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	issued, err := newTestJWTService().GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "a-completely-different-secret-key",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
	_, err = other.ValidateAccessToken(issued.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_WrongIssuer(t *testing.T) {
	issued, err := newTestJWTService().GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "someone-else",
	})
	_, err = other.ValidateAccessToken(issued.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Malformed(t *testing.T) {
	svc := newTestJWTService()
	for _, token := range []string{"", "not.a.token", "abc"} {
		_, err := svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:    uuid.New().String(),
		Role:      "admin",
		TokenType: TokenTypeAccess,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_WrongTokenType(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:    uuid.New().String(),
		Role:      "admin",
		TokenType: "refresh",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestClaims_ZeroTimes(t *testing.T) {
	c := &Claims{}
	assert.True(t, c.IssuedAtTime().IsZero())
	assert.Equal(t, time.Duration(0), c.RemainingTTL())

	past := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}
	assert.Equal(t, time.Duration(0), past.RemainingTTL())
}
