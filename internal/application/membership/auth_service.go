package membership

import (
	"context"
	"strings"
	"time"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/domain/shared"
	"github.com/onixgym/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles login and logout of usuarios
type AuthService struct {
	accounts   membership.AccountRepository
	jwtService *auth.JWTService
	revocation *auth.RevocationList
	clock      Clock
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. revocation may be
// nil, in which case logout only discards the token client side.
func NewAuthService(
	accounts membership.AccountRepository,
	jwtService *auth.JWTService,
	revocation *auth.RevocationList,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:   accounts,
		jwtService: jwtService,
		revocation: revocation,
		clock:      time.Now,
		logger:     logger,
	}
}

func invalidCredentials() error {
	return shared.NewDomainError("UNAUTHORIZED", "Invalid username or password")
}

// Login checks the credentials and signs an access token. Unknown users,
// wrong passwords and inactive accounts all get the same answer.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	s.logger.Info("Login attempt", zap.String("username", username))

	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Warn("User not found during login", zap.String("username", username))
		return nil, invalidCredentials()
	}
	if !account.Active {
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", username))
		return nil, invalidCredentials()
	}
	if !account.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", username))
		return nil, invalidCredentials()
	}

	token, err := s.jwtService.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:   account.ID,
		Username: account.Username,
		Role:     string(account.Role),
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	if err := s.accounts.RecordLogin(ctx, account.ID, s.clock()); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("User logged in successfully",
		zap.String("username", account.Username),
		zap.String("user_id", account.ID.String()),
		zap.String("role", string(account.Role)),
	)
	return &LoginResponse{
		Token:     token.AccessToken,
		TokenType: token.TokenType,
		ExpiresAt: token.ExpiresAt,
		UserID:    account.ID,
		Username:  account.Username,
		Role:      string(account.Role),
	}, nil
}

// Logout revokes the presented token until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revocation == nil || claims == nil {
		return nil
	}
	if err := s.revocation.RevokeToken(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("user_id", claims.UserID), zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to log out")
	}
	s.logger.Info("User logged out", zap.String("user_id", claims.UserID))
	return nil
}
