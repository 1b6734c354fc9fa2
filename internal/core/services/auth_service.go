package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/utils"
)

// AuthService verifies world members and issues session tokens.
type AuthService struct {
	users     ports.UserRepository
	jwtSecret string
	jwtExpiry time.Duration
	jwtIssuer string
}

func NewAuthService(users ports.UserRepository, jwtSecret string, jwtExpiry time.Duration, jwtIssuer string) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry, jwtIssuer: jwtIssuer}
}

// Join checks the member's join secret and returns a signed session token.
// Unknown users and bad secrets both yield ErrForbidden so callers cannot
// probe the member list.
func (s *AuthService) Join(ctx context.Context, worldID, userID, secret string) (string, *domain.User, error) {
	user, err := s.users.FindUserByID(ctx, worldID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, apperrors.ErrForbidden
		}
		return "", nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if !utils.CheckPasswordHash(secret, user.JoinSecretHash) {
		return "", nil, apperrors.ErrForbidden
	}
	token, err := utils.GenerateJWT(user.UserID, user.WorldID, user.IsGM, s.jwtSecret, s.jwtExpiry, s.jwtIssuer)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, user, nil
}
