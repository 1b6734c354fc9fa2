package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/services"
	"github.com/calderis/companion_backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "test-signing-secret"

type AuthServiceTestSuite struct {
	suite.Suite
	svc *services.AuthService
	ctx context.Context
}

func (s *AuthServiceTestSuite) SetupSuite() {
	playerHash, err := utils.HashPassword("open-sesame")
	require.NoError(s.T(), err)
	gmHash, err := utils.HashPassword("gm-secret")
	require.NoError(s.T(), err)

	users := newFakeUserRepo(
		&domain.User{UserID: "user-player", WorldID: "world-1", Name: "Kara", JoinSecretHash: playerHash},
		&domain.User{UserID: "user-gm", WorldID: "world-1", Name: "Devin", IsGM: true, JoinSecretHash: gmHash},
	)
	s.svc = services.NewAuthService(users, testJWTSecret, time.Hour, "companion-backend")
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) TestJoinIssuesValidToken() {
	token, user, err := s.svc.Join(s.ctx, "world-1", "user-player", "open-sesame")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), user)
	assert.Equal(s.T(), "Kara", user.Name)
	assert.False(s.T(), user.IsGM)

	claims, err := utils.ParseAndValidateJWT(token, testJWTSecret)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "user-player", claims.Subject)
	require.Len(s.T(), claims.Audience, 1)
	assert.Equal(s.T(), "world-1", claims.Audience[0])
	assert.Equal(s.T(), "companion-backend", claims.Issuer)
	assert.False(s.T(), claims.GM)
}

func (s *AuthServiceTestSuite) TestJoinCarriesGMClaim() {
	token, user, err := s.svc.Join(s.ctx, "world-1", "user-gm", "gm-secret")
	require.NoError(s.T(), err)
	assert.True(s.T(), user.IsGM)

	claims, err := utils.ParseAndValidateJWT(token, testJWTSecret)
	require.NoError(s.T(), err)
	assert.True(s.T(), claims.GM)
}

func (s *AuthServiceTestSuite) TestJoinWrongSecret() {
	_, _, err := s.svc.Join(s.ctx, "world-1", "user-player", "wrong")
	assert.ErrorIs(s.T(), err, apperrors.ErrForbidden)
}

func (s *AuthServiceTestSuite) TestJoinUnknownUser() {
	_, _, err := s.svc.Join(s.ctx, "world-1", "user-ghost", "open-sesame")
	assert.ErrorIs(s.T(), err, apperrors.ErrForbidden)
}

func (s *AuthServiceTestSuite) TestJoinWrongWorld() {
	_, _, err := s.svc.Join(s.ctx, "world-2", "user-player", "open-sesame")
	assert.ErrorIs(s.T(), err, apperrors.ErrForbidden)
}

func (s *AuthServiceTestSuite) TestTokenRejectsWrongSigningKey() {
	token, _, err := s.svc.Join(s.ctx, "world-1", "user-player", "open-sesame")
	require.NoError(s.T(), err)

	_, err = utils.ParseAndValidateJWT(token, "another-secret")
	assert.Error(s.T(), err)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
