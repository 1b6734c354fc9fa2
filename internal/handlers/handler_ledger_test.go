package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/dto"
	"github.com/calderis/companion_backend/internal/handlers"
	"github.com/calderis/companion_backend/internal/middleware"
	"github.com/calderis/companion_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CanView(ctx context.Context, actorID, userID string, isGM bool) (bool, error) {
	args := m.Called(ctx, actorID, userID, isGM)
	return args.Bool(0), args.Error(1)
}
func (m *MockLedgerService) CanModify(ctx context.Context, actorID, userID string, isGM bool) (bool, error) {
	args := m.Called(ctx, actorID, userID, isGM)
	return args.Bool(0), args.Error(1)
}
func (m *MockLedgerService) GetLedger(ctx context.Context, actorID string) (domain.Ledger, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Ledger), args.Error(1)
}
func (m *MockLedgerService) Set(ctx context.Context, actorID, currencyID string, quantity int64) error {
	args := m.Called(ctx, actorID, currencyID, quantity)
	return args.Error(0)
}
func (m *MockLedgerService) Add(ctx context.Context, actorID, currencyID string, delta int64) error {
	args := m.Called(ctx, actorID, currencyID, delta)
	return args.Error(0)
}
func (m *MockLedgerService) TotalReference(ctx context.Context, actorID string) (*decimal.Decimal, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*decimal.Decimal), args.Error(1)
}
func (m *MockLedgerService) SnapshotAll(ctx context.Context, worldID string) (int, error) {
	args := m.Called(ctx, worldID)
	return args.Int(0), args.Error(1)
}
func (m *MockLedgerService) RestoreAll(ctx context.Context, worldID string) (int, error) {
	args := m.Called(ctx, worldID)
	return args.Int(0), args.Error(1)
}

// Ensure mock implements the interface
var _ ports.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Test Suite ---
type LedgerHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockLedgerService *MockLedgerService
	jwtSecret         string
}

func (suite *LedgerHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	handlers.RegisterCustomValidations()
	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockLedgerService = new(MockLedgerService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterLedgerRoutes(v1, suite.mockLedgerService)
}

func (suite *LedgerHandlerTestSuite) generateTestToken(userID, worldID string, isGM bool) string {
	token, err := utils.GenerateJWT(userID, worldID, isGM, suite.jwtSecret, time.Hour, "companion-test")
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *LedgerHandlerTestSuite) serve(method, url, token string, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *LedgerHandlerTestSuite) TestGetLedger_Success() {
	total := decimal.NewFromInt(11)
	suite.mockLedgerService.On("CanView", mock.Anything, "actor-1", "user-gm", true).Return(true, nil).Once()
	suite.mockLedgerService.On("GetLedger", mock.Anything, "actor-1").Return(domain.Ledger{"gp": 10, "sp": 100}, nil).Once()
	suite.mockLedgerService.On("TotalReference", mock.Anything, "actor-1").Return(&total, nil).Once()

	token := suite.generateTestToken("user-gm", "world-1", true)
	w := suite.serve(http.MethodGet, "/api/v1/actors/actor-1/ledger", token, "")

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.LedgerResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("actor-1", resp.ActorID)
	suite.Equal(int64(10), resp.Holdings["gp"])
	suite.NotNil(resp.TotalReference)
	suite.True(resp.TotalReference.Equal(total))

	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestGetLedger_Forbidden() {
	suite.mockLedgerService.On("CanView", mock.Anything, "actor-1", "user-player", false).Return(false, nil).Once()

	token := suite.generateTestToken("user-player", "world-1", false)
	w := suite.serve(http.MethodGet, "/api/v1/actors/actor-1/ledger", token, "")

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "GetLedger")
}

func (suite *LedgerHandlerTestSuite) TestGetLedger_ActorNotFound() {
	suite.mockLedgerService.On("CanView", mock.Anything, "actor-ghost", "user-gm", true).
		Return(false, fmt.Errorf("failed to load actor actor-ghost: %w", apperrors.ErrNotFound)).Once()

	token := suite.generateTestToken("user-gm", "world-1", true)
	w := suite.serve(http.MethodGet, "/api/v1/actors/actor-ghost/ledger", token, "")

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestGetLedger_NoToken() {
	w := suite.serve(http.MethodGet, "/api/v1/actors/actor-1/ledger", "", "")
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "CanView")
}

func (suite *LedgerHandlerTestSuite) TestSetQuantity_Success() {
	suite.mockLedgerService.On("CanModify", mock.Anything, "actor-1", "user-player", false).Return(true, nil).Once()
	suite.mockLedgerService.On("Set", mock.Anything, "actor-1", "gp", int64(25)).Return(nil).Once()
	suite.mockLedgerService.On("GetLedger", mock.Anything, "actor-1").Return(domain.Ledger{"gp": 25}, nil).Once()

	token := suite.generateTestToken("user-player", "world-1", false)
	w := suite.serve(http.MethodPut, "/api/v1/actors/actor-1/ledger", token, `{"currencyId":"gp","quantity":25}`)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.LedgerResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(25), resp.Holdings["gp"])
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestSetQuantity_InvalidCurrencyID() {
	token := suite.generateTestToken("user-gm", "world-1", true)
	w := suite.serve(http.MethodPut, "/api/v1/actors/actor-1/ledger", token, `{"currencyId":"Gold Pieces!","quantity":25}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "Set")
}

func (suite *LedgerHandlerTestSuite) TestAdjustQuantity_Success() {
	suite.mockLedgerService.On("CanModify", mock.Anything, "actor-1", "user-gm", true).Return(true, nil).Once()
	suite.mockLedgerService.On("Add", mock.Anything, "actor-1", "gp", int64(-5)).Return(nil).Once()
	suite.mockLedgerService.On("GetLedger", mock.Anything, "actor-1").Return(domain.Ledger{"gp": 5}, nil).Once()

	token := suite.generateTestToken("user-gm", "world-1", true)
	w := suite.serve(http.MethodPost, "/api/v1/actors/actor-1/ledger/adjust", token, `{"currencyId":"gp","delta":-5}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestSnapshot_RequiresGM() {
	token := suite.generateTestToken("user-player", "world-1", false)
	w := suite.serve(http.MethodPost, "/api/v1/ledger/snapshot", token, "")

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "SnapshotAll")
}

func (suite *LedgerHandlerTestSuite) TestSnapshot_Success() {
	suite.mockLedgerService.On("SnapshotAll", mock.Anything, "world-1").Return(4, nil).Once()

	token := suite.generateTestToken("user-gm", "world-1", true)
	w := suite.serve(http.MethodPost, "/api/v1/ledger/snapshot", token, "")

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.BulkLedgerOpResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(4, resp.ActorsProcessed)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestRestore_Success() {
	suite.mockLedgerService.On("RestoreAll", mock.Anything, "world-1").Return(3, nil).Once()

	token := suite.generateTestToken("user-gm", "world-1", true)
	w := suite.serve(http.MethodPost, "/api/v1/ledger/restore", token, "")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func TestLedgerHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}
