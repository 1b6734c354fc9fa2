package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/dto"
	"github.com/calderis/companion_backend/internal/middleware"
	"github.com/calderis/companion_backend/pkg/config"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles world join requests.
type AuthHandler struct {
	authService ports.AuthSvcFacade
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as ports.AuthSvcFacade) *AuthHandler {
	return &AuthHandler{authService: as}
}

// registerAuthRoutes sets up the public authentication routes.
func registerAuthRoutes(rg *gin.Engine, cfg *config.Config, authService ports.AuthSvcFacade) {
	h := NewAuthHandler(authService)

	rate, err := limiter.NewRateFromFormatted(cfg.JoinRateLimit)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("5-M")
	}
	store := memory.NewStore()
	ipLimiter := limiter.New(store, rate)
	limitMiddleware := limitergin.NewMiddleware(ipLimiter)

	auth := rg.Group("/api/v1/auth")
	{
		auth.POST("/join", limitMiddleware, h.Join)
	}
}

// Join godoc
// @Summary Join a world
// @Description Verifies a world member's join secret and returns a session token.
// @Tags auth
// @Accept json
// @Produce json
// @Param join body dto.JoinRequest true "Join Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/join [post]
func (h *AuthHandler) Join(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	token, user, err := h.authService.Join(c.Request.Context(), req.WorldID, req.UserID, req.Secret)
	if err != nil {
		if errors.Is(err, apperrors.ErrForbidden) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid world, user or secret"})
			return
		}
		logger.Error("Failed to join world", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to join world"})
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Token:   token,
		UserID:  user.UserID,
		WorldID: user.WorldID,
		Name:    user.Name,
		IsGM:    user.IsGM,
	})
}
