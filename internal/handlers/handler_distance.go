package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/dto"
	"github.com/calderis/companion_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// distanceHandler handles HTTP requests for token-to-token measurements.
type distanceHandler struct {
	distanceService ports.DistanceSvcFacade
}

func newDistanceHandler(ds ports.DistanceSvcFacade) *distanceHandler {
	return &distanceHandler{distanceService: ds}
}

// registerDistanceRoutes registers routes related to distance measurement.
func registerDistanceRoutes(rg *gin.RouterGroup, distanceService ports.DistanceSvcFacade) {
	h := newDistanceHandler(distanceService)

	rg.GET("/distance", h.measure)
}

// measure godoc
// @Summary Measure distance between two tokens
// @Description Returns the grid space count and the rounded scene-unit distance between two tokens of the same scene.
// @Tags distance
// @Produce json
// @Param from query string true "Origin token ID"
// @Param to query string true "Target token ID"
// @Success 200 {object} dto.DistanceResponse
// @Failure 400 {object} ErrorResponse "Tokens not on the same scene"
// @Failure 403 {object} ErrorResponse "Token belongs to another world"
// @Failure 404 {object} ErrorResponse "Token not found"
// @Security BearerAuth
// @Router /distance [get]
func (h *distanceHandler) measure(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.MeasureDistanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Both from and to token ids are required"})
		return
	}

	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	m, err := h.distanceService.Measure(c.Request.Context(), worldID, req.FromTokenID, req.ToTokenID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Token not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to measure distance", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to measure distance"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToDistanceResponse(m))
}
