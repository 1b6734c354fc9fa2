package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/dto"
	"github.com/calderis/companion_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// presetHandler handles HTTP requests related to token sight/light presets.
type presetHandler struct {
	presetService ports.PresetSvcFacade
}

func newPresetHandler(ps ports.PresetSvcFacade) *presetHandler {
	return &presetHandler{presetService: ps}
}

// registerPresetRoutes registers routes related to presets.
func registerPresetRoutes(rg *gin.RouterGroup, presetService ports.PresetSvcFacade) {
	h := newPresetHandler(presetService)

	rg.GET("/presets", h.listPresets)

	tokens := rg.Group("/tokens/:tokenID/presets")
	{
		tokens.POST("/apply", h.applyPreset)
		tokens.POST("/revert", h.revertPreset)
	}
}

// callerSession builds a session context from the authenticated request.
func callerSession(c *gin.Context) (domain.SessionContext, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return domain.SessionContext{}, false
	}
	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		return domain.SessionContext{}, false
	}
	return domain.SessionContext{
		UserID:  userID,
		WorldID: worldID,
		IsGM:    middleware.GetIsGMFromContext(c),
	}, true
}

// listPresets godoc
// @Summary List presets
// @Description Returns the stock sight and light preset catalog.
// @Tags presets
// @Produce json
// @Success 200 {array} dto.PresetResponse
// @Security BearerAuth
// @Router /presets [get]
func (h *presetHandler) listPresets(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToListPresetResponse(h.presetService.Presets()))
}

// applyPreset godoc
// @Summary Apply a preset to a token
// @Description Snapshots the token's current sight/light state and applies the named preset on top.
// @Tags presets
// @Accept json
// @Produce json
// @Param tokenID path string true "Token ID"
// @Param preset body dto.ApplyPresetRequest true "Preset to apply"
// @Success 204 "Applied"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Token belongs to another world"
// @Failure 404 {object} ErrorResponse "Token or preset not found"
// @Security BearerAuth
// @Router /tokens/{tokenID}/presets/apply [post]
func (h *presetHandler) applyPreset(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tokenID := c.Param("tokenID")

	var req dto.ApplyPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	sess, ok := callerSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.presetService.Apply(c.Request.Context(), sess, tokenID, req.PresetID); err != nil {
		h.writePresetError(c, logger, err, "Failed to apply preset")
		return
	}
	c.Status(http.StatusNoContent)
}

// revertPreset godoc
// @Summary Revert a preset slot
// @Description Restores the token state captured before the last preset touched the named slot.
// @Tags presets
// @Accept json
// @Produce json
// @Param tokenID path string true "Token ID"
// @Param slot body dto.RevertPresetRequest true "Slot to restore"
// @Success 204 "Reverted"
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Token belongs to another world"
// @Failure 404 {object} ErrorResponse "Token or snapshot not found"
// @Security BearerAuth
// @Router /tokens/{tokenID}/presets/revert [post]
func (h *presetHandler) revertPreset(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tokenID := c.Param("tokenID")

	var req dto.RevertPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	sess, ok := callerSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.presetService.Revert(c.Request.Context(), sess, tokenID, req.Slot); err != nil {
		h.writePresetError(c, logger, err, "Failed to revert preset")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *presetHandler) writePresetError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}
