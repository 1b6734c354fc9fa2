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

// settingsHandler handles HTTP requests related to registered settings.
type settingsHandler struct {
	settingsService ports.SettingsSvcFacade
}

func newSettingsHandler(ss ports.SettingsSvcFacade) *settingsHandler {
	return &settingsHandler{settingsService: ss}
}

// registerSettingsRoutes registers routes related to settings.
func registerSettingsRoutes(rg *gin.RouterGroup, settingsService ports.SettingsSvcFacade) {
	h := newSettingsHandler(settingsService)

	settings := rg.Group("/settings")
	{
		settings.GET("", h.listSettingSpecs)
		settings.GET("/:key", h.getSetting)
		settings.PUT("/:key", h.updateSetting)
	}
}

// listSettingSpecs godoc
// @Summary List registered settings
// @Description Returns every registered setting key with its scope, kind, default and choices.
// @Tags settings
// @Produce json
// @Success 200 {array} dto.SettingSpecResponse
// @Security BearerAuth
// @Router /settings [get]
func (h *settingsHandler) listSettingSpecs(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToListSettingSpecResponse(h.settingsService.Registry()))
}

// getSetting godoc
// @Summary Get a setting value
// @Description Returns the effective value of one registered setting for the caller's world. Client-scoped keys resolve per caller.
// @Tags settings
// @Produce json
// @Param key path string true "Setting key"
// @Success 200 {object} dto.SettingResponse
// @Failure 404 {object} ErrorResponse "Unknown setting key"
// @Security BearerAuth
// @Router /settings/{key} [get]
func (h *settingsHandler) getSetting(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	key := c.Param("key")

	userID, _ := middleware.GetUserIDFromContext(c)
	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	value, err := h.settingsService.Get(c.Request.Context(), worldID, userID, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Unknown setting key"})
			return
		}
		logger.Error("Failed to read setting", slog.String("key", key), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read setting"})
		return
	}

	c.JSON(http.StatusOK, dto.SettingResponse{Key: key, Value: value})
}

// updateSetting godoc
// @Summary Update a setting value
// @Description Writes one registered setting. World-scoped keys require GM rights; client-scoped keys write the caller's own value.
// @Tags settings
// @Accept json
// @Produce json
// @Param key path string true "Setting key"
// @Param setting body dto.UpdateSettingRequest true "New value"
// @Success 200 {object} dto.SettingResponse
// @Failure 400 {object} ErrorResponse "Invalid value"
// @Failure 403 {object} ErrorResponse "GM rights required"
// @Failure 404 {object} ErrorResponse "Unknown setting key"
// @Security BearerAuth
// @Router /settings/{key} [put]
func (h *settingsHandler) updateSetting(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	key := c.Param("key")

	var req dto.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	spec, found := domain.FindSettingSpec(key)
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Unknown setting key"})
		return
	}
	if spec.Scope == domain.ScopeWorld && !middleware.GetIsGMFromContext(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "GM rights required"})
		return
	}

	if err := h.settingsService.Set(c.Request.Context(), worldID, userID, key, req.Value); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to update setting", slog.String("key", key), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update setting"})
		return
	}

	logger.Info("Setting updated", slog.String("key", key))
	c.JSON(http.StatusOK, dto.SettingResponse{Key: key, Value: req.Value})
}
