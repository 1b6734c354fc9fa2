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

// currencyHandler handles HTTP requests related to currency definitions.
type currencyHandler struct {
	definitionService ports.DefinitionSvcFacade
}

func newCurrencyHandler(ds ports.DefinitionSvcFacade) *currencyHandler {
	return &currencyHandler{definitionService: ds}
}

// registerCurrencyRoutes registers routes related to currency definitions.
func registerCurrencyRoutes(rg *gin.RouterGroup, definitionService ports.DefinitionSvcFacade) {
	h := newCurrencyHandler(definitionService)

	currencies := rg.Group("/currencies")
	{
		currencies.GET("", h.listCurrencies)
		currencies.PUT("", h.replaceCurrencies)
	}
}

// listCurrencies godoc
// @Summary List currency definitions
// @Description Returns the caller's world currency definitions sorted by display order.
// @Tags currencies
// @Produce json
// @Success 200 {array} dto.CurrencyDefinitionResponse
// @Security BearerAuth
// @Router /currencies [get]
func (h *currencyHandler) listCurrencies(c *gin.Context) {
	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}
	defs := h.definitionService.List(c.Request.Context(), worldID)
	c.JSON(http.StatusOK, dto.ToListCurrencyDefinitionResponse(defs))
}

// replaceCurrencies godoc
// @Summary Replace currency definitions
// @Description Replaces the whole definition list of the caller's world. Ids are deduplicated and missing names filled in. GM only.
// @Tags currencies
// @Accept json
// @Produce json
// @Param definitions body dto.ReplaceDefinitionsRequest true "New definition list"
// @Success 200 {array} dto.CurrencyDefinitionResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "GM rights required"
// @Security BearerAuth
// @Router /currencies [put]
func (h *currencyHandler) replaceCurrencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if !middleware.GetIsGMFromContext(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "GM rights required"})
		return
	}
	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.ReplaceDefinitionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for replaceCurrencies", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	defs := make([]domain.CurrencyDefinition, len(req.Definitions))
	for i, row := range req.Definitions {
		defs[i] = row.ToCurrencyDefinition()
	}

	saved, err := h.definitionService.ReplaceAll(c.Request.Context(), worldID, defs)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to replace currency definitions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to replace currency definitions"})
		return
	}

	logger.Info("Currency definitions replaced", slog.Int("count", len(saved)))
	c.JSON(http.StatusOK, dto.ToListCurrencyDefinitionResponse(saved))
}
