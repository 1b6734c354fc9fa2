package handlers

import (
	"log/slog"
	"net/http"

	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/dto"
	"github.com/calderis/companion_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// partyHandler handles HTTP requests for the dock party overview.
type partyHandler struct {
	partyService ports.PartySvcFacade
}

func newPartyHandler(ps ports.PartySvcFacade) *partyHandler {
	return &partyHandler{partyService: ps}
}

// registerPartyRoutes registers routes related to the party overview.
func registerPartyRoutes(rg *gin.RouterGroup, partyService ports.PartySvcFacade) {
	h := newPartyHandler(partyService)

	rg.GET("/party", h.overview)
}

// overview godoc
// @Summary Party overview
// @Description Returns one row per player character with the world's configured stat columns.
// @Tags party
// @Produce json
// @Success 200 {object} dto.PartyOverviewResponse
// @Security BearerAuth
// @Router /party [get]
func (h *partyHandler) overview(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	rows, fields, err := h.partyService.Overview(c.Request.Context(), worldID)
	if err != nil {
		logger.Error("Failed to build party overview", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to build party overview"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPartyOverviewResponse(rows, fields))
}
