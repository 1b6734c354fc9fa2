package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/dto"
	"github.com/calderis/companion_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles HTTP requests related to per-actor currency ledgers.
type ledgerHandler struct {
	ledgerService ports.LedgerSvcFacade
}

func newLedgerHandler(ls ports.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// RegisterLedgerRoutes registers routes related to ledgers.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService ports.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	actors := rg.Group("/actors/:actorID/ledger")
	{
		actors.GET("", h.getLedger)
		actors.PUT("", h.setQuantity)
		actors.POST("/adjust", h.adjustQuantity)
	}

	ledger := rg.Group("/ledger")
	{
		ledger.POST("/snapshot", h.snapshotAll)
		ledger.POST("/restore", h.restoreAll)
	}
}

// checkLedgerAccess resolves the caller identity and runs the given
// permission probe, writing the error response itself when access is denied.
func (h *ledgerHandler) checkLedgerAccess(c *gin.Context, actorID string, probe func(ctx *gin.Context, userID string, isGM bool) (bool, error)) bool {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return false
	}
	allowed, err := probe(c, userID, middleware.GetIsGMFromContext(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Actor not found"})
			return false
		}
		logger.Error("Failed to check ledger access", slog.String("actor_id", actorID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to check ledger access"})
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not permitted for this actor"})
		return false
	}
	return true
}

// getLedger godoc
// @Summary Get an actor's ledger
// @Description Returns the actor's currency holdings plus the weighted reference total when applicable. GM or owner only.
// @Tags ledger
// @Produce json
// @Param actorID path string true "Actor ID"
// @Success 200 {object} dto.LedgerResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Actor not found"
// @Security BearerAuth
// @Router /actors/{actorID}/ledger [get]
func (h *ledgerHandler) getLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID := c.Param("actorID")

	if !h.checkLedgerAccess(c, actorID, func(gc *gin.Context, userID string, isGM bool) (bool, error) {
		return h.ledgerService.CanView(gc.Request.Context(), actorID, userID, isGM)
	}) {
		return
	}

	ledger, err := h.ledgerService.GetLedger(c.Request.Context(), actorID)
	if err != nil {
		logger.Error("Failed to read ledger", slog.String("actor_id", actorID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read ledger"})
		return
	}
	total, err := h.ledgerService.TotalReference(c.Request.Context(), actorID)
	if err != nil {
		logger.Warn("Failed to compute reference total", slog.String("actor_id", actorID), slog.String("error", err.Error()))
		total = nil
	}

	c.JSON(http.StatusOK, dto.ToLedgerResponse(actorID, ledger, total))
}

// setQuantity godoc
// @Summary Set a held quantity
// @Description Sets the absolute held quantity of one currency on an actor. Negative quantities clamp to zero.
// @Tags ledger
// @Accept json
// @Produce json
// @Param actorID path string true "Actor ID"
// @Param quantity body dto.SetQuantityRequest true "Currency and quantity"
// @Success 200 {object} dto.LedgerResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Actor not found"
// @Security BearerAuth
// @Router /actors/{actorID}/ledger [put]
func (h *ledgerHandler) setQuantity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID := c.Param("actorID")

	var req dto.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	if !h.checkLedgerAccess(c, actorID, func(gc *gin.Context, userID string, isGM bool) (bool, error) {
		return h.ledgerService.CanModify(gc.Request.Context(), actorID, userID, isGM)
	}) {
		return
	}

	if err := h.ledgerService.Set(c.Request.Context(), actorID, req.CurrencyID, req.Quantity); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Actor not found"})
			return
		}
		logger.Error("Failed to set quantity", slog.String("actor_id", actorID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to set quantity"})
		return
	}

	ledger, err := h.ledgerService.GetLedger(c.Request.Context(), actorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read ledger"})
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerResponse(actorID, ledger, nil))
}

// adjustQuantity godoc
// @Summary Adjust a held quantity
// @Description Adds a signed delta to the held quantity of one currency. The result clamps at zero.
// @Tags ledger
// @Accept json
// @Produce json
// @Param actorID path string true "Actor ID"
// @Param delta body dto.AdjustQuantityRequest true "Currency and delta"
// @Success 200 {object} dto.LedgerResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Actor not found"
// @Security BearerAuth
// @Router /actors/{actorID}/ledger/adjust [post]
func (h *ledgerHandler) adjustQuantity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actorID := c.Param("actorID")

	var req dto.AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	if !h.checkLedgerAccess(c, actorID, func(gc *gin.Context, userID string, isGM bool) (bool, error) {
		return h.ledgerService.CanModify(gc.Request.Context(), actorID, userID, isGM)
	}) {
		return
	}

	if err := h.ledgerService.Add(c.Request.Context(), actorID, req.CurrencyID, req.Delta); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Actor not found"})
			return
		}
		logger.Error("Failed to adjust quantity", slog.String("actor_id", actorID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to adjust quantity"})
		return
	}

	ledger, err := h.ledgerService.GetLedger(c.Request.Context(), actorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to read ledger"})
		return
	}
	c.JSON(http.StatusOK, dto.ToLedgerResponse(actorID, ledger, nil))
}

// snapshotAll godoc
// @Summary Snapshot system currency
// @Description Copies every actor's base system currency into a recoverable snapshot. GM only.
// @Tags ledger
// @Produce json
// @Success 200 {object} dto.BulkLedgerOpResponse
// @Failure 403 {object} ErrorResponse "GM rights required"
// @Security BearerAuth
// @Router /ledger/snapshot [post]
func (h *ledgerHandler) snapshotAll(c *gin.Context) {
	h.bulkLedgerOp(c, h.ledgerService.SnapshotAll)
}

// restoreAll godoc
// @Summary Restore system currency
// @Description Writes each snapshotted base currency back onto its actor. GM only.
// @Tags ledger
// @Produce json
// @Success 200 {object} dto.BulkLedgerOpResponse
// @Failure 403 {object} ErrorResponse "GM rights required"
// @Security BearerAuth
// @Router /ledger/restore [post]
func (h *ledgerHandler) restoreAll(c *gin.Context) {
	h.bulkLedgerOp(c, h.ledgerService.RestoreAll)
}

func (h *ledgerHandler) bulkLedgerOp(c *gin.Context, op func(ctx context.Context, worldID string) (int, error)) {
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

	count, err := op(c.Request.Context(), worldID)
	if err != nil {
		logger.Error("Bulk ledger operation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Bulk ledger operation failed"})
		return
	}
	c.JSON(http.StatusOK, dto.BulkLedgerOpResponse{ActorsProcessed: count})
}
