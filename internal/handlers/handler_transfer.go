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

// transferHandler handles HTTP requests that initiate currency transfers.
type transferHandler struct {
	transferService ports.TransferSvcFacade
	sessions        ports.SessionRegistry
}

func newTransferHandler(ts ports.TransferSvcFacade, sessions ports.SessionRegistry) *transferHandler {
	return &transferHandler{transferService: ts, sessions: sessions}
}

// registerTransferRoutes registers routes related to transfers.
func registerTransferRoutes(rg *gin.RouterGroup, transferService ports.TransferSvcFacade, sessions ports.SessionRegistry) {
	h := newTransferHandler(transferService, sessions)

	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.createTransfer)
	}
}

// createTransfer godoc
// @Summary Initiate a currency transfer
// @Description Debits the sender, publishes the transfer to the recipient's session and returns the request id. The debit is rolled back if no acknowledgement arrives.
// @Tags transfers
// @Accept json
// @Produce json
// @Param transfer body dto.TransferRequest true "Transfer details"
// @Success 202 {object} dto.TransferResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 402 {object} ErrorResponse "Insufficient funds"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Actor not found"
// @Failure 409 {object} ErrorResponse "No recipient connected"
// @Security BearerAuth
// @Router /transfers [post]
func (h *transferHandler) createTransfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}
	worldID, _ := middleware.GetWorldIDFromContext(c)

	// The request must name a live connection belonging to the caller so
	// the acknowledgement can be routed back to it.
	session, found := h.sessions.FindSession(req.SessionID)
	if !found || session.UserID != userID || session.WorldID != worldID {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Session does not belong to the caller"})
		return
	}

	requestID, err := h.transferService.RequestTransfer(c.Request.Context(), session.Context(), req.ToTransferPayload(""))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "Insufficient funds"})
		case errors.Is(err, apperrors.ErrNoRecipient):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "No connected player owns the receiving actor"})
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Actor not found"})
		default:
			logger.Error("Failed to initiate transfer", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to initiate transfer"})
		}
		return
	}

	logger.Info("Transfer published", slog.String("request_id", requestID))
	c.JSON(http.StatusAccepted, dto.TransferResponse{RequestID: requestID, Status: "pending"})
}
