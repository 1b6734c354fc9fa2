package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/calderis/companion_backend/internal/adapters/channel/ws"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// sessionHandler handles live session listing and websocket attachment.
type sessionHandler struct {
	hub     ports.SessionHub
	gateway *ws.Gateway
}

func newSessionHandler(hub ports.SessionHub, gateway *ws.Gateway) *sessionHandler {
	return &sessionHandler{hub: hub, gateway: gateway}
}

// registerSessionRoutes registers routes related to live sessions.
func registerSessionRoutes(rg *gin.RouterGroup, hub ports.SessionHub, gateway *ws.Gateway) {
	h := newSessionHandler(hub, gateway)

	sessions := rg.Group("/sessions")
	{
		sessions.GET("", h.listSessions)
		sessions.GET("/ws", h.attach)
	}
}

// SessionResponse describes one live session of the caller's world.
type SessionResponse struct {
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	IsGM        bool      `json:"isGM"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// listSessions godoc
// @Summary List live sessions
// @Description Returns the sessions currently attached to the caller's world, oldest first.
// @Tags sessions
// @Produce json
// @Success 200 {array} SessionResponse
// @Security BearerAuth
// @Router /sessions [get]
func (h *sessionHandler) listSessions(c *gin.Context) {
	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	sessions := h.hub.Sessions(worldID)
	res := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		res[i] = SessionResponse{
			SessionID:   s.SessionID,
			UserID:      s.UserID,
			IsGM:        s.IsGM,
			ConnectedAt: s.ConnectedAt,
		}
	}
	c.JSON(http.StatusOK, res)
}

// attach godoc
// @Summary Attach a websocket session
// @Description Upgrades the connection and registers a live session on the caller's world channel.
// @Tags sessions
// @Success 101 "Switching protocols"
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /sessions/ws [get]
func (h *sessionHandler) attach(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}
	worldID, ok := middleware.GetWorldIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	session := domain.Session{
		SessionID:   uuid.NewString(),
		UserID:      userID,
		WorldID:     worldID,
		IsGM:        middleware.GetIsGMFromContext(c),
		ConnectedAt: time.Now().UTC(),
	}

	if err := h.gateway.Serve(c.Writer, c.Request, session); err != nil {
		logger.Warn("Websocket session ended with error", slog.String("error", err.Error()))
	}
}
