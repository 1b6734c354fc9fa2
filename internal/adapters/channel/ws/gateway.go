// Package ws exposes the world channel to remote clients over websocket.
// Each accepted connection becomes a registered session on the hub; inbound
// frames are published as envelopes, and every envelope of the session's
// world is forwarded back out.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// Gateway upgrades HTTP requests and bridges connections onto the hub.
type Gateway struct {
	hub       ports.SessionHub
	transfers ports.TransferSvcFacade
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

func NewGateway(hub ports.SessionHub, transfers ports.TransferSvcFacade, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		hub:       hub,
		transfers: transfers,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients authenticate with a bearer token; origin
			// enforcement happens in the HTTP middleware layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type errorFrame struct {
	Error string `json:"error"`
}

// Serve upgrades the request and runs the connection until it closes. The
// session is registered on the hub for the whole connection lifetime.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, session domain.Session) error {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	if err := g.hub.Register(session); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session already connected"),
			time.Now().Add(writeWait))
		conn.Close()
		return err
	}

	logger := g.logger.With(
		slog.String("session_id", session.SessionID),
		slog.String("world_id", session.WorldID),
	)
	logger.Info("session connected")

	outbound := make(chan domain.Envelope, sendBuffer)
	sessCtx := session.Context()
	unsubscribe := g.hub.Subscribe(session.WorldID, func(ctx context.Context, env domain.Envelope) {
		if err := g.transfers.HandleEnvelope(ctx, sessCtx, env); err != nil {
			logger.Warn("envelope handling failed", slog.String("op", string(env.Op)), slog.String("error", err.Error()))
		}
		select {
		case outbound <- env:
		default:
			logger.Warn("outbound buffer full, dropping envelope", slog.String("op", string(env.Op)))
		}
	})

	done := make(chan struct{})
	go g.writePump(conn, outbound, done, logger)
	g.readPump(conn, session, logger)

	unsubscribe()
	g.hub.Unregister(session.SessionID)
	close(done)
	conn.Close()
	logger.Info("session disconnected")
	return nil
}

// readPump publishes inbound frames until the connection drops. Frames with
// an unknown op are answered with an error frame instead of being silently
// ignored.
func (g *Gateway) readPump(conn *websocket.Conn, session domain.Session, logger *slog.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}

		if _, err := domain.DecodeMessage(env); err != nil {
			if errors.Is(err, apperrors.ErrUnknownOp) {
				logger.Warn("rejecting envelope", slog.String("op", string(env.Op)))
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteJSON(errorFrame{Error: err.Error()})
			continue
		}

		// The connection identity wins over whatever the client claimed.
		env.FromSession = session.SessionID
		env.WorldID = session.WorldID
		if env.ID == "" {
			env.ID = uuid.NewString()
		}
		if err := g.hub.Publish(context.Background(), env); err != nil {
			logger.Warn("publish failed", slog.String("op", string(env.Op)), slog.String("error", err.Error()))
		}
	}
}

func (g *Gateway) writePump(conn *websocket.Conn, outbound <-chan domain.Envelope, done <-chan struct{}, logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case env := <-outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(env); err != nil {
				logger.Warn("write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
