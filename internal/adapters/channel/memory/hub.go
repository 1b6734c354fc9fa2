// Package memory implements the shared world channel and session registry
// in process. It is the only transport in tests and the backing fan-out for
// the websocket gateway in production.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
)

type subscription struct {
	worldID string
	handler ports.ChannelHandler
}

// Hub tracks connected sessions and fans envelopes out to every subscriber
// of the envelope's world, the sender included. Delivery is synchronous on
// the publishing goroutine; handlers must not block.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	subs     map[uint64]subscription
	nextSub  uint64
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]domain.Session),
		subs:     make(map[uint64]subscription),
	}
}

// Register adds a connected session. Duplicate session ids are rejected.
func (h *Hub) Register(session domain.Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.sessions[session.SessionID]; exists {
		return fmt.Errorf("%w: session %s", apperrors.ErrDuplicate, session.SessionID)
	}
	h.sessions[session.SessionID] = session
	return nil
}

// Unregister removes a session. Unknown ids are a no-op.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
}

// Sessions lists the connected sessions of a world, oldest first.
func (h *Hub) Sessions(worldID string) []domain.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if s.WorldID == worldID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// FindSession looks a connected session up by id.
func (h *Hub) FindSession(sessionID string) (domain.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	return s, ok
}

// Publish delivers the envelope to every subscriber of its world. Handlers
// run inline; the subscriber set is snapshotted first so handlers may
// publish or unsubscribe without deadlocking.
func (h *Hub) Publish(ctx context.Context, env domain.Envelope) error {
	if env.Op == "" || env.WorldID == "" {
		return fmt.Errorf("%w: envelope needs op and world", apperrors.ErrValidation)
	}
	h.mu.RLock()
	handlers := make([]ports.ChannelHandler, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.worldID == env.WorldID {
			handlers = append(handlers, sub.handler)
		}
	}
	h.mu.RUnlock()
	for _, handler := range handlers {
		handler(ctx, env)
	}
	return nil
}

// Subscribe attaches a handler to a world and returns its unsubscribe func.
func (h *Hub) Subscribe(worldID string, handler ports.ChannelHandler) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = subscription{worldID: worldID, handler: handler}
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

var _ ports.SessionHub = (*Hub)(nil)
