package ports

import (
	"context"

	"github.com/calderis/companion_backend/internal/core/domain"
)

// ChannelHandler consumes one delivered envelope.
type ChannelHandler func(ctx context.Context, env domain.Envelope)

// Channel is the shared publish/subscribe transport of a world. Envelopes
// are delivered to every subscriber of the world, the sender included;
// targeting is the receiver's concern. Subscribe returns an unsubscribe
// func so handler lifetime is explicit.
type Channel interface {
	Publish(ctx context.Context, env domain.Envelope) error
	Subscribe(worldID string, handler ChannelHandler) (unsubscribe func())
}

// SessionRegistry enumerates connected sessions.
type SessionRegistry interface {
	Sessions(worldID string) []domain.Session
	FindSession(sessionID string) (domain.Session, bool)
}

// SessionHub is the full session-facing surface of the channel adapter:
// transport, registry, and connection bookkeeping.
type SessionHub interface {
	Channel
	SessionRegistry
	Register(session domain.Session) error
	Unregister(sessionID string)
}

// EventHandler consumes one local event payload.
type EventHandler func(payload any)

// EventBus is the in-process notification fan-out used for same-client view
// refreshes. It replaces the host's global hook bus with explicit handler
// lifetimes.
type EventBus interface {
	Emit(event string, payload any)
	On(event string, handler EventHandler) (unsubscribe func())
}

// Local event names emitted by the services.
const (
	EventCurrencyUpdated    = "currency.updated"
	EventCurrencyReceived   = "currency.received"
	EventDefinitionsChanged = "currency.definitionsChanged"
	EventTransferSettled    = "transfer.settled"
	EventTransferFailed     = "transfer.failed"
)
