// Package events provides the in-process notification bus used for
// same-client view refreshes, with explicit handler lifetimes.
package events

import (
	"sync"

	"github.com/calderis/companion_backend/internal/core/ports"
)

// Bus is a synchronous in-process event fan-out. Handlers run on the
// emitting goroutine in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[uint64]ports.EventHandler
	nextID   uint64
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[uint64]ports.EventHandler)}
}

// Emit delivers the payload to every handler subscribed to the event.
func (b *Bus) Emit(event string, payload any) {
	b.mu.RLock()
	subs := make([]ports.EventHandler, 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		subs = append(subs, h)
	}
	b.mu.RUnlock()
	for _, h := range subs {
		h(payload)
	}
}

// On subscribes a handler and returns its unsubscribe func.
func (b *Bus) On(event string, handler ports.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[uint64]ports.EventHandler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[event][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[event], id)
	}
}

var _ ports.EventBus = (*Bus)(nil)
