package bus

import "sync"

// EventBus is the process-wide EventPublisher implementation: subscribers
// keyed by an opaque id (mirroring the per-client subscription style used by
// the WebSocket gateway), broadcast fans out synchronously to all of them.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string]EventHandler
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string]EventHandler)}
}

// Subscribe registers handler under id, replacing any existing subscription
// with the same id.
func (b *EventBus) Subscribe(id string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = handler
}

// Unsubscribe removes the subscription registered under id.
func (b *EventBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Broadcast fans event out to every current subscriber.
func (b *EventBus) Broadcast(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

var _ EventPublisher = (*EventBus)(nil)
