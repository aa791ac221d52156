// Package events delivers domain events to in-process subscribers.
package events

import (
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// Handler receives an event raised on a novel.
type Handler func(novel *types.Novel, event types.Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus fans events out to subscribers synchronously, in subscription order.
// A panicking handler is logged and does not stop delivery to the others.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
	logger *slog.Logger
}

// NewBus creates a Bus. A nil logger means slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers h and returns a func that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Emit delivers event to every subscriber. Handlers may subscribe or
// unsubscribe while being called; the change applies to the next Emit.
func (b *Bus) Emit(novel *types.Novel, event types.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	b.logger.Debug("event", "name", event.Name(), "subscribers", len(subs))
	for _, s := range subs {
		b.deliver(s, novel, event)
	}
}

func (b *Bus) deliver(s subscription, novel *types.Novel, event types.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", event.Name(), "subscriber", s.id, "panic", r)
		}
	}()
	s.handler(novel, event)
}
