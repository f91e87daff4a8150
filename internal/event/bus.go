package event

import (
	"context"
	"log/slog"
	"sync"
)

// Handler reacts to one published payload. Errors are logged by the bus
// and never propagate to the publisher.
type Handler func(ctx context.Context, p Payload) error

// Bus is an in-process publish/subscribe channel for domain events.
// Handlers are registered per event type; a published payload is delivered
// to every handler of its type, each on its own goroutine, so a slow or
// failing consumer cannot stall the state machine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	logger   *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish delivers p to all handlers registered for its type and returns
// immediately.
func (b *Bus) Publish(ctx context.Context, p Payload) {
	b.mu.RLock()
	handlers := b.handlers[p.EventType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		go b.dispatch(ctx, p, h)
	}
}

func (b *Bus) dispatch(ctx context.Context, p Payload, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "event handler panicked",
				slog.String("event_type", string(p.EventType())),
				slog.Any("panic", r),
			)
		}
	}()

	if err := h(ctx, p); err != nil {
		b.logger.ErrorContext(ctx, "event handler failed",
			slog.String("event_type", string(p.EventType())),
			slog.Any("error", err),
		)
	}
}
