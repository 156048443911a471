package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"address_lookup_backend/platform/logger"
)

// InMemoryBus dispatches events to handlers registered in the same process.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

var _ Bus = (*InMemoryBus)(nil)

// Subscribe registers a handler for eventName.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish delivers the events in the background, one event after another and
// each event's handlers in subscription order. Handler errors are logged; the
// request context is detached so handlers outlive the caller's request.
func (b *InMemoryBus) Publish(ctx context.Context, events ...Event) {
	type delivery struct {
		event    Event
		handlers []Handler
	}
	batch := make([]delivery, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		if handlers := b.snapshot(e.EventName()); len(handlers) > 0 {
			batch = append(batch, delivery{event: e, handlers: handlers})
		}
	}
	if len(batch) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for _, d := range batch {
			for _, h := range d.handlers {
				if err := b.invoke(detached, h, d.event); err != nil {
					b.log.Error("event handler failed", "event", d.event.EventName(), "eventId", d.event.EventID(), "error", err)
				}
			}
		}
	}()
}

// PublishSync runs every handler sequentially and joins their errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range b.snapshot(event.EventName()) {
		if err := b.invoke(ctx, h, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until all asynchronously published handlers have returned.
func (b *InMemoryBus) Wait() {
	b.wg.Wait()
}

func (b *InMemoryBus) snapshot(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := b.handlers[eventName]
	out := make([]Handler, len(handlers))
	copy(out, handlers)
	return out
}

func (b *InMemoryBus) invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", event.EventName(), r)
		}
	}()
	return h.Handle(ctx, event)
}
