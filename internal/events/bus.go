// Package events is an in-process observer registry for cross-component
// refresh signals.
//
// Delivery is asynchronous, at-most-once per subscriber per Publish, and
// never retried. Publish does not wait for handlers; each one runs in its
// own goroutine detached from the caller's cancellation and bounded by the
// bus handler timeout. Handler failures are logged and do not reach the
// publisher.
package events

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Name string

const OrderConfirmed Name = "order-confirmed"

func (n Name) String() string {
	return string(n)
}

type Event struct {
	ID         uuid.UUID
	Name       Name
	OrderID    uuid.UUID
	OccurredAt time.Time
}

func NewOrderConfirmed(orderID uuid.UUID) Event {
	return Event{
		ID:         uuid.Must(uuid.NewV4()),
		Name:       OrderConfirmed,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	}
}

type Handler func(ctx context.Context, evt Event) error

// DefaultHandlerTimeout bounds a single handler invocation.
const DefaultHandlerTimeout = 15 * time.Second

type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Name]map[uint64]Handler
	timeout  time.Duration
	inflight sync.WaitGroup
}

func NewBus() *Bus {
	return NewBusWithTimeout(DefaultHandlerTimeout)
}

func NewBusWithTimeout(timeout time.Duration) *Bus {
	if timeout <= 0 {
		timeout = DefaultHandlerTimeout
	}
	return &Bus{
		handlers: make(map[Name]map[uint64]Handler),
		timeout:  timeout,
	}
}

// Subscribe registers h for events named name. The returned func removes
// the registration; calling it more than once is harmless.
func (b *Bus) Subscribe(name Name, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[name] == nil {
		b.handlers[name] = make(map[uint64]Handler)
	}
	b.handlers[name][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[name], id)
			if len(b.handlers[name]) == 0 {
				delete(b.handlers, name)
			}
		})
	}
}

// Publish hands evt to the handlers registered at the time of the call and
// returns without waiting for them. Handlers keep the values of ctx (trace
// span, request id) but not its deadline or cancellation.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	detached := context.WithoutCancel(ctx)
	for _, h := range b.snapshot(evt.Name) {
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			hctx, cancel := context.WithTimeout(detached, b.timeout)
			defer cancel()
			b.dispatch(hctx, h, evt)
		}()
	}
}

// Wait blocks until every handler started by Publish has returned, or ctx
// is done.
func (b *Bus) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Subscribers(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

func (b *Bus) snapshot(name Name) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	registered := b.handlers[name]
	ids := make([]uint64, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, registered[id])
	}
	return handlers
}

func (b *Bus) dispatch(ctx context.Context, h Handler, evt Event) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Interface("panic_value", p).
				Stringer("event", evt.Name).
				Stringer("order_id", evt.OrderID).
				Msg("events: subscriber panicked")
		}
	}()

	if err := h(ctx, evt); err != nil {
		log.Warn().
			Err(fmt.Errorf("events: subscriber failed: %w", err)).
			Stringer("event", evt.Name).
			Stringer("order_id", evt.OrderID).
			Msg("events: subscriber returned error")
	}
}
