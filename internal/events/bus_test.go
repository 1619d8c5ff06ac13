package events_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront-admin/internal/events"
)

func waitForHandlers(t *testing.T, bus *events.Bus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bus.Wait(ctx))
}

func TestBus_PublishDeliversToEverySubscriberOfName(t *testing.T) {
	bus := events.NewBus()
	var mu sync.Mutex
	var got []string

	record := func(label string) events.Handler {
		return func(ctx context.Context, evt events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, label)
			return nil
		}
	}
	bus.Subscribe(events.OrderConfirmed, record("first"))
	bus.Subscribe(events.OrderConfirmed, record("second"))
	bus.Subscribe(events.Name("other"), record("other"))

	bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Must(uuid.NewV4())))
	waitForHandlers(t, bus)

	assert.ElementsMatch(t, []string{"first", "second"}, got)
}

func TestBus_PublishDoesNotWaitForHandlers(t *testing.T) {
	bus := events.NewBus()
	release := make(chan struct{})
	var finished atomic.Bool

	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		<-release
		finished.Store(true)
		return nil
	})

	start := time.Now()
	bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Nil))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, finished.Load())

	close(release)
	waitForHandlers(t, bus)
	assert.True(t, finished.Load())
}

func TestBus_HandlerOutlivesPublisherCancellation(t *testing.T) {
	bus := events.NewBus()
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-42"))
	release := make(chan struct{})
	var handlerErr error
	var value any

	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		<-release
		handlerErr = ctx.Err()
		value = ctx.Value(ctxKey{})
		return nil
	})

	bus.Publish(ctx, events.NewOrderConfirmed(uuid.Nil))
	cancel()
	close(release)
	waitForHandlers(t, bus)

	assert.NoError(t, handlerErr)
	assert.Equal(t, "req-42", value)
}

type ctxKey struct{}

func TestBus_HandlerTimeout(t *testing.T) {
	bus := events.NewBusWithTimeout(20 * time.Millisecond)
	var handlerErr error

	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		<-ctx.Done()
		handlerErr = ctx.Err()
		return handlerErr
	})

	bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Nil))
	waitForHandlers(t, bus)

	assert.ErrorIs(t, handlerErr, context.DeadlineExceeded)
}

func TestBus_WaitHonoursContext(t *testing.T) {
	bus := events.NewBus()
	release := make(chan struct{})
	defer close(release)

	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		<-release
		return nil
	})
	bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Wait(ctx), context.DeadlineExceeded)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := events.NewBus()
	var calls atomic.Int32

	unsubscribe := bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		calls.Add(1)
		return nil
	})
	require.Equal(t, 1, bus.Subscribers(events.OrderConfirmed))

	bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Nil))
	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Nil))
	waitForHandlers(t, bus)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, bus.Subscribers(events.OrderConfirmed))
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := events.NewBus()
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Nil))
	})
	waitForHandlers(t, bus)
}

func TestBus_FailingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := events.NewBus()
	var delivered atomic.Bool

	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		panic("boom")
	})
	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		return errors.New("refresh failed")
	})
	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		delivered.Store(true)
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Nil))
		waitForHandlers(t, bus)
	})
	assert.True(t, delivered.Load())
}

func TestBus_EventCarriesOrderID(t *testing.T) {
	bus := events.NewBus()
	orderID := uuid.Must(uuid.NewV4())
	var received events.Event

	bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error {
		received = evt
		return nil
	})
	bus.Publish(context.Background(), events.NewOrderConfirmed(orderID))
	waitForHandlers(t, bus)

	assert.Equal(t, orderID, received.OrderID)
	assert.Equal(t, events.OrderConfirmed, received.Name)
	assert.NotEqual(t, uuid.Nil, received.ID)
	assert.False(t, received.OccurredAt.IsZero())
}

func TestBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := events.NewBus()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsubscribe := bus.Subscribe(events.OrderConfirmed, func(ctx context.Context, evt events.Event) error { return nil })
			unsubscribe()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), events.NewOrderConfirmed(uuid.Nil))
		}()
	}
	wg.Wait()
	waitForHandlers(t, bus)

	assert.Equal(t, 0, bus.Subscribers(events.OrderConfirmed))
}
