package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront-admin/internal/events"
	"github.com/vasiliy-maslov/storefront-admin/internal/platform/kafka"
)

type fakeWriter struct {
	messages []segkafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...segkafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestClient_Enabled(t *testing.T) {
	assert.False(t, kafka.NewClient(nil).Enabled())
	assert.False(t, kafka.NewClient([]string{}).Enabled())
	assert.True(t, kafka.NewClient([]string{"kafka-1:9092"}).Enabled())
}

func TestClient_NewWriter(t *testing.T) {
	w := kafka.NewClient([]string{"kafka-1:9092", "kafka-2:9092"}).NewWriter("orders.confirmed")
	defer w.Close()

	assert.Equal(t, "orders.confirmed", w.Topic)
	assert.IsType(t, &segkafka.Hash{}, w.Balancer)
	assert.Equal(t, segkafka.RequireOne, w.RequiredAcks)
}

func TestOrderConfirmedForwarder(t *testing.T) {
	w := &fakeWriter{}
	evt := events.NewOrderConfirmed(uuid.Must(uuid.NewV4()))

	err := kafka.OrderConfirmedForwarder(w)(context.Background(), evt)

	require.NoError(t, err)
	require.Len(t, w.messages, 1)
	assert.Equal(t, evt.OrderID.String(), string(w.messages[0].Key))

	var got kafka.OrderConfirmedMessage
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &got))
	assert.Equal(t, evt.ID.String(), got.EventID)
	assert.Equal(t, kafka.OrderConfirmedType, got.Type)
	assert.Equal(t, evt.OrderID.String(), got.OrderID)
	assert.True(t, evt.OccurredAt.Equal(got.CreatedAt))
}

func TestOrderConfirmedForwarder_WriteFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}

	err := kafka.OrderConfirmedForwarder(w)(context.Background(), events.NewOrderConfirmed(uuid.Must(uuid.NewV4())))

	require.Error(t, err)
	assert.ErrorContains(t, err, "leader not available")
}
