package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/vasiliy-maslov/storefront-admin/internal/events"
)

// OrderConfirmedType is the wire type of forwarded confirmations.
const OrderConfirmedType = "order.confirmed"

type Client struct {
	Brokers []string
}

func NewClient(brokers []string) *Client {
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// MessageWriter is the subset of *kafka.Writer used for publishing.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func PublishJSON(ctx context.Context, writer MessageWriter, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}

type OrderConfirmedMessage struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderConfirmedForwarder returns a bus handler that republishes
// confirmations keyed by order id, so one order always lands on one partition.
func OrderConfirmedForwarder(writer MessageWriter) events.Handler {
	return func(ctx context.Context, evt events.Event) error {
		msg := OrderConfirmedMessage{
			EventID:   evt.ID.String(),
			Type:      OrderConfirmedType,
			OrderID:   evt.OrderID.String(),
			CreatedAt: evt.OccurredAt,
		}
		if err := PublishJSON(ctx, writer, msg.OrderID, msg); err != nil {
			return fmt.Errorf("kafka: failed to forward %s for order %s: %w", evt.Name, msg.OrderID, err)
		}
		log.Debug().Str("order_id", msg.OrderID).Str("event_id", msg.EventID).Msg("kafka: order confirmation forwarded")
		return nil
	}
}
