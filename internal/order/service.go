package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront-admin/internal/catalog"
	"github.com/vasiliy-maslov/storefront-admin/internal/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/vasiliy-maslov/storefront-admin/internal/order")

// StockReader reads the live stock level behind a line item.
type StockReader interface {
	CurrentStock(ctx context.Context, ref catalog.StockRef) (int, error)
}

type Publisher interface {
	Publish(ctx context.Context, evt events.Event)
}

type Service interface {
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ConfirmOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) (*Order, error)
}

type service struct {
	orderRepo Repository
	stock     StockReader
	publisher Publisher
}

func NewService(orderRepo Repository, stock StockReader, publisher Publisher) Service {
	return &service{
		orderRepo: orderRepo,
		stock:     stock,
		publisher: publisher,
	}
}

func (s *service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orderRepo.ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders in repository")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Err(err).Stringer("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}

		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id in repository")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return o, nil
}

// UpdateOrderStatus advances or cancels an order without touching stock.
// Re-applying the current status is a successful no-op. Unknown statuses,
// moves outside the lifecycle graph and moves to confirmed are rejected;
// see ValidateTransition.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus OrderStatus) (_ *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.UpdateOrderStatus", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("order.new_status", newStatus.String()),
	))
	defer func() { endSpan(span, err) }()

	if !newStatus.Valid() {
		log.Warn().Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: unrecognized status requested")
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	currentOrder, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if currentOrder.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return currentOrder, nil
	}

	if newStatus == StatusConfirmed {
		return nil, ErrConfirmationRequired
	}

	if err := ValidateTransition(currentOrder.Status, newStatus); err != nil {
		log.Warn().
			Stringer("order_id", currentOrder.ID).
			Stringer("current_status", currentOrder.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return nil, err
	}

	updated, err := s.orderRepo.UpdateOrderStatus(ctx, orderID, currentOrder.Status, newStatus)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrInvalidStatusTransition) || errors.Is(err, ErrInvalidStatus) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).Msg("service: failed to update order status in repository")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", currentOrder.Status).Stringer("new_status", newStatus).Msg("service: order status updated successfully")
	return updated, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
