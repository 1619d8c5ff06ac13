package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront-admin/internal/catalog"
	"github.com/vasiliy-maslov/storefront-admin/internal/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ConfirmOrder moves a new order to confirmed/paid and deducts its stock.
//
// Every line item is checked against live stock before anything is written;
// a shortfall returns *InsufficientStockError with no writes. The deductions
// and the status change then commit together, and an order-confirmed event
// is published.
func (s *service) ConfirmOrder(ctx context.Context, orderID uuid.UUID) (_ *Order, err error) {
	ctx, span := tracer.Start(ctx, "order.ConfirmOrder", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
	))
	defer func() { endSpan(span, err) }()

	o, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("order.line_items", len(o.Items)))

	if o.Status != StatusNew {
		log.Warn().Stringer("order_id", orderID).Stringer("current_status", o.Status).Msg("service: order is not awaiting confirmation")
		return nil, fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, o.Status, StatusConfirmed)
	}

	if err := s.precheckStock(ctx, o.Items); err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			log.Warn().
				Stringer("order_id", orderID).
				Str("item", stockErr.ItemName).
				Int("available", stockErr.Available).
				Int("required", stockErr.Required).
				Msg("service: insufficient stock, confirmation aborted")
			return nil, err
		}
		if errors.Is(err, ErrInvalidLineItem) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to check stock for confirmation")
		return nil, fmt.Errorf("service: failed to check stock: %w", err)
	}

	confirmed, err := s.orderRepo.ApplyConfirmation(ctx, orderID, o.Items)
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) || errors.Is(err, ErrInvalidStatusTransition) || errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrInvalidLineItem) {
			log.Warn().Err(err).Stringer("order_id", orderID).Msg("service: confirmation rejected while applying")
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to apply confirmation in repository")
		return nil, fmt.Errorf("service: failed to confirm order: %w", err)
	}

	s.publisher.Publish(ctx, events.NewOrderConfirmed(confirmed.ID))

	log.Info().Stringer("order_id", orderID).Int("line_items", len(confirmed.Items)).Msg("service: order confirmed and stock deducted")
	return confirmed, nil
}

type stockDemand struct {
	ref      catalog.StockRef
	name     string
	required int
}

// precheckStock compares the combined quantity requested per stock field
// with its live level. A missing stock row counts as zero available.
func (s *service) precheckStock(ctx context.Context, items []OrderItem) error {
	demands := make([]*stockDemand, 0, len(items))
	byRef := make(map[string]*stockDemand, len(items))

	for _, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity %d for %s", ErrInvalidLineItem, item.Quantity, item.DisplayName())
		}
		ref := item.StockRef()
		if d, ok := byRef[ref.String()]; ok {
			d.required += item.Quantity
			continue
		}
		d := &stockDemand{ref: ref, name: item.DisplayName(), required: item.Quantity}
		byRef[ref.String()] = d
		demands = append(demands, d)
	}

	for _, d := range demands {
		available, err := s.stock.CurrentStock(ctx, d.ref)
		if errors.Is(err, catalog.ErrStockNotFound) {
			available = 0
		} else if err != nil {
			return err
		}

		if available < d.required {
			return &InsufficientStockError{ItemName: d.name, Available: available, Required: d.required}
		}
	}

	return nil
}
