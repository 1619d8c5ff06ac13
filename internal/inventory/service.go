package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront-admin/internal/catalog"
	"github.com/vasiliy-maslov/storefront-admin/internal/events"
	"github.com/vasiliy-maslov/storefront-admin/internal/order"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/vasiliy-maslov/storefront-admin/internal/inventory")

type RevenueSource interface {
	ListRecognizedRevenue(ctx context.Context) ([]order.Order, error)
}

// Recorder receives freshly computed stats, e.g. to export them as gauges.
type Recorder interface {
	RecordInventory(stats Stats)
}

type Service interface {
	Stats(ctx context.Context) (Stats, error)
	ListProducts(ctx context.Context, category, searchQuery string, stock catalog.StockFilter) ([]catalog.Product, error)
	UpdateStock(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, newStock int) (*catalog.Product, error)
	Refresh(ctx context.Context) (Stats, error)
	HandleOrderConfirmed(ctx context.Context, evt events.Event) error
}

type service struct {
	products catalog.Repository
	orders   RevenueSource
	recorder Recorder
}

func NewService(products catalog.Repository, orders RevenueSource, recorder Recorder) Service {
	return &service{
		products: products,
		orders:   orders,
		recorder: recorder,
	}
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load products for inventory stats")
		return Stats{}, fmt.Errorf("service: failed to load products: %w", err)
	}

	orders, err := s.orders.ListRecognizedRevenue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load orders for inventory stats")
		return Stats{}, fmt.Errorf("service: failed to load orders: %w", err)
	}

	return Compute(products, orders), nil
}

func (s *service) ListProducts(ctx context.Context, category, searchQuery string, stock catalog.StockFilter) ([]catalog.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products in repository")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return catalog.FilterProducts(products, category, searchQuery, stock), nil
}

// UpdateStock overwrites one stock field and returns the refreshed product.
// The value is written as given; callers clamp it first.
func (s *service) UpdateStock(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, newStock int) (_ *catalog.Product, err error) {
	ref := catalog.StockRef{ProductID: productID, VariationID: variationID}

	ctx, span := tracer.Start(ctx, "inventory.UpdateStock", trace.WithAttributes(
		attribute.String("stock.ref", ref.String()),
		attribute.Int("stock.new", newStock),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := s.products.SetStock(ctx, ref, newStock); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) || errors.Is(err, catalog.ErrVariationNotFound) {
			log.Warn().Err(err).Stringer("stock_ref", ref).Msg("service: stock target not found")
			return nil, err
		}
		log.Error().Err(err).Stringer("stock_ref", ref).Int("new_stock", newStock).Msg("service: failed to update stock in repository")
		return nil, fmt.Errorf("service: failed to update stock: %w", err)
	}

	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to reload product after stock update")
		return nil, fmt.Errorf("service: failed to reload product: %w", err)
	}

	if _, err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("service: inventory stats refresh failed after stock update")
	}

	log.Info().Stringer("stock_ref", ref).Int("new_stock", newStock).Msg("service: stock updated successfully")
	return product, nil
}

// Refresh recomputes stats and hands them to the recorder.
func (s *service) Refresh(ctx context.Context) (Stats, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	if s.recorder != nil {
		s.recorder.RecordInventory(stats)
	}
	return stats, nil
}

func (s *service) HandleOrderConfirmed(ctx context.Context, evt events.Event) error {
	stats, err := s.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Debug().
		Stringer("order_id", evt.OrderID).
		Stringer("total_sales", stats.TotalSales).
		Int("total_vials_sold", stats.TotalVialsSold).
		Msg("service: inventory stats refreshed after order confirmation")
	return nil
}
