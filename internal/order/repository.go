package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront-admin/internal/db"
)

type Repository interface {
	ListOrders(ctx context.Context) ([]Order, error)
	ListRecognizedRevenue(ctx context.Context) ([]Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to OrderStatus) (*Order, error)
	ApplyConfirmation(ctx context.Context, orderID uuid.UUID, items []OrderItem) (*Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `
	id, customer_name, customer_email, customer_phone, contact_method,
	shipping_address, shipping_city, shipping_state, shipping_zip_code, shipping_country, shipping_location,
	shipping_fee, order_items, total_price,
	payment_method_id, payment_method_name, payment_proof_url, payment_status,
	order_status, notes, created_at, updated_at
`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.ContactMethod,
		&o.ShippingAddress,
		&o.ShippingCity,
		&o.ShippingState,
		&o.ShippingZipCode,
		&o.ShippingCountry,
		&o.ShippingLocation,
		&o.ShippingFee,
		&o.Items,
		&o.TotalPrice,
		&o.PaymentMethodID,
		&o.PaymentMethodName,
		&o.PaymentProofURL,
		&o.PaymentStatus,
		&o.Status,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

func (r *postgresRepository) queryOrders(ctx context.Context, op, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Wrap(op, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, db.Wrap(op+": scan", err)
		}
		if o.Items == nil {
			o.Items = make([]OrderItem, 0)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap(op+": iterate", err)
	}

	return orders, nil
}

// ListOrders returns every order, newest first.
func (r *postgresRepository) ListOrders(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.queryOrders(ctx, "list orders", query)
}

func (r *postgresRepository) ListRecognizedRevenue(ctx context.Context) ([]Order, error) {
	statuses := make([]string, 0, len(RecognizedRevenueStatuses))
	for _, s := range RecognizedRevenueStatuses {
		statuses = append(statuses, string(s))
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_status = ANY($1) AND payment_status = $2
		ORDER BY created_at DESC
	`
	return r.queryOrders(ctx, "list recognized revenue orders", query, statuses, string(PaymentPaid))
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o Order
	if err := scanOrder(r.db.QueryRow(ctx, query, orderID), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, db.Wrap(fmt.Sprintf("select order by id %s", orderID), err)
	}
	if o.Items == nil {
		o.Items = make([]OrderItem, 0)
	}

	return &o, nil
}

// UpdateOrderStatus moves the order from one status to another. The write
// only lands while the stored status still equals from.
func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to OrderStatus) (*Order, error) {
	query := `
		UPDATE orders
		SET order_status = $1, updated_at = $2
		WHERE id = $3 AND order_status = $4
		RETURNING ` + orderColumns

	var o Order
	err := scanOrder(r.db.QueryRow(ctx, query, string(to), time.Now().UTC(), orderID, string(from)), &o)
	if err == nil {
		return &o, nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missedUpdate(ctx, r.db, orderID, from, to)
	}
	if db.IsCheckViolation(err) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", to).Msg("repository: failed to update order status")
	return nil, db.Wrap(fmt.Sprintf("update order status %s", orderID), err)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// missedUpdate explains why a guarded status update touched no rows.
func (r *postgresRepository) missedUpdate(ctx context.Context, q querier, orderID uuid.UUID, from, to OrderStatus) error {
	var current OrderStatus
	err := q.QueryRow(ctx, `SELECT order_status FROM orders WHERE id = $1`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Warn().Stringer("order_id", orderID).Stringer("new_status", to).Msg("repository: order not found for status update")
		return ErrOrderNotFound
	}
	if err != nil {
		return db.Wrap(fmt.Sprintf("read order status %s", orderID), err)
	}

	log.Warn().
		Stringer("order_id", orderID).
		Stringer("expected_status", from).
		Stringer("current_status", current).
		Stringer("new_status", to).
		Msg("repository: order status changed concurrently")
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, current, to)
}

// ApplyConfirmation deducts stock for every line item and marks the order
// confirmed and paid in one transaction. Each deduction is a conditional
// decrement; if any line item no longer fits its stock the whole
// transaction rolls back with an *InsufficientStockError.
func (r *postgresRepository) ApplyConfirmation(ctx context.Context, orderID uuid.UUID, items []OrderItem) (confirmed *Order, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return nil, db.Wrap("begin confirmation transaction", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id", orderID).Msg("Panic recovered during ApplyConfirmation, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id", orderID).Msg("Confirmation transaction failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
				confirmed = nil
				err = db.Wrap("commit confirmation transaction", commitErr)
			}
		}
	}()

	for _, item := range items {
		if err = deductStock(ctx, tx, item); err != nil {
			return nil, err
		}
	}

	query := `
		UPDATE orders
		SET order_status = $1, payment_status = $2, updated_at = $3
		WHERE id = $4 AND order_status = $5
		RETURNING ` + orderColumns

	var o Order
	err = scanOrder(tx.QueryRow(ctx, query,
		string(StatusConfirmed),
		string(PaymentPaid),
		time.Now().UTC(),
		orderID,
		string(StatusNew),
	), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = r.missedUpdate(ctx, tx, orderID, StatusNew, StatusConfirmed)
			return nil, err
		}
		err = db.Wrap(fmt.Sprintf("confirm order %s", orderID), err)
		return nil, err
	}

	return &o, nil
}

func deductStock(ctx context.Context, tx pgx.Tx, item OrderItem) error {
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity %d for %s", ErrInvalidLineItem, item.Quantity, item.DisplayName())
	}

	ref := item.StockRef()
	var (
		decrement string
		current   string
		target    uuid.UUID
	)
	if ref.VariationID != nil {
		decrement = `
			UPDATE product_variations
			SET stock_quantity = GREATEST(stock_quantity - $1, 0)
			WHERE id = $2 AND stock_quantity >= $1
			RETURNING stock_quantity`
		current = `SELECT stock_quantity FROM product_variations WHERE id = $1`
		target = *ref.VariationID
	} else {
		decrement = `
			UPDATE products
			SET stock_quantity = GREATEST(stock_quantity - $1, 0), updated_at = NOW()
			WHERE id = $2 AND stock_quantity >= $1
			RETURNING stock_quantity`
		current = `SELECT stock_quantity FROM products WHERE id = $1`
		target = ref.ProductID
	}

	var remaining int
	err := tx.QueryRow(ctx, decrement, item.Quantity, target).Scan(&remaining)
	if err == nil {
		log.Debug().Stringer("stock_ref", ref).Int("quantity", item.Quantity).Int("remaining", remaining).Msg("repository: stock deducted")
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return db.Wrap(fmt.Sprintf("deduct stock for %s", ref), err)
	}

	available := 0
	if err := tx.QueryRow(ctx, current, target).Scan(&available); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return db.Wrap(fmt.Sprintf("read stock for %s", ref), err)
	}

	return &InsufficientStockError{
		ItemName:  item.DisplayName(),
		Available: available,
		Required:  item.Quantity,
	}
}
