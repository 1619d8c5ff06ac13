package order_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront-admin/internal/db/dbtest"
	"github.com/vasiliy-maslov/storefront-admin/internal/order"
)

func seedProduct(t *testing.T, pool *pgxpool.Pool, stock int) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, base_price, stock_quantity) VALUES ($1, 'Alcohol Pads', 100, $2)`, id, stock)
	require.NoError(t, err)
	return id
}

func seedVariation(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, stock int) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(context.Background(),
		`INSERT INTO product_variations (id, product_id, name, price, stock_quantity) VALUES ($1, $2, '5mg', 500, $3)`, id, productID, stock)
	require.NoError(t, err)
	return id
}

func seedOrder(t *testing.T, pool *pgxpool.Pool, status order.OrderStatus, payment order.PaymentStatus, createdAt time.Time, items []order.OrderItem) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	if items == nil {
		items = []order.OrderItem{}
	}
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), `
		INSERT INTO orders (id, customer_name, customer_email, customer_phone, order_items, total_price, shipping_fee, payment_status, order_status, created_at, updated_at)
		VALUES ($1, 'Maria Santos', 'maria@example.com', '09175550101', $2::text::jsonb, 1000, 50, $3, $4, $5, $5)`,
		id, string(raw), string(payment), string(status), createdAt)
	require.NoError(t, err)
	return id
}

func stockOf(t *testing.T, pool *pgxpool.Pool, table string, id uuid.UUID) int {
	t.Helper()
	var stock int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT stock_quantity FROM `+table+` WHERE id = $1`, id).Scan(&stock))
	return stock
}

func TestRepository_ListOrdersNewestFirst(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := order.NewRepository(pool)
	now := time.Now().UTC()

	older := seedOrder(t, pool, order.StatusNew, order.PaymentPending, now.Add(-time.Hour), nil)
	newer := seedOrder(t, pool, order.StatusDelivered, order.PaymentPaid, now, nil)

	orders, err := repo.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer, orders[0].ID)
	assert.Equal(t, older, orders[1].ID)
	assert.Equal(t, "1050", orders[0].FinalTotal().String())

	revenue, err := repo.ListRecognizedRevenue(context.Background())
	require.NoError(t, err)
	require.Len(t, revenue, 1)
	assert.Equal(t, newer, revenue[0].ID)
}

func TestRepository_ApplyConfirmation(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := order.NewRepository(pool)
	ctx := context.Background()

	productID := seedProduct(t, pool, 10)
	parentID := seedProduct(t, pool, 0)
	variationID := seedVariation(t, pool, parentID, 3)

	items := []order.OrderItem{
		{ProductID: productID, ProductName: "Alcohol Pads", Quantity: 4},
		{ProductID: parentID, ProductName: "BPC-157", VariationID: &variationID, Quantity: 3},
	}
	orderID := seedOrder(t, pool, order.StatusNew, order.PaymentPending, time.Now().UTC(), items)

	confirmed, err := repo.ApplyConfirmation(ctx, orderID, items)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, confirmed.Status)
	assert.Equal(t, order.PaymentPaid, confirmed.PaymentStatus)
	assert.Len(t, confirmed.Items, 2)

	assert.Equal(t, 6, stockOf(t, pool, "products", productID))
	assert.Equal(t, 0, stockOf(t, pool, "product_variations", variationID))

	_, err = repo.ApplyConfirmation(ctx, orderID, nil)
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)
}

func TestRepository_ApplyConfirmationRollsBackOnConflict(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := order.NewRepository(pool)
	ctx := context.Background()

	first := seedProduct(t, pool, 10)
	second := seedProduct(t, pool, 1)

	items := []order.OrderItem{
		{ProductID: first, ProductName: "Alcohol Pads", Quantity: 4},
		{ProductID: second, ProductName: "Syringes", Quantity: 2},
	}
	orderID := seedOrder(t, pool, order.StatusNew, order.PaymentPending, time.Now().UTC(), items)

	_, err := repo.ApplyConfirmation(ctx, orderID, items)

	var stockErr *order.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Syringes", stockErr.ItemName)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Required)

	assert.Equal(t, 10, stockOf(t, pool, "products", first))
	assert.Equal(t, 1, stockOf(t, pool, "products", second))

	stored, err := repo.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusNew, stored.Status)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
}

func TestRepository_UpdateOrderStatus(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := order.NewRepository(pool)
	ctx := context.Background()

	orderID := seedOrder(t, pool, order.StatusProcessing, order.PaymentPaid, time.Now().UTC().Add(-time.Minute), nil)

	updated, err := repo.UpdateOrderStatus(ctx, orderID, order.StatusProcessing, order.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = repo.UpdateOrderStatus(ctx, orderID, order.StatusProcessing, order.StatusCancelled)
	assert.ErrorIs(t, err, order.ErrInvalidStatusTransition)

	_, err = repo.UpdateOrderStatus(ctx, uuid.Must(uuid.NewV4()), order.StatusNew, order.StatusCancelled)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = repo.GetOrderByID(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}
