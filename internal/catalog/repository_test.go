package catalog_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront-admin/internal/catalog"
	"github.com/vasiliy-maslov/storefront-admin/internal/db/dbtest"
)

func insertProduct(t *testing.T, pool *pgxpool.Pool, name string, price string, stock int) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, description, category, base_price, stock_quantity) VALUES ($1, $2, $3, 'peptides', $4::text::numeric, $5)`,
		id, name, name+" vial", price, stock)
	require.NoError(t, err)
	return id
}

func insertVariation(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, name string, price string, stock int) uuid.UUID {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(context.Background(),
		`INSERT INTO product_variations (id, product_id, name, price, stock_quantity) VALUES ($1, $2, $3, $4::text::numeric, $5)`,
		id, productID, name, price, stock)
	require.NoError(t, err)
	return id
}

func TestRepository_ListProducts(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := catalog.NewRepository(pool)
	ctx := context.Background()

	plainID := insertProduct(t, pool, "Alcohol Pads", "100.00", 3)
	variedID := insertProduct(t, pool, "BPC-157", "0", 0)
	insertVariation(t, pool, variedID, "5mg", "50.00", 2)
	insertVariation(t, pool, variedID, "10mg", "80.00", 1)

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, plainID, products[0].ID)
	assert.Empty(t, products[0].Variations)
	assert.Equal(t, variedID, products[1].ID)
	assert.Len(t, products[1].Variations, 2)
	assert.Equal(t, "180", products[1].InventoryValue().String())
}

func TestRepository_StockReadAndWrite(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := catalog.NewRepository(pool)
	ctx := context.Background()

	productID := insertProduct(t, pool, "TB-500", "1500.00", 8)
	variationID := insertVariation(t, pool, productID, "2mg", "900.00", 4)

	productRef := catalog.StockRef{ProductID: productID}
	variationRef := catalog.StockRef{ProductID: productID, VariationID: &variationID}

	stock, err := repo.CurrentStock(ctx, variationRef)
	require.NoError(t, err)
	assert.Equal(t, 4, stock)

	require.NoError(t, repo.SetStock(ctx, variationRef, 11))
	require.NoError(t, repo.SetStock(ctx, productRef, 2))

	stock, err = repo.CurrentStock(ctx, variationRef)
	require.NoError(t, err)
	assert.Equal(t, 11, stock)

	stock, err = repo.CurrentStock(ctx, productRef)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)
}

func TestRepository_MissingRows(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := catalog.NewRepository(pool)
	ctx := context.Background()

	missing := uuid.Must(uuid.NewV4())

	_, err := repo.CurrentStock(ctx, catalog.StockRef{ProductID: missing})
	assert.ErrorIs(t, err, catalog.ErrStockNotFound)

	_, err = repo.GetProductByID(ctx, missing)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	err = repo.SetStock(ctx, catalog.StockRef{ProductID: missing}, 1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	err = repo.SetStock(ctx, catalog.StockRef{ProductID: missing, VariationID: &missing}, 1)
	assert.ErrorIs(t, err, catalog.ErrVariationNotFound)
}
