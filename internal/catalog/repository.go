package catalog

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

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrVariationNotFound  = errors.New("variation not found")
	ErrStockNotFound      = errors.New("stock record not found")
	ErrInvalidStockFilter = errors.New("invalid stock filter")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	CurrentStock(ctx context.Context, ref StockRef) (int, error)
	SetStock(ctx context.Context, ref StockRef, newStock int) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, name, description, category, base_price, discount_price, discount_active, stock_quantity, created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.BasePrice,
		&p.DiscountPrice,
		&p.DiscountActive,
		&p.StockQuantity,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *postgresRepository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, db.Wrap("query products", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	index := make(map[uuid.UUID]int)
	var ids []uuid.UUID

	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, db.Wrap("scan product", err)
		}
		p.Variations = make([]Variation, 0)
		index[p.ID] = len(products)
		ids = append(ids, p.ID)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("iterate products", err)
	}

	if len(ids) == 0 {
		return products, nil
	}

	variations, err := r.variationsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, v := range variations {
		if i, ok := index[v.ProductID]; ok {
			products[i].Variations = append(products[i].Variations, v)
		}
	}

	return products, nil
}

func (r *postgresRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, db.Wrap(fmt.Sprintf("select product by id %s", id), err)
	}

	variations, err := r.variationsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	p.Variations = variations

	return &p, nil
}

func (r *postgresRepository) variationsFor(ctx context.Context, productIDs []uuid.UUID) ([]Variation, error) {
	query := `
		SELECT id, product_id, name, price, stock_quantity, created_at
		FROM product_variations
		WHERE product_id = ANY($1)
		ORDER BY created_at, name
	`
	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, db.Wrap("query product variations", err)
	}
	defer rows.Close()

	variations := make([]Variation, 0)
	for rows.Next() {
		var v Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.StockQuantity, &v.CreatedAt); err != nil {
			return nil, db.Wrap("scan product variation", err)
		}
		variations = append(variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("iterate product variations", err)
	}

	return variations, nil
}

// CurrentStock reads the live stock level of ref. A missing row yields
// ErrStockNotFound.
func (r *postgresRepository) CurrentStock(ctx context.Context, ref StockRef) (int, error) {
	var (
		query string
		args  []any
	)
	if ref.VariationID != nil {
		query = `SELECT stock_quantity FROM product_variations WHERE id = $1`
		args = []any{*ref.VariationID}
	} else {
		query = `SELECT stock_quantity FROM products WHERE id = $1`
		args = []any{ref.ProductID}
	}

	var stock int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrStockNotFound
		}
		return 0, db.Wrap(fmt.Sprintf("read stock for %s", ref), err)
	}
	return stock, nil
}

// SetStock overwrites a single stock field. Last writer wins.
func (r *postgresRepository) SetStock(ctx context.Context, ref StockRef, newStock int) error {
	if ref.VariationID != nil {
		cmdTag, err := r.db.Exec(ctx,
			`UPDATE product_variations SET stock_quantity = $1 WHERE id = $2 AND product_id = $3`,
			newStock, *ref.VariationID, ref.ProductID,
		)
		if err != nil {
			log.Error().Err(err).Stringer("stock_ref", ref).Int("new_stock", newStock).Msg("repository: failed to update variation stock")
			return db.Wrap(fmt.Sprintf("update stock for %s", ref), err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrVariationNotFound
		}
		return nil
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE products SET stock_quantity = $1, updated_at = $2 WHERE id = $3`,
		newStock, time.Now().UTC(), ref.ProductID,
	)
	if err != nil {
		log.Error().Err(err).Stringer("stock_ref", ref).Int("new_stock", newStock).Msg("repository: failed to update product stock")
		return db.Wrap(fmt.Sprintf("update stock for %s", ref), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
