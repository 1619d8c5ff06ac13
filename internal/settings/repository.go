package settings

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/storefront-admin/internal/db"
)

type Repository interface {
	List(ctx context.Context) ([]Setting, error)
	Upsert(ctx context.Context, values map[string]string) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) List(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.Query(ctx, `SELECT id, value, updated_at FROM site_settings ORDER BY id`)
	if err != nil {
		return nil, db.Wrap("query site settings", err)
	}
	defer rows.Close()

	settings := make([]Setting, 0)
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.ID, &s.Value, &s.UpdatedAt); err != nil {
			return nil, db.Wrap("scan site setting", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Wrap("iterate site settings", err)
	}
	return settings, nil
}

// Upsert writes all values in one batch, which Postgres runs as a single
// implicit transaction.
func (r *postgresRepository) Upsert(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	const query = `
		INSERT INTO site_settings (id, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	batch := &pgx.Batch{}
	for key, value := range values {
		batch.Queue(query, key, value)
	}

	results := r.db.SendBatch(ctx, batch)
	for range values {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return db.Wrap("upsert site setting", err)
		}
	}
	if err := results.Close(); err != nil {
		return db.Wrap("close site settings batch", err)
	}
	return nil
}
