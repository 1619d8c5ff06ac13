package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront-admin/internal/db/dbtest"
	"github.com/vasiliy-maslov/storefront-admin/internal/settings"
)

func TestRepository_UpsertAndList(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := settings.NewRepository(pool)
	ctx := context.Background()

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, repo.Upsert(ctx, map[string]string{
		settings.KeySiteName: "Peptide Lab",
		settings.KeyCurrency: "USD",
	}))
	require.NoError(t, repo.Upsert(ctx, map[string]string{settings.KeyCurrency: "EUR"}))

	rows, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, settings.KeyCurrency, rows[0].ID)
	assert.Equal(t, "EUR", rows[0].Value)
	assert.Equal(t, settings.KeySiteName, rows[1].ID)
	assert.False(t, rows[1].UpdatedAt.IsZero())
}
