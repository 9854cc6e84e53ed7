package seeders_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/database/seeders"
	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/database/dbtest"
)

func TestRunAllIsIdempotent(t *testing.T) {
	config.Set("ADMIN_EMAIL", "admin@souq.test")
	config.Set("ADMIN_PASSWORD", "s3cret-pass")
	t.Cleanup(func() {
		config.Set("ADMIN_EMAIL", "")
		config.Set("ADMIN_PASSWORD", "")
	})

	db := dbtest.New(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, seeders.RunAll(ctx, db, &out))
	require.NoError(t, seeders.RunAll(ctx, db, &out))
	assert.Contains(t, out.String(), "Running seeder: products")

	var products, categories int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM products").Scan(&products).Error)
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM categories").Scan(&categories).Error)
	assert.EqualValues(t, 6, products)
	assert.EqualValues(t, 4, categories)

	admin, err := repositories.NewUserRepository(db).FindByEmail(ctx, "admin@souq.test")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.EmailVerified)
	assert.True(t, auth.CheckPassword(admin.HashedPassword, "s3cret-pass"))

	public, err := repositories.NewSettingRepository(db).Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SAR", public["store.currency"])
	assert.NotContains(t, public, "orders.notify_admin")
}

func TestSeedSettingsKeepsEditedValues(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, seeders.RunAll(ctx, db, &bytes.Buffer{}))
	require.NoError(t, db.Exec("UPDATE settings SET value = ? WHERE key = ?", "USD", "store.currency").Error)
	require.NoError(t, seeders.RunAll(ctx, db, &bytes.Buffer{}))

	public, err := repositories.NewSettingRepository(db).Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", public["store.currency"])
}
