package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/app/jobs"
	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/database/dbtest"
	"github.com/shashiranjanraj/souq/pkg/metrics"
	"github.com/shashiranjanraj/souq/pkg/schedule"
)

func TestPurgeExpiredTokens(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(db)

	stale := &models.User{Name: "A", Email: "a@example.com", Phone: "+1001", HashedPassword: "x"}
	fresh := &models.User{Name: "B", Email: "b@example.com", Phone: "+1002", HashedPassword: "x"}
	require.NoError(t, users.Create(ctx, stale))
	require.NoError(t, users.Create(ctx, fresh))

	now := repositories.Now()
	_, err := users.SetEmailToken(ctx, stale.ID, "stale-token", now.Add(-time.Minute))
	require.NoError(t, err)
	_, err = users.SetEmailToken(ctx, fresh.ID, "fresh-token", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, users.SetResetToken(ctx, stale.ID, "stale-reset", now.Add(-time.Minute)))

	require.NoError(t, jobs.PurgeExpiredTokens(db)(ctx))

	got, err := users.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EmailToken)
	assert.Nil(t, got.PasswordResetToken)

	got, err = users.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EmailToken)
	assert.Equal(t, "fresh-token", *got.EmailToken)
}

func TestRefreshLowStockGauge(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	products := repositories.NewProductRepository(db)

	for _, stock := range []int{1, 3, 50} {
		s := stock
		require.NoError(t, products.Create(ctx, &models.Product{
			NameAr: "p", NameEn: "p", Price: decimal.NewFromInt(1), Stock: &s, LowStockThreshold: 3, Active: true,
		}))
	}

	require.NoError(t, jobs.RefreshLowStockGauge(db)(ctx))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.LowStockProducts))
}

func TestRegisterAddsMaintenanceTasks(t *testing.T) {
	s := schedule.New()
	jobs.Register(s, dbtest.New(t))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, jobs.TaskLowStockGauge, entries[0].Name)
	assert.Equal(t, jobs.TaskPurgeTokens, entries[1].Name)
	assert.Equal(t, time.Hour, entries[1].Interval)
}
