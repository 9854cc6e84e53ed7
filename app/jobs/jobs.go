// Package jobs registers the storefront's periodic maintenance tasks.
package jobs

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/metrics"
	"github.com/shashiranjanraj/souq/pkg/schedule"
)

const (
	TaskPurgeTokens   = "tokens.purge"
	TaskLowStockGauge = "stock.low_gauge"
)

// Register adds every maintenance task to s.
func Register(s *schedule.Scheduler, db *gorm.DB) {
	s.Every(time.Hour, TaskPurgeTokens, PurgeExpiredTokens(db))
	s.Every(5*time.Minute, TaskLowStockGauge, RefreshLowStockGauge(db))
}

// PurgeExpiredTokens drops verification and reset tokens past their expiry.
// Expired tokens are already rejected at use; this keeps the columns clean.
func PurgeExpiredTokens(db *gorm.DB) schedule.Task {
	users := repositories.NewUserRepository(db)
	return func(ctx context.Context) error {
		n, err := users.PurgeExpiredTokens(ctx, repositories.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.WithCtx(ctx).Info("expired tokens purged", "users", n)
		}
		return nil
	}
}

func RefreshLowStockGauge(db *gorm.DB) schedule.Task {
	products := repositories.NewProductRepository(db)
	return func(ctx context.Context) error {
		n, err := products.CountLowStock(ctx)
		if err != nil {
			return err
		}
		metrics.LowStockProducts.Set(float64(n))
		return nil
	}
}
