package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/pkg/migration"
)

func init() {
	migration.Register("20240301000002_create_orders_tables", &CreateOrdersTables{})
}

// CreateOrdersTables creates orders and their item snapshots. order_number
// carries a unique index; placement retries on a collision.
type CreateOrdersTables struct{}

func (m *CreateOrdersTables) Up(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		return err
	}
	// customer order history is read newest first
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at)").Error
}

func (m *CreateOrdersTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.OrderItem{}, &models.Order{})
}
