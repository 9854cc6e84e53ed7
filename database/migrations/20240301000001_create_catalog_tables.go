package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/pkg/migration"
)

func init() {
	migration.Register("20240301000001_create_catalog_tables", &CreateCatalogTables{})
}

// CreateCatalogTables creates categories, products and files.
type CreateCatalogTables struct{}

func (m *CreateCatalogTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Category{}, &models.Product{}, &models.File{})
}

func (m *CreateCatalogTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.File{}, &models.Product{}, &models.Category{})
}
