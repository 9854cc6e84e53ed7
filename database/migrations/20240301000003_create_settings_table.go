package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/pkg/migration"
)

func init() {
	migration.Register("20240301000003_create_settings_table", &CreateSettingsTable{})
}

type CreateSettingsTable struct{}

func (m *CreateSettingsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Setting{})
}

func (m *CreateSettingsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Setting{})
}
