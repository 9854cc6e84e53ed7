package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) WithTx(tx *gorm.DB) *SettingRepository {
	return &SettingRepository{db: tx}
}

// All returns every setting ordered by key.
func (r *SettingRepository) All(ctx context.Context) ([]models.Setting, error) {
	settings := []models.Setting{}
	err := r.db.WithContext(ctx).Raw("SELECT key, value, is_public, updated_at FROM settings ORDER BY key").
		Scan(&settings).Error
	return settings, err
}

// Public returns the storefront-visible settings as a map.
func (r *SettingRepository) Public(ctx context.Context) (map[string]string, error) {
	var settings []models.Setting
	err := r.db.WithContext(ctx).Raw("SELECT key, value FROM settings WHERE is_public = ?", true).
		Scan(&settings).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return out, nil
}

func (r *SettingRepository) Upsert(ctx context.Context, s *models.Setting) error {
	s.UpdatedAt = Now()
	return r.db.WithContext(ctx).Exec(`INSERT INTO settings (key, value, is_public, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, is_public = excluded.is_public, updated_at = excluded.updated_at`,
		s.Key, s.Value, s.IsPublic, s.UpdatedAt).Error
}
