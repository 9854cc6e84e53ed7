package services

import (
	"context"
	"regexp"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
	"github.com/shashiranjanraj/souq/pkg/cache"
	"github.com/shashiranjanraj/souq/pkg/database"
)

var settingKey = regexp.MustCompile(`^[a-z][a-z0-9_.]{0,99}$`)

type SettingInput struct {
	Key      string
	Value    string
	IsPublic bool
}

type SettingService struct {
	db       *gorm.DB
	settings *repositories.SettingRepository
	cache    *cache.Cache
}

func NewSettingService(db *gorm.DB, c *cache.Cache) *SettingService {
	return &SettingService{db: db, settings: repositories.NewSettingRepository(db), cache: c}
}

func (s *SettingService) All(ctx context.Context) ([]models.Setting, error) {
	return s.settings.All(ctx)
}

// Save upserts every setting in one unit of work and drops the cached
// public settings.
func (s *SettingService) Save(ctx context.Context, in []SettingInput) ([]models.Setting, error) {
	fields := map[string]string{}
	for _, st := range in {
		if !settingKey.MatchString(st.Key) {
			fields[st.Key] = "The setting key is invalid."
		}
	}
	if len(in) == 0 {
		fields["settings"] = "The settings field is required."
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	err := database.InTx(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.settings.WithTx(tx)
		for _, st := range in {
			if err := repo.Upsert(ctx, &models.Setting{Key: st.Key, Value: st.Value, IsPublic: st.IsPublic}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Forget(ctx, CacheKeyPublicSettings)
	return s.settings.All(ctx)
}
