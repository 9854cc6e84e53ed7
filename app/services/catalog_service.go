package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/cache"
)

const catalogCacheTTL = 10 * time.Minute

// CatalogService serves the public storefront reads. Categories and public
// settings are cached when Redis is configured.
type CatalogService struct {
	products   *repositories.ProductRepository
	categories *repositories.CategoryRepository
	settings   *repositories.SettingRepository
	cache      *cache.Cache
}

func NewCatalogService(db *gorm.DB, c *cache.Cache) *CatalogService {
	return &CatalogService{
		products:   repositories.NewProductRepository(db),
		categories: repositories.NewCategoryRepository(db),
		settings:   repositories.NewSettingRepository(db),
		cache:      c,
	}
}

// Products lists active products, optionally by category and search term.
func (s *CatalogService) Products(ctx context.Context, categoryID uint, q string, page repositories.Page) ([]models.Product, repositories.Pagination, error) {
	return s.products.List(ctx, repositories.ProductFilter{CategoryID: categoryID, Query: q, ActiveOnly: true}, page)
}

// Product returns an active product. Inactive products are not found.
func (s *CatalogService) Product(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id, true)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	return p, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return cache.Remember(ctx, s.cache, CacheKeyCategories, catalogCacheTTL, func() ([]models.Category, error) {
		return s.categories.List(ctx, true)
	})
}

func (s *CatalogService) PublicSettings(ctx context.Context) (map[string]string, error) {
	return cache.Remember(ctx, s.cache, CacheKeyPublicSettings, catalogCacheTTL, func() (map[string]string, error) {
		return s.settings.Public(ctx)
	})
}
