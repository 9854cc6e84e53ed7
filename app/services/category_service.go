package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
	"github.com/shashiranjanraj/souq/pkg/cache"
	"github.com/shashiranjanraj/souq/pkg/database"
)

type CategoryInput struct {
	NameAr    string
	NameEn    string
	Slug      string
	ImageURL  string
	SortOrder int
	Active    bool
}

// CategoryService is the back-office category management. Every write
// drops the cached storefront category list.
type CategoryService struct {
	db         *gorm.DB
	categories *repositories.CategoryRepository
	products   *repositories.ProductRepository
	cache      *cache.Cache
}

func NewCategoryService(db *gorm.DB, c *cache.Cache) *CategoryService {
	return &CategoryService{
		db:         db,
		categories: repositories.NewCategoryRepository(db),
		products:   repositories.NewProductRepository(db),
		cache:      c,
	}
}

// List returns all categories, inactive included.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx, false)
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	c := &models.Category{}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, s.slugConflict(err)
	}
	s.cache.Forget(ctx, CacheKeyCategories)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category not found")
	}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, s.slugConflict(notFound(err, "Category not found"))
	}
	s.cache.Forget(ctx, CacheKeyCategories)
	return c, nil
}

// Delete removes the category after moving its products to no category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := database.InTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.products.WithTx(tx).DetachCategory(ctx, id); err != nil {
			return err
		}
		return s.categories.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return notFound(err, "Category not found")
	}
	s.cache.Forget(ctx, CacheKeyCategories)
	return nil
}

func (s *CategoryService) apply(ctx context.Context, c *models.Category, in CategoryInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.NameAr) == "" {
		fields["name_ar"] = "The name_ar field is required."
	}
	if strings.TrimSpace(in.NameEn) == "" {
		fields["name_en"] = "The name_en field is required."
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.NameEn)
	}
	if slug == "" {
		slug = "category-" + uuid.NewString()[:8]
	}
	taken, err := s.categories.SlugTaken(ctx, slug, c.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.BadRequest("Slug already in use")
	}

	c.NameAr = strings.TrimSpace(in.NameAr)
	c.NameEn = strings.TrimSpace(in.NameEn)
	c.Slug = slug
	c.ImageURL = strings.TrimSpace(in.ImageURL)
	c.SortOrder = in.SortOrder
	c.Active = in.Active
	return nil
}

func (s *CategoryService) slugConflict(err error) error {
	if database.IsUniqueViolation(err) {
		return apperr.BadRequest("Slug already in use")
	}
	return err
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its ASCII letters and digits with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
