package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
)

const categoryColumns = "id, name_ar, name_en, slug, image_url, sort_order, active, created_at, updated_at"

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

// List returns categories by sort_order, then id.
func (r *CategoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	w := &where{}
	if activeOnly {
		w.add("active = ?", true)
	}
	categories := []models.Category{}
	err := r.db.WithContext(ctx).Raw("SELECT "+categoryColumns+" FROM categories"+w.String()+
		" ORDER BY sort_order, id", w.args...).Scan(&categories).Error
	return categories, err
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	res := r.db.WithContext(ctx).Raw("SELECT "+categoryColumns+" FROM categories WHERE id = ?", id).Scan(&c)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *CategoryRepository) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Raw("SELECT COUNT(*) FROM categories WHERE slug = ? AND id <> ?", slug, exceptID).Scan(&n).Error
	return n > 0, err
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	now := Now()
	c.CreatedAt, c.UpdatedAt = now, now
	return r.db.WithContext(ctx).Raw(`INSERT INTO categories
		(name_ar, name_en, slug, image_url, sort_order, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		c.NameAr, c.NameEn, c.Slug, c.ImageURL, c.SortOrder, c.Active, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID).Error
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = Now()
	res := r.db.WithContext(ctx).Exec(`UPDATE categories SET
		name_ar = ?, name_en = ?, slug = ?, image_url = ?, sort_order = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		c.NameAr, c.NameEn, c.Slug, c.ImageURL, c.SortOrder, c.Active, c.UpdatedAt, c.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Exec("DELETE FROM categories WHERE id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
