package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
)

const productColumns = `id, category_id, name_ar, name_en, description_ar, description_en, price,
	stock, low_stock_threshold, image_file_id, image_url, active, created_at, updated_at`

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// ProductFilter narrows List. Zero values mean "any".
type ProductFilter struct {
	CategoryID uint
	Query      string
	ActiveOnly bool
	LowStock   bool
}

func (f ProductFilter) where() *where {
	w := &where{}
	if f.ActiveOnly {
		w.add("active = ?", true)
	}
	if f.CategoryID != 0 {
		w.add("category_id = ?", f.CategoryID)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add(`(LOWER(name_en) LIKE ? ESCAPE '\' OR name_ar LIKE ? ESCAPE '\')`, p, p)
	}
	if f.LowStock {
		w.add("stock IS NOT NULL AND stock <= low_stock_threshold")
	}
	return w
}

func (r *ProductRepository) List(ctx context.Context, f ProductFilter, page Page) ([]models.Product, Pagination, error) {
	w := f.where()
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Raw("SELECT COUNT(*) FROM products"+w.String(), w.args...).Scan(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	products := []models.Product{}
	args := append(w.args, page.Limit, page.Offset())
	err := db.Raw("SELECT "+productColumns+" FROM products"+w.String()+
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", args...).Scan(&products).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	return products, page.Paginate(total), nil
}

// FindByID returns the product; with activeOnly an inactive product is
// reported as not found.
func (r *ProductRepository) FindByID(ctx context.Context, id uint, activeOnly bool) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = ?"
	args := []interface{}{id}
	if activeOnly {
		query += " AND active = ?"
		args = append(args, true)
	}
	var p models.Product
	res := r.db.WithContext(ctx).Raw(query, args...).Scan(&p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &p, nil
}

// FindActiveByIDs loads the active products among ids, keyed by id.
func (r *ProductRepository) FindActiveByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Raw("SELECT "+productColumns+" FROM products WHERE id IN ? AND active = ?",
		ids, true).Scan(&products).Error
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := Now()
	p.CreatedAt, p.UpdatedAt = now, now
	return r.db.WithContext(ctx).Raw(`INSERT INTO products
		(category_id, name_ar, name_en, description_ar, description_en, price, stock,
		 low_stock_threshold, image_file_id, image_url, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.CategoryID, p.NameAr, p.NameEn, p.DescriptionAr, p.DescriptionEn, p.Price.Round(2), p.Stock,
		p.LowStockThreshold, p.ImageFileID, p.ImageURL, p.Active, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID).Error
}

// Update writes every editable column of p.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = Now()
	res := r.db.WithContext(ctx).Exec(`UPDATE products SET
		category_id = ?, name_ar = ?, name_en = ?, description_ar = ?, description_en = ?, price = ?,
		stock = ?, low_stock_threshold = ?, image_file_id = ?, image_url = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		p.CategoryID, p.NameAr, p.NameEn, p.DescriptionAr, p.DescriptionEn, p.Price.Round(2),
		p.Stock, p.LowStockThreshold, p.ImageFileID, p.ImageURL, p.Active, p.UpdatedAt, p.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStock overwrites the stock level. nil stops tracking.
func (r *ProductRepository) SetStock(ctx context.Context, id uint, stock *int) error {
	res := r.db.WithContext(ctx).Exec("UPDATE products SET stock = ?, updated_at = ? WHERE id = ?", stock, Now(), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Reservation is the state of a product right after a successful decrement.
type Reservation struct {
	ID                uint `json:"product_id"`
	Stock             int  `json:"stock"`
	LowStockThreshold int  `json:"low_stock_threshold"`
}

func (r Reservation) LowOnStock() bool { return r.Stock <= r.LowStockThreshold }

// ReserveStock atomically lowers tracked stock by qty, only if at least qty
// units remain. ok is false when the guard rejected the update, which means
// a concurrent order took the stock first (or tracking was switched off).
func (r *ProductRepository) ReserveStock(ctx context.Context, id uint, qty int) (res Reservation, ok bool, err error) {
	q := r.db.WithContext(ctx).Raw(`UPDATE products SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock IS NOT NULL AND stock >= ?
		RETURNING id, stock, low_stock_threshold`, qty, Now(), id, qty).Scan(&res)
	if q.Error != nil {
		return Reservation{}, false, q.Error
	}
	return res, q.RowsAffected > 0, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Exec("DELETE FROM products WHERE id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DetachCategory moves the category's products to "uncategorised".
func (r *ProductRepository) DetachCategory(ctx context.Context, categoryID uint) error {
	return r.db.WithContext(ctx).Exec("UPDATE products SET category_id = NULL, updated_at = ? WHERE category_id = ?",
		Now(), categoryID).Error
}

// DetachImage clears references to an uploaded file that is being deleted.
func (r *ProductRepository) DetachImage(ctx context.Context, fileID uint) error {
	return r.db.WithContext(ctx).Exec("UPDATE products SET image_file_id = NULL, image_url = '', updated_at = ? WHERE image_file_id = ?",
		Now(), fileID).Error
}

func (r *ProductRepository) CountLowStock(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM products WHERE stock IS NOT NULL AND stock <= low_stock_threshold").Scan(&n).Error
	return n, err
}
