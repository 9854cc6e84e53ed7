package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
)

const fileColumns = "id, user_id, key, url, filename, content_type, purpose, created_at"

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) WithTx(tx *gorm.DB) *FileRepository {
	return &FileRepository{db: tx}
}

func (r *FileRepository) Create(ctx context.Context, f *models.File) error {
	f.CreatedAt = Now()
	return r.db.WithContext(ctx).Raw(`INSERT INTO files (user_id, key, url, filename, content_type, purpose, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		f.UserID, f.Key, f.URL, f.Filename, f.ContentType, f.Purpose, f.CreatedAt,
	).Scan(&f.ID).Error
}

func (r *FileRepository) FindByID(ctx context.Context, id uint) (*models.File, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindOwned returns the file only if userID uploaded it.
func (r *FileRepository) FindOwned(ctx context.Context, id, userID uint) (*models.File, error) {
	return r.findOne(ctx, "id = ? AND user_id = ?", id, userID)
}

func (r *FileRepository) findOne(ctx context.Context, clause string, args ...interface{}) (*models.File, error) {
	var f models.File
	res := r.db.WithContext(ctx).Raw("SELECT "+fileColumns+" FROM files WHERE "+clause, args...).Scan(&f)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &f, nil
}

// List pages through files, newest first. An empty purpose lists all.
func (r *FileRepository) List(ctx context.Context, purpose string, page Page) ([]models.File, Pagination, error) {
	w := &where{}
	if purpose != "" {
		w.add("purpose = ?", purpose)
	}
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Raw("SELECT COUNT(*) FROM files"+w.String(), w.args...).Scan(&total).Error; err != nil {
		return nil, Pagination{}, err
	}
	files := []models.File{}
	args := append(w.args, page.Limit, page.Offset())
	err := db.Raw("SELECT "+fileColumns+" FROM files"+w.String()+
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", args...).Scan(&files).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	return files, page.Paginate(total), nil
}

func (r *FileRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Exec("DELETE FROM files WHERE id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
