package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
)

const addressColumns = "id, user_id, label, full_name, phone, address, city, postal_code, is_default, created_at, updated_at"

type AddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) WithTx(tx *gorm.DB) *AddressRepository {
	return &AddressRepository{db: tx}
}

// ListForUser returns the default address first, then newest.
func (r *AddressRepository) ListForUser(ctx context.Context, userID uint) ([]models.Address, error) {
	addresses := []models.Address{}
	err := r.db.WithContext(ctx).Raw("SELECT "+addressColumns+
		" FROM addresses WHERE user_id = ? ORDER BY is_default DESC, created_at DESC, id DESC", userID).
		Scan(&addresses).Error
	return addresses, err
}

// FindOwned returns the address only if it belongs to userID.
func (r *AddressRepository) FindOwned(ctx context.Context, id, userID uint) (*models.Address, error) {
	var a models.Address
	res := r.db.WithContext(ctx).Raw("SELECT "+addressColumns+" FROM addresses WHERE id = ? AND user_id = ?", id, userID).Scan(&a)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *AddressRepository) Create(ctx context.Context, a *models.Address) error {
	now := Now()
	a.CreatedAt, a.UpdatedAt = now, now
	return r.db.WithContext(ctx).Raw(`INSERT INTO addresses
		(user_id, label, full_name, phone, address, city, postal_code, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		a.UserID, a.Label, a.FullName, a.Phone, a.Address, a.City, a.PostalCode, a.IsDefault, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID).Error
}

func (r *AddressRepository) Update(ctx context.Context, a *models.Address) error {
	a.UpdatedAt = Now()
	res := r.db.WithContext(ctx).Exec(`UPDATE addresses SET
		label = ?, full_name = ?, phone = ?, address = ?, city = ?, postal_code = ?, is_default = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		a.Label, a.FullName, a.Phone, a.Address, a.City, a.PostalCode, a.IsDefault, a.UpdatedAt, a.ID, a.UserID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearDefault unsets is_default on the user's addresses other than keepID.
func (r *AddressRepository) ClearDefault(ctx context.Context, userID, keepID uint) error {
	return r.db.WithContext(ctx).Exec("UPDATE addresses SET is_default = ?, updated_at = ? WHERE user_id = ? AND id <> ? AND is_default = ?",
		false, Now(), userID, keepID, true).Error
}

func (r *AddressRepository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Exec("DELETE FROM addresses WHERE id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
