package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
)

const userColumns = `id, name, email, phone, hashed_password, is_admin, email_verified,
	email_token, email_token_expires, password_reset_token, password_reset_expires,
	created_at, updated_at`

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) findOne(ctx context.Context, clause string, args ...interface{}) (*models.User, error) {
	var u models.User
	res := r.db.WithContext(ctx).Raw("SELECT "+userColumns+" FROM users WHERE "+clause+" LIMIT 1", args...).Scan(&u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail expects an already normalised (trimmed, lower-case) email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email)
}

func (r *UserRepository) PhoneTaken(ctx context.Context, phone string, exceptID uint) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM users WHERE phone = ? AND id <> ?", phone, exceptID)
}

func (r *UserRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts u and fills in its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	now := Now()
	u.CreatedAt, u.UpdatedAt = now, now
	return r.db.WithContext(ctx).Raw(`INSERT INTO users
		(name, email, phone, hashed_password, is_admin, email_verified, email_token, email_token_expires, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Name, u.Email, u.Phone, u.HashedPassword, u.IsAdmin, u.EmailVerified,
		u.EmailToken, u.EmailTokenExpires, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID).Error
}

// SetEmailToken replaces the pending verification token of an unverified
// user. Returns false when the user is missing or already verified.
func (r *UserRepository) SetEmailToken(ctx context.Context, id uint, token string, expires time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`UPDATE users SET email_token = ?, email_token_expires = ?, updated_at = ?
		WHERE id = ? AND email_verified = ?`, token, expires, Now(), id, false)
	return res.RowsAffected > 0, res.Error
}

// ConsumeEmailToken verifies the user holding an unexpired token and clears
// the token in the same statement, so a token can be used once.
func (r *UserRepository) ConsumeEmailToken(ctx context.Context, token string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`UPDATE users
		SET email_verified = ?, email_token = NULL, email_token_expires = NULL, updated_at = ?
		WHERE email_token = ? AND email_token_expires > ?`, true, Now(), token, now)
	return res.RowsAffected > 0, res.Error
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uint, token string, expires time.Time) error {
	return r.db.WithContext(ctx).Exec(`UPDATE users SET password_reset_token = ?, password_reset_expires = ?, updated_at = ?
		WHERE id = ?`, token, expires, Now(), id).Error
}

// ConsumeResetToken sets a new password hash for the holder of an unexpired
// reset token and clears the token in the same statement.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, hash string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`UPDATE users
		SET hashed_password = ?, password_reset_token = NULL, password_reset_expires = NULL, updated_at = ?
		WHERE password_reset_token = ? AND password_reset_expires > ?`, hash, Now(), token, now)
	return res.RowsAffected > 0, res.Error
}

// PurgeExpiredTokens clears verification and reset tokens that expired
// before now. Returns the number of users touched.
func (r *UserRepository) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	verify := db.Exec(`UPDATE users SET email_token = NULL, email_token_expires = NULL
		WHERE email_token IS NOT NULL AND email_token_expires <= ?`, now)
	if verify.Error != nil {
		return 0, verify.Error
	}
	reset := db.Exec(`UPDATE users SET password_reset_token = NULL, password_reset_expires = NULL
		WHERE password_reset_token IS NOT NULL AND password_reset_expires <= ?`, now)
	return verify.RowsAffected + reset.RowsAffected, reset.Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).Exec(`UPDATE users SET hashed_password = ?, updated_at = ? WHERE id = ?`,
		hash, Now(), id).Error
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, name, phone string) error {
	return r.db.WithContext(ctx).Exec(`UPDATE users SET name = ?, phone = ?, updated_at = ? WHERE id = ?`,
		name, phone, Now(), id).Error
}

// CustomerSummary is a non-admin user with order aggregates. TotalSpent
// excludes cancelled orders.
type CustomerSummary struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	EmailVerified bool            `json:"email_verified"`
	CreatedAt     time.Time       `json:"created_at"`
	OrderCount    int64           `json:"order_count"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
}

// ListCustomers pages through non-admin users, newest first. q matches
// name, email or phone.
func (r *UserRepository) ListCustomers(ctx context.Context, q string, page Page) ([]CustomerSummary, Pagination, error) {
	w := &where{}
	w.add("u.is_admin = ?", false)
	if q != "" {
		p := likePattern(q)
		w.add(`(LOWER(u.name) LIKE ? ESCAPE '\' OR LOWER(u.email) LIKE ? ESCAPE '\' OR u.phone LIKE ? ESCAPE '\')`, p, p, p)
	}

	db := r.db.WithContext(ctx)
	var total int64
	if err := db.Raw("SELECT COUNT(*) FROM users u"+w.String(), w.args...).Scan(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	args := append([]interface{}{models.OrderStatusCancelled}, w.args...)
	args = append(args, page.Limit, page.Offset())

	var rows []CustomerSummary
	err := db.Raw(`SELECT u.id, u.name, u.email, u.phone, u.email_verified, u.created_at,
			COUNT(o.id) AS order_count,
			COALESCE(SUM(CASE WHEN o.status <> ? THEN o.total ELSE 0 END), 0) AS total_spent
		FROM users u LEFT JOIN orders o ON o.user_id = u.id`+w.String()+`
		GROUP BY u.id, u.name, u.email, u.phone, u.email_verified, u.created_at
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT ? OFFSET ?`, args...).Scan(&rows).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	for i := range rows {
		rows[i].TotalSpent = rows[i].TotalSpent.Round(2)
	}
	return rows, page.Paginate(total), nil
}

func (r *UserRepository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Raw("SELECT COUNT(*) FROM users WHERE is_admin = ?", false).Scan(&n).Error
	return n, err
}
