package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
)

const orderColumns = `id, order_number, user_id, status, payment_status, subtotal, shipping_cost, discount, total,
	customer_name, email, phone, address, city, postal_code, notes, payment_method, payment_proof_id,
	payment_reference, cancellation_reason, cancelled_at, created_at, updated_at`

const orderItemColumns = "id, order_id, product_id, product_name_ar, product_name_en, product_image, quantity, price, total"

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create inserts the order header. A duplicate order_number surfaces as a
// unique violation (see database.IsUniqueViolation).
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	now := Now()
	o.CreatedAt, o.UpdatedAt = now, now
	return r.db.WithContext(ctx).Raw(`INSERT INTO orders
		(order_number, user_id, status, payment_status, subtotal, shipping_cost, discount, total,
		 customer_name, email, phone, address, city, postal_code, notes, payment_method,
		 payment_reference, cancellation_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		o.OrderNumber, o.UserID, o.Status, o.PaymentStatus, o.Subtotal, o.ShippingCost, o.Discount, o.Total,
		o.CustomerName, o.Email, o.Phone, o.Address, o.City, o.PostalCode, o.Notes, o.PaymentMethod,
		o.PaymentReference, o.CancellationReason, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID).Error
}

func (r *OrderRepository) CreateItem(ctx context.Context, it *models.OrderItem) error {
	return r.db.WithContext(ctx).Raw(`INSERT INTO order_items
		(order_id, product_id, product_name_ar, product_name_en, product_image, quantity, price, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		it.OrderID, it.ProductID, it.ProductNameAr, it.ProductNameEn, it.ProductImage, it.Quantity, it.Price, it.Total,
	).Scan(&it.ID).Error
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindOwned returns the order only if it belongs to userID.
func (r *OrderRepository) FindOwned(ctx context.Context, id, userID uint) (*models.Order, error) {
	return r.findOne(ctx, "id = ? AND user_id = ?", id, userID)
}

func (r *OrderRepository) findOne(ctx context.Context, clause string, args ...interface{}) (*models.Order, error) {
	var o models.Order
	res := r.db.WithContext(ctx).Raw("SELECT "+orderColumns+" FROM orders WHERE "+clause, args...).Scan(&o)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	normalizeMoney(&o)
	return &o, nil
}

// LoadItems fills Items on each order with one query.
func (r *OrderRepository) LoadItems(ctx context.Context, orders ...*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(orders))
	byID := make(map[uint]*models.Order, len(orders))
	for _, o := range orders {
		o.Items = []models.OrderItem{}
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}
	var items []models.OrderItem
	err := r.db.WithContext(ctx).Raw("SELECT "+orderItemColumns+" FROM order_items WHERE order_id IN ? ORDER BY id",
		ids).Scan(&items).Error
	if err != nil {
		return err
	}
	for _, it := range items {
		it.Price, it.Total = it.Price.Round(2), it.Total.Round(2)
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return nil
}

// OrderFilter narrows List. Zero values mean "any".
type OrderFilter struct {
	UserID        uint
	Status        string
	PaymentStatus string
	Query         string // order number, customer name or phone
}

// List pages through orders, newest first.
func (r *OrderRepository) List(ctx context.Context, f OrderFilter, page Page) ([]models.Order, Pagination, error) {
	w := &where{}
	if f.UserID != 0 {
		w.add("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		w.add("payment_status = ?", f.PaymentStatus)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add(`(LOWER(order_number) LIKE ? ESCAPE '\' OR LOWER(customer_name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\')`, p, p, p)
	}

	db := r.db.WithContext(ctx)
	var total int64
	if err := db.Raw("SELECT COUNT(*) FROM orders"+w.String(), w.args...).Scan(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	orders := []models.Order{}
	args := append(w.args, page.Limit, page.Offset())
	err := db.Raw("SELECT "+orderColumns+" FROM orders"+w.String()+
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", args...).Scan(&orders).Error
	if err != nil {
		return nil, Pagination{}, err
	}
	for i := range orders {
		normalizeMoney(&orders[i])
	}
	return orders, page.Paginate(total), nil
}

// CancelPending cancels the order only while it is still pending. When
// userID is non-zero the order must also belong to that user. Returns
// whether a row changed.
func (r *OrderRepository) CancelPending(ctx context.Context, id, userID uint, reason string, at time.Time) (bool, error) {
	query := `UPDATE orders SET status = ?, cancellation_reason = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	args := []interface{}{models.OrderStatusCancelled, reason, at, at, id, models.OrderStatusPending}
	if userID != 0 {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	res := r.db.WithContext(ctx).Exec(query, args...)
	return res.RowsAffected > 0, res.Error
}

// UpdateStatus moves a non-cancelled order to status. Cancelled orders are
// terminal.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, status string) (bool, error) {
	res := r.db.WithContext(ctx).Exec("UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status <> ?",
		status, Now(), id, models.OrderStatusCancelled)
	return res.RowsAffected > 0, res.Error
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id uint, status string) (bool, error) {
	res := r.db.WithContext(ctx).Exec("UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ?",
		status, Now(), id)
	return res.RowsAffected > 0, res.Error
}

// AttachPaymentProof records a proof of payment on the user's own order,
// only while its payment is still pending and the order is not cancelled.
func (r *OrderRepository) AttachPaymentProof(ctx context.Context, id, userID, fileID uint, reference string) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`UPDATE orders SET payment_proof_id = ?, payment_reference = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND payment_status = ? AND status <> ?`,
		fileID, reference, Now(), id, userID, models.PaymentStatusPending, models.OrderStatusCancelled)
	return res.RowsAffected > 0, res.Error
}

// DetachProduct keeps order item snapshots when their product is deleted.
func (r *OrderRepository) DetachProduct(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Exec("UPDATE order_items SET product_id = NULL WHERE product_id = ?", productID).Error
}

// DetachPaymentProof clears references to a file that is being deleted.
func (r *OrderRepository) DetachPaymentProof(ctx context.Context, fileID uint) error {
	return r.db.WithContext(ctx).Exec("UPDATE orders SET payment_proof_id = NULL, updated_at = ? WHERE payment_proof_id = ?",
		Now(), fileID).Error
}

// OrderStats are the dashboard aggregates. Revenue sums non-cancelled totals.
type OrderStats struct {
	Orders  int64           `json:"orders"`
	Pending int64           `json:"pending"`
	Revenue decimal.Decimal `json:"revenue"`
}

func (r *OrderRepository) Stats(ctx context.Context) (OrderStats, error) {
	var s OrderStats
	err := r.db.WithContext(ctx).Raw(`SELECT
			COUNT(*) AS orders,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status <> ? THEN total ELSE 0 END), 0) AS revenue
		FROM orders`, models.OrderStatusPending, models.OrderStatusCancelled).Scan(&s).Error
	s.Revenue = s.Revenue.Round(2)
	return s, err
}

// normalizeMoney rounds money read back from drivers that store decimals as
// floating point.
func normalizeMoney(o *models.Order) {
	o.Subtotal = o.Subtotal.Round(2)
	o.ShippingCost = o.ShippingCost.Round(2)
	o.Discount = o.Discount.Round(2)
	o.Total = o.Total.Round(2)
}
