package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. The column is free-form text; these are the values the
// storefront and back office write.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order is a placed order. Contact fields are copied from the checkout form
// so later profile edits do not rewrite history. Total is computed once at
// creation (subtotal + shipping - discount) and never re-derived.
type Order struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	OrderNumber        string          `gorm:"size:32;not null;uniqueIndex" json:"order_number"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	Status             string          `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaymentStatus      string          `gorm:"size:20;not null;default:pending" json:"payment_status"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingCost       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_cost"`
	Discount           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	Total              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	CustomerName       string          `gorm:"size:150;not null" json:"customer_name"`
	Email              string          `gorm:"size:255" json:"email"`
	Phone              string          `gorm:"size:30;not null" json:"phone"`
	Address            string          `gorm:"size:500;not null" json:"address"`
	City               string          `gorm:"size:100;not null" json:"city"`
	PostalCode         string          `gorm:"size:20" json:"postal_code"`
	Notes              string          `gorm:"type:text" json:"notes"`
	PaymentMethod      string          `gorm:"size:50;not null" json:"payment_method"`
	PaymentProofID     *uint           `json:"payment_proof_id"`
	PaymentReference   string          `gorm:"size:100" json:"payment_reference"`
	CancellationReason string          `gorm:"size:500" json:"cancellation_reason"`
	CancelledAt        *time.Time      `json:"cancelled_at"`
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"-" json:"items,omitempty"`
}

// OrderItem snapshots the product as it was sold. ProductID becomes NULL if
// the product is later deleted; the snapshot columns keep the history.
type OrderItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;index" json:"order_id"`
	ProductID     *uint           `gorm:"index" json:"product_id"`
	ProductNameAr string          `gorm:"size:200;not null" json:"product_name_ar"`
	ProductNameEn string          `gorm:"size:200;not null" json:"product_name_en"`
	ProductImage  string          `gorm:"size:500" json:"product_image"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
}
