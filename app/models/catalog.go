package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products. Names are kept in both storefront languages.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	NameAr    string    `gorm:"size:150;not null" json:"name_ar"`
	NameEn    string    `gorm:"size:150;not null" json:"name_en"`
	Slug      string    `gorm:"size:160;not null;uniqueIndex" json:"slug"`
	ImageURL  string    `gorm:"size:500" json:"image_url"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a sellable item.
//
// A nil Stock means the product is not inventory-tracked and can always be
// ordered. Once tracked, stock is only lowered by the guarded decrement in
// repositories.ProductRepository.ReserveStock and never goes below zero.
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	CategoryID        *uint           `gorm:"index" json:"category_id"`
	NameAr            string          `gorm:"size:200;not null" json:"name_ar"`
	NameEn            string          `gorm:"size:200;not null" json:"name_en"`
	DescriptionAr     string          `gorm:"type:text" json:"description_ar"`
	DescriptionEn     string          `gorm:"type:text" json:"description_en"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock             *int            `gorm:"check:stock IS NULL OR stock >= 0" json:"stock"`
	LowStockThreshold int             `gorm:"not null;default:5" json:"low_stock_threshold"`
	ImageFileID       *uint           `json:"image_file_id"`
	ImageURL          string          `gorm:"size:500" json:"image_url"`
	Active            bool            `gorm:"not null;default:true;index" json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Tracked reports whether the product's inventory is counted.
func (p Product) Tracked() bool { return p.Stock != nil }

// LowOnStock reports whether tracked stock is at or below the threshold.
func (p Product) LowOnStock() bool {
	return p.Stock != nil && *p.Stock <= p.LowStockThreshold
}
