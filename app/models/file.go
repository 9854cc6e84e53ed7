package models

import "time"

// File purposes.
const (
	FilePurposeProductImage = "product_image"
	FilePurposePaymentProof = "payment_proof"
	FilePurposeOther        = "other"
)

// File is the metadata of an object uploaded straight from the browser to
// object storage through a presigned URL. Only the key and metadata live here.
type File struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	Key         string    `gorm:"size:500;not null;uniqueIndex" json:"key"`
	URL         string    `gorm:"size:1000;not null" json:"url"`
	Filename    string    `gorm:"size:255;not null" json:"filename"`
	ContentType string    `gorm:"size:100;not null" json:"content_type"`
	Purpose     string    `gorm:"size:30;not null;default:other" json:"purpose"`
	CreatedAt   time.Time `json:"created_at"`
}

// Setting is a key/value store setting. Public settings are served to the
// storefront; the rest are back-office only.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	IsPublic  bool      `gorm:"not null;default:false" json:"is_public"`
	UpdatedAt time.Time `json:"updated_at"`
}
