package models

import "time"

// User is a storefront customer or back-office admin.
type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Name                 string     `gorm:"size:150;not null" json:"name"`
	Email                string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone                string     `gorm:"size:30;not null;uniqueIndex" json:"phone"`
	HashedPassword       string     `gorm:"size:255;not null" json:"-"`
	IsAdmin              bool       `gorm:"not null;default:false" json:"is_admin"`
	EmailVerified        bool       `gorm:"not null;default:false" json:"email_verified"`
	EmailToken           *string    `gorm:"size:64;index" json:"-"`
	EmailTokenExpires    *time.Time `json:"-"`
	PasswordResetToken   *string    `gorm:"size:64;index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Address is a saved shipping address owned by a user.
type Address struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Label      string    `gorm:"size:50" json:"label"`
	FullName   string    `gorm:"size:150;not null" json:"full_name"`
	Phone      string    `gorm:"size:30;not null" json:"phone"`
	Address    string    `gorm:"size:500;not null" json:"address"`
	City       string    `gorm:"size:100;not null" json:"city"`
	PostalCode string    `gorm:"size:20" json:"postal_code"`
	IsDefault  bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
