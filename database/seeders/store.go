package seeders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/pkg/auth"
)

func init() {
	Register("admin", seedAdmin)
	Register("categories", seedCategories)
	Register("products", seedProducts)
	Register("settings", seedSettings)
}

// seedAdmin creates the back-office account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Skipped when either is unset or the email exists.
func seedAdmin(ctx context.Context, db *gorm.DB) error {
	email := config.AdminEmail()
	password := config.Get("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		return nil
	}

	users := repositories.NewUserRepository(db)
	taken, err := users.EmailTaken(ctx, email)
	if err != nil || taken {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return users.Create(ctx, &models.User{
		Name:           "Administrator",
		Email:          email,
		Phone:          config.Get("ADMIN_PHONE", "+000000000"),
		HashedPassword: hash,
		IsAdmin:        true,
		EmailVerified:  true,
	})
}

var defaultCategories = []models.Category{
	{NameAr: "إلكترونيات", NameEn: "Electronics", Slug: "electronics", SortOrder: 1, Active: true},
	{NameAr: "أزياء", NameEn: "Fashion", Slug: "fashion", SortOrder: 2, Active: true},
	{NameAr: "المنزل والمطبخ", NameEn: "Home & Kitchen", Slug: "home-kitchen", SortOrder: 3, Active: true},
	{NameAr: "العناية الشخصية", NameEn: "Personal Care", Slug: "personal-care", SortOrder: 4, Active: true},
}

func seedCategories(ctx context.Context, db *gorm.DB) error {
	categories := repositories.NewCategoryRepository(db)
	for _, c := range defaultCategories {
		taken, err := categories.SlugTaken(ctx, c.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		if err := categories.Create(ctx, &c); err != nil {
			return fmt.Errorf("category %s: %w", c.Slug, err)
		}
	}
	return nil
}

type sampleProduct struct {
	category string
	nameAr   string
	nameEn   string
	price    string
	stock    *int
}

func stock(n int) *int { return &n }

var sampleProducts = []sampleProduct{
	{"electronics", "سماعات لاسلكية", "Wireless Earbuds", "149.00", stock(40)},
	{"electronics", "شاحن سريع", "Fast Charger", "59.50", stock(120)},
	{"fashion", "عباءة سوداء", "Black Abaya", "320.00", stock(15)},
	{"home-kitchen", "دلة قهوة", "Arabic Coffee Pot", "85.00", stock(25)},
	{"personal-care", "عطر عود", "Oud Perfume", "450.00", stock(8)},
	{"personal-care", "بطاقة هدية", "Gift Card", "100.00", nil},
}

// seedProducts only runs against an empty catalog.
func seedProducts(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM products").Scan(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	cats, err := repositories.NewCategoryRepository(db).List(ctx, false)
	if err != nil {
		return err
	}
	bySlug := make(map[string]uint, len(cats))
	for _, c := range cats {
		bySlug[c.Slug] = c.ID
	}

	products := repositories.NewProductRepository(db)
	for _, s := range sampleProducts {
		p := &models.Product{
			NameAr:            s.nameAr,
			NameEn:            s.nameEn,
			Price:             decimal.RequireFromString(s.price),
			Stock:             s.stock,
			LowStockThreshold: 5,
			Active:            true,
		}
		if id, ok := bySlug[s.category]; ok {
			p.CategoryID = &id
		}
		if err := products.Create(ctx, p); err != nil {
			return fmt.Errorf("product %s: %w", s.nameEn, err)
		}
	}
	return nil
}

var defaultSettings = []models.Setting{
	{Key: "store.name_ar", Value: "سوق", IsPublic: true},
	{Key: "store.name_en", Value: "Souq", IsPublic: true},
	{Key: "store.currency", Value: "SAR", IsPublic: true},
	{Key: "shipping.flat_rate", Value: "25.00", IsPublic: true},
	{Key: "payment.bank_account", Value: "", IsPublic: true},
	{Key: "orders.notify_admin", Value: "true", IsPublic: false},
}

// seedSettings inserts missing keys and never overwrites edited values.
func seedSettings(ctx context.Context, db *gorm.DB) error {
	settings := repositories.NewSettingRepository(db)
	existing, err := settings.All(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, s := range existing {
		have[s.Key] = true
	}
	for _, s := range defaultSettings {
		if have[s.Key] {
			continue
		}
		if err := settings.Upsert(ctx, &s); err != nil {
			return err
		}
	}
	return nil
}
