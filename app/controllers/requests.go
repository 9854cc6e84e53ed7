package controllers

import (
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

// ── Auth ─────────────────────────────────────────────────────────────────────

type registerRequest struct {
	Name     string `json:"name"     validate:"required,max=150"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Phone    string `json:"phone"    validate:"required,min=6,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type profileRequest struct {
	Name  string `json:"name"  validate:"required,max=150"`
	Phone string `json:"phone" validate:"required,min=6,max=30"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

// ── Orders ───────────────────────────────────────────────────────────────────

type cartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type placeOrderRequest struct {
	CustomerName  string            `json:"customer_name"  validate:"required,max=150"`
	Phone         string            `json:"phone"          validate:"required,max=30"`
	Address       string            `json:"address"        validate:"required,max=500"`
	City          string            `json:"city"           validate:"required,max=100"`
	PostalCode    string            `json:"postal_code"    validate:"max=20"`
	Notes         string            `json:"notes"          validate:"max=2000"`
	PaymentMethod string            `json:"payment_method" validate:"required,max=50"`
	ShippingCost  decimal.Decimal   `json:"shipping_cost"  validate:"gte=0"`
	Discount      decimal.Decimal   `json:"discount"       validate:"gte=0"`
	Items         []cartItemRequest `json:"items"          validate:"required"`
}

func (r placeOrderRequest) input() services.PlaceOrderInput {
	items := make([]services.CartItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = services.CartItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return services.PlaceOrderInput{
		CustomerName:  r.CustomerName,
		Phone:         r.Phone,
		Address:       r.Address,
		City:          r.City,
		PostalCode:    r.PostalCode,
		Notes:         r.Notes,
		PaymentMethod: r.PaymentMethod,
		ShippingCost:  r.ShippingCost,
		Discount:      r.Discount,
		Items:         items,
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type paymentProofRequest struct {
	FileID           uint   `json:"file_id"           validate:"required"`
	PaymentReference string `json:"payment_reference" validate:"max=100"`
}

type uploadRequest struct {
	Filename    string `json:"filename"     validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=100"`
	Purpose     string `json:"purpose"      validate:"nullable,in=payment_proof,other"`
}

type adminUploadRequest struct {
	Filename    string `json:"filename"     validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=100"`
	Purpose     string `json:"purpose"      validate:"nullable,in=product_image,payment_proof,other"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,in=pending,confirmed,preparing,shipped,delivered,cancelled"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,in=pending,paid,failed,refunded"`
}

// ── Addresses ────────────────────────────────────────────────────────────────

type addressRequest struct {
	Label      string `json:"label"       validate:"max=50"`
	FullName   string `json:"full_name"   validate:"required,max=150"`
	Phone      string `json:"phone"       validate:"required,max=30"`
	Address    string `json:"address"     validate:"required,max=500"`
	City       string `json:"city"        validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	IsDefault  bool   `json:"is_default"`
}

func (r addressRequest) input() services.AddressInput {
	return services.AddressInput(r)
}

// ── Catalog admin ────────────────────────────────────────────────────────────

type productRequest struct {
	CategoryID        *uint            `json:"category_id"`
	NameAr            string           `json:"name_ar"             validate:"required,max=200"`
	NameEn            string           `json:"name_en"             validate:"required,max=200"`
	DescriptionAr     string           `json:"description_ar"`
	DescriptionEn     string           `json:"description_en"`
	Price             *decimal.Decimal `json:"price"               validate:"required,gte=0"`
	Stock             *int             `json:"stock"               validate:"nullable,gte=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" validate:"nullable,gte=0"`
	ImageFileID       *uint            `json:"image_file_id"`
	ImageURL          string           `json:"image_url"           validate:"nullable,url,max=500"`
	Active            *bool            `json:"active"`
}

func (r productRequest) input() services.ProductInput {
	in := services.ProductInput{
		CategoryID:        r.CategoryID,
		NameAr:            r.NameAr,
		NameEn:            r.NameEn,
		DescriptionAr:     r.DescriptionAr,
		DescriptionEn:     r.DescriptionEn,
		Stock:             r.Stock,
		LowStockThreshold: 5,
		ImageFileID:       r.ImageFileID,
		ImageURL:          r.ImageURL,
		Active:            true,
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	if r.LowStockThreshold != nil {
		in.LowStockThreshold = *r.LowStockThreshold
	}
	if r.Active != nil {
		in.Active = *r.Active
	}
	return in
}

type stockRequest struct {
	Stock *int `json:"stock" validate:"nullable,gte=0"`
}

type categoryRequest struct {
	NameAr    string `json:"name_ar"    validate:"required,max=150"`
	NameEn    string `json:"name_en"    validate:"required,max=150"`
	Slug      string `json:"slug"       validate:"max=160"`
	ImageURL  string `json:"image_url"  validate:"nullable,url,max=500"`
	SortOrder int    `json:"sort_order"`
	Active    *bool  `json:"active"`
}

func (r categoryRequest) input() services.CategoryInput {
	in := services.CategoryInput{
		NameAr:    r.NameAr,
		NameEn:    r.NameEn,
		Slug:      r.Slug,
		ImageURL:  r.ImageURL,
		SortOrder: r.SortOrder,
		Active:    true,
	}
	if r.Active != nil {
		in.Active = *r.Active
	}
	return in
}

type settingRequest struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	IsPublic bool   `json:"is_public"`
}

type settingsRequest struct {
	Settings []settingRequest `json:"settings" validate:"required"`
}

// page reads ?page= and ?limit=.
func page(c *ctx.Context) repositories.Page {
	return repositories.NewPage(c.QueryInt("page", 1), c.QueryInt("limit", 20))
}
