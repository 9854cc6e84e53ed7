package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/logger"
)

// ProductInput is the editable state of a product. Stock nil means
// untracked.
type ProductInput struct {
	CategoryID        *uint
	NameAr            string
	NameEn            string
	DescriptionAr     string
	DescriptionEn     string
	Price             decimal.Decimal
	Stock             *int
	LowStockThreshold int
	ImageFileID       *uint
	ImageURL          string
	Active            bool
}

// ProductService is the back-office product management.
type ProductService struct {
	db         *gorm.DB
	products   *repositories.ProductRepository
	categories *repositories.CategoryRepository
	files      *repositories.FileRepository
	orders     *repositories.OrderRepository
	feed       Publisher
}

func NewProductService(db *gorm.DB, feed Publisher) *ProductService {
	return &ProductService{
		db:         db,
		products:   repositories.NewProductRepository(db),
		categories: repositories.NewCategoryRepository(db),
		files:      repositories.NewFileRepository(db),
		orders:     repositories.NewOrderRepository(db),
		feed:       publisherOrNop(feed),
	}
}

func (s *ProductService) List(ctx context.Context, f repositories.ProductFilter, page repositories.Page) ([]models.Product, repositories.Pagination, error) {
	return s.products.List(ctx, f, page)
}

// LowStock lists tracked products at or below their threshold.
func (s *ProductService) LowStock(ctx context.Context, page repositories.Page) ([]models.Product, repositories.Pagination, error) {
	return s.products.List(ctx, repositories.ProductFilter{LowStock: true}, page)
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id, false)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	p := &models.Product{}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("product created", "product_id", p.ID)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, notFound(err, "Product not found")
	}
	s.publishIfLow(p)
	return p, nil
}

// SetStock overwrites the stock level; nil stops tracking.
func (s *ProductService) SetStock(ctx context.Context, id uint, stock *int) (*models.Product, error) {
	if stock != nil && *stock < 0 {
		return nil, apperr.Validation(map[string]string{"stock": "The stock field must be at least 0."})
	}
	if err := s.products.SetStock(ctx, id, stock); err != nil {
		return nil, notFound(err, "Product not found")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishIfLow(p)
	return p, nil
}

// Delete removes the product. Order items keep their snapshot with a NULL
// product_id.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	err := database.InTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).DetachProduct(ctx, id); err != nil {
			return err
		}
		return s.products.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return notFound(err, "Product not found")
	}
	logger.WithCtx(ctx).Info("product deleted", "product_id", id)
	return nil
}

func (s *ProductService) apply(ctx context.Context, p *models.Product, in ProductInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.NameAr) == "" {
		fields["name_ar"] = "The name_ar field is required."
	}
	if strings.TrimSpace(in.NameEn) == "" {
		fields["name_en"] = "The name_en field is required."
	}
	if in.Price.IsNegative() {
		fields["price"] = "The price field must be at least 0."
	}
	if in.Stock != nil && *in.Stock < 0 {
		fields["stock"] = "The stock field must be at least 0."
	}
	if in.LowStockThreshold < 0 {
		fields["low_stock_threshold"] = "The low_stock_threshold field must be at least 0."
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}

	if in.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.BadRequest("Category not found")
			}
			return err
		}
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if in.ImageFileID != nil {
		f, err := s.files.FindByID(ctx, *in.ImageFileID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.BadRequest("Image file not found")
			}
			return err
		}
		imageURL = f.URL
	}

	p.CategoryID = in.CategoryID
	p.NameAr = strings.TrimSpace(in.NameAr)
	p.NameEn = strings.TrimSpace(in.NameEn)
	p.DescriptionAr = in.DescriptionAr
	p.DescriptionEn = in.DescriptionEn
	p.Price = in.Price.Round(2)
	p.Stock = in.Stock
	p.LowStockThreshold = in.LowStockThreshold
	p.ImageFileID = in.ImageFileID
	p.ImageURL = imageURL
	p.Active = in.Active
	return nil
}

func (s *ProductService) publishIfLow(p *models.Product) {
	if p.LowOnStock() {
		s.feed.Publish(EventProductLowStock, repositories.Reservation{
			ID: p.ID, Stock: *p.Stock, LowStockThreshold: p.LowStockThreshold,
		})
	}
}
