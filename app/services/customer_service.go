package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
)

const recentOrdersLimit = 10

// CustomerDetail is a customer with their latest orders.
type CustomerDetail struct {
	*models.User
	RecentOrders []models.Order `json:"recent_orders"`
	OrderCount   int64          `json:"order_count"`
}

// DashboardStats are the back-office headline numbers.
type DashboardStats struct {
	repositories.OrderStats
	Customers int64 `json:"customers"`
	LowStock  int64 `json:"low_stock"`
}

// CustomerService covers the back-office customer list and the dashboard.
type CustomerService struct {
	users    *repositories.UserRepository
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{
		users:    repositories.NewUserRepository(db),
		orders:   repositories.NewOrderRepository(db),
		products: repositories.NewProductRepository(db),
	}
}

func (s *CustomerService) List(ctx context.Context, q string, page repositories.Page) ([]repositories.CustomerSummary, repositories.Pagination, error) {
	return s.users.ListCustomers(ctx, q, page)
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*CustomerDetail, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Customer not found")
	}
	if u.IsAdmin {
		return nil, apperr.NotFound("Customer not found")
	}
	orders, page, err := s.orders.List(ctx, repositories.OrderFilter{UserID: id}, repositories.NewPage(1, recentOrdersLimit))
	if err != nil {
		return nil, err
	}
	return &CustomerDetail{User: u, RecentOrders: orders, OrderCount: page.Total}, nil
}

func (s *CustomerService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats
	var err error
	if out.OrderStats, err = s.orders.Stats(ctx); err != nil {
		return out, err
	}
	if out.Customers, err = s.users.CountCustomers(ctx); err != nil {
		return out, err
	}
	if out.LowStock, err = s.products.CountLowStock(ctx); err != nil {
		return out, err
	}
	return out, nil
}
