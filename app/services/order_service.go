package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/metrics"
)

// orderNumberAttempts bounds retries when a generated order number collides
// with an existing one.
const orderNumberAttempts = 3

// Order statuses an admin may set.
var orderStatuses = map[string]bool{
	models.OrderStatusPending:   true,
	models.OrderStatusConfirmed: true,
	models.OrderStatusPreparing: true,
	models.OrderStatusShipped:   true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCancelled: true,
}

var paymentStatuses = map[string]bool{
	models.PaymentStatusPending:  true,
	models.PaymentStatusPaid:     true,
	models.PaymentStatusFailed:   true,
	models.PaymentStatusRefunded: true,
}

// CartItem is one requested line. ProductID is signed because carts come
// straight from the browser; non-positive ids are skipped.
type CartItem struct {
	ProductID int64
	Quantity  int
}

type PlaceOrderInput struct {
	CustomerName  string
	Phone         string
	Address       string
	City          string
	PostalCode    string
	Notes         string
	PaymentMethod string
	ShippingCost  decimal.Decimal
	Discount      decimal.Decimal
	Items         []CartItem
}

type OrderService struct {
	db       *gorm.DB
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	files    *repositories.FileRepository
	notify   Notifier
	feed     Publisher

	now       func() time.Time
	newNumber func(time.Time) string
}

func NewOrderService(db *gorm.DB, notify Notifier, feed Publisher) *OrderService {
	return &OrderService{
		db:        db,
		orders:    repositories.NewOrderRepository(db),
		products:  repositories.NewProductRepository(db),
		files:     repositories.NewFileRepository(db),
		notify:    notify,
		feed:      publisherOrNop(feed),
		now:       now,
		newNumber: orderNumber,
	}
}

// orderNumber is "ORD-" + the last 8 digits of the millisecond clock + 4
// random digits. Collisions are possible and retried by Place.
func orderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%08d%04d", t.UnixMilli()%100_000_000, rand.Intn(10_000))
}

// pricedLine is a validated cart line with its product snapshot.
type pricedLine struct {
	product  models.Product
	quantity int
	total    decimal.Decimal
}

// Place validates the cart against current product state, prices it and
// persists the order, its item snapshots and the stock reservations as one
// unit of work. The confirmation email is sent after commit and cannot fail
// the order.
func (s *OrderService) Place(ctx context.Context, customer auth.Identity, in PlaceOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	lines, err := s.resolve(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.total)
	}
	total := subtotal.Add(in.ShippingCost).Sub(in.Discount).Round(2)
	if total.IsNegative() {
		return nil, apperr.BadRequest("Order total cannot be negative")
	}

	order := &models.Order{
		UserID:        customer.UserID,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Subtotal:      subtotal.Round(2),
		ShippingCost:  in.ShippingCost.Round(2),
		Discount:      in.Discount.Round(2),
		Total:         total,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		Email:         customer.Email,
		Phone:         strings.TrimSpace(in.Phone),
		Address:       strings.TrimSpace(in.Address),
		City:          strings.TrimSpace(in.City),
		PostalCode:    strings.TrimSpace(in.PostalCode),
		Notes:         strings.TrimSpace(in.Notes),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
	}

	var low []repositories.Reservation
	for attempt := 1; ; attempt++ {
		order.OrderNumber = s.newNumber(s.now())
		low, err = s.persist(ctx, order, lines)
		if err == nil {
			break
		}
		if attempt < orderNumberAttempts && database.IsUniqueViolation(err) {
			logger.WithCtx(ctx).Warn("order number collision, retrying", "order_number", order.OrderNumber, "attempt", attempt)
			continue
		}
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(order.PaymentMethod).Inc()
	logger.WithCtx(ctx).Info("order placed", "order_id", order.ID, "order_number", order.OrderNumber, "total", order.Total.StringFixed(2))
	s.feed.Publish(EventOrderCreated, orderEvent(order))
	for _, r := range low {
		logger.WithCtx(ctx).Warn("product low on stock", "product_id", r.ID, "stock", r.Stock, "threshold", r.LowStockThreshold)
		s.feed.Publish(EventProductLowStock, r)
	}
	if s.notify != nil {
		s.notify.SendOrderConfirmation(ctx, order)
	}
	return order, nil
}

func (in PlaceOrderInput) validate() error {
	fields := map[string]string{}
	for name, v := range map[string]string{
		"customer_name":  in.CustomerName,
		"phone":          in.Phone,
		"address":        in.Address,
		"city":           in.City,
		"payment_method": in.PaymentMethod,
	} {
		if strings.TrimSpace(v) == "" {
			fields[name] = fmt.Sprintf("The %s field is required.", name)
		}
	}
	if len(in.Items) == 0 {
		fields["items"] = "The items field is required."
	}
	if in.ShippingCost.IsNegative() {
		fields["shipping_cost"] = "The shipping_cost field must be at least 0."
	}
	if in.Discount.IsNegative() {
		fields["discount"] = "The discount field must be at least 0."
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// resolve loads every requested product in one query and checks each line
// against it. Lines with a non-positive quantity or product id are dropped;
// a missing product or short stock fails the whole cart.
func (s *OrderService) resolve(ctx context.Context, items []CartItem) ([]pricedLine, error) {
	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 || it.ProductID <= 0 {
			continue
		}
		id := uint(it.ProductID)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	products, err := s.products.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]pricedLine, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 || it.ProductID <= 0 {
			continue
		}
		p, ok := products[uint(it.ProductID)]
		if !ok {
			return nil, apperr.BadRequest("Product %d not found", it.ProductID)
		}
		if p.Tracked() && it.Quantity > *p.Stock {
			return nil, apperr.BadRequest("Insufficient stock for %s", p.NameEn)
		}
		lines = append(lines, pricedLine{
			product:  p,
			quantity: it.Quantity,
			total:    p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2),
		})
	}
	if len(lines) == 0 {
		return nil, apperr.BadRequest("Order must contain at least one valid item")
	}
	return lines, nil
}

// persist writes the order and reserves stock in one transaction. It returns
// the reservations that left a product at or below its low-stock threshold.
func (s *OrderService) persist(ctx context.Context, order *models.Order, lines []pricedLine) ([]repositories.Reservation, error) {
	var low []repositories.Reservation
	items := make([]models.OrderItem, 0, len(lines))

	err := database.InTx(ctx, s.db, func(tx *gorm.DB) error {
		low, items = low[:0], items[:0]
		orders := s.orders.WithTx(tx)
		products := s.products.WithTx(tx)

		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		for _, l := range lines {
			productID := l.product.ID
			item := models.OrderItem{
				OrderID:       order.ID,
				ProductID:     &productID,
				ProductNameAr: l.product.NameAr,
				ProductNameEn: l.product.NameEn,
				ProductImage:  l.product.ImageURL,
				Quantity:      l.quantity,
				Price:         l.product.Price.Round(2),
				Total:         l.total,
			}
			if err := orders.CreateItem(ctx, &item); err != nil {
				return err
			}
			items = append(items, item)

			if !l.product.Tracked() {
				continue
			}
			res, ok, err := products.ReserveStock(ctx, productID, l.quantity)
			if err != nil {
				return err
			}
			if !ok {
				metrics.StockConflicts.Inc()
				return apperr.Conflict("Insufficient stock for %s", l.product.NameEn)
			}
			if res.LowOnStock() {
				low = append(low, res)
			}
		}
		return nil
	})
	if err != nil {
		order.ID = 0
		return nil, err
	}
	order.Items = items
	return low, nil
}

// List returns the user's own orders, newest first.
func (s *OrderService) List(ctx context.Context, userID uint, page repositories.Page) ([]models.Order, repositories.Pagination, error) {
	return s.orders.List(ctx, repositories.OrderFilter{UserID: userID}, page)
}

// Get returns one of the user's own orders with its items.
func (s *OrderService) Get(ctx context.Context, userID, id uint) (*models.Order, error) {
	o, err := s.orders.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, notFound(err, "Order not found")
	}
	if err := s.orders.LoadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel cancels the user's own order while it is still pending. Reserved
// stock is not returned.
func (s *OrderService) Cancel(ctx context.Context, userID, id uint, reason string) (*models.Order, error) {
	if _, err := s.orders.FindOwned(ctx, id, userID); err != nil {
		return nil, notFound(err, "Order not found")
	}
	return s.cancel(ctx, id, userID, reason)
}

func (s *OrderService) cancel(ctx context.Context, id, userID uint, reason string) (*models.Order, error) {
	ok, err := s.orders.CancelPending(ctx, id, userID, strings.TrimSpace(reason), s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.BadRequest("Unable to cancel order. Only pending orders can be cancelled.")
	}

	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.OrderStatusChanges.WithLabelValues(models.OrderStatusCancelled).Inc()
	logger.WithCtx(ctx).Info("order cancelled", "order_id", o.ID, "by_user", userID)
	s.feed.Publish(EventOrderCancelled, orderEvent(o))
	return o, nil
}

// AttachPaymentProof links an uploaded file and a payment reference to the
// user's own order while its payment is pending.
func (s *OrderService) AttachPaymentProof(ctx context.Context, userID, orderID, fileID uint, reference string) (*models.Order, error) {
	if _, err := s.orders.FindOwned(ctx, orderID, userID); err != nil {
		return nil, notFound(err, "Order not found")
	}
	if _, err := s.files.FindOwned(ctx, fileID, userID); err != nil {
		return nil, notFound(err, "File not found")
	}
	ok, err := s.orders.AttachPaymentProof(ctx, orderID, userID, fileID, strings.TrimSpace(reference))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.BadRequest("Payment proof can only be attached while payment is pending")
	}
	return s.Get(ctx, userID, orderID)
}

// AdminList pages through all orders.
func (s *OrderService) AdminList(ctx context.Context, f repositories.OrderFilter, page repositories.Page) ([]models.Order, repositories.Pagination, error) {
	return s.orders.List(ctx, f, page)
}

func (s *OrderService) AdminGet(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order not found")
	}
	if err := s.orders.LoadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus sets any known status. Moving to cancelled goes through the
// pending-only guard; a cancelled order cannot move again.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !orderStatuses[status] {
		return nil, apperr.Validation(map[string]string{"status": "The selected status is invalid."})
	}
	if _, err := s.orders.FindByID(ctx, id); err != nil {
		return nil, notFound(err, "Order not found")
	}
	if status == models.OrderStatusCancelled {
		return s.cancel(ctx, id, 0, "")
	}

	ok, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.BadRequest("Cancelled orders cannot change status")
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.OrderStatusChanges.WithLabelValues(status).Inc()
	s.feed.Publish(EventOrderStatusChanged, orderEvent(o))
	return o, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !paymentStatuses[status] {
		return nil, apperr.Validation(map[string]string{"payment_status": "The selected payment_status is invalid."})
	}
	ok, err := s.orders.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.feed.Publish(EventOrderStatusChanged, orderEvent(o))
	return o, nil
}

// AdminCancel cancels any pending order.
func (s *OrderService) AdminCancel(ctx context.Context, id uint, reason string) (*models.Order, error) {
	if _, err := s.orders.FindByID(ctx, id); err != nil {
		return nil, notFound(err, "Order not found")
	}
	return s.cancel(ctx, id, 0, reason)
}

func orderEvent(o *models.Order) map[string]any {
	return map[string]any{
		"id":             o.ID,
		"order_number":   o.OrderNumber,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"total":          o.Total,
		"customer_name":  o.CustomerName,
	}
}
