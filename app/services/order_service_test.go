package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
)

func checkout(items ...CartItem) PlaceOrderInput {
	return PlaceOrderInput{
		CustomerName:  "Sara Ahmed",
		Phone:         "0501234567",
		Address:       "King Fahd Rd 12",
		City:          "Riyadh",
		PaymentMethod: "cod",
		Items:         items,
	}
}

func assertAppErr(t *testing.T, err error, status int, msg string) {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, status, e.Status)
	if msg != "" {
		assert.Equal(t, msg, e.Message)
	}
}

func TestPlaceOrderComputesTotalsAndReservesStock(t *testing.T) {
	db := newTestDB(t)
	notify, feed := &fakeNotifier{}, &fakeFeed{}
	svc := NewOrderService(db, notify, feed)
	customer := seedCustomer(t, db, "sara@example.com")

	p1 := seedProduct(t, db, "Dates", "10.00", intPtr(10))
	p2 := seedProduct(t, db, "Coffee", "5.00", intPtr(10))

	in := checkout(CartItem{ProductID: int64(p1.ID), Quantity: 2}, CartItem{ProductID: int64(p2.ID), Quantity: 1})
	in.ShippingCost = money("15")

	order, err := svc.Place(context.Background(), customer, in)
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Regexp(t, `^ORD-\d{12}$`, order.OrderNumber)
	assert.Equal(t, "25.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "40.00", order.Total.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "sara@example.com", order.Email)
	require.Len(t, order.Items, 2)

	assert.Equal(t, 8, *stockOf(t, db, p1.ID))
	assert.Equal(t, 9, *stockOf(t, db, p2.ID))

	stored, err := svc.Get(context.Background(), customer.UserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "40.00", stored.Total.StringFixed(2))
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Dates", stored.Items[0].ProductNameEn)
	assert.Equal(t, "20.00", stored.Items[0].Total.StringFixed(2))

	assert.Equal(t, "order", notify.last(t, "order").kind)
	assert.Contains(t, feed.types(), EventOrderCreated)
}

func TestPlaceOrderRoundsLineTotals(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Saffron", "3.335", nil)

	in := checkout(CartItem{ProductID: int64(p.ID), Quantity: 3})
	in.Discount = money("0.50")
	order, err := svc.Place(context.Background(), customer, in)
	require.NoError(t, err)

	sum := order.Items[0].Total
	assert.True(t, sum.Equal(order.Subtotal))
	assert.True(t, order.Subtotal.Add(order.ShippingCost).Sub(order.Discount).Round(2).Equal(order.Total))
}

func TestPlaceOrderSkipsUnusableLines(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", intPtr(5))

	order, err := svc.Place(context.Background(), customer, checkout(
		CartItem{ProductID: int64(p.ID), Quantity: 1},
		CartItem{ProductID: int64(p.ID), Quantity: 0},
		CartItem{ProductID: -4, Quantity: 2},
		CartItem{ProductID: 0, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "10.00", order.Total.StringFixed(2))
}

func TestPlaceOrderOnlyUnusableLines(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")

	_, err := svc.Place(context.Background(), customer, checkout(CartItem{ProductID: 1, Quantity: 0}))
	assertAppErr(t, err, http.StatusBadRequest, "")
	assert.Zero(t, countRows(t, db, "orders"))
}

func TestPlaceOrderMissingProductFailsWholeCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", intPtr(5))

	_, err := svc.Place(context.Background(), customer, checkout(
		CartItem{ProductID: int64(p.ID), Quantity: 1},
		CartItem{ProductID: 999, Quantity: 1},
	))
	assertAppErr(t, err, http.StatusBadRequest, "Product 999 not found")

	assert.Zero(t, countRows(t, db, "orders"))
	assert.Zero(t, countRows(t, db, "order_items"))
	assert.Equal(t, 5, *stockOf(t, db, p.ID))
}

func TestPlaceOrderInactiveProductIsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Hidden", "10.00", nil)
	p.Active = false
	require.NoError(t, repositories.NewProductRepository(db).Update(context.Background(), p))

	_, err := svc.Place(context.Background(), customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
	assertAppErr(t, err, http.StatusBadRequest, fmt.Sprintf("Product %d not found", p.ID))
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", intPtr(2))

	_, err := svc.Place(context.Background(), customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 3}))
	assertAppErr(t, err, http.StatusBadRequest, "Insufficient stock for Dates")
	assert.Equal(t, 2, *stockOf(t, db, p.ID))
}

func TestPlaceOrderUntrackedStockIsNotDecremented(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Gift card", "50.00", nil)

	_, err := svc.Place(context.Background(), customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 100}))
	require.NoError(t, err)
	assert.Nil(t, stockOf(t, db, p.ID))
}

func TestPlaceOrderRejectsNegativeTotal(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", intPtr(5))

	in := checkout(CartItem{ProductID: int64(p.ID), Quantity: 1})
	in.Discount = money("10.01")
	_, err := svc.Place(context.Background(), customer, in)
	assertAppErr(t, err, http.StatusBadRequest, "Order total cannot be negative")
	assert.Equal(t, 5, *stockOf(t, db, p.ID))
}

func TestPlaceOrderRequiresContactFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")

	_, err := svc.Place(context.Background(), customer, PlaceOrderInput{})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, e.Status)
	for _, f := range []string{"customer_name", "phone", "address", "city", "payment_method", "items"} {
		assert.Contains(t, e.Fields, f)
	}
}

// Two lines for the same product each pass validation on their own but
// together exceed stock; the guarded decrement of the second line must roll
// back the whole order.
func TestPlaceOrderLostReservationRollsBack(t *testing.T) {
	db := newTestDB(t)
	feed := &fakeFeed{}
	svc := NewOrderService(db, nil, feed)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", intPtr(3))

	_, err := svc.Place(context.Background(), customer, checkout(
		CartItem{ProductID: int64(p.ID), Quantity: 2},
		CartItem{ProductID: int64(p.ID), Quantity: 2},
	))
	assertAppErr(t, err, http.StatusConflict, "Insufficient stock for Dates")

	assert.Equal(t, 3, *stockOf(t, db, p.ID))
	assert.Zero(t, countRows(t, db, "orders"))
	assert.Zero(t, countRows(t, db, "order_items"))
	assert.Empty(t, feed.types())
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", intPtr(5))

	const buyers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Place(context.Background(), customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			status := apperr.StatusOf(err)
			assert.Contains(t, []int{http.StatusBadRequest, http.StatusConflict}, status, "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, *stockOf(t, db, p.ID))
	assert.EqualValues(t, 5, countRows(t, db, "orders"))
}

func TestPlaceOrderRetriesOnOrderNumberCollision(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", intPtr(5))

	numbers := []string{"ORD-000000010001", "ORD-000000010001", "ORD-000000010002"}
	svc.newNumber = func(time.Time) string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}

	first, err := svc.Place(context.Background(), customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
	require.NoError(t, err)
	second, err := svc.Place(context.Background(), customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, "ORD-000000010001", first.OrderNumber)
	assert.Equal(t, "ORD-000000010002", second.OrderNumber)
	assert.Equal(t, 3, *stockOf(t, db, p.ID), "the failed attempt must not reserve stock")
}

func TestCancelOnlyWhilePending(t *testing.T) {
	db := newTestDB(t)
	feed := &fakeFeed{}
	svc := NewOrderService(db, nil, feed)
	ctx := context.Background()
	customer := seedCustomer(t, db, "sara@example.com")
	stranger := seedCustomer(t, db, "omar@example.com")
	p := seedProduct(t, db, "Dates", "10.00", intPtr(5))

	order, err := svc.Place(ctx, customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 2}))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, stranger.UserID, order.ID, "")
	assertAppErr(t, err, http.StatusNotFound, "Order not found")

	cancelled, err := svc.Cancel(ctx, customer.UserID, order.ID, " changed my mind ")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = svc.Cancel(ctx, customer.UserID, order.ID, "")
	assertAppErr(t, err, http.StatusBadRequest, "")

	assert.Equal(t, 3, *stockOf(t, db, p.ID), "cancellation does not restore stock")
	assert.Contains(t, feed.types(), EventOrderCancelled)
}

func TestCancelAfterProcessingStartedIsRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	ctx := context.Background()
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", nil)

	order, err := svc.Place(ctx, customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, customer.UserID, order.ID, "")
	assertAppErr(t, err, http.StatusBadRequest, "")
	_, err = svc.AdminCancel(ctx, order.ID, "")
	assertAppErr(t, err, http.StatusBadRequest, "")

	got, err := svc.AdminGet(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
}

func TestUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	ctx := context.Background()
	customer := seedCustomer(t, db, "sara@example.com")
	p := seedProduct(t, db, "Dates", "10.00", nil)

	order, err := svc.Place(ctx, customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, "teleported")
	assertAppErr(t, err, http.StatusBadRequest, "Validation failed")

	_, err = svc.UpdateStatus(ctx, 9999, models.OrderStatusShipped)
	assertAppErr(t, err, http.StatusNotFound, "Order not found")

	got, err := svc.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusShipped)
	assertAppErr(t, err, http.StatusBadRequest, "Cancelled orders cannot change status")

	got, err = svc.UpdatePaymentStatus(ctx, order.ID, models.PaymentStatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, got.PaymentStatus)
}

func TestAttachPaymentProof(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	ctx := context.Background()
	customer := seedCustomer(t, db, "sara@example.com")
	stranger := seedCustomer(t, db, "omar@example.com")
	p := seedProduct(t, db, "Dates", "10.00", nil)

	order, err := svc.Place(ctx, customer, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
	require.NoError(t, err)

	files := repositories.NewFileRepository(db)
	own := &models.File{UserID: &customer.UserID, Key: "payment-proofs/a.jpg", URL: "u", Filename: "a.jpg", ContentType: "image/jpeg", Purpose: models.FilePurposePaymentProof}
	other := &models.File{UserID: &stranger.UserID, Key: "payment-proofs/b.jpg", URL: "u", Filename: "b.jpg", ContentType: "image/jpeg", Purpose: models.FilePurposePaymentProof}
	require.NoError(t, files.Create(ctx, own))
	require.NoError(t, files.Create(ctx, other))

	_, err = svc.AttachPaymentProof(ctx, customer.UserID, order.ID, other.ID, "TRX-1")
	assertAppErr(t, err, http.StatusNotFound, "File not found")

	got, err := svc.AttachPaymentProof(ctx, customer.UserID, order.ID, own.ID, "TRX-1")
	require.NoError(t, err)
	require.NotNil(t, got.PaymentProofID)
	assert.Equal(t, own.ID, *got.PaymentProofID)
	assert.Equal(t, "TRX-1", got.PaymentReference)

	_, err = svc.UpdatePaymentStatus(ctx, order.ID, models.PaymentStatusPaid)
	require.NoError(t, err)
	_, err = svc.AttachPaymentProof(ctx, customer.UserID, order.ID, own.ID, "TRX-2")
	assertAppErr(t, err, http.StatusBadRequest, "")
}

func TestListReturnsOnlyOwnOrders(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, nil, nil)
	ctx := context.Background()
	sara := seedCustomer(t, db, "sara@example.com")
	omar := seedCustomer(t, db, "omar@example.com")
	p := seedProduct(t, db, "Dates", "10.00", nil)

	_, err := svc.Place(ctx, sara, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
	require.NoError(t, err)
	_, err = svc.Place(ctx, omar, checkout(CartItem{ProductID: int64(p.ID), Quantity: 1}))
	require.NoError(t, err)

	orders, page, err := svc.List(ctx, sara.UserID, repositories.NewPage(1, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, orders, 1)
	assert.Equal(t, sara.UserID, orders[0].UserID)

	all, _, err := svc.AdminList(ctx, repositories.OrderFilter{}, repositories.NewPage(1, 20))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
