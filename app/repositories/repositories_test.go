package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/database"
	"github.com/shashiranjanraj/souq/pkg/database/dbtest"
)

func intPtr(n int) *int { return &n }

func createProduct(t *testing.T, db *gorm.DB, name string, stock *int, active bool) *models.Product {
	t.Helper()
	p := &models.Product{
		NameAr: name, NameEn: name,
		Price:             decimal.RequireFromString("10.00"),
		Stock:             stock,
		LowStockThreshold: 2,
		Active:            active,
	}
	require.NoError(t, repositories.NewProductRepository(db).Create(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

func createUser(t *testing.T, db *gorm.DB, email, phone string) *models.User {
	t.Helper()
	u := &models.User{Name: "Sara", Email: email, Phone: phone, HashedPassword: "x"}
	require.NoError(t, repositories.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, repositories.Page{Page: 1, Limit: 20}, repositories.NewPage(0, 0))
	assert.Equal(t, repositories.Page{Page: 3, Limit: 100}, repositories.NewPage(3, 500))

	p := repositories.NewPage(2, 10)
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, 3, p.Paginate(21).TotalPages)
}

func TestReserveStock(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	products := repositories.NewProductRepository(db)

	p := createProduct(t, db, "Dates", intPtr(5), true)

	res, ok, err := products.ReserveStock(ctx, p.ID, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, res.Stock)
	assert.True(t, res.LowOnStock())

	_, ok, err = products.ReserveStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok, "guard must reject a decrement below zero")

	got, err := products.FindByID(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, *got.Stock)
}

func TestReserveStockUntracked(t *testing.T) {
	db := dbtest.New(t)
	p := createProduct(t, db, "Gift card", nil, true)

	_, ok, err := repositories.NewProductRepository(db).ReserveStock(context.Background(), p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindActiveByIDsSkipsInactive(t *testing.T) {
	db := dbtest.New(t)
	a := createProduct(t, db, "Active", nil, true)
	b := createProduct(t, db, "Hidden", nil, false)

	found, err := repositories.NewProductRepository(db).FindActiveByIDs(context.Background(), []uint{a.ID, b.ID, 999})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Contains(t, found, a.ID)
	assert.True(t, found[a.ID].Price.Equal(decimal.RequireFromString("10")))
}

func TestProductListFilters(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	createProduct(t, db, "Arabic Coffee", intPtr(1), true)
	createProduct(t, db, "Green Tea", intPtr(50), true)
	createProduct(t, db, "Coffee Beans", nil, false)

	products := repositories.NewProductRepository(db)

	items, page, err := products.List(ctx, repositories.ProductFilter{Query: "coffee", ActiveOnly: true}, repositories.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Arabic Coffee", items[0].NameEn)
	assert.EqualValues(t, 1, page.Total)

	items, _, err = products.List(ctx, repositories.ProductFilter{Query: "COFFEE"}, repositories.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, _, err = products.List(ctx, repositories.ProductFilter{LowStock: true}, repositories.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Arabic Coffee", items[0].NameEn)

	n, err := products.CountLowStock(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func newOrder(userID uint, number string) *models.Order {
	return &models.Order{
		OrderNumber: number, UserID: userID,
		Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending,
		Subtotal: decimal.RequireFromString("20"), ShippingCost: decimal.Zero, Discount: decimal.Zero,
		Total:        decimal.RequireFromString("20"),
		CustomerName: "Sara", Phone: "0500000000", Address: "King Fahd Rd", City: "Riyadh",
		PaymentMethod: "cod",
	}
}

func TestOrderNumberIsUnique(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := createUser(t, db, "a@example.com", "0500000001")
	orders := repositories.NewOrderRepository(db)

	require.NoError(t, orders.Create(ctx, newOrder(u.ID, "ORD-1")))
	err := orders.Create(ctx, newOrder(u.ID, "ORD-1"))
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestCancelPendingOnlyOnce(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := createUser(t, db, "a@example.com", "0500000001")
	other := createUser(t, db, "b@example.com", "0500000002")
	orders := repositories.NewOrderRepository(db)

	o := newOrder(u.ID, "ORD-2")
	require.NoError(t, orders.Create(ctx, o))

	ok, err := orders.CancelPending(ctx, o.ID, other.ID, "nope", repositories.Now())
	require.NoError(t, err)
	assert.False(t, ok, "another user's order must not be cancelled")

	ok, err = orders.CancelPending(ctx, o.ID, u.ID, "changed my mind", repositories.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = orders.CancelPending(ctx, o.ID, u.ID, "again", repositories.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := orders.FindOwned(ctx, o.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, "changed my mind", got.CancellationReason)
	assert.NotNil(t, got.CancelledAt)

	ok, err = orders.UpdateStatus(ctx, o.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.False(t, ok, "cancelled orders are terminal")
}

func TestOrderItemsAndDetach(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := createUser(t, db, "a@example.com", "0500000001")
	p := createProduct(t, db, "Dates", intPtr(5), true)
	orders := repositories.NewOrderRepository(db)

	o := newOrder(u.ID, "ORD-3")
	require.NoError(t, orders.Create(ctx, o))
	require.NoError(t, orders.CreateItem(ctx, &models.OrderItem{
		OrderID: o.ID, ProductID: &p.ID, ProductNameAr: "تمر", ProductNameEn: "Dates",
		Quantity: 2, Price: decimal.RequireFromString("10"), Total: decimal.RequireFromString("20"),
	}))

	require.NoError(t, database.InTx(ctx, db, func(tx *gorm.DB) error {
		if err := orders.WithTx(tx).DetachProduct(ctx, p.ID); err != nil {
			return err
		}
		return repositories.NewProductRepository(db).WithTx(tx).Delete(ctx, p.ID)
	}))

	require.NoError(t, orders.LoadItems(ctx, o))
	require.Len(t, o.Items, 1)
	assert.Nil(t, o.Items[0].ProductID)
	assert.Equal(t, "Dates", o.Items[0].ProductNameEn)
	assert.Equal(t, "20", o.Items[0].Total.StringFixed(0))
}

func TestOrderStatsAndCustomers(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := createUser(t, db, "a@example.com", "0500000001")
	orders := repositories.NewOrderRepository(db)

	a, b := newOrder(u.ID, "ORD-A"), newOrder(u.ID, "ORD-B")
	require.NoError(t, orders.Create(ctx, a))
	require.NoError(t, orders.Create(ctx, b))
	_, err := orders.CancelPending(ctx, b.ID, 0, "", repositories.Now())
	require.NoError(t, err)

	stats, err := orders.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Orders)
	assert.EqualValues(t, 1, stats.Pending)
	assert.Equal(t, "20.00", stats.Revenue.StringFixed(2))

	customers, page, err := repositories.NewUserRepository(db).ListCustomers(ctx, "sara", repositories.NewPage(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, customers, 1)
	assert.EqualValues(t, 2, customers[0].OrderCount)
	assert.Equal(t, "20.00", customers[0].TotalSpent.StringFixed(2))
}

func TestEmailTokenSingleUse(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := repositories.NewUserRepository(db)
	u := createUser(t, db, "a@example.com", "0500000001")

	now := repositories.Now()
	ok, err := users.SetEmailToken(ctx, u.ID, "tok", now.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = users.ConsumeEmailToken(ctx, "tok", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "expired token")

	ok, err = users.ConsumeEmailToken(ctx, "tok", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.ConsumeEmailToken(ctx, "tok", now)
	require.NoError(t, err)
	assert.False(t, ok, "token already used")

	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Nil(t, got.EmailToken)
}

func TestAddressDefault(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	u := createUser(t, db, "a@example.com", "0500000001")
	addresses := repositories.NewAddressRepository(db)

	first := &models.Address{UserID: u.ID, FullName: "Sara", Phone: "1", Address: "x", City: "Jeddah", IsDefault: true}
	second := &models.Address{UserID: u.ID, FullName: "Sara", Phone: "1", Address: "y", City: "Riyadh", IsDefault: true}
	require.NoError(t, addresses.Create(ctx, first))
	require.NoError(t, addresses.Create(ctx, second))
	require.NoError(t, addresses.ClearDefault(ctx, u.ID, second.ID))

	list, err := addresses.ListForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)

	assert.ErrorIs(t, addresses.Delete(ctx, first.ID, u.ID+1), repositories.ErrNotFound)
}

func TestSettingsUpsert(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	settings := repositories.NewSettingRepository(db)

	require.NoError(t, settings.Upsert(ctx, &models.Setting{Key: "store_name", Value: "Souq", IsPublic: true}))
	require.NoError(t, settings.Upsert(ctx, &models.Setting{Key: "store_name", Value: "Souq KSA", IsPublic: true}))
	require.NoError(t, settings.Upsert(ctx, &models.Setting{Key: "bank_iban", Value: "SA00", IsPublic: false}))

	public, err := settings.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"store_name": "Souq KSA"}, public)

	all, err := settings.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
