package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/database/dbtest"
)

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeNotifier struct {
	mu    sync.Mutex
	mails []sentMail
}

func (n *fakeNotifier) record(m sentMail) {
	n.mu.Lock()
	n.mails = append(n.mails, m)
	n.mu.Unlock()
}

func (n *fakeNotifier) SendOrderConfirmation(_ context.Context, o *models.Order) {
	n.record(sentMail{kind: "order", to: o.Email, token: o.OrderNumber})
}

func (n *fakeNotifier) SendVerification(_ context.Context, u *models.User, token string) {
	n.record(sentMail{kind: "verify", to: u.Email, token: token})
}

func (n *fakeNotifier) SendPasswordReset(_ context.Context, u *models.User, token string) {
	n.record(sentMail{kind: "reset", to: u.Email, token: token})
}

func (n *fakeNotifier) sent() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.mails...)
}

func (n *fakeNotifier) last(t *testing.T, kind string) sentMail {
	t.Helper()
	mails := n.sent()
	for i := len(mails) - 1; i >= 0; i-- {
		if mails[i].kind == kind {
			return mails[i]
		}
	}
	t.Fatalf("no %s mail sent", kind)
	return sentMail{}
}

type fakeFeed struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeFeed) Publish(eventType string, _ any) {
	f.mu.Lock()
	f.events = append(f.events, eventType)
	f.mu.Unlock()
}

func (f *fakeFeed) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func intPtr(n int) *int { return &n }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock *int) *models.Product {
	t.Helper()
	p := &models.Product{
		NameAr: name + " ar", NameEn: name, Price: money(price),
		Stock: stock, LowStockThreshold: 1, Active: true,
	}
	require.NoError(t, repositories.NewProductRepository(db).Create(context.Background(), p))
	return p
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) auth.Identity {
	t.Helper()
	u := &models.User{Name: "Customer", Email: email, Phone: email, HashedPassword: "x", EmailVerified: true}
	require.NoError(t, repositories.NewUserRepository(db).Create(context.Background(), u))
	return auth.Identity{UserID: u.ID, Email: u.Email}
}

func stockOf(t *testing.T, db *gorm.DB, id uint) *int {
	t.Helper()
	p, err := repositories.NewProductRepository(db).FindByID(context.Background(), id, false)
	require.NoError(t, err)
	return p.Stock
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM "+table).Scan(&n).Error)
	return n
}

func newTestDB(t *testing.T) *gorm.DB { return dbtest.New(t) }
