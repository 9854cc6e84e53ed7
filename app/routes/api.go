package routes

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/souq/app/controllers"
	"github.com/shashiranjanraj/souq/pkg/ctx"
	"github.com/shashiranjanraj/souq/pkg/middleware"
	"github.com/shashiranjanraj/souq/pkg/router"
)

// Handlers is everything the route table mounts.
type Handlers struct {
	Health    *controllers.HealthController
	Auth      *controllers.AuthController
	Catalog   *controllers.CatalogController
	Orders    *controllers.OrderController
	Addresses *controllers.AddressController
	Admin     *controllers.AdminController
	Feed      http.Handler
	Tokens    middleware.TokenParser
}

// authAttempts caps login/register/reset calls per client per window.
const (
	authAttempts = 10
	authWindow   = time.Minute
)

func RegisterAPI(r *router.Router, h Handlers) {
	api := r.Group("/api")
	api.Get("/health", "health", ctx.Wrap(h.Health.Check))

	// Catalog
	api.Get("/products", "products.index", ctx.Wrap(h.Catalog.Products))
	api.Get("/products/{id}", "products.show", ctx.Wrap(h.Catalog.Product))
	api.Get("/categories", "categories.index", ctx.Wrap(h.Catalog.Categories))
	api.Get("/settings", "settings.public", ctx.Wrap(h.Catalog.Settings))

	// Auth
	guest := api.Group("/auth", middleware.RateLimit(authAttempts, authWindow))
	guest.Post("/register", "auth.register", ctx.Wrap(h.Auth.Register))
	guest.Post("/login", "auth.login", ctx.Wrap(h.Auth.Login))
	guest.Post("/verify-email", "auth.verify", ctx.Wrap(h.Auth.VerifyEmail))
	guest.Post("/resend-verification", "auth.resend", ctx.Wrap(h.Auth.ResendVerification))
	guest.Post("/forgot-password", "auth.forgot", ctx.Wrap(h.Auth.ForgotPassword))
	guest.Post("/reset-password", "auth.reset", ctx.Wrap(h.Auth.ResetPassword))

	protected := api.Group("", middleware.Auth(h.Tokens))
	protected.Get("/auth/me", "auth.me", ctx.Wrap(h.Auth.Me))
	protected.Put("/auth/profile", "auth.profile", ctx.Wrap(h.Auth.UpdateProfile))
	protected.Put("/auth/password", "auth.password", ctx.Wrap(h.Auth.ChangePassword))

	// Orders
	protected.Post("/orders", "orders.store", ctx.Wrap(h.Orders.Place))
	protected.Get("/orders", "orders.index", ctx.Wrap(h.Orders.Index))
	protected.Get("/orders/{id}", "orders.show", ctx.Wrap(h.Orders.Show))
	protected.Post("/orders/{id}/cancel", "orders.cancel", ctx.Wrap(h.Orders.Cancel))
	protected.Post("/orders/{id}/payment-proof", "orders.payment_proof", ctx.Wrap(h.Orders.PaymentProof))
	protected.Post("/uploads", "uploads.store", ctx.Wrap(h.Orders.Upload))

	// Addresses
	protected.Get("/addresses", "addresses.index", ctx.Wrap(h.Addresses.Index))
	protected.Post("/addresses", "addresses.store", ctx.Wrap(h.Addresses.Store))
	protected.Put("/addresses/{id}", "addresses.update", ctx.Wrap(h.Addresses.Update))
	protected.Delete("/addresses/{id}", "addresses.destroy", ctx.Wrap(h.Addresses.Destroy))

	registerAdmin(api.Group("/admin", middleware.Auth(h.Tokens), middleware.RequireAdmin), h)
}

func registerAdmin(admin *router.Group, h Handlers) {
	a := h.Admin

	admin.Get("/dashboard", "admin.dashboard", ctx.Wrap(a.Dashboard))

	admin.Get("/products", "admin.products.index", ctx.Wrap(a.Products))
	admin.Get("/products/low-stock", "admin.products.low_stock", ctx.Wrap(a.LowStock))
	admin.Post("/products", "admin.products.store", ctx.Wrap(a.CreateProduct))
	admin.Get("/products/{id}", "admin.products.show", ctx.Wrap(a.Product))
	admin.Put("/products/{id}", "admin.products.update", ctx.Wrap(a.UpdateProduct))
	admin.Patch("/products/{id}/stock", "admin.products.stock", ctx.Wrap(a.SetStock))
	admin.Delete("/products/{id}", "admin.products.destroy", ctx.Wrap(a.DeleteProduct))

	admin.Get("/categories", "admin.categories.index", ctx.Wrap(a.Categories))
	admin.Post("/categories", "admin.categories.store", ctx.Wrap(a.CreateCategory))
	admin.Put("/categories/{id}", "admin.categories.update", ctx.Wrap(a.UpdateCategory))
	admin.Delete("/categories/{id}", "admin.categories.destroy", ctx.Wrap(a.DeleteCategory))

	admin.Get("/orders", "admin.orders.index", ctx.Wrap(a.Orders))
	admin.Handle("/orders/feed", "admin.orders.feed", h.Feed)
	admin.Get("/orders/{id}", "admin.orders.show", ctx.Wrap(a.Order))
	admin.Patch("/orders/{id}/status", "admin.orders.status", ctx.Wrap(a.UpdateOrderStatus))
	admin.Patch("/orders/{id}/payment-status", "admin.orders.payment_status", ctx.Wrap(a.UpdatePaymentStatus))
	admin.Post("/orders/{id}/cancel", "admin.orders.cancel", ctx.Wrap(a.CancelOrder))

	admin.Get("/customers", "admin.customers.index", ctx.Wrap(a.Customers))
	admin.Get("/customers/{id}", "admin.customers.show", ctx.Wrap(a.Customer))

	admin.Get("/files", "admin.files.index", ctx.Wrap(a.Files))
	admin.Post("/files", "admin.files.store", ctx.Wrap(a.Upload))
	admin.Delete("/files/{id}", "admin.files.destroy", ctx.Wrap(a.DeleteFile))

	admin.Get("/settings", "admin.settings.index", ctx.Wrap(a.Settings))
	admin.Put("/settings", "admin.settings.update", ctx.Wrap(a.SaveSettings))
}
