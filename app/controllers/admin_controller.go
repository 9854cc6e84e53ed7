package controllers

import (
	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

// AdminController backs every /api/admin route. The admin guard runs in
// middleware, so handlers here never look at the caller's role.
type AdminController struct {
	products   *services.ProductService
	categories *services.CategoryService
	orders     *services.OrderService
	customers  *services.CustomerService
	files      *services.FileService
	settings   *services.SettingService
}

type AdminServices struct {
	Products   *services.ProductService
	Categories *services.CategoryService
	Orders     *services.OrderService
	Customers  *services.CustomerService
	Files      *services.FileService
	Settings   *services.SettingService
}

func NewAdminController(s AdminServices) *AdminController {
	return &AdminController{
		products:   s.Products,
		categories: s.Categories,
		orders:     s.Orders,
		customers:  s.Customers,
		files:      s.Files,
		settings:   s.Settings,
	}
}

func (h *AdminController) Dashboard(c *ctx.Context) {
	stats, err := h.customers.Dashboard(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(stats)
}

// ── Products ─────────────────────────────────────────────────────────────────

func (h *AdminController) Products(c *ctx.Context) {
	f := repositories.ProductFilter{
		CategoryID: c.QueryUint("category_id"),
		Query:      c.Query("q"),
		ActiveOnly: c.Query("active") == "1" || c.Query("active") == "true",
	}
	items, pagination, err := h.products.List(c.Context(), f, page(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, pagination)
}

func (h *AdminController) LowStock(c *ctx.Context) {
	items, pagination, err := h.products.LowStock(c.Context(), page(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, pagination)
}

func (h *AdminController) Product(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Product not found")
		return
	}
	p, err := h.products.Get(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (h *AdminController) CreateProduct(c *ctx.Context) {
	var req productRequest
	if !c.BindJSON(&req) {
		return
	}
	p, err := h.products.Create(c.Context(), req.input())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

func (h *AdminController) UpdateProduct(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Product not found")
		return
	}
	var req productRequest
	if !c.BindJSON(&req) {
		return
	}
	p, err := h.products.Update(c.Context(), id, req.input())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (h *AdminController) SetStock(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Product not found")
		return
	}
	var req stockRequest
	if !c.BindJSON(&req) {
		return
	}
	p, err := h.products.SetStock(c.Context(), id, req.Stock)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (h *AdminController) DeleteProduct(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Product not found")
		return
	}
	if err := h.products.Delete(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Product deleted")
}

// ── Categories ───────────────────────────────────────────────────────────────

func (h *AdminController) Categories(c *ctx.Context) {
	list, err := h.categories.List(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (h *AdminController) CreateCategory(c *ctx.Context) {
	var req categoryRequest
	if !c.BindJSON(&req) {
		return
	}
	cat, err := h.categories.Create(c.Context(), req.input())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(cat)
}

func (h *AdminController) UpdateCategory(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Category not found")
		return
	}
	var req categoryRequest
	if !c.BindJSON(&req) {
		return
	}
	cat, err := h.categories.Update(c.Context(), id, req.input())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cat)
}

func (h *AdminController) DeleteCategory(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Category not found")
		return
	}
	if err := h.categories.Delete(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Category deleted")
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (h *AdminController) Orders(c *ctx.Context) {
	f := repositories.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Query:         c.Query("q"),
	}
	orders, pagination, err := h.orders.AdminList(c.Context(), f, page(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(orders, pagination)
}

func (h *AdminController) Order(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Order not found")
		return
	}
	o, err := h.orders.AdminGet(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}

func (h *AdminController) UpdateOrderStatus(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Order not found")
		return
	}
	var req orderStatusRequest
	if !c.BindJSON(&req) {
		return
	}
	o, err := h.orders.UpdateStatus(c.Context(), id, req.Status)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}

func (h *AdminController) UpdatePaymentStatus(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Order not found")
		return
	}
	var req paymentStatusRequest
	if !c.BindJSON(&req) {
		return
	}
	o, err := h.orders.UpdatePaymentStatus(c.Context(), id, req.PaymentStatus)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}

func (h *AdminController) CancelOrder(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Order not found")
		return
	}
	var req cancelOrderRequest
	if !c.BindJSON(&req) {
		return
	}
	o, err := h.orders.AdminCancel(c.Context(), id, req.Reason)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}

// ── Customers ────────────────────────────────────────────────────────────────

func (h *AdminController) Customers(c *ctx.Context) {
	list, pagination, err := h.customers.List(c.Context(), c.Query("q"), page(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(list, pagination)
}

func (h *AdminController) Customer(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Customer not found")
		return
	}
	detail, err := h.customers.Get(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(detail)
}

// ── Files ────────────────────────────────────────────────────────────────────

func (h *AdminController) Files(c *ctx.Context) {
	list, pagination, err := h.files.List(c.Context(), c.Query("purpose"), page(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(list, pagination)
}

func (h *AdminController) Upload(c *ctx.Context) {
	var req adminUploadRequest
	if !c.BindJSON(&req) {
		return
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = models.FilePurposeProductImage
	}
	up, err := h.files.CreateUpload(c.Context(), services.UploadInput{
		UserID:      c.UserID(),
		Purpose:     purpose,
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string]any{"file": up.File, "upload_url": up.Signed.UploadURL, "expires_at": up.Signed.ExpiresAt})
}

func (h *AdminController) DeleteFile(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("File not found")
		return
	}
	if err := h.files.Delete(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("File deleted")
}

// ── Settings ─────────────────────────────────────────────────────────────────

func (h *AdminController) Settings(c *ctx.Context) {
	list, err := h.settings.All(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (h *AdminController) SaveSettings(c *ctx.Context) {
	var req settingsRequest
	if !c.BindJSON(&req) {
		return
	}
	in := make([]services.SettingInput, len(req.Settings))
	for i, s := range req.Settings {
		in[i] = services.SettingInput(s)
	}
	saved, err := h.settings.Save(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(saved)
}
