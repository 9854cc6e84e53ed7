package controllers

import (
	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

// OrderController is the customer side of orders and uploads.
type OrderController struct {
	orders *services.OrderService
	files  *services.FileService
}

func NewOrderController(orders *services.OrderService, files *services.FileService) *OrderController {
	return &OrderController{orders: orders, files: files}
}

func (h *OrderController) Place(c *ctx.Context) {
	var req placeOrderRequest
	if !c.BindJSON(&req) {
		return
	}
	identity, _ := c.Identity()
	order, err := h.orders.Place(c.Context(), identity, req.input())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(order)
}

func (h *OrderController) Index(c *ctx.Context) {
	orders, pagination, err := h.orders.List(c.Context(), c.UserID(), page(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(orders, pagination)
}

func (h *OrderController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Order not found")
		return
	}
	order, err := h.orders.Get(c.Context(), c.UserID(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

func (h *OrderController) Cancel(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Order not found")
		return
	}
	var req cancelOrderRequest
	if !c.BindJSON(&req) {
		return
	}
	order, err := h.orders.Cancel(c.Context(), c.UserID(), id, req.Reason)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

func (h *OrderController) PaymentProof(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Order not found")
		return
	}
	var req paymentProofRequest
	if !c.BindJSON(&req) {
		return
	}
	order, err := h.orders.AttachPaymentProof(c.Context(), c.UserID(), id, req.FileID, req.PaymentReference)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

// Upload signs a browser upload owned by the caller.
func (h *OrderController) Upload(c *ctx.Context) {
	var req uploadRequest
	if !c.BindJSON(&req) {
		return
	}
	purpose := req.Purpose
	if purpose == "" {
		purpose = models.FilePurposePaymentProof
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
