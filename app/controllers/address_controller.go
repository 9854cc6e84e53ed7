package controllers

import (
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

type AddressController struct {
	addresses *services.AddressService
}

func NewAddressController(addresses *services.AddressService) *AddressController {
	return &AddressController{addresses: addresses}
}

func (h *AddressController) Index(c *ctx.Context) {
	list, err := h.addresses.List(c.Context(), c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (h *AddressController) Store(c *ctx.Context) {
	var req addressRequest
	if !c.BindJSON(&req) {
		return
	}
	a, err := h.addresses.Create(c.Context(), c.UserID(), req.input())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(a)
}

func (h *AddressController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Address not found")
		return
	}
	var req addressRequest
	if !c.BindJSON(&req) {
		return
	}
	a, err := h.addresses.Update(c.Context(), c.UserID(), id, req.input())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(a)
}

func (h *AddressController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Address not found")
		return
	}
	if err := h.addresses.Delete(c.Context(), c.UserID(), id); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Address deleted")
}
