package controllers

import (
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/pkg/ctx"
)

// CatalogController serves the public storefront reads.
type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

func (h *CatalogController) Products(c *ctx.Context) {
	items, pagination, err := h.catalog.Products(c.Context(), c.QueryUint("category_id"), c.Query("q"), page(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, pagination)
}

func (h *CatalogController) Product(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound("Product not found")
		return
	}
	p, err := h.catalog.Product(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (h *CatalogController) Categories(c *ctx.Context) {
	categories, err := h.catalog.Categories(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(categories)
}

func (h *CatalogController) Settings(c *ctx.Context) {
	settings, err := h.catalog.PublicSettings(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(settings)
}
