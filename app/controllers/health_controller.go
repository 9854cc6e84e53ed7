package controllers

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/pkg/ctx"
	"github.com/shashiranjanraj/souq/pkg/database"
)

type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

func (h *HealthController) Check(c *ctx.Context) {
	pingCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(pingCtx, h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, ctx.Envelope{
			Status:  http.StatusServiceUnavailable,
			Message: "Database unavailable",
		})
		return
	}
	c.Success(map[string]string{"status": "ok", "database": "up"})
}
