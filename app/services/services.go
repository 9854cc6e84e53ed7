// Package services holds the storefront's business workflows. Services
// return *apperr.Error for anything the client may see; every other error is
// an infrastructure failure.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/apperr"
)

// Notifier sends best-effort emails. Implementations must not block on
// delivery.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order)
	SendVerification(ctx context.Context, user *models.User, token string)
	SendPasswordReset(ctx context.Context, user *models.User, token string)
}

// Publisher pushes events to the admin live feed.
type Publisher interface {
	Publish(eventType string, data any)
}

// Admin feed event types.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
	EventProductLowStock    = "product.low_stock"
)

// Cache keys shared between readers and the writers that invalidate them.
const (
	CacheKeyCategories     = "catalog:categories"
	CacheKeyPublicSettings = "settings:public"
)

func now() time.Time { return repositories.Now() }

// notFound maps repositories.ErrNotFound to a 404 with msg.
func notFound(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("%s", msg)
	}
	return err
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
