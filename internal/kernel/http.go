// Package kernel assembles the storefront's HTTP handler: global middleware,
// services and the route table.
package kernel

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/controllers"
	"github.com/shashiranjanraj/souq/app/mailers"
	"github.com/shashiranjanraj/souq/app/routes"
	"github.com/shashiranjanraj/souq/app/services"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/pkg/auth"
	"github.com/shashiranjanraj/souq/pkg/cache"
	"github.com/shashiranjanraj/souq/pkg/ctx"
	"github.com/shashiranjanraj/souq/pkg/mail"
	"github.com/shashiranjanraj/souq/pkg/metrics"
	"github.com/shashiranjanraj/souq/pkg/middleware"
	"github.com/shashiranjanraj/souq/pkg/reqid"
	"github.com/shashiranjanraj/souq/pkg/router"
	"github.com/shashiranjanraj/souq/pkg/workerpool"
	"github.com/shashiranjanraj/souq/pkg/ws"
)

// Deps are the long-lived resources the server owns. Cache, Store and Hub
// may be nil.
type Deps struct {
	DB          *gorm.DB
	Cache       *cache.Cache
	Tokens      *auth.Issuer
	Store       services.ObjectStore
	Mail        mail.Mailer
	Pool        *workerpool.Pool
	Hub         *ws.Hub
	MailOptions mailers.Options
	CORS        middleware.CORSOptions
	RateLimit   int
}

// DepsFromConfig fills the config-derived fields; resources are left to the
// caller.
func DepsFromConfig() Deps {
	cors := middleware.DefaultCORSOptions()
	cors.AllowedOrigins = config.CORSOrigins()
	return Deps{
		MailOptions: mailers.OptionsFromConfig(),
		CORS:        cors,
		RateLimit:   config.RateLimit(),
	}
}

type HTTPKernel struct {
	router *router.Router
}

func NewHTTPKernel(d Deps) *HTTPKernel {
	if d.RateLimit <= 0 {
		d.RateLimit = 200
	}
	if len(d.CORS.AllowedOrigins) == 0 {
		d.CORS = middleware.DefaultCORSOptions()
	}

	r := router.New()

	// Outermost first. Metrics sees the full latency, the request id exists
	// before anything logs and Recovery can still log with it.
	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(d.CORS))
	r.Use(middleware.RateLimit(d.RateLimit, time.Minute))

	r.NotFound(ctx.Wrap(func(c *ctx.Context) {
		c.Error(http.StatusNotFound, "Route not found")
	}))
	r.MethodNotAllowed(ctx.Wrap(func(c *ctx.Context) {
		c.Error(http.StatusMethodNotAllowed, "Method not allowed")
	}))

	r.Handle("/metrics", "metrics", metrics.Handler())

	routes.RegisterAPI(r, handlers(d))

	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

// Routes lists every mounted route, for route:list.
func (k *HTTPKernel) Routes() []router.Route { return k.router.Routes() }

func handlers(d Deps) routes.Handlers {
	notify := mailers.New(d.Mail, d.Pool, d.MailOptions)

	var feed services.Publisher
	var feedHandler http.Handler = http.NotFoundHandler()
	if d.Hub != nil {
		feed = d.Hub
		feedHandler = d.Hub
	}

	orders := services.NewOrderService(d.DB, notify, feed)
	files := services.NewFileService(d.DB, d.Store)

	return routes.Handlers{
		Health:    controllers.NewHealthController(d.DB),
		Auth:      controllers.NewAuthController(services.NewAuthService(d.DB, d.Tokens, notify), d.Tokens),
		Catalog:   controllers.NewCatalogController(services.NewCatalogService(d.DB, d.Cache)),
		Orders:    controllers.NewOrderController(orders, files),
		Addresses: controllers.NewAddressController(services.NewAddressService(d.DB)),
		Admin: controllers.NewAdminController(controllers.AdminServices{
			Products:   services.NewProductService(d.DB, feed),
			Categories: services.NewCategoryService(d.DB, d.Cache),
			Orders:     orders,
			Customers:  services.NewCustomerService(d.DB),
			Files:      files,
			Settings:   services.NewSettingService(d.DB, d.Cache),
		}),
		Feed:   feedHandler,
		Tokens: d.Tokens,
	}
}
