package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"

	"bazaar/internal/config"
	"bazaar/internal/domain"
	"bazaar/internal/gateway"
	"bazaar/internal/idempotency"
	applog "bazaar/internal/log"
	"bazaar/internal/metrics"
	"bazaar/internal/telemetry"
)

// Limits are per client IP. Zero values take the defaults below.
type Limits struct {
	Global   int
	Login    int
	Callback int
	Avail    int
}

type Options struct {
	DB      *sqlx.DB
	Config  config.Config
	Gateway gateway.Gateway
	Idem    idempotency.Store // nil keeps keys in the database
	Metrics *metrics.Metrics  // nil disables /metrics
	Limits  Limits
	// AccessLog enables fiber's per-request access line.
	AccessLog bool
}

func (l Limits) withDefaults() Limits {
	if l.Global == 0 {
		l.Global = 120
	}
	if l.Login == 0 {
		l.Login = 5
	}
	if l.Callback == 0 {
		l.Callback = 30
	}
	if l.Avail == 0 {
		l.Avail = 15
	}
	return l
}

// NewApp builds the fiber app with middleware and every /api/v1 route.
func NewApp(o Options) *fiber.App {
	cfg := o.Config
	lim := o.Limits.withDefaults()
	if o.Idem == nil {
		o.Idem = idempotency.NewSQLStore(o.DB)
	}
	deps := NewDeps(o.DB, cfg, o.Gateway, o.Idem, o.Metrics)

	engine := html.New(cfg.TemplatesDir, ".html")
	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20, // 1 MiB
		// Params and form values end up in span attributes that are
		// exported after the request context is recycled.
		Immutable:    true,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	if o.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: cfg.CORSOrigins != "" && cfg.CORSOrigins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + idempotency.Header,
	}))
	app.Use(o.Metrics.Middleware())
	app.Use(telemetry.Middleware(otel.Tracer("bazaar/http")))
	// Render handler errors here so metrics and spans see the final status.
	app.Use(func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return ErrorHandler(c, err)
		}
		return nil
	})
	app.Use(Authenticate(deps.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        lim.Global,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics" || strings.HasPrefix(p, "/api/v1/payment/callback/")
		},
		LimitReached: rateLimited("rate.global.hit"),
	}))

	// ---------- Ops ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if o.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(o.Metrics.Handler()))
	}

	api := app.Group("/api/v1")
	anyUser := RequireAuth()
	admin := RequireRole(domain.RoleAdmin)
	sellers := RequireRole(domain.RoleSeller, domain.RoleAdmin)
	customer := RequireRole(domain.RoleCustomer)

	// Auth (login throttled)
	authH := deps.AuthHandler
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:          lim.Login,
		Expiration:   10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|login" },
		LimitReached: rateLimited("rate.login.hit"),
	}), authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/me", anyUser, authH.Me)

	// Catalog
	catH := deps.CategoryHandler
	api.Get("/categories", catH.List)
	api.Post("/categories", admin, catH.Create)
	api.Patch("/categories/:id", admin, catH.Rename)
	api.Delete("/categories/:id", admin, catH.Delete)

	prodH := deps.ProductHandler
	api.Get("/products", prodH.List)
	api.Post("/products", sellers, prodH.Create)
	api.Get("/products/:id", prodH.Get)
	api.Patch("/products/:id", sellers, prodH.Update)
	api.Get("/products/:id/availability", limiter.New(limiter.Config{
		Max:          lim.Avail,
		Expiration:   30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|avail" },
		LimitReached: rateLimited("rate.availability.hit"),
	}), deps.InventoryHandler.Check)
	api.Get("/products/:id/reviews", deps.ReviewHandler.List)
	api.Post("/products/:id/reviews", customer, deps.ReviewHandler.Create)

	// Cart, wishlist, addresses
	cartH := deps.CartHandler
	api.Get("/cart", anyUser, cartH.View)
	api.Post("/cart/items", anyUser, cartH.Add)
	api.Patch("/cart/items/:productId", anyUser, cartH.Update)
	api.Delete("/cart/items/:productId", anyUser, cartH.Remove)

	wishH := deps.WishlistHandler
	api.Get("/wishlist", anyUser, wishH.List)
	api.Post("/wishlist/:productId", anyUser, wishH.Save)
	api.Delete("/wishlist/:productId", anyUser, wishH.Unsave)

	addrH := deps.AddressHandler
	api.Get("/addresses", anyUser, addrH.List)
	api.Post("/addresses", anyUser, addrH.Create)
	api.Delete("/addresses/:id", anyUser, addrH.Delete)

	// Orders (static paths before :id)
	ordH := deps.OrderHandler
	api.Post("/orders", anyUser, ordH.Place)
	api.Get("/orders", admin, ordH.All)
	api.Get("/orders/my-orders", anyUser, ordH.Mine)
	api.Get("/orders/seller", sellers, ordH.Seller)
	api.Get("/orders/:id", anyUser, ordH.Get)
	api.Patch("/orders/:id/status", sellers, ordH.UpdateStatus)
	api.Delete("/orders/:id", sellers, ordH.Delete)
	api.Post("/orders/:id/payment", anyUser, ordH.InitPayment)

	// Gateway callbacks: no auth, the shopper's browser is redirected here.
	payH := deps.PaymentHandler
	cb := api.Group("/payment/callback", limiter.New(limiter.Config{
		Max:          lim.Callback,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|callback" },
		LimitReached: rateLimited("rate.callback.hit"),
	}))
	for _, m := range []string{fiber.MethodGet, fiber.MethodPost} {
		cb.Add(m, "/success", payH.Success)
		cb.Add(m, "/fail", payH.Fail)
		cb.Add(m, "/cancel", payH.Cancel)
	}

	// Admin
	api.Get("/admin/orders/export", admin, deps.AdminHandler.ExportOrders)

	app.Use(func(c *fiber.Ctx) error {
		return problem(c, fiber.StatusNotFound, "route not found")
	})
	return app
}

func rateLimited(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		return problem(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
	}
}
