package handlers

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"

	"continental/internal/auth"
	applog "continental/internal/log"
	"continental/internal/metrics"
	"continental/internal/ratelimit"
	"continental/internal/storage"
)

// Limits are per-IP request budgets.
type Limits struct {
	Global  int // per minute
	Enquiry int // per 10 minutes
	Login   int // per 10 minutes
}

func (l Limits) withDefaults() Limits {
	if l.Global <= 0 {
		l.Global = 120
	}
	if l.Enquiry <= 0 {
		l.Enquiry = 5
	}
	if l.Login <= 0 {
		l.Login = 5
	}
	return l
}

type AppOptions struct {
	Name      string
	Views     fiber.Views
	StaticDir string
	BodyLimit int
	// LimiterStorage and CSRFStorage share state across instances. Leave nil
	// to keep it in process memory.
	LimiterStorage fiber.Storage
	CSRFStorage    fiber.Storage
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	SecureCookies  bool
	Limits         Limits
}

func isAsset(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/") || p == "/healthz" || p == "/metrics"
}

func newApp(o AppOptions) *fiber.App {
	o.Limits = o.Limits.withDefaults()
	app := fiber.New(fiber.Config{
		AppName:               o.Name,
		Views:                 o.Views,
		BodyLimit:             o.BodyLimit,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(o.Metrics.Middleware())
	app.Use(applog.Access())
	// inside metrics and access logging so panics are still counted and logged
	app.Use(recoverer.New())
	app.Use(helmet.New(helmet.Config{CrossOriginEmbedderPolicy: "unsafe-none"}))
	app.Use(ratelimit.New(ratelimit.Rule{Name: "global", Max: o.Limits.Global, Window: time.Minute, Skip: isAsset}, o.LimiterStorage))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	if o.Gatherer != nil {
		app.Get("/metrics", metrics.Handler(o.Gatherer))
	}
	return app
}

func csrfGuard(o AppOptions, skip func(*fiber.Ctx) bool) fiber.Handler {
	return csrf.New(csrf.Config{
		Next:           skip,
		KeyLookup:      "header:" + csrf.HeaderName,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   o.SecureCookies,
		Expiration:     2 * time.Hour,
		ContextKey:     CSRFContextKey,
		Storage:        o.CSRFStorage,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Security check failed. Please refresh and try again."})
		},
	})
}

// serveMedia maps /media/* onto the upload directory, refusing traversal.
func serveMedia(media *storage.Media) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rel := c.Params("*")
		full, ok := media.Resolve(rel)
		if !ok {
			applog.Security(c, "media.traversal.block", map[string]any{"path": rel})
			return c.SendStatus(fiber.StatusNotFound)
		}
		if st, err := os.Stat(full); err != nil || st.IsDir() {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(full, true)
	}
}

func mountAssets(app *fiber.App, o AppOptions, media *storage.Media) {
	if o.StaticDir != "" {
		app.Static("/static", o.StaticDir)
	}
	if media != nil {
		app.Get(media.PublicPrefix+"/*", serveMedia(media))
	}
}

// NewStorefrontApp builds the public site: pages, catalog JSON and enquiry intake.
func NewStorefrontApp(d *Deps, o AppOptions) *fiber.App {
	app := newApp(o)
	mountAssets(app, o, d.Media)
	app.Use(csrfGuard(o, isAsset))

	s := d.Storefront
	app.Get("/", s.Home)
	app.Get("/shop", s.Shop)
	app.Get("/products/:slug", s.Product)
	app.Get("/materials", s.Materials)
	app.Get("/materials/:name", s.Material)
	app.Get("/offers", s.Offers)
	app.Get("/contact-us", s.Contact)

	api := app.Group("/api")
	api.Get("/products", s.ListJSON)
	api.Get("/products/featured", s.Featured)
	api.Get("/products/:slug", s.ProductJSON)
	api.Get("/products/:slug/configure", s.Configure)
	api.Get("/offers", s.OffersJSON)
	api.Get("/search-suggestions", s.Suggestions)

	enquiryLimit := ratelimit.New(ratelimit.Rule{Name: "enquiry", Max: o.Limits.Enquiry, Window: 10 * time.Minute}, o.LimiterStorage)
	api.Post("/enquiries", enquiryLimit, d.Enquiry.Submit)
	api.Post("/contact", enquiryLimit, d.Enquiry.Contact)

	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		c.Status(fiber.StatusNotFound)
		return render(c, "notfound", fiber.Map{"Message": "Page not found", "Title": "Not found"})
	})
	return app
}

// bearerOnly reports requests that authenticate with a header rather than
// the session cookie. Those carry no ambient credentials, so CSRF does not apply.
func bearerOnly(c *fiber.Ctx) bool {
	return c.Cookies(auth.CookieName) == "" && strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderAuthorization)), "bearer ")
}

// NewAdminApp builds the JSON admin backend.
func NewAdminApp(d *Deps, o AppOptions) *fiber.App {
	o.Views = nil
	app := newApp(o)
	mountAssets(app, o, d.Media)
	app.Use(csrfGuard(o, func(c *fiber.Ctx) bool { return isAsset(c) || bearerOnly(c) }))
	app.Use(Authenticate(d.AuthSvc))

	app.Get("/api/admin/csrf", func(c *fiber.Ctx) error {
		tok, _ := c.Locals(CSRFContextKey).(string)
		return c.JSON(fiber.Map{"csrfToken": tok})
	})
	loginLimit := ratelimit.New(ratelimit.Rule{Name: "login", Max: o.Limits.Login, Window: 10 * time.Minute}, o.LimiterStorage)
	app.Post("/api/admin/login", loginLimit, d.Auth.Login)

	admin := app.Group("/api/admin", RequireAdmin())
	admin.Post("/logout", d.Auth.Logout)
	admin.Get("/me", d.Auth.Me)

	a := d.Admin
	admin.Get("/categories", a.Categories)
	admin.Post("/categories", a.CreateCategory)
	admin.Put("/categories/:id", a.UpdateCategory)
	admin.Delete("/categories/:id", a.DeleteCategory)

	admin.Get("/materials", a.Materials)
	admin.Get("/materials/:id", a.Material)
	admin.Post("/materials", a.CreateMaterial)
	admin.Put("/materials/:id", a.UpdateMaterial)
	admin.Delete("/materials/:id", a.DeleteMaterial)

	admin.Get("/products", a.Products)
	admin.Post("/products/check-slug", a.CheckSlug)
	admin.Get("/products/:id", a.Product)
	admin.Post("/products", a.CreateProduct)
	admin.Put("/products/:id", a.UpdateProduct)
	admin.Delete("/products/:id", a.DeleteProduct)

	admin.Get("/homepage", a.Homepage)
	admin.Post("/homepage", a.ReplaceSection)

	admin.Get("/enquiries", d.Enquiry.List)
	admin.Patch("/enquiries/:id", d.Enquiry.Triage)

	app.Post("/api/upload", RequireAdmin(), a.Upload)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
	return app
}
