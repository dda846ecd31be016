package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"continental/internal/domain"
	applog "continental/internal/log"
	"continental/internal/services"
	"continental/internal/validate"
)

type StorefrontHandler struct {
	Catalog *services.CatalogService
	SiteURL string
	// SiteKey is the public captcha key rendered into enquiry forms.
	SiteKey string
}

// catalogFilter reads the shop query string. Malformed prices are ignored.
func catalogFilter(c *fiber.Ctx) domain.CatalogFilter {
	search := strings.TrimSpace(c.Query("search"))
	if r := []rune(search); len(r) > 100 {
		search = string(r[:100])
	}
	return domain.CatalogFilter{
		Search:     search,
		Categories: validate.List(c.Query("category")),
		Materials:  validate.List(c.Query("material")),
		Stock:      validate.List(strings.ToUpper(c.Query("stock"))),
		MinPrice:   validate.Money(c.Query("minPrice")),
		MaxPrice:   validate.Money(c.Query("maxPrice")),
		Sort:       strings.ToLower(strings.TrimSpace(c.Query("sort"))),
		Page:       validate.Page(c.Query("page")),
	}
}

func param(c *fiber.Ctx, key string) string {
	v := c.Params(key)
	if dec, err := url.PathUnescape(v); err == nil {
		v = dec
	}
	return strings.TrimSpace(v)
}

// ---------- pages ----------

// GET /
func (h *StorefrontHandler) Home(c *fiber.Ctx) error {
	home, err := h.Catalog.Home(c.UserContext())
	if err != nil {
		return pageError(c, "home.load.fail", err)
	}
	return render(c, "home", fiber.Map{"Home": home})
}

// GET /shop
func (h *StorefrontHandler) Shop(c *fiber.Ctx) error {
	page, err := h.Catalog.Shop(c.UserContext(), catalogFilter(c))
	if err != nil {
		return pageError(c, "shop.load.fail", err)
	}
	q := c.Request().URI().QueryArgs()
	q.Del("page")
	return render(c, "shop", fiber.Map{
		"Title": "Shop",
		"Shop":  page,
		"Query": string(q.QueryString()),
	})
}

// GET /products/:slug
func (h *StorefrontHandler) Product(c *fiber.Ctx) error {
	slug, ok := validate.Slug(param(c, "slug"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "slug"})
		c.Status(fiber.StatusNotFound)
		return render(c, "notfound", fiber.Map{"Message": "This product is no longer available", "Title": "Not found"})
	}
	page, err := h.Catalog.Product(c.UserContext(), slug)
	if err != nil {
		return pageError(c, "product.load.fail", err)
	}
	return render(c, "product", fiber.Map{
		"Title":      page.Product.Title,
		"Page":       page,
		"ProductURL": strings.TrimRight(h.SiteURL, "/") + "/products/" + page.Product.Slug,
		"SiteKey":    h.SiteKey,
	})
}

// GET /materials
func (h *StorefrontHandler) Materials(c *fiber.Ctx) error {
	mats, err := h.Catalog.Materials(c.UserContext())
	if err != nil {
		return pageError(c, "materials.load.fail", err)
	}
	return render(c, "materials", fiber.Map{"Title": "Materials", "Materials": mats})
}

// GET /materials/:name
func (h *StorefrontHandler) Material(c *fiber.Ctx) error {
	page, err := h.Catalog.MaterialProducts(c.UserContext(), param(c, "name"), validate.Page(c.Query("page")))
	if err != nil {
		return pageError(c, "material.load.fail", err)
	}
	return render(c, "material", fiber.Map{"Title": page.Material.Name, "Page": page})
}

// GET /offers
func (h *StorefrontHandler) Offers(c *fiber.Ctx) error {
	items, err := h.Catalog.Offers(c.UserContext())
	if err != nil {
		return pageError(c, "offers.load.fail", err)
	}
	return render(c, "offers", fiber.Map{"Title": "Offers", "Products": items})
}

// GET /contact-us
func (h *StorefrontHandler) Contact(c *fiber.Ctx) error {
	return render(c, "contact", fiber.Map{"Title": "Contact us", "SiteKey": h.SiteKey})
}

// ---------- JSON ----------

// GET /api/products
func (h *StorefrontHandler) ListJSON(c *fiber.Ctx) error {
	page, err := h.Catalog.Shop(c.UserContext(), catalogFilter(c))
	if err != nil {
		return apiError(c, "api.products.list.fail", err)
	}
	return c.JSON(page)
}

// GET /api/products/:slug
func (h *StorefrontHandler) ProductJSON(c *fiber.Ctx) error {
	page, err := h.Catalog.Product(c.UserContext(), param(c, "slug"))
	if err != nil {
		return apiError(c, "api.product.load.fail", err)
	}
	return c.JSON(page)
}

// GET /api/products/:slug/configure?material=&grade=&size=
func (h *StorefrontHandler) Configure(c *fiber.Ctx) error {
	cfg, err := h.Catalog.Configure(c.UserContext(), param(c, "slug"), c.Query("material"), c.Query("grade"), c.Query("size"))
	if err != nil {
		return apiError(c, "api.product.configure.fail", err)
	}
	return c.JSON(cfg)
}

// GET /api/products/featured
func (h *StorefrontHandler) Featured(c *fiber.Ctx) error {
	items, err := h.Catalog.Featured(c.UserContext())
	if err != nil {
		return apiError(c, "api.featured.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "products": items})
}

// GET /api/offers
func (h *StorefrontHandler) OffersJSON(c *fiber.Ctx) error {
	items, err := h.Catalog.Offers(c.UserContext())
	if err != nil {
		return apiError(c, "api.offers.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "products": items})
}

// GET /api/search-suggestions?q=
func (h *StorefrontHandler) Suggestions(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if r := []rune(q); len(r) > 100 {
		q = string(r[:100])
	}
	out, err := h.Catalog.Suggestions(c.UserContext(), q)
	if err != nil {
		return apiError(c, "api.suggestions.fail", err)
	}
	return c.JSON(fiber.Map{"suggestions": out})
}
