package handlers

import (
	"html/template"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"continental/internal/pricing"
)

// CSRFContextKey is where the csrf middleware leaves the current token.
const CSRFContextKey = "csrf"

// NewViews loads the storefront templates with the money helpers registered.
func NewViews(dir string, reload bool) *html.Engine {
	engine := html.New(dir, ".html")
	engine.Reload(reload)
	engine.AddFuncMap(template.FuncMap{
		"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
		"effective": func(q pricing.Quote) string {
			if e := q.Effective(); e.Valid {
				return "$" + e.Decimal.StringFixed(2)
			}
			return ""
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	})
	return engine
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	tok, _ := c.Locals(CSRFContextKey).(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	data["CSRFToken"] = tok
	if _, ok := data["Title"]; !ok {
		data["Title"] = "Continental"
	}
	data["Path"] = c.Path()
	return c.Render(tmpl, data, "layout")
}
