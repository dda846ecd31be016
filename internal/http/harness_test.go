package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"continental/internal/captcha"
	"continental/internal/config"
	"continental/internal/http/handlers"
	"continental/internal/repos"
	"continental/internal/services"
)

const (
	adminUser = "admin"
	adminPass = "correct-horse"
)

type fakeVerifier struct {
	score float64
	err   error
}

func (f fakeVerifier) Verify(ctx context.Context, token, remoteIP string) (captcha.Result, error) {
	if f.err != nil {
		return captcha.Result{}, f.err
	}
	return captcha.Result{Success: true, Score: f.score}, nil
}

type harness struct {
	db   *sqlx.DB
	cfg  config.Config
	deps *handlers.Deps
}

func newHarness(t *testing.T, v captcha.Verifier) *harness {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		App:     config.AppConfig{SiteURL: "http://shop.test"},
		JWT:     config.JWTConfig{Secret: "0123456789abcdef0123", Issuer: "continental-admin", TTL: time.Hour},
		Captcha: config.CaptchaConfig{MinScore: 0.5, SiteKey: "site-key"},
		Media:   config.MediaConfig{Dir: t.TempDir(), PublicPrefix: "/media", MaxUploadMB: 1},
	}
	if _, err := repos.SeedAdmin(context.Background(), db, adminUser, adminPass); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return &harness{db: db, cfg: cfg, deps: handlers.NewDeps(db, cfg, v, nil)}
}

func (h *harness) storefront(limits handlers.Limits) *fiber.App {
	return handlers.NewStorefrontApp(h.deps, handlers.AppOptions{
		Name:      "storefront-test",
		Views:     handlers.NewViews("../../web/templates", false),
		StaticDir: "../../web/static",
		Limits:    limits,
	})
}

func (h *harness) admin(limits handlers.Limits) *fiber.App {
	return handlers.NewAdminApp(h.deps, handlers.AppOptions{Name: "admin-test", Limits: limits})
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v int64) *int64 { return &v }

// seedCatalog adds one discounted valve priced in stainless steel.
func (h *harness) seedCatalog(t *testing.T) (catID, matID, productID int64) {
	t.Helper()
	ctx := context.Background()
	svc := h.deps.Admin.Admin
	cat, err := svc.CreateCategory(ctx, services.CategoryInput{Name: "Valves"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	mat, err := svc.CreateMaterial(ctx, services.MaterialInput{Name: "Stainless Steel", Grades: []string{"304", "316L"}})
	if err != nil {
		t.Fatalf("create material: %v", err)
	}
	id, err := svc.CreateProduct(ctx, services.ProductInput{
		Title: "Ball Valve", Slug: "ball-valve", CategoryID: ptr(cat.ID),
		ShortDescription: "Full bore ball valve",
		IsOffer:          true, DiscountType: "PERCENTAGE", DiscountValue: money("10"),
		Pricing: []services.TierInput{
			{MaterialID: ptr(mat.ID), Grade: "304", Size: "1\"", Price: money("40")},
			{MaterialID: ptr(mat.ID), Grade: "304", Size: "2\"", Price: money("60")},
		},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return cat.ID, mat.ID, id
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// csrfToken makes a safe request and returns the issued token.
func csrfToken(t *testing.T, app *fiber.App, path string) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	tok := cookieValue(resp, "csrf_")
	if tok == "" {
		t.Fatalf("csrf cookie missing on %s", path)
	}
	return tok
}

type call struct {
	method  string
	path    string
	body    any
	csrf    string
	cookies []*http.Cookie
	header  map[string]string
}

func do(t *testing.T, app *fiber.App, c call) *http.Response {
	t.Helper()
	var rdr io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(c.method, c.path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if c.csrf != "" {
		req.Header.Set("X-Csrf-Token", c.csrf)
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: c.csrf})
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", c.method, c.path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d body=%s", want, resp.StatusCode, readBody(t, resp))
	}
}
