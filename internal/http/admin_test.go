package handlers_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"continental/internal/auth"
	"continental/internal/http/handlers"
)

// adminSession logs in through the API and returns the session cookie and csrf token.
func adminSession(t *testing.T, app *fiber.App) (*http.Cookie, string) {
	t.Helper()
	tok := csrfToken(t, app, "/api/admin/csrf")
	resp := do(t, app, call{method: http.MethodPost, path: "/api/admin/login", csrf: tok,
		body: map[string]string{"username": adminUser, "password": adminPass}})
	expectStatus(t, resp, http.StatusOK)
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("admin cookie missing after login")
	}
	if !session.HttpOnly {
		t.Fatal("admin cookie must be HttpOnly")
	}
	return &http.Cookie{Name: auth.CookieName, Value: session.Value}, tok
}

func bearer(t *testing.T, h *harness) map[string]string {
	t.Helper()
	tok, _, err := h.deps.AuthSvc.Login(t.Context(), adminUser, adminPass)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestAdminLoginAndMe(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{})

	resp := do(t, app, call{method: http.MethodGet, path: "/api/admin/me"})
	expectStatus(t, resp, http.StatusUnauthorized)

	tok := csrfToken(t, app, "/api/admin/csrf")
	resp = do(t, app, call{method: http.MethodPost, path: "/api/admin/login", csrf: tok,
		body: map[string]string{"username": adminUser, "password": "wrong"}})
	expectStatus(t, resp, http.StatusUnauthorized)
	if cookieValue(resp, auth.CookieName) != "" {
		t.Fatal("failed login must not set a session")
	}

	session, tok := adminSession(t, app)
	resp = do(t, app, call{method: http.MethodGet, path: "/api/admin/me", cookies: []*http.Cookie{session}})
	expectStatus(t, resp, http.StatusOK)
	var me struct {
		Admin struct {
			Username string `json:"username"`
		} `json:"admin"`
	}
	decodeBody(t, resp, &me)
	if me.Admin.Username != adminUser {
		t.Fatalf("unexpected me body %+v", me)
	}

	resp = do(t, app, call{method: http.MethodPost, path: "/api/admin/logout", csrf: tok, cookies: []*http.Cookie{session}})
	expectStatus(t, resp, http.StatusOK)
	expired := false
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName && c.Value == "" {
			expired = true
		}
	}
	if !expired {
		t.Fatal("logout should expire the cookie")
	}
}

func TestAdminRejectsForgedToken(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{})

	resp := do(t, app, call{method: http.MethodGet, path: "/api/admin/categories",
		header: map[string]string{"Authorization": "Bearer not.a.jwt"}})
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestAdminLoginRateLimit(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{Login: 2})
	tok := csrfToken(t, app, "/api/admin/csrf")

	for i := 0; i < 3; i++ {
		resp := do(t, app, call{method: http.MethodPost, path: "/api/admin/login", csrf: tok,
			body: map[string]string{"username": adminUser, "password": "wrong"}})
		if i < 2 && resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, resp.StatusCode)
		}
		if i == 2 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
		}
	}
}

func TestCookieSessionNeedsCSRF(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{})
	session, _ := adminSession(t, app)

	resp := do(t, app, call{method: http.MethodPost, path: "/api/admin/categories", cookies: []*http.Cookie{session},
		body: map[string]string{"name": "Valves"}})
	expectStatus(t, resp, http.StatusForbidden)
}

func TestBearerSkipsCSRF(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{})

	resp := do(t, app, call{method: http.MethodPost, path: "/api/admin/categories", header: bearer(t, h),
		body: map[string]string{"name": "Valves"}})
	expectStatus(t, resp, http.StatusCreated)
}

func TestCategoryCRUD(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{})
	session, tok := adminSession(t, app)
	with := func(c call) call {
		c.csrf = tok
		c.cookies = []*http.Cookie{session}
		return c
	}

	resp := do(t, app, with(call{method: http.MethodPost, path: "/api/admin/categories", body: map[string]string{"name": " Valves "}}))
	expectStatus(t, resp, http.StatusCreated)
	var created struct {
		Category struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"category"`
	}
	decodeBody(t, resp, &created)
	if created.Category.Name != "Valves" {
		t.Fatalf("name not trimmed: %+v", created)
	}
	id := created.Category.ID

	resp = do(t, app, with(call{method: http.MethodPost, path: "/api/admin/categories", body: map[string]string{"name": "Valves"}}))
	expectStatus(t, resp, http.StatusConflict)

	resp = do(t, app, with(call{method: http.MethodPost, path: "/api/admin/categories", body: map[string]string{"name": ""}}))
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, app, with(call{method: http.MethodPut, path: fmt.Sprintf("/api/admin/categories/%d", id), body: map[string]string{"name": "Ball Valves"}}))
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, app, with(call{method: http.MethodPut, path: "/api/admin/categories/abc", body: map[string]string{"name": "X"}}))
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, app, with(call{method: http.MethodGet, path: "/api/admin/categories"}))
	expectStatus(t, resp, http.StatusOK)
	if !strings.Contains(readBody(t, resp), "Ball Valves") {
		t.Fatal("renamed category missing from list")
	}

	resp = do(t, app, with(call{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/categories/%d", id)}))
	expectStatus(t, resp, http.StatusOK)
	resp = do(t, app, with(call{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/categories/%d", id)}))
	expectStatus(t, resp, http.StatusNotFound)
}

func TestProductAdminFlow(t *testing.T) {
	h := newHarness(t, nil)
	catID, matID, _ := h.seedCatalog(t)
	app := h.admin(handlers.Limits{})
	hdr := bearer(t, h)

	resp := do(t, app, call{method: http.MethodPost, path: "/api/admin/products/check-slug", header: hdr,
		body: map[string]any{"slug": "ball-valve"}})
	expectStatus(t, resp, http.StatusOK)
	var slug struct {
		Exists bool `json:"exists"`
	}
	decodeBody(t, resp, &slug)
	if !slug.Exists {
		t.Fatal("seeded slug should exist")
	}

	resp = do(t, app, call{method: http.MethodPost, path: "/api/admin/products", header: hdr, body: map[string]any{
		"title":       "Gate Valve",
		"slug":        "gate-valve",
		"category_id": catID,
		"pricing": []map[string]any{
			{"material_id": matID, "grade": "316L", "size": "", "price": "75.50"},
		},
	}})
	expectStatus(t, resp, http.StatusCreated)
	var created struct {
		ProductID int64 `json:"productId"`
	}
	decodeBody(t, resp, &created)
	if created.ProductID == 0 {
		t.Fatal("product id missing")
	}

	resp = do(t, app, call{method: http.MethodGet, path: fmt.Sprintf("/api/admin/products/%d", created.ProductID), header: hdr})
	expectStatus(t, resp, http.StatusOK)
	var detail struct {
		Product struct {
			Pricing []struct {
				Size string `json:"size"`
			} `json:"pricing"`
		} `json:"product"`
	}
	decodeBody(t, resp, &detail)
	if len(detail.Product.Pricing) != 1 || detail.Product.Pricing[0].Size != "-" {
		t.Fatalf("blank size should become a placeholder: %+v", detail)
	}

	resp = do(t, app, call{method: http.MethodPost, path: "/api/admin/products", header: hdr, body: map[string]any{
		"title": "Dup", "slug": "gate-valve",
	}})
	expectStatus(t, resp, http.StatusConflict)

	resp = do(t, app, call{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/categories/%d", catID), header: hdr})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, app, call{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/products/%d", created.ProductID), header: hdr})
	expectStatus(t, resp, http.StatusOK)
}

func TestHomepageSections(t *testing.T) {
	h := newHarness(t, nil)
	_, _, productID := h.seedCatalog(t)
	app := h.admin(handlers.Limits{})
	hdr := bearer(t, h)

	resp := do(t, app, call{method: http.MethodPost, path: "/api/admin/homepage", header: hdr, body: map[string]any{
		"sectionKey": "FEATURED_SOLUTIONS",
		"itemIds":    []int64{productID, productID},
	}})
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, app, call{method: http.MethodPost, path: "/api/admin/homepage", header: hdr, body: map[string]any{
		"sectionKey": "featured",
		"itemIds":    []int64{productID},
	}})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = do(t, app, call{method: http.MethodGet, path: "/api/admin/homepage", header: hdr})
	expectStatus(t, resp, http.StatusOK)
	var out struct {
		Items []struct {
			SectionKey string `json:"section_key"`
			ItemID     int64  `json:"item_id"`
		} `json:"items"`
	}
	decodeBody(t, resp, &out)
	if len(out.Items) != 1 || out.Items[0].ItemID != productID {
		t.Fatalf("expected one deduplicated item, got %+v", out.Items)
	}
}

func TestEnquiryTriage(t *testing.T) {
	h := newHarness(t, fakeVerifier{score: 0.9})
	store := h.storefront(handlers.Limits{})
	tok := csrfToken(t, store, "/contact-us")
	resp := do(t, store, call{method: http.MethodPost, path: "/api/enquiries", body: productEnquiry(), csrf: tok})
	expectStatus(t, resp, http.StatusOK)

	app := h.admin(handlers.Limits{})
	hdr := bearer(t, h)

	resp = do(t, app, call{method: http.MethodGet, path: "/api/admin/enquiries?status=new", header: hdr})
	expectStatus(t, resp, http.StatusOK)
	var list struct {
		Enquiries []struct {
			ID int64 `json:"id"`
		} `json:"enquiries"`
		Total int `json:"total"`
	}
	decodeBody(t, resp, &list)
	if list.Total != 1 || len(list.Enquiries) != 1 {
		t.Fatalf("expected one enquiry, got %+v", list)
	}
	id := list.Enquiries[0].ID

	resp = do(t, app, call{method: http.MethodPatch, path: fmt.Sprintf("/api/admin/enquiries/%d", id), header: hdr,
		body: map[string]string{"status": "responded", "priority": "HIGH"}})
	expectStatus(t, resp, http.StatusOK)
	var triaged struct {
		Enquiry struct {
			Status   string `json:"status"`
			Priority string `json:"priority"`
		} `json:"enquiry"`
	}
	decodeBody(t, resp, &triaged)
	if triaged.Enquiry.Status != "RESPONDED" || triaged.Enquiry.Priority != "HIGH" {
		t.Fatalf("unexpected triage result %+v", triaged)
	}

	resp = do(t, app, call{method: http.MethodPatch, path: "/api/admin/enquiries/9999", header: hdr,
		body: map[string]string{"status": "CLOSED"}})
	expectStatus(t, resp, http.StatusNotFound)

	resp = do(t, app, call{method: http.MethodGet, path: "/api/admin/enquiries?status=LOST", header: hdr})
	expectStatus(t, resp, http.StatusBadRequest)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func uploadRequest(t *testing.T, name string, data []byte, header map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range header {
		req.Header.Set(k, v)
	}
	return req
}

func TestUploadAndServeMedia(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{})
	hdr := bearer(t, h)

	// a cookie-less request without a bearer token is stopped by the csrf check first
	resp, err := app.Test(uploadRequest(t, "../../evil name.png", pngHeader, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, http.StatusForbidden)

	resp, err = app.Test(uploadRequest(t, "notes.txt", []byte("plain text, not an image"), hdr), -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, http.StatusBadRequest)

	resp, err = app.Test(uploadRequest(t, "../../evil name.png", pngHeader, hdr), -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, http.StatusOK)
	var out struct {
		URL string `json:"url"`
	}
	decodeBody(t, resp, &out)
	if !strings.HasPrefix(out.URL, "/media/uploads/") || !strings.HasSuffix(out.URL, "-evil-name.png") {
		t.Fatalf("unexpected upload url %q", out.URL)
	}

	store := h.storefront(handlers.Limits{})
	resp = do(t, store, call{method: http.MethodGet, path: out.URL})
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, store, call{method: http.MethodGet, path: "/media/..%2f..%2fgo.mod"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("traversal should 404, got %d", resp.StatusCode)
	}
}
