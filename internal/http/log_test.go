package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"continental/internal/http/handlers"
	applog "continental/internal/log"
)

type logEntry struct {
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Status int            `json:"status"`
	Path   string         `json:"path"`
	ReqID  string         `json:"req_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) (entries []logEntry, raw string) {
	t.Helper()
	var buf lockedBuf
	restore := applog.SetOutput(&buf)
	defer restore()

	fn()

	raw = buf.b.String()
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, raw
}

func find(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func TestAccessLogCarriesRequestID(t *testing.T) {
	h := newHarness(t, nil)
	app := h.storefront(handlers.Limits{})

	entries, _ := captureLogs(t, func() {
		do(t, app, call{method: http.MethodGet, path: "/api/offers"})
	})
	e, ok := find(entries, "http.access")
	if !ok {
		t.Fatal("expected http.access log")
	}
	if e.Kind != "access" || e.Status != http.StatusOK || e.Path != "/api/offers" || e.ReqID == "" {
		t.Fatalf("unexpected access entry %+v", e)
	}
}

func TestSecurityEventsAreLogged(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{})
	tok := csrfToken(t, app, "/api/admin/csrf")

	entries, raw := captureLogs(t, func() {
		do(t, app, call{method: http.MethodGet, path: "/api/admin/categories"})
		do(t, app, call{method: http.MethodPost, path: "/api/admin/login", csrf: tok,
			body: map[string]string{"username": adminUser, "password": "hunter2-wrong"}})
		do(t, app, call{method: http.MethodPost, path: "/api/admin/login",
			body: map[string]string{"username": adminUser, "password": adminPass}})
	})

	for _, action := range []string{"access.denied.admin", "auth.login.fail", "csrf.fail"} {
		e, ok := find(entries, action)
		if !ok {
			t.Fatalf("expected %s log", action)
		}
		if e.Kind != "security" {
			t.Fatalf("%s should be a security event, got %q", action, e.Kind)
		}
	}
	if strings.Contains(raw, "hunter2-wrong") || strings.Contains(raw, adminPass) {
		t.Fatal("password written to logs")
	}
}

func TestAuditOnAdminWrite(t *testing.T) {
	h := newHarness(t, nil)
	app := h.admin(handlers.Limits{})
	hdr := bearer(t, h)

	entries, _ := captureLogs(t, func() {
		do(t, app, call{method: http.MethodPost, path: "/api/admin/categories", header: hdr, body: map[string]string{"name": "Flanges"}})
	})
	e, ok := find(entries, "admin.categories.create")
	if !ok {
		t.Fatal("expected admin.categories.create audit log")
	}
	if e.Kind != "audit" || e.Fields["name"] != "Flanges" {
		t.Fatalf("unexpected audit entry %+v", e)
	}
}
