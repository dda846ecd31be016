package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	applog "continental/internal/log"
	"continental/internal/metrics"
)

func TestPanicIsCountedAndLogged(t *testing.T) {
	reg := prometheus.NewRegistry()
	app := newApp(AppOptions{Name: "storefront", Metrics: metrics.New(reg, "storefront"), Gatherer: reg})
	app.Get("/api/boom", func(c *fiber.Ctx) error { panic("kaboom") })

	var buf bytes.Buffer
	restore := applog.SetOutput(&buf)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/boom", nil), -1)
	restore()
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var logged bool
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e struct {
			Action string `json:"action"`
			Status int    `json:"status"`
		}
		if json.Unmarshal([]byte(line), &e) == nil && e.Action == "http.access" {
			logged = e.Status == http.StatusInternalServerError
		}
	}
	if !logged {
		t.Fatalf("expected a 500 access line, got:\n%s", buf.String())
	}

	const want = `
# HELP http_requests_total HTTP requests by route and status.
# TYPE http_requests_total counter
http_requests_total{app="storefront",method="GET",route="/api/boom",status="500"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "http_requests_total"); err != nil {
		t.Fatal(err)
	}
}
