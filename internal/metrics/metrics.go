package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one app. A nil *Metrics is a no-op.
type Metrics struct {
	app       string
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	enquiries *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// New registers the collectors on reg under the given app label.
func New(reg prometheus.Registerer, app string) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		app: app,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"app", "method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"app", "method", "route"}),
		enquiries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enquiries_accepted_total",
			Help: "Enquiries stored, by type.",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enquiries_rejected_total",
			Help: "Enquiries refused before storage, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.requests, m.latency, m.enquiries, m.rejected)
	return m
}

// NewRegistry returns a registry carrying the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Middleware records count and latency labelled by the matched route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < fiber.StatusBadRequest {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(m.app, c.Method(), route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(m.app, c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func (m *Metrics) EnquiryAccepted(kind string) {
	if m == nil {
		return
	}
	m.enquiries.WithLabelValues(normalize(kind)).Inc()
}

func (m *Metrics) EnquiryRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(normalize(reason)).Inc()
}

// Handler exposes g in the Prometheus text format.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

func normalize(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
