package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Options configures the process-wide logger.
type Options struct {
	Service string
	Level   string
	Format  string // json | console
	Output  io.Writer
}

var (
	mu   sync.RWMutex
	base = newLogger(Options{})
)

func newLogger(opts Options) zerolog.Logger {
	var out io.Writer = opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	zerolog.TimeFieldFormat = time.RFC3339
	ctx := zerolog.New(out).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger().Level(ParseLevel(opts.Level))
}

// Init replaces the process logger. Safe to call more than once.
func Init(opts Options) {
	if opts.Format == "" {
		opts.Format = os.Getenv("LOG_FORMAT")
	}
	l := newLogger(opts)
	mu.Lock()
	base = l
	mu.Unlock()
}

// SetOutput redirects JSON output and returns a func that restores the previous logger.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	prev := base
	base = newLogger(Options{Output: w, Level: "debug"})
	mu.Unlock()
	return func() {
		mu.Lock()
		base = prev
		mu.Unlock()
	}
}

func ParseLevel(value string) zerolog.Level {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(v); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

// L returns the process logger for code that runs outside a request.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

func write(ev *zerolog.Event, level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	ev = ev.Str("kind", level).Str("action", action)
	if c != nil {
		ev = ev.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
		if uid, ok := c.Locals("admin_id").(int64); ok && uid > 0 {
			ev = ev.Int64("admin_id", uid)
		}
	}
	if err != nil {
		ev = ev.Err(err)
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Send()
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(L().Info(), "info", c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(L().Info(), "audit", c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(L().Warn(), "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(L().Error(), "error", c, action, err, fields)
}

// Access logs one line per request with its latency.
func Access() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app error handler set the final status before we log
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		write(L().Info(), "access", c, "http.access", nil, map[string]any{
			"latency_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}
}
