// Package server holds the process wiring shared by the storefront and admin binaries.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"continental/internal/captcha"
	"continental/internal/config"
	"continental/internal/http/handlers"
	applog "continental/internal/log"
	"continental/internal/metrics"
	"continental/internal/ratelimit"
	"continental/internal/repos"
)

const (
	shutdownTimeout = 10 * time.Second
	csrfNamespace   = "continental:csrf:"
)

// Runtime is everything one process opens at startup.
type Runtime struct {
	Name     string
	Cfg      config.Config
	DB       *sqlx.DB
	Redis    *ratelimit.RedisStorage
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Deps     *handlers.Deps

	closers []func() error
}

// Boot loads config, sets up logging and opens the database and optional Redis.
func Boot(ctx context.Context, name string, requireAdmin bool) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(requireAdmin); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rt := &Runtime{Name: name, Cfg: cfg}
	var out io.Writer = os.Stdout
	if cfg.App.LogFile != "" {
		f, err := os.OpenFile(cfg.App.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.App.LogFile, err)
		}
		out = io.MultiWriter(os.Stdout, f)
		rt.closers = append(rt.closers, f.Close)
	}
	applog.Init(applog.Options{Service: name, Level: cfg.App.LogLevel, Output: out})

	db, err := repos.Open(ctx, cfg.DB)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("open database: %w", err), rt.Close())
	}
	rt.DB = db
	rt.closers = append(rt.closers, db.Close)

	if cfg.Redis.URL != "" {
		rs, err := ratelimit.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, multierr.Append(err, rt.Close())
		}
		rt.Redis = rs
		rt.closers = append(rt.closers, rs.Close)
		applog.L().Info().Str("action", "redis.connected").Msg("rate limits and csrf tokens shared via redis")
	}

	rt.Registry = metrics.NewRegistry()
	rt.Metrics = metrics.New(rt.Registry, name)
	verifier := captcha.NewRecaptcha(cfg.Captcha.Secret, cfg.Captcha.VerifyURL, cfg.Captcha.Timeout)
	rt.Deps = handlers.NewDeps(db, cfg, verifier, rt.Metrics)
	return rt, nil
}

// Options builds the app options for this runtime. Redis-backed storage is
// only set when Redis is configured so fiber falls back to memory otherwise.
func (rt *Runtime) Options(views fiber.Views, bodyLimit int) handlers.AppOptions {
	o := handlers.AppOptions{
		Name:          rt.Name,
		Views:         views,
		StaticDir:     rt.Cfg.App.StaticDir,
		BodyLimit:     bodyLimit,
		Metrics:       rt.Metrics,
		Gatherer:      rt.Registry,
		SecureCookies: rt.Cfg.App.IsProd(),
	}
	if rt.Redis != nil {
		o.LimiterStorage = rt.Redis
		o.CSRFStorage = rt.Redis.Namespaced(csrfNamespace)
	}
	return o
}

// Close releases resources in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, rt.closers[i]())
	}
	rt.closers = nil
	return err
}

// Serve listens on port until SIGINT or SIGTERM, then drains in-flight
// requests and closes the runtime.
func Serve(rt *Runtime, app *fiber.App, port string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		applog.L().Info().Str("action", "server.start").Str("port", port).Msg(rt.Name + " listening")
		errCh <- app.Listen(":" + port)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		applog.L().Info().Str("action", "server.shutdown").Msg("draining connections")
		err = app.ShutdownWithTimeout(shutdownTimeout)
	}
	return multierr.Append(err, rt.Close())
}
