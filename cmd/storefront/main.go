package main

import (
	"context"
	"os"

	"continental/internal/http/handlers"
	applog "continental/internal/log"
	"continental/internal/server"
)

func main() {
	rt, err := server.Boot(context.Background(), "storefront", false)
	if err != nil {
		applog.L().Fatal().Err(err).Str("action", "server.boot").Msg("storefront failed to start")
	}
	cfg := rt.Cfg

	views := handlers.NewViews(cfg.App.TemplatesDir, !cfg.App.IsProd())
	app := handlers.NewStorefrontApp(rt.Deps, rt.Options(views, cfg.App.BodyLimitBytes))

	if err := server.Serve(rt, app, cfg.App.StorefrontPort); err != nil {
		applog.L().Error().Err(err).Str("action", "server.stop").Msg("storefront stopped with error")
		os.Exit(1)
	}
}
