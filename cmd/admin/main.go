package main

import (
	"context"
	"os"

	"continental/internal/http/handlers"
	applog "continental/internal/log"
	"continental/internal/repos"
	"continental/internal/server"
)

// multipart overhead allowed on top of the largest upload
const uploadSlack = 64 << 10

func main() {
	ctx := context.Background()
	rt, err := server.Boot(ctx, "admin", true)
	if err != nil {
		applog.L().Fatal().Err(err).Str("action", "server.boot").Msg("admin failed to start")
	}
	cfg := rt.Cfg

	if cfg.Admin.Password != "" {
		created, err := repos.SeedAdmin(ctx, rt.DB, cfg.Admin.Username, cfg.Admin.Password)
		if err != nil {
			_ = rt.Close()
			applog.L().Fatal().Err(err).Str("action", "admin.seed").Msg("seeding admin user failed")
		}
		if created {
			applog.L().Info().Str("action", "admin.seed").Str("username", cfg.Admin.Username).Msg("admin user created")
		}
	}

	bodyLimit := max(cfg.App.BodyLimitBytes, cfg.Media.MaxUploadBytes()+uploadSlack)
	app := handlers.NewAdminApp(rt.Deps, rt.Options(nil, bodyLimit))

	if err := server.Serve(rt, app, cfg.App.AdminPort); err != nil {
		applog.L().Error().Err(err).Str("action", "server.stop").Msg("admin stopped with error")
		os.Exit(1)
	}
}
