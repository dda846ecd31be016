// Command migrate applies or inspects the schema: migrate [up|down|status|version].
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"

	"continental/internal/config"
	applog "continental/internal/log"
	"continental/internal/repos"
)

func run(command string) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(false); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	applog.Init(applog.Options{Service: "migrate", Level: cfg.App.LogLevel, Format: "console"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := repos.Connect(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	if err := repos.Migrate(ctx, db, command); err != nil {
		return err
	}
	applog.L().Info().Str("action", "migrate."+command).Str("driver", cfg.DB.Driver).Msg("done")
	return nil
}

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if err := run(command); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
