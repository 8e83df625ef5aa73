// Command sandbox runs the freightdesk reference backend.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/moby/term"

	"freightdesk/internal/app"
	"freightdesk/internal/config"
	"freightdesk/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, term.IsTerminal(os.Stdout.Fd())))

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
