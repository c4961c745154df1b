package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/feecc/internal/config"
	"github.com/example/feecc/internal/ctxutil"
	"github.com/example/feecc/internal/logging"
	"github.com/example/feecc/internal/wire"
)

var (
	configPath string
	actor      string
)

// BindGlobalFlags registers the flags every command shares.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&actor, "actor", "cli", "name recorded as the actor of status changes")
}

// loadConfig reads the config and builds the logger for it.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openApp assembles the application for a one-shot command.
func openApp(ctx context.Context) (*wire.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := wire.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return a, nil
}

// actorContext tags ctx with the --actor flag.
func actorContext(ctx context.Context) context.Context {
	return ctxutil.WithActor(ctx, actor)
}
