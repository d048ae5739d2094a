package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/permithub/internal/config"
	"github.com/stwalsh4118/permithub/internal/database"
	"github.com/stwalsh4118/permithub/internal/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "permithub",
		Short:         "Taipei building-permit ingestion hub",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newMatchCmd())
	return cmd
}

// app bundles the shared run environment: config, logger and a migrated
// database pool. Commands that never touch the database (dry-run
// diagnostics) use newLogger directly instead.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.Database
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(cfg.Env)

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) Close() {
	a.db.Close()
}
