package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/contactbook/backend/internal/config"
	"github.com/contactbook/backend/internal/logging"
	"github.com/contactbook/backend/internal/repository"
)

var storeFlag string

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the contacts schema",
	SilenceUsage:  true,
	SilenceErrors: true,
	// 引数なしは差分マイグレーション
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), up)
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), up)
	},
}

var freshCmd = &cobra.Command{
	Use:   "fresh",
	Short: "Drop every table, then apply all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *repository.Migrator) error {
			slog.Info("dropping all tables")
			if err := m.DropAll(ctx); err != nil {
				return fmt.Errorf("drop all: %w", err)
			}
			return up(ctx, m)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Apply pending migrations and insert sample contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *repository.Migrator) error {
			if err := up(ctx, m); err != nil {
				return err
			}
			if err := m.Seed(ctx); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			slog.Info("sample contacts inserted")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "store driver: postgres or sqlite (overrides STORE_DRIVER)")
	rootCmd.AddCommand(upCmd, freshCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal("migrate failed", "error", err)
	}
}

func up(ctx context.Context, m *repository.Migrator) error {
	n, err := m.Up(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		slog.Info("all migrations already applied")
	} else {
		slog.Info("migrations completed", "count", n)
	}
	return nil
}

// withMigrator opens the configured store and hands its Migrator to fn.
func withMigrator(ctx context.Context, fn func(context.Context, *repository.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if storeFlag != "" {
		cfg.StoreDriver = storeFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logging.Setup(cfg.LogLevel)

	switch cfg.StoreDriver {
	case config.StoreSQLite:
		db, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer db.Close()
		return fn(ctx, repository.NewSqliteMigrator(db))
	default:
		pool, err := repository.NewPool(ctx, repository.PoolConfig{
			URL:            cfg.DatabaseURL,
			MaxConns:       cfg.DBMaxConns,
			AcquireTimeout: cfg.DBAcquireTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect failed: %w", err)
		}
		defer pool.Close()
		return fn(ctx, repository.NewPgMigrator(pool))
	}
}
