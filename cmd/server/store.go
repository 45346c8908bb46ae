package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contactbook/backend/internal/config"
	"github.com/contactbook/backend/internal/repository"
)

// store bundles the selected contact repository with its shutdown hook.
type store struct {
	contacts interface {
		repository.ContactRepository
		repository.DB
	}
	close func()
}

// openStore connects the configured backend. SQLite databases are migrated
// on open; PostgreSQL is migrated with cmd/migrate.
func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		db, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		n, err := repository.NewSqliteMigrator(db).Up(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		slog.Info("sqlite store ready", "path", cfg.SQLitePath, "migrations_applied", n)
		return &store{
			contacts: repository.NewSqliteContactRepository(db),
			close:    func() { db.Close() },
		}, nil
	default:
		pool, err := repository.NewPool(ctx, repository.PoolConfig{
			URL:            cfg.DatabaseURL,
			MaxConns:       cfg.DBMaxConns,
			AcquireTimeout: cfg.DBAcquireTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		slog.Info("postgres store ready", "max_conns", cfg.DBMaxConns)
		return &store{
			contacts: repository.NewPgContactRepository(pool),
			close:    pool.Close,
		}, nil
	}
}
