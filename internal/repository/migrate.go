package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrationFS embed.FS

// Dialect names the SQL flavour of a store.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// schemaDB is what Migrator needs from a connection.
type schemaDB interface {
	exec(ctx context.Context, query string, args ...any) error
	queryInt(ctx context.Context, query string, args ...any) (int64, error)
}

type pgSchemaDB struct{ pool *pgxpool.Pool }

func (d pgSchemaDB) exec(ctx context.Context, query string, args ...any) error {
	_, err := d.pool.Exec(ctx, query, args...)
	return err
}

func (d pgSchemaDB) queryInt(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := d.pool.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

type sqlSchemaDB struct{ db *sql.DB }

func (d sqlSchemaDB) exec(ctx context.Context, query string, args ...any) error {
	_, err := d.db.ExecContext(ctx, query, args...)
	return err
}

func (d sqlSchemaDB) queryInt(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// Migrator applies the embedded *.up.sql files in name order and records
// each one in schema_migrations.
type Migrator struct {
	db      schemaDB
	dialect Dialect
	qb      sq.StatementBuilderType
}

// NewPgMigrator returns a Migrator for a PostgreSQL pool.
func NewPgMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{db: pgSchemaDB{pool}, dialect: DialectPostgres, qb: postgresQueries.qb}
}

// NewSqliteMigrator returns a Migrator for a SQLite database.
func NewSqliteMigrator(db *sqlx.DB) *Migrator {
	return &Migrator{db: sqlSchemaDB{db.DB}, dialect: DialectSQLite, qb: sqliteQueries.qb}
}

func (m *Migrator) dir() string {
	return path.Join("migrations", string(m.dialect))
}

// upFiles は .up.sql ファイル名をソート済みで返す
func (m *Migrator) upFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, m.dir())
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *Migrator) ensureSchemaMigrations(ctx context.Context) error {
	return m.db.exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
}

func (m *Migrator) applied(ctx context.Context, name string) (bool, error) {
	query, args, err := m.qb.Select("count(*)").From("schema_migrations").Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return false, err
	}
	n, err := m.db.queryInt(ctx, query, args...)
	return n > 0, err
}

// Up applies every migration not yet recorded and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	files, err := m.upFiles()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, filename := range files {
		name := strings.TrimSuffix(filename, ".up.sql")
		done, err := m.applied(ctx, name)
		if err != nil {
			return count, fmt.Errorf("check migration %s: %w", name, err)
		}
		if done {
			continue
		}
		body, err := migrationFS.ReadFile(path.Join(m.dir(), filename))
		if err != nil {
			return count, fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := m.db.exec(ctx, string(body)); err != nil {
			return count, fmt.Errorf("migration %s: %w", name, err)
		}
		query, args, err := m.qb.Insert("schema_migrations").Columns("name").Values(name).ToSql()
		if err != nil {
			return count, err
		}
		if err := m.db.exec(ctx, query, args...); err != nil {
			return count, fmt.Errorf("record migration %s: %w", name, err)
		}
		count++
		slog.Info("migration completed", "migration", name, "dialect", m.dialect)
	}
	return count, nil
}

// DropAll drops the contacts and schema_migrations tables.
func (m *Migrator) DropAll(ctx context.Context) error {
	body, err := migrationFS.ReadFile(path.Join(m.dir(), "000_drop_all.sql"))
	if err != nil {
		return fmt.Errorf("read 000_drop_all.sql: %w", err)
	}
	return m.db.exec(ctx, string(body))
}

// Seed inserts a handful of sample contacts.
func (m *Migrator) Seed(ctx context.Context) error {
	body, err := migrationFS.ReadFile("migrations/seed.sql")
	if err != nil {
		return fmt.Errorf("read seed.sql: %w", err)
	}
	return m.db.exec(ctx, string(body))
}
