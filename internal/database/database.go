// Package database persists saved comparisons in SQLite or PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const connectTimeout = 10 * time.Second

// Database is an open comparison store.
type Database struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens, creating if needed, the SQLite store at path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(SQLite(path))
}

// OpenWithConfig connects to the backend cfg names and brings its schema up
// to date.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	if _, ok := dialect.(PostgresDialect); ok {
		dsn = cfg.Postgres.DSN()
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = sqliteDSN(cfg.SQLitePath)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect.DriverName(), err)
	}
	if _, ok := dialect.(PostgresDialect); ok {
		pool := cfg.Postgres.withPoolDefaults()
		db.SetMaxOpenConns(pool.MaxOpenConns)
		db.SetMaxIdleConns(pool.MaxIdleConns)
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	d := &Database{db: db, dialect: dialect}
	if err := d.init(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to %s database: %w", d.dialect.DriverName(), err)
	}
	for _, stmt := range schema(d.dialect) {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

// schema is idempotent; it runs on every open.
func schema(dialect Dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS comparisons (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			monsters INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			snapshot %s NOT NULL
		)`, dialect.BlobType()),
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_comparisons_name ON comparisons(name)`,
		`CREATE INDEX IF NOT EXISTS idx_comparisons_fingerprint ON comparisons(fingerprint)`,
	}
}

func (d *Database) Close() error {
	return d.db.Close()
}

// DB exposes the pool for callers that need raw SQL.
func (d *Database) DB() *sql.DB {
	return d.db
}

func (d *Database) Dialect() Dialect {
	return d.dialect
}
