package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB owns the shared connection pool. It is constructed once at startup and
// injected into every service that needs database access; nothing reaches it
// through globals.
type DB struct {
	sql            *sql.DB
	acquireTimeout time.Duration
}

// Open builds the pool and verifies connectivity. A database that cannot be
// reached at startup is fatal: the caller must stop the process rather than
// serve requests against a broken backend.
func Open(cfg Config) (*DB, error) {
	cfg = cfg.withDefaults()

	sqlDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return New(sqlDB, cfg.AcquireTimeout), nil
}

// New wraps an existing pool. Tests use this with a mocked *sql.DB.
func New(sqlDB *sql.DB, acquireTimeout time.Duration) *DB {
	return &DB{sql: sqlDB, acquireTimeout: acquireTimeout}
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Stats exposes pool counters for health checks and tests.
func (d *DB) Stats() sql.DBStats {
	return d.sql.Stats()
}
