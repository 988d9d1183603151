// Package store provides the sqlite-backed connection the panel store reads
// from. It is deliberately thin: the panel data itself is an external
// collaborator (see internal/panel), so this package only owns connection
// lifecycle, pragma tuning, and schema migration.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// DB wraps a *sql.DB with the pragma tuning and pooling appropriate for a
// read-mostly analytical workload: the panel store is written once by
// ingestion (out of scope for this module) and read many times by the
// pipeline.
type DB struct {
	conn *sql.DB
	path string
	name string
}

// Config controls how a DB is opened.
type Config struct {
	Path string
	Name string // friendly name for logging
}

// New opens (creating if necessary) a sqlite database tuned for concurrent
// read access from the pipeline's worker pool.
func New(cfg Config) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	connStr := buildConnectionString(cfg.Path)

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	// Read-mostly workload: many worker goroutines, few writers.
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{conn: conn, path: cfg.Path, name: cfg.Name}, nil
}

func buildConnectionString(path string) string {
	connStr := path + "?_pragma=journal_mode(WAL)"
	connStr += "&_pragma=synchronous(NORMAL)"
	connStr += "&_pragma=temp_store(MEMORY)"
	connStr += "&_pragma=cache_size(-64000)" // 64MB cache, negative = KB
	connStr += "&_pragma=foreign_keys(1)"
	return connStr
}

// Conn returns the underlying *sql.DB for packages that need to build
// prepared statements directly (internal/panel).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Migrate applies the panel schema if the expected tables don't already
// exist. It is idempotent: re-running it against an already-migrated
// database is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction for %s: %w", db.name, err)
	}

	if _, err := tx.ExecContext(ctx, panelSchema); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply panel schema to %s: %w", db.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit panel schema migration for %s: %w", db.name, err)
	}
	return nil
}

// panelSchema is the logical schema for the four panel-store collaborator
// tables described in the specification's External Interfaces section.
// Ingestion (out of scope) is responsible for populating them; the core
// only ever reads.
const panelSchema = `
CREATE TABLE IF NOT EXISTS price_observations (
	security            TEXT NOT NULL,
	trade_date          TEXT NOT NULL,
	close               REAL,
	pct_change          REAL,
	turnover_rate       REAL,
	total_market_value  REAL,
	price_to_book       REAL,
	trailing_pe         REAL,
	PRIMARY KEY (security, trade_date)
);

CREATE INDEX IF NOT EXISTS idx_price_observations_security
	ON price_observations (security, trade_date);

CREATE TABLE IF NOT EXISTS benchmark_history (
	trade_date TEXT PRIMARY KEY,
	close      REAL
);

CREATE TABLE IF NOT EXISTS industry_map (
	security TEXT PRIMARY KEY,
	industry TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trading_calendar (
	trade_date TEXT PRIMARY KEY,
	is_open    INTEGER NOT NULL DEFAULT 1
);
`
