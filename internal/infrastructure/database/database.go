package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database configuration constants.
const (
	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// connMaxIdleTime is how long idle connections are kept open.
	connMaxIdleTime = 30 * time.Minute
)

// DB wraps a sql.DB handle to one monitored SQLite database.
//
// It exposes the probe surface the monitoring loops consume: Connected
// reports whether a handle is currently attached, and Ping performs one
// liveness round trip. The handle is opened read-only; a monitor must never
// mutate the database it observes.
type DB struct {
	*sql.DB
	path   string
	closed atomic.Bool
}

// Config contains database connection options.
// These map to one entry of the targets section of config.yaml.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// The file must already exist; a monitor never creates its target.
	Path string

	// WALMode declares that the target uses Write-Ahead Logging, so the
	// read-only handle opens with the matching journal mode.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	// Prevents "database is locked" errors while the owner is writing.
	BusyTimeout int
}

// Open creates a read-only connection to the target database.
//
// It performs the following setup:
//  1. Opens the database file in read-only mode (never creates it)
//  2. Configures busy timeout and journal mode pragmas
//  3. Verifies the connection with a ping
//
// Parameters:
//   - cfg: Database connection configuration
//
// Returns:
//   - *DB: Connected database handle
//   - error: If connection or verification fails
func Open(cfg Config) (*DB, error) {
	// Build connection string with pragmas
	// See: https://github.com/mattn/go-sqlite3#connection-string
	connStr := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)

	if cfg.WALMode {
		connStr += "&_journal_mode=WAL"
	}

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection is plenty for a probe; it also keeps the pool from
	// masking a dead file behind a fresh handle.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	db := &DB{
		DB:   sqlDB,
		path: cfg.Path,
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	return db, nil
}

// Close closes the database connection gracefully. After Close the handle
// reports Connected() == false and further pings fail.
//
// Returns:
//   - error: If closing fails
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	db.closed.Store(true)
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Connected reports whether a live handle is attached. It is a cheap local
// check; use Ping for an actual round trip.
func (db *DB) Connected() bool {
	return db.DB != nil && !db.closed.Load()
}

// Ping verifies the database is accessible and functioning.
// It performs a simple query to ensure the connection is alive, which
// exercises the file itself rather than just the pool.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (db *DB) Ping(ctx context.Context) error {
	var result int
	err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Stats returns database connection pool statistics.
// Useful for monitoring and debugging connection issues.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// PoolStats is the subset of sql.DBStats surfaced by the metrics endpoint.
type PoolStats struct {
	OpenConnections int `json:"open_connections"`
	InUse           int `json:"in_use"`
	Idle            int `json:"idle"`
}

// QueryRowContext executes a query that returns at most one row.
// This is a convenience wrapper for single-row queries.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - query: SQL query with ? placeholders
//   - args: Arguments for placeholders
//
// Returns:
//   - *sql.Row: Row to scan results from
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}
