// Package db opens the DuckDB database that backs the geocode cache.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string
	// InMemory opens a private in-memory database and ignores DataDir.
	InMemory bool
}

// Path returns the database file path for cfg.
func (c Config) Path() string {
	return filepath.Join(c.DataDir, "duckdb", c.DBName+".duckdb")
}

const schema = `
CREATE TABLE IF NOT EXISTS geocode_cache (
    query      VARCHAR PRIMARY KEY,
    lat        DOUBLE NOT NULL,
    lng        DOUBLE NOT NULL,
    provider   VARCHAR NOT NULL,
    created_at TIMESTAMP DEFAULT current_timestamp
);`

// Open opens a DuckDB connection and applies the schema.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := ""
	if !cfg.InMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path()), 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		dsn = cfg.Path()
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Migrate creates the tables the service needs.
func Migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate duckdb: %w", err)
	}
	return nil
}

// Get returns the process-wide DuckDB connection, opening it on first use.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		instance, initErr = Open(context.Background(), cfg)
	})
	return instance, initErr
}

// Close closes the process-wide connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}
