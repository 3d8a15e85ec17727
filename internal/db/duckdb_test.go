package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InMemory(t *testing.T) {
	conn, err := Open(context.Background(), Config{InMemory: true})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`INSERT INTO geocode_cache (query, lat, lng, provider) VALUES (?, ?, ?, ?)`,
		"london", 51.5, -0.12, "test")
	require.NoError(t, err)

	var lat, lng float64
	require.NoError(t, conn.QueryRow(`SELECT lat, lng FROM geocode_cache WHERE query = ?`, "london").Scan(&lat, &lng))
	assert.Equal(t, 51.5, lat)
	assert.Equal(t, -0.12, lng)
}

func TestOpen_File(t *testing.T) {
	cfg := Config{DataDir: t.TempDir(), DBName: "osmmap"}

	conn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.FileExists(t, filepath.Join(cfg.DataDir, "duckdb", "osmmap.duckdb"))

	// Reopening keeps the schema idempotent.
	conn, err = Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}
