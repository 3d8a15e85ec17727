package geocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joeblew999/osm-map/internal/geo"
)

// Cached memoizes a Geocoder in the geocode_cache table. Cache errors are
// logged and never fail a lookup.
type Cached struct {
	DB   *sql.DB
	Next Geocoder
	Log  zerolog.Logger
}

// NewCached wraps next with a DuckDB backed cache.
func NewCached(db *sql.DB, next Geocoder, log zerolog.Logger) *Cached {
	return &Cached{DB: db, Next: next, Log: log}
}

// Geocode serves query from the cache or asks Next and stores the answer.
func (c *Cached) Geocode(ctx context.Context, query string) (Result, error) {
	norm := Normalize(query)
	if norm == "" {
		return Result{}, ErrEmptyQuery
	}

	res, err := c.get(ctx, norm)
	switch {
	case err == nil:
		return res, nil
	case !errors.Is(err, sql.ErrNoRows):
		c.Log.Warn().Err(err).Str("query", norm).Msg("Geocode cache read failed")
	}

	res, err = c.Next.Geocode(ctx, norm)
	if err != nil {
		return Result{}, err
	}
	if err := c.put(ctx, res); err != nil {
		c.Log.Warn().Err(err).Str("query", norm).Msg("Geocode cache write failed")
	}
	return res, nil
}

func (c *Cached) get(ctx context.Context, norm string) (Result, error) {
	if c.DB == nil {
		return Result{}, errors.New("geocode cache: db is nil")
	}

	var lat, lng float64
	var provider string
	err := c.DB.QueryRowContext(ctx,
		`SELECT lat, lng, provider FROM geocode_cache WHERE query = ?`, norm,
	).Scan(&lat, &lng, &provider)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Query:      norm,
		Coordinate: geo.Coordinate{Lat: lat, Lng: lng},
		Provider:   provider,
		Cached:     true,
	}, nil
}

func (c *Cached) put(ctx context.Context, res Result) error {
	if c.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	_, err := c.DB.ExecContext(ctx,
		`INSERT OR REPLACE INTO geocode_cache (query, lat, lng, provider) VALUES (?, ?, ?, ?)`,
		res.Query, res.Coordinate.Lat, res.Coordinate.Lng, res.Provider,
	)
	if err != nil {
		return fmt.Errorf("insert geocode cache query=%q: %w", res.Query, err)
	}
	return nil
}
