// Package geocode resolves free text marker locations to coordinates.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/service"
)

var (
	// ErrNoResult is returned when a provider finds nothing for a query.
	ErrNoResult = errors.New("no geocoding result")
	// ErrEmptyQuery is returned for blank queries.
	ErrEmptyQuery = errors.New("empty geocoding query")
)

// Result is a resolved location.
type Result struct {
	Query       string         `json:"query" doc:"Normalized query"`
	Coordinate  geo.Coordinate `json:"coordinate" doc:"Resolved position"`
	DisplayName string         `json:"displayName,omitempty" doc:"Formatted address from the provider"`
	Provider    string         `json:"provider" doc:"Provider that answered"`
	Cached      bool           `json:"cached" doc:"Served from the local cache"`
}

// Geocoder looks up a location.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Result, error)
}

// Normalize collapses whitespace and case so equivalent queries share a
// cache entry.
func Normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// FillMarkers sets Coords on markers that have a location but no usable
// coordinates. Lookup failures are logged and the marker is left as is.
// It returns the number of markers filled.
func FillMarkers(ctx context.Context, g Geocoder, markers []service.Marker, log zerolog.Logger) int {
	if g == nil {
		return 0
	}

	filled := 0
	for i := range markers {
		m := &markers[i]
		if strings.TrimSpace(m.Location) == "" {
			continue
		}
		if _, err := geo.ParseCoordinate(m.Coords); err == nil {
			continue
		}
		if ctx.Err() != nil {
			return filled
		}

		res, err := g.Geocode(ctx, m.Location)
		if err != nil {
			log.Warn().Err(err).Str("marker", m.ID).Str("location", m.Location).Msg("Geocoding failed")
			continue
		}
		m.Coords = res.Coordinate.String()
		filled++
	}
	return filled
}
