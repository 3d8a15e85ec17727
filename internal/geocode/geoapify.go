package geocode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/osm-map/internal/geo"
)

// DefaultEndpoint is the Geoapify forward geocoding endpoint.
const DefaultEndpoint = "https://api.geoapify.com/v1/geocode/search"

// Geoapify geocodes with the Geoapify search API in GeoJSON format.
type Geoapify struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewGeoapify returns a client for the public endpoint.
func NewGeoapify(apiKey string, timeout time.Duration) *Geoapify {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Geoapify{
		Endpoint: DefaultEndpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Geocode returns the best match for query.
func (g *Geoapify) Geocode(ctx context.Context, query string) (Result, error) {
	norm := Normalize(query)
	if norm == "" {
		return Result{}, ErrEmptyQuery
	}

	u, err := url.Parse(g.Endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("geoapify endpoint: %w", err)
	}
	q := u.Query()
	q.Set("text", norm)
	q.Set("format", "geojson")
	q.Set("limit", "1")
	q.Set("apiKey", g.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("geoapify request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("geoapify: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read geocode response: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return Result{}, fmt.Errorf("decode geocode response: %w", err)
	}

	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		c := geo.FromPoint(p)
		if !c.Valid() {
			continue
		}
		return Result{
			Query:       norm,
			Coordinate:  c,
			DisplayName: f.Properties.MustString("formatted", ""),
			Provider:    "geoapify",
		}, nil
	}
	return Result{}, fmt.Errorf("%w for %q", ErrNoResult, norm)
}
