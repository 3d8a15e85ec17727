// Package tiles holds the catalog of base map providers a widget can use.
package tiles

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// ErrUnknownProvider is returned by Resolve for keys missing from the catalog.
var ErrUnknownProvider = errors.New("unknown tile provider")

// Kind tells the map script how to mount a layer.
type Kind string

const (
	// Raster layers are mounted with L.tileLayer.
	Raster Kind = "raster"
	// Vector layers are mounted with L.mapboxGL from a style document.
	Vector Kind = "vector"
)

// Provider keys with special handling.
const (
	Default = "osm-carto"
	Custom  = "custom"
)

// Keys are the global credentials and custom layer settings providers need.
type Keys struct {
	Geoapify             string
	Mapbox               string
	Stadia               string
	CustomURL            string
	CustomAttribution    string
	CustomAttributionURL string
}

// Provider is a catalog entry.
type Provider struct {
	Key   string `json:"key" doc:"Provider key" example:"osm-carto"`
	Label string `json:"label" doc:"Display name" example:"OSM Carto (Free)"`
	Group string `json:"group" doc:"Provider family" enum:"openstreetmap,geoapify,stadia,custom"`
	Kind  Kind   `json:"kind" doc:"Layer kind" enum:"raster,vector"`
}

// Layer is a resolved tile layer ready for the map script.
type Layer struct {
	Provider    string `json:"provider" doc:"Provider key"`
	Kind        Kind   `json:"kind" doc:"Layer kind"`
	URL         string `json:"url,omitempty" doc:"Raster tile URL template"`
	StyleURL    string `json:"styleUrl,omitempty" doc:"Vector style document URL"`
	AccessToken string `json:"accessToken,omitempty" doc:"Mapbox GL access token"`
	Attribution string `json:"attribution" doc:"Attribution HTML"`
	MaxZoom     int    `json:"maxZoom,omitempty" doc:"Maximum zoom served by the provider"`
}

const (
	osmURL         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	osmAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`

	geoapifyStyleURL    = "https://maps.geoapify.com/v1/styles/%s/style.json?apiKey=%s"
	geoapifyAttribution = `Powered by <a href="https://www.geoapify.com/" target="_blank">Geoapify</a> | ` +
		`&copy; OpenStreetMap <a href="https://www.openstreetmap.org/copyright" target="_blank">contributors</a>`
	// Leaflet's mapbox-gl plugin refuses an empty token.
	noToken = "no-token"

	stadiaURL         = "https://tiles.stadiamaps.com/tiles/%s/{z}/{x}/{y}{r}.%s"
	stadiaAttribution = `&copy; <a href="https://stadiamaps.com/" target="_blank">Stadia Maps</a> ` +
		`&copy; <a href="https://openmaptiles.org/" target="_blank">OpenMapTiles</a> ` +
		`&copy; <a href="https://www.openstreetmap.org/copyright" target="_blank">OpenStreetMap</a>`
	stamenAttribution = `&copy; <a href="https://stadiamaps.com/" target="_blank">Stadia Maps</a> ` +
		`&copy; <a href="https://stamen.com/" target="_blank">Stamen Design</a> ` +
		`&copy; <a href="https://openmaptiles.org/" target="_blank">OpenMapTiles</a> ` +
		`&copy; <a href="https://www.openstreetmap.org/copyright" target="_blank">OpenStreetMap</a>`
)

type stadiaStyle struct {
	style   string
	ext     string
	maxZoom int
	stamen  bool
}

var catalog = []Provider{
	{Key: Default, Label: "OSM Carto (Free)", Group: "openstreetmap", Kind: Raster},

	{Key: "osm-bright", Label: "OSM Bright", Group: "geoapify", Kind: Vector},
	{Key: "osm-bright-grey", Label: "OSM Bright Grey", Group: "geoapify", Kind: Vector},
	{Key: "osm-bright-smooth", Label: "OSM Bright Smooth", Group: "geoapify", Kind: Vector},
	{Key: "klokantech-basic", Label: "Klokantech Basic", Group: "geoapify", Kind: Vector},
	{Key: "positron", Label: "Positron", Group: "geoapify", Kind: Vector},
	{Key: "positron-blue", Label: "Positron Blue", Group: "geoapify", Kind: Vector},
	{Key: "positron-red", Label: "Positron Red", Group: "geoapify", Kind: Vector},
	{Key: "dark-matter", Label: "Dark Matter", Group: "geoapify", Kind: Vector},
	{Key: "dark-matter-brown", Label: "Dark Matter Brown", Group: "geoapify", Kind: Vector},
	{Key: "dark-matter-dark-grey", Label: "Dark Matter Dark Grey", Group: "geoapify", Kind: Vector},
	{Key: "dark-matter-dark-purple", Label: "Dark Matter Dark Purple", Group: "geoapify", Kind: Vector},
	{Key: "dark-matter-purple-roads", Label: "Dark Matter Purple Roads", Group: "geoapify", Kind: Vector},
	{Key: "dark-matter-yellow-roads", Label: "Dark Matter Yellow Roads", Group: "geoapify", Kind: Vector},

	{Key: "stadia-alidade-smooth", Label: "Stadia Alidade Smooth", Group: "stadia", Kind: Raster},
	{Key: "stadia-alidade-smooth-dark", Label: "Stadia Alidade Smooth Dark", Group: "stadia", Kind: Raster},
	{Key: "stadia-outdoors", Label: "Stadia Outdoors", Group: "stadia", Kind: Raster},
	{Key: "stadia-osm-bright", Label: "Stadia OSM Bright", Group: "stadia", Kind: Raster},
	{Key: "stadia-stamen-toner", Label: "Stamen Toner", Group: "stadia", Kind: Raster},
	{Key: "stadia-stamen-terrain", Label: "Stamen Terrain", Group: "stadia", Kind: Raster},
	{Key: "stadia-stamen-watercolor", Label: "Stamen Watercolor", Group: "stadia", Kind: Raster},

	{Key: Custom, Label: "Custom Tile URL", Group: "custom", Kind: Raster},
}

var stadia = map[string]stadiaStyle{
	"stadia-alidade-smooth":      {style: "alidade_smooth", ext: "png", maxZoom: 20},
	"stadia-alidade-smooth-dark": {style: "alidade_smooth_dark", ext: "png", maxZoom: 20},
	"stadia-outdoors":            {style: "outdoors", ext: "png", maxZoom: 20},
	"stadia-osm-bright":          {style: "osm_bright", ext: "png", maxZoom: 20},
	"stadia-stamen-toner":        {style: "stamen_toner", ext: "png", maxZoom: 20, stamen: true},
	"stadia-stamen-terrain":      {style: "stamen_terrain", ext: "png", maxZoom: 18, stamen: true},
	"stadia-stamen-watercolor":   {style: "stamen_watercolor", ext: "jpg", maxZoom: 16, stamen: true},
}

// List returns the catalog in display order.
func List() []Provider {
	out := make([]Provider, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for key.
func Lookup(key string) (Provider, bool) {
	for _, p := range catalog {
		if p.Key == key {
			return p, true
		}
	}
	return Provider{}, false
}

// OSM returns the free OpenStreetMap raster layer.
func OSM() Layer {
	return Layer{
		Provider:    Default,
		Kind:        Raster,
		URL:         osmURL,
		Attribution: osmAttribution,
		MaxZoom:     18,
	}
}

// Resolve builds the layer for a provider key. An empty key selects OSM.
// Unknown keys return ErrUnknownProvider together with the OSM layer so
// callers can log and keep rendering. Missing credentials are not checked.
func Resolve(key string, keys Keys) (Layer, error) {
	if key == "" || key == Default {
		return OSM(), nil
	}

	p, ok := Lookup(key)
	if !ok {
		return OSM(), fmt.Errorf("%w: %q", ErrUnknownProvider, key)
	}

	switch p.Group {
	case "geoapify":
		token := keys.Mapbox
		if token == "" {
			token = noToken
		}
		return Layer{
			Provider:    p.Key,
			Kind:        Vector,
			StyleURL:    fmt.Sprintf(geoapifyStyleURL, p.Key, url.QueryEscape(keys.Geoapify)),
			AccessToken: token,
			Attribution: geoapifyAttribution,
		}, nil

	case "stadia":
		s := stadia[p.Key]
		u := fmt.Sprintf(stadiaURL, s.style, s.ext)
		if keys.Stadia != "" {
			u += "?api_key=" + url.QueryEscape(keys.Stadia)
		}
		attribution := stadiaAttribution
		if s.stamen {
			attribution = stamenAttribution
		}
		return Layer{
			Provider:    p.Key,
			Kind:        Raster,
			URL:         u,
			Attribution: attribution,
			MaxZoom:     s.maxZoom,
		}, nil

	case "custom":
		if strings.TrimSpace(keys.CustomURL) == "" {
			return OSM(), nil
		}
		return Layer{
			Provider:    Custom,
			Kind:        Raster,
			URL:         strings.TrimSpace(keys.CustomURL),
			Attribution: customAttribution(keys),
			MaxZoom:     18,
		}, nil
	}

	return OSM(), nil
}

// customAttribution keeps the OSM credit and appends the configured one,
// linked when a URL is set.
func customAttribution(keys Keys) string {
	if keys.CustomAttribution == "" {
		return osmAttribution
	}
	credit := html.EscapeString(keys.CustomAttribution)
	if keys.CustomAttributionURL != "" {
		credit = fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`,
			html.EscapeString(keys.CustomAttributionURL), credit)
	}
	return osmAttribution + " | " + credit
}
