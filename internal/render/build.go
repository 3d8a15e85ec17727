// Package render turns a stored map configuration into the widget view: the
// valid markers, the computed center, the tile layer and the marker icon.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/icon"
	"github.com/joeblew999/osm-map/internal/service"
	"github.com/joeblew999/osm-map/internal/tiles"
)

// fallbackCenter is used when the configured fallback does not parse.
var fallbackCenter = geo.Coordinate{Lat: 51.5074, Lng: -0.1278}

// Point is a marker placed on the map.
type Point struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Title    string  `json:"title,omitempty"`
	Behavior string  `json:"behavior"`
	Popup    string  `json:"popup,omitempty"`
}

// Coordinate returns the marker position.
func (p Point) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// IconView is the icon the map script applies to every marker. Type is
// "default" when no custom icon could be built.
type IconView struct {
	Type    string               `json:"type"`
	DivIcon *icon.DivIconOptions `json:"divIcon,omitempty"`
	Image   *icon.ImageOptions   `json:"image,omitempty"`
}

// Interaction holds the Leaflet handler toggles.
type Interaction struct {
	Dragging        bool `json:"dragging"`
	ZoomControl     bool `json:"zoomControl"`
	ScrollWheelZoom bool `json:"scrollWheelZoom"`
	DoubleClickZoom bool `json:"doubleClickZoom"`
}

// View is everything the widget template needs.
type View struct {
	ID          string
	Name        string
	Center      geo.Coordinate
	Centered    bool // center computed from markers rather than the fallback
	Zoom        int
	ZoomTablet  int
	ZoomMobile  int
	Markers     []Point
	Skipped     []string
	Bounds      *orb.Bound
	Layer       tiles.Layer
	Icon        IconView
	Interaction Interaction
	Style       template.CSS
	FontAwesome bool
}

// Build resolves cfg against the global settings. Invalid markers, unknown
// providers and unusable icons are logged and skipped; Build never fails.
func Build(cfg service.MapConfig, settings service.Settings, log zerolog.Logger) View {
	cfg = cfg.Normalize()

	v := View{
		ID:   cfg.ID,
		Name: cfg.Name,
		Zoom: cfg.Zoom,
		Interaction: Interaction{
			Dragging:        !cfg.DisablePan,
			ZoomControl:     !cfg.DisableZoomControl,
			ScrollWheelZoom: !cfg.DisableScrollWheel,
			DoubleClickZoom: !cfg.DisableDoubleClick,
		},
		Style: containerStyle(cfg),
	}
	if v.ID == "" {
		v.ID = strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	log = log.With().Str("map", v.ID).Logger()

	v.ZoomTablet = cfg.ZoomTablet
	if v.ZoomTablet == 0 {
		v.ZoomTablet = v.Zoom
	}
	v.ZoomMobile = cfg.ZoomMobile
	if v.ZoomMobile == 0 {
		v.ZoomMobile = v.ZoomTablet
	}

	coords := make([]geo.Coordinate, 0, len(cfg.Markers))
	for _, m := range cfg.Markers {
		if m.Hidden {
			continue
		}
		c, err := geo.ParseCoordinate(m.Coords)
		if err != nil {
			log.Warn().Err(err).Str("marker", m.ID).Msg("Skipping marker")
			v.Skipped = append(v.Skipped, m.ID)
			continue
		}
		coords = append(coords, c)
		v.Markers = append(v.Markers, Point{
			ID:       m.ID,
			Lat:      c.Lat,
			Lng:      c.Lng,
			Title:    m.Title,
			Behavior: m.Behavior,
			Popup:    Popup(m),
		})
	}

	if center, ok := geo.Centroid(coords); ok {
		v.Center = center
		v.Centered = true
	} else {
		if len(coords) > 0 {
			log.Warn().Int("markers", len(coords)).Msg("Markers cancel out, using fallback center")
		}
		v.Center = fallback(settings.FallbackCenter, log)
	}
	if len(coords) > 0 {
		b := geo.Bound(coords)
		v.Bounds = &b
	}

	layer, err := tiles.Resolve(cfg.Tile, settings.TileKeys())
	if err != nil {
		log.Warn().Err(err).Msg("Using default tiles")
	}
	v.Layer = layer

	v.Icon = buildIcon(cfg.Icon, log)
	v.FontAwesome = settings.EnableFontAwesome && v.Icon.Type == service.IconFontAwesome

	return v
}

func fallback(configured string, log zerolog.Logger) geo.Coordinate {
	if configured == "" {
		return fallbackCenter
	}
	c, err := geo.ParseCoordinate(configured)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid fallback center")
		return fallbackCenter
	}
	return c
}

func buildIcon(style service.IconStyle, log zerolog.Logger) IconView {
	switch style.Type {
	case service.IconFontAwesome:
		return FontAwesomeIcon(icon.Compose(style.FontAwesome()))
	case service.IconCustomImage:
		img, ok := icon.Image(style.Image)
		if !ok {
			log.Debug().Msg("Custom icon has no image, using default marker")
			break
		}
		return IconView{Type: service.IconCustomImage, Image: &img}
	}
	return IconView{Type: service.IconDefault}
}

// FontAwesomeIcon places an already composed pin, e.g. one restyled in
// place by the editor.
func FontAwesomeIcon(f *icon.FontAwesome) IconView {
	div := f.DivIcon()
	return IconView{Type: service.IconFontAwesome, DivIcon: &div}
}

var units = map[string]bool{"px": true, "%": true, "vh": true, "vw": true, "em": true, "rem": true}

// containerStyle is built from integers and a closed unit set, so it is safe
// to pass as template.CSS.
func containerStyle(cfg service.MapConfig) template.CSS {
	widthUnit := cfg.WidthUnit
	if !units[widthUnit] {
		widthUnit = service.DefaultWidthUnit
	}
	heightUnit := cfg.HeightUnit
	if !units[heightUnit] {
		heightUnit = service.DefaultHeightUnit
	}

	style := fmt.Sprintf("width:%d%s;height:%d%s", cfg.Width, widthUnit, cfg.Height, heightUnit)
	if cfg.ZIndex != 0 {
		style += fmt.Sprintf(";z-index:%d", cfg.ZIndex)
	}
	return template.CSS(style)
}

// DOMID is the container element ID.
func (v View) DOMID() string {
	return "osm-map-" + v.ID
}

// MarkersJSON is the data-markers attribute value.
func (v View) MarkersJSON() string {
	markers := v.Markers
	if markers == nil {
		markers = []Point{}
	}
	b, _ := json.Marshal(markers)
	return string(b)
}

// BoundsJSON is the data-bounds attribute value, [[south,west],[north,east]],
// or "" without markers.
func (v View) BoundsJSON() string {
	if v.Bounds == nil {
		return ""
	}
	b, _ := json.Marshal([2][2]float64{
		{v.Bounds.Min.Lat(), v.Bounds.Min.Lon()},
		{v.Bounds.Max.Lat(), v.Bounds.Max.Lon()},
	})
	return string(b)
}

// ScriptOptions are the options the inline script cannot read from data
// attributes.
type ScriptOptions struct {
	Interaction Interaction `json:"interaction"`
	Layer       tiles.Layer `json:"layer"`
	Icon        IconView    `json:"icon"`
}

// Script returns the inline script options.
func (v View) Script() ScriptOptions {
	return ScriptOptions{Interaction: v.Interaction, Layer: v.Layer, Icon: v.Icon}
}

// Features exports the rendered markers for GeoJSON.
func (v View) Features() []geo.Feature {
	features := make([]geo.Feature, 0, len(v.Markers))
	for _, p := range v.Markers {
		props := map[string]any{"behavior": p.Behavior}
		if p.Title != "" {
			props["title"] = p.Title
		}
		features = append(features, geo.Feature{ID: p.ID, Coordinate: p.Coordinate(), Properties: props})
	}
	return features
}
