// Package service contains the map widget store, global settings and the
// change event bus.
package service

import (
	"strings"

	"github.com/joeblew999/osm-map/internal/icon"
	"github.com/joeblew999/osm-map/internal/tiles"
)

// Defaults applied by Normalize.
const (
	DefaultZoom       = 10
	DefaultWidth      = 100
	DefaultWidthUnit  = "%"
	DefaultHeight     = 200
	DefaultHeightUnit = "px"

	DefaultFallbackCenter = "51.5074,-0.1278"
)

// MapConfig is one map widget instance.
// Huma reads the tags for OpenAPI and validation; humastar reads the
// custom tags (signal, input, sse, card) to build the editor form.
type MapConfig struct {
	ID                 string    `json:"id,omitempty" doc:"Unique map identifier" example:"offices" card:"id"`
	Name               string    `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"Our offices" card:"title"`
	Zoom               int       `json:"zoom,omitempty" minimum:"0" maximum:"20" default:"10" doc:"Zoom level (0 selects 10)" example:"10"`
	ZoomTablet         int       `json:"zoomTablet,omitempty" minimum:"0" maximum:"20" doc:"Zoom below 1024px (0 inherits)" signal:"zoomtablet"`
	ZoomMobile         int       `json:"zoomMobile,omitempty" minimum:"0" maximum:"20" doc:"Zoom below 767px (0 inherits)" signal:"zoommobile"`
	Width              int       `json:"width,omitempty" minimum:"0" default:"100" doc:"Width" example:"100"`
	WidthUnit          string    `json:"widthUnit,omitempty" enum:"px,%" default:"%" doc:"Width unit"`
	Height             int       `json:"height,omitempty" minimum:"0" default:"200" doc:"Height (0 selects 200)" example:"400"`
	HeightUnit         string    `json:"heightUnit,omitempty" enum:"px,vh" default:"px" doc:"Height unit"`
	ZIndex             int       `json:"zIndex,omitempty" doc:"CSS z-index of the container"`
	DisablePan         bool      `json:"disablePan,omitempty" doc:"Disable dragging the map" signal:"nopan"`
	DisableZoomControl bool      `json:"disableZoomControl,omitempty" doc:"Hide the zoom buttons" signal:"nozoomcontrol"`
	DisableScrollWheel bool      `json:"disableScrollWheel,omitempty" doc:"Disable scroll wheel zoom" signal:"noscroll"`
	DisableDoubleClick bool      `json:"disableDoubleClick,omitempty" doc:"Disable double click zoom" signal:"nodblclick"`
	Tile               string    `json:"tile,omitempty" default:"osm-carto" doc:"Tile provider" example:"osm-carto" input:"sse" sse:"/api/v1/editor/tiles/select,tile-select" card:"meta"`
	Icon               IconStyle `json:"icon,omitempty" doc:"Marker icon style"`
	Markers            []Marker  `json:"markers,omitempty" maxItems:"500" doc:"Markers placed on the map"`
}

// Marker is a point of interest on a map.
type Marker struct {
	ID           string `json:"id,omitempty" doc:"Marker identifier"`
	Title        string `json:"title,omitempty" maxLength:"200" doc:"Popup title"`
	Location     string `json:"location,omitempty" doc:"Free text location, geocoded when coords is empty" example:"Times Square, New York"`
	Coords       string `json:"coords,omitempty" doc:"Coordinates as lat,lng" example:"40.7128,-74.0060"`
	Description  string `json:"description,omitempty" doc:"Popup body"`
	ShowButton   bool   `json:"showButton,omitempty" doc:"Show a call to action button"`
	ButtonText   string `json:"buttonText,omitempty" doc:"Button label"`
	ButtonURL    string `json:"buttonUrl,omitempty" format:"uri-reference" doc:"Button link"`
	ButtonTarget string `json:"buttonTarget,omitempty" enum:"_blank,_self" default:"_blank" doc:"Button link target"`
	Hidden       bool   `json:"hidden,omitempty" doc:"Exclude the marker from the map"`
	Behavior     string `json:"behavior,omitempty" enum:"popup,tooltip,static,none" default:"popup" doc:"How the payload is shown"`
}

// Icon variants.
const (
	IconDefault     = "default"
	IconFontAwesome = "fontawesome"
	IconCustomImage = "custom_image"
)

// IconStyle selects and styles the marker icon.
type IconStyle struct {
	Type              string          `json:"type,omitempty" enum:"default,fontawesome,custom_image" default:"default" doc:"Icon variant"`
	Classes           string          `json:"classes,omitempty" doc:"Font Awesome classes" example:"fa fa-map-marker"`
	MarkerColor       string          `json:"markerColor,omitempty" doc:"Pin fill color (CSS)" example:"#368acc"`
	MarkerFillOpacity float64         `json:"markerFillOpacity,omitempty" minimum:"0" maximum:"1" doc:"Pin fill opacity"`
	MarkerStrokeColor string          `json:"markerStrokeColor,omitempty" doc:"Pin stroke color (CSS)"`
	MarkerStrokeWidth float64         `json:"markerStrokeWidth,omitempty" minimum:"0" doc:"Pin stroke width"`
	IconColor         string          `json:"iconColor,omitempty" doc:"Glyph color (CSS)" example:"#ffffff"`
	IconSize          int             `json:"iconSize,omitempty" minimum:"0" maximum:"100" doc:"Glyph size in pixels"`
	IconXOffset       int             `json:"iconXOffset,omitempty" doc:"Glyph horizontal offset in pixels"`
	IconYOffset       int             `json:"iconYOffset,omitempty" doc:"Glyph vertical offset in pixels"`
	Image             icon.ImageStyle `json:"image,omitempty" doc:"Custom image marker"`
}

// Font Awesome variant defaults.
const (
	DefaultIconClasses = "fa fa-circle"
	DefaultMarkerColor = "#368acc"
	DefaultIconColor   = "#ffffff"
	DefaultIconSize    = 12
)

// FontAwesome returns compositor options with the variant defaults filled in.
func (s IconStyle) FontAwesome() icon.Options {
	opts := icon.Options{
		IconClasses:       s.Classes,
		MarkerColor:       s.MarkerColor,
		MarkerFillOpacity: s.MarkerFillOpacity,
		MarkerStrokeColor: s.MarkerStrokeColor,
		MarkerStrokeWidth: s.MarkerStrokeWidth,
		IconColor:         s.IconColor,
		IconSize:          s.IconSize,
		IconXOffset:       s.IconXOffset,
		IconYOffset:       s.IconYOffset,
	}
	if opts.IconClasses == "" {
		opts.IconClasses = DefaultIconClasses
	}
	if opts.MarkerColor == "" {
		opts.MarkerColor = DefaultMarkerColor
	}
	if opts.IconColor == "" {
		opts.IconColor = DefaultIconColor
	}
	if opts.IconSize == 0 {
		opts.IconSize = DefaultIconSize
	}
	return opts
}

// WithFontAwesome stores the style part of composed options. Classes and
// the pin path are left as they are.
func (s IconStyle) WithFontAwesome(o icon.Options) IconStyle {
	s.MarkerColor = o.MarkerColor
	s.MarkerFillOpacity = o.MarkerFillOpacity
	s.MarkerStrokeColor = o.MarkerStrokeColor
	s.MarkerStrokeWidth = o.MarkerStrokeWidth
	s.IconColor = o.IconColor
	s.IconSize = o.IconSize
	s.IconXOffset = o.IconXOffset
	s.IconYOffset = o.IconYOffset
	return s
}

// Settings are the global keys and defaults shared by every map.
type Settings struct {
	GeoapifyKey          string `json:"geoapifyKey,omitempty" mapstructure:"geoapifyKey" doc:"Geoapify API key for vector styles and geocoding"`
	MapboxToken          string `json:"mapboxToken,omitempty" mapstructure:"mapboxToken" doc:"Mapbox GL access token"`
	StadiaKey            string `json:"stadiaKey,omitempty" mapstructure:"stadiaKey" doc:"Stadia Maps API key"`
	CustomTileURL        string `json:"customTileUrl,omitempty" mapstructure:"customTileUrl" doc:"Custom tile URL template" example:"https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"`
	CustomAttribution    string `json:"customAttribution,omitempty" mapstructure:"customAttribution" doc:"Additional attribution for the custom tiles"`
	CustomAttributionURL string `json:"customAttributionUrl,omitempty" mapstructure:"customAttributionUrl" doc:"Link for the custom attribution"`
	EnableFontAwesome    bool   `json:"enableFontAwesome" mapstructure:"enableFontAwesome" doc:"Load the Font Awesome stylesheet with rendered maps"`
	FallbackCenter       string `json:"fallbackCenter,omitempty" mapstructure:"fallbackCenter" doc:"Center used when a map has no valid marker" example:"51.5074,-0.1278"`
}

// TileKeys returns the credentials the tile catalog needs.
func (s Settings) TileKeys() tiles.Keys {
	return tiles.Keys{
		Geoapify:             s.GeoapifyKey,
		Mapbox:               s.MapboxToken,
		Stadia:               s.StadiaKey,
		CustomURL:            s.CustomTileURL,
		CustomAttribution:    s.CustomAttribution,
		CustomAttributionURL: s.CustomAttributionURL,
	}
}

// Normalize fills defaults for zero values so stored and ad hoc configs
// render the same way.
func (c MapConfig) Normalize() MapConfig {
	if c.Zoom == 0 {
		c.Zoom = DefaultZoom
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.WidthUnit == "" {
		c.WidthUnit = DefaultWidthUnit
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.HeightUnit == "" {
		c.HeightUnit = DefaultHeightUnit
	}
	if c.Tile == "" {
		c.Tile = tiles.Default
	}
	if c.Icon.Type == "" {
		c.Icon.Type = IconDefault
	}

	if len(c.Markers) == 0 {
		return c
	}
	markers := make([]Marker, len(c.Markers))
	for i, m := range c.Markers {
		m.Coords = strings.TrimSpace(m.Coords)
		if m.ButtonTarget == "" {
			m.ButtonTarget = "_blank"
		}
		if !validBehavior(m.Behavior) {
			m.Behavior = BehaviorPopup
		}
		markers[i] = m
	}
	c.Markers = markers
	return c
}

// Marker behaviors.
const (
	BehaviorPopup   = "popup"
	BehaviorTooltip = "tooltip"
	BehaviorStatic  = "static"
	BehaviorNone    = "none"
)

func validBehavior(b string) bool {
	switch b {
	case BehaviorPopup, BehaviorTooltip, BehaviorStatic, BehaviorNone:
		return true
	}
	return false
}
