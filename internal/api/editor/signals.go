// Package editor contains Datastar SSE handlers for the map editor UI.
package editor

import (
	"strings"

	"github.com/joeblew999/osm-map/internal/humastar"
	"github.com/joeblew999/osm-map/internal/icon"
	"github.com/joeblew999/osm-map/internal/service"
)

// Signal prefixes bound by the editor page. The map form is generated from
// the MapConfig schema with MapPrefix; the marker and icon panels are
// hand-written.
const (
	MapPrefix    = "newmap"
	MarkerPrefix = "marker"
	IconPrefix   = "icon"
)

// ParseMapSignals reads a MapConfig from the generated form's signals.
// Datastar data-bind lowercases signal names.
func ParseMapSignals(s humastar.Signals) service.MapConfig {
	p := MapPrefix
	return service.MapConfig{
		Name:               strings.TrimSpace(s.String(p + "name")),
		Zoom:               s.Int(p + "zoom"),
		ZoomTablet:         s.Int(p + "zoomtablet"),
		ZoomMobile:         s.Int(p + "zoommobile"),
		Width:              s.Int(p + "width"),
		WidthUnit:          s.String(p + "widthunit"),
		Height:             s.Int(p + "height"),
		HeightUnit:         s.String(p + "heightunit"),
		ZIndex:             s.Int(p + "zindex"),
		DisablePan:         s.Bool(p + "nopan"),
		DisableZoomControl: s.Bool(p + "nozoomcontrol"),
		DisableScrollWheel: s.Bool(p + "noscroll"),
		DisableDoubleClick: s.Bool(p + "nodblclick"),
		Tile:               s.String(p + "tile"),
	}
}

// ResetMapSignals returns the form signals cleared to their defaults.
func ResetMapSignals() map[string]any {
	p := MapPrefix
	return map[string]any{
		p + "name":          "",
		p + "zoom":          service.DefaultZoom,
		p + "zoomtablet":    0,
		p + "zoommobile":    0,
		p + "width":         service.DefaultWidth,
		p + "widthunit":     service.DefaultWidthUnit,
		p + "height":        service.DefaultHeight,
		p + "heightunit":    service.DefaultHeightUnit,
		p + "zindex":        0,
		p + "nopan":         false,
		p + "nozoomcontrol": false,
		p + "noscroll":      false,
		p + "nodblclick":    false,
	}
}

// ParseMarkerSignals reads the add-marker panel.
func ParseMarkerSignals(s humastar.Signals) service.Marker {
	p := MarkerPrefix
	return service.Marker{
		Title:       strings.TrimSpace(s.String(p + "title")),
		Location:    strings.TrimSpace(s.String(p + "location")),
		Coords:      strings.TrimSpace(s.String(p + "coords")),
		Description: s.String(p + "description"),
		ShowButton:  s.Bool(p + "showbutton"),
		ButtonText:  s.String(p + "buttontext"),
		ButtonURL:   strings.TrimSpace(s.String(p + "buttonurl")),
		Behavior:    s.String(p + "behavior"),
	}
}

// ResetMarkerSignals clears the add-marker panel.
func ResetMarkerSignals() map[string]any {
	p := MarkerPrefix
	return map[string]any{
		p + "title":       "",
		p + "location":    "",
		p + "coords":      "",
		p + "description": "",
		p + "showbutton":  false,
		p + "buttontext":  "",
		p + "buttonurl":   "",
	}
}

// ParseIconSignals reads the icon variant, classes and image from the icon
// panel over the current style. Colors, sizes and offsets are restyles,
// see ParseIconStyle.
func ParseIconSignals(s humastar.Signals, current service.IconStyle) service.IconStyle {
	p := IconPrefix
	style := current
	if s.Has(p + "type") {
		style.Type = s.String(p + "type")
	}
	if s.Has(p + "classes") {
		style.Classes = strings.TrimSpace(s.String(p + "classes"))
	}
	if s.Has(p + "imageurl") {
		style.Image.URL = strings.TrimSpace(s.String(p + "imageurl"))
	}
	return style
}

// ParseIconStyle turns the posted restyle signals into a partial style.
// Missing signals and empty colors stay nil.
func ParseIconStyle(s humastar.Signals) icon.Style {
	p := IconPrefix
	var st icon.Style
	color := func(key string) *string {
		if v := strings.TrimSpace(s.String(p + key)); v != "" {
			return &v
		}
		return nil
	}
	number := func(key string) *int {
		if !s.Has(p + key) {
			return nil
		}
		v := s.Int(p + key)
		return &v
	}
	decimal := func(key string) *float64 {
		if !s.Has(p + key) {
			return nil
		}
		v := s.Float(p + key)
		return &v
	}

	st.MarkerColor = color("markercolor")
	st.MarkerStrokeColor = color("strokecolor")
	st.IconColor = color("color")
	st.MarkerFillOpacity = decimal("markeropacity")
	st.MarkerStrokeWidth = decimal("strokewidth")
	st.IconSize = number("size")
	st.IconXOffset = number("xoffset")
	st.IconYOffset = number("yoffset")
	return st
}
