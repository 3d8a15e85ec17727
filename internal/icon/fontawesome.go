// Package icon composes Leaflet marker icons: a Font Awesome glyph on an SVG
// teardrop pin, or a custom image with its anchors.
package icon

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// Pin geometry. The path tip sits at (16, 51) so the anchor is bottom center.
const (
	PinWidth  = 32
	PinHeight = 52

	DefaultMarkerPath = "M16,1 C7.7146,1 1,7.65636364 1,15.8648485 C1,24.0760606 16,51 16,51 " +
		"C16,51 31,24.0760606 31,15.8648485 C31,7.65636364 24.2815,1 16,1 L16,1 Z"

	// ClassName is the CSS class of the marker container.
	ClassName = "leaflet-fa-markers"
)

// Options configures a Font Awesome pin.
type Options struct {
	IconClasses       string
	MarkerColor       string
	MarkerFillOpacity float64
	MarkerStrokeColor string
	MarkerStrokeWidth float64
	IconColor         string
	IconSize          int
	IconXOffset       int
	IconYOffset       int
	MarkerPath        string
}

// Style is a partial restyle. Nil fields are left untouched.
type Style struct {
	MarkerColor       *string
	MarkerFillOpacity *float64
	MarkerStrokeColor *string
	MarkerStrokeWidth *float64
	IconColor         *string
	IconSize          *int
	IconXOffset       *int
	IconYOffset       *int
}

// FontAwesome is a composed pin. It keeps the SVG path attributes and the
// glyph inline style so SetStyle can change single properties in place.
type FontAwesome struct {
	opts  Options
	path  attrs
	glyph attrs
}

// Compose builds the pin and the glyph from opts.
func Compose(opts Options) *FontAwesome {
	if opts.MarkerPath == "" {
		opts.MarkerPath = DefaultMarkerPath
	}
	f := &FontAwesome{opts: opts}

	fillOpacity := opts.MarkerFillOpacity
	if fillOpacity == 0 {
		fillOpacity = 1
	}
	strokeColor := opts.MarkerStrokeColor
	if strokeColor == "" {
		strokeColor = opts.MarkerColor
	}
	strokeWidth := opts.MarkerStrokeWidth
	if strokeWidth == 0 {
		strokeWidth = 1
	}

	f.path.set("fill-opacity", formatFloat(fillOpacity))
	f.path.set("fill", opts.MarkerColor)
	f.path.set("stroke", strokeColor)
	f.path.set("stroke-width", formatFloat(strokeWidth))

	if opts.IconColor != "" {
		f.glyph.set("color", opts.IconColor)
	}
	f.glyph.set("text-align", "center")
	if opts.IconYOffset != 0 {
		f.glyph.set("margin-top", px(opts.IconYOffset))
	}
	if opts.IconXOffset != 0 {
		f.glyph.set("margin-left", px(opts.IconXOffset))
	}
	if opts.IconSize != 0 {
		f.glyph.set("font-size", px(opts.IconSize))
	}

	return f
}

// SetStyle merges s into the icon and updates only the touched properties.
func (f *FontAwesome) SetStyle(s Style) {
	if s.MarkerColor != nil {
		f.opts.MarkerColor = *s.MarkerColor
		f.path.set("fill", *s.MarkerColor)
	}
	if s.MarkerFillOpacity != nil {
		f.opts.MarkerFillOpacity = *s.MarkerFillOpacity
		f.path.set("fill-opacity", formatFloat(*s.MarkerFillOpacity))
	}
	if s.MarkerStrokeColor != nil {
		f.opts.MarkerStrokeColor = *s.MarkerStrokeColor
		f.path.set("stroke", *s.MarkerStrokeColor)
	}
	if s.MarkerStrokeWidth != nil {
		f.opts.MarkerStrokeWidth = *s.MarkerStrokeWidth
		f.path.set("stroke-width", formatFloat(*s.MarkerStrokeWidth))
	}
	if s.IconXOffset != nil {
		f.opts.IconXOffset = *s.IconXOffset
		f.glyph.set("margin-left", px(*s.IconXOffset))
	}
	if s.IconYOffset != nil {
		f.opts.IconYOffset = *s.IconYOffset
		f.glyph.set("margin-top", px(*s.IconYOffset))
	}
	if s.IconColor != nil {
		f.opts.IconColor = *s.IconColor
		f.glyph.set("color", *s.IconColor)
	}
	if s.IconSize != nil {
		f.opts.IconSize = *s.IconSize
		f.glyph.set("font-size", px(*s.IconSize))
	}
}

// Options returns the current options, including merged restyles.
func (f *FontAwesome) Options() Options {
	return f.opts
}

// pathAttr returns the current value of an SVG path attribute.
func (f *FontAwesome) pathAttr(name string) (string, bool) {
	return f.path.get(name)
}

// GlyphStyle returns the current value of a glyph inline style property.
func (f *FontAwesome) glyphStyle(name string) (string, bool) {
	return f.glyph.get(name)
}

// SVG renders the teardrop as a standalone SVG document.
func (f *FontAwesome) SVG() []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(PinWidth, PinHeight, 0, 0, PinWidth, PinHeight)
	canvas.Path(html.EscapeString(f.opts.MarkerPath), f.path.svgAttrs()...)
	canvas.End()
	return buf.Bytes()
}

// HTML renders the marker container: the pin SVG and the glyph on top.
// An icon without classes renders an empty container.
func (f *FontAwesome) HTML() template.HTML {
	if f.opts.IconClasses == "" {
		return template.HTML("<div></div>")
	}

	var b strings.Builder
	b.WriteString(`<div><div class="` + ClassName + `">`)
	b.WriteString(`<div class="marker-icon-svg">`)
	b.Write(inlineSVG(f.SVG()))
	b.WriteString(`</div><div class="icon-container">`)
	fmt.Fprintf(&b, `<i class="%s feature-icon" style="%s"></i>`,
		html.EscapeString(f.opts.IconClasses), html.EscapeString(f.glyph.css()))
	b.WriteString(`</div></div></div>`)
	return template.HTML(b.String())
}

// DivIconOptions are the L.divIcon options for a composed pin.
type DivIconOptions struct {
	HTML        template.HTML `json:"html"`
	ClassName   string        `json:"className"`
	IconSize    [2]int        `json:"iconSize"`
	IconAnchor  [2]int        `json:"iconAnchor"`
	PopupAnchor [2]int        `json:"popupAnchor"`
}

// DivIcon returns the Leaflet options for placing the pin. The anchor is the
// pin tip; popups open just above the pin head.
func (f *FontAwesome) DivIcon() DivIconOptions {
	return DivIconOptions{
		HTML:        f.HTML(),
		ClassName:   ClassName,
		IconSize:    [2]int{PinWidth, PinHeight},
		IconAnchor:  [2]int{PinWidth / 2, PinHeight},
		PopupAnchor: [2]int{0, -50},
	}
}

// inlineSVG drops the XML prolog so the document can sit inside HTML.
func inlineSVG(doc []byte) []byte {
	if i := bytes.Index(doc, []byte("<svg")); i > 0 {
		return doc[i:]
	}
	return doc
}

// attrs is an ordered attribute or style property list.
type attrs []attr

type attr struct {
	name, value string
}

func (a *attrs) set(name, value string) {
	for i := range *a {
		if (*a)[i].name == name {
			(*a)[i].value = value
			return
		}
	}
	*a = append(*a, attr{name, value})
}

func (a attrs) get(name string) (string, bool) {
	for _, v := range a {
		if v.name == name {
			return v.value, true
		}
	}
	return "", false
}

func (a attrs) svgAttrs() []string {
	out := make([]string, len(a))
	for i, v := range a {
		out[i] = fmt.Sprintf(`%s="%s"`, v.name, html.EscapeString(v.value))
	}
	return out
}

func (a attrs) css() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.name + ":" + v.value
	}
	return strings.Join(parts, ";")
}

func px(n int) string {
	return strconv.Itoa(n) + "px"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
