package render

import (
	"bytes"
	"html/template"
	"io"

	"github.com/joeblew999/osm-map/internal/templates"
)

// Template names in web/templates.
const (
	WidgetTemplate = "osm-map-widget"
	PageTemplate   = "osm-map-page"
)

// Renderer writes views through the shared template set.
type Renderer struct {
	t *templates.Renderer
}

// NewRenderer wraps a template set that defines the widget and page templates.
func NewRenderer(t *templates.Renderer) *Renderer {
	return &Renderer{t: t}
}

// Widget writes the map container and its inline initialization script.
func (r *Renderer) Widget(w io.Writer, v View) error {
	return r.t.Execute(w, WidgetTemplate, v)
}

// WidgetHTML renders the widget for embedding in other templates.
func (r *Renderer) WidgetHTML(v View) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.Widget(&buf, v); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Page writes a standalone HTML document with the map and its assets.
func (r *Renderer) Page(w io.Writer, v View) error {
	return r.t.Execute(w, PageTemplate, v)
}
