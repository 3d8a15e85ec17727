// Package templates handles HTML template rendering for map pages, the
// embeddable widget and Datastar SSE fragments.
package templates

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io"
	"io/fs"
	"sync"
)

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	// json marshals v for data-* attributes; html/template escapes the result.
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	},
}

// Patterns are the template globs parsed from the web filesystem.
var Patterns = []string{"templates/*.html", "templates/fragments/*.html"}

// Renderer manages HTML templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New parses the templates matching patterns in fsys.
func New(fsys fs.FS, patterns ...string) (*Renderer, error) {
	tmpl, err := parse(fsys, patterns)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

func parse(fsys fs.FS, patterns []string) (*template.Template, error) {
	if len(patterns) == 0 {
		patterns = Patterns
	}
	return template.New("").Funcs(funcMap).ParseFS(fsys, patterns...)
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	return r.Execute(buf, name, data)
}

// Execute renders a named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(w, name, data)
}

// Define adds a template at runtime, e.g. forms generated from the OpenAPI
// schema. text must wrap its body in a {{define}} block.
func (r *Renderer) Define(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.templates.Parse(text)
	return err
}

// Has reports whether a template with name is defined.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.Lookup(name) != nil
}

// MustRender renders a template and panics on error.
// Use only when you're certain the template exists.
func (r *Renderer) MustRender(name string, data any) string {
	s, err := r.Render(name, data)
	if err != nil {
		panic(err)
	}
	return s
}

// Reload re-parses templates from fsys (useful for dev hot-reload with
// os.DirFS). Runtime definitions are dropped.
func (r *Renderer) Reload(fsys fs.FS, patterns ...string) error {
	tmpl, err := parse(fsys, patterns)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
