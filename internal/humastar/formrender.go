package humastar

import (
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/osm-map/internal/templates"
)

// RegisterFormTemplates defines a Datastar-bound form template in r for
// every schema carrying an x-datastar extension. Controls follow the
// property type:
//
//	string                    text input
//	string + enum             select
//	string + x-input:"color"  color picker plus text input
//	string + x-input:"sse"    select filled over SSE
//	boolean                   checkbox
//	number, integer           number input with min/max
//
// Call after InjectExtensions and before serving pages.
func RegisterFormTemplates(api huma.API, r *templates.Renderer) error {
	for name, schema := range api.OpenAPI().Components.Schemas.Map() {
		ds, ok := schema.Extensions["x-datastar"].(DatastarSchema)
		if !ok || ds.FormTmpl == "" {
			continue
		}

		form := renderFormHTML(schema, ds)
		// Generated markup must not be read as template actions.
		form = strings.ReplaceAll(form, "{{", `{{"{{"}}`)
		text := fmt.Sprintf(`{{define "%s"}}%s{{end}}`, ds.FormTmpl, form)
		if err := r.Define(text); err != nil {
			return fmt.Errorf("define %s for %s: %w", ds.FormTmpl, name, err)
		}
	}
	return nil
}

// renderFormHTML builds one form group per primitive property, required
// properties first.
func renderFormHTML(schema *huma.Schema, ds DatastarSchema) string {
	var b strings.Builder

	for _, name := range sortedPropertyNames(schema) {
		prop := schema.Properties[name]
		if strings.HasPrefix(name, "$") || prop.Type == "array" || prop.Type == "object" {
			continue
		}
		if card, _ := prop.Extensions["x-card"].(string); card == "id" {
			continue
		}

		f := formField{
			label:    prop.Description,
			signal:   ds.Prefix + signalSuffix(name, prop),
			required: slices.Contains(schema.Required, name),
			prop:     prop,
		}
		if f.label == "" {
			f.label = name
		}

		input, _ := prop.Extensions["x-input"].(string)
		switch {
		case prop.Type == "boolean":
			f.checkbox(&b)
		case input == "color":
			f.color(&b)
		case input == "sse":
			sse, _ := prop.Extensions["x-sse"].(string)
			f.sseSelect(&b, sse)
		case len(prop.Enum) > 0:
			f.enumSelect(&b)
		case prop.Type == "number" || prop.Type == "integer":
			f.number(&b)
		default:
			f.text(&b)
		}
	}

	return b.String()
}

type formField struct {
	label    string
	signal   string
	required bool
	prop     *huma.Schema
}

func (f formField) open(b *strings.Builder) {
	fmt.Fprintf(b, "<div class=\"form-group\">\n    <label>%s</label>\n", html.EscapeString(f.label))
}

// attrs returns the shared placeholder and required attributes.
func (f formField) attrs() string {
	var s string
	if f.prop.Default != nil {
		s += fmt.Sprintf(` placeholder="%s"`, html.EscapeString(fmt.Sprint(f.prop.Default)))
	}
	if f.required {
		s += ` required`
	}
	return s
}

func (f formField) text(b *strings.Builder) {
	f.open(b)
	fmt.Fprintf(b, "    <input type=\"text\" data-bind:%s%s>\n</div>\n", f.signal, f.attrs())
}

func (f formField) number(b *strings.Builder) {
	f.open(b)
	fmt.Fprintf(b, `    <input type="number" data-bind:%s`, f.signal)
	if f.prop.Minimum != nil {
		fmt.Fprintf(b, ` min="%v"`, *f.prop.Minimum)
	}
	if f.prop.Maximum != nil {
		fmt.Fprintf(b, ` max="%v"`, *f.prop.Maximum)
	}
	if f.prop.Type == "number" {
		b.WriteString(` step="0.1"`)
	}
	fmt.Fprintf(b, "%s>\n</div>\n", f.attrs())
}

// checkbox is never required; unchecked is a valid state.
func (f formField) checkbox(b *strings.Builder) {
	fmt.Fprintf(b, "<div class=\"form-group\">\n    <label><input type=\"checkbox\" data-bind:%s> %s</label>\n</div>\n",
		f.signal, html.EscapeString(f.label))
}

func (f formField) color(b *strings.Builder) {
	f.open(b)
	fmt.Fprintf(b, "    <div class=\"color-group\">\n        <input type=\"color\" data-bind:%s>\n", f.signal)
	fmt.Fprintf(b, "        <input type=\"text\" data-bind:%s%s>\n    </div>\n</div>\n", f.signal, f.attrs())
}

func (f formField) enumSelect(b *strings.Builder) {
	f.open(b)
	fmt.Fprintf(b, "    <select data-bind:%s%s>\n", f.signal, requiredAttr(f.required))
	for _, v := range f.prop.Enum {
		s := html.EscapeString(fmt.Sprint(v))
		fmt.Fprintf(b, "        <option value=\"%s\">%s</option>\n", s, s)
	}
	b.WriteString("    </select>\n</div>\n")
}

// sseSelect renders a select whose options are patched in by the endpoint
// named in x-sse ("url,elementID").
func (f formField) sseSelect(b *strings.Builder, xSSE string) {
	_, id, _ := strings.Cut(xSSE, ",")
	id = strings.TrimSpace(id)

	f.open(b)
	fmt.Fprintf(b, `    <select data-bind:%s%s`, f.signal, requiredAttr(f.required))
	if id != "" {
		fmt.Fprintf(b, ` id="%s"`, html.EscapeString(id))
	}
	b.WriteString(">\n        <option value=\"\">Loading...</option>\n    </select>\n</div>\n")
}

func requiredAttr(required bool) string {
	if required {
		return " required"
	}
	return ""
}

// sortedPropertyNames returns required names then optional names, each
// sorted.
func sortedPropertyNames(schema *huma.Schema) []string {
	var req, opt []string
	for name := range schema.Properties {
		if slices.Contains(schema.Required, name) {
			req = append(req, name)
		} else {
			opt = append(opt, name)
		}
	}
	slices.Sort(req)
	slices.Sort(opt)
	return append(req, opt...)
}
