package humastar

import (
	"reflect"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// DatastarSchema is the "x-datastar" extension set on a component schema.
// It tells the form renderer and page builder how to bind the schema.
type DatastarSchema struct {
	Prefix   string `json:"prefix"`       // signal prefix, e.g. "newmap"
	FormTmpl string `json:"formTemplate"` // template name, e.g. "map-form"
	GoPkg    string `json:"goPkg,omitempty"`
	GoOut    string `json:"goOut,omitempty"`
}

// DatastarSchemaConfig binds a Go type to its editor form.
type DatastarSchemaConfig struct {
	Type     reflect.Type
	Prefix   string
	FormTmpl string
	BasePath string // editor routes, e.g. "/api/v1/editor/maps"
	GoPkg    string
	GoOut    string
}

// propertyTags are the struct tags copied onto schema properties as
// x-<tag> extensions.
var propertyTags = []string{"signal", "input", "sse", "card"}

// InjectExtensions copies the Datastar metadata of each config onto its
// OpenAPI component schema. Call after all routes are registered so the
// schemas exist.
func InjectExtensions(api huma.API, configs []DatastarSchemaConfig) {
	schemas := api.OpenAPI().Components.Schemas.Map()

	for _, cfg := range configs {
		schema, ok := schemas[cfg.Type.Name()]
		if !ok {
			continue
		}
		if schema.Extensions == nil {
			schema.Extensions = map[string]any{}
		}
		schema.Extensions["x-datastar"] = DatastarSchema{
			Prefix:   cfg.Prefix,
			FormTmpl: cfg.FormTmpl,
			GoPkg:    cfg.GoPkg,
			GoOut:    cfg.GoOut,
		}
		injectPropertyExtensions(schema, cfg.Type)
	}
}

func injectPropertyExtensions(schema *huma.Schema, t reflect.Type) {
	for i := range t.NumField() {
		sf := t.Field(i)
		prop, ok := schema.Properties[jsonName(sf)]
		if !ok {
			continue
		}
		for _, tag := range propertyTags {
			v := sf.Tag.Get(tag)
			if v == "" {
				continue
			}
			if prop.Extensions == nil {
				prop.Extensions = map[string]any{}
			}
			prop.Extensions["x-"+tag] = v
		}
	}
}

// jsonName returns the JSON property name of a struct field, or "" when the
// field is not serialized.
func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
