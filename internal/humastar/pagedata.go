package humastar

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// PageData is what an editor page template reads from the OpenAPI spec:
// the data-signals init, the routes and the form template, so the HTML
// never hardcodes URLs or signal names.
type PageData struct {
	Signals  string // JSON for data-signals
	Routes   SchemaRoutes
	SSEInits []string // GET endpoints from x-sse properties
	FormTmpl string
}

// SchemaRoutes are the editor routes discovered under a base path.
type SchemaRoutes struct {
	List   string // GET collection
	Create string // POST collection
	Get    string // GET /{id}
	Update string // PUT /{id}
	Delete string // DELETE /{id}
	Events string // GET sibling /events stream

	// Sub holds per-item routes below /{id} keyed by their last segment,
	// e.g. Sub["preview"] = "/api/v1/editor/maps/{id}/preview".
	Sub map[string]string
}

// ItemRoute fills the {id} placeholder of an item route.
func (r SchemaRoutes) ItemRoute(route, id string) string {
	return strings.Replace(route, "{id}", id, 1)
}

// DataInit returns a data-init value that loads every SSE init URL,
// e.g. "@get('/api/v1/editor/tiles/select')".
func (pd PageData) DataInit() string {
	parts := make([]string, 0, len(pd.SSEInits))
	for _, url := range pd.SSEInits {
		parts = append(parts, fmt.Sprintf("@get('%s')", url))
	}
	return strings.Join(parts, " ")
}

// BuildPageData derives page data for cfg from the OpenAPI spec. uiSignals
// are merged over the schema reset values.
func BuildPageData(api huma.API, cfg DatastarSchemaConfig, uiSignals map[string]any) PageData {
	signals := buildResetSignals(api, cfg)
	for k, v := range uiSignals {
		signals[k] = v
	}
	signalsJSON, _ := json.Marshal(signals)

	return PageData{
		Signals:  string(signalsJSON),
		Routes:   discoverRoutes(api, cfg),
		SSEInits: discoverSSEInits(api, cfg),
		FormTmpl: cfg.FormTmpl,
	}
}

// buildResetSignals returns the initial value of every form signal: the
// schema default, or the zero value of the property type.
func buildResetSignals(api huma.API, cfg DatastarSchemaConfig) map[string]any {
	signals := map[string]any{}
	schema, ok := api.OpenAPI().Components.Schemas.Map()[cfg.Type.Name()]
	if !ok {
		return signals
	}

	t := cfg.Type
	for i := range t.NumField() {
		sf := t.Field(i)
		name := jsonName(sf)
		if name == "" || sf.Name == "ID" {
			continue
		}
		prop, ok := schema.Properties[name]
		if !ok || prop.Type == "array" || prop.Type == "object" {
			continue
		}

		signal := cfg.Prefix + signalSuffix(name, prop)
		switch {
		case prop.Default != nil:
			signals[signal] = prop.Default
		case prop.Type == "boolean":
			signals[signal] = false
		case prop.Type == "number" || prop.Type == "integer":
			signals[signal] = 0
		default:
			signals[signal] = ""
		}
	}
	return signals
}

// signalSuffix is the x-signal override or the lowercased property name.
func signalSuffix(name string, prop *huma.Schema) string {
	if sig, ok := prop.Extensions["x-signal"]; ok {
		return fmt.Sprint(sig)
	}
	return strings.ToLower(name)
}

// discoverRoutes finds the editor routes under cfg.BasePath and the
// events stream at the sibling /events path.
func discoverRoutes(api huma.API, cfg DatastarSchemaConfig) SchemaRoutes {
	routes := SchemaRoutes{Sub: map[string]string{}}

	paths := api.OpenAPI().Paths
	if paths == nil || cfg.BasePath == "" {
		return routes
	}
	eventsPath := path.Dir(cfg.BasePath) + "/events"
	itemPath := cfg.BasePath + "/{id}"

	for p, item := range paths {
		switch {
		case p == eventsPath:
			if item.Get != nil {
				routes.Events = p
			}
		case p == cfg.BasePath:
			if item.Get != nil {
				routes.List = p
			}
			if item.Post != nil {
				routes.Create = p
			}
		case p == itemPath:
			if item.Get != nil {
				routes.Get = p
			}
			if item.Put != nil {
				routes.Update = p
			}
			if item.Delete != nil {
				routes.Delete = p
			}
		case strings.HasPrefix(p, itemPath+"/"):
			routes.Sub[path.Base(p)] = p
		}
	}
	return routes
}

// discoverSSEInits collects the URLs of x-sse properties. The extension is
// "url,elementID"; only the URL is kept.
func discoverSSEInits(api huma.API, cfg DatastarSchemaConfig) []string {
	schema, ok := api.OpenAPI().Components.Schemas.Map()[cfg.Type.Name()]
	if !ok {
		return nil
	}

	var urls []string
	for _, prop := range schema.Properties {
		xSSE, ok := prop.Extensions["x-sse"].(string)
		if !ok || xSSE == "" {
			continue
		}
		url, _, _ := strings.Cut(xSSE, ",")
		urls = append(urls, url)
	}
	return urls
}
