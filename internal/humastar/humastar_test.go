package humastar

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/osm-map/internal/templates"
)

type Widget struct {
	ID    string   `json:"id,omitempty" card:"id"`
	Name  string   `json:"name" required:"true" doc:"Widget <name>"`
	Color string   `json:"color,omitempty" input:"color" signal:"clr" default:"#ff0000"`
	Kind  string   `json:"kind,omitempty" enum:"round,square" default:"round"`
	Live  bool     `json:"live,omitempty"`
	Size  int      `json:"size,omitempty" minimum:"1" maximum:"9"`
	Tile  string   `json:"tile,omitempty" input:"sse" sse:"/api/v1/editor/tiles/select,tile-select"`
	Tags  []string `json:"tags,omitempty"`
}

type widgetBody struct {
	Widget
}

func (w widgetBody) Actions() []Action {
	return ActionsFor(w.ID, []ActionDef{{Rel: "delete", Pattern: "/api/v1/widgets/%s", Method: http.MethodDelete, Title: "Delete widget"}})
}

var widgetSchema = DatastarSchemaConfig{
	Type:     reflect.TypeOf(Widget{}),
	Prefix:   "new",
	FormTmpl: "widget-form",
	BasePath: "/api/v1/editor/widgets",
}

func newWidgetAPI(t *testing.T) humatest.TestAPI {
	_, api := humatest.New(t)

	noop := func(ctx context.Context, _ *struct{}) (*struct{}, error) { return &struct{}{}, nil }

	huma.Get(api, "/health", noop, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/widgets", func(ctx context.Context, _ *struct{}) (*struct{ Body PageBody[Widget] }, error) {
		return &struct{ Body PageBody[Widget] }{Body: PageBody[Widget]{Total: 25, Offset: 10, Limit: 10}}, nil
	}, huma.OperationTags("widgets"))
	huma.Post(api, "/api/v1/widgets", func(ctx context.Context, in *struct{ Body Widget }) (*struct{ Body Widget }, error) {
		return &struct{ Body Widget }{Body: in.Body}, nil
	}, huma.OperationTags("widgets"))
	huma.Get(api, "/api/v1/widgets/{id}", func(ctx context.Context, in *struct {
		ID string `path:"id"`
	}) (*struct{ Body widgetBody }, error) {
		return &struct{ Body widgetBody }{Body: widgetBody{Widget{ID: in.ID, Name: "w"}}}, nil
	}, huma.OperationTags("widgets"))
	huma.Put(api, "/api/v1/widgets/{id}", func(ctx context.Context, in *struct {
		ID   string `path:"id"`
		Body Widget
	}) (*struct{ Body Widget }, error) {
		return &struct{ Body Widget }{Body: in.Body}, nil
	}, huma.OperationTags("widgets"))
	huma.Get(api, "/api/v1/lookup", noop, huma.OperationTags("lookup"))

	huma.Get(api, "/api/v1/editor/widgets", noop, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/widgets", noop, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/widgets/{id}", func(ctx context.Context, _ *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		return &struct{}{}, nil
	}, huma.OperationTags("editor"))
	huma.Get(api, "/api/v1/editor/widgets/{id}/preview", func(ctx context.Context, _ *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		return &struct{}{}, nil
	}, huma.OperationTags("editor"))
	huma.Get(api, "/api/v1/editor/events", noop, huma.OperationTags("editor"))

	return api
}

func TestSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"name":"Offices","zoom":12,"size":"7","opacity":"0.5","live":true}`))
	require.NoError(t, err)

	assert.Equal(t, "Offices", s.String("name"))
	assert.Equal(t, "", s.String("zoom"))
	assert.Equal(t, 12, s.Int("zoom"))
	assert.Equal(t, 7, s.Int("size"))
	assert.Equal(t, 0, s.Int("opacity"))
	assert.Equal(t, 0.5, s.Float("opacity"))
	assert.Equal(t, 12.0, s.Float("zoom"))
	assert.True(t, s.Bool("live"))
	assert.True(t, s.Has("live"))
	assert.False(t, s.Has("missing"))
	assert.Zero(t, s.Int("name"))
}

func TestSignalsInput_Decode(t *testing.T) {
	in := &SignalsInput{RawBody: []byte(`{`)}
	_, err := in.Decode()
	require.Error(t, err)

	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.GetStatus())
}

func TestPageBody_PaginationLinks(t *testing.T) {
	p := PageBody[int]{Total: 25, Offset: 10, Limit: 10}
	assert.Equal(t, []string{
		`</api/v1/maps?offset=0&limit=10>; rel="first"`,
		`</api/v1/maps?offset=0&limit=10>; rel="prev"`,
		`</api/v1/maps?offset=20&limit=10>; rel="next"`,
		`</api/v1/maps?offset=20&limit=10>; rel="last"`,
	}, p.PaginationLinks("/api/v1/maps"))

	empty := PageBody[int]{Limit: 10}
	assert.Equal(t, []string{
		`</api/v1/maps?offset=0&limit=10>; rel="first"`,
		`</api/v1/maps?offset=0&limit=10>; rel="last"`,
	}, empty.PaginationLinks("/api/v1/maps"))

	assert.Nil(t, PageBody[int]{Total: 3}.PaginationLinks("/x"))
}

func TestAction_LinkHeader(t *testing.T) {
	a := ActionsFor("offices", []ActionDef{
		{Rel: "render", Pattern: "/api/v1/maps/%s/render", Method: "GET"},
		{Rel: "delete", Pattern: "/api/v1/maps/%s", Method: "DELETE", Title: "Delete map"},
	})
	require.Len(t, a, 2)
	assert.Equal(t, `</api/v1/maps/offices/render>; rel="render"; method="GET"`, a[0].LinkHeader())
	assert.Equal(t, `</api/v1/maps/offices>; rel="delete"; method="DELETE"; title="Delete map"`, a[1].LinkHeader())
}

func TestAutoLinks(t *testing.T) {
	api := newWidgetAPI(t)
	ls := AutoLinks(api, "/api/v1/lookup")

	root := ls.Root()
	assert.Contains(t, root, `</api/v1/widgets>; rel="widgets"`)
	assert.Contains(t, root, `</openapi.json>; rel="service-desc"`)
	for _, l := range root {
		assert.NotContains(t, l, "/editor/")
	}

	coll := ls.For("/api/v1/widgets")
	assert.Contains(t, coll, `</api/v1/widgets/{id}>; rel="item"`)
	assert.Contains(t, coll, `</health>; rel="up"`)
	assert.Contains(t, coll, `</api/v1/lookup>; rel="search"`)
	assert.Contains(t, coll, `</api/v1/widgets>; rel="create-form"`)

	item := ls.For("/api/v1/widgets/{id}")
	assert.Contains(t, item, `</api/v1/widgets>; rel="collection"`)
	assert.Contains(t, item, `</api/v1/widgets/{id}>; rel="edit"`)

	var nilSet *LinkSet
	assert.Nil(t, nilSet.Root())
}

func TestLinkTransformer(t *testing.T) {
	var ls *LinkSet
	cfg := huma.DefaultConfig("Test", "1.0.0")
	cfg.CreateHooks = []func(huma.Config) huma.Config{}
	cfg.Transformers = append(cfg.Transformers, func(ctx huma.Context, status string, v any) (any, error) {
		return ls.Transformer()(ctx, status, v)
	})
	_, api := humatest.New(t, cfg)

	huma.Get(api, "/api/v1/widgets", func(ctx context.Context, _ *struct{}) (*struct{ Body PageBody[Widget] }, error) {
		return &struct{ Body PageBody[Widget] }{Body: PageBody[Widget]{Total: 25, Offset: 10, Limit: 10}}, nil
	})
	huma.Get(api, "/api/v1/widgets/{id}", func(ctx context.Context, in *struct {
		ID string `path:"id"`
	}) (*struct{ Body widgetBody }, error) {
		return &struct{ Body widgetBody }{Body: widgetBody{Widget{ID: in.ID, Name: "w"}}}, nil
	})
	ls = AutoLinks(api, "")

	resp := api.Get("/api/v1/widgets/w1")
	require.Equal(t, http.StatusOK, resp.Code)
	links := resp.Header().Values("Link")
	assert.Contains(t, links, `</api/v1/widgets/w1>; rel="self"`)
	assert.Contains(t, links, `</api/v1/widgets/w1>; rel="delete"; method="DELETE"; title="Delete widget"`)
	assert.Contains(t, links, `</api/v1/widgets>; rel="collection"`)

	resp = api.Get("/api/v1/widgets")
	require.Equal(t, http.StatusOK, resp.Code)
	links = resp.Header().Values("Link")
	assert.Contains(t, links, `</api/v1/widgets?offset=20&limit=10>; rel="next"`)
	assert.Contains(t, links, `</api/v1/widgets/{id}>; rel="item"`)
}

func TestInjectExtensions(t *testing.T) {
	api := newWidgetAPI(t)
	InjectExtensions(api, []DatastarSchemaConfig{widgetSchema})

	schema := api.OpenAPI().Components.Schemas.Map()["Widget"]
	require.NotNil(t, schema)

	ds, ok := schema.Extensions["x-datastar"].(DatastarSchema)
	require.True(t, ok)
	assert.Equal(t, "new", ds.Prefix)
	assert.Equal(t, "widget-form", ds.FormTmpl)

	assert.Equal(t, "clr", schema.Properties["color"].Extensions["x-signal"])
	assert.Equal(t, "color", schema.Properties["color"].Extensions["x-input"])
	assert.Equal(t, "/api/v1/editor/tiles/select,tile-select", schema.Properties["tile"].Extensions["x-sse"])
	assert.Equal(t, "id", schema.Properties["id"].Extensions["x-card"])
	assert.Nil(t, schema.Properties["name"].Extensions)
}

func TestBuildPageData(t *testing.T) {
	api := newWidgetAPI(t)
	InjectExtensions(api, []DatastarSchemaConfig{widgetSchema})

	pd := BuildPageData(api, widgetSchema, map[string]any{"error": ""})

	var signals map[string]any
	require.NoError(t, json.Unmarshal([]byte(pd.Signals), &signals))
	assert.Equal(t, "", signals["newname"])
	assert.Equal(t, "#ff0000", signals["newclr"])
	assert.Equal(t, "round", signals["newkind"])
	assert.Equal(t, false, signals["newlive"])
	assert.Equal(t, float64(0), signals["newsize"])
	assert.Equal(t, "", signals["error"])
	assert.NotContains(t, signals, "newid")
	assert.NotContains(t, signals, "newtags")

	assert.Equal(t, "/api/v1/editor/widgets", pd.Routes.List)
	assert.Equal(t, "/api/v1/editor/widgets", pd.Routes.Create)
	assert.Equal(t, "/api/v1/editor/widgets/{id}", pd.Routes.Delete)
	assert.Equal(t, "/api/v1/editor/events", pd.Routes.Events)
	assert.Equal(t, "/api/v1/editor/widgets/{id}/preview", pd.Routes.Sub["preview"])
	assert.Equal(t, "/api/v1/editor/widgets/w1/preview", pd.Routes.ItemRoute(pd.Routes.Sub["preview"], "w1"))

	assert.Equal(t, []string{"/api/v1/editor/tiles/select"}, pd.SSEInits)
	assert.Equal(t, "@get('/api/v1/editor/tiles/select')", pd.DataInit())
	assert.Equal(t, "widget-form", pd.FormTmpl)
}

func TestRegisterFormTemplates(t *testing.T) {
	api := newWidgetAPI(t)
	InjectExtensions(api, []DatastarSchemaConfig{widgetSchema})

	r, err := templates.New(fstest.MapFS{
		"templates/base.html": {Data: []byte(`{{define "base"}}ok{{end}}`)},
	}, "templates/*.html")
	require.NoError(t, err)

	require.NoError(t, RegisterFormTemplates(api, r))
	require.True(t, r.Has("widget-form"))

	html, err := r.Render("widget-form", nil)
	require.NoError(t, err)

	assert.Contains(t, html, `<label>Widget &lt;name&gt;</label>`)
	assert.Contains(t, html, `<input type="text" data-bind:newname required>`)
	assert.Contains(t, html, `<input type="color" data-bind:newclr>`)
	assert.Contains(t, html, `<option value="square">square</option>`)
	assert.Contains(t, html, `<input type="checkbox" data-bind:newlive>`)
	assert.Contains(t, html, `<input type="number" data-bind:newsize min="1" max="9">`)
	assert.Contains(t, html, `id="tile-select"`)
	assert.NotContains(t, html, "newid")
	assert.NotContains(t, html, "newtags")
}

func TestRenderListAndSelect(t *testing.T) {
	r, err := templates.New(fstest.MapFS{
		"templates/f.html": {Data: []byte(
			`{{define "empty-state"}}<p>{{.Title}}: {{.Message}}</p>{{end}}` +
				`{{define "item"}}<li>{{.}}</li>{{end}}` +
				`{{define "select-option"}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}`)},
	}, "templates/*.html")
	require.NoError(t, err)

	assert.Equal(t, "<p>No maps: Create one</p>", RenderList(r, "item", nil, "No maps", "Create one"))
	assert.Equal(t, "<li>a</li><li>b</li>", RenderList(r, "item", []any{"a", "b"}, "", ""))

	got := RenderSelect(r, "Pick", []SelectOptionData{{Value: "osm", Label: "OSM", Selected: true}})
	assert.Equal(t, `<option value="">Pick</option><option value="osm" selected>OSM</option>`, got)
}
