package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/humastar"
	"github.com/joeblew999/osm-map/internal/render"
	"github.com/joeblew999/osm-map/internal/service"
)

type IDInput struct {
	ID string `path:"id" doc:"Map ID" example:"offices"`
}

type PageInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Index of the first map"`
	Limit  int `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
}

// MapBody is a stored map with its hypermedia actions.
type MapBody struct {
	service.MapConfig
}

var mapActions = []humastar.ActionDef{
	{Rel: "render", Pattern: "/api/v1/maps/%s/render", Method: http.MethodGet, Title: "Render widget"},
	{Rel: "geojson", Pattern: "/api/v1/maps/%s/geojson", Method: http.MethodGet, Title: "Export markers"},
	{Rel: "pmtiles", Pattern: "/api/v1/maps/%s/pmtiles", Method: http.MethodGet, Title: "Export marker tiles"},
	{Rel: "viewer", Pattern: "/viewer/%s", Method: http.MethodGet, Title: "Open viewer"},
	{Rel: "delete", Pattern: "/api/v1/maps/%s", Method: http.MethodDelete, Title: "Delete map"},
}

// Actions implements humastar.Actor.
func (b MapBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, mapActions)
}

type MapOutput struct {
	Body MapBody
}

type MapsOutput struct {
	Body humastar.PageBody[service.MapConfig]
}

type RenderQuery struct {
	Page bool `query:"page" doc:"Wrap the widget in a standalone HTML page"`
}

// HTMLOutput is a rendered widget or page.
type HTMLOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// GeoJSONOutput is a marker export.
type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RegisterMaps registers map CRUD and export routes.
func (h *APIHandler) RegisterMaps(api huma.API) {
	huma.Get(api, "/api/v1/maps", h.ListMaps, huma.OperationTags("maps"))
	huma.Post(api, "/api/v1/maps", h.CreateMap, huma.OperationTags("maps"))
	huma.Get(api, "/api/v1/maps/{id}", h.GetMap, huma.OperationTags("maps"))
	huma.Put(api, "/api/v1/maps/{id}", h.PutMap, huma.OperationTags("maps"))
	huma.Delete(api, "/api/v1/maps/{id}", h.DeleteMap, huma.OperationTags("maps"))

	huma.Register(api, huma.Operation{
		OperationID: "render-map",
		Method:      http.MethodGet,
		Path:        "/api/v1/maps/{id}/render",
		Summary:     "Render map widget",
		Description: "Returns the widget HTML fragment, or a standalone page with ?page=true.",
		Tags:        []string{"maps"},
		Responses: map[string]*huma.Response{
			"200": {Description: "Widget HTML", Content: map[string]*huma.MediaType{"text/html": {}}},
		},
	}, h.RenderMap)

	huma.Register(api, huma.Operation{
		OperationID: "get-map-geojson",
		Method:      http.MethodGet,
		Path:        "/api/v1/maps/{id}/geojson",
		Summary:     "Export map markers as GeoJSON",
		Tags:        []string{"maps"},
		Responses: map[string]*huma.Response{
			"200": {Description: "FeatureCollection of visible markers", Content: map[string]*huma.MediaType{"application/geo+json": {}}},
		},
	}, h.GetMapGeoJSON)
}

func (h *APIHandler) ListMaps(ctx context.Context, input *PageInput) (*MapsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	data, total := h.svc.Maps.Page(input.Offset, limit)
	return &MapsOutput{Body: humastar.PageBody[service.MapConfig]{
		Total: total, Offset: input.Offset, Limit: limit, Data: data,
	}}, nil
}

func (h *APIHandler) CreateMap(ctx context.Context, input *struct{ Body service.MapConfig }) (*MapOutput, error) {
	m := input.Body
	h.fillMarkers(ctx, &m)

	created, err := h.svc.Maps.Create(m)
	if err != nil {
		return nil, apiError(err)
	}
	return &MapOutput{Body: MapBody{created}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *IDInput) (*MapOutput, error) {
	m, ok := h.svc.Maps.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("map not found")
	}
	return &MapOutput{Body: MapBody{m}}, nil
}

func (h *APIHandler) PutMap(ctx context.Context, input *struct {
	IDInput
	Body service.MapConfig
}) (*MapOutput, error) {
	m := input.Body
	h.fillMarkers(ctx, &m)

	updated, err := h.svc.Maps.Update(input.ID, m)
	if err != nil {
		return nil, apiError(err)
	}
	return &MapOutput{Body: MapBody{updated}}, nil
}

func (h *APIHandler) DeleteMap(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Maps.Delete(input.ID); err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Map deleted"}}, nil
}

func (h *APIHandler) RenderMap(ctx context.Context, input *struct {
	IDInput
	RenderQuery
}) (*HTMLOutput, error) {
	m, ok := h.svc.Maps.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("map not found")
	}
	return h.renderHTML(render.Build(m, h.settings(), h.svc.Log), input.Page)
}

func (h *APIHandler) GetMapGeoJSON(ctx context.Context, input *IDInput) (*GeoJSONOutput, error) {
	m, ok := h.svc.Maps.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("map not found")
	}

	v := render.Build(m, h.settings(), h.svc.Log)
	b, err := geo.FeatureCollection(v.Features()).MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("encode geojson", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: b}, nil
}

func (h *APIHandler) renderHTML(v render.View, page bool) (*HTMLOutput, error) {
	if h.svc.Renderer == nil {
		return nil, huma.Error503ServiceUnavailable("renderer not available")
	}

	var buf bytes.Buffer
	write := h.svc.Renderer.Widget
	if page {
		write = h.svc.Renderer.Page
	}
	if err := write(&buf, v); err != nil {
		return nil, huma.Error500InternalServerError("render map", err)
	}
	return &HTMLOutput{ContentType: "text/html; charset=utf-8", Body: buf.Bytes()}, nil
}
