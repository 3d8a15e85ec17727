package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/icon"
	"github.com/joeblew999/osm-map/internal/render"
	"github.com/joeblew999/osm-map/internal/service"
)

type CentroidBody struct {
	Coords []string `json:"coords" maxItems:"1000" doc:"Coordinates as lat,lng" example:"[\"40.7128,-74.0060\",\"51.5074,-0.1278\"]"`
}

type CentroidResult struct {
	Center   geo.Coordinate `json:"center" doc:"Map center"`
	Valid    int            `json:"valid" doc:"Number of coordinates used"`
	Skipped  []string       `json:"skipped,omitempty" doc:"Inputs that did not parse"`
	Fallback bool           `json:"fallback" doc:"Whether the fallback center was used"`
}

// MarkerIconInput styles the pin returned by /api/v1/icons/marker.svg.
type MarkerIconInput struct {
	Classes           string  `query:"classes" doc:"Font Awesome classes" example:"fa fa-coffee"`
	MarkerColor       string  `query:"markerColor" doc:"Pin fill color"`
	MarkerFillOpacity float64 `query:"markerFillOpacity" minimum:"0" maximum:"1" doc:"Pin fill opacity"`
	MarkerStrokeColor string  `query:"markerStrokeColor" doc:"Pin stroke color"`
	MarkerStrokeWidth float64 `query:"markerStrokeWidth" minimum:"0" doc:"Pin stroke width"`
	IconColor         string  `query:"iconColor" doc:"Glyph color"`
	IconSize          int     `query:"iconSize" minimum:"0" maximum:"100" doc:"Glyph size in pixels"`
}

type SVGOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// RegisterRender registers the stateless rendering routes.
func (h *APIHandler) RegisterRender(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "render-config",
		Method:      http.MethodPost,
		Path:        "/api/v1/render",
		Summary:     "Render an ad hoc map configuration",
		Tags:        []string{"render"},
		Responses: map[string]*huma.Response{
			"200": {Description: "Widget HTML", Content: map[string]*huma.MediaType{"text/html": {}}},
		},
	}, h.RenderConfig)

	huma.Post(api, "/api/v1/centroid", h.ComputeCentroid, huma.OperationTags("render"))

	huma.Register(api, huma.Operation{
		OperationID: "get-marker-icon",
		Method:      http.MethodGet,
		Path:        "/api/v1/icons/marker.svg",
		Summary:     "Compose a Font Awesome marker pin",
		Tags:        []string{"render"},
		Responses: map[string]*huma.Response{
			"200": {Description: "Pin SVG", Content: map[string]*huma.MediaType{"image/svg+xml": {}}},
		},
	}, h.GetMarkerIcon)
}

func (h *APIHandler) RenderConfig(ctx context.Context, input *struct {
	RenderQuery
	Body service.MapConfig
}) (*HTMLOutput, error) {
	m := input.Body
	h.fillMarkers(ctx, &m)
	return h.renderHTML(render.Build(m, h.settings(), h.svc.Log), input.Page)
}

func (h *APIHandler) ComputeCentroid(ctx context.Context, input *struct{ Body CentroidBody }) (*struct{ Body CentroidResult }, error) {
	var res CentroidResult
	coords := make([]geo.Coordinate, 0, len(input.Body.Coords))
	for _, s := range input.Body.Coords {
		c, err := geo.ParseCoordinate(s)
		if err != nil {
			res.Skipped = append(res.Skipped, s)
			continue
		}
		coords = append(coords, c)
	}
	res.Valid = len(coords)

	center, ok := geo.Centroid(coords)
	if !ok {
		// Same fallback the widget uses.
		center = render.Build(service.MapConfig{}, h.settings(), h.svc.Log).Center
		res.Fallback = true
	}
	res.Center = center
	return &struct{ Body CentroidResult }{Body: res}, nil
}

func (h *APIHandler) GetMarkerIcon(ctx context.Context, input *MarkerIconInput) (*SVGOutput, error) {
	style := service.IconStyle{
		Type:              service.IconFontAwesome,
		Classes:           input.Classes,
		MarkerColor:       input.MarkerColor,
		MarkerFillOpacity: input.MarkerFillOpacity,
		MarkerStrokeColor: input.MarkerStrokeColor,
		MarkerStrokeWidth: input.MarkerStrokeWidth,
		IconColor:         input.IconColor,
		IconSize:          input.IconSize,
	}
	return &SVGOutput{
		ContentType:  "image/svg+xml",
		CacheControl: "public, max-age=3600",
		Body:         icon.Compose(style.FontAwesome()).SVG(),
	}, nil
}
