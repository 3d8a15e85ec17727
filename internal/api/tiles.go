package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/osm-map/internal/markertiles"
	"github.com/joeblew999/osm-map/internal/pmtiles"
	"github.com/joeblew999/osm-map/internal/render"
)

type MarkerTileInput struct {
	IDInput
	Z uint32 `path:"z" maximum:"22" doc:"Zoom"`
	X uint32 `path:"x" doc:"Tile column"`
	Y uint32 `path:"y" doc:"Tile row"`
}

type ArchiveInput struct {
	IDInput
	MinZoom int `query:"minZoom" minimum:"0" maximum:"18" default:"0" doc:"Lowest zoom in the archive"`
	MaxZoom int `query:"maxZoom" minimum:"0" maximum:"18" default:"14" doc:"Highest zoom in the archive"`
}

// BinaryOutput is an encoded tile or archive.
type BinaryOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// RegisterMarkerTiles registers the vector tile exports of a map's markers.
func (h *APIHandler) RegisterMarkerTiles(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-marker-tile",
		Method:      http.MethodGet,
		Path:        "/api/v1/maps/{id}/tiles/{z}/{x}/{y}",
		Summary:     "Get a vector tile of the map's markers",
		Tags:        []string{"maps"},
		Responses: map[string]*huma.Response{
			"200": {Description: "MVT with a markers layer", Content: map[string]*huma.MediaType{"application/vnd.mapbox-vector-tile": {}}},
		},
	}, h.GetMarkerTile)

	huma.Register(api, huma.Operation{
		OperationID: "get-marker-archive",
		Method:      http.MethodGet,
		Path:        "/api/v1/maps/{id}/pmtiles",
		Summary:     "Export the map's markers as a PMTiles archive",
		Tags:        []string{"maps"},
		Responses: map[string]*huma.Response{
			"200": {Description: "PMTiles v3 archive", Content: map[string]*huma.MediaType{"application/vnd.pmtiles": {}}},
		},
	}, h.GetMarkerArchive)
}

func (h *APIHandler) GetMarkerTile(ctx context.Context, input *MarkerTileInput) (*BinaryOutput, error) {
	if n := uint32(1) << input.Z; input.X >= n || input.Y >= n {
		return nil, huma.Error400BadRequest("tile outside the zoom level")
	}
	m, ok := h.svc.Maps.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("map not found")
	}

	v := render.Build(m, h.settings(), h.svc.Log)
	data, err := markertiles.Tile(v, maptile.New(input.X, input.Y, maptile.Zoom(input.Z)))
	if err != nil {
		return nil, huma.Error500InternalServerError("encode tile", err)
	}
	return &BinaryOutput{ContentType: "application/vnd.mapbox-vector-tile", Body: data}, nil
}

func (h *APIHandler) GetMarkerArchive(ctx context.Context, input *ArchiveInput) (*BinaryOutput, error) {
	m, ok := h.svc.Maps.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("map not found")
	}

	var buf bytes.Buffer
	err := markertiles.WriteArchive(&buf, render.Build(m, h.settings(), h.svc.Log), input.MinZoom, input.MaxZoom)
	switch {
	case errors.Is(err, markertiles.ErrZoomRange):
		return nil, huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, pmtiles.ErrNoTiles):
		return nil, huma.Error404NotFound("map has no visible markers")
	case err != nil:
		return nil, huma.Error500InternalServerError("write archive", err)
	}
	return &BinaryOutput{
		ContentType:        "application/vnd.pmtiles",
		ContentDisposition: `attachment; filename="` + m.ID + `.pmtiles"`,
		Body:               buf.Bytes(),
	}, nil
}
