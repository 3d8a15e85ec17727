package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/osm-map/internal/humastar"
	"github.com/joeblew999/osm-map/internal/service"
	"github.com/joeblew999/osm-map/internal/templates"
	"github.com/joeblew999/osm-map/internal/tiles"
)

// TileHandler fills the tile provider select of the map form.
type TileHandler struct {
	humastar.Handler
	settings *service.SettingsService
}

// NewTileHandler creates a new tile handler. settings may be nil.
func NewTileHandler(settings *service.SettingsService, renderer *templates.Renderer) *TileHandler {
	return &TileHandler{
		Handler:  humastar.Handler{Renderer: renderer},
		settings: settings,
	}
}

// RegisterRoutes registers tile editor routes with Huma.
func (h *TileHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/tiles/select", h.ListTilesSelect, huma.OperationTags("editor"))
}

type TileSelectInput struct {
	Selected string `query:"selected" doc:"Provider key to preselect; defaults to osm-carto"`
}

// ListTilesSelect streams the provider catalog as grouped select options
// into #tile-select.
func (h *TileHandler) ListTilesSelect(ctx context.Context, input *TileSelectInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.RenderSelect("", tileOptions(input.Selected, h.keys())), "#tile-select")
	}), nil
}

func (h *TileHandler) keys() tiles.Keys {
	if h.settings == nil {
		return tiles.Keys{}
	}
	return h.settings.Get().TileKeys()
}

// tileOptions lists every provider. Providers missing their credentials
// are labelled but still selectable.
func tileOptions(selected string, keys tiles.Keys) []humastar.SelectOptionData {
	if selected == "" {
		selected = tiles.Default
	}
	providers := tiles.List()
	options := make([]humastar.SelectOptionData, 0, len(providers))
	for _, p := range providers {
		label := p.Label
		if missingKey(p, keys) {
			label += " (needs key)"
		}
		options = append(options, humastar.SelectOptionData{
			Value:    p.Key,
			Label:    label,
			Group:    p.Group,
			Selected: p.Key == selected,
		})
	}
	return options
}

func missingKey(p tiles.Provider, keys tiles.Keys) bool {
	switch p.Group {
	case "geoapify":
		return keys.Geoapify == ""
	case "custom":
		return keys.CustomURL == ""
	}
	return false
}
