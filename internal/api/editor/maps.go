package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/geocode"
	"github.com/joeblew999/osm-map/internal/humastar"
	"github.com/joeblew999/osm-map/internal/icon"
	"github.com/joeblew999/osm-map/internal/render"
	"github.com/joeblew999/osm-map/internal/service"
	"github.com/joeblew999/osm-map/internal/templates"
)

// BasePath is the editor map collection. The generated form and the
// editor page discover their routes below it.
const BasePath = "/api/v1/editor/maps"

// MapHandler streams the map list, the preview and marker edits.
type MapHandler struct {
	humastar.Handler
	maps     *service.MapService
	settings *service.SettingsService
	widgets  *render.Renderer
	geocoder geocode.Geocoder
	log      zerolog.Logger
}

// NewMapHandler creates the editor map handler. settings and geocoder may
// be nil.
func NewMapHandler(maps *service.MapService, settings *service.SettingsService, geocoder geocode.Geocoder, renderer *templates.Renderer, log zerolog.Logger) *MapHandler {
	return &MapHandler{
		Handler:  humastar.Handler{Renderer: renderer},
		maps:     maps,
		settings: settings,
		widgets:  render.NewRenderer(renderer),
		geocoder: geocoder,
		log:      log,
	}
}

func (h *MapHandler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("editor")
	huma.Get(api, BasePath, h.ListMaps, tags)
	huma.Post(api, BasePath, h.CreateMap, tags)
	huma.Delete(api, BasePath+"/{id}", h.DeleteMap, tags)
	huma.Get(api, BasePath+"/{id}/preview", h.Preview, tags)
	huma.Post(api, BasePath+"/{id}/markers", h.AddMarker, tags)
	huma.Put(api, BasePath+"/{id}/icon", h.UpdateIcon, tags)
}

type MapIDInput struct {
	ID string `path:"id" doc:"Map ID"`
}

type MapSignalsInput struct {
	MapIDInput
	humastar.SignalsInput
}

func (h *MapHandler) ListMaps(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderMapList(), "#map-list")
	}), nil
}

func (h *MapHandler) CreateMap(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Decode()
	if err != nil {
		return nil, err
	}
	m := ParseMapSignals(signals)
	if m.Name == "" {
		return nil, huma.Error400BadRequest("Map name is required")
	}

	return h.Stream(func(sse humastar.SSE) {
		created, err := h.maps.Create(m)
		if err != nil {
			sse.Error(err.Error())
			return
		}

		reset := ResetMapSignals()
		reset["success"] = fmt.Sprintf("Map '%s' created", created.Name)
		reset["error"] = ""
		reset["selectedmap"] = created.ID
		sse.Signals(reset)

		sse.Patch(h.renderMapList(), "#map-list")
		h.patchPreview(sse, created, nil)
		sse.Changed("map-changed", "created", created.ID, map[string]any{"name": created.Name})
	}), nil
}

func (h *MapHandler) DeleteMap(ctx context.Context, input *MapIDInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.maps.Delete(input.ID); err != nil {
			sse.Error(err.Error())
			return
		}

		sse.RemoveElementByID("map-" + input.ID)
		sse.Success("Map deleted")
		sse.Changed("map-changed", "deleted", input.ID, nil)
	}), nil
}

// Preview renders the widget for a stored map into #map-preview and lists
// its markers.
func (h *MapHandler) Preview(ctx context.Context, input *MapIDInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		m, ok := h.maps.Get(input.ID)
		if !ok {
			sse.Error("map not found: " + input.ID)
			return
		}
		sse.Signals(map[string]any{"selectedmap": m.ID})
		h.patchPreview(sse, m, nil)
	}), nil
}

// AddMarker appends a marker from the marker panel, geocoding its location
// when no coordinates were typed.
func (h *MapHandler) AddMarker(ctx context.Context, input *MapSignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Decode()
	if err != nil {
		return nil, err
	}
	marker := ParseMarkerSignals(signals)
	if marker.Coords == "" && marker.Location == "" {
		return nil, huma.Error400BadRequest("Coordinates or a location are required")
	}
	if marker.Coords != "" {
		if _, err := geo.ParseCoordinate(marker.Coords); err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
	}

	return h.Stream(func(sse humastar.SSE) {
		if _, ok := h.maps.Get(input.ID); !ok {
			sse.Error("map not found: " + input.ID)
			return
		}

		marker.ID = uuid.NewString()[:8]
		markers := []service.Marker{marker}
		if marker.Coords == "" {
			if h.geocoder == nil {
				sse.Error("Geocoding is not configured; enter coordinates")
				return
			}
			if geocode.FillMarkers(ctx, h.geocoder, markers, h.log) == 0 {
				sse.Errorf("Location '%s' not found", marker.Location)
				return
			}
		}

		updated, err := h.maps.Modify(input.ID, func(m *service.MapConfig) error {
			m.Markers = append(m.Markers, markers[0])
			return nil
		})
		if err != nil {
			sse.Error(err.Error())
			return
		}

		reset := ResetMarkerSignals()
		reset["success"] = "Marker added"
		reset["error"] = ""
		sse.Signals(reset)
		h.patchPreview(sse, updated, nil)
	}), nil
}

// UpdateIcon restyles every marker of a map from the icon panel. The pin is
// composed from the stored style and the posted changes are applied in
// place, so untouched properties keep their values.
func (h *MapHandler) UpdateIcon(ctx context.Context, input *MapSignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.Decode()
	if err != nil {
		return nil, err
	}

	return h.Stream(func(sse humastar.SSE) {
		var pin *icon.FontAwesome
		updated, err := h.maps.Modify(input.ID, func(m *service.MapConfig) error {
			m.Icon = ParseIconSignals(signals, m.Icon)
			pin = icon.Compose(m.Icon.FontAwesome())
			pin.SetStyle(ParseIconStyle(signals))
			m.Icon = m.Icon.WithFontAwesome(pin.Options())
			return nil
		})
		if errors.Is(err, service.ErrNotFound) {
			sse.Error("map not found: " + input.ID)
			return
		}
		if err != nil {
			sse.Error(err.Error())
			return
		}
		if updated.Icon.Type != service.IconFontAwesome {
			pin = nil
		}
		sse.Success("Icon updated")
		h.patchPreview(sse, updated, pin)
	}), nil
}

func (h *MapHandler) currentSettings() service.Settings {
	if h.settings == nil {
		return service.Settings{FallbackCenter: service.DefaultFallbackCenter}
	}
	return h.settings.Get()
}

// patchPreview re-renders the widget and marker list of m. A non-nil pin
// replaces the icon Build would compose.
func (h *MapHandler) patchPreview(sse humastar.SSE, m service.MapConfig, pin *icon.FontAwesome) {
	v := render.Build(m, h.currentSettings(), h.log)
	if pin != nil {
		v.Icon = render.FontAwesomeIcon(pin)
	}
	widget, err := h.widgets.WidgetHTML(v)
	if err != nil {
		h.log.Error().Err(err).Str("map", m.ID).Msg("Render preview failed")
		sse.Error("Failed to render map")
		return
	}
	sse.Patch(string(widget), "#map-preview")
	sse.Patch(h.renderMarkerList(m), "#marker-list")
	if len(v.Skipped) > 0 {
		sse.Signals(map[string]any{"skipped": len(v.Skipped)})
	}
}

// MapCardData holds data for the map-card template.
type MapCardData struct {
	ID         string
	Name       string
	Tile       string
	Markers    int
	Hidden     int
	PreviewURL string
	DeleteURL  string
}

// MarkerRowData holds data for the marker-row template.
type MarkerRowData struct {
	service.Marker
	MapID string
}

func (h *MapHandler) renderMapList() string {
	return h.RenderList("map-card", mapCards(h.maps.List()), "No maps yet", "Create a map to get started")
}

func (h *MapHandler) renderMarkerList(m service.MapConfig) string {
	items := make([]any, 0, len(m.Markers))
	for _, mk := range m.Markers {
		items = append(items, MarkerRowData{Marker: mk, MapID: m.ID})
	}
	return h.RenderList("marker-row", items, "No markers", "Add a marker by coordinates or location")
}

func mapCards(maps []service.MapConfig) []any {
	items := make([]any, 0, len(maps))
	for _, m := range maps {
		card := MapCardData{
			ID:         m.ID,
			Name:       m.Name,
			Tile:       m.Tile,
			Markers:    len(m.Markers),
			PreviewURL: BasePath + "/" + m.ID + "/preview",
			DeleteURL:  BasePath + "/" + m.ID,
		}
		for _, mk := range m.Markers {
			if mk.Hidden {
				card.Hidden++
			}
		}
		items = append(items, card)
	}
	return items
}
