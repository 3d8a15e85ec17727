package editor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/geocode"
	"github.com/joeblew999/osm-map/internal/humastar"
	"github.com/joeblew999/osm-map/internal/service"
	"github.com/joeblew999/osm-map/internal/templates"
	"github.com/joeblew999/osm-map/web"
)

type stubGeocoder map[string]geo.Coordinate

func (s stubGeocoder) Geocode(_ context.Context, q string) (geocode.Result, error) {
	c, ok := s[geocode.Normalize(q)]
	if !ok {
		return geocode.Result{}, geocode.ErrNoResult
	}
	return geocode.Result{Query: q, Coordinate: c, Provider: "stub"}, nil
}

type editorEnv struct {
	mux  *http.ServeMux
	maps *service.MapService
	bus  *service.EventBus
}

func newEditor(t *testing.T, g geocode.Geocoder) editorEnv {
	t.Helper()

	tmpl, err := templates.New(web.FS)
	require.NoError(t, err)

	dir := t.TempDir()
	bus := service.NewEventBus()
	maps := service.NewMapService(dir, bus, zerolog.Nop())
	settings := service.NewSettingsService(dir, service.Settings{}, bus, zerolog.Nop())

	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("test", "1.0.0"))
	mh := NewMapHandler(maps, settings, g, tmpl, zerolog.Nop())
	mh.RegisterRoutes(api)
	NewTileHandler(settings, tmpl).RegisterRoutes(api)
	NewEventHandler(bus, mh).RegisterRoutes(api)

	return editorEnv{mux: mux, maps: maps, bus: bus}
}

func (e editorEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func TestParseMapSignals(t *testing.T) {
	m := ParseMapSignals(humastar.Signals{
		"newmapname":       "  Offices ",
		"newmapzoom":       "12",
		"newmapzoommobile": float64(8),
		"newmapheight":     float64(400),
		"newmapheightunit": "vh",
		"newmapnopan":      true,
		"newmaptile":       "stadia-outdoors",
	})

	assert.Equal(t, "Offices", m.Name)
	assert.Equal(t, 12, m.Zoom)
	assert.Equal(t, 8, m.ZoomMobile)
	assert.Equal(t, 400, m.Height)
	assert.Equal(t, "vh", m.HeightUnit)
	assert.True(t, m.DisablePan)
	assert.False(t, m.DisableScrollWheel)
	assert.Equal(t, "stadia-outdoors", m.Tile)
}

func TestParseIconSignals_KeepsUnsetFields(t *testing.T) {
	current := service.IconStyle{Type: service.IconFontAwesome, Classes: "fa fa-home", IconSize: 14}
	got := ParseIconSignals(humastar.Signals{"iconimageurl": " /pin.png "}, current)

	assert.Equal(t, service.IconFontAwesome, got.Type)
	assert.Equal(t, "fa fa-home", got.Classes)
	assert.Equal(t, 14, got.IconSize)
	assert.Equal(t, "/pin.png", got.Image.URL)
}

func TestParseIconStyle_OnlyPresentSignals(t *testing.T) {
	st := ParseIconStyle(humastar.Signals{
		"iconmarkercolor":   "#ff0000",
		"iconstrokecolor":   "",
		"iconmarkeropacity": "0.5",
		"iconyoffset":       3,
	})

	require.NotNil(t, st.MarkerColor)
	assert.Equal(t, "#ff0000", *st.MarkerColor)
	require.NotNil(t, st.MarkerFillOpacity)
	assert.Equal(t, 0.5, *st.MarkerFillOpacity)
	require.NotNil(t, st.IconYOffset)
	assert.Equal(t, 3, *st.IconYOffset)
	assert.Nil(t, st.MarkerStrokeColor)
	assert.Nil(t, st.IconColor)
	assert.Nil(t, st.IconSize)
	assert.Nil(t, st.IconXOffset)
	assert.Nil(t, st.MarkerStrokeWidth)
}

func TestListMaps_Empty(t *testing.T) {
	e := newEditor(t, nil)

	rec := e.do(t, http.MethodGet, BasePath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "datastar-patch-elements")
	assert.Contains(t, rec.Body.String(), "#map-list")
	assert.Contains(t, rec.Body.String(), "No maps yet")
}

func TestCreateMap(t *testing.T) {
	e := newEditor(t, nil)

	rec := e.do(t, http.MethodPost, BasePath, `{"newmapname":"Offices","newmapzoom":11}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="map-offices"`)
	assert.Contains(t, body, "#map-preview")
	assert.Contains(t, body, "Map 'Offices' created")

	m, ok := e.maps.Get("offices")
	require.True(t, ok)
	assert.Equal(t, 11, m.Zoom)
}

func TestCreateMap_MissingName(t *testing.T) {
	e := newEditor(t, nil)

	rec := e.do(t, http.MethodPost, BasePath, `{"newmapname":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, e.maps.List())
}

func TestCreateMap_Duplicate(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, BasePath, `{"newmapname":"Offices"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestDeleteMap(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	rec := e.do(t, http.MethodDelete, BasePath+"/offices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#map-offices")
	assert.Contains(t, rec.Body.String(), "map-changed")

	_, ok := e.maps.Get("offices")
	assert.False(t, ok)
}

func TestPreview(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices", Markers: []service.Marker{
		{ID: "a", Title: "HQ", Coords: "40.7128,-74.0060"},
	}})
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, BasePath+"/offices/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "osm-map-container")
	assert.Contains(t, body, "#marker-list")
	assert.Contains(t, body, "HQ")

	rec = e.do(t, http.MethodGet, BasePath+"/missing/preview", "")
	assert.Contains(t, rec.Body.String(), "map not found")
}

func TestAddMarker_Coordinates(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, BasePath+"/offices/markers", `{"markertitle":"HQ","markercoords":"40.7128,-74.0060"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Marker added")

	m, _ := e.maps.Get("offices")
	require.Len(t, m.Markers, 1)
	assert.Equal(t, "HQ", m.Markers[0].Title)
	assert.NotEmpty(t, m.Markers[0].ID)
}

func TestAddMarker_Validation(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, BasePath+"/offices/markers", `{"markertitle":"HQ"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, BasePath+"/offices/markers", `{"markercoords":"north"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, BasePath+"/offices/markers", `{"markerlocation":"Times Square"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Geocoding is not configured")
}

func TestAddMarker_Geocoded(t *testing.T) {
	e := newEditor(t, stubGeocoder{"times square": {Lat: 40.758, Lng: -73.9855}})
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, BasePath+"/offices/markers", `{"markerlocation":"Times  Square"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	m, _ := e.maps.Get("offices")
	require.Len(t, m.Markers, 1)
	assert.Equal(t, "40.758,-73.9855", m.Markers[0].Coords)

	rec = e.do(t, http.MethodPost, BasePath+"/offices/markers", `{"markerlocation":"Atlantis"}`)
	assert.Contains(t, rec.Body.String(), "Location 'Atlantis' not found")
}

func TestUpdateIcon(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPut, BasePath+"/offices/icon", `{"icontype":"fontawesome","iconclasses":"fa fa-coffee","iconsize":"16"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Icon updated")

	m, _ := e.maps.Get("offices")
	assert.Equal(t, service.IconFontAwesome, m.Icon.Type)
	assert.Equal(t, "fa fa-coffee", m.Icon.Classes)
	assert.Equal(t, 16, m.Icon.IconSize)
}

func TestUpdateIcon_RestylesInPlace(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices",
		Icon:    service.IconStyle{Type: service.IconFontAwesome, Classes: "fa fa-home", IconSize: 14, IconXOffset: 2},
		Markers: []service.Marker{{ID: "a", Coords: "40.7128,-74.0060"}},
	})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPut, BasePath+"/offices/icon", `{"iconmarkercolor":"#ff0000","iconyoffset":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Icon updated")
	assert.Contains(t, body, "ff0000")
	assert.Contains(t, body, "leaflet-fa-markers")

	m, _ := e.maps.Get("offices")
	assert.Equal(t, "fa fa-home", m.Icon.Classes)
	assert.Equal(t, "#ff0000", m.Icon.MarkerColor)
	assert.Equal(t, 14, m.Icon.IconSize)
	assert.Equal(t, 2, m.Icon.IconXOffset)
	assert.Equal(t, 4, m.Icon.IconYOffset)
}

func TestUpdateIcon_MissingMap(t *testing.T) {
	e := newEditor(t, nil)

	rec := e.do(t, http.MethodPut, BasePath+"/missing/icon", `{"iconmarkercolor":"#ff0000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "map not found")
}

func TestAddMarker_ConcurrentAddsKeepAll(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.do(t, http.MethodPost, BasePath+"/offices/markers", `{"markercoords":"40.7128,-74.0060"}`)
		}()
	}
	wg.Wait()

	m, _ := e.maps.Get("offices")
	assert.Len(t, m.Markers, 10)
}

func TestAddMarker_UnknownBehavior(t *testing.T) {
	e := newEditor(t, nil)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, BasePath+"/offices/markers", `{"markercoords":"1,2","markerbehavior":"explode"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	m, _ := e.maps.Get("offices")
	require.Len(t, m.Markers, 1)
	assert.Equal(t, service.BehaviorPopup, m.Markers[0].Behavior)
}

func TestTileSelect(t *testing.T) {
	e := newEditor(t, nil)

	rec := e.do(t, http.MethodGet, "/api/v1/editor/tiles/select?selected=stadia-outdoors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "#tile-select")
	assert.Contains(t, body, `value="stadia-outdoors" selected`)
	assert.Contains(t, body, "(needs key)")
}

func TestTileOptions_DefaultSelection(t *testing.T) {
	opts := tileOptions("", service.Settings{GeoapifyKey: "k"}.TileKeys())
	var selected []string
	for _, o := range opts {
		if o.Selected {
			selected = append(selected, o.Value)
		}
		if o.Group == "geoapify" {
			assert.NotContains(t, o.Label, "needs key")
		}
	}
	assert.Equal(t, []string{"osm-carto"}, selected)
}

func TestEvents_PatchesOnChange(t *testing.T) {
	e := newEditor(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/editor/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		e.mux.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return e.bus.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	_, err := e.maps.Create(service.MapConfig{Name: "Offices"})
	require.NoError(t, err)

	// Give the stream a moment to write before closing it.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "resource-changed")
	assert.Contains(t, body, `id="map-offices"`)
	assert.Equal(t, 0, e.bus.Subscribers())
}
