package markertiles

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/osm-map/internal/pmtiles"
	"github.com/joeblew999/osm-map/internal/render"
	"github.com/joeblew999/osm-map/internal/service"
)

func view(markers ...service.Marker) render.View {
	return render.Build(service.MapConfig{ID: "offices", Name: "Offices", Zoom: 12, Markers: markers},
		service.Settings{}, zerolog.Nop())
}

var (
	nyc   = service.Marker{ID: "nyc", Title: "New York", Coords: "40.7128,-74.0060"}
	tokyo = service.Marker{ID: "tyo", Title: "Tokyo", Coords: "35.6762,139.6503"}
)

func TestTile(t *testing.T) {
	v := view(nyc, tokyo)
	tile := maptile.At(orb.Point{-74.0060, 40.7128}, 10)

	data, err := Tile(v, tile)
	require.NoError(t, err)

	layers, err := mvt.Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, LayerName, layers[0].Name)
	require.Len(t, layers[0].Features, 1)
	assert.Equal(t, "New York", layers[0].Features[0].Properties["title"])
	assert.Equal(t, "nyc", layers[0].Features[0].Properties["id"])
}

func TestTile_Empty(t *testing.T) {
	data, err := Tile(view(nyc), maptile.New(0, 0, 5))
	require.NoError(t, err)

	layers, err := mvt.Unmarshal(data)
	require.NoError(t, err)
	for _, l := range layers {
		assert.Empty(t, l.Features)
	}
}

func TestTile_HiddenExcluded(t *testing.T) {
	hidden := nyc
	hidden.Hidden = true

	data, err := Tile(view(hidden), maptile.At(orb.Point{-74.0060, 40.7128}, 10))
	require.NoError(t, err)
	layers, err := mvt.Unmarshal(data)
	require.NoError(t, err)
	for _, l := range layers {
		assert.Empty(t, l.Features)
	}
}

func TestTile_PolarMarkerClamped(t *testing.T) {
	polar := service.Marker{ID: "north", Title: "North", Coords: "89,10"}
	v := view(polar)
	require.Len(t, v.Markers, 1)

	data, err := Tile(v, maptile.New(0, 0, 0))
	require.NoError(t, err)
	layers, err := mvt.Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	require.Len(t, layers[0].Features, 1)

	a, err := Archive(v, 0, 3)
	require.NoError(t, err)
	require.Len(t, a.Tiles, 4)
	for tile, data := range a.Tiles {
		assert.Zero(t, tile.Y, "tile %v", tile)
		layers, err := mvt.Unmarshal(data)
		require.NoError(t, err)
		require.Len(t, layers[0].Features, 1)
		p := layers[0].Features[0].Geometry.(orb.Point)
		assert.GreaterOrEqual(t, p.Y(), 0.0, "tile %v", tile)
		assert.LessOrEqual(t, p.Y(), float64(Extent), "tile %v", tile)
	}
}

func TestArchive(t *testing.T) {
	a, err := Archive(view(nyc, tokyo), 0, 2)
	require.NoError(t, err)

	// Both markers share the world tile at z0 and split from z1 on.
	assert.Len(t, a.Tiles, 1+2+2)
	assert.Equal(t, uint8(2), a.CenterZoom)
	assert.InDelta(t, -74.0060, a.Bounds.Min.Lon(), 1e-9)
	assert.InDelta(t, 139.6503, a.Bounds.Max.Lon(), 1e-9)
	assert.InDelta(t, 40.7128, a.Bounds.Max.Lat(), 1e-9)
}

func TestArchive_ZoomRange(t *testing.T) {
	for _, r := range [][2]int{{-1, 2}, {3, 2}, {0, MaxZoom + 1}} {
		_, err := Archive(view(nyc), r[0], r[1])
		assert.ErrorIs(t, err, ErrZoomRange, "%v", r)
	}
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, view(nyc), 0, 4))

	h, err := pmtiles.ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), h.MinZoom)
	assert.Equal(t, uint8(4), h.MaxZoom)
	assert.Equal(t, uint64(5), h.TileEntries)
	assert.Equal(t, pmtiles.Mvt, h.TileType)
	assert.InDelta(t, 40.7128, h.Center.Lat(), 1e-6)
	assert.Equal(t, uint64(buf.Len()), h.TileDataOffset+h.TileDataLength)
}

func TestWriteArchive_NoMarkers(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteArchive(&buf, view(), 0, 4), pmtiles.ErrNoTiles)
}
