package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/pmtiles"
)

const officesYAML = `
name: Offices
zoom: 12
zoomMobile: 9
tile: stadia-outdoors
markers:
  - title: HQ
    coords: "40.7128,-74.0060"
  - title: Broken
    coords: "north"
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "offices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(officesYAML), 0o644))
	return path
}

func TestLoadMapConfig(t *testing.T) {
	m, err := loadMapConfig(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "Offices", m.Name)
	assert.Equal(t, 12, m.Zoom)
	assert.Equal(t, 9, m.ZoomMobile)
	require.Len(t, m.Markers, 2)
	assert.Equal(t, "40.7128,-74.0060", m.Markers[0].Coords)

	_, err = loadMapConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRenderFile(t *testing.T) {
	path := writeConfig(t)

	var page bytes.Buffer
	require.NoError(t, renderFile(&page, path, false, zerolog.Nop()))
	assert.Contains(t, page.String(), "<!DOCTYPE html>")
	assert.Contains(t, page.String(), "osm-map-container")

	var widget bytes.Buffer
	require.NoError(t, renderFile(&widget, path, true, zerolog.Nop()))
	assert.NotContains(t, widget.String(), "<!DOCTYPE html>")
	assert.Contains(t, widget.String(), `data-zoom="12"`)
}

func TestPrintCenter(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printCenter(&out, []string{"10,20", "bad"}, zerolog.Nop()))
	c, err := geo.ParseCoordinate(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.InDelta(t, 10, c.Lat, 1e-9)
	assert.InDelta(t, 20, c.Lng, 1e-9)

	out.Reset()
	require.NoError(t, printCenter(&out, nil, zerolog.Nop()))
	assert.NotEmpty(t, out.String())
}

func TestWriteTiles(t *testing.T) {
	out := filepath.Join(t.TempDir(), "markers.pmtiles")
	require.NoError(t, writeTiles(out, writeConfig(t), 0, 3, zerolog.Nop()))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	h, err := pmtiles.ReadHeader(f)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), h.MaxZoom)
	assert.Equal(t, uint64(4), h.TileEntries)

	bad := filepath.Join(t.TempDir(), "bad.pmtiles")
	assert.Error(t, writeTiles(bad, writeConfig(t), 4, 2, zerolog.Nop()))
	assert.NoFileExists(t, bad)
}
