package pmtiles

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZxyToID(t *testing.T) {
	tests := []struct {
		tile maptile.Tile
		want uint64
	}{
		{maptile.New(0, 0, 0), 0},
		{maptile.New(0, 0, 1), 1},
		{maptile.New(0, 1, 1), 2},
		{maptile.New(1, 1, 1), 3},
		{maptile.New(1, 0, 1), 4},
		{maptile.New(0, 0, 2), 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZxyToID(tt.tile), "%v", tt.tile)
	}
}

func TestArchive_WriteTo(t *testing.T) {
	a := Archive{
		Tiles: map[maptile.Tile][]byte{
			maptile.New(1, 0, 1): []byte("b"),
			maptile.New(0, 0, 0): []byte("a"),
		},
		Metadata:   map[string]any{"name": "test"},
		MinZoom:    0,
		MaxZoom:    1,
		Bounds:     orb.Bound{Min: orb.Point{-74.006, 40.7128}, Max: orb.Point{-0.1278, 51.5074}},
		Center:     orb.Point{-37.0669, 46.1101},
		CenterZoom: 1,
	}

	var buf bytes.Buffer
	n, err := a.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	h, err := ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(HeaderLen), h.RootOffset)
	assert.Equal(t, uint64(2), h.AddressedTiles)
	assert.True(t, h.Clustered)
	assert.Equal(t, Gzip, h.TileCompression)
	assert.Equal(t, uint8(1), h.MaxZoom)
	assert.InDelta(t, -74.006, h.Bounds.Min.Lon(), 1e-7)
	assert.InDelta(t, 51.5074, h.Bounds.Max.Lat(), 1e-7)
	assert.InDelta(t, 46.1101, h.Center.Lat(), 1e-7)
	assert.Equal(t, uint8(1), h.CenterZoom)
}

func TestArchive_Empty(t *testing.T) {
	_, err := Archive{}.WriteTo(&bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoTiles)
}

func TestReadHeader_Invalid(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte("short")))
	assert.Error(t, err)

	_, err = ReadHeader(bytes.NewReader(make([]byte, HeaderLen)))
	assert.ErrorContains(t, err, "not a v3 archive")
}
