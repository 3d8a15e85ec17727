package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestParseCoordinate_Valid(t *testing.T) {
	c, err := ParseCoordinate("40.7128,-74.0060")

	require.NoError(t, err)
	assert.Equal(t, 40.7128, c.Lat)
	assert.Equal(t, -74.006, c.Lng)
}

func TestParseCoordinate_TrimsWhitespace(t *testing.T) {
	c, err := ParseCoordinate(" 51.5 , -0.12 ")

	require.NoError(t, err)
	assert.Equal(t, 51.5, c.Lat)
	assert.Equal(t, -0.12, c.Lng)
}

func TestParseCoordinate_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"invalid",
		"40.7128",
		"40.7128,",
		",-74.0060",
		"40.7128,-74.0060,12",
		"abc,def",
		"NaN,10",
		"10,Inf",
		"91,0",
		"-90.0001,0",
		"0,180.5",
		"0,-181",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseCoordinate(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCoordinate))
		})
	}
}

func TestCoordinate_String(t *testing.T) {
	assert.Equal(t, "40.7128,-74.006", Coordinate{Lat: 40.7128, Lng: -74.006}.String())
}

func TestCoordinate_PointRoundTrip(t *testing.T) {
	c := Coordinate{Lat: 12.5, Lng: -3.25}
	p := c.Point()

	assert.Equal(t, -3.25, p.Lon())
	assert.Equal(t, 12.5, p.Lat())
	assert.Equal(t, c, FromPoint(p))
}

func TestCentroid_Empty(t *testing.T) {
	_, ok := Centroid(nil)
	assert.False(t, ok)
}

func TestCentroid_SinglePoint(t *testing.T) {
	points := []Coordinate{
		{Lat: 40.7128, Lng: -74.0060},
		{Lat: 0, Lng: 0},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 64.1466, Lng: -21.9426},
	}
	for _, p := range points {
		c, ok := Centroid([]Coordinate{p})
		require.True(t, ok)
		assert.InDelta(t, p.Lat, c.Lat, tolerance)
		assert.InDelta(t, p.Lng, c.Lng, tolerance)
	}
}

func TestCentroid_AcrossAntimeridian(t *testing.T) {
	// A naive mean of 179 and -179 would give 0.
	c, ok := Centroid([]Coordinate{{Lat: 0, Lng: 179}, {Lat: 0, Lng: -179}})

	require.True(t, ok)
	assert.InDelta(t, 0, c.Lat, tolerance)
	assert.InDelta(t, 180, math.Abs(c.Lng), tolerance)
}

func TestCentroid_Symmetric(t *testing.T) {
	c, ok := Centroid([]Coordinate{{Lat: 10, Lng: 20}, {Lat: -10, Lng: 20}})

	require.True(t, ok)
	assert.InDelta(t, 0, c.Lat, tolerance)
	assert.InDelta(t, 20, c.Lng, tolerance)
}

func TestCentroid_NearAntipodal(t *testing.T) {
	c, ok := Centroid([]Coordinate{{Lat: 10, Lng: 10}, {Lat: -9.9, Lng: -170}})

	require.True(t, ok)
	assert.False(t, math.IsNaN(c.Lat))
	assert.False(t, math.IsNaN(c.Lng))
	assert.True(t, c.Valid())
}

func TestCentroid_ExactlyAntipodal(t *testing.T) {
	_, ok := Centroid([]Coordinate{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 180}})
	assert.False(t, ok)
}

func TestCentroid_StaysInRange(t *testing.T) {
	sets := [][]Coordinate{
		{{Lat: 89.9, Lng: 0}, {Lat: 89.9, Lng: 120}, {Lat: 89.9, Lng: -120}},
		{{Lat: -45, Lng: 170}, {Lat: -50, Lng: -175}, {Lat: -40, Lng: 179.5}},
		{{Lat: 90, Lng: 0}, {Lat: 0, Lng: 90}},
		{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}, {Lat: 4, Lng: 4}},
	}
	for _, set := range sets {
		c, ok := Centroid(set)
		require.True(t, ok)
		assert.True(t, c.Valid(), "centroid %v out of range", c)
	}
}

func TestBound(t *testing.T) {
	b := Bound([]Coordinate{{Lat: 10, Lng: -5}, {Lat: -2, Lng: 7}})

	assert.Equal(t, -5.0, b.Min.Lon())
	assert.Equal(t, -2.0, b.Min.Lat())
	assert.Equal(t, 7.0, b.Max.Lon())
	assert.Equal(t, 10.0, b.Max.Lat())
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection([]Feature{
		{ID: "a", Coordinate: Coordinate{Lat: 1, Lng: 2}, Properties: map[string]any{"title": "A"}},
		{ID: "b", Coordinate: Coordinate{Lat: 3, Lng: 4}},
	})

	require.Len(t, fc.Features, 2)
	assert.Equal(t, "a", fc.Features[0].ID)
	assert.Equal(t, "A", fc.Features[0].Properties["title"])
	assert.Equal(t, []float64{2, 1, 4, 3}, []float64(fc.BBox))
}
