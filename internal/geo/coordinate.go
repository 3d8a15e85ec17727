// Package geo parses marker coordinates and computes the map center.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrInvalidCoordinate is returned when a "lat,lng" string cannot be used.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat" doc:"Latitude in degrees" example:"40.7128"`
	Lng float64 `json:"lng" yaml:"lng" doc:"Longitude in degrees" example:"-74.006"`
}

// ParseCoordinate parses free text in the form "lat,lng".
// Exactly two comma-separated values are accepted.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("%w: %q: want \"lat,lng\"", ErrInvalidCoordinate, s)
	}

	lat, err := parseDegrees(parts[0])
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q: latitude: %v", ErrInvalidCoordinate, s, err)
	}
	lng, err := parseDegrees(parts[1])
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q: longitude: %v", ErrInvalidCoordinate, s, err)
	}

	c := Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("%w: %q: out of range", ErrInvalidCoordinate, s)
	}
	return c, nil
}

func parseDegrees(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

// Valid reports whether the coordinate lies within the WGS84 degree ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Point returns the coordinate as an orb point ([lng, lat]).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// String formats the coordinate as "lat,lng", the form used by data-center.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// FromPoint converts an orb point back to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// Bound returns the bounding box of the coordinates.
// An empty input yields the zero bound.
func Bound(coords []Coordinate) orb.Bound {
	if len(coords) == 0 {
		return orb.Bound{}
	}
	mp := make(orb.MultiPoint, len(coords))
	for i, c := range coords {
		mp[i] = c.Point()
	}
	return mp.Bound()
}
