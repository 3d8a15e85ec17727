package geo

import (
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// minMeanNorm is the length below which the averaged unit vector is treated
// as zero. Only inputs that cancel out (an exact antipodal pair, or points
// spread evenly around a great circle) get here.
const minMeanNorm = 1e-12

// Centroid returns the geometric center of coords on the unit sphere.
//
// Each point is mapped to its unit vector, the vectors are averaged, and the
// mean is projected back to latitude/longitude. This avoids the error of
// averaging raw degrees across the antimeridian. ok is false for an empty
// input or when the mean vector has no direction.
func Centroid(coords []Coordinate) (c Coordinate, ok bool) {
	if len(coords) == 0 {
		return Coordinate{}, false
	}

	var sum r3.Vector
	for _, p := range coords {
		v := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng))
		sum = sum.Add(v.Vector)
	}
	mean := sum.Mul(1 / float64(len(coords)))
	if mean.Norm() < minMeanNorm {
		return Coordinate{}, false
	}

	ll := s2.LatLngFromPoint(s2.Point{Vector: mean})
	return Coordinate{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}, true
}
