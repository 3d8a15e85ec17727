package geo

import (
	"github.com/paulmach/orb/geojson"
)

// Feature is a located point with its GeoJSON properties.
type Feature struct {
	ID         string
	Coordinate Coordinate
	Properties map[string]any
}

// FeatureCollection exports features as GeoJSON points. The collection
// carries the bounding box of its points.
func FeatureCollection(features []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	coords := make([]Coordinate, 0, len(features))

	for _, f := range features {
		gf := geojson.NewFeature(f.Coordinate.Point())
		if f.ID != "" {
			gf.ID = f.ID
		}
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
		coords = append(coords, f.Coordinate)
	}

	if len(coords) > 0 {
		fc.BBox = geojson.NewBBox(Bound(coords))
	}
	return fc
}
