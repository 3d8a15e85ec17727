// Package markertiles encodes the visible markers of a map as Mapbox
// vector tiles, one "markers" layer per tile, and bundles them into
// PMTiles archives.
package markertiles

import (
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/pmtiles"
	"github.com/joeblew999/osm-map/internal/render"
)

// LayerName is the MVT layer holding the markers.
const LayerName = "markers"

// MaxZoom is the highest zoom an archive may contain.
const MaxZoom = 18

// Extent is the tile coordinate resolution.
const Extent = 4096

// ErrZoomRange is returned for an invalid archive zoom range.
var ErrZoomRange = errors.New("invalid zoom range")

// Tile encodes the markers of v that fall inside t. A tile without markers
// still encodes an empty layer.
func Tile(v render.View, t maptile.Tile) ([]byte, error) {
	return encode(t, inTile(features(v), t))
}

// Archive builds a PMTiles archive of every non-empty tile between minZoom
// and maxZoom. The header carries the map center, zoom and marker bounds.
func Archive(v render.View, minZoom, maxZoom int) (pmtiles.Archive, error) {
	if minZoom < 0 || maxZoom > MaxZoom || minZoom > maxZoom {
		return pmtiles.Archive{}, fmt.Errorf("%w: %d-%d", ErrZoomRange, minZoom, maxZoom)
	}

	fc := features(v)
	tiles := make(map[maptile.Tile][]byte)
	for z := minZoom; z <= maxZoom; z++ {
		groups := make(map[maptile.Tile][]*geojson.Feature)
		for _, f := range fc.Features {
			t := maptile.At(clampLat(f.Geometry.(orb.Point)), maptile.Zoom(z))
			groups[t] = append(groups[t], f)
		}
		for t, fs := range groups {
			data, err := encode(t, fs)
			if err != nil {
				return pmtiles.Archive{}, err
			}
			tiles[t] = data
		}
	}

	a := pmtiles.Archive{
		Tiles: tiles,
		Metadata: map[string]any{
			"name":    v.Name,
			"format":  "pbf",
			"minzoom": minZoom,
			"maxzoom": maxZoom,
			"vector_layers": []map[string]any{{
				"id":     LayerName,
				"fields": map[string]string{"title": "String", "behavior": "String"},
			}},
		},
		MinZoom:    uint8(minZoom),
		MaxZoom:    uint8(maxZoom),
		Center:     v.Center.Point(),
		CenterZoom: uint8(min(v.Zoom, maxZoom)),
	}
	if fc.BBox != nil {
		a.Bounds = fc.BBox.Bound()
	} else {
		a.Bounds = orb.Bound{Min: v.Center.Point(), Max: v.Center.Point()}
	}
	return a, nil
}

// WriteArchive builds the archive for v and writes it to w.
func WriteArchive(w io.Writer, v render.View, minZoom, maxZoom int) error {
	a, err := Archive(v, minZoom, maxZoom)
	if err != nil {
		return err
	}
	_, err = a.WriteTo(w)
	return err
}

// maxMercatorLat sits just inside the web mercator limit so clamped points
// stay within the bound of the edge tiles.
const maxMercatorLat = 85.0511287

func clampLat(p orb.Point) orb.Point {
	return orb.Point{p[0], max(-maxMercatorLat, min(maxMercatorLat, p[1]))}
}

func features(v render.View) *geojson.FeatureCollection {
	return geo.FeatureCollection(v.Features())
}

func inTile(fc *geojson.FeatureCollection, t maptile.Tile) []*geojson.Feature {
	bound := t.Bound()
	var out []*geojson.Feature
	for _, f := range fc.Features {
		if p, ok := f.Geometry.(orb.Point); ok && bound.Contains(clampLat(p)) {
			out = append(out, f)
		}
	}
	return out
}

// encode projects copies of fs into tile coordinates. Projection mutates
// geometry in place, so the shared features are never handed to mvt.
func encode(t maptile.Tile, fs []*geojson.Feature) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range fs {
		c := geojson.NewFeature(clampLat(f.Geometry.(orb.Point)))
		if f.ID != nil {
			c.Properties["id"] = f.ID
		}
		for k, v := range f.Properties {
			c.Properties[k] = v
		}
		fc.Append(c)
	}

	layer := mvt.NewLayer(LayerName, fc)
	layer.Extent = Extent
	layer.ProjectToTile(t)

	data, err := mvt.Marshal(mvt.Layers{layer})
	if err != nil {
		return nil, fmt.Errorf("encode tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
	}
	return data, nil
}
