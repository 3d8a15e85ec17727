package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/osm-map/internal/config"
	"github.com/joeblew999/osm-map/internal/geo"
	"github.com/joeblew999/osm-map/internal/markertiles"
	"github.com/joeblew999/osm-map/internal/render"
	"github.com/joeblew999/osm-map/internal/service"
	"github.com/joeblew999/osm-map/internal/templates"
	"github.com/joeblew999/osm-map/web"
)

// loadMapConfig reads a map config from YAML. Keys follow the JSON API
// names, so the same document can be posted to /api/v1/render.
func loadMapConfig(path string) (service.MapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return service.MapConfig{}, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return service.MapConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return service.MapConfig{}, fmt.Errorf("convert %s: %w", path, err)
	}

	var m service.MapConfig
	if err := json.Unmarshal(b, &m); err != nil {
		return service.MapConfig{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

func renderFile(w io.Writer, path string, widgetOnly bool, log zerolog.Logger) error {
	m, err := loadMapConfig(path)
	if err != nil {
		return err
	}

	tmpl, err := templates.New(web.FS)
	if err != nil {
		return err
	}
	r := render.NewRenderer(tmpl)

	v := render.Build(m, config.Settings(), log)
	if widgetOnly {
		return r.Widget(w, v)
	}
	return r.Page(w, v)
}

// writeTiles renders the config and writes its marker archive to out. A
// failed write removes the partial file.
func writeTiles(out, path string, minZoom, maxZoom int, log zerolog.Logger) (err error) {
	m, err := loadMapConfig(path)
	if err != nil {
		return err
	}
	v := render.Build(m, config.Settings(), log)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
		}
	}()
	return markertiles.WriteArchive(f, v, minZoom, maxZoom)
}

// printCenter writes the centroid of args, or the fallback center when no
// argument parses.
func printCenter(w io.Writer, args []string, log zerolog.Logger) error {
	coords := make([]geo.Coordinate, 0, len(args))
	for _, a := range args {
		c, err := geo.ParseCoordinate(a)
		if err != nil {
			log.Warn().Err(err).Str("input", a).Msg("Skipping coordinate")
			continue
		}
		coords = append(coords, c)
	}

	center, ok := geo.Centroid(coords)
	if !ok {
		center = render.Build(service.MapConfig{}, config.Settings(), log).Center
	}
	_, err := fmt.Fprintln(w, center.String())
	return err
}
