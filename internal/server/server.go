// Package server wires the map services, the Huma API, the Datastar editor
// and the HTML pages into one http.Handler.
package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"reflect"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog"

	"github.com/joeblew999/osm-map/internal/api"
	"github.com/joeblew999/osm-map/internal/api/editor"
	"github.com/joeblew999/osm-map/internal/db"
	"github.com/joeblew999/osm-map/internal/geocode"
	"github.com/joeblew999/osm-map/internal/humastar"
	"github.com/joeblew999/osm-map/internal/render"
	"github.com/joeblew999/osm-map/internal/service"
	"github.com/joeblew999/osm-map/internal/templates"
	"github.com/joeblew999/osm-map/internal/tiles"
	"github.com/joeblew999/osm-map/web"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	// WebDir overrides the embedded templates and static files with a
	// directory on disk, for template development.
	WebDir string
	// Settings seed the settings store on first start.
	Settings service.Settings
	// GeocodeEndpoint overrides the Geoapify search URL when set.
	GeocodeEndpoint string
	// GeocodeTimeout bounds each Geoapify request.
	GeocodeTimeout time.Duration
	// NoDB skips the DuckDB geocode cache.
	NoDB bool
	Log  zerolog.Logger
}

// Server is the osm-map HTTP server.
type Server struct {
	config    Config
	mux       *http.ServeMux
	humaAPI   huma.API
	db        *sql.DB
	services  *api.Services
	templates *templates.Renderer
	links     *humastar.LinkSet
	mapForm   humastar.DatastarSchemaConfig
}

// New creates a new map server.
func New(cfg Config) (*Server, error) {
	log := cfg.Log
	mux := http.NewServeMux()

	s := &Server{config: cfg, mux: mux}

	humaConfig := huma.DefaultConfig("osm-map API", api.Version)
	humaConfig.Info.Description = "OpenStreetMap widget service: map instances, Leaflet widget rendering, tile providers and geocoding."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses; the wrapper also hides the
	// Pager and Actor bodies from the link transformer.
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	// Links are generated once every route is registered.
	humaConfig.Transformers = append(humaConfig.Transformers, func(ctx huma.Context, status string, v any) (any, error) {
		return s.links.Transformer()(ctx, status, v)
	})
	s.humaAPI = humago.New(mux, humaConfig)

	fsys := fs.FS(web.FS)
	if cfg.WebDir != "" {
		fsys = os.DirFS(cfg.WebDir)
	}
	tmpl, err := templates.New(fsys)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	s.templates = tmpl

	if !cfg.NoDB {
		conn, err := db.Get(db.Config{DataDir: cfg.DataDir, DBName: "osmmap"})
		if err != nil {
			log.Warn().Err(err).Msg("DuckDB unavailable, geocode cache disabled")
		} else {
			s.db = conn
		}
	}

	bus := service.NewEventBus()
	settings := service.NewSettingsService(cfg.DataDir, cfg.Settings, bus, log)
	s.services = &api.Services{
		Maps:     service.NewMapService(cfg.DataDir, bus, log),
		Settings: settings,
		Renderer: render.NewRenderer(tmpl),
		Geocoder: s.newGeocoder(settings.Get().GeoapifyKey),
		Log:      log,
	}

	s.routes(bus, fsys)

	s.mapForm = humastar.DatastarSchemaConfig{
		Type:     reflect.TypeOf(service.MapConfig{}),
		Prefix:   editor.MapPrefix,
		FormTmpl: "map-form",
		BasePath: editor.BasePath,
	}
	humastar.InjectExtensions(s.humaAPI, []humastar.DatastarSchemaConfig{s.mapForm})
	if err := humastar.RegisterFormTemplates(s.humaAPI, tmpl); err != nil {
		return nil, err
	}
	s.links = humastar.AutoLinks(s.humaAPI, api.SearchPath)

	return s, nil
}

// newGeocoder returns nil without a key, which disables geocoding.
func (s *Server) newGeocoder(apiKey string) geocode.Geocoder {
	if apiKey == "" {
		return nil
	}
	client := geocode.NewGeoapify(apiKey, s.config.GeocodeTimeout)
	if s.config.GeocodeEndpoint != "" {
		client.Endpoint = s.config.GeocodeEndpoint
	}
	var g geocode.Geocoder = client
	if s.db != nil {
		g = geocode.NewCached(s.db, g, s.config.Log)
	}
	return g
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services returns the services behind the API.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return db.Close()
}

func (s *Server) routes(bus *service.EventBus, fsys fs.FS) {
	// Register* methods are discovered by reflection.
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewInfoHandler(s.config.DataDir, s.db != nil, s.services.Geocoder != nil).RegisterRoutes(s.humaAPI)

	maps := editor.NewMapHandler(s.services.Maps, s.services.Settings, s.services.Geocoder, s.templates, s.config.Log)
	maps.RegisterRoutes(s.humaAPI)
	editor.NewTileHandler(s.services.Settings, s.templates).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(bus, maps).RegisterRoutes(s.humaAPI)

	if static, err := fs.Sub(fsys, "static"); err == nil {
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	}

	s.mux.HandleFunc("GET /editor", s.handleEditor)
	s.mux.HandleFunc("GET /viewer/{id}", s.handleViewer)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

// EditorPage is the data of the editor template.
type EditorPage struct {
	Page       humastar.PageData
	Assets     render.View
	MarkersURL string
	IconURL    string
	Geocode    bool
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	page := humastar.BuildPageData(s.humaAPI, s.mapForm, map[string]any{
		"error":       "",
		"success":     "",
		"selectedmap": "",
		"skipped":     0,
		"markertitle": "", "markerlocation": "", "markercoords": "",
		"markerdescription": "", "markerbehavior": service.BehaviorPopup,
		"icontype": service.IconDefault, "iconclasses": "",
		"iconmarkercolor": service.DefaultMarkerColor, "iconcolor": service.DefaultIconColor,
		"iconsize": service.DefaultIconSize, "iconimageurl": "",
		"iconmarkeropacity": 1, "iconstrokecolor": "", "iconstrokewidth": 1,
		"iconxoffset": 0, "iconyoffset": 0,
	})

	s.writePage(w, "editor-page", EditorPage{
		Page: page,
		// Load every asset the preview may need.
		Assets:     render.View{FontAwesome: true, Layer: tiles.Layer{Kind: tiles.Vector}},
		MarkersURL: page.Routes.Sub["markers"],
		IconURL:    page.Routes.Sub["icon"],
		Geocode:    s.services.Geocoder != nil,
	})
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	m, ok := s.services.Maps.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writePage(w, "viewer-page", render.Build(m, s.services.Settings.Get(), s.config.Log))
}

// writePage renders into a buffer first so a template error still yields
// a clean 500.
func (s *Server) writePage(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.RenderToBuffer(&buf, name, data); err != nil {
		s.config.Log.Error().Err(err).Str("template", name).Msg("Render page failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	for _, link := range s.links.Root() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service": "osm-map",
		"status":  "running",
		"links":   s.links.Root(),
	})
}
