// Package api defines the Huma REST routes: map CRUD, widget rendering,
// tiles, settings and geocoding.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/joeblew999/osm-map/internal/geocode"
	"github.com/joeblew999/osm-map/internal/render"
	"github.com/joeblew999/osm-map/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// SearchPath is the endpoint linked from collections with rel="search".
const SearchPath = "/api/v1/geocode"

// Services holds the dependencies of the API handlers.
type Services struct {
	Maps     *service.MapService
	Settings *service.SettingsService
	Renderer *render.Renderer
	// Geocoder resolves marker locations; nil disables geocoding.
	Geocoder geocode.Geocoder
	Log      zerolog.Logger
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

// RegisterHealth registers the health check route.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

// settings returns the current global settings, or the defaults without a
// settings service.
func (h *APIHandler) settings() service.Settings {
	if h.svc.Settings == nil {
		return service.Settings{FallbackCenter: service.DefaultFallbackCenter}
	}
	return h.svc.Settings.Get()
}

// fillMarkers geocodes markers that only carry a location.
func (h *APIHandler) fillMarkers(ctx context.Context, m *service.MapConfig) {
	if n := geocode.FillMarkers(ctx, h.svc.Geocoder, m.Markers, h.svc.Log); n > 0 {
		h.svc.Log.Debug().Int("markers", n).Str("map", m.ID).Msg("Geocoded markers")
	}
}

// apiError maps service and geocoding errors to HTTP errors.
func apiError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, geocode.ErrNoResult):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrExists):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, geocode.ErrEmptyQuery):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}
