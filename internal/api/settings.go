package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/osm-map/internal/geocode"
	"github.com/joeblew999/osm-map/internal/service"
	"github.com/joeblew999/osm-map/internal/tiles"
)

type GeocodeInput struct {
	Query string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Free text location" example:"Times Square, New York"`
}

// RegisterTiles registers the tile provider catalog route.
func (h *APIHandler) RegisterTiles(api huma.API) {
	huma.Get(api, "/api/v1/tiles", h.GetTiles, huma.OperationTags("tiles"))
}

// RegisterSettings registers the global settings routes.
func (h *APIHandler) RegisterSettings(api huma.API) {
	huma.Get(api, "/api/v1/settings", h.GetSettings, huma.OperationTags("settings"))
	huma.Put(api, "/api/v1/settings", h.PutSettings, huma.OperationTags("settings"))
}

// RegisterGeocode registers the location lookup route.
func (h *APIHandler) RegisterGeocode(api huma.API) {
	huma.Get(api, SearchPath, h.Geocode, huma.OperationTags("geocode"))
}

func (h *APIHandler) GetTiles(ctx context.Context, input *struct{}) (*struct{ Body []tiles.Provider }, error) {
	return &struct{ Body []tiles.Provider }{Body: tiles.List()}, nil
}

func (h *APIHandler) GetSettings(ctx context.Context, input *struct{}) (*struct{ Body service.Settings }, error) {
	return &struct{ Body service.Settings }{Body: h.settings()}, nil
}

func (h *APIHandler) PutSettings(ctx context.Context, input *struct{ Body service.Settings }) (*struct{ Body service.Settings }, error) {
	if h.svc.Settings == nil {
		return nil, huma.Error503ServiceUnavailable("settings not available")
	}
	updated, err := h.svc.Settings.Update(input.Body)
	if err != nil {
		return nil, apiError(err)
	}
	return &struct{ Body service.Settings }{Body: updated}, nil
}

func (h *APIHandler) Geocode(ctx context.Context, input *GeocodeInput) (*struct{ Body geocode.Result }, error) {
	if h.svc.Geocoder == nil {
		return nil, huma.Error503ServiceUnavailable("geocoding is not configured")
	}
	res, err := h.svc.Geocoder.Geocode(ctx, input.Query)
	if err != nil {
		h.svc.Log.Warn().Err(err).Str("query", input.Query).Msg("Geocode failed")
		return nil, apiError(err)
	}
	return &struct{ Body geocode.Result }{Body: res}, nil
}
