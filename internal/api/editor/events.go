package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/osm-map/internal/humastar"
	"github.com/joeblew999/osm-map/internal/service"
)

// EventHandler streams resource change events to the Datastar UI via SSE.
type EventHandler struct {
	maps *MapHandler
	bus  *service.EventBus
}

// NewEventHandler creates a new event handler. Map events re-render the
// list through maps.
func NewEventHandler(bus *service.EventBus, maps *MapHandler) *EventHandler {
	return &EventHandler{maps: maps, bus: bus}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events,
		huma.OperationTags("editor"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.maps.Stream(func(sse humastar.SSE) {
		for ev := range h.bus.Listen(ctx) {
			if ev.Resource == service.ResourceMaps {
				sse.Patch(h.maps.renderMapList(), "#map-list")
			}
			sse.Changed("resource-changed", ev.Action, ev.ID, map[string]any{"resource": ev.Resource})
		}
	}), nil
}
