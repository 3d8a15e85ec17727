// Package humastar bridges Huma (REST/OpenAPI) with Datastar (SSE/hypermedia).
//
// Editor handlers embed [Handler], decode Datastar signals with
// [SignalsInput.Decode] and answer through an [SSE] stream:
//
//	type MapHandler struct {
//	    humastar.Handler
//	    maps *service.MapService
//	}
//
//	func (h *MapHandler) ListMaps(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Patch(h.RenderList("map-card", cards, "No maps", "Create one above"), "#map-list")
//	    }), nil
//	}
//
// The OpenAPI side lives in extensions.go (x-datastar schema hints),
// formrender.go (forms generated from schemas), pagedata.go (editor page
// signals and routes) and links.go (RFC 8288 link headers).
package humastar

import (
	"bytes"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/osm-map/internal/templates"
)

// Handler is an embeddable base for Huma handlers that answer with Datastar
// SSE streams rendered from templates.
type Handler struct {
	Renderer *templates.Renderer
}

// Stream returns a Huma StreamResponse that calls fn with a ready SSE helper.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			fn(NewSSE(humaCtx))
		},
	}
}

// RenderList renders items with a named template, or an empty state if none.
func (h *Handler) RenderList(tmpl string, items []any, emptyTitle, emptyMsg string) string {
	return RenderList(h.Renderer, tmpl, items, emptyTitle, emptyMsg)
}

// RenderSelect renders select options from a placeholder and option list.
func (h *Handler) RenderSelect(placeholder string, options []SelectOptionData) string {
	return RenderSelect(h.Renderer, placeholder, options)
}

// EmptyInput is a shared input struct for handlers with no parameters.
type EmptyInput struct{}

// SelectOptionData feeds the select-option fragment. Group prefixes the
// label, e.g. "Geoapify: Positron".
type SelectOptionData struct {
	Value    string
	Label    string
	Group    string
	Selected bool
}

// RenderList renders each item with tmpl. An empty list renders the
// empty-state fragment instead. Template errors drop the item.
func RenderList(r *templates.Renderer, tmpl string, items []any, emptyTitle, emptyMsg string) string {
	var buf bytes.Buffer
	if len(items) == 0 {
		r.RenderToBuffer(&buf, "empty-state", map[string]string{
			"Title": emptyTitle, "Message": emptyMsg,
		})
		return buf.String()
	}
	for _, item := range items {
		r.RenderToBuffer(&buf, tmpl, item)
	}
	return buf.String()
}

// RenderSelect renders <option> elements, led by an empty-valued
// placeholder when one is given.
func RenderSelect(r *templates.Renderer, placeholder string, options []SelectOptionData) string {
	var buf bytes.Buffer
	if placeholder != "" {
		r.RenderToBuffer(&buf, "select-option", SelectOptionData{Label: placeholder})
	}
	for _, opt := range options {
		r.RenderToBuffer(&buf, "select-option", opt)
	}
	return buf.String()
}
