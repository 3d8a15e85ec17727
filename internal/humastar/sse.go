package humastar

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// SSE wraps a Datastar event generator with the patterns the editor uses:
// inner patches, status signals and change notifications.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE starts a Datastar stream on the request behind a Huma context.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch replaces the inner HTML of selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Error sets the error signal.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg})
}

// Errorf sets the error signal from a format string.
func (s SSE) Errorf(format string, args ...any) {
	s.Error(fmt.Sprintf(format, args...))
}

// Success sets the success signal and clears the error.
func (s SSE) Success(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"success": msg, "error": ""})
}

// Signals patches arbitrary signals.
func (s SSE) Signals(signals map[string]any) {
	s.MarshalAndPatchSignals(signals)
}

// Changed dispatches a browser event announcing a mutation so other
// widgets on the page can refresh.
func (s SSE) Changed(event, action, id string, extra map[string]any) {
	detail := map[string]any{"action": action, "id": id}
	for k, v := range extra {
		detail[k] = v
	}
	s.DispatchCustomEvent(event, detail)
}
