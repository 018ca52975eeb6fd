package status_effects

import (
	"context"

	"ordnance/logging"
)

const (
	// EventApplied is emitted when a weapon applies a timed status to a unit.
	EventApplied logging.EventType = "status_effects.applied"
)

// AppliedPayload captures details about a status application.
type AppliedPayload struct {
	StatusEffect string `json:"statusEffect"`
	Weapon       string `json:"weapon,omitempty"`
	UntilFrame   uint32 `json:"untilFrame"`
	Refreshed    bool   `json:"refreshed,omitempty"`
}

// Applied publishes a status application event. actor is the unit that fired
// the weapon and may be zero when the source is gone.
func Applied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload AppliedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventApplied,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: "status_effects",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
