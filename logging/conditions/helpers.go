package conditions

import (
	"context"

	"ordnance/logging"
)

const (
	// EventPromoted is emitted when a unit gains a veterancy condition.
	EventPromoted logging.EventType = "conditions.promoted"
)

// PromotedPayload captures the conditions a unit holds after a promotion.
type PromotedPayload struct {
	Gained     []string `json:"gained"`
	Conditions []string `json:"conditions"`
	Kills      int      `json:"kills"`
}

// Promoted publishes a veterancy promotion event.
func Promoted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PromotedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPromoted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "conditions",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
