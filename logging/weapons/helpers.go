package weapons

import (
	"context"

	"ordnance/logging"
)

const (
	// EventFired is emitted when a weapon completes a shot.
	EventFired logging.EventType = "weapons.fired"
	// EventDamage is emitted for every damage record applied to a victim.
	EventDamage logging.EventType = "weapons.damage"
	// EventKillSelf is emitted when a suicide weapon destroys its carrier.
	EventKillSelf logging.EventType = "weapons.kill_self"
	// EventDelayedScheduled is emitted when damage is deferred to a later frame.
	EventDelayedScheduled logging.EventType = "weapons.delayed_scheduled"
	// EventDelayedResolved is emitted when deferred damage lands.
	EventDelayedResolved logging.EventType = "weapons.delayed_resolved"
	// EventShrapnel is emitted when a fragmentation pass is triggered.
	EventShrapnel logging.EventType = "weapons.shrapnel"
	// EventHistoricCombo is emitted when stacked hits trigger a bonus weapon.
	EventHistoricCombo logging.EventType = "weapons.historic_combo"
	// EventReload is emitted when a weapon starts reloading its clip.
	EventReload logging.EventType = "weapons.reload"
	// EventRangeRejected is emitted when a shot is refused for range.
	EventRangeRejected logging.EventType = "weapons.range_rejected"
	// EventInvalidFire is emitted when a fire request carries no target.
	EventInvalidFire logging.EventType = "weapons.invalid_fire"
)

// FiredPayload describes a completed shot.
type FiredPayload struct {
	Weapon      string  `json:"weapon"`
	Slot        int     `json:"slot"`
	Barrel      int     `json:"barrel"`
	Mode        string  `json:"mode"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	DamageFrame uint32  `json:"damageFrame,omitempty"`
	Projectile  string  `json:"projectile,omitempty"`
	Ammo        int     `json:"ammo"`
}

// DamagePayload captures one damage record.
type DamagePayload struct {
	Weapon     string  `json:"weapon"`
	Amount     float64 `json:"amount"`
	DamageType string  `json:"damageType"`
	DeathType  string  `json:"deathType,omitempty"`
	Status     string  `json:"status,omitempty"`
	Subdual    float64 `json:"subdual,omitempty"`
	Magnet     float64 `json:"magnet,omitempty"`
	Shockwave  float64 `json:"shockwave,omitempty"`
	Pierce     int     `json:"pierce,omitempty"`
}

// KillSelfPayload names the weapon that destroyed its carrier.
type KillSelfPayload struct {
	Weapon string `json:"weapon"`
}

// DelayedPayload describes a deferred damage entry.
type DelayedPayload struct {
	Weapon      string  `json:"weapon"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TargetFrame uint32  `json:"targetFrame"`
	Pending     int     `json:"pending"`
}

// ShrapnelPayload captures a fragmentation pass.
type ShrapnelPayload struct {
	Weapon    string `json:"weapon"`
	Fragment  string `json:"fragment"`
	Fragments int    `json:"fragments"`
	Random    int    `json:"random,omitempty"`
}

// HistoricComboPayload captures a triggered combo.
type HistoricComboPayload struct {
	Weapon string `json:"weapon"`
	Combo  string `json:"combo"`
	Hits   int    `json:"hits"`
}

// ReloadPayload captures a reload transition.
type ReloadPayload struct {
	Weapon     string `json:"weapon"`
	Slot       int    `json:"slot"`
	Ammo       int    `json:"ammo"`
	ReadyFrame uint32 `json:"readyFrame"`
	Instant    bool   `json:"instant,omitempty"`
}

// RangeRejectedPayload captures the distances involved in a refused shot.
type RangeRejectedPayload struct {
	Weapon   string  `json:"weapon"`
	Distance float64 `json:"distance"`
	Minimum  float64 `json:"minimum"`
	Maximum  float64 `json:"maximum"`
}

// InvalidFirePayload explains why a fire request was ignored.
type InvalidFirePayload struct {
	Weapon string `json:"weapon"`
	Reason string `json:"reason"`
}

// Fired publishes a shot event.
func Fired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload FiredPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFired,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Damage publishes a damage event for a single victim.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DamagePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// KillSelf publishes a suicide event.
func KillSelf(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload KillSelfPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventKillSelf,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{actor},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// DelayedScheduled publishes a deferred damage registration.
func DelayedScheduled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DelayedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDelayedScheduled,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// DelayedResolved publishes the landing of deferred damage.
func DelayedResolved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DelayedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDelayedResolved,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Shrapnel publishes a fragmentation pass.
func Shrapnel(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload ShrapnelPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventShrapnel,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// HistoricCombo publishes a combo trigger.
func HistoricCombo(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload HistoricComboPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventHistoricCombo,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Reload publishes a reload transition.
func Reload(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReloadPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventReload,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// RangeRejected publishes a debug event for a shot refused for range.
func RangeRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload RangeRejectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventRangeRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	if target.ID != "" {
		event.Targets = []logging.EntityRef{target}
	}
	pub.Publish(ctx, event)
}

// InvalidFire publishes a debug event for an ignored fire request.
func InvalidFire(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload InvalidFirePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventInvalidFire,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryWeapons,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
