package lifecycle

import (
	"context"

	"ordnance/logging"
)

const (
	// EventUnitSpawned is emitted when a unit enters the arena.
	EventUnitSpawned logging.EventType = "lifecycle.unit_spawned"
	// EventUnitDestroyed is emitted when a unit's health reaches zero.
	EventUnitDestroyed logging.EventType = "lifecycle.unit_destroyed"
)

// UnitSpawnedPayload captures spawn metadata for a new unit.
type UnitSpawnedPayload struct {
	Template string   `json:"template,omitempty"`
	Team     string   `json:"team,omitempty"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Health   float64  `json:"health"`
	Weapons  []string `json:"weapons,omitempty"`
}

// UnitDestroyedPayload captures who finished a unit and how.
type UnitDestroyedPayload struct {
	Killer    string `json:"killer,omitempty"`
	Weapon    string `json:"weapon,omitempty"`
	DeathType string `json:"deathType"`
}

// UnitSpawned publishes a unit spawn event.
func UnitSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload UnitSpawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventUnitSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// UnitDestroyed publishes a unit death event.
func UnitDestroyed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload UnitDestroyedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventUnitDestroyed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
