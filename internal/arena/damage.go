package arena

import (
	"context"
	"math"

	"ordnance/internal/weapon"
	"ordnance/logging"
	"ordnance/logging/status_effects"
)

// pushScale converts shockwave and magnet strength into world units of
// displacement per hit.
const pushScale = 0.1

// ApplyDamage implements weapon.DamageSink. Health damage is scaled by the
// victim's armor for the damage type; subdual damage accumulates separately
// and disables the victim once it reaches its max health.
func (a *Arena) ApplyDamage(victim weapon.ObjectID, record weapon.DamageRecord) {
	u, ok := a.units[victim]
	if !ok || u.Dead {
		return
	}
	amount := a.resolve(u, record)
	switch {
	case record.DamageType == weapon.DamageHealing:
		u.Health = math.Min(u.MaxHealth, u.Health+amount)
	case isSubdual(record.DamageType):
		u.Subdual += amount
	default:
		u.Health -= amount
	}
	if record.SubdualAmount > 0 {
		u.Subdual += record.SubdualAmount * u.armorFor(record.SubdualType)
	}
	if record.Status != "" && record.StatusDuration > 0 {
		a.applyStatus(u, record)
	}

	push := record.MagnetVector.Scale(record.MagnetForce * pushScale)
	if record.ShockwaveAmount > 0 {
		push = push.Add(record.ShockwaveVector.Scale(record.ShockwaveAmount * pushScale))
	}
	if !push.IsZero() {
		push.Z = 0
		u.Position = u.Position.Add(push)
		a.grid.Upsert(u.ID, u.Position, u.Geometry.BoundingRadius())
	}

	if u.Health <= 0 {
		a.kill(u, record)
	}
}

// applyStatus extends u's status until now plus the record's duration. An
// earlier expiry never shortens a longer one already in place.
func (a *Arena) applyStatus(u *Unit, record weapon.DamageRecord) {
	until := a.frame + record.StatusDuration
	current := u.Statuses[record.Status]
	if until <= current {
		return
	}
	u.Statuses[record.Status] = until

	var actor logging.EntityRef
	if source, ok := a.units[record.Source]; ok {
		actor = a.entityRef(source)
	}
	status_effects.Applied(
		context.Background(),
		a.cfg.Publisher,
		uint64(a.frame),
		actor,
		a.entityRef(u),
		status_effects.AppliedPayload{
			StatusEffect: record.Status,
			Weapon:       record.Weapon,
			UntilFrame:   until,
			Refreshed:    current > a.frame,
		},
		nil,
	)
}

// EstimateDamage implements weapon.DamageSink without touching the victim.
func (a *Arena) EstimateDamage(victim weapon.ObjectID, record weapon.DamageRecord) float64 {
	u, ok := a.units[victim]
	if !ok || u.Dead {
		return 0
	}
	return a.resolve(u, record)
}

func (a *Arena) resolve(u *Unit, record weapon.DamageRecord) float64 {
	if record.Amount >= weapon.LethalDamage {
		return record.Amount
	}
	scale := record.ArmorBonus
	if scale <= 0 {
		scale = 1
	}
	return record.Amount * u.armorFor(record.DamageType) * scale
}

func (u *Unit) armorFor(dt weapon.DamageType) float64 {
	if dt == weapon.DamageUnresistable {
		return 1
	}
	if factor, ok := u.Armor[dt]; ok {
		return factor
	}
	return 1
}

func isSubdual(dt weapon.DamageType) bool {
	switch dt {
	case weapon.DamageSubdualMissile, weapon.DamageSubdualVehicle, weapon.DamageSubdualBuilding:
		return true
	}
	return false
}
