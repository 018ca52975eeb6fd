package weapon

import (
	"context"
	"math"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	loggingweapons "ordnance/logging/weapons"
)

// DamageRequest describes one resolved impact.
type DamageRequest struct {
	Source   ObjectID
	Victim   ObjectID
	Position geom.Coord3D
	// From is the muzzle position used by railguns. Defaults to the source's
	// position.
	From  *geom.Coord3D
	Bonus bonus.Bonus

	shrapnel bool
	// combo marks damage from a historic combo weapon; it never feeds a
	// combo ledger itself.
	combo bool
}

// DealDamage enumerates every entity affected by an impact and applies one
// damage record to each. It returns the number of records applied. A missing
// source is a silent no-op.
func (t *Template) DealDamage(s *Store, req DamageRequest) int {
	if t == nil || s == nil {
		return 0
	}
	source, ok := s.lookup(req.Source)
	if !ok {
		return 0
	}

	if t.Combo != nil && !req.shrapnel && !req.combo {
		t.recordComboHit(s, source, req)
	}

	if t.Affects.Has(AffectsKillsSelf) {
		t.killSelf(s, source)
		return 1
	}

	if t.Railgun != nil {
		return t.dealRailgunDamage(s, source, req)
	}

	candidates := t.areaCandidates(s, req)
	applied := 0
	pointBlank := false
	for _, candidate := range candidates {
		if t.MaxTargets > 0 && applied >= t.MaxTargets {
			break
		}
		if !t.affects(s, source, candidate, req.Victim) {
			continue
		}
		amount, ok := t.amountFor(candidate, req)
		if !ok {
			continue
		}
		record := t.buildRecord(s, source, candidate, req.Position, amount, req.Bonus, t.DamageType, t.DeathType)
		s.applyRecord(t, source, candidate.ID, record, 0)
		applied++
		if t.isPointBlank(candidate, req) {
			pointBlank = true
		}
	}

	if t.Shrapnel != nil && !req.shrapnel && (pointBlank || t.Shrapnel.Unconditional) {
		t.triggerShrapnel(s, source, req)
	}
	return applied
}

// areaCandidates lists the entities an impact may touch, resolved to
// snapshots. The explicit victim is always considered.
func (t *Template) areaCandidates(s *Store, req DamageRequest) []Entity {
	radius := t.DamageRadius(req.Bonus)
	var ids []ObjectID
	if radius > geom.Epsilon && s.deps.Spatial != nil {
		ids = s.deps.Spatial.WithinRadius(req.Position, radius, RadiusQuery{NearestFirst: t.MaxTargets > 0})
	}
	out := make([]Entity, 0, len(ids)+1)
	seenVictim := false
	for _, id := range ids {
		entity, ok := s.lookup(id)
		if !ok {
			continue
		}
		if id == req.Victim {
			seenVictim = true
			// The direct hit always counts first.
			out = append([]Entity{entity}, out...)
			continue
		}
		out = append(out, entity)
	}
	if !seenVictim && req.Victim != InvalidID {
		if entity, ok := s.lookup(req.Victim); ok {
			out = append([]Entity{entity}, out...)
		}
	}
	return out
}

// affects applies the exclusion rules in order: self, similar allies,
// airborne targets, relationship mask and damage cone.
func (t *Template) affects(s *Store, source, candidate Entity, primary ObjectID) bool {
	if candidate.ID == source.ID {
		if !t.Affects.Has(AffectsSelf) && primary != source.ID {
			return false
		}
	}
	relation := RelationshipAllies
	if candidate.ID != source.ID {
		relation = s.relationship(source.ID, candidate.ID)
	}
	if t.Affects.Has(AffectsNotSimilar) && relation == RelationshipAllies && candidate.ID != source.ID && candidate.Template == source.Template {
		return false
	}
	if t.Affects.Has(AffectsNotAirborne) && candidate.Airborne() {
		return false
	}
	if candidate.ID != primary && candidate.ID != source.ID {
		var needed AffectsMask
		switch relation {
		case RelationshipAllies:
			needed = AffectsAllies
		case RelationshipEnemies:
			needed = AffectsEnemies
		default:
			needed = AffectsNeutrals
		}
		if !t.Affects.Has(needed) {
			return false
		}
	}
	if t.RadiusDamageAngle > 0 && candidate.ID != source.ID {
		if !geom.WithinCone(source.Position, source.Orientation, t.coneHalfAngle(), candidate.Position) {
			return false
		}
	}
	return true
}

// amountFor picks primary or secondary damage. The explicit victim always
// takes primary damage; other candidates take primary at or inside the
// primary radius and secondary strictly beyond it.
func (t *Template) amountFor(candidate Entity, req DamageRequest) (float64, bool) {
	damage := req.Bonus.Field(bonus.DimensionDamage)
	if candidate.ID == req.Victim {
		return t.PrimaryDamage * damage, true
	}
	radius := req.Bonus.Field(bonus.DimensionRadius)
	distSqr := geom.DistSqr2D(req.Position, candidate.Position)
	primary := t.PrimaryDamageRadius * radius
	if distSqr <= primary*primary {
		return t.PrimaryDamage * damage, true
	}
	secondary := t.SecondaryDamageRadius * radius
	if distSqr <= secondary*secondary {
		return t.SecondaryDamage * damage, true
	}
	return 0, false
}

func (t *Template) isPointBlank(candidate Entity, req DamageRequest) bool {
	if candidate.ID == req.Victim {
		return true
	}
	if t.Shrapnel == nil || t.Shrapnel.PointBlankRadius <= 0 {
		return false
	}
	r := t.Shrapnel.PointBlankRadius
	return geom.DistSqr2D(req.Position, candidate.Position) <= r*r
}

func (t *Template) killSelf(s *Store, source Entity) {
	record := DamageRecord{
		Source:       source.ID,
		SourcePlayer: source.Player,
		Weapon:       t.Name,
		DamageType:   DamageUnresistable,
		DeathType:    t.DeathType,
		Amount:       LethalDamage,
		ArmorBonus:   1,
		Frame:        s.Frame(),
	}
	if s.deps.Damage != nil {
		s.deps.Damage.ApplyDamage(source.ID, record)
	}
	s.deps.Metrics.Add(metricDamageRecords, 1)
	loggingweapons.KillSelf(
		context.Background(),
		s.deps.Publisher,
		uint64(record.Frame),
		s.entityRef(source.ID),
		loggingweapons.KillSelfPayload{Weapon: t.Name},
		nil,
	)
}

// dealRailgunDamage walks the line from the muzzle through the aim point and
// damages entities in order. The primary hit is the named victim, or the
// first affected entity when there is none. Every other entity damaged, in
// front of the primary hit or behind it, spends one of PierceCount. The named
// victim is always hit even once the count is spent.
func (t *Template) dealRailgunDamage(s *Store, source Entity, req DamageRequest) int {
	rail := t.Railgun
	from := source.Position
	if req.From != nil {
		from = *req.From
	}
	to := req.Position
	if rail.PierceCount > 0 {
		direction := to.Sub(from)
		direction.Z = 0
		if direction.Length2D() > geom.Epsilon {
			to = from.Add(direction.Normalize(geom.Coord3D{X: 1}).Scale(t.ScaledAttackRange(req.Bonus)))
			to.Z = req.Position.Z
		}
	}
	if rail.FX != "" {
		err := s.deps.Presenter.PlayFX(FXRequest{
			Kind:   FXRailgun,
			Name:   rail.FX,
			Weapon: t.Name,
			Source: source.ID,
			Victim: req.Victim,
			From:   from,
			At:     to,
		})
		if err != nil {
			s.deps.Logger.Printf("weapon %q: railgun fx %q: %v", t.Name, rail.FX, err)
		}
	}
	if s.deps.Spatial == nil {
		return 0
	}

	damageType := t.DamageType
	if rail.DamageType != nil {
		damageType = *rail.DamageType
	}
	deathType := t.DeathType
	if rail.DeathType != nil {
		deathType = *rail.DeathType
	}
	base := t.PrimaryDamage
	if rail.Damage > 0 {
		base = rail.Damage
	}
	amount := base * req.Bonus.Field(bonus.DimensionDamage)

	hits := s.deps.Spatial.AlongLine(from, to, rail.Corridor, []ObjectID{source.ID})
	applied := 0
	primaryHit := false
	pierced := 0
	for _, id := range hits {
		candidate, ok := s.lookup(id)
		if !ok || !t.affects(s, source, candidate, req.Victim) {
			continue
		}
		if !primaryHit && (req.Victim == InvalidID || candidate.ID == req.Victim) {
			primaryHit = true
		} else {
			if pierced >= rail.PierceCount {
				if primaryHit {
					break
				}
				continue
			}
			pierced++
		}
		record := t.buildRecord(s, source, candidate, req.Position, amount, req.Bonus, damageType, deathType)
		s.applyRecord(t, source, candidate.ID, record, pierced)
		applied++
	}
	return applied
}

// buildRecord fills one damage record, including the optional subdual,
// magnet and shockwave side channels.
func (t *Template) buildRecord(s *Store, source, victim Entity, center geom.Coord3D, amount float64, b bonus.Bonus, damageType DamageType, deathType DeathType) DamageRecord {
	record := DamageRecord{
		Source:         source.ID,
		SourcePlayer:   source.Player,
		Weapon:         t.Name,
		DamageType:     damageType,
		DeathType:      deathType,
		Amount:         amount,
		Status:         t.DamageStatus,
		StatusDuration: t.StatusDuration,
		Tint:           t.Tint,
		ArmorBonus:     b.Field(bonus.DimensionArmor),
		Frame:          s.Frame(),
	}
	if t.Subdual != nil && t.Subdual.Amount > 0 {
		record.SubdualAmount = t.Subdual.Amount * b.Field(bonus.DimensionDamage)
		record.SubdualType = t.Subdual.DamageType
	}
	if t.Magnet != nil && t.Magnet.Force > 0 {
		record.MagnetVector = center.Sub(victim.Position).Normalize(geom.Up)
		record.MagnetForce = t.magnetForce(geom.Dist2D(center, victim.Position), t.DamageRadius(b))
	}
	if t.Shockwave != nil && t.Shockwave.Amount > 0 {
		record.ShockwaveVector = victim.Position.Sub(center).Normalize(geom.Up)
		record.ShockwaveAmount = t.Shockwave.Amount
		record.ShockwaveRadius = t.Shockwave.Radius
		record.ShockwaveTaper = t.Shockwave.Taper
	}
	return record
}

// magnetForce ramps the pull up across the inner TaperIn fraction of the
// radius and down across the outer TaperOut fraction.
func (t *Template) magnetForce(distance, radius float64) float64 {
	force := t.Magnet.Force
	if radius <= geom.Epsilon {
		return force
	}
	ratio := geom.Clamp(distance/radius, 0, 1)
	if t.Magnet.TaperIn > 0 && ratio < t.Magnet.TaperIn {
		force *= ratio / t.Magnet.TaperIn
	}
	if t.Magnet.TaperOut > 0 && ratio > 1-t.Magnet.TaperOut {
		force *= (1 - ratio) / t.Magnet.TaperOut
	}
	return math.Max(force, 0)
}

func (s *Store) applyRecord(t *Template, source Entity, victim ObjectID, record DamageRecord, pierce int) {
	if s.deps.Damage != nil {
		s.deps.Damage.ApplyDamage(victim, record)
	}
	s.deps.Metrics.Add(metricDamageRecords, 1)
	loggingweapons.Damage(
		context.Background(),
		s.deps.Publisher,
		uint64(record.Frame),
		s.entityRef(source.ID),
		s.entityRef(victim),
		loggingweapons.DamagePayload{
			Weapon:     t.Name,
			Amount:     record.Amount,
			DamageType: record.DamageType.String(),
			DeathType:  record.DeathType.String(),
			Status:     record.Status,
			Subdual:    record.SubdualAmount,
			Magnet:     record.MagnetForce,
			Shockwave:  record.ShockwaveAmount,
			Pierce:     pierce,
		},
		nil,
	)
}
