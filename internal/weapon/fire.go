package weapon

import (
	"context"
	"math"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	"ordnance/logging"
	loggingweapons "ordnance/logging/weapons"
)

// FireRequest describes one shot of a template. Either Victim or VictimPos
// must be set.
type FireRequest struct {
	Source ObjectID
	Slot   int
	Barrel int

	Victim    ObjectID
	VictimPos *geom.Coord3D
	// SourcePos overrides the shooter's position as the launch point.
	SourcePos *geom.Coord3D

	Bonus bonus.Bonus

	// ProjectileDetonation marks the impact of an already launched
	// projectile; no range check, scatter or new launch happens.
	ProjectileDetonation bool
	IgnoreRange          bool
	// SuppressDamage resolves the shot without applying or scheduling any
	// damage.
	SuppressDamage bool

	// Weapon is the runtime instance firing, if any. It carries aim memory,
	// the scatter queue and the tracked beam.
	Weapon *Weapon

	combo bool
}

// FireResult reports the outcome of Fire.
type FireResult struct {
	Fired bool
	// DamageFrame is the frame damage lands, or zero when no damage was
	// resolved here (including projectile launches).
	DamageFrame uint32
	Projectile  ObjectID
}

// Fire resolves one shot: range validation, impact point, presentation and
// dispatch to beam, instant, delayed or projectile delivery.
func (t *Template) Fire(s *Store, req FireRequest) FireResult {
	if t == nil || s == nil {
		return FireResult{}
	}
	source, ok := s.lookup(req.Source)
	if !ok {
		s.invalidFire(t, req.Source, "source not found")
		return FireResult{}
	}
	from := source.Position
	if req.SourcePos != nil {
		from = *req.SourcePos
	}
	source.Position = from

	var victim *Entity
	if req.Victim != InvalidID {
		if entity, found := s.lookup(req.Victim); found {
			victim = &entity
		}
	}
	var target geom.Coord3D
	switch {
	case victim != nil:
		target = victim.Position
		if req.ProjectileDetonation && req.VictimPos != nil {
			target = *req.VictimPos
		}
	case req.VictimPos != nil:
		target = *req.VictimPos
	default:
		s.invalidFire(t, req.Source, "no victim or position")
		return FireResult{}
	}
	victimID := InvalidID
	if victim != nil {
		victimID = victim.ID
	}

	leeching := req.Weapon != nil && req.Weapon.leechActive
	if !req.IgnoreRange && !req.ProjectileDetonation && !leeching {
		var inRange bool
		if victim != nil {
			inRange = t.IsWithinRangeOfObject(source, *victim, req.Bonus)
		} else {
			inRange = t.IsWithinRangeOfPoint(from, target, req.Bonus)
		}
		if !inRange {
			s.rangeRejected(t, source, victimID, target, req.Bonus)
			return FireResult{}
		}
	}

	now := s.Frame()
	if req.ProjectileDetonation {
		s.presentDetonation(t, source.ID, victimID, target)
		damageAt := target
		if t.DamageDealtAtSelfPosition {
			damageAt = from
			victimID = InvalidID
		}
		if !req.SuppressDamage {
			t.DealDamage(s, DamageRequest{Source: source.ID, Victim: victimID, Position: damageAt, Bonus: req.Bonus, combo: req.combo})
		}
		return FireResult{Fired: true, DamageFrame: now}
	}

	impact, displaced := t.resolveImpact(s, req.Weapon, source, victim, target)
	if displaced {
		victimID = InvalidID
	}
	s.presentFire(t, req, source, victimID, impact)

	result := FireResult{Fired: true}
	switch {
	case t.Projectile != "":
		result.Projectile = t.launch(s, req, source, victimID, impact)
	case t.Beam != nil:
		beamVictim := victimID
		if victim != nil && !beamReaches(t.Beam, *victim, impact) {
			beamVictim = InvalidID
		}
		t.updateBeam(s, req, source, beamVictim, impact)
		damageAt := impact
		if t.DamageDealtAtSelfPosition {
			damageAt = from
			beamVictim = InvalidID
		}
		if !req.SuppressDamage {
			t.DealDamage(s, DamageRequest{Source: source.ID, Victim: beamVictim, Position: damageAt, From: &from, Bonus: req.Bonus, combo: req.combo})
		}
		result.DamageFrame = now
	default:
		damageAt := impact
		if t.DamageDealtAtSelfPosition {
			damageAt = from
			victimID = InvalidID
		}
		delay := t.travelDelay(from, damageAt, req.Bonus)
		if delay < 1 {
			if !req.SuppressDamage {
				t.DealDamage(s, DamageRequest{Source: source.ID, Victim: victimID, Position: damageAt, From: &from, Bonus: req.Bonus, combo: req.combo})
			}
			result.DamageFrame = now
		} else {
			result.DamageFrame = now + uint32(math.Ceil(delay))
			if !req.SuppressDamage {
				s.schedule(delayedDamage{
					template: t,
					position: damageAt,
					frame:    result.DamageFrame,
					source:   source.ID,
					victim:   victimID,
					bonus:    req.Bonus,
					combo:    req.combo,
				})
			}
		}
	}

	s.deps.Metrics.Add(metricFired, 1)
	var targets []logging.EntityRef
	if victimID != InvalidID {
		targets = []logging.EntityRef{s.entityRef(victimID)}
	}
	ammo := 0
	if req.Weapon != nil {
		ammo = req.Weapon.ammo
	}
	loggingweapons.Fired(
		context.Background(),
		s.deps.Publisher,
		uint64(now),
		s.entityRef(source.ID),
		targets,
		loggingweapons.FiredPayload{
			Weapon:      t.Name,
			Slot:        req.Slot,
			Barrel:      req.Barrel,
			Mode:        t.deliveryMode(),
			X:           impact.X,
			Y:           impact.Y,
			DamageFrame: result.DamageFrame,
			Projectile:  string(result.Projectile),
			Ammo:        ammo,
		},
		nil,
	)
	return result
}

func (t *Template) deliveryMode() string {
	switch {
	case t.Projectile != "":
		return "projectile"
	case t.Beam != nil:
		return "beam"
	case t.IsInstant():
		return "instant"
	default:
		return "delayed"
	}
}

// travelDelay returns the flight time in frames from origin to point.
func (t *Template) travelDelay(origin, point geom.Coord3D, b bonus.Bonus) float64 {
	if t.IsInstant() {
		return 0
	}
	distance := math.Sqrt(geom.DistSqr(origin, point))
	speed := t.WeaponSpeed
	if t.ScaleWeaponSpeed && t.MinWeaponSpeed > 0 {
		minimum := t.MinimumRange()
		span := t.ScaledAttackRange(b) - minimum
		fraction := 1.0
		if span > 0 {
			fraction = geom.Clamp((distance-minimum)/span, 0, 1)
		}
		speed = t.MinWeaponSpeed + (t.WeaponSpeed-t.MinWeaponSpeed)*fraction
	}
	if speed <= 0 {
		return 0
	}
	return distance / speed
}

func (t *Template) launch(s *Store, req FireRequest, source Entity, victim ObjectID, target geom.Coord3D) ObjectID {
	if s.deps.Launcher == nil {
		s.deps.Logger.Printf("weapon %q: no launcher for projectile %q", t.Name, t.Projectile)
		return InvalidID
	}
	id, err := s.deps.Launcher.LaunchProjectile(ProjectileLaunch{
		Object:   t.Projectile,
		Weapon:   t.Name,
		Source:   source.ID,
		Slot:     req.Slot,
		Barrel:   req.Barrel,
		From:     source.Position,
		Victim:   victim,
		Target:   target,
		Speed:    t.WeaponSpeed,
		Collide:  t.Collide,
		Bonus:    req.Bonus,
		Exhaust:  t.ProjectileExhaust,
		Frame:    s.Frame(),
		MaxRange: t.ScaledAttackRange(req.Bonus),
	})
	if err != nil {
		s.deps.Logger.Printf("weapon %q: launch projectile %q: %v", t.Name, t.Projectile, err)
		return InvalidID
	}
	return id
}

func (t *Template) updateBeam(s *Store, req FireRequest, source Entity, victim ObjectID, target geom.Coord3D) {
	if s.deps.Launcher == nil {
		return
	}
	existing := InvalidID
	if req.Weapon != nil {
		existing = req.Weapon.beam
	}
	id, err := s.deps.Launcher.UpdateBeam(BeamRequest{
		Object:   t.Beam.Object,
		Weapon:   t.Name,
		Source:   source.ID,
		Existing: existing,
		From:     source.Position,
		To:       target,
		Victim:   victim,
		Frame:    s.Frame(),
	})
	if err != nil {
		s.deps.Logger.Printf("weapon %q: update beam %q: %v", t.Name, t.Beam.Object, err)
		return
	}
	if req.Weapon != nil {
		req.Weapon.beam = id
	}
}

func beamReaches(beam *Beam, victim Entity, end geom.Coord3D) bool {
	reach := victim.Geometry.BoundingRadius() + beam.Radius
	return geom.DistSqr2D(end, victim.Position) <= reach*reach
}

// resolveImpact applies aim memory, pattern scatter and random scatter. The
// second result reports whether the point was displaced off the victim.
func (t *Template) resolveImpact(s *Store, w *Weapon, source Entity, victim *Entity, target geom.Coord3D) (geom.Coord3D, bool) {
	impact := target
	if victim != nil && t.AimJitter != nil && t.AimJitter.Spread > 0 {
		impact = victim.Position.Add(t.aimOffset(s, w, *victim))
	}

	displaced := false
	if t.Scatter == nil {
		return impact, false
	}
	if len(t.Scatter.Targets) > 0 && w != nil {
		if offset, ok := w.nextScatterOffset(s); ok {
			angle := 0.0
			switch t.Scatter.Rotation {
			case ScatterRotationRandom:
				angle = s.randFloat() * 2 * math.Pi
			case ScatterRotationAim:
				angle = geom.Heading(source.Position, impact)
			}
			offset = geom.RotateXY(offset, angle)
			impact.X += offset.X
			impact.Y += offset.Y
			displaced = true
		}
	}
	radius := t.Scatter.Radius
	if victim != nil && victim.Kinds.Has(KindInfantry) {
		radius += t.Scatter.RadiusVsInfantry
	}
	if radius > 0 {
		angle := s.randFloat() * 2 * math.Pi
		dist := radius * math.Sqrt(s.randFloat())
		impact.X += dist * math.Cos(angle)
		impact.Y += dist * math.Sin(angle)
		displaced = true
	}
	if displaced {
		impact.Z = s.terrainHeight(impact.X, impact.Y)
	}
	return impact, displaced
}

func (t *Template) aimOffset(s *Store, w *Weapon, victim Entity) geom.Coord3D {
	now := s.Frame()
	if w != nil && w.aimVictim == victim.ID && now < w.aimExpires {
		return w.aimOffset
	}
	angle := s.randFloat() * 2 * math.Pi
	dist := s.randFloat() * t.AimJitter.Spread * victim.Geometry.BoundingRadius()
	offset := geom.Coord3D{X: dist * math.Cos(angle), Y: dist * math.Sin(angle)}
	if w != nil {
		memory := t.AimJitter.MemoryFrames
		if memory == 0 {
			memory = defaultAimMemory
		}
		w.aimVictim = victim.ID
		w.aimOffset = offset
		w.aimExpires = now + memory
	}
	return offset
}

func (s *Store) presentFire(t *Template, req FireRequest, source Entity, victim ObjectID, impact geom.Coord3D) {
	w := req.Weapon
	now := s.Frame()
	if w != nil && now < w.suspendFXUntil {
		return
	}
	if t.FireFX != "" {
		err := s.deps.Presenter.PlayFX(FXRequest{
			Kind:   FXFire,
			Name:   t.FireFX,
			Weapon: t.Name,
			Source: source.ID,
			Victim: victim,
			From:   source.Position,
			At:     impact,
		})
		if err != nil {
			s.deps.Logger.Printf("weapon %q: fire fx %q: %v", t.Name, t.FireFX, err)
		}
	}
	if t.FireOCL != "" {
		if err := s.deps.Presenter.SpawnCosmetic(t.FireOCL, source.Position); err != nil {
			s.deps.Logger.Printf("weapon %q: fire ocl %q: %v", t.Name, t.FireOCL, err)
		}
	}
	if err := s.deps.Presenter.PositionBarrel(source.ID, req.Slot, req.Barrel); err != nil {
		s.deps.Logger.Printf("weapon %q: position barrel %d: %v", t.Name, req.Barrel, err)
	}
}

func (s *Store) presentDetonation(t *Template, source, victim ObjectID, at geom.Coord3D) {
	if t.DetonationFX != "" {
		err := s.deps.Presenter.PlayFX(FXRequest{
			Kind:   FXDetonation,
			Name:   t.DetonationFX,
			Weapon: t.Name,
			Source: source,
			Victim: victim,
			At:     at,
		})
		if err != nil {
			s.deps.Logger.Printf("weapon %q: detonation fx %q: %v", t.Name, t.DetonationFX, err)
		}
	}
	if t.DetonationOCL != "" {
		if err := s.deps.Presenter.SpawnCosmetic(t.DetonationOCL, at); err != nil {
			s.deps.Logger.Printf("weapon %q: detonation ocl %q: %v", t.Name, t.DetonationOCL, err)
		}
	}
}

func (s *Store) invalidFire(t *Template, source ObjectID, reason string) {
	s.deps.Logger.Printf("weapon %q: ignoring fire from %q: %s", t.Name, source, reason)
	loggingweapons.InvalidFire(
		context.Background(),
		s.deps.Publisher,
		uint64(s.Frame()),
		s.entityRef(source),
		loggingweapons.InvalidFirePayload{Weapon: t.Name, Reason: reason},
		nil,
	)
}

func (s *Store) rangeRejected(t *Template, source Entity, victim ObjectID, target geom.Coord3D, b bonus.Bonus) {
	s.deps.Metrics.Add(metricRangeRejected, 1)
	loggingweapons.RangeRejected(
		context.Background(),
		s.deps.Publisher,
		uint64(s.Frame()),
		s.entityRef(source.ID),
		s.entityRef(victim),
		loggingweapons.RangeRejectedPayload{
			Weapon:   t.Name,
			Distance: geom.Dist2D(source.Position, target),
			Minimum:  t.MinimumRange(),
			Maximum:  t.ScaledAttackRange(b),
		},
		nil,
	)
}
