package weapon

import (
	"math"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
)

// ScaledAttackRange returns the bonus-scaled range, shortened by a fixed margin so
// units stop just inside it instead of flickering on the boundary.
func (t *Template) ScaledAttackRange(b bonus.Bonus) float64 {
	r := b.Scaled(bonus.DimensionRange, t.AttackRange) - rangeUndersize
	if r < 0 {
		return 0
	}
	return r
}

// MinimumRange returns the unscaled minimum attack range.
func (t *Template) MinimumRange() float64 {
	return t.MinimumAttackRange
}

// IsWithinRangeOfPoint reports whether point lies between the minimum and
// maximum range of a shot from origin.
func (t *Template) IsWithinRangeOfPoint(origin, point geom.Coord3D, b bonus.Bonus) bool {
	return t.rangeAccepts(geom.DistSqr2D(origin, point), b)
}

// IsWithinRangeOfObject reports whether target is in range of source. Range is
// measured to the edge of the target's footprint. Contact weapons measure
// structures against their true collision shape.
func (t *Template) IsWithinRangeOfObject(source, target Entity, b bonus.Bonus) bool {
	if t.IsContact() && target.Kinds.Has(KindStructure) {
		return t.contactDistance(source, target) <= t.ScaledAttackRange(b)+source.Geometry.BoundingRadius()
	}
	d := edgeDistance(source.Position, target)
	return t.rangeAccepts(d*d, b)
}

func (t *Template) rangeAccepts(distSqr float64, b bonus.Bonus) bool {
	attack := t.ScaledAttackRange(b)
	if distSqr > attack*attack {
		return false
	}
	minimum := t.MinimumRange()
	if minimum > 0 && distSqr < minimum*minimum-minRangeTolerance {
		return false
	}
	return true
}

func (t *Template) contactDistance(source, target Entity) float64 {
	g := target.Geometry
	if g.Shape == ShapeBox {
		return geom.DistanceToBox(source.Position, target.Position, g.MajorRadius, g.MinorRadius, target.Orientation)
	}
	return edgeDistance(source.Position, target)
}

func edgeDistance(origin geom.Coord3D, target Entity) float64 {
	d := geom.Dist2D(origin, target.Position) - target.Geometry.BoundingRadius()
	if d < 0 {
		return 0
	}
	return d
}

// IsWithinTargetPitch reports whether the elevation angle from source to
// target is inside the configured pitch window.
func (t *Template) IsWithinTargetPitch(source, target Entity) bool {
	if t.Elevation == nil {
		return true
	}
	dz := target.Position.Z - source.Position.Z
	if math.Abs(dz) < negligibleHeight {
		return true
	}
	pitch := math.Atan2(dz, geom.Dist2D(source.Position, target.Position)) * 180 / math.Pi
	return pitch >= t.Elevation.MinPitch && pitch <= t.Elevation.MaxPitch
}

// IsWithinTargetHeight reports whether the vertical separation from source to
// target stays inside the configured limit.
func (t *Template) IsWithinTargetHeight(source, target Entity) bool {
	if t.Elevation == nil || t.Elevation.MaxHeight <= 0 {
		return true
	}
	dz := math.Abs(target.Position.Z - source.Position.Z)
	if dz < negligibleHeight {
		return true
	}
	return dz <= t.Elevation.MaxHeight
}

// CanTarget reports whether the anti mask allows engaging victim.
func (t *Template) CanTarget(victim Entity) bool {
	return t.Anti&antiClass(victim) != 0
}

func antiClass(e Entity) AntiMask {
	switch {
	case e.Kinds.Has(KindBallisticMissile):
		return AntiBallisticMissile
	case e.Kinds.Has(KindSmallMissile):
		return AntiSmallMissile
	case e.Kinds.Has(KindProjectile):
		return AntiProjectile
	case e.Kinds.Has(KindMine):
		return AntiMine
	case e.Kinds.Has(KindParachute):
		return AntiParachute
	case e.Airborne() && e.Kinds.Has(KindInfantry):
		return AntiAirborneInfantry
	case e.Airborne():
		return AntiAirborneVehicle
	default:
		return AntiGround
	}
}
