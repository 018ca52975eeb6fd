package weapon

import (
	"math"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
)

//go:generate go tool mockgen -destination=mocks/collaborators.go -package=mocks . World,SpatialIndex,DamageSink,Launcher,Presenter,Clock

// ObjectID identifies an entity owned by the surrounding simulation. The empty
// string never names a live entity.
type ObjectID string

// InvalidID is the zero ObjectID.
const InvalidID ObjectID = ""

// Shape is the collision primitive of an entity.
type Shape uint8

const (
	ShapeSphere Shape = iota
	ShapeCylinder
	ShapeBox
)

// Geometry describes an entity's collision extent. For boxes MajorRadius and
// MinorRadius are the half extents along the entity's facing and across it.
type Geometry struct {
	Shape       Shape   `json:"shape"`
	MajorRadius float64 `json:"majorRadius"`
	MinorRadius float64 `json:"minorRadius,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

// BoundingRadius returns the radius of the circle enclosing the XY footprint.
func (g Geometry) BoundingRadius() float64 {
	if g.Shape == ShapeBox {
		return math.Hypot(g.MajorRadius, g.MinorRadius)
	}
	return g.MajorRadius
}

// Entity is a read-only snapshot of the fields this package needs from a
// simulation object.
type Entity struct {
	ID                 ObjectID
	Template           string
	Player             string
	Position           geom.Coord3D
	Orientation        float64
	Geometry           Geometry
	Kinds              KindMask
	HeightAboveTerrain float64
	Conditions         bonus.Conditions
	CustomStatuses     []string
	Passthrough        bonus.Conditions
	Disguised          bool
	DisguisedBarrels   int
	Barrels            int
	Speed              float64
	MaxSpeed           float64
	SharedReload       bool
}

// Airborne reports whether e flies well clear of the terrain.
func (e Entity) Airborne() bool {
	return e.HeightAboveTerrain > AirborneHeight
}

// World resolves entities by id.
type World interface {
	Lookup(id ObjectID) (Entity, bool)
	Relationship(from, to ObjectID) Relationship
	// TerrainHeight returns the higher of the ground and water surface at x,y.
	TerrainHeight(x, y float64) float64
}

// RadiusQuery tunes a WithinRadius lookup.
type RadiusQuery struct {
	NearestFirst bool
}

// SpatialIndex enumerates entities by area.
type SpatialIndex interface {
	WithinRadius(center geom.Coord3D, radius float64, query RadiusQuery) []ObjectID
	// AlongLine returns entities whose footprint lies within corridor of the
	// segment, ordered by distance from from.
	AlongLine(from, to geom.Coord3D, corridor float64, exclude []ObjectID) []ObjectID
}

// DamageRecord is everything a victim needs to apply one hit. Optional side
// channels are disabled by a zero amount.
type DamageRecord struct {
	Source         ObjectID
	SourcePlayer   string
	Weapon         string
	DamageType     DamageType
	DeathType      DeathType
	Amount         float64
	Status         string
	StatusDuration uint32
	Tint           string

	SubdualAmount float64
	SubdualType   DamageType

	MagnetVector geom.Coord3D
	MagnetForce  float64

	ShockwaveVector geom.Coord3D
	ShockwaveAmount float64
	ShockwaveRadius float64
	ShockwaveTaper  float64

	ArmorBonus float64
	Frame      uint32
}

// DamageSink applies damage records. Records are built here but applied by
// the owner of the victim.
type DamageSink interface {
	ApplyDamage(victim ObjectID, record DamageRecord)
	// EstimateDamage previews the damage record against victim's armor without
	// mutating anything.
	EstimateDamage(victim ObjectID, record DamageRecord) float64
}

// ProjectileLaunch describes a projectile to spawn. Detonation hands the
// impact back through Store.DetonateProjectile.
type ProjectileLaunch struct {
	Object   string
	Weapon   string
	Source   ObjectID
	Slot     int
	Barrel   int
	From     geom.Coord3D
	Victim   ObjectID
	Target   geom.Coord3D
	Speed    float64
	Collide  CollideMask
	Bonus    bonus.Bonus
	Exhaust  string
	Frame    uint32
	MaxRange float64
}

// BeamRequest creates or refreshes a beam between source and target.
type BeamRequest struct {
	Object   string
	Weapon   string
	Source   ObjectID
	Existing ObjectID
	From     geom.Coord3D
	To       geom.Coord3D
	Victim   ObjectID
	Frame    uint32
}

// Launcher spawns projectile and beam entities.
type Launcher interface {
	LaunchProjectile(launch ProjectileLaunch) (ObjectID, error)
	UpdateBeam(req BeamRequest) (ObjectID, error)
}

// FXKind tells the presenter which moment of a shot an effect belongs to.
type FXKind uint8

const (
	FXFire FXKind = iota
	FXDetonation
	FXPreAttack
	FXRailgun
)

// FXRequest asks the presenter to play a named effect.
type FXRequest struct {
	Kind   FXKind
	Name   string
	Weapon string
	Source ObjectID
	Victim ObjectID
	From   geom.Coord3D
	At     geom.Coord3D
}

// Presenter plays cosmetic effects. Its failures never alter the simulation.
type Presenter interface {
	PlayFX(req FXRequest) error
	SpawnCosmetic(name string, at geom.Coord3D) error
	PositionBarrel(owner ObjectID, slot, barrel int) error
}

// Clock reports the current simulation frame.
type Clock interface {
	Frame() uint32
}

// ClockFunc adapts functions into the Clock interface.
type ClockFunc func() uint32

// Frame implements Clock for ClockFunc.
func (f ClockFunc) Frame() uint32 {
	if f == nil {
		return 0
	}
	return f()
}
