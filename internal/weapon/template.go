package weapon

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
)

const (
	// FramesPerSecond is the fixed simulation rate.
	FramesPerSecond = 30
	// PathfindCellSize is the edge of one path-grid cell in world units.
	PathfindCellSize = 10.0
	// AirborneHeight is the height above terrain beyond which an entity counts
	// as airborne.
	AirborneHeight = 9.0
	// UnlimitedAmmo is the ammo count of a weapon with no clip.
	UnlimitedAmmo = math.MaxInt32
	// NeverFrame marks a timer that never elapses.
	NeverFrame = math.MaxUint32
	// LethalDamage is the amount dealt by a suicide weapon to its carrier.
	LethalDamage = math.MaxFloat32

	rangeUndersize       = PathfindCellSize * 0.25
	minRangeTolerance    = 0.5
	negligibleHeight     = 1.0
	defaultAimMemory     = 3 * FramesPerSecond
	defaultComboWindow   = 2 * FramesPerSecond
	shrapnelSearchFactor = 2.0
)

var (
	// ErrUnknownTemplate is returned when a template name is not registered.
	ErrUnknownTemplate = errors.New("unknown weapon template")
	// ErrDuplicateTemplate is returned when a name is registered twice.
	ErrDuplicateTemplate = errors.New("duplicate weapon template")
	// ErrInvalidTemplate wraps every template validation failure.
	ErrInvalidTemplate = errors.New("invalid weapon template")
)

// Beam configures a continuous beam weapon.
type Beam struct {
	Object string `json:"object"`
	// Radius is how far the beam's end may fall from the victim's footprint
	// and still credit the victim.
	Radius float64 `json:"radius,omitempty"`
}

// Elevation constrains engagement by vertical geometry. Pitches are degrees
// above the horizontal.
type Elevation struct {
	MinPitch  float64 `json:"minPitch"`
	MaxPitch  float64 `json:"maxPitch"`
	MaxHeight float64 `json:"maxHeight,omitempty"`
}

// AimJitter biases repeat shots toward a random point on the victim's
// footprint, remembered for MemoryFrames.
type AimJitter struct {
	Spread       float64 `json:"spread"`
	MemoryFrames uint32  `json:"memoryFrames,omitempty"`
}

// Scatter displaces the impact point.
type Scatter struct {
	Radius           float64         `json:"radius,omitempty"`
	RadiusVsInfantry float64         `json:"radiusVsInfantry,omitempty"`
	Targets          []geom.Coord3D  `json:"targets,omitempty"`
	TargetScalar     float64         `json:"targetScalar,omitempty"`
	Rotation         ScatterRotation `json:"rotation,omitempty"`
	Recenter         bool            `json:"recenter,omitempty"`
}

// Railgun resolves damage along the line from the muzzle to the aim point.
// Zero-valued overrides fall back to the base weapon.
type Railgun struct {
	Corridor    float64     `json:"corridor"`
	PierceCount int         `json:"pierceCount,omitempty"`
	Damage      float64     `json:"damage,omitempty"`
	DamageType  *DamageType `json:"damageType,omitempty"`
	DeathType   *DeathType  `json:"deathType,omitempty"`
	FX          string      `json:"fx,omitempty"`
}

// Shrapnel fires a secondary weapon at nearby targets after a qualifying hit.
type Shrapnel struct {
	Weapon           string  `json:"weapon"`
	Count            int     `json:"count"`
	SearchRadius     float64 `json:"searchRadius,omitempty"`
	PointBlankRadius float64 `json:"pointBlankRadius,omitempty"`
	Unconditional    bool    `json:"unconditional,omitempty"`
	ScatterRadius    float64 `json:"scatterRadius,omitempty"`
}

// Magnet pulls victims toward the impact point. TaperIn and TaperOut are
// fractions of the damage radius over which the force ramps up from the
// center and down toward the rim.
type Magnet struct {
	Force    float64 `json:"force"`
	TaperIn  float64 `json:"taperIn,omitempty"`
	TaperOut float64 `json:"taperOut,omitempty"`
}

// Subdual adds non-lethal disabling damage.
type Subdual struct {
	Amount     float64    `json:"amount"`
	DamageType DamageType `json:"damageType,omitempty"`
}

// Shockwave pushes victims away from the impact point.
type Shockwave struct {
	Amount float64 `json:"amount"`
	Radius float64 `json:"radius"`
	Taper  float64 `json:"taper,omitempty"`
}

// HistoricCombo fires Weapon once Count hits land within Radius of each other
// inside Window frames.
type HistoricCombo struct {
	Weapon         string  `json:"weapon"`
	Count          int     `json:"count"`
	Radius         float64 `json:"radius"`
	Window         uint32  `json:"window,omitempty"`
	ClearOnTrigger bool    `json:"clearOnTrigger,omitempty"`
}

// Template is the immutable definition of one weapon kind. Frame counts are
// simulation frames; angles are degrees.
type Template struct {
	Name string `json:"name" jsonschema:"required,minLength=1"`

	PrimaryDamage         float64 `json:"primaryDamage"`
	PrimaryDamageRadius   float64 `json:"primaryDamageRadius,omitempty"`
	SecondaryDamage       float64 `json:"secondaryDamage,omitempty"`
	SecondaryDamageRadius float64 `json:"secondaryDamageRadius,omitempty"`
	AttackRange           float64 `json:"attackRange"`
	MinimumAttackRange    float64 `json:"minimumAttackRange,omitempty"`
	RadiusDamageAngle     float64 `json:"radiusDamageAngle,omitempty" jsonschema:"description=Half angle of the damage cone in degrees; 0 damages the full disc"`

	DamageType     DamageType `json:"damageType"`
	DeathType      DeathType  `json:"deathType,omitempty"`
	DamageStatus   string     `json:"damageStatus,omitempty"`
	StatusDuration uint32     `json:"statusDuration,omitempty"`
	Tint           string     `json:"tint,omitempty"`

	WeaponSpeed      float64 `json:"weaponSpeed,omitempty" jsonschema:"description=World units per frame; 0 is instant"`
	MinWeaponSpeed   float64 `json:"minWeaponSpeed,omitempty"`
	ScaleWeaponSpeed bool    `json:"scaleWeaponSpeed,omitempty"`

	Projectile        string `json:"projectile,omitempty"`
	ProjectileExhaust string `json:"projectileExhaust,omitempty"`
	Beam              *Beam  `json:"beam,omitempty"`

	FireFX                    string `json:"fireFX,omitempty"`
	DetonationFX              string `json:"detonationFX,omitempty"`
	FireOCL                   string `json:"fireOCL,omitempty"`
	DetonationOCL             string `json:"detonationOCL,omitempty"`
	PreAttackFX               string `json:"preAttackFX,omitempty"`
	PreAttackFXDelay          uint32 `json:"preAttackFXDelay,omitempty"`
	SuspendFXDelay            uint32 `json:"suspendFXDelay,omitempty"`
	DamageDealtAtSelfPosition bool   `json:"damageDealtAtSelfPosition,omitempty"`
	LeechRangeWeapon          bool   `json:"leechRangeWeapon,omitempty"`

	MinDelayBetweenShots uint32       `json:"minDelayBetweenShots,omitempty"`
	MaxDelayBetweenShots uint32       `json:"maxDelayBetweenShots,omitempty"`
	MovingDelayScalar    float64      `json:"movingDelayScalar,omitempty" jsonschema:"description=Inter-shot delay multiplier at full speed; 0 disables"`
	ClipSize             int          `json:"clipSize,omitempty"`
	ClipReloadTime       uint32       `json:"clipReloadTime,omitempty"`
	Reload               ReloadPolicy `json:"reload,omitempty"`
	IdleReloadDelay      uint32       `json:"idleReloadDelay,omitempty"`
	ShotsPerBarrel       int          `json:"shotsPerBarrel,omitempty"`

	PreAttackDelay uint32               `json:"preAttackDelay,omitempty"`
	PreAttackType  PreAttackGranularity `json:"preAttackType,omitempty"`

	ContinuousFireOne   int    `json:"continuousFireOne,omitempty"`
	ContinuousFireTwo   int    `json:"continuousFireTwo,omitempty"`
	ContinuousFireCoast uint32 `json:"continuousFireCoast,omitempty"`

	Affects    AffectsMask `json:"affects,omitempty"`
	Collide    CollideMask `json:"collide,omitempty"`
	Anti       AntiMask    `json:"anti,omitempty"`
	MaxTargets int         `json:"maxTargets,omitempty"`

	Elevation *Elevation     `json:"elevation,omitempty"`
	AimJitter *AimJitter     `json:"aimJitter,omitempty"`
	Scatter   *Scatter       `json:"scatter,omitempty"`
	Railgun   *Railgun       `json:"railgun,omitempty"`
	Shrapnel  *Shrapnel      `json:"shrapnel,omitempty"`
	Magnet    *Magnet        `json:"magnet,omitempty"`
	Subdual   *Subdual       `json:"subdual,omitempty"`
	Shockwave *Shockwave     `json:"shockwave,omitempty"`
	Combo     *HistoricCombo `json:"historicCombo,omitempty"`

	ExtraBonus []bonus.Declaration `json:"extraBonus,omitempty"`

	extra    *bonus.Set
	previous *Template
}

// Validate checks t and compiles derived state. It must run before t is
// registered; Store.Register calls it.
func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}
	t.Name = strings.TrimSpace(t.Name)
	var errs []error
	if t.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if t.AttackRange < 0 || t.MinimumAttackRange < 0 {
		errs = append(errs, errors.New("ranges must not be negative"))
	}
	if t.MinimumAttackRange > t.AttackRange && t.AttackRange > 0 {
		errs = append(errs, fmt.Errorf("minimum range %v exceeds attack range %v", t.MinimumAttackRange, t.AttackRange))
	}
	if t.PrimaryDamageRadius < 0 || t.SecondaryDamageRadius < 0 {
		errs = append(errs, errors.New("damage radii must not be negative"))
	}
	if t.ClipSize < 0 {
		errs = append(errs, errors.New("clip size must not be negative"))
	}
	if t.MaxDelayBetweenShots < t.MinDelayBetweenShots {
		t.MaxDelayBetweenShots = t.MinDelayBetweenShots
	}
	if t.Beam != nil && t.Projectile != "" {
		errs = append(errs, errors.New("beam and projectile are mutually exclusive"))
	}
	if t.Shrapnel != nil && (t.Shrapnel.Weapon == "" || t.Shrapnel.Count <= 0) {
		errs = append(errs, errors.New("shrapnel needs a weapon and a positive count"))
	}
	if t.Combo != nil && (t.Combo.Weapon == "" || t.Combo.Count <= 0) {
		errs = append(errs, errors.New("historic combo needs a weapon and a positive count"))
	}
	if t.Combo != nil && t.Combo.Weapon == t.Name {
		errs = append(errs, errors.New("historic combo must not fire its own weapon"))
	}
	if t.Anti == 0 {
		t.Anti = AntiGround
	}
	if t.Affects&(AffectsSelf|AffectsAllies|AffectsEnemies|AffectsNeutrals|AffectsKillsSelf) == 0 {
		t.Affects |= AffectsSelf | AffectsAllies | AffectsEnemies | AffectsNeutrals
	}
	if t.ShotsPerBarrel <= 0 {
		t.ShotsPerBarrel = 1
	}
	if t.Railgun != nil && t.Railgun.PierceCount < 0 {
		errs = append(errs, errors.New("railgun pierce count must not be negative"))
	}
	if len(t.ExtraBonus) > 0 {
		set := bonus.NewSet()
		for i, decl := range t.ExtraBonus {
			if err := set.Declare(decl); err != nil {
				errs = append(errs, fmt.Errorf("extraBonus[%d]: %w", i, err))
			}
		}
		t.extra = set
	} else {
		t.extra = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalidTemplate, t.Name, errors.Join(errs...))
	}
	return nil
}

// Previous returns the template t overrides, if any.
func (t *Template) Previous() *Template {
	if t == nil {
		return nil
	}
	return t.previous
}

// ExtraBonusSet returns the compiled per-template bonus layer.
func (t *Template) ExtraBonusSet() *bonus.Set {
	if t == nil {
		return nil
	}
	return t.extra
}

// Clone returns a deep copy of t that is not linked into any override chain.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	clone := *t
	clone.previous = nil
	if t.Beam != nil {
		beam := *t.Beam
		clone.Beam = &beam
	}
	if t.Elevation != nil {
		elevation := *t.Elevation
		clone.Elevation = &elevation
	}
	if t.AimJitter != nil {
		jitter := *t.AimJitter
		clone.AimJitter = &jitter
	}
	if t.Scatter != nil {
		scatter := *t.Scatter
		scatter.Targets = append([]geom.Coord3D(nil), t.Scatter.Targets...)
		clone.Scatter = &scatter
	}
	if t.Railgun != nil {
		railgun := *t.Railgun
		clone.Railgun = &railgun
	}
	if t.Shrapnel != nil {
		shrapnel := *t.Shrapnel
		clone.Shrapnel = &shrapnel
	}
	if t.Magnet != nil {
		magnet := *t.Magnet
		clone.Magnet = &magnet
	}
	if t.Subdual != nil {
		subdual := *t.Subdual
		clone.Subdual = &subdual
	}
	if t.Shockwave != nil {
		shockwave := *t.Shockwave
		clone.Shockwave = &shockwave
	}
	if t.Combo != nil {
		combo := *t.Combo
		clone.Combo = &combo
	}
	clone.ExtraBonus = append([]bonus.Declaration(nil), t.ExtraBonus...)
	clone.extra = t.extra.Clone()
	return &clone
}

// IsContact reports whether t is a melee-range weapon that needs precise
// collision checks against structures.
func (t *Template) IsContact() bool {
	return t.AttackRange < PathfindCellSize
}

// IsInstant reports whether damage travels in less than one frame per unit.
func (t *Template) IsInstant() bool {
	return t.WeaponSpeed <= 0 || t.WeaponSpeed >= 999999
}

// HasClip reports whether t fires from a finite clip.
func (t *Template) HasClip() bool {
	return t.ClipSize > 0
}

// DamageRadius returns the larger of the two damage radii scaled by b.
func (t *Template) DamageRadius(b bonus.Bonus) float64 {
	radius := math.Max(t.PrimaryDamageRadius, t.SecondaryDamageRadius)
	return b.Scaled(bonus.DimensionRadius, radius)
}

// coneHalfAngle returns the damage cone half angle in radians.
func (t *Template) coneHalfAngle() float64 {
	return t.RadiusDamageAngle * math.Pi / 180
}

// DelayBetweenShots returns an inter-shot delay in frames for one shot,
// drawn uniformly from the configured bounds and divided by the rate-of-fire
// factor.
func (t *Template) DelayBetweenShots(b bonus.Bonus, roll func(lo, hi uint32) uint32) uint32 {
	delay := t.MinDelayBetweenShots
	if t.MaxDelayBetweenShots > t.MinDelayBetweenShots && roll != nil {
		delay = roll(t.MinDelayBetweenShots, t.MaxDelayBetweenShots)
	}
	return divideFrames(delay, b.Field(bonus.DimensionRateOfFire))
}

// ReloadTime returns the clip reload time in frames under b.
func (t *Template) ReloadTime(b bonus.Bonus) uint32 {
	return divideFrames(t.ClipReloadTime, b.Field(bonus.DimensionRateOfFire))
}

// PreAttackTime returns the pre-attack delay in frames under b.
func (t *Template) PreAttackTime(b bonus.Bonus) uint32 {
	return divideFrames(t.PreAttackDelay, b.Field(bonus.DimensionPreAttack))
}

func divideFrames(frames uint32, factor float64) uint32 {
	if frames == 0 {
		return 0
	}
	if factor <= 0 {
		return frames
	}
	return uint32(math.Floor(float64(frames) / factor))
}
