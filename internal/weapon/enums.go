package weapon

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DamageType classifies how a victim's armor reacts to a damage record.
type DamageType uint8

const (
	DamageExplosion DamageType = iota
	DamageCrush
	DamageArmorPiercing
	DamageSmallArms
	DamageGattling
	DamageRadiation
	DamageFlame
	DamageLaser
	DamageSniper
	DamagePoison
	DamageHealing
	DamageUnresistable
	DamageWater
	DamageMelee
	DamageParticleBeam
	DamageMicrowave
	DamageSubdualMissile
	DamageSubdualVehicle
	DamageSubdualBuilding
	DamageStatus
	damageTypeCount
)

var damageTypeNames = [damageTypeCount]string{
	DamageExplosion:       "EXPLOSION",
	DamageCrush:           "CRUSH",
	DamageArmorPiercing:   "ARMOR_PIERCING",
	DamageSmallArms:       "SMALL_ARMS",
	DamageGattling:        "GATTLING",
	DamageRadiation:       "RADIATION",
	DamageFlame:           "FLAME",
	DamageLaser:           "LASER",
	DamageSniper:          "SNIPER",
	DamagePoison:          "POISON",
	DamageHealing:         "HEALING",
	DamageUnresistable:    "UNRESISTABLE",
	DamageWater:           "WATER",
	DamageMelee:           "MELEE",
	DamageParticleBeam:    "PARTICLE_BEAM",
	DamageMicrowave:       "MICROWAVE",
	DamageSubdualMissile:  "SUBDUAL_MISSILE",
	DamageSubdualVehicle:  "SUBDUAL_VEHICLE",
	DamageSubdualBuilding: "SUBDUAL_BUILDING",
	DamageStatus:          "STATUS",
}

func (d DamageType) String() string { return enumName(damageTypeNames[:], uint8(d)) }

// MarshalText implements encoding.TextMarshaler.
func (d DamageType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DamageType) UnmarshalText(text []byte) error {
	v, err := parseEnum(damageTypeNames[:], "damage type", text)
	*d = DamageType(v)
	return err
}

// DamageTypeNames lists the accepted damage type names.
func DamageTypeNames() []string { return append([]string(nil), damageTypeNames[:]...) }

// DeathType selects the death presentation when damage is fatal.
type DeathType uint8

const (
	DeathNormal DeathType = iota
	DeathNone
	DeathCrushed
	DeathBurned
	DeathExploded
	DeathPoisoned
	DeathToppled
	DeathFlooded
	DeathSuicided
	DeathLasered
	DeathDetonated
	DeathSplatted
	deathTypeCount
)

var deathTypeNames = [deathTypeCount]string{
	DeathNormal:    "NORMAL",
	DeathNone:      "NONE",
	DeathCrushed:   "CRUSHED",
	DeathBurned:    "BURNED",
	DeathExploded:  "EXPLODED",
	DeathPoisoned:  "POISONED",
	DeathToppled:   "TOPPLED",
	DeathFlooded:   "FLOODED",
	DeathSuicided:  "SUICIDED",
	DeathLasered:   "LASERED",
	DeathDetonated: "DETONATED",
	DeathSplatted:  "SPLATTED",
}

func (d DeathType) String() string { return enumName(deathTypeNames[:], uint8(d)) }

func (d DeathType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DeathType) UnmarshalText(text []byte) error {
	v, err := parseEnum(deathTypeNames[:], "death type", text)
	*d = DeathType(v)
	return err
}

// DeathTypeNames lists the accepted death type names.
func DeathTypeNames() []string { return append([]string(nil), deathTypeNames[:]...) }

// ReloadPolicy decides what happens when a clip runs dry.
type ReloadPolicy uint8

const (
	ReloadAuto ReloadPolicy = iota
	ReloadNone
	ReloadReturnToBase
	reloadPolicyCount
)

var reloadPolicyNames = [reloadPolicyCount]string{
	ReloadAuto:         "AUTO_RELOAD",
	ReloadNone:         "NO_RELOAD",
	ReloadReturnToBase: "RETURN_TO_BASE_TO_RELOAD",
}

func (r ReloadPolicy) String() string { return enumName(reloadPolicyNames[:], uint8(r)) }

func (r ReloadPolicy) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ReloadPolicy) UnmarshalText(text []byte) error {
	v, err := parseEnum(reloadPolicyNames[:], "reload policy", text)
	*r = ReloadPolicy(v)
	return err
}

// ReloadPolicyNames lists the accepted reload policy names.
func ReloadPolicyNames() []string { return append([]string(nil), reloadPolicyNames[:]...) }

// PreAttackGranularity decides which shots pay the pre-attack delay.
type PreAttackGranularity uint8

const (
	PreAttackPerShot PreAttackGranularity = iota
	PreAttackPerAttack
	PreAttackPerClip
	preAttackGranularityCount
)

var preAttackGranularityNames = [preAttackGranularityCount]string{
	PreAttackPerShot:   "PER_SHOT",
	PreAttackPerAttack: "PER_ATTACK",
	PreAttackPerClip:   "PER_CLIP",
}

func (p PreAttackGranularity) String() string {
	return enumName(preAttackGranularityNames[:], uint8(p))
}

func (p PreAttackGranularity) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PreAttackGranularity) UnmarshalText(text []byte) error {
	v, err := parseEnum(preAttackGranularityNames[:], "pre-attack granularity", text)
	*p = PreAttackGranularity(v)
	return err
}

// PreAttackGranularityNames lists the accepted granularity names.
func PreAttackGranularityNames() []string {
	return append([]string(nil), preAttackGranularityNames[:]...)
}

// ScatterRotation rotates the authored scatter pattern before use.
type ScatterRotation uint8

const (
	ScatterRotationNone ScatterRotation = iota
	ScatterRotationRandom
	ScatterRotationAim
	scatterRotationCount
)

var scatterRotationNames = [scatterRotationCount]string{
	ScatterRotationNone:   "NONE",
	ScatterRotationRandom: "RANDOM",
	ScatterRotationAim:    "AIM",
}

func (s ScatterRotation) String() string { return enumName(scatterRotationNames[:], uint8(s)) }

func (s ScatterRotation) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ScatterRotation) UnmarshalText(text []byte) error {
	v, err := parseEnum(scatterRotationNames[:], "scatter rotation", text)
	*s = ScatterRotation(v)
	return err
}

// ScatterRotationNames lists the accepted rotation names.
func ScatterRotationNames() []string { return append([]string(nil), scatterRotationNames[:]...) }

// Status is the observable state of a runtime weapon.
type Status uint8

const (
	StatusReadyToFire Status = iota
	StatusOutOfAmmo
	StatusBetweenFiringShots
	StatusReloadingClip
	StatusPreAttack
)

func (s Status) String() string {
	switch s {
	case StatusReadyToFire:
		return "READY_TO_FIRE"
	case StatusOutOfAmmo:
		return "OUT_OF_AMMO"
	case StatusBetweenFiringShots:
		return "BETWEEN_FIRING_SHOTS"
	case StatusReloadingClip:
		return "RELOADING_CLIP"
	case StatusPreAttack:
		return "PRE_ATTACK"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Relationship is how one entity's controller regards another's.
type Relationship uint8

const (
	RelationshipEnemies Relationship = iota
	RelationshipNeutral
	RelationshipAllies
)

func (r Relationship) String() string {
	switch r {
	case RelationshipEnemies:
		return "ENEMIES"
	case RelationshipNeutral:
		return "NEUTRAL"
	case RelationshipAllies:
		return "ALLIES"
	default:
		return fmt.Sprintf("Relationship(%d)", uint8(r))
	}
}

// AffectsMask selects which relationships an area hit may damage.
type AffectsMask uint16

const (
	AffectsSelf AffectsMask = 1 << iota
	AffectsAllies
	AffectsEnemies
	AffectsNeutrals
	AffectsKillsSelf
	AffectsNotSimilar
	AffectsNotAirborne
)

var affectsNames = []string{"SELF", "ALLIES", "ENEMIES", "NEUTRALS", "KILLS_SELF", "DOESNT_AFFECT_SIMILAR", "DOESNT_AFFECT_AIRBORNE"}

// Has reports whether every bit in flag is set.
func (m AffectsMask) Has(flag AffectsMask) bool { return m&flag == flag }

func (m AffectsMask) MarshalJSON() ([]byte, error) { return marshalMask(affectsNames, uint16(m)) }

func (m *AffectsMask) UnmarshalJSON(data []byte) error {
	v, err := unmarshalMask(affectsNames, "affects flag", data)
	*m = AffectsMask(v)
	return err
}

// AffectsNames lists the accepted affects flags.
func AffectsNames() []string { return append([]string(nil), affectsNames...) }

// CollideMask selects what a launched projectile may collide with en route.
type CollideMask uint16

const (
	CollideAllies CollideMask = 1 << iota
	CollideEnemies
	CollideStructures
	CollideShrubbery
	CollideProjectiles
	CollideWalls
	CollideSmallMissiles
	CollideBallisticMissiles
	CollideControlledStructures
)

var collideNames = []string{"ALLIES", "ENEMIES", "STRUCTURES", "SHRUBBERY", "PROJECTILES", "WALLS", "SMALL_MISSILES", "BALLISTIC_MISSILES", "CONTROLLED_STRUCTURES"}

func (m CollideMask) Has(flag CollideMask) bool { return m&flag == flag }

func (m CollideMask) MarshalJSON() ([]byte, error) { return marshalMask(collideNames, uint16(m)) }

func (m *CollideMask) UnmarshalJSON(data []byte) error {
	v, err := unmarshalMask(collideNames, "collide flag", data)
	*m = CollideMask(v)
	return err
}

// CollideNames lists the accepted collide flags.
func CollideNames() []string { return append([]string(nil), collideNames...) }

// AntiMask selects which target classes a weapon may engage.
type AntiMask uint16

const (
	AntiGround AntiMask = 1 << iota
	AntiAirborneVehicle
	AntiAirborneInfantry
	AntiBallisticMissile
	AntiProjectile
	AntiSmallMissile
	AntiMine
	AntiParachute
)

var antiNames = []string{"GROUND", "AIRBORNE_VEHICLE", "AIRBORNE_INFANTRY", "BALLISTIC_MISSILE", "PROJECTILE", "SMALL_MISSILE", "MINE", "PARACHUTE"}

func (m AntiMask) Has(flag AntiMask) bool { return m&flag == flag }

func (m AntiMask) MarshalJSON() ([]byte, error) { return marshalMask(antiNames, uint16(m)) }

func (m *AntiMask) UnmarshalJSON(data []byte) error {
	v, err := unmarshalMask(antiNames, "anti flag", data)
	*m = AntiMask(v)
	return err
}

// AntiNames lists the accepted anti flags.
func AntiNames() []string { return append([]string(nil), antiNames...) }

// KindMask classifies entities for targeting and exclusion rules.
type KindMask uint16

const (
	KindInfantry KindMask = 1 << iota
	KindVehicle
	KindStructure
	KindAircraft
	KindProjectile
	KindSmallMissile
	KindBallisticMissile
	KindMine
	KindParachute
	KindShrubbery
)

func (m KindMask) Has(flag KindMask) bool { return m&flag != 0 }

var kindNames = []string{"INFANTRY", "VEHICLE", "STRUCTURE", "AIRCRAFT", "PROJECTILE", "SMALL_MISSILE", "BALLISTIC_MISSILE", "MINE", "PARACHUTE", "SHRUBBERY"}

func (m KindMask) MarshalJSON() ([]byte, error) { return marshalMask(kindNames, uint16(m)) }

func (m *KindMask) UnmarshalJSON(data []byte) error {
	v, err := unmarshalMask(kindNames, "kind", data)
	*m = KindMask(v)
	return err
}

func enumName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("UNKNOWN(%d)", v)
}

func parseEnum(names []string, kind string, text []byte) (uint8, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, name := range names {
		if name == trimmed {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, string(text))
}

func marshalMask(names []string, bits uint16) ([]byte, error) {
	out := make([]string, 0, len(names))
	for i, name := range names {
		if bits&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return json.Marshal(out)
}

func unmarshalMask(names []string, kind string, data []byte) (uint16, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return 0, fmt.Errorf("%s list: %w", kind, err)
	}
	var bits uint16
	for _, raw := range list {
		v, err := parseEnum(names, kind, []byte(raw))
		if err != nil {
			return 0, err
		}
		bits |= 1 << v
	}
	return bits, nil
}
