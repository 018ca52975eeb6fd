package arena

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	"ordnance/internal/weapon"
)

// DefaultHealth is the health of a unit spec that leaves it unset.
const DefaultHealth = 100

// UnitSpec is the declarative description of a unit, as found in scenario
// files.
type UnitSpec struct {
	ID               string             `json:"id,omitempty"`
	Team             string             `json:"team,omitempty"`
	Template         string             `json:"template,omitempty"`
	Player           string             `json:"player,omitempty"`
	Position         geom.Coord3D       `json:"position"`
	Orientation      float64            `json:"orientation,omitempty" jsonschema:"description=Facing in degrees counter-clockwise from +X"`
	Geometry         weapon.Geometry    `json:"geometry"`
	Kinds            weapon.KindMask    `json:"kinds,omitempty"`
	Health           float64            `json:"health,omitempty"`
	Armor            map[string]float64 `json:"armor,omitempty" jsonschema:"description=Damage multiplier per damage type name"`
	Conditions       []string           `json:"conditions,omitempty"`
	CustomStatuses   []string           `json:"customStatuses,omitempty"`
	Passthrough      []string           `json:"passthrough,omitempty"`
	Weapons          []string           `json:"weapons,omitempty"`
	Barrels          int                `json:"barrels,omitempty"`
	Disguised        bool               `json:"disguised,omitempty"`
	DisguisedBarrels int                `json:"disguisedBarrels,omitempty"`
	SharedReload     bool               `json:"sharedReload,omitempty"`
	Speed            float64            `json:"speed,omitempty"`
	MaxSpeed         float64            `json:"maxSpeed,omitempty"`
}

func (a *Arena) buildUnit(spec UnitSpec) (*Unit, error) {
	var errs []error
	id := weapon.ObjectID(strings.TrimSpace(spec.ID))
	if id == weapon.InvalidID {
		id = a.nextID("unit")
	}
	conditions, err := parseConditions("conditions", spec.Conditions)
	if err != nil {
		errs = append(errs, err)
	}
	passthrough, err := parseConditions("passthrough", spec.Passthrough)
	if err != nil {
		errs = append(errs, err)
	}
	armor := make(map[weapon.DamageType]float64, len(spec.Armor))
	for name, factor := range spec.Armor {
		var dt weapon.DamageType
		if err := dt.UnmarshalText([]byte(name)); err != nil {
			errs = append(errs, fmt.Errorf("armor: %w", err))
			continue
		}
		if factor < 0 {
			errs = append(errs, fmt.Errorf("armor %s: negative factor %v", name, factor))
			continue
		}
		armor[dt] = factor
	}
	if spec.Health < 0 {
		errs = append(errs, fmt.Errorf("negative health %v", spec.Health))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("unit %q: %w", id, errors.Join(errs...))
	}

	geometry := spec.Geometry
	if geometry.MajorRadius <= 0 {
		geometry.MajorRadius = 1
	}
	health := spec.Health
	if health == 0 {
		health = DefaultHealth
	}
	barrels := spec.Barrels
	if barrels <= 0 {
		barrels = 1
	}
	position := spec.Position
	return &Unit{
		Entity: weapon.Entity{
			ID:                 id,
			Template:           spec.Template,
			Player:             spec.Player,
			Position:           position,
			Orientation:        spec.Orientation * math.Pi / 180,
			Geometry:           geometry,
			Kinds:              spec.Kinds,
			HeightAboveTerrain: math.Max(0, position.Z-a.TerrainHeight(position.X, position.Y)),
			Conditions:         conditions,
			CustomStatuses:     append([]string(nil), spec.CustomStatuses...),
			Passthrough:        passthrough,
			Disguised:          spec.Disguised,
			DisguisedBarrels:   spec.DisguisedBarrels,
			Barrels:            barrels,
			Speed:              spec.Speed,
			MaxSpeed:           spec.MaxSpeed,
			SharedReload:       spec.SharedReload,
		},
		Team:      strings.TrimSpace(spec.Team),
		Health:    health,
		MaxHealth: health,
		Armor:     armor,
		Statuses:  make(map[string]uint32),
		barrels:   make(map[int]int),
	}, nil
}

func parseConditions(field string, names []string) (bonus.Conditions, error) {
	var out bonus.Conditions
	var errs []error
	for i, name := range names {
		c, ok := bonus.ParseCondition(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%s[%d]: unknown condition %q", field, i, name))
			continue
		}
		out = out.With(c)
	}
	return out, errors.Join(errs...)
}
