// Package arena is an in-memory reference world that implements every
// collaborator the weapon package resolves against. It keeps a flat unit
// table, a uniform-grid spatial index, projectile and beam flight, and a
// simple health model, and steps them one frame at a time.
package arena

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	"ordnance/internal/telemetry"
	"ordnance/internal/weapon"
	"ordnance/logging"
	"ordnance/logging/conditions"
	"ordnance/logging/lifecycle"
)

const (
	metricUnitsAlive     = "arena_units_alive"
	metricUnitsDestroyed = "arena_units_destroyed_total"
	metricProjectiles    = "arena_projectiles_in_flight"
	metricLaunches       = "arena_projectiles_launched_total"
	metricFX             = "arena_fx_total"
	metricShots          = "arena_shots_total"
)

var (
	// ErrUnknownUnit is returned when an operation names a unit that is not
	// in the arena.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrDuplicateUnit is returned when a spawn reuses a live id.
	ErrDuplicateUnit = errors.New("duplicate unit")
)

// Config bundles arena construction parameters.
type Config struct {
	Name         string
	CellSize     float64
	MaxPerCell   int
	GroundHeight float64
	WaterHeight  float64
	Seed         int64
	GlobalBonus  *bonus.Set
	// AutoEngage lets armed units pick and fire at the nearest enemy each
	// frame.
	AutoEngage bool

	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
}

// Unit is one live or destroyed entity in the arena.
type Unit struct {
	weapon.Entity
	Team      string
	Health    float64
	MaxHealth float64
	Subdual   float64
	Armor     map[weapon.DamageType]float64
	// Statuses maps an applied status to the frame it expires.
	Statuses map[string]uint32
	Weapons  *weapon.WeaponSet
	Kills    int

	Dead      bool
	Killer    weapon.ObjectID
	KilledBy  string
	DeathType weapon.DeathType

	barrels map[int]int
	target  weapon.ObjectID
}

// Disabled reports whether accumulated subdual damage has shut the unit down.
func (u *Unit) Disabled() bool {
	return u.MaxHealth > 0 && u.Subdual >= u.MaxHealth
}

// attack tracks the victim a weapon is engaging and whether its pre-attack
// for the next shot has been started.
type attack struct {
	victim weapon.ObjectID
	primed bool
}

// Arena is a single-threaded simulation world. It is not safe for concurrent
// use.
type Arena struct {
	cfg   Config
	frame uint32
	store *weapon.Store
	grid  *Grid

	units map[weapon.ObjectID]*Unit
	order []weapon.ObjectID

	flights   []*flight
	beams     map[weapon.ObjectID]*beamState
	beamOrder []weapon.ObjectID
	cosmetics []Cosmetic
	fx        []weapon.FXRequest
	attacks   map[*weapon.Weapon]attack

	namespace uuid.UUID
	sequence  uint64
}

// New constructs an empty arena and the weapon store that resolves against it.
func New(cfg Config) *Arena {
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Discard
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.WrapMetrics(nil)
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	a := &Arena{
		cfg:       cfg,
		grid:      NewGrid(cfg.CellSize, cfg.MaxPerCell),
		units:     make(map[weapon.ObjectID]*Unit),
		beams:     make(map[weapon.ObjectID]*beamState),
		attacks:   make(map[*weapon.Weapon]attack),
		namespace: uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("ordnance/%s/%d", cfg.Name, cfg.Seed))),
	}
	a.store = weapon.NewStore(weapon.Deps{
		World:       a,
		Spatial:     a.grid,
		Damage:      a,
		Launcher:    a,
		Presenter:   a,
		Clock:       weapon.ClockFunc(a.Frame),
		RNG:         rand.New(rand.NewSource(cfg.Seed)),
		GlobalBonus: cfg.GlobalBonus,
		Publisher:   cfg.Publisher,
		Metrics:     cfg.Metrics,
		Logger:      cfg.Logger,
	})
	return a
}

// Store returns the weapon store bound to the arena.
func (a *Arena) Store() *weapon.Store {
	return a.store
}

// Frame returns the current frame.
func (a *Arena) Frame() uint32 {
	return a.frame
}

// Grid returns the spatial index.
func (a *Arena) Grid() *Grid {
	return a.grid
}

// Unit returns the unit with id, live or destroyed.
func (a *Arena) Unit(id weapon.ObjectID) (*Unit, bool) {
	u, ok := a.units[id]
	return u, ok
}

// Units returns every unit in spawn order.
func (a *Arena) Units() []*Unit {
	out := make([]*Unit, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.units[id])
	}
	return out
}

// nextID returns a stable id for a spawned object. Ids depend only on the
// arena name, seed and spawn order, so replays agree.
func (a *Arena) nextID(kind string) weapon.ObjectID {
	a.sequence++
	id := uuid.NewSHA1(a.namespace, []byte(fmt.Sprintf("%s/%d", kind, a.sequence)))
	return weapon.ObjectID(kind + "-" + id.String())
}

// Spawn adds a unit described by spec and mounts its weapons from the store.
func (a *Arena) Spawn(spec UnitSpec) (*Unit, error) {
	unit, err := a.buildUnit(spec)
	if err != nil {
		return nil, err
	}
	if existing, ok := a.units[unit.ID]; ok && !existing.Dead {
		return nil, fmt.Errorf("%w %q", ErrDuplicateUnit, unit.ID)
	}
	if !a.grid.Upsert(unit.ID, unit.Position, unit.Geometry.BoundingRadius()) {
		return nil, fmt.Errorf("spawn %q: grid cell full", unit.ID)
	}
	if _, seen := a.units[unit.ID]; !seen {
		a.order = append(a.order, unit.ID)
	}
	a.units[unit.ID] = unit

	templates := make([]*weapon.Template, len(spec.Weapons))
	var errs []error
	for i, name := range spec.Weapons {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, ok := a.store.FindTemplate(name)
		if !ok {
			errs = append(errs, fmt.Errorf("weapons[%d]: %w %q", i, weapon.ErrUnknownTemplate, name))
			continue
		}
		templates[i] = t
	}
	unit.Weapons = a.store.NewWeaponSet(unit.ID, templates...)

	a.cfg.Metrics.Store(metricUnitsAlive, uint64(a.aliveCount()))
	lifecycle.UnitSpawned(
		context.Background(),
		a.cfg.Publisher,
		uint64(a.frame),
		a.entityRef(unit),
		lifecycle.UnitSpawnedPayload{
			Template: unit.Template,
			Team:     unit.Team,
			X:        unit.Position.X,
			Y:        unit.Position.Y,
			Health:   unit.Health,
			Weapons:  spec.Weapons,
		},
		nil,
	)
	if len(errs) > 0 {
		return unit, fmt.Errorf("spawn %q: %w", unit.ID, errors.Join(errs...))
	}
	return unit, nil
}

// SetConditions replaces a unit's condition flags and restamps its weapon
// timers under the new bonus.
func (a *Arena) SetConditions(id weapon.ObjectID, conditions bonus.Conditions) error {
	u, ok := a.units[id]
	if !ok || u.Dead {
		return fmt.Errorf("%w %q", ErrUnknownUnit, id)
	}
	if u.Conditions == conditions {
		return nil
	}
	u.Conditions = conditions
	u.Weapons.OnBonusChanged()
	return nil
}

// Move relocates a unit and refreshes its footprint in the grid.
func (a *Arena) Move(id weapon.ObjectID, position geom.Coord3D) error {
	u, ok := a.units[id]
	if !ok || u.Dead {
		return fmt.Errorf("%w %q", ErrUnknownUnit, id)
	}
	u.Position = position
	u.HeightAboveTerrain = math.Max(0, position.Z-a.TerrainHeight(position.X, position.Y))
	a.grid.Upsert(id, position, u.Geometry.BoundingRadius())
	return nil
}

// Lookup implements weapon.World. Destroyed units are not found.
func (a *Arena) Lookup(id weapon.ObjectID) (weapon.Entity, bool) {
	u, ok := a.units[id]
	if !ok || u.Dead {
		return weapon.Entity{}, false
	}
	return u.Entity, true
}

// Relationship implements weapon.World using team names. Units without a
// team are neutral to everyone.
func (a *Arena) Relationship(from, to weapon.ObjectID) weapon.Relationship {
	source, ok := a.units[from]
	if !ok {
		return weapon.RelationshipNeutral
	}
	target, ok := a.units[to]
	if !ok {
		return weapon.RelationshipNeutral
	}
	switch {
	case source.Team == "" || target.Team == "":
		return weapon.RelationshipNeutral
	case source.Team == target.Team:
		return weapon.RelationshipAllies
	default:
		return weapon.RelationshipEnemies
	}
}

// TerrainHeight implements weapon.World for a flat arena with an optional
// water plane.
func (a *Arena) TerrainHeight(x, y float64) float64 {
	return math.Max(a.cfg.GroundHeight, a.cfg.WaterHeight)
}

// Step advances the arena by one frame: projectiles fly and detonate, due
// delayed damage lands, stale beams and cosmetics expire and, with
// AutoEngage, armed units fire.
func (a *Arena) Step() {
	a.frame++
	a.advanceFlights()
	a.store.Advance(a.frame)
	a.expireBeams()
	a.expireCosmetics()
	a.expireStatuses()
	if a.cfg.AutoEngage {
		a.engage()
	}
	a.cfg.Metrics.Store(metricProjectiles, uint64(len(a.flights)))
}

// Winner reports the only team with units left alive. Neutral units do not
// count.
func (a *Arena) Winner() (string, bool) {
	teams := a.AliveByTeam()
	if len(teams) != 1 {
		return "", false
	}
	for team := range teams {
		return team, true
	}
	return "", false
}

// AliveByTeam counts live units per team, skipping neutral units.
func (a *Arena) AliveByTeam() map[string]int {
	out := make(map[string]int)
	for _, id := range a.order {
		u := a.units[id]
		if u.Dead || u.Team == "" {
			continue
		}
		out[u.Team]++
	}
	return out
}

func (a *Arena) aliveCount() int {
	n := 0
	for _, u := range a.units {
		if !u.Dead {
			n++
		}
	}
	return n
}

// engage lets every live, armed and enabled unit fire each ready weapon at a
// reachable enemy. A weapon first telegraphs its pre-attack against a new
// victim and fires once the telegraph elapses.
func (a *Arena) engage() {
	for _, id := range a.order {
		u := a.units[id]
		if u.Dead || u.Disabled() || u.Weapons.Len() == 0 {
			continue
		}
		u.Weapons.ReloadIdle()
		for _, w := range u.Weapons.Weapons() {
			if w.Status() != weapon.StatusReadyToFire {
				continue
			}
			victim := a.acquire(u, w)
			current, engaged := a.attacks[w]
			if victim == weapon.InvalidID {
				if engaged {
					w.EndAttack()
					delete(a.attacks, w)
				}
				continue
			}
			if current.victim != victim || !current.primed {
				if engaged && current.victim != victim {
					w.EndAttack()
				}
				w.PreFire(victim)
				a.attacks[w] = attack{victim: victim, primed: true}
				if w.Status() != weapon.StatusReadyToFire {
					continue
				}
			}
			if result := w.FireAtObject(victim); result.Fired {
				a.cfg.Metrics.Add(metricShots, 1)
				a.attacks[w] = attack{victim: victim}
			}
			if u.Dead {
				break
			}
		}
	}
}

// acquire keeps the unit's current target while w can still hit it, and
// otherwise picks the nearest enemy w can target and reach.
func (a *Arena) acquire(u *Unit, w *weapon.Weapon) weapon.ObjectID {
	if u.target != weapon.InvalidID && a.canEngage(u, w, u.target) {
		return u.target
	}
	t := w.Template()
	search := t.ScaledAttackRange(a.store.ComputeBonus(t, u.Entity, w)) + a.grid.maxRadius() + u.Geometry.BoundingRadius()
	for _, id := range a.grid.WithinRadius(u.Position, search, weapon.RadiusQuery{NearestFirst: true}) {
		if a.canEngage(u, w, id) {
			u.target = id
			return id
		}
	}
	return weapon.InvalidID
}

func (a *Arena) canEngage(u *Unit, w *weapon.Weapon, victim weapon.ObjectID) bool {
	target, ok := a.units[victim]
	if !ok || target.Dead || victim == u.ID {
		return false
	}
	if a.Relationship(u.ID, victim) != weapon.RelationshipEnemies {
		return false
	}
	return w.CanTarget(victim) && w.IsWithinRange(victim)
}

func (a *Arena) expireStatuses() {
	for _, id := range a.order {
		u := a.units[id]
		for status, until := range u.Statuses {
			if until <= a.frame {
				delete(u.Statuses, status)
			}
		}
	}
}

// kill marks u destroyed, credits the killer and publishes the death.
func (a *Arena) kill(u *Unit, record weapon.DamageRecord) {
	u.Dead = true
	u.Health = 0
	u.Killer = record.Source
	u.KilledBy = record.Weapon
	u.DeathType = record.DeathType
	a.grid.Remove(u.ID)
	for _, w := range u.Weapons.Weapons() {
		delete(a.attacks, w)
	}
	a.cfg.Metrics.Add(metricUnitsDestroyed, 1)
	a.cfg.Metrics.Store(metricUnitsAlive, uint64(a.aliveCount()))

	lifecycle.UnitDestroyed(
		context.Background(),
		a.cfg.Publisher,
		uint64(a.frame),
		a.entityRef(u),
		lifecycle.UnitDestroyedPayload{
			Killer:    string(record.Source),
			Weapon:    record.Weapon,
			DeathType: record.DeathType.String(),
		},
		nil,
	)

	if killer, ok := a.units[record.Source]; ok && !killer.Dead && killer.ID != u.ID {
		killer.Kills++
		a.promote(killer)
	}
}

// veterancyKills lists the kills needed for each promotion.
var veterancyKills = []struct {
	kills     int
	condition bonus.Condition
}{
	{kills: 1, condition: bonus.ConditionVeteran},
	{kills: 3, condition: bonus.ConditionElite},
	{kills: 6, condition: bonus.ConditionHero},
}

// promote raises a killer's veterancy. A promotion changes the bonus, so
// weapon timers are restamped.
func (a *Arena) promote(u *Unit) {
	next := u.Conditions
	for _, level := range veterancyKills {
		if u.Kills >= level.kills {
			next = next.With(level.condition)
		}
	}
	if next == u.Conditions {
		return
	}
	var gained []string
	next.Each(func(c bonus.Condition) {
		if !u.Conditions.Has(c) {
			gained = append(gained, c.String())
		}
	})
	u.Conditions = next
	u.Weapons.OnBonusChanged()

	var held []string
	next.Each(func(c bonus.Condition) {
		held = append(held, c.String())
	})
	conditions.Promoted(
		context.Background(),
		a.cfg.Publisher,
		uint64(a.frame),
		a.entityRef(u),
		conditions.PromotedPayload{Gained: gained, Conditions: held, Kills: u.Kills},
		nil,
	)
}

func (a *Arena) entityRef(u *Unit) logging.EntityRef {
	ref := logging.EntityRef{ID: string(u.ID), Kind: logging.EntityKindUnit}
	if u.Kinds.Has(weapon.KindStructure) {
		ref.Kind = logging.EntityKindStructure
	}
	return ref
}
