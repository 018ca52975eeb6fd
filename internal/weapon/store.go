package weapon

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	"ordnance/internal/telemetry"
	"ordnance/logging"
	loggingweapons "ordnance/logging/weapons"
)

const (
	metricFired          = "weapons_fired_total"
	metricDamageRecords  = "weapons_damage_records_total"
	metricRangeRejected  = "weapons_range_rejected_total"
	metricDelayedPending = "weapons_delayed_pending"
	metricDelayedLanded  = "weapons_delayed_resolved_total"
	metricShrapnel       = "weapons_shrapnel_total"
)

// Deps bundles the collaborators a Store resolves weapons against. Nil
// collaborators degrade to no-ops.
type Deps struct {
	World     World
	Spatial   SpatialIndex
	Damage    DamageSink
	Launcher  Launcher
	Presenter Presenter
	Clock     Clock
	RNG       *rand.Rand

	// GlobalBonus is the default bonus layer shared by every template.
	GlobalBonus *bonus.Set

	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Logger    telemetry.Logger
}

type delayedDamage struct {
	template *Template
	position geom.Coord3D
	frame    uint32
	source   ObjectID
	victim   ObjectID
	bonus    bonus.Bonus
	combo    bool
}

type comboHit struct {
	frame    uint32
	position geom.Coord3D
}

// Store owns every weapon template and the queue of damage waiting to land.
// It is the context object the simulation root passes to weapon code.
type Store struct {
	deps      Deps
	templates map[string]*Template
	delayed   []delayedDamage
	combos    map[string][]comboHit
}

// NewStore constructs an empty store around deps.
func NewStore(deps Deps) *Store {
	if deps.Clock == nil {
		deps.Clock = ClockFunc(func() uint32 { return 0 })
	}
	if deps.RNG == nil {
		deps.RNG = rand.New(rand.NewSource(1))
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.Discard
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Presenter == nil {
		deps.Presenter = nopPresenter{}
	}
	return &Store{
		deps:      deps,
		templates: make(map[string]*Template),
		combos:    make(map[string][]comboHit),
	}
}

// Frame returns the current simulation frame.
func (s *Store) Frame() uint32 {
	return s.deps.Clock.Frame()
}

// Register validates t and adds it under its name.
func (s *Store) Register(t *Template) error {
	if s == nil {
		return nil
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if _, exists := s.templates[t.Name]; exists {
		return fmt.Errorf("%w %q", ErrDuplicateTemplate, t.Name)
	}
	if t.PrimaryDamageRadius > 0 && t.SecondaryDamageRadius > 0 && t.SecondaryDamageRadius < t.PrimaryDamageRadius {
		s.deps.Logger.Printf("weapon %q: secondary radius %.2f is smaller than primary radius %.2f", t.Name, t.SecondaryDamageRadius, t.PrimaryDamageRadius)
	}
	if cycle := s.comboCycle(t); cycle != nil {
		return fmt.Errorf("%w %q: historic combo cycle %s", ErrInvalidTemplate, t.Name, strings.Join(cycle, " -> "))
	}
	t.previous = nil
	s.templates[t.Name] = t
	return nil
}

// comboCycle follows historic combo weapons from t, resolving other names
// through the registry, and returns the path if it leads back to t.
func (s *Store) comboCycle(t *Template) []string {
	path := []string{t.Name}
	seen := map[string]bool{t.Name: true}
	next := t.Combo
	for next != nil {
		path = append(path, next.Weapon)
		if next.Weapon == t.Name {
			return path
		}
		if seen[next.Weapon] {
			return nil
		}
		seen[next.Weapon] = true
		linked, ok := s.templates[next.Weapon]
		if !ok {
			return nil
		}
		next = linked.Combo
	}
	return nil
}

// FindTemplate returns the active template registered under name.
func (s *Store) FindTemplate(name string) (*Template, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.templates[name]
	return t, ok
}

// RegisterOverride installs a patched copy of the named template. The copy is
// linked to the template it replaces so Reset can restore it.
func (s *Store) RegisterOverride(name string, patch func(*Template) error) (*Template, error) {
	if s == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, name)
	}
	current, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, name)
	}
	override := current.Clone()
	if patch != nil {
		if err := patch(override); err != nil {
			return nil, fmt.Errorf("override %q: %w", name, err)
		}
	}
	override.Name = name
	if err := override.Validate(); err != nil {
		return nil, err
	}
	if cycle := s.comboCycle(override); cycle != nil {
		return nil, fmt.Errorf("%w %q: historic combo cycle %s", ErrInvalidTemplate, name, strings.Join(cycle, " -> "))
	}
	override.previous = current
	s.templates[name] = override
	return override, nil
}

// Reset pops every override chain back to its base template and drops all
// pending delayed damage and combo history.
func (s *Store) Reset() {
	if s == nil {
		return
	}
	for name, t := range s.templates {
		for t.previous != nil {
			t = t.previous
		}
		s.templates[name] = t
	}
	s.delayed = nil
	s.combos = make(map[string][]comboHit)
	s.deps.Metrics.Store(metricDelayedPending, 0)
}

// Templates returns the active templates ordered by name.
func (s *Store) Templates() []*Template {
	if s == nil {
		return nil
	}
	out := make([]*Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ScheduleDelayedDamage registers damage to land at frame.
func (s *Store) ScheduleDelayedDamage(t *Template, position geom.Coord3D, frame uint32, source, victim ObjectID, b bonus.Bonus) {
	s.schedule(delayedDamage{
		template: t,
		position: position,
		frame:    frame,
		source:   source,
		victim:   victim,
		bonus:    b,
	})
}

func (s *Store) schedule(entry delayedDamage) {
	if s == nil || entry.template == nil {
		return
	}
	s.delayed = append(s.delayed, entry)
	s.deps.Metrics.Store(metricDelayedPending, uint64(len(s.delayed)))
	loggingweapons.DelayedScheduled(
		context.Background(),
		s.deps.Publisher,
		uint64(s.Frame()),
		s.entityRef(entry.source),
		loggingweapons.DelayedPayload{
			Weapon:      entry.template.Name,
			X:           entry.position.X,
			Y:           entry.position.Y,
			TargetFrame: entry.frame,
			Pending:     len(s.delayed),
		},
		nil,
	)
}

// Advance resolves every delayed entry due at or before frame in scheduling
// order. Entries scheduled while resolving that are already due land in the
// same call. It returns the number of entries resolved.
func (s *Store) Advance(frame uint32) int {
	if s == nil {
		return 0
	}
	resolved := 0
	for {
		index := -1
		for i := range s.delayed {
			if s.delayed[i].frame <= frame {
				index = i
				break
			}
		}
		if index < 0 {
			break
		}
		entry := s.delayed[index]
		s.delayed = append(s.delayed[:index], s.delayed[index+1:]...)
		resolved++
		entry.template.DealDamage(s, DamageRequest{
			Source:   entry.source,
			Victim:   entry.victim,
			Position: entry.position,
			Bonus:    entry.bonus,
			combo:    entry.combo,
		})
		loggingweapons.DelayedResolved(
			context.Background(),
			s.deps.Publisher,
			uint64(frame),
			s.entityRef(entry.source),
			loggingweapons.DelayedPayload{
				Weapon:      entry.template.Name,
				X:           entry.position.X,
				Y:           entry.position.Y,
				TargetFrame: entry.frame,
				Pending:     len(s.delayed),
			},
			nil,
		)
	}
	if resolved > 0 {
		s.deps.Metrics.Add(metricDelayedLanded, uint64(resolved))
		s.deps.Metrics.Store(metricDelayedPending, uint64(len(s.delayed)))
	}
	return resolved
}

// PendingDelayed reports how many delayed entries are waiting.
func (s *Store) PendingDelayed() int {
	if s == nil {
		return 0
	}
	return len(s.delayed)
}

// ComputeBonus composes the bonus for one shot of t by source. When w is
// provided its continuous-fire level contributes the matching conditions.
func (s *Store) ComputeBonus(t *Template, source Entity, w *Weapon) bonus.Bonus {
	if s == nil {
		return bonus.Neutral()
	}
	flags := source.Conditions
	switch w.ContinuousFireLevel() {
	case 1:
		flags = flags.With(bonus.ConditionContinuousFireMean)
	case 2:
		flags = flags.With(bonus.ConditionContinuousFireFast)
	}
	return bonus.Compose(s.deps.GlobalBonus, t.ExtraBonusSet(), flags, source.CustomStatuses, source.Passthrough)
}

// ProjectileImpact reports a launched projectile reaching its target.
type ProjectileImpact struct {
	Weapon   string
	Source   ObjectID
	Victim   ObjectID
	Position geom.Coord3D
	Bonus    bonus.Bonus
}

// DetonateProjectile resolves a projectile impact through the weapon that
// launched it. It returns false when the weapon is no longer registered.
func (s *Store) DetonateProjectile(impact ProjectileImpact) bool {
	t, ok := s.FindTemplate(impact.Weapon)
	if !ok {
		s.deps.Logger.Printf("projectile detonation for unknown weapon %q", impact.Weapon)
		return false
	}
	position := impact.Position
	t.Fire(s, FireRequest{
		Source:               impact.Source,
		Victim:               impact.Victim,
		VictimPos:            &position,
		Bonus:                impact.Bonus,
		ProjectileDetonation: true,
		IgnoreRange:          true,
	})
	return true
}

func (s *Store) lookup(id ObjectID) (Entity, bool) {
	if id == InvalidID || s.deps.World == nil {
		return Entity{}, false
	}
	return s.deps.World.Lookup(id)
}

func (s *Store) relationship(from, to ObjectID) Relationship {
	if s.deps.World == nil {
		return RelationshipNeutral
	}
	return s.deps.World.Relationship(from, to)
}

func (s *Store) terrainHeight(x, y float64) float64 {
	if s.deps.World == nil {
		return 0
	}
	return s.deps.World.TerrainHeight(x, y)
}

func (s *Store) randFloat() float64 {
	return s.deps.RNG.Float64()
}

func (s *Store) randFrames(lo, hi uint32) uint32 {
	if hi <= lo {
		return lo
	}
	return lo + uint32(s.deps.RNG.Int63n(int64(hi-lo)+1))
}

func (s *Store) entityRef(id ObjectID) logging.EntityRef {
	if id == InvalidID {
		return logging.EntityRef{Kind: logging.EntityKindWorld}
	}
	ref := logging.EntityRef{ID: string(id), Kind: logging.EntityKindUnknown}
	entity, ok := s.lookup(id)
	if !ok {
		return ref
	}
	switch {
	case entity.Kinds.Has(KindStructure):
		ref.Kind = logging.EntityKindStructure
	case entity.Kinds.Has(KindProjectile | KindSmallMissile | KindBallisticMissile):
		ref.Kind = logging.EntityKindProjectile
	default:
		ref.Kind = logging.EntityKindUnit
	}
	return ref
}

type nopMetrics struct{}

func (nopMetrics) Add(string, uint64)   {}
func (nopMetrics) Store(string, uint64) {}

type nopPresenter struct{}

func (nopPresenter) PlayFX(FXRequest) error { return nil }

func (nopPresenter) SpawnCosmetic(string, geom.Coord3D) error { return nil }

func (nopPresenter) PositionBarrel(ObjectID, int, int) error { return nil }
