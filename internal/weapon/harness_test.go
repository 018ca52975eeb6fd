package weapon

import (
	"context"
	"fmt"
	"math"
	"sort"

	"ordnance/internal/geom"
	"ordnance/logging"
)

type capturePublisher struct {
	events []logging.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event logging.Event) {
	p.events = append(p.events, event)
}

func (p *capturePublisher) count(eventType logging.EventType) int {
	n := 0
	for _, event := range p.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

type appliedDamage struct {
	victim ObjectID
	record DamageRecord
}

// testWorld is a flat in-memory world that records everything the store asks
// of it.
type testWorld struct {
	frame    uint32
	entities map[ObjectID]Entity
	order    []ObjectID
	teams    map[ObjectID]string
	terrain  float64

	damage        []appliedDamage
	launches      []ProjectileLaunch
	beams         []BeamRequest
	fx            []FXRequest
	radiusQueries int
	lineQueries   int
}

func newTestWorld() *testWorld {
	return &testWorld{
		entities: make(map[ObjectID]Entity),
		teams:    make(map[ObjectID]string),
	}
}

func (w *testWorld) add(team string, e Entity) Entity {
	if e.Geometry.MajorRadius == 0 && e.Geometry.Shape == ShapeSphere {
		e.Geometry.MajorRadius = 1
	}
	if _, exists := w.entities[e.ID]; !exists {
		w.order = append(w.order, e.ID)
	}
	w.entities[e.ID] = e
	w.teams[e.ID] = team
	return e
}

func (w *testWorld) Lookup(id ObjectID) (Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

func (w *testWorld) Relationship(from, to ObjectID) Relationship {
	a, b := w.teams[from], w.teams[to]
	switch {
	case a == "" || b == "":
		return RelationshipNeutral
	case a == b:
		return RelationshipAllies
	default:
		return RelationshipEnemies
	}
}

func (w *testWorld) TerrainHeight(x, y float64) float64 {
	return w.terrain
}

func (w *testWorld) WithinRadius(center geom.Coord3D, radius float64, query RadiusQuery) []ObjectID {
	w.radiusQueries++
	var out []ObjectID
	for _, id := range w.order {
		if geom.DistSqr2D(center, w.entities[id].Position) <= radius*radius {
			out = append(out, id)
		}
	}
	if query.NearestFirst {
		sort.SliceStable(out, func(i, j int) bool {
			return geom.DistSqr2D(center, w.entities[out[i]].Position) < geom.DistSqr2D(center, w.entities[out[j]].Position)
		})
	}
	return out
}

func (w *testWorld) AlongLine(from, to geom.Coord3D, corridor float64, exclude []ObjectID) []ObjectID {
	w.lineQueries++
	type hit struct {
		id ObjectID
		t  float64
	}
	var hits []hit
next:
	for _, id := range w.order {
		for _, skip := range exclude {
			if skip == id {
				continue next
			}
		}
		e := w.entities[id]
		reach := corridor + e.Geometry.BoundingRadius()
		distSqr, t := geom.PointSegmentDistSqr2D(e.Position, from, to)
		if distSqr <= reach*reach {
			hits = append(hits, hit{id: id, t: t})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	out := make([]ObjectID, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out
}

func (w *testWorld) ApplyDamage(victim ObjectID, record DamageRecord) {
	w.damage = append(w.damage, appliedDamage{victim: victim, record: record})
}

func (w *testWorld) EstimateDamage(victim ObjectID, record DamageRecord) float64 {
	return record.Amount * record.ArmorBonus
}

func (w *testWorld) LaunchProjectile(launch ProjectileLaunch) (ObjectID, error) {
	w.launches = append(w.launches, launch)
	return ObjectID(fmt.Sprintf("projectile-%d", len(w.launches))), nil
}

func (w *testWorld) UpdateBeam(req BeamRequest) (ObjectID, error) {
	w.beams = append(w.beams, req)
	if req.Existing != InvalidID {
		return req.Existing, nil
	}
	return ObjectID(fmt.Sprintf("beam-%d", len(w.beams))), nil
}

func (w *testWorld) PlayFX(req FXRequest) error {
	w.fx = append(w.fx, req)
	return nil
}

func (w *testWorld) SpawnCosmetic(string, geom.Coord3D) error { return nil }

func (w *testWorld) PositionBarrel(ObjectID, int, int) error { return nil }

func (w *testWorld) damageTo(victim ObjectID) []DamageRecord {
	var out []DamageRecord
	for _, applied := range w.damage {
		if applied.victim == victim {
			out = append(out, applied.record)
		}
	}
	return out
}

func newTestStore(world *testWorld, pub logging.Publisher) *Store {
	return NewStore(Deps{
		World:     world,
		Spatial:   world,
		Damage:    world,
		Launcher:  world,
		Presenter: world,
		Clock:     ClockFunc(func() uint32 { return world.frame }),
		Publisher: pub,
	})
}

// fatalHelper is the subset of testing.TB that rapid.T also provides.
type fatalHelper interface {
	Helper()
	Fatalf(format string, args ...any)
}

func mustRegister(t fatalHelper, s *Store, tmpl *Template) *Template {
	t.Helper()
	if err := s.Register(tmpl); err != nil {
		t.Fatalf("register %q: %v", tmpl.Name, err)
	}
	return tmpl
}

func at(x, y float64) geom.Coord3D {
	return geom.Coord3D{X: x, Y: y}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}
