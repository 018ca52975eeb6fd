package weapon

import (
	"context"
	"math"
	"math/rand"

	"ordnance/internal/geom"
	"ordnance/logging"
	loggingweapons "ordnance/logging/weapons"
)

// triggerShrapnel runs one fragmentation pass around an impact. Fragments go
// to a random subset of valid nearby candidates, never the primary victim or
// the source; with no candidates they land at random points.
func (t *Template) triggerShrapnel(s *Store, source Entity, req DamageRequest) {
	cfg := t.Shrapnel
	fragment, ok := s.FindTemplate(cfg.Weapon)
	if !ok {
		s.deps.Logger.Printf("weapon %q: shrapnel weapon %q is not registered", t.Name, cfg.Weapon)
		return
	}

	radius := cfg.SearchRadius
	if radius <= 0 {
		radius = math.Max(fragment.ScaledAttackRange(req.Bonus), t.DamageRadius(req.Bonus)*shrapnelSearchFactor)
	}
	var candidates []Entity
	if radius > 0 && s.deps.Spatial != nil {
		for _, id := range s.deps.Spatial.WithinRadius(req.Position, radius, RadiusQuery{}) {
			if id == source.ID || id == req.Victim {
				continue
			}
			entity, found := s.lookup(id)
			if !found || !fragment.CanTarget(entity) {
				continue
			}
			if !fragment.affects(s, source, entity, InvalidID) {
				continue
			}
			candidates = append(candidates, entity)
		}
	}

	selected := selectShrapnelTargets(s.deps.RNG, candidates, cfg.Count)
	refs := make([]logging.EntityRef, 0, len(selected))
	for _, target := range selected {
		fragment.DealDamage(s, DamageRequest{
			Source:   source.ID,
			Victim:   target.ID,
			Position: target.Position,
			Bonus:    req.Bonus,
			shrapnel: true,
		})
		refs = append(refs, s.entityRef(target.ID))
	}

	random := 0
	if len(selected) == 0 {
		scatter := cfg.ScatterRadius
		if scatter <= 0 {
			scatter = radius
		}
		for i := 0; i < cfg.Count; i++ {
			angle := s.randFloat() * 2 * math.Pi
			dist := scatter * math.Sqrt(s.randFloat())
			point := geom.Coord3D{
				X: req.Position.X + dist*math.Cos(angle),
				Y: req.Position.Y + dist*math.Sin(angle),
			}
			point.Z = s.terrainHeight(point.X, point.Y)
			fragment.DealDamage(s, DamageRequest{
				Source:   source.ID,
				Position: point,
				Bonus:    req.Bonus,
				shrapnel: true,
			})
			random++
		}
	}

	s.deps.Metrics.Add(metricShrapnel, 1)
	loggingweapons.Shrapnel(
		context.Background(),
		s.deps.Publisher,
		uint64(s.Frame()),
		s.entityRef(source.ID),
		refs,
		loggingweapons.ShrapnelPayload{
			Weapon:    t.Name,
			Fragment:  fragment.Name,
			Fragments: len(selected),
			Random:    random,
		},
		nil,
	)
}

// selectShrapnelTargets returns up to k distinct candidates chosen uniformly
// at random. The input slice is not modified.
func selectShrapnelTargets(rng *rand.Rand, candidates []Entity, k int) []Entity {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	pool := append([]Entity(nil), candidates...)
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
