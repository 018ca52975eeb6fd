package weapon

import (
	"context"

	"ordnance/internal/geom"
	loggingweapons "ordnance/logging/weapons"
)

// recordComboHit appends an impact to the template's hit history, prunes
// expired hits and fires the combo weapon when enough recent hits cluster
// around this one. Damage from the combo weapon is marked so it never records
// hits of its own; a projectile combo weapon records normally on detonation.
func (t *Template) recordComboHit(s *Store, source Entity, req DamageRequest) {
	cfg := t.Combo
	now := s.Frame()
	window := cfg.Window
	if window == 0 {
		window = defaultComboWindow
	}

	history := s.combos[t.Name]
	kept := history[:0]
	for _, hit := range history {
		if now-hit.frame <= window {
			kept = append(kept, hit)
		}
	}
	kept = append(kept, comboHit{frame: now, position: req.Position})

	count := 0
	radiusSqr := cfg.Radius * cfg.Radius
	for _, hit := range kept {
		if geom.DistSqr2D(hit.position, req.Position) <= radiusSqr {
			count++
		}
	}
	if count < cfg.Count {
		s.combos[t.Name] = kept
		return
	}
	if cfg.ClearOnTrigger {
		kept = kept[:0]
	}
	s.combos[t.Name] = kept

	combo, ok := s.FindTemplate(cfg.Weapon)
	if !ok {
		s.deps.Logger.Printf("weapon %q: historic combo weapon %q is not registered", t.Name, cfg.Weapon)
		return
	}
	loggingweapons.HistoricCombo(
		context.Background(),
		s.deps.Publisher,
		uint64(now),
		s.entityRef(source.ID),
		loggingweapons.HistoricComboPayload{Weapon: t.Name, Combo: combo.Name, Hits: count},
		nil,
	)
	position := req.Position
	combo.Fire(s, FireRequest{
		Source:      source.ID,
		VictimPos:   &position,
		Bonus:       req.Bonus,
		IgnoreRange: true,
		combo:       true,
	})
}

// ComboHits reports how many hits of the named template are remembered.
func (s *Store) ComboHits(name string) int {
	if s == nil {
		return 0
	}
	return len(s.combos[name])
}
