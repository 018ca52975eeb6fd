package arena

import (
	"errors"

	"ordnance/internal/geom"
	"ordnance/internal/weapon"
)

// maxRangeSlack lets a scattered or force-fired projectile fly past the
// weapon's attack range before it fizzles.
const maxRangeSlack = 1.5

// beamLifetime is how many frames a beam survives without a refresh.
const beamLifetime = 1

type flight struct {
	id        weapon.ObjectID
	launch    weapon.ProjectileLaunch
	position  geom.Coord3D
	travelled float64
}

type beamState struct {
	req       weapon.BeamRequest
	refreshed uint32
}

// Projectile is a snapshot of one projectile in flight.
type Projectile struct {
	ID       weapon.ObjectID
	Object   string
	Weapon   string
	Source   weapon.ObjectID
	Victim   weapon.ObjectID
	Position geom.Coord3D
	Target   geom.Coord3D
}

// LaunchProjectile implements weapon.Launcher.
func (a *Arena) LaunchProjectile(launch weapon.ProjectileLaunch) (weapon.ObjectID, error) {
	if launch.Weapon == "" {
		return weapon.InvalidID, errors.New("launch without a weapon")
	}
	id := a.nextID("projectile")
	a.flights = append(a.flights, &flight{id: id, launch: launch, position: launch.From})
	a.cfg.Metrics.Add(metricLaunches, 1)
	a.cfg.Metrics.Store(metricProjectiles, uint64(len(a.flights)))
	return id, nil
}

// Projectiles returns the projectiles in flight in launch order.
func (a *Arena) Projectiles() []Projectile {
	out := make([]Projectile, 0, len(a.flights))
	for _, f := range a.flights {
		out = append(out, Projectile{
			ID:       f.id,
			Object:   f.launch.Object,
			Weapon:   f.launch.Weapon,
			Source:   f.launch.Source,
			Victim:   f.launch.Victim,
			Position: f.position,
			Target:   f.launch.Target,
		})
	}
	return out
}

// advanceFlights moves every projectile toward its target point by its speed
// and detonates the ones that arrive, in launch order. Detonations may launch
// new projectiles; those start flying next frame.
func (a *Arena) advanceFlights() {
	if len(a.flights) == 0 {
		return
	}
	flying := a.flights
	a.flights = nil
	var remaining []*flight
	for _, f := range flying {
		if a.advance(f) {
			continue
		}
		remaining = append(remaining, f)
	}
	a.flights = append(remaining, a.flights...)
}

// advance moves f one frame and reports whether it detonated.
func (a *Arena) advance(f *flight) bool {
	launch := f.launch
	toTarget := launch.Target.Sub(f.position)
	distance := toTarget.Length()
	step := launch.Speed
	if step <= 0 || step >= distance {
		f.travelled += distance
		f.position = launch.Target
		a.detonate(f, launch.Victim)
		return true
	}
	f.position = f.position.Add(toTarget.Scale(step / distance))
	f.travelled += step
	if launch.MaxRange > 0 && f.travelled > launch.MaxRange*maxRangeSlack {
		a.detonate(f, weapon.InvalidID)
		return true
	}
	return false
}

func (a *Arena) detonate(f *flight, victim weapon.ObjectID) {
	launch := f.launch
	a.store.DetonateProjectile(weapon.ProjectileImpact{
		Weapon:   launch.Weapon,
		Source:   launch.Source,
		Victim:   victim,
		Position: f.position,
		Bonus:    launch.Bonus,
	})
}

// UpdateBeam implements weapon.Launcher. A beam that is not refreshed within
// beamLifetime frames is dropped.
func (a *Arena) UpdateBeam(req weapon.BeamRequest) (weapon.ObjectID, error) {
	if beam, ok := a.beams[req.Existing]; ok && req.Existing != weapon.InvalidID {
		beam.req.From = req.From
		beam.req.To = req.To
		beam.req.Victim = req.Victim
		beam.refreshed = a.frame
		return req.Existing, nil
	}
	id := a.nextID("beam")
	req.Existing = id
	a.beams[id] = &beamState{req: req, refreshed: a.frame}
	a.beamOrder = append(a.beamOrder, id)
	return id, nil
}

// Beams returns the live beams in creation order.
func (a *Arena) Beams() []weapon.BeamRequest {
	out := make([]weapon.BeamRequest, 0, len(a.beamOrder))
	for _, id := range a.beamOrder {
		out = append(out, a.beams[id].req)
	}
	return out
}

func (a *Arena) expireBeams() {
	kept := a.beamOrder[:0]
	for _, id := range a.beamOrder {
		if a.beams[id].refreshed+beamLifetime < a.frame {
			delete(a.beams, id)
			continue
		}
		kept = append(kept, id)
	}
	a.beamOrder = kept
}
