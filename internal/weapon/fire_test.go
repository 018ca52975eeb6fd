package weapon

import (
	"math"
	"testing"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	loggingweapons "ordnance/logging/weapons"
)

func TestFireRejectsTargetOutOfRange(t *testing.T) {
	world := duelWorld()
	world.add("blue", Entity{ID: "far", Position: at(150, 0)})
	pub := &capturePublisher{}
	store := newTestStore(world, pub)
	tmpl := mustRegister(t, store, &Template{Name: "howitzer", PrimaryDamage: 50, AttackRange: 100, MinimumAttackRange: 20})

	result := tmpl.Fire(store, FireRequest{Source: "shooter", Victim: "far", Bonus: bonus.Neutral()})
	if result.Fired || result.DamageFrame != 0 {
		t.Fatalf("expected out-of-range shot to be refused, got %+v", result)
	}
	if len(world.damage) != 0 {
		t.Fatalf("expected no damage records, got %d", len(world.damage))
	}
	if got := pub.count(loggingweapons.EventRangeRejected); got != 1 {
		t.Fatalf("expected one range rejection event, got %d", got)
	}

	tooClose := at(10, 0)
	if tmpl.Fire(store, FireRequest{Source: "shooter", VictimPos: &tooClose, Bonus: bonus.Neutral()}).Fired {
		t.Fatalf("expected shot inside minimum range to be refused")
	}
	edge := at(20, 0)
	if !tmpl.Fire(store, FireRequest{Source: "shooter", VictimPos: &edge, Bonus: bonus.Neutral()}).Fired {
		t.Fatalf("expected shot at minimum range to fire")
	}
}

func TestTravelDelay(t *testing.T) {
	tests := []struct {
		name        string
		speed       float64
		wantDelay   uint32
		wantPending int
	}{
		{name: "instant", speed: 0, wantDelay: 0, wantPending: 0},
		{name: "ten per frame", speed: 10, wantDelay: 5, wantPending: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := duelWorld()
			world.frame = 7
			store := newTestStore(world, nil)
			tmpl := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 10, AttackRange: 100, WeaponSpeed: tt.speed})

			result := store.NewWeapon(tmpl, "shooter", 0).FireAtObject("target")
			if !result.Fired {
				t.Fatalf("expected shot to fire")
			}
			if got := result.DamageFrame; got != 7+tt.wantDelay {
				t.Fatalf("expected damage frame %d, got %d", 7+tt.wantDelay, got)
			}
			if got := store.PendingDelayed(); got != tt.wantPending {
				t.Fatalf("expected %d pending entries, got %d", tt.wantPending, got)
			}
			if tt.wantPending == 0 {
				if got := len(world.damageTo("target")); got != 1 {
					t.Fatalf("expected damage applied this frame, got %d records", got)
				}
				return
			}
			if len(world.damage) != 0 {
				t.Fatalf("expected no damage before the travel time elapsed")
			}
			if got := store.Advance(7 + tt.wantDelay - 1); got != 0 {
				t.Fatalf("expected nothing due a frame early, resolved %d", got)
			}
			world.frame = 7 + tt.wantDelay
			if got := store.Advance(world.frame); got != 1 {
				t.Fatalf("expected one entry resolved, got %d", got)
			}
			if got := len(world.damageTo("target")); got != 1 {
				t.Fatalf("expected delayed damage to land, got %d records", got)
			}
		})
	}
}

func TestScaledWeaponSpeed(t *testing.T) {
	tmpl := &Template{
		Name:             "mortar",
		AttackRange:      102.5,
		WeaponSpeed:      20,
		MinWeaponSpeed:   10,
		ScaleWeaponSpeed: true,
	}
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	near := tmpl.travelDelay(at(0, 0), at(0, 0), bonus.Neutral())
	if near != 0 {
		t.Fatalf("expected zero delay at zero distance, got %.2f", near)
	}
	half := tmpl.travelDelay(at(0, 0), at(50, 0), bonus.Neutral())
	if !almostEqual(half, 50.0/15.0) {
		t.Fatalf("expected interpolated speed 15 at half range, got delay %.4f", half)
	}
	full := tmpl.travelDelay(at(0, 0), at(100, 0), bonus.Neutral())
	if !almostEqual(full, 5) {
		t.Fatalf("expected full speed at full range, got delay %.4f", full)
	}
}

func TestProjectileLaunchAndDetonation(t *testing.T) {
	world := duelWorld()
	pub := &capturePublisher{}
	store := newTestStore(world, pub)
	tmpl := mustRegister(t, store, &Template{
		Name:          "missile",
		PrimaryDamage: 40,
		AttackRange:   100,
		WeaponSpeed:   20,
		Projectile:    "MissileObject",
		DetonationFX:  "boom",
	})
	result := store.NewWeapon(tmpl, "shooter", 0).FireAtObject("target")
	if !result.Fired || result.Projectile != "projectile-1" {
		t.Fatalf("expected projectile launch, got %+v", result)
	}
	if result.DamageFrame != 0 {
		t.Fatalf("expected no damage frame for a projectile, got %d", result.DamageFrame)
	}
	if len(world.launches) != 1 || world.launches[0].Victim != "target" || world.launches[0].Object != "MissileObject" {
		t.Fatalf("unexpected launch: %+v", world.launches)
	}
	if len(world.damage) != 0 {
		t.Fatalf("expected launch to defer damage to detonation")
	}

	ok := store.DetonateProjectile(ProjectileImpact{
		Weapon:   "missile",
		Source:   "shooter",
		Victim:   "target",
		Position: at(50, 0),
		Bonus:    world.launches[0].Bonus,
	})
	if !ok {
		t.Fatalf("expected detonation to resolve")
	}
	records := world.damageTo("target")
	if len(records) != 1 || records[0].Amount != 40 {
		t.Fatalf("expected 40 damage on detonation, got %+v", records)
	}
	if len(world.fx) != 1 || world.fx[0].Kind != FXDetonation {
		t.Fatalf("expected detonation fx, got %+v", world.fx)
	}
	if store.DetonateProjectile(ProjectileImpact{Weapon: "gone", Source: "shooter"}) {
		t.Fatalf("expected unknown weapon detonation to report false")
	}
}

func TestBeamRefreshesTrackedBeam(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:          "laser",
		PrimaryDamage: 3,
		AttackRange:   100,
		Beam:          &Beam{Object: "LaserBeam", Radius: 2},
	})
	w := store.NewWeapon(tmpl, "shooter", 0)
	w.FireAtObject("target")
	w.FireAtObject("target")

	if len(world.beams) != 2 {
		t.Fatalf("expected two beam updates, got %d", len(world.beams))
	}
	if world.beams[1].Existing != "beam-1" {
		t.Fatalf("expected second update to refresh beam-1, got %q", world.beams[1].Existing)
	}
	if w.BeamID() != "beam-1" {
		t.Fatalf("expected weapon to track beam-1, got %q", w.BeamID())
	}
	if got := len(world.damageTo("target")); got != 2 {
		t.Fatalf("expected beam damage each shot, got %d", got)
	}
}

func TestDamageDealtAtSelfPosition(t *testing.T) {
	world := duelWorld()
	world.add("red", Entity{ID: "buddy", Position: at(3, 0)})
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:                      "nova",
		PrimaryDamage:             20,
		PrimaryDamageRadius:       5,
		AttackRange:               100,
		DamageDealtAtSelfPosition: true,
	})
	store.NewWeapon(tmpl, "shooter", 0).FireAtObject("target")

	if got := len(world.damageTo("target")); got != 0 {
		t.Fatalf("expected the aimed target to be untouched, got %d records", got)
	}
	if got := len(world.damageTo("buddy")); got != 1 {
		t.Fatalf("expected damage around the shooter, got %d records", got)
	}
}

func TestFireOnSpotMeasuresFromExplicitOrigin(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 1, AttackRange: 100})
	w := store.NewWeapon(tmpl, "shooter", 0)

	if w.FireAtPosition(at(240, 0)).Fired {
		t.Fatalf("expected point beyond range to be refused")
	}
	if !w.FireOnSpot(at(200, 0), at(240, 0)).Fired {
		t.Fatalf("expected shot from explicit origin to fire")
	}
	if !w.ForceFireAtPosition(at(500, 0)).Fired {
		t.Fatalf("expected forced shot to ignore range")
	}
}

func TestInvalidFireIsNoOp(t *testing.T) {
	world := duelWorld()
	pub := &capturePublisher{}
	store := newTestStore(world, pub)
	tmpl := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 1, AttackRange: 100})

	if tmpl.Fire(store, FireRequest{Source: "shooter"}).Fired {
		t.Fatalf("expected fire without victim to be refused")
	}
	if tmpl.Fire(store, FireRequest{Source: "ghost", Victim: "target"}).Fired {
		t.Fatalf("expected fire without source to be refused")
	}
	if got := pub.count(loggingweapons.EventInvalidFire); got != 2 {
		t.Fatalf("expected two invalid fire events, got %d", got)
	}
	if len(world.damage) != 0 {
		t.Fatalf("expected no damage from invalid requests")
	}
}

func TestSuppressDamageStillFires(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 1, AttackRange: 100, WeaponSpeed: 10})
	result := tmpl.Fire(store, FireRequest{Source: "shooter", Victim: "target", Bonus: bonus.Neutral(), SuppressDamage: true})
	if !result.Fired || result.DamageFrame != 5 {
		t.Fatalf("expected fired result with damage frame 5, got %+v", result)
	}
	if store.PendingDelayed() != 0 || len(world.damage) != 0 {
		t.Fatalf("expected suppressed shot not to schedule or apply damage")
	}
}

func TestAimJitterIsRememberedPerVictim(t *testing.T) {
	world := duelWorld()
	target := world.entities["target"]
	target.Geometry.MajorRadius = 10
	world.entities["target"] = target
	pub := &capturePublisher{}
	store := newTestStore(world, pub)
	tmpl := mustRegister(t, store, &Template{
		Name:          "sniper",
		PrimaryDamage: 1,
		AttackRange:   100,
		AimJitter:     &AimJitter{Spread: 1, MemoryFrames: 90},
	})
	w := store.NewWeapon(tmpl, "shooter", 0)
	w.FireAtObject("target")
	world.frame = 1
	w.FireAtObject("target")

	var impacts []geom.Coord3D
	for _, event := range pub.events {
		if payload, ok := event.Payload.(loggingweapons.FiredPayload); ok {
			impacts = append(impacts, at(payload.X, payload.Y))
		}
	}
	if len(impacts) != 2 {
		t.Fatalf("expected two shots, got %d", len(impacts))
	}
	if impacts[0] != impacts[1] {
		t.Fatalf("expected remembered aim point, got %+v and %+v", impacts[0], impacts[1])
	}
	if geom.Dist2D(impacts[0], target.Position) > 10 {
		t.Fatalf("expected aim point on the victim footprint, got %+v", impacts[0])
	}
	if got := len(world.damageTo("target")); got != 2 {
		t.Fatalf("expected jittered shots to still hit the victim, got %d", got)
	}
}

func TestRandomScatterRadiusWidensVsInfantryAndFollowsTerrain(t *testing.T) {
	world := duelWorld()
	world.terrain = 3
	world.add("blue", Entity{ID: "grunt", Position: at(50, 20), Kinds: KindInfantry})
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:          "mortar",
		PrimaryDamage: 10,
		AttackRange:   100,
		WeaponSpeed:   20,
		Projectile:    "MortarShell",
		Scatter:       &Scatter{Radius: 4, RadiusVsInfantry: 20},
	})

	widest := func(victim ObjectID) float64 {
		world.launches = nil
		victimPos := world.entities[victim].Position
		farthest := 0.0
		for i := 0; i < 200; i++ {
			tmpl.Fire(store, FireRequest{Source: "shooter", Victim: victim, Bonus: bonus.Neutral(), IgnoreRange: true})
		}
		if len(world.launches) != 200 {
			t.Fatalf("expected 200 launches at %q, got %d", victim, len(world.launches))
		}
		for _, launch := range world.launches {
			if launch.Target.Z != 3 {
				t.Fatalf("expected the scattered point to sit on the terrain, got z %v", launch.Target.Z)
			}
			farthest = math.Max(farthest, geom.Dist2D(launch.Target, victimPos))
		}
		return farthest
	}

	if got := widest("target"); got > 4+1e-9 {
		t.Fatalf("expected vehicle scatter within 4, got %v", got)
	}
	got := widest("grunt")
	if got > 24+1e-9 {
		t.Fatalf("expected infantry scatter within 24, got %v", got)
	}
	if got <= 4 {
		t.Fatalf("expected infantry scatter to reach past the base radius, got %v", got)
	}
}

func TestScatteredProjectileHomesOnPosition(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:          "rocket",
		PrimaryDamage: 10,
		AttackRange:   100,
		WeaponSpeed:   20,
		Projectile:    "Rocket",
		Scatter:       &Scatter{Radius: 6},
	})
	result := tmpl.Fire(store, FireRequest{Source: "shooter", Victim: "target", Bonus: bonus.Neutral()})
	if !result.Fired || len(world.launches) != 1 {
		t.Fatalf("expected one launch, got %+v", result)
	}
	launch := world.launches[0]
	if launch.Victim != InvalidID {
		t.Fatalf("expected a scattered projectile to home on its point, got victim %q", launch.Victim)
	}
	if launch.Target == world.entities["target"].Position {
		t.Fatalf("expected the launch point to be displaced")
	}
}

func TestScatterPatternRotation(t *testing.T) {
	world := duelWorld()
	world.add("blue", Entity{ID: "north", Position: at(0, 50)})
	pub := &capturePublisher{}
	store := newTestStore(world, pub)
	aimed := mustRegister(t, store, &Template{
		Name:          "aimed",
		PrimaryDamage: 1,
		AttackRange:   100,
		Scatter:       &Scatter{Targets: []geom.Coord3D{at(5, 0)}, Rotation: ScatterRotationAim},
	})
	spun := mustRegister(t, store, &Template{
		Name:          "spun",
		PrimaryDamage: 1,
		AttackRange:   100,
		Scatter:       &Scatter{Targets: []geom.Coord3D{at(5, 0)}, Rotation: ScatterRotationRandom},
	})

	impacts := func(weapon string) []geom.Coord3D {
		var out []geom.Coord3D
		for _, event := range pub.events {
			payload, ok := event.Payload.(loggingweapons.FiredPayload)
			if ok && payload.Weapon == weapon {
				out = append(out, at(payload.X, payload.Y))
			}
		}
		return out
	}

	store.NewWeapon(aimed, "shooter", 0).FireAtObject("north")
	got := impacts("aimed")
	if len(got) != 1 || !almostEqual(got[0].X, 0) || !almostEqual(got[0].Y, 55) {
		t.Fatalf("expected the offset turned along the line of fire to land at (0,55), got %+v", got)
	}

	for i := 0; i < 8; i++ {
		store.NewWeapon(spun, "shooter", 0).FireAtObject("north")
	}
	distinct := make(map[geom.Coord3D]bool)
	for _, impact := range impacts("spun") {
		if d := geom.Dist2D(impact, at(0, 50)); math.Abs(d-5) > 1e-9 {
			t.Fatalf("expected a rotated offset to keep its length, got distance %v", d)
		}
		distinct[impact] = true
	}
	if len(distinct) < 2 {
		t.Fatalf("expected random rotation to vary the impact point, got %v", distinct)
	}
}

func TestLeechRangeSkipsRangeCheckDuringAttack(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:             "tether",
		PrimaryDamage:    1,
		AttackRange:      100,
		LeechRangeWeapon: true,
	})
	w := store.NewWeapon(tmpl, "shooter", 0)
	if !w.FireAtObject("target").Fired {
		t.Fatalf("expected the first shot in range to fire")
	}

	world.add("blue", Entity{ID: "target", Position: at(300, 0), Kinds: KindVehicle})
	world.frame = 1
	if !w.FireAtObject("target").Fired {
		t.Fatalf("expected a leech weapon to keep firing past its range")
	}
	w.EndAttack()
	world.frame = 2
	if w.FireAtObject("target").Fired {
		t.Fatalf("expected the range check to return once the attack ends")
	}
}

func TestBeamMissFallsBackToGroundPoint(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:          "ray",
		PrimaryDamage: 4,
		AttackRange:   100,
		Beam:          &Beam{Object: "Ray"},
		AimJitter:     &AimJitter{Spread: 40},
	})
	target := world.entities["target"]
	reach := target.Geometry.BoundingRadius()

	misses := 0
	for i := 0; i < 20; i++ {
		before := len(world.damageTo("target"))
		tmpl.Fire(store, FireRequest{Source: "shooter", Victim: "target", Bonus: bonus.Neutral()})
		beam := world.beams[len(world.beams)-1]
		hit := len(world.damageTo("target")) > before
		if geom.Dist2D(beam.To, target.Position) > reach {
			misses++
			if beam.Victim != InvalidID || hit {
				t.Fatalf("expected a beam ending at %+v to miss the victim", beam.To)
			}
			continue
		}
		if beam.Victim != "target" || !hit {
			t.Fatalf("expected a beam ending at %+v to hit the victim", beam.To)
		}
	}
	if misses == 0 {
		t.Fatalf("expected wide aim jitter to make the beam miss at least once")
	}
}
