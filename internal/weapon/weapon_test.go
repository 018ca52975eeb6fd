package weapon

import (
	"testing"

	"pgregory.net/rapid"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	loggingweapons "ordnance/logging/weapons"
)

func duelWorld() *testWorld {
	world := newTestWorld()
	world.add("red", Entity{ID: "shooter", Position: at(0, 0), Kinds: KindVehicle})
	world.add("blue", Entity{ID: "target", Position: at(50, 0), Kinds: KindVehicle})
	return world
}

func TestClipAutoReloadScenario(t *testing.T) {
	world := duelWorld()
	pub := &capturePublisher{}
	store := newTestStore(world, pub)
	cannon := mustRegister(t, store, &Template{
		Name:                 "cannon",
		PrimaryDamage:        10,
		AttackRange:          100,
		ClipSize:             3,
		ClipReloadTime:       30,
		MinDelayBetweenShots: 1,
	})
	w := store.NewWeapon(cannon, "shooter", 0)

	for frame := uint32(0); frame < 3; frame++ {
		world.frame = frame
		if got := w.Status(); got != StatusReadyToFire {
			t.Fatalf("frame %d: expected READY_TO_FIRE, got %s", frame, got)
		}
		if frame == 2 && w.Ammo() != 1 {
			t.Fatalf("expected one round before the last shot, got %d", w.Ammo())
		}
		if result := w.FireAtObject("target"); !result.Fired {
			t.Fatalf("frame %d: expected shot to fire", frame)
		}
	}

	if got := w.Status(); got != StatusReloadingClip {
		t.Fatalf("expected RELOADING_CLIP after emptying the clip, got %s", got)
	}
	if got := w.NextFireFrame(); got != 32 {
		t.Fatalf("expected next fire at frame 32, got %d", got)
	}
	if got := w.Ammo(); got != 3 {
		t.Fatalf("expected reload to refill the clip, got %d", got)
	}
	if got := len(world.damageTo("target")); got != 3 {
		t.Fatalf("expected three hits, got %d", got)
	}
	if got := pub.count(loggingweapons.EventReload); got != 1 {
		t.Fatalf("expected one reload event, got %d", got)
	}

	world.frame = 31
	if result := w.FireAtObject("target"); result.Fired {
		t.Fatalf("expected weapon to refuse fire while reloading")
	}
	world.frame = 32
	if got := w.Status(); got != StatusReadyToFire {
		t.Fatalf("expected READY_TO_FIRE at frame 32, got %s", got)
	}
}

func TestNoReloadPolicyStaysOutOfAmmo(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	rocket := mustRegister(t, store, &Template{
		Name:           "one-shot",
		PrimaryDamage:  100,
		AttackRange:    100,
		ClipSize:       1,
		ClipReloadTime: 30,
		Reload:         ReloadNone,
	})
	w := store.NewWeapon(rocket, "shooter", 0)

	if !w.FireAtObject("target").Fired {
		t.Fatalf("expected first shot to fire")
	}
	world.frame = 10000
	if got := w.Status(); got != StatusOutOfAmmo {
		t.Fatalf("expected OUT_OF_AMMO, got %s", got)
	}
	if got := w.NextFireFrame(); got != NeverFrame {
		t.Fatalf("expected next fire to never elapse, got %d", got)
	}
	if got := w.Ammo(); got != 0 {
		t.Fatalf("expected empty clip, got %d", got)
	}

	w.Reload(true)
	if got := w.Status(); got != StatusReadyToFire {
		t.Fatalf("expected instant reload to ready the weapon, got %s", got)
	}
}

func TestUnlimitedAmmoWithoutClip(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	gun := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 1, AttackRange: 100})
	w := store.NewWeapon(gun, "shooter", 0)
	for i := 0; i < 5; i++ {
		if !w.FireAtObject("target").Fired {
			t.Fatalf("shot %d: expected fire", i)
		}
	}
	if got := w.Ammo(); got != UnlimitedAmmo {
		t.Fatalf("expected unlimited ammo sentinel, got %d", got)
	}
}

func TestStatusIsIdempotentWithinFrame(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		world := duelWorld()
		store := newTestStore(world, nil)
		tmpl := &Template{
			Name:                 "gun",
			PrimaryDamage:        1,
			AttackRange:          100,
			ClipSize:             rapid.IntRange(0, 4).Draw(rt, "clip"),
			ClipReloadTime:       uint32(rapid.IntRange(0, 20).Draw(rt, "reload")),
			MinDelayBetweenShots: uint32(rapid.IntRange(0, 10).Draw(rt, "delay")),
			PreAttackDelay:       uint32(rapid.IntRange(0, 5).Draw(rt, "preAttack")),
		}
		if err := store.Register(tmpl); err != nil {
			rt.Fatalf("register: %v", err)
		}
		w := store.NewWeapon(tmpl, "shooter", 0)
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			world.frame += uint32(rapid.IntRange(0, 6).Draw(rt, "advance"))
			switch rapid.IntRange(0, 2).Draw(rt, "action") {
			case 0:
				w.FireAtObject("target")
			case 1:
				w.PreFire("target")
			}
			first := w.Status()
			second := w.Status()
			if first != second {
				rt.Fatalf("frame %d: status changed between reads: %s then %s", world.frame, first, second)
			}
			if w.Ammo() < 0 {
				rt.Fatalf("ammo went negative: %d", w.Ammo())
			}
		}
	})
}

func TestPercentReadyTracksCooldown(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	gun := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 1, AttackRange: 100, MinDelayBetweenShots: 10})
	w := store.NewWeapon(gun, "shooter", 0)

	if got := w.PercentReady(); got != 1 {
		t.Fatalf("expected a fresh weapon to be fully ready, got %.2f", got)
	}
	w.FireAtObject("target")
	world.frame = 5
	if got := w.PercentReady(); !almostEqual(got, 0.5) {
		t.Fatalf("expected half ready at frame 5, got %.2f", got)
	}
	world.frame = 10
	if got := w.PercentReady(); got != 1 {
		t.Fatalf("expected ready at frame 10, got %.2f", got)
	}
}

func TestBonusScalesCooldownAndRestampsOnChange(t *testing.T) {
	world := duelWorld()
	global := bonus.NewSet()
	global.Set(bonus.ConditionVeteran, bonus.DimensionRateOfFire, 2)
	store := NewStore(Deps{
		World:       world,
		Spatial:     world,
		Damage:      world,
		Clock:       ClockFunc(func() uint32 { return world.frame }),
		GlobalBonus: global,
	})
	gun := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 1, AttackRange: 100, MinDelayBetweenShots: 20})
	w := store.NewWeapon(gun, "shooter", 0)

	w.FireAtObject("target")
	if got := w.NextFireFrame(); got != 20 {
		t.Fatalf("expected unmodified delay of 20 frames, got %d", got)
	}

	world.frame = 4
	shooter := world.entities["shooter"]
	shooter.Conditions = bonus.Of(bonus.ConditionVeteran)
	world.entities["shooter"] = shooter
	w.OnBonusChanged()
	if got := w.NextFireFrame(); got != 14 {
		t.Fatalf("expected restamped cooldown to end at 14, got %d", got)
	}

	world.frame = 14
	w.FireAtObject("target")
	if got := w.NextFireFrame(); got != 24 {
		t.Fatalf("expected halved delay after bonus, got %d", got)
	}
}

func TestPreFireGranularity(t *testing.T) {
	tests := []struct {
		name        string
		granularity PreAttackGranularity
		clip        int
		// victim of the follow-up PreFire after one completed shot at target
		followUp ObjectID
		waived   bool
	}{
		{name: "per shot always waits", granularity: PreAttackPerShot, followUp: "target", waived: false},
		{name: "per attack waived for same victim", granularity: PreAttackPerAttack, followUp: "target", waived: true},
		{name: "per attack waits for new victim", granularity: PreAttackPerAttack, followUp: "other", waived: false},
		{name: "per clip waived mid clip", granularity: PreAttackPerClip, clip: 3, followUp: "other", waived: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := duelWorld()
			world.add("blue", Entity{ID: "other", Position: at(0, 40)})
			store := newTestStore(world, nil)
			tmpl := mustRegister(t, store, &Template{
				Name:           "lance",
				PrimaryDamage:  5,
				AttackRange:    100,
				ClipSize:       tt.clip,
				ClipReloadTime: 60,
				PreAttackDelay: 6,
				PreAttackType:  tt.granularity,
			})
			w := store.NewWeapon(tmpl, "shooter", 0)

			w.PreFire("target")
			if got := w.Status(); got != StatusPreAttack {
				t.Fatalf("expected PRE_ATTACK after first PreFire, got %s", got)
			}
			if w.FireAtObject("target").Fired {
				t.Fatalf("expected fire to be refused during pre-attack")
			}
			world.frame = 6
			if !w.FireAtObject("target").Fired {
				t.Fatalf("expected fire once pre-attack elapsed")
			}

			w.PreFire(tt.followUp)
			waived := w.Status() != StatusPreAttack
			if waived != tt.waived {
				t.Fatalf("expected waived=%v, status %s", tt.waived, w.Status())
			}
		})
	}
}

func TestPreAttackBonusShortensDelay(t *testing.T) {
	world := duelWorld()
	global := bonus.NewSet()
	global.Set(bonus.ConditionElite, bonus.DimensionPreAttack, 2)
	store := NewStore(Deps{World: world, Clock: ClockFunc(func() uint32 { return world.frame }), GlobalBonus: global})
	tmpl := mustRegister(t, store, &Template{Name: "lance", AttackRange: 100, PreAttackDelay: 10})
	shooter := world.entities["shooter"]
	shooter.Conditions = bonus.Of(bonus.ConditionElite)
	world.entities["shooter"] = shooter

	w := store.NewWeapon(tmpl, "shooter", 0)
	w.PreFire("target")
	world.frame = 5
	if got := w.Status(); got != StatusReadyToFire {
		t.Fatalf("expected pre-attack to finish at frame 5, got %s", got)
	}
}

func TestReloadIfIdle(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:                 "rifle",
		PrimaryDamage:        1,
		AttackRange:          100,
		ClipSize:             3,
		ClipReloadTime:       30,
		MinDelayBetweenShots: 1,
		IdleReloadDelay:      60,
	})
	w := store.NewWeapon(tmpl, "shooter", 0)
	w.FireAtObject("target")

	world.frame = 30
	if w.ReloadIfIdle() {
		t.Fatalf("expected no idle reload before the idle delay")
	}
	world.frame = 60
	if !w.ReloadIfIdle() {
		t.Fatalf("expected idle reload at frame 60")
	}
	if got := w.Status(); got != StatusReloadingClip {
		t.Fatalf("expected RELOADING_CLIP, got %s", got)
	}
	if got := w.Ammo(); got != 3 {
		t.Fatalf("expected full clip, got %d", got)
	}
	if w.ReloadIfIdle() {
		t.Fatalf("expected a full clip not to reload again")
	}
}

func TestBarrelCycling(t *testing.T) {
	tests := []struct {
		name      string
		disguised bool
		want      []int
	}{
		{name: "two barrels two shots each", want: []int{0, 1, 1, 0}},
		{name: "disguised single barrel", disguised: true, want: []int{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := duelWorld()
			shooter := world.entities["shooter"]
			shooter.Barrels = 2
			shooter.Disguised = tt.disguised
			shooter.DisguisedBarrels = 1
			world.entities["shooter"] = shooter
			store := newTestStore(world, nil)
			tmpl := mustRegister(t, store, &Template{Name: "twin", PrimaryDamage: 1, AttackRange: 100, ShotsPerBarrel: 2})
			w := store.NewWeapon(tmpl, "shooter", 0)
			for i, want := range tt.want {
				w.FireAtObject("target")
				if got := w.Barrel(); got != want {
					t.Fatalf("shot %d: expected barrel %d, got %d", i, want, got)
				}
			}
		})
	}
}

func TestContinuousFireLevel(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:                 "minigun",
		PrimaryDamage:        1,
		AttackRange:          100,
		MinDelayBetweenShots: 1,
		ContinuousFireOne:    2,
		ContinuousFireTwo:    4,
		ContinuousFireCoast:  10,
	})
	w := store.NewWeapon(tmpl, "shooter", 0)

	want := []int{0, 1, 1, 2}
	for frame, level := range want {
		world.frame = uint32(frame)
		if !w.FireAtObject("target").Fired {
			t.Fatalf("frame %d: expected fire", frame)
		}
		if got := w.ContinuousFireLevel(); got != level {
			t.Fatalf("frame %d: expected level %d, got %d", frame, level, got)
		}
	}

	world.frame = 15
	if got := w.ContinuousFireLevel(); got != 0 {
		t.Fatalf("expected level to coast back to 0, got %d", got)
	}
	w.EndAttack()
	world.frame = 16
	w.FireAtObject("target")
	if got := w.ContinuousFireLevel(); got != 0 {
		t.Fatalf("expected a fresh attack to start at level 0, got %d", got)
	}
}

func TestContinuousFireFallsBackWithoutCoast(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{
		Name:                 "autocannon",
		PrimaryDamage:        1,
		AttackRange:          100,
		MinDelayBetweenShots: 3,
		ContinuousFireOne:    2,
		ContinuousFireTwo:    4,
	})
	w := store.NewWeapon(tmpl, "shooter", 0)
	for shot := 0; shot < 4; shot++ {
		world.frame = uint32(shot * 3)
		if !w.FireAtObject("target").Fired {
			t.Fatalf("shot %d: expected fire on frame %d", shot, world.frame)
		}
	}
	if got := w.ContinuousFireLevel(); got != 2 {
		t.Fatalf("expected level 2 after four shots, got %d", got)
	}

	world.frame = 12
	if got := w.ContinuousFireLevel(); got != 2 {
		t.Fatalf("expected the level to hold through the inter-shot delay, got %d", got)
	}
	world.frame = 13
	if got := w.ContinuousFireLevel(); got != 0 {
		t.Fatalf("expected the level to drop once the delay has passed, got %d", got)
	}
	world.frame = 100000
	if got := w.ContinuousFireLevel(); got != 0 {
		t.Fatalf("expected an idle weapon to stay at level 0, got %d", got)
	}
}

func TestScatterPatternUsesEveryOffsetOnce(t *testing.T) {
	world := duelWorld()
	pub := &capturePublisher{}
	store := newTestStore(world, pub)
	offsets := []geom.Coord3D{at(5, 0), at(0, 5), at(-5, 0)}
	tmpl := mustRegister(t, store, &Template{
		Name:          "salvo",
		PrimaryDamage: 1,
		AttackRange:   100,
		Scatter:       &Scatter{Targets: offsets},
	})
	w := store.NewWeapon(tmpl, "shooter", 0)
	if got := w.ScatterRemaining(); got != 3 {
		t.Fatalf("expected three unused offsets, got %d", got)
	}

	seen := make(map[geom.Coord3D]bool)
	for i := 0; i < 3; i++ {
		w.FireAtObject("target")
	}
	for _, event := range pub.events {
		payload, ok := event.Payload.(loggingweapons.FiredPayload)
		if !ok {
			continue
		}
		seen[geom.Coord3D{X: payload.X - 50, Y: payload.Y}] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected three distinct impact points, got %d", len(seen))
	}
	for _, offset := range offsets {
		if !seen[offset] {
			t.Fatalf("expected offset %+v to be used", offset)
		}
	}
	if got := w.ScatterRemaining(); got != 0 {
		t.Fatalf("expected empty scatter queue, got %d", got)
	}
	w.FireAtObject("target")
	if got := w.ScatterRemaining(); got != 2 {
		t.Fatalf("expected queue to refill on exhaustion, got %d", got)
	}
}

func TestEstimateDamageHasNoSideEffects(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 12, AttackRange: 100, ClipSize: 2})
	w := store.NewWeapon(tmpl, "shooter", 0)

	if got := w.EstimateDamage("target"); got != 12 {
		t.Fatalf("expected estimate of 12, got %.2f", got)
	}
	if len(world.damage) != 0 {
		t.Fatalf("expected estimate not to apply damage")
	}
	if w.Ammo() != 2 || w.Status() != StatusReadyToFire {
		t.Fatalf("expected estimate not to touch weapon state")
	}

	airborne := world.add("blue", Entity{ID: "jet", Position: at(30, 0), HeightAboveTerrain: 50})
	if got := w.EstimateDamage(airborne.ID); got != 0 {
		t.Fatalf("expected ground-only weapon to estimate zero vs aircraft, got %.2f", got)
	}
}

func TestTransferReloadStateFrom(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	tmpl := mustRegister(t, store, &Template{Name: "gun", PrimaryDamage: 1, AttackRange: 100, MinDelayBetweenShots: 20})
	old := store.NewWeapon(tmpl, "shooter", 0)
	old.FireAtObject("target")

	replacement := store.NewWeapon(tmpl, "shooter", 0)
	replacement.TransferReloadStateFrom(old)
	world.frame = 10
	if got := replacement.Status(); got != StatusBetweenFiringShots {
		t.Fatalf("expected transferred cooldown, got %s", got)
	}
	if got := replacement.NextFireFrame(); got != 20 {
		t.Fatalf("expected next fire 20, got %d", got)
	}
}

func TestScatterRecentersOnPartialReload(t *testing.T) {
	world := duelWorld()
	pub := &capturePublisher{}
	store := newTestStore(world, pub)
	offsets := []geom.Coord3D{at(10, 0), at(20, 0), at(30, 0), at(40, 0)}
	tmpl := mustRegister(t, store, &Template{
		Name:          "rack",
		PrimaryDamage: 1,
		AttackRange:   100,
		Scatter:       &Scatter{Targets: offsets, Recenter: true},
	})
	w := store.NewWeapon(tmpl, "shooter", 0)

	impactOffsets := func() []float64 {
		var out []float64
		for _, event := range pub.events {
			if payload, ok := event.Payload.(loggingweapons.FiredPayload); ok {
				out = append(out, payload.X-50)
			}
		}
		pub.events = nil
		return out
	}

	w.FireAtObject("target")
	w.FireAtObject("target")
	used := make(map[float64]bool)
	for _, x := range impactOffsets() {
		used[x] = true
	}
	if len(used) != 2 {
		t.Fatalf("expected two distinct offsets before the reload, got %v", used)
	}
	var remaining []float64
	for _, offset := range offsets {
		if !used[offset.X] {
			remaining = append(remaining, offset.X)
		}
	}
	mean := (remaining[0] + remaining[1]) / 2

	w.Reload(true)
	if got := w.ScatterRemaining(); got != 4 {
		t.Fatalf("expected a full queue after reload, got %d", got)
	}
	for i := 0; i < 4; i++ {
		w.FireAtObject("target")
	}
	want := make(map[float64]bool)
	for _, offset := range offsets {
		want[offset.X-mean] = true
	}
	got := impactOffsets()
	if len(got) != 4 {
		t.Fatalf("expected four shots after the reload, got %d", len(got))
	}
	for _, x := range got {
		if !want[x] {
			t.Fatalf("expected offsets shifted by the unused mean %v, got %v", mean, got)
		}
		delete(want, x)
	}
}

func TestMovingDelayScalar(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		want  uint32
	}{
		{name: "stationary", speed: 0, want: 10},
		{name: "half speed", speed: 5, want: 7},
		{name: "full speed", speed: 10, want: 5},
		{name: "over max", speed: 20, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := duelWorld()
			shooter := world.entities["shooter"]
			shooter.Speed = tt.speed
			shooter.MaxSpeed = 10
			world.entities["shooter"] = shooter
			store := newTestStore(world, nil)
			tmpl := mustRegister(t, store, &Template{
				Name:                 "strafer",
				PrimaryDamage:        1,
				AttackRange:          100,
				MinDelayBetweenShots: 10,
				MovingDelayScalar:    0.5,
			})
			w := store.NewWeapon(tmpl, "shooter", 0)
			if !w.FireAtObject("target").Fired {
				t.Fatalf("expected the shot to fire")
			}
			if got := w.NextFireFrame(); got != tt.want {
				t.Fatalf("expected next fire at %d, got %d", tt.want, got)
			}
		})
	}
}
