package weapon

import "testing"

func TestSharedReloadMirrorsSiblings(t *testing.T) {
	world := duelWorld()
	shooter := world.entities["shooter"]
	shooter.SharedReload = true
	world.add("red", shooter)
	store := newTestStore(world, nil)
	cannon := mustRegister(t, store, &Template{Name: "cannon", PrimaryDamage: 5, AttackRange: 100, MinDelayBetweenShots: 12})
	mg := mustRegister(t, store, &Template{Name: "mg", PrimaryDamage: 1, AttackRange: 100, MinDelayBetweenShots: 2, ClipSize: 4, ClipReloadTime: 20})

	set := store.NewWeaponSet("shooter", cannon, mg)
	set.Slot(1).ammo = 1

	if res := set.Slot(0).FireAtObject("target"); !res.Fired {
		t.Fatalf("expected the cannon to fire")
	}
	if got := set.Slot(1).NextFireFrame(); got != 12 {
		t.Fatalf("expected the cannon cooldown mirrored onto the mg, got %d", got)
	}

	world.frame = 12
	set.Slot(1).FireAtObject("target")
	if set.Slot(1).Status() != StatusReloadingClip {
		t.Fatalf("expected the mg to start reloading, got %s", set.Slot(1).Status())
	}
	if set.Slot(0).Status() != StatusReloadingClip || set.Slot(0).NextFireFrame() != 32 {
		t.Fatalf("expected the reload mirrored onto the cannon, got %s until %d", set.Slot(0).Status(), set.Slot(0).NextFireFrame())
	}
}

func TestIndependentSlotsWithoutSharedReload(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	a := mustRegister(t, store, &Template{Name: "a", AttackRange: 100, MinDelayBetweenShots: 10})
	b := mustRegister(t, store, &Template{Name: "b", AttackRange: 100, MinDelayBetweenShots: 10})
	set := store.NewWeaponSet("shooter", a, b)

	set.Slot(0).FireAtObject("target")
	if set.Slot(1).Status() != StatusReadyToFire {
		t.Fatalf("expected the second slot untouched, got %s", set.Slot(1).Status())
	}
}

func TestBestReadySkipsUnreachableSlots(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	knife := mustRegister(t, store, &Template{Name: "knife", AttackRange: 5})
	rifle := mustRegister(t, store, &Template{Name: "rifle", AttackRange: 100, MinDelayBetweenShots: 10})
	set := store.NewWeaponSet("shooter", nil, knife, rifle)

	if set.Len() != 3 || len(set.Weapons()) != 2 {
		t.Fatalf("expected one empty slot, got len %d with %d weapons", set.Len(), len(set.Weapons()))
	}
	best := set.BestReady("target")
	if best == nil || best.Template() != rifle {
		t.Fatalf("expected the rifle, got %v", best)
	}
	best.FireAtObject("target")
	if set.BestReady("target") != nil {
		t.Fatalf("expected nothing ready while the rifle cools down")
	}
}

func TestRebuildKeepsMatchingSlots(t *testing.T) {
	world := duelWorld()
	store := newTestStore(world, nil)
	mg := mustRegister(t, store, &Template{Name: "mg", AttackRange: 100, MinDelayBetweenShots: 8, ClipSize: 5, ClipReloadTime: 30})
	rocket := mustRegister(t, store, &Template{Name: "rocket", AttackRange: 100, MinDelayBetweenShots: 40})
	set := store.NewWeaponSet("shooter", mg)
	set.Slot(0).FireAtObject("target")

	set.Rebuild(mg, rocket)
	if got := set.Slot(0).Ammo(); got != 4 {
		t.Fatalf("expected ammo carried over, got %d", got)
	}
	if got := set.Slot(0).NextFireFrame(); got != 8 {
		t.Fatalf("expected cooldown carried over, got %d", got)
	}
	if set.Slot(1).Status() != StatusReadyToFire {
		t.Fatalf("expected the new slot ready, got %s", set.Slot(1).Status())
	}

	set.Rebuild(rocket)
	if set.Slot(0).Template() != rocket || set.Slot(0).Status() != StatusReadyToFire {
		t.Fatalf("expected a fresh rocket in slot 0")
	}
}
