package weapon_test

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/mock/gomock"

	"ordnance/internal/bonus"
	"ordnance/internal/geom"
	"ordnance/internal/telemetry"
	"ordnance/internal/weapon"
	"ordnance/internal/weapon/mocks"
)

func TestKillsSelfNeverQueriesSpatialIndex(t *testing.T) {
	ctrl := gomock.NewController(t)

	source := weapon.Entity{ID: "bomber", Position: geom.Coord3D{X: 5, Y: 5}}
	world := mocks.NewMockWorld(ctrl)
	world.EXPECT().Lookup(weapon.ObjectID("bomber")).Return(source, true).AnyTimes()
	// Any call on the spatial index fails the test.
	spatial := mocks.NewMockSpatialIndex(ctrl)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Frame().Return(uint32(42)).AnyTimes()

	sink := mocks.NewMockDamageSink(ctrl)
	sink.EXPECT().ApplyDamage(weapon.ObjectID("bomber"), gomock.Any()).Do(func(_ weapon.ObjectID, record weapon.DamageRecord) {
		if record.Amount != weapon.LethalDamage {
			t.Fatalf("expected lethal damage, got %v", record.Amount)
		}
		if record.DamageType != weapon.DamageUnresistable {
			t.Fatalf("expected unresistable damage, got %s", record.DamageType)
		}
		if record.Frame != 42 {
			t.Fatalf("expected record stamped with frame 42, got %d", record.Frame)
		}
	}).Times(1)

	store := weapon.NewStore(weapon.Deps{World: world, Spatial: spatial, Damage: sink, Clock: clock})
	tmpl := &weapon.Template{
		Name:                "suicide-vest",
		PrimaryDamage:       300,
		PrimaryDamageRadius: 50,
		AttackRange:         10,
		Affects:             weapon.AffectsKillsSelf,
	}
	if err := store.Register(tmpl); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := tmpl.DealDamage(store, weapon.DamageRequest{Source: "bomber", Position: source.Position, Bonus: bonus.Neutral()}); got != 1 {
		t.Fatalf("expected one record, got %d", got)
	}
}

func TestPresenterErrorsAreLoggedAndIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)

	shooter := weapon.Entity{ID: "rail", Position: geom.Coord3D{}, Geometry: weapon.Geometry{MajorRadius: 1}}
	target := weapon.Entity{ID: "tank", Position: geom.Coord3D{X: 40}, Geometry: weapon.Geometry{MajorRadius: 1}}

	world := mocks.NewMockWorld(ctrl)
	world.EXPECT().Lookup(weapon.ObjectID("rail")).Return(shooter, true).AnyTimes()
	world.EXPECT().Lookup(weapon.ObjectID("tank")).Return(target, true).AnyTimes()
	world.EXPECT().Relationship(gomock.Any(), gomock.Any()).Return(weapon.RelationshipEnemies).AnyTimes()

	spatial := mocks.NewMockSpatialIndex(ctrl)
	spatial.EXPECT().AlongLine(gomock.Any(), gomock.Any(), 2.0, []weapon.ObjectID{"rail"}).Return([]weapon.ObjectID{"tank"})

	presenter := mocks.NewMockPresenter(ctrl)
	presenter.EXPECT().PlayFX(gomock.Any()).Return(errors.New("fx budget exhausted"))

	sink := mocks.NewMockDamageSink(ctrl)
	sink.EXPECT().ApplyDamage(weapon.ObjectID("tank"), gomock.Any()).Times(1)

	var logged []string
	store := weapon.NewStore(weapon.Deps{
		World:     world,
		Spatial:   spatial,
		Damage:    sink,
		Presenter: presenter,
		Logger: telemetry.LoggerFunc(func(format string, args ...any) {
			logged = append(logged, fmt.Sprintf(format, args...))
		}),
	})
	tmpl := &weapon.Template{
		Name:          "rail",
		PrimaryDamage: 50,
		AttackRange:   100,
		Railgun:       &weapon.Railgun{Corridor: 2, FX: "rail-trail"},
	}
	if err := store.Register(tmpl); err != nil {
		t.Fatalf("register: %v", err)
	}
	applied := tmpl.DealDamage(store, weapon.DamageRequest{Source: "rail", Victim: "tank", Position: target.Position, Bonus: bonus.Neutral()})
	if applied != 1 {
		t.Fatalf("expected the hit to land despite the fx failure, got %d", applied)
	}
	if len(logged) != 1 {
		t.Fatalf("expected the fx failure to be logged once, got %v", logged)
	}
}
