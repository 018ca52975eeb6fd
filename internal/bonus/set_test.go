package bonus

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestComposeAddsIndependentContributions(t *testing.T) {
	global := NewSet()
	global.Set(ConditionVeteran, DimensionDamage, 1.2)
	extra := NewSet()
	extra.Set(ConditionGarrisoned, DimensionDamage, 1.2)

	got := Compose(global, extra, Of(ConditionVeteran, ConditionGarrisoned), nil, 0)
	if math.Abs(got.Field(DimensionDamage)-1.4) > 1e-9 {
		t.Fatalf("expected damage factor 1.4, got %f", got.Field(DimensionDamage))
	}
	if got.Field(DimensionRange) != 1 {
		t.Fatalf("expected untouched range factor 1, got %f", got.Field(DimensionRange))
	}
}

func TestComposeIgnoresInactiveAndUndeclaredEntries(t *testing.T) {
	global := NewSet()
	global.Set(ConditionElite, DimensionRateOfFire, 1.5)

	got := Compose(global, nil, Of(ConditionHero), nil, 0)
	if !got.IsNeutral() {
		t.Fatalf("expected neutral bonus, got %+v", got)
	}
}

func TestComposeHonoursContainerPassthroughAndCustomStatus(t *testing.T) {
	global := NewSet()
	global.Set(ConditionGarrisoned, DimensionRange, 1.25)
	global.SetCustom("overcharged", DimensionDamage, 0.5)

	got := Compose(global, nil, 0, []string{"OVERCHARGED"}, Of(ConditionGarrisoned))
	if got.Field(DimensionRange) != 1.25 {
		t.Fatalf("expected passthrough range factor 1.25, got %f", got.Field(DimensionRange))
	}
	if got.Field(DimensionDamage) != 0.5 {
		t.Fatalf("expected custom damage factor 0.5, got %f", got.Field(DimensionDamage))
	}
}

func TestDeclareRejectsUnknownNames(t *testing.T) {
	set := NewSet()
	if err := set.Declare(Declaration{Condition: "VETERAN", Dimension: "DAMAGE", Factor: 1.1}); err != nil {
		t.Fatalf("expected valid declaration, got %v", err)
	}
	if err := set.Declare(Declaration{Condition: "NOT_A_FLAG", Dimension: "DAMAGE", Factor: 1.1}); err == nil {
		t.Fatalf("expected unknown condition to fail")
	}
	if err := set.Declare(Declaration{Condition: "VETERAN", Dimension: "SPEED", Factor: 1.1}); err == nil {
		t.Fatalf("expected unknown dimension to fail")
	}
	if err := set.Declare(Declaration{Dimension: "DAMAGE", Factor: 1.1}); err == nil {
		t.Fatalf("expected declaration without a condition to fail")
	}
	if err := set.Declare(Declaration{Condition: "VETERAN", Dimension: "DAMAGE", Factor: 0}); err == nil {
		t.Fatalf("expected non-positive factor to fail")
	}
}

func TestComposeIsAdditiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float64Range(-0.9, 2).Draw(t, "x")
		y := rapid.Float64Range(-0.9, 2).Draw(t, "y")
		dim := Dimension(rapid.IntRange(0, int(DimensionCount)-1).Draw(t, "dim"))

		global := NewSet()
		global.Set(ConditionVeteran, dim, 1+x)
		extra := NewSet()
		extra.Set(ConditionHorde, dim, 1+y)

		got := Compose(global, extra, Of(ConditionVeteran, ConditionHorde), nil, 0)
		want := 1 + x + y
		if math.Abs(got.Field(dim)-want) > 1e-9 {
			t.Fatalf("expected %f, got %f", want, got.Field(dim))
		}
	})
}

func TestConditionsEachVisitsInOrder(t *testing.T) {
	set := Of(ConditionHero, ConditionGarrisoned, ConditionElite)
	var seen []Condition
	set.Each(func(c Condition) { seen = append(seen, c) })
	want := []Condition{ConditionGarrisoned, ConditionElite, ConditionHero}
	if len(seen) != len(want) {
		t.Fatalf("expected %d conditions, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v at %d, got %v", want[i], i, seen[i])
		}
	}
	if set.Len() != 3 || !set.Has(ConditionElite) || set.Without(ConditionElite).Has(ConditionElite) {
		t.Fatalf("unexpected set bookkeeping for %b", set)
	}
}
