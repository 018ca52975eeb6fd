package bonus

import (
	"math/bits"
	"strings"
)

// Condition identifies one firer state that can contribute a bonus.
type Condition uint8

const (
	ConditionGarrisoned Condition = iota
	ConditionHorde
	ConditionContinuousFireMean
	ConditionContinuousFireFast
	ConditionNationalism
	ConditionPlayerUpgrade
	ConditionDroneSpotting
	ConditionDemoralized
	ConditionEnthusiastic
	ConditionVeteran
	ConditionElite
	ConditionHero
	ConditionBattlePlanBombardment
	ConditionBattlePlanHoldTheLine
	ConditionBattlePlanSearchAndDestroy
	ConditionSubliminal
	ConditionSolo
	ConditionFanaticism
	ConditionFrenzyOne
	ConditionFrenzyTwo
	ConditionFrenzyThree
	ConditionTargetFaerieFire
	ConditionBombarded
	ConditionRebuilt

	ConditionCount
)

var conditionNames = [ConditionCount]string{
	ConditionGarrisoned:                 "GARRISONED",
	ConditionHorde:                      "HORDE",
	ConditionContinuousFireMean:         "CONTINUOUS_FIRE_MEAN",
	ConditionContinuousFireFast:         "CONTINUOUS_FIRE_FAST",
	ConditionNationalism:                "NATIONALISM",
	ConditionPlayerUpgrade:              "PLAYER_UPGRADE",
	ConditionDroneSpotting:              "DRONE_SPOTTING",
	ConditionDemoralized:                "DEMORALIZED",
	ConditionEnthusiastic:               "ENTHUSIASTIC",
	ConditionVeteran:                    "VETERAN",
	ConditionElite:                      "ELITE",
	ConditionHero:                       "HERO",
	ConditionBattlePlanBombardment:      "BATTLEPLAN_BOMBARDMENT",
	ConditionBattlePlanHoldTheLine:      "BATTLEPLAN_HOLDTHELINE",
	ConditionBattlePlanSearchAndDestroy: "BATTLEPLAN_SEARCHANDDESTROY",
	ConditionSubliminal:                 "SUBLIMINAL",
	ConditionSolo:                       "SOLO",
	ConditionFanaticism:                 "FANATICISM",
	ConditionFrenzyOne:                  "FRENZY_ONE",
	ConditionFrenzyTwo:                  "FRENZY_TWO",
	ConditionFrenzyThree:                "FRENZY_THREE",
	ConditionTargetFaerieFire:           "TARGET_FAERIE_FIRE",
	ConditionBombarded:                  "BOMBARDED",
	ConditionRebuilt:                    "REBUILT",
}

func (c Condition) String() string {
	if c < ConditionCount {
		return conditionNames[c]
	}
	return "UNKNOWN"
}

// ParseCondition resolves a declared condition name. Matching ignores case.
func ParseCondition(name string) (Condition, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(name))
	for c := Condition(0); c < ConditionCount; c++ {
		if conditionNames[c] == trimmed {
			return c, true
		}
	}
	return 0, false
}

// Conditions is a bit set of active conditions.
type Conditions uint64

// Of builds a condition set from the listed conditions.
func Of(conditions ...Condition) Conditions {
	var set Conditions
	for _, c := range conditions {
		set = set.With(c)
	}
	return set
}

// Has reports whether c is active.
func (s Conditions) Has(c Condition) bool {
	if c >= ConditionCount {
		return false
	}
	return s&(1<<c) != 0
}

// With returns s with c set.
func (s Conditions) With(c Condition) Conditions {
	if c >= ConditionCount {
		return s
	}
	return s | 1<<c
}

// Without returns s with c cleared.
func (s Conditions) Without(c Condition) Conditions {
	if c >= ConditionCount {
		return s
	}
	return s &^ (1 << c)
}

// Len returns the number of active conditions.
func (s Conditions) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Each calls fn for every active condition in ascending order.
func (s Conditions) Each(fn func(Condition)) {
	if fn == nil {
		return
	}
	for remaining := uint64(s); remaining != 0; remaining &= remaining - 1 {
		c := Condition(bits.TrailingZeros64(remaining))
		if c >= ConditionCount {
			return
		}
		fn(c)
	}
}
