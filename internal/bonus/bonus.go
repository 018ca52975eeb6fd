package bonus

import (
	"fmt"
	"strings"
)

// Dimension enumerates the independently scalable weapon attributes.
type Dimension uint8

const (
	DimensionDamage Dimension = iota
	DimensionRadius
	DimensionRange
	DimensionRateOfFire
	DimensionPreAttack
	DimensionArmor

	DimensionCount
)

var dimensionNames = [DimensionCount]string{
	DimensionDamage:     "DAMAGE",
	DimensionRadius:     "RADIUS",
	DimensionRange:      "RANGE",
	DimensionRateOfFire: "RATE_OF_FIRE",
	DimensionPreAttack:  "PRE_ATTACK",
	DimensionArmor:      "ARMOR",
}

func (d Dimension) String() string {
	if d < DimensionCount {
		return dimensionNames[d]
	}
	return fmt.Sprintf("Dimension(%d)", uint8(d))
}

// ParseDimension resolves a declared dimension name. Matching ignores case.
func ParseDimension(name string) (Dimension, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(name))
	for d := Dimension(0); d < DimensionCount; d++ {
		if dimensionNames[d] == trimmed {
			return d, true
		}
	}
	return 0, false
}

// Bonus is a vector of multiplicative factors, one per dimension. A neutral
// bonus holds 1.0 everywhere.
type Bonus [DimensionCount]float64

// Neutral returns a bonus that leaves every dimension unchanged.
func Neutral() Bonus {
	var b Bonus
	for i := range b {
		b[i] = 1
	}
	return b
}

// Field returns the factor for d.
func (b Bonus) Field(d Dimension) float64 {
	if d >= DimensionCount {
		return 1
	}
	return b[d]
}

// Append folds fragment into b. Composition is additive on the
// centered-at-one representation: two +20% fragments produce +40%.
func (b *Bonus) Append(fragment Bonus) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] += fragment[i] - 1
	}
}

// Scaled reports value multiplied by the factor for d.
func (b Bonus) Scaled(d Dimension, value float64) float64 {
	return value * b.Field(d)
}

// IsNeutral reports whether every factor equals 1.
func (b Bonus) IsNeutral() bool {
	for _, factor := range b {
		if factor != 1 {
			return false
		}
	}
	return true
}
