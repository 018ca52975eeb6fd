package bonus

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errUnknownCondition = errors.New("unknown condition")
	errUnknownDimension = errors.New("unknown dimension")
	errMissingCondition = errors.New("declaration names neither a condition nor a custom status")
	errInvalidFactor    = errors.New("factor must be positive")
)

// Declaration is the authored form of one bonus entry: while Condition (or
// the named Custom status) is active, Dimension is scaled by Factor.
type Declaration struct {
	Condition string  `json:"condition,omitempty" jsonschema:"description=Condition flag name such as VETERAN or GARRISONED"`
	Custom    string  `json:"custom,omitempty" jsonschema:"description=Named custom status used when the flag space is exhausted"`
	Dimension string  `json:"dimension" jsonschema:"enum=DAMAGE,enum=RADIUS,enum=RANGE,enum=RATE_OF_FIRE,enum=PRE_ATTACK,enum=ARMOR"`
	Factor    float64 `json:"factor" jsonschema:"exclusiveMinimum=0,description=Multiplier; 1.2 means +20%"`
}

// Set maps conditions and custom status names to bonus fragments.
type Set struct {
	byCondition [ConditionCount]Bonus
	present     Conditions
	custom      map[string]Bonus
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{}
}

// Set records factor for dimension d while condition c is active.
func (s *Set) Set(c Condition, d Dimension, factor float64) {
	if s == nil || c >= ConditionCount || d >= DimensionCount {
		return
	}
	if !s.present.Has(c) {
		s.byCondition[c] = Neutral()
		s.present = s.present.With(c)
	}
	s.byCondition[c][d] = factor
}

// SetCustom records factor for dimension d while the named custom status is
// active.
func (s *Set) SetCustom(name string, d Dimension, factor float64) {
	if s == nil || d >= DimensionCount {
		return
	}
	key := normalizeCustom(name)
	if key == "" {
		return
	}
	if s.custom == nil {
		s.custom = make(map[string]Bonus)
	}
	fragment, ok := s.custom[key]
	if !ok {
		fragment = Neutral()
	}
	fragment[d] = factor
	s.custom[key] = fragment
}

// Declare applies an authored declaration.
func (s *Set) Declare(decl Declaration) error {
	if s == nil {
		return nil
	}
	dim, ok := ParseDimension(decl.Dimension)
	if !ok {
		return fmt.Errorf("%w %q", errUnknownDimension, decl.Dimension)
	}
	if decl.Factor <= 0 {
		return fmt.Errorf("%w (got %v)", errInvalidFactor, decl.Factor)
	}
	switch {
	case strings.TrimSpace(decl.Condition) != "":
		cond, ok := ParseCondition(decl.Condition)
		if !ok {
			return fmt.Errorf("%w %q", errUnknownCondition, decl.Condition)
		}
		s.Set(cond, dim, decl.Factor)
	case strings.TrimSpace(decl.Custom) != "":
		s.SetCustom(decl.Custom, dim, decl.Factor)
	default:
		return errMissingCondition
	}
	return nil
}

// Lookup returns the fragment for c, if declared.
func (s *Set) Lookup(c Condition) (Bonus, bool) {
	if s == nil || !s.present.Has(c) {
		return Neutral(), false
	}
	return s.byCondition[c], true
}

// LookupCustom returns the fragment for a custom status, if declared.
func (s *Set) LookupCustom(name string) (Bonus, bool) {
	if s == nil || len(s.custom) == 0 {
		return Neutral(), false
	}
	fragment, ok := s.custom[normalizeCustom(name)]
	if !ok {
		return Neutral(), false
	}
	return fragment, true
}

// Apply folds every fragment whose condition or custom status is active into
// b. Absent entries contribute nothing.
func (s *Set) Apply(b *Bonus, flags Conditions, custom []string) {
	if s == nil || b == nil {
		return
	}
	(flags & s.present).Each(func(c Condition) {
		b.Append(s.byCondition[c])
	})
	if len(s.custom) == 0 {
		return
	}
	for _, name := range custom {
		if fragment, ok := s.custom[normalizeCustom(name)]; ok {
			b.Append(fragment)
		}
	}
}

// Empty reports whether the set declares nothing.
func (s *Set) Empty() bool {
	return s == nil || (s.present == 0 && len(s.custom) == 0)
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	clone := &Set{byCondition: s.byCondition, present: s.present}
	if len(s.custom) > 0 {
		clone.custom = make(map[string]Bonus, len(s.custom))
		for k, v := range s.custom {
			clone.custom[k] = v
		}
	}
	return clone
}

// Compose builds the bonus for one fire attempt from the global default layer
// and a template's extra layer. Conditions granted by a container pass
// through and count as the firer's own.
func Compose(global, extra *Set, flags Conditions, custom []string, passthrough Conditions) Bonus {
	b := Neutral()
	active := flags | passthrough
	global.Apply(&b, active, custom)
	extra.Apply(&b, active, custom)
	return b
}

func normalizeCustom(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
