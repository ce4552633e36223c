package dataset

import (
	"math"
	"slices"
)

// Interval is a closed numeric range [Lo, Hi].
type Interval struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Valid reports whether both bounds are finite and Lo <= Hi.
func (i Interval) Valid() bool {
	if math.IsNaN(i.Lo) || math.IsNaN(i.Hi) || math.IsInf(i.Lo, 0) || math.IsInf(i.Hi, 0) {
		return false
	}
	return i.Lo <= i.Hi
}

// Contains reports whether v lies within the closed interval.
func (i Interval) Contains(v float64) bool {
	return v >= i.Lo && v <= i.Hi
}

// Predicates describes a filter. Nil or empty fields impose no constraint;
// supplied predicates are combined with AND, values within a set with OR.
// An invalid Sleep interval is ignored.
type Predicates struct {
	Sleep    *Interval `json:"sleep,omitempty"`
	Stress   []int     `json:"stress,omitempty"`
	Activity []int     `json:"activity,omitempty"`
}

// IsEmpty reports whether the predicates constrain nothing.
func (p Predicates) IsEmpty() bool {
	return !p.hasSleep() && len(p.Stress) == 0 && len(p.Activity) == 0
}

func (p Predicates) hasSleep() bool {
	return p.Sleep != nil && p.Sleep.Valid()
}

// Match reports whether r satisfies every supplied predicate.
func (p Predicates) Match(r Record) bool {
	if len(p.Stress) > 0 && !slices.Contains(p.Stress, r.StressLevel) {
		return false
	}
	if len(p.Activity) > 0 && !slices.Contains(p.Activity, r.PhysicalActivityLevel) {
		return false
	}
	if p.hasSleep() && !p.Sleep.Contains(r.SleepDuration) {
		return false
	}
	return true
}

// Filter returns the rows satisfying p, preserving source order. The
// receiver is left untouched; an empty result is a valid Table.
func (t *Table) Filter(p Predicates) *Table {
	if p.IsEmpty() {
		return t.derive(slices.Clone(t.records))
	}
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return t.derive(out)
}
