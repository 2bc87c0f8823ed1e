package series

import (
	"fmt"
)

// Point is the typed view of one period across all four branches.
type Point struct {
	Period      string `json:"period"`
	Actual      Value  `json:"actual"`
	Base        Value  `json:"base"`
	Optimistic  Value  `json:"optimistic"`
	Pessimistic Value  `json:"pessimistic"`
}

// Value returns the value of branch b.
func (p Point) Value(b Branch) Value {
	switch b {
	case Actual:
		return p.Actual
	case Base:
		return p.Base
	case Optimistic:
		return p.Optimistic
	case Pessimistic:
		return p.Pessimistic
	}
	return Pending()
}

// FromPoints builds a series with canonical keys (see DefaultKeys).
func FromPoints(name string, points []Point) (*Series, error) {
	keys := DefaultKeys()
	records := make([]Record, len(points))
	for i, p := range points {
		r := Record{PeriodKey: p.Period}
		for _, b := range AllBranches {
			key, _ := keys.Key(b)
			if amount, ok := p.Value(b).Get(); ok {
				r[key] = amount
			} else {
				r[key] = nil
			}
		}
		records[i] = r
	}
	return New(name, PeriodKey, records)
}

// Points resolves every period through keys. Branches absent from the map
// are Pending.
func (s *Series) Points(keys BranchKeyMap) []Point {
	points := make([]Point, s.Len())
	for i := range points {
		p := Point{Period: s.Period(i)}
		p.Actual, _ = s.Branch(i, keys, Actual)
		p.Base, _ = s.Branch(i, keys, Base)
		p.Optimistic, _ = s.Branch(i, keys, Optimistic)
		p.Pessimistic, _ = s.Branch(i, keys, Pessimistic)
		points[i] = p
	}
	return points
}

// Check reports periods where the projection ordering
// pessimistic <= base <= optimistic does not hold. The ordering is expected,
// not enforced, so violations are returned as warnings.
func (s *Series) Check(keys BranchKeyMap) []string {
	var warnings []string
	for _, p := range s.Points(keys) {
		base, baseOK := p.Base.Get()
		if !baseOK {
			continue
		}
		if opt, ok := p.Optimistic.Get(); ok && opt < base {
			warnings = append(warnings, fmt.Sprintf("series %q period %s: optimistic %v below base %v",
				s.name, p.Period, opt, base))
		}
		if pes, ok := p.Pessimistic.Get(); ok && pes > base {
			warnings = append(warnings, fmt.Sprintf("series %q period %s: pessimistic %v above base %v",
				s.name, p.Period, pes, base))
		}
	}
	return warnings
}
