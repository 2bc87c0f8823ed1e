// Package series defines the scenario series data contract shared by the
// chart and table renderers: an ordered, immutable sequence of period records
// whose branch values are resolved through a BranchKeyMap.
package series

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicatePeriod is returned when two records share a period label.
var ErrDuplicatePeriod = errors.New("duplicate period")

// PeriodKey is the period field of series built from points.
const PeriodKey = "period"

// Series is an ordered sequence of period records. It is never mutated after
// construction; renderers and view modes share the same instance.
type Series struct {
	name      string
	periodKey string
	records   []Record
	periods   []string
}

// New builds a series from raw records in display order. Records are copied.
func New(name, periodKey string, records []Record) (*Series, error) {
	periodKey = strings.TrimSpace(periodKey)
	if periodKey == "" {
		return nil, errors.New("period key must not be empty")
	}

	s := &Series{
		name:      name,
		periodKey: periodKey,
		records:   make([]Record, len(records)),
		periods:   make([]string, len(records)),
	}
	seen := make(map[string]int, len(records))
	for i, r := range records {
		period := toField(r[periodKey])
		var label string
		switch period.Kind() {
		case FieldText:
			label = period.Text()
		case FieldNumber:
			label = fmt.Sprint(period.number)
		default:
			return nil, fmt.Errorf("record %d of series %q has no %q field", i, name, periodKey)
		}
		if prev, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w %q in series %q (records %d and %d)", ErrDuplicatePeriod, label, name, prev, i)
		}
		seen[label] = i
		s.periods[i] = label
		s.records[i] = cloneRecord(r)
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for literals in tests.
func MustNew(name, periodKey string, records []Record) *Series {
	s, err := New(name, periodKey, records)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// PeriodKey returns the name of the period field.
func (s *Series) PeriodKey() string { return s.periodKey }

// Len returns the number of periods.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Period returns the label of period i.
func (s *Series) Period(i int) string { return s.periods[i] }

// Periods returns a copy of all period labels in order.
func (s *Series) Periods() []string {
	return append([]string(nil), s.periods...)
}

// Field reads key from the record of period i. Keys starting with "$" are
// JSONPath expressions.
func (s *Series) Field(i int, key string) Field {
	return toField(lookup(s.records[i], key))
}

// Branch resolves branch b of period i through keys. The boolean is false
// when the map has no key for the branch.
func (s *Series) Branch(i int, keys BranchKeyMap, b Branch) (Value, bool) {
	key, ok := keys.Key(b)
	if !ok {
		return Pending(), false
	}
	return s.Field(i, key).Value(), true
}

// Records returns a deep copy of the raw records.
func (s *Series) Records() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, inner := range x {
			out[k] = cloneValue(inner)
		}
		return out
	case Record:
		return cloneRecord(x)
	case []any:
		out := make([]any, len(x))
		for i, inner := range x {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
