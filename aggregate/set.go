package aggregate

import "fmt"

// Kind identifies the shape held by a Value.
type Kind string

const (
	KindAverage Kind = "average"
	KindRate    Kind = "rate"
	KindCounter Kind = "counter"
)

// Value is one named aggregate. Exactly one of Average, Rate or Counter is
// set, matching Kind.
type Value struct {
	Kind    Kind     `json:"kind"`
	Average *Average `json:"average,omitempty"`
	Rate    *Rate    `json:"rate,omitempty"`
	Counter *Counter `json:"counter,omitempty"`
}

// Number returns the value's headline number: the mean, the percentage
// rounded to two decimals, or the count.
func (v Value) Number() float64 {
	switch v.Kind {
	case KindAverage:
		if v.Average != nil {
			return v.Average.Avg
		}
	case KindRate:
		if v.Rate != nil {
			return v.Rate.Rounded()
		}
	case KindCounter:
		if v.Counter != nil {
			return float64(v.Counter.Count)
		}
	}
	return 0
}

// Set is a named collection of aggregates. The zero value is usable
// through the methods that return a new Set.
type Set map[string]Value

// Average folds value into the average named name.
func (s Set) Average(name string, value float64, present bool) Set {
	s = s.ensure()
	cur := Average{}
	if v, ok := s[name]; ok && v.Average != nil {
		cur = *v.Average
	}
	next := MergeAverage(cur, value, present)
	s[name] = Value{Kind: KindAverage, Average: &next}
	return s
}

// Rate folds one outcome into the rate named name.
func (s Set) Rate(name string, success bool) Set {
	s = s.ensure()
	cur := Rate{}
	if v, ok := s[name]; ok && v.Rate != nil {
		cur = *v.Rate
	}
	next := MergeRate(cur, success)
	s[name] = Value{Kind: KindRate, Rate: &next}
	return s
}

// Counter increments the counter named name when match holds.
func (s Set) Counter(name string, match bool) Set {
	s = s.ensure()
	cur := Counter{}
	if v, ok := s[name]; ok && v.Counter != nil {
		cur = *v.Counter
	}
	next := MergeCounter(cur, match)
	s[name] = Value{Kind: KindCounter, Counter: &next}
	return s
}

// Combine merges other into a copy of s.
func (s Set) Combine(other Set) (Set, error) {
	out := s.Clone()
	if out == nil {
		out = Set{}
	}
	for name, b := range other {
		a, ok := out[name]
		if !ok {
			out[name] = b.clone()
			continue
		}
		if a.Kind != b.Kind {
			return nil, fmt.Errorf("%w: %s is %s and %s", ErrKindMismatch, name, a.Kind, b.Kind)
		}
		switch a.Kind {
		case KindAverage:
			v := CombineAverage(deref(a.Average), deref(b.Average))
			out[name] = Value{Kind: KindAverage, Average: &v}
		case KindRate:
			v := CombineRate(deref(a.Rate), deref(b.Rate))
			out[name] = Value{Kind: KindRate, Rate: &v}
		case KindCounter:
			v := CombineCounter(deref(a.Counter), deref(b.Counter))
			out[name] = Value{Kind: KindCounter, Counter: &v}
		default:
			return nil, fmt.Errorf("%w: %s has kind %q", ErrKindMismatch, name, a.Kind)
		}
	}
	return out, nil
}

// Clone returns a deep copy of s.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v.clone()
	}
	return out
}

// Numbers flattens s into headline numbers keyed by name.
func (s Set) Numbers() map[string]float64 {
	out := make(map[string]float64, len(s))
	for k, v := range s {
		out[k] = v.Number()
	}
	return out
}

func (s Set) ensure() Set {
	if s == nil {
		return Set{}
	}
	return s
}

func (v Value) clone() Value {
	out := Value{Kind: v.Kind}
	if v.Average != nil {
		a := *v.Average
		out.Average = &a
	}
	if v.Rate != nil {
		r := *v.Rate
		out.Rate = &r
	}
	if v.Counter != nil {
		c := *v.Counter
		out.Counter = &c
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
