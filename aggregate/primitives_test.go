package aggregate

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMergeAverage_EqualsBatchMean(t *testing.T) {
	values := []float64{12, 7.5, 30, 0, 101.25, 3}
	var sum float64
	for _, v := range values {
		sum += v
	}
	want := sum / float64(len(values))

	var fwd, rev Average
	for i := range values {
		fwd = MergeAverage(fwd, values[i], true)
		rev = MergeAverage(rev, values[len(values)-1-i], true)
	}
	if !approx(fwd.Avg, want) || !approx(rev.Avg, want) {
		t.Errorf("forward = %v, reverse = %v, want %v", fwd.Avg, rev.Avg, want)
	}
	if fwd.Count != int64(len(values)) {
		t.Errorf("Count = %d, want %d", fwd.Count, len(values))
	}
}

func TestMergeAverage_AbsentSkips(t *testing.T) {
	a := MergeAverage(Average{}, 10, true)
	a = MergeAverage(a, 999, false)
	a = MergeAverage(a, math.NaN(), true)
	if a.Count != 1 || a.Avg != 10 {
		t.Errorf("got %+v, want {10 1}", a)
	}
}

func TestCombineAverage_WeightsByCount(t *testing.T) {
	var a, b Average
	for _, v := range []float64{1, 2, 3} {
		a = MergeAverage(a, v, true)
	}
	b = MergeAverage(b, 10, true)

	got := CombineAverage(a, b)
	if !approx(got.Avg, 4) || got.Count != 4 {
		t.Errorf("CombineAverage() = %+v, want {4 4}", got)
	}
	if got := CombineAverage(Average{}, Average{}); got != (Average{}) {
		t.Errorf("CombineAverage(empty) = %+v", got)
	}
	if got := CombineAverage(b, a); !approx(got.Avg, 4) {
		t.Errorf("CombineAverage() not commutative: %+v", got)
	}
}

func TestMergeRate(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []bool
		want     float64
	}{
		{"empty", nil, 0},
		{"all success", []bool{true, true}, 100},
		{"two of three", []bool{true, false, true}, 66.67},
		{"one of eight", []bool{false, false, true, false, false, false, false, false}, 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Rate
			successes := 0
			for _, ok := range tt.outcomes {
				r = MergeRate(r, ok)
				if ok {
					successes++
				}
			}
			if r.Total != int64(len(tt.outcomes)) || r.SuccessCount != int64(successes) {
				t.Errorf("Rate = %+v", r)
			}
			if got := r.Rounded(); got != tt.want {
				t.Errorf("Rounded() = %v, want %v", got, tt.want)
			}
			if len(tt.outcomes) > 0 && !approx(r.Percent(), 100*float64(successes)/float64(len(tt.outcomes))) {
				t.Errorf("Percent() = %v", r.Percent())
			}
		})
	}
}

func TestCounter(t *testing.T) {
	var c Counter
	matches := 0
	for i := 0; i < 10; i++ {
		m := i%3 == 0
		c = MergeCounter(c, m)
		if m {
			matches++
		}
	}
	if c.Count != int64(matches) {
		t.Errorf("Count = %d, want %d", c.Count, matches)
	}
	if got := CombineCounter(c, Counter{Count: 2}); got.Count != int64(matches+2) {
		t.Errorf("CombineCounter() = %d", got.Count)
	}
}
