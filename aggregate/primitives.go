package aggregate

import "math"

// Average is a running mean.
type Average struct {
	Avg   float64 `json:"avg"`
	Count int64   `json:"count"`
}

// MergeAverage folds one value into existing. Absent values leave it unchanged.
func MergeAverage(existing Average, value float64, present bool) Average {
	if !present || math.IsNaN(value) {
		return existing
	}
	n := existing.Count + 1
	return Average{
		Avg:   existing.Avg + (value-existing.Avg)/float64(n),
		Count: n,
	}
}

// CombineAverage merges two partial averages weighted by count.
func CombineAverage(a, b Average) Average {
	n := a.Count + b.Count
	if n == 0 {
		return Average{}
	}
	return Average{
		Avg:   a.Avg + (b.Avg-a.Avg)*float64(b.Count)/float64(n),
		Count: n,
	}
}

// Rate is a success ratio.
type Rate struct {
	SuccessCount int64 `json:"successCount"`
	Total        int64 `json:"total"`
}

// MergeRate folds one outcome into existing.
func MergeRate(existing Rate, success bool) Rate {
	existing.Total++
	if success {
		existing.SuccessCount++
	}
	return existing
}

// CombineRate merges two partial rates.
func CombineRate(a, b Rate) Rate {
	return Rate{SuccessCount: a.SuccessCount + b.SuccessCount, Total: a.Total + b.Total}
}

// Percent returns successCount/total*100, or 0 with no samples.
func (r Rate) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.Total) * 100
}

// Rounded returns Percent rounded to two decimals.
func (r Rate) Rounded() float64 {
	return math.Round(r.Percent()*100) / 100
}

// Counter counts matches.
type Counter struct {
	Count int64 `json:"count"`
}

// MergeCounter increments existing when match holds.
func MergeCounter(existing Counter, match bool) Counter {
	if match {
		existing.Count++
	}
	return existing
}

// CombineCounter merges two partial counters.
func CombineCounter(a, b Counter) Counter {
	return Counter{Count: a.Count + b.Count}
}
