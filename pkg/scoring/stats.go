package scoring

import (
	"math"
	"sort"
)

// TestStatistics summarizes audit-point percentages.
type TestStatistics struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
}

// Statistics computes population statistics over the percentages of points.
// An empty input yields the zero value.
func Statistics(points []AuditPoint) TestStatistics {
	if len(points) == 0 {
		return TestStatistics{}
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Percentage
	}
	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	n := float64(len(values))
	mean := sum / n

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	variance := sq / n

	mid := len(values) / 2
	median := values[mid]
	if len(values)%2 == 0 {
		median = (values[mid-1] + values[mid]) / 2
	}

	return TestStatistics{
		Count:    len(values),
		Min:      values[0],
		Max:      values[len(values)-1],
		Mean:     mean,
		Median:   median,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
	}
}

// AllAuditPoints flattens the audit points of every dimension.
func AllAuditPoints(scores []DimensionScore) []AuditPoint {
	var out []AuditPoint
	for _, s := range scores {
		out = append(out, s.AuditPoints...)
	}
	return out
}
