package scoring

import "math"

// Composite scale bounds.
const (
	CompositeMin = 0
	CompositeMax = 255
)

// Composite sums the weighted scores and rescales the 0-100 total to 0-255.
// Rounding is half away from zero; the result is clamped to [0, 255].
func Composite(scores []DimensionScore) int {
	return CompositeFromTotal(TotalWeighted(scores))
}

// TotalWeighted returns the sum of every dimension's weighted score.
func TotalWeighted(scores []DimensionScore) float64 {
	var total float64
	for _, s := range scores {
		total += s.WeightedScore
	}
	return total
}

// CompositeFromTotal rescales a weighted total onto the composite scale.
func CompositeFromTotal(total float64) int {
	if math.IsNaN(total) {
		return CompositeMin
	}
	v := math.Round(total * CompositeMax / 100)
	if v < CompositeMin {
		return CompositeMin
	}
	if v > CompositeMax {
		return CompositeMax
	}
	return int(v)
}

// Contribution is one dimension's share of the composite.
type Contribution struct {
	DimensionName           string  `json:"dimension_name"`
	RawScore                float64 `json:"raw_score"`
	Weight                  float64 `json:"weight"`
	WeightedScore           float64 `json:"weighted_score"`
	ContributionToComposite int     `json:"contribution_to_composite"`
}

// ScoreBreakdown explains how the composite was reached. Per-dimension
// contributions are rounded independently and need not sum to the composite.
type ScoreBreakdown struct {
	DimensionContributions []Contribution `json:"dimension_contributions"`
	TotalWeightedScore     float64        `json:"total_weighted_score"`
	CompositeScore         int            `json:"composite_score"`
}

// Breakdown computes the composite together with its per-dimension parts.
func Breakdown(scores []DimensionScore) ScoreBreakdown {
	b := ScoreBreakdown{
		DimensionContributions: make([]Contribution, 0, len(scores)),
		TotalWeightedScore:     TotalWeighted(scores),
	}
	for _, s := range scores {
		b.DimensionContributions = append(b.DimensionContributions, Contribution{
			DimensionName:           s.Name,
			RawScore:                s.Score,
			Weight:                  s.Weight,
			WeightedScore:           s.WeightedScore,
			ContributionToComposite: CompositeFromTotal(s.WeightedScore),
		})
	}
	b.CompositeScore = CompositeFromTotal(b.TotalWeightedScore)
	return b
}
