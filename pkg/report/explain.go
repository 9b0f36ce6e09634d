package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/recommend"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

// Explanation shows how a result's composite was reached.
type Explanation struct {
	SystemName string                            `json:"system_name"`
	Breakdown  scoring.ScoreBreakdown            `json:"breakdown"`
	Overall    scoring.TestStatistics            `json:"overall_statistics"`
	Dimensions map[string]scoring.TestStatistics `json:"dimension_statistics"`
}

// Explain derives the composite breakdown and test statistics of r.
func Explain(r *assessment.Result) *Explanation {
	dims := make(map[string]scoring.TestStatistics, len(r.DetailedScores))
	for _, ds := range r.DetailedScores {
		dims[ds.Name] = scoring.Statistics(ds.AuditPoints)
	}
	return &Explanation{
		SystemName: r.SystemName,
		Breakdown:  scoring.Breakdown(r.DetailedScores),
		Overall:    scoring.Statistics(scoring.AllAuditPoints(r.DetailedScores)),
		Dimensions: dims,
	}
}

// WriteBreakdown prints the per-dimension contributions in catalog order.
func WriteBreakdown(w io.Writer, e *Explanation) error {
	var b strings.Builder

	b.WriteString("\nScore Breakdown:\n")
	fmt.Fprintf(&b, "  %-32s %7s %7s %9s %5s %7s\n", "Dimension", "Score", "Weight", "Weighted", "Pts", "StdDev")
	for _, c := range e.Breakdown.DimensionContributions {
		fmt.Fprintf(&b, "  %-32s %6.1f%% %7.2f %9.2f %5d %7.2f\n",
			recommend.TitleCase(c.DimensionName), c.RawScore, c.Weight, c.WeightedScore,
			c.ContributionToComposite, e.Dimensions[c.DimensionName].StdDev)
	}
	fmt.Fprintf(&b, "  Total weighted: %.2f -> %d/255\n", e.Breakdown.TotalWeightedScore, e.Breakdown.CompositeScore)
	fmt.Fprintf(&b, "  Tests: %d  mean %.1f%%  median %.1f%%  range %.1f-%.1f%%\n",
		e.Overall.Count, e.Overall.Mean, e.Overall.Median, e.Overall.Min, e.Overall.Max)

	_, err := io.WriteString(w, b.String())
	return err
}
