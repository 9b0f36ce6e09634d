package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/audit"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/recommend"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

// TopDimensions is how many dimensions the summary lists.
const TopDimensions = 5

var (
	ruleLine     = strings.Repeat("=", 60)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	statusStyles = map[audit.Status]lipgloss.Style{
		audit.StatusCertified:           lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7")),
		audit.StatusConditional:         lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F")),
		audit.StatusRequiresImprovement: lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")),
	}
)

// WriteSummary prints the human-readable assessment summary. outputPath is
// where the full report was saved; it is omitted when empty.
func WriteSummary(w io.Writer, r *assessment.Result, outputPath string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n%s\n%s\n", ruleLine, titleStyle.Render("AGI-AEF Assessment Summary"), ruleLine)
	fmt.Fprintf(&b, "System: %s\n", r.SystemName)
	fmt.Fprintf(&b, "AGI-AEF Score: %d/255\n", r.CompositeScore)
	fmt.Fprintf(&b, "Classification: %s\n", r.LevelClassification)
	fmt.Fprintf(&b, "Audit Status: %s\n", renderStatus(r.AuditStatus))
	fmt.Fprintf(&b, "Assessment Date: %s\n", r.AssessmentDate)

	b.WriteString("\nTop Dimension Scores:\n")
	for _, ds := range Top(r.DetailedScores, TopDimensions) {
		fmt.Fprintf(&b, "  %s: %.1f%%\n", recommend.TitleCase(ds.Name), ds.Score)
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "  %s\n", rec)
		}
	}

	b.WriteString("\n")
	if outputPath != "" {
		fmt.Fprintf(&b, "Detailed results saved to: %s\n", outputPath)
	}
	fmt.Fprintf(&b, "Next assessment due: %s\n", r.NextAssessmentDue)

	_, err := io.WriteString(w, b.String())
	return err
}

// Top returns the n highest-scoring dimensions, ties kept in catalog order.
func Top(scores []scoring.DimensionScore, n int) []scoring.DimensionScore {
	sorted := make([]scoring.DimensionScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func renderStatus(s audit.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}
