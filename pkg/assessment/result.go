// Package assessment runs the full AGI-AEF pipeline: every dimension of the
// rubric is scored, then aggregated into a composite score, classified,
// adjudicated and scheduled.
package assessment

import (
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/audit"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/domain"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

// DateLayout is the wall-clock format of Result.AssessmentDate.
const DateLayout = "2006-01-02 15:04:05"

// Result is the complete record of one assessment run.
type Result struct {
	SystemName          string                   `json:"system_name"`
	AssessmentDate      string                   `json:"assessment_date"`
	FrameworkVersion    string                   `json:"framework_version"`
	CompositeScore      int                      `json:"composite_score"`
	LevelClassification string                   `json:"level_classification"`
	DimensionScores     map[string]float64       `json:"dimension_scores"`
	DetailedScores      []scoring.DimensionScore `json:"detailed_scores"`
	AuditStatus         audit.Status             `json:"audit_status"`
	Recommendations     []string                 `json:"recommendations"`
	NextAssessmentDue   string                   `json:"next_assessment_due"`
}

// Dimension returns the detailed score of the named dimension.
func (r *Result) Dimension(name string) (scoring.DimensionScore, bool) {
	for _, d := range r.DetailedScores {
		if d.Name == name {
			return d, true
		}
	}
	return scoring.DimensionScore{}, false
}

// DomainInput adapts the result for domain profile evaluation.
func (r *Result) DomainInput() domain.Input {
	return domain.Input{
		System:    r.SystemName,
		Composite: r.CompositeScore,
		Status:    string(r.AuditStatus),
		Scores:    r.DetailedScores,
	}
}

// DimensionMap maps dimension name to score.
func DimensionMap(scores []scoring.DimensionScore) map[string]float64 {
	m := make(map[string]float64, len(scores))
	for _, s := range scores {
		m[s.Name] = s.Score
	}
	return m
}
