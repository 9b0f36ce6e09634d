package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
)

// ValidationThreshold is the dimension score at or above which a dimension
// is considered validated.
const ValidationThreshold = 70.0

// Validation statuses.
const (
	StatusValidated           = "validated"
	StatusRequiresImprovement = "requires_improvement"
)

var (
	// ErrUnknownDimension means the orchestrator and catalog disagree.
	ErrUnknownDimension = errors.New("scoring: unknown dimension")
	// ErrInvalidScore is returned when a scorer yields NaN or an infinity.
	ErrInvalidScore = errors.New("scoring: invalid test score")
)

// AuditPoint records one test execution.
type AuditPoint struct {
	TestName      string  `json:"test_name"`
	RawScore      float64 `json:"raw_score"`
	Weight        float64 `json:"weight"`
	WeightedScore float64 `json:"weighted_score"`
	MaxPossible   float64 `json:"max_possible"`
	Percentage    float64 `json:"percentage"`
}

// DimensionScore is the assessed result of one dimension. Score is the
// dimension's own 0-100 percentage; WeightedScore is its contribution toward
// the composite on the same 0-100 sub-scale.
type DimensionScore struct {
	Name             string       `json:"name"`
	Score            float64      `json:"score"`
	Weight           float64      `json:"weight"`
	WeightedScore    float64      `json:"weighted_score"`
	AuditPoints      []AuditPoint `json:"audit_points"`
	ValidationStatus string       `json:"validation_status"`
}

// Validated reports whether the dimension met the validation threshold.
func (d DimensionScore) Validated() bool {
	return d.ValidationStatus == StatusValidated
}

// Assessor runs the tests of a dimension through a Scorer.
type Assessor struct {
	catalog *rubric.Catalog
	scorer  Scorer
	logger  *slog.Logger
}

// NewAssessor returns an assessor over catalog using scorer.
func NewAssessor(catalog *rubric.Catalog, scorer Scorer) *Assessor {
	return &Assessor{
		catalog: catalog,
		scorer:  scorer,
		logger:  slog.Default().With("component", "assessor"),
	}
}

// WithScorer returns a copy of the assessor that uses s.
func (a *Assessor) WithScorer(s Scorer) *Assessor {
	cp := *a
	cp.scorer = s
	return &cp
}

// WithLogger overrides the logger.
func (a *Assessor) WithLogger(l *slog.Logger) *Assessor {
	a.logger = l
	return a
}

// Assess runs every test of the named dimension and aggregates them.
//
// The dimension score is 100 x sum(raw x weight) / sum(max x weight); it is 0
// when the normalizer is 0. Scorer output is clamped to [0, max points].
func (a *Assessor) Assess(ctx context.Context, dimension string, subject any) (DimensionScore, error) {
	dim, ok := a.catalog.Dimension(dimension)
	if !ok {
		return DimensionScore{}, fmt.Errorf("%w: %q", ErrUnknownDimension, dimension)
	}
	a.logger.DebugContext(ctx, "assessing dimension", "dimension", dimension)

	dimIndex := a.catalog.IndexOf(dimension)
	points := make([]AuditPoint, 0, len(dim.Tests))
	var total, normalizer float64

	for i, t := range dim.Tests {
		spec := TestSpec{
			Dimension:      dim.Name,
			DimensionIndex: dimIndex,
			Name:           t.Name,
			Index:          i,
			Weight:         t.Weight,
			MaxPoints:      t.MaxPoints,
		}
		raw, err := a.scorer.Score(ctx, spec, subject)
		if err != nil {
			return DimensionScore{}, fmt.Errorf("score %s.%s: %w", dim.Name, t.Name, err)
		}
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return DimensionScore{}, fmt.Errorf("%w: %s.%s returned %v", ErrInvalidScore, dim.Name, t.Name, raw)
		}
		raw = clamp(raw, 0, t.MaxPoints)

		weighted := raw * t.Weight
		total += weighted
		normalizer += t.MaxPoints * t.Weight

		points = append(points, AuditPoint{
			TestName:      t.Name,
			RawScore:      raw,
			Weight:        t.Weight,
			WeightedScore: weighted,
			MaxPossible:   t.MaxPoints,
			Percentage:    raw / t.MaxPoints * 100,
		})
		a.logger.DebugContext(ctx, "test scored",
			"test", t.Name, "score", fmt.Sprintf("%.2f/%g", raw, t.MaxPoints))
	}

	return NewDimensionScore(dim.Name, dim.Weight, total, normalizer, points), nil
}

// NewDimensionScore assembles a DimensionScore from accumulated sums.
func NewDimensionScore(name string, weight, total, normalizer float64, points []AuditPoint) DimensionScore {
	var score float64
	if normalizer > 0 {
		score = total / normalizer * 100
	}
	status := StatusRequiresImprovement
	if score >= ValidationThreshold {
		status = StatusValidated
	}
	return DimensionScore{
		Name:             name,
		Score:            score,
		Weight:           weight,
		WeightedScore:    score * weight / 100,
		AuditPoints:      points,
		ValidationStatus: status,
	}
}
