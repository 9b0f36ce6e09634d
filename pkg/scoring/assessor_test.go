package scoring_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

type scorerFunc func(spec scoring.TestSpec) (float64, error)

func (f scorerFunc) Score(_ context.Context, spec scoring.TestSpec, _ any) (float64, error) {
	return f(spec)
}

func TestAssess_FullMarks(t *testing.T) {
	a := scoring.NewAssessor(rubric.Default(), scoring.FixedScorer{Fraction: 1})

	ds, err := a.Assess(context.Background(), rubric.CognitiveAutonomy, nil)
	require.NoError(t, err)

	assert.Equal(t, rubric.CognitiveAutonomy, ds.Name)
	assert.InDelta(t, 100.0, ds.Score, 1e-9)
	assert.Equal(t, 20.0, ds.Weight)
	assert.InDelta(t, 20.0, ds.WeightedScore, 1e-9)
	assert.Equal(t, scoring.StatusValidated, ds.ValidationStatus)
	assert.True(t, ds.Validated())
	require.Len(t, ds.AuditPoints, 4)

	p := ds.AuditPoints[0]
	assert.Equal(t, "novel_problem_solving", p.TestName)
	assert.Equal(t, 25.0, p.RawScore)
	assert.Equal(t, 0.3, p.Weight)
	assert.InDelta(t, 7.5, p.WeightedScore, 1e-9)
	assert.Equal(t, 25.0, p.MaxPossible)
	assert.InDelta(t, 100.0, p.Percentage, 1e-9)
}

func TestAssess_WeightsTests(t *testing.T) {
	// first test perfect, the rest zero: 25*0.3 / 25 = 30%
	a := scoring.NewAssessor(rubric.Default(), scorerFunc(func(s scoring.TestSpec) (float64, error) {
		if s.Index == 0 {
			return s.MaxPoints, nil
		}
		return 0, nil
	}))

	ds, err := a.Assess(context.Background(), rubric.SafetyAlignment, nil)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, ds.Score, 1e-9)
	assert.InDelta(t, 30.0*8/100, ds.WeightedScore, 1e-9)
	assert.Equal(t, scoring.StatusRequiresImprovement, ds.ValidationStatus)
	assert.InDelta(t, 0.0, ds.AuditPoints[3].Percentage, 1e-9)
}

func TestAssess_ThresholdIsInclusive(t *testing.T) {
	a := scoring.NewAssessor(rubric.Default(), scoring.FixedScorer{Fraction: 0.7})
	ds, err := a.Assess(context.Background(), rubric.Integration, nil)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, ds.Score, 1e-9)
	assert.Equal(t, scoring.StatusValidated, ds.ValidationStatus)
}

func TestAssess_PassesSpec(t *testing.T) {
	var seen []scoring.TestSpec
	a := scoring.NewAssessor(rubric.Default(), scorerFunc(func(s scoring.TestSpec) (float64, error) {
		seen = append(seen, s)
		return 10, nil
	}))
	_, err := a.Assess(context.Background(), rubric.TemporalReasoning, nil)
	require.NoError(t, err)

	require.Len(t, seen, 4)
	for i, s := range seen {
		assert.Equal(t, rubric.TemporalReasoning, s.Dimension)
		assert.Equal(t, 11, s.DimensionIndex)
		assert.Equal(t, i, s.Index)
	}
	assert.Equal(t, "causal_relationships", seen[2].Name)
}

func TestAssess_UnknownDimension(t *testing.T) {
	a := scoring.NewAssessor(rubric.Default(), scoring.FixedScorer{Fraction: 1})
	_, err := a.Assess(context.Background(), "clairvoyance", nil)
	assert.ErrorIs(t, err, scoring.ErrUnknownDimension)
}

func TestAssess_ScorerError(t *testing.T) {
	boom := errors.New("probe offline")
	a := scoring.NewAssessor(rubric.Default(), scorerFunc(func(scoring.TestSpec) (float64, error) {
		return 0, boom
	}))
	_, err := a.Assess(context.Background(), rubric.Communication, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "communication.natural_language")
}

func TestAssess_RejectsNaN(t *testing.T) {
	a := scoring.NewAssessor(rubric.Default(), scorerFunc(func(scoring.TestSpec) (float64, error) {
		return math.NaN(), nil
	}))
	_, err := a.Assess(context.Background(), rubric.Scalability, nil)
	assert.ErrorIs(t, err, scoring.ErrInvalidScore)
}

func TestAssess_ClampsOutOfRange(t *testing.T) {
	a := scoring.NewAssessor(rubric.Default(), scorerFunc(func(s scoring.TestSpec) (float64, error) {
		if s.Index%2 == 0 {
			return 1000, nil
		}
		return -5, nil
	}))
	ds, err := a.Assess(context.Background(), rubric.Innovation, nil)
	require.NoError(t, err)
	for _, p := range ds.AuditPoints {
		assert.GreaterOrEqual(t, p.RawScore, 0.0)
		assert.LessOrEqual(t, p.RawScore, p.MaxPossible)
	}
	// 0.3 + 0.25 of the weight scored full marks
	assert.InDelta(t, 55.0, ds.Score, 1e-9)
}

func TestNewDimensionScore_ZeroNormalizer(t *testing.T) {
	ds := scoring.NewDimensionScore("empty", 5, 10, 0, nil)
	assert.Equal(t, 0.0, ds.Score)
	assert.Equal(t, 0.0, ds.WeightedScore)
	assert.Equal(t, scoring.StatusRequiresImprovement, ds.ValidationStatus)
}

func TestAssessor_WithScorerLeavesOriginal(t *testing.T) {
	base := scoring.NewAssessor(rubric.Default(), scoring.FixedScorer{Fraction: 1})
	low := base.WithScorer(scoring.FixedScorer{Fraction: 0})

	ctx := context.Background()
	hi, _ := base.Assess(ctx, rubric.Generalization, nil)
	lo, _ := low.Assess(ctx, rubric.Generalization, nil)
	assert.InDelta(t, 100.0, hi.Score, 1e-9)
	assert.InDelta(t, 0.0, lo.Score, 1e-9)
}
