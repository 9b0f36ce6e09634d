package scoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

func spec(name string) scoring.TestSpec {
	return scoring.TestSpec{Dimension: "cognitive_autonomy", Name: name, Weight: 0.3, MaxPoints: 25}
}

func TestComplexityFactor(t *testing.T) {
	assert.Equal(t, 0.9, scoring.ComplexityFactor("resource_optimization"))
	assert.Equal(t, 0.3, scoring.ComplexityFactor("paradigm_shifts"))
	assert.Equal(t, 0.7, scoring.ComplexityFactor("abstract_reasoning"))
	assert.Equal(t, 0.7, scoring.ComplexityFactor(""))
}

func TestSimulatedScorer_Bounded(t *testing.T) {
	s := scoring.NewSeededScorer(7)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		v, err := s.Score(ctx, spec("meta_cognitive_awareness"), nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 25.0)
	}
}

func TestSimulatedScorer_CentersOnFactor(t *testing.T) {
	s := scoring.NewSeededScorer(42)
	ctx := context.Background()
	const n = 4000
	var sum float64
	for i := 0; i < n; i++ {
		v, _ := s.Score(ctx, spec("novel_problem_solving"), nil)
		sum += v
	}
	assert.InDelta(t, 15.0, sum/n, 0.3)
}

func TestSimulatedScorer_SeedIsReproducible(t *testing.T) {
	a := scoring.NewSeededScorer(99)
	b := scoring.NewSeededScorer(99)
	ctx := context.Background()
	for _, name := range []string{"online_learning", "robustness", "paradigm_shifts"} {
		va, _ := a.Score(ctx, spec(name), struct{}{})
		vb, _ := b.Score(ctx, spec(name), nil)
		assert.Equal(t, va, vb, name)
	}
}

func TestSimulatedScorer_SplitReplaysSequentialDraws(t *testing.T) {
	ctx := context.Background()
	counts := []int{2, 3}
	children := scoring.NewSeededScorer(5).Split(counts)
	require.Len(t, children, 2)

	sequential := scoring.NewSeededScorer(5)
	for d, n := range counts {
		for i := 0; i < n; i++ {
			sp := spec("error_recovery")
			sp.Index = i
			want, err := sequential.Score(ctx, sp, nil)
			require.NoError(t, err)
			got, err := children[d].Score(ctx, sp, nil)
			require.NoError(t, err)
			assert.Equal(t, want, got, "dimension %d test %d", d, i)
		}
	}
}

func TestSimulatedScorer_SplitAdvancesParent(t *testing.T) {
	ctx := context.Background()
	parent := scoring.NewSeededScorer(11)
	parent.Split([]int{4, 1})

	sequential := scoring.NewSeededScorer(11)
	for i := 0; i < 5; i++ {
		_, _ = sequential.Score(ctx, spec("x"), nil)
	}
	a, _ := parent.Score(ctx, spec("online_learning"), nil)
	b, _ := sequential.Score(ctx, spec("online_learning"), nil)
	assert.Equal(t, b, a)
}

func TestSimulatedScorer_SplitIndexOutOfRange(t *testing.T) {
	children := scoring.NewSeededScorer(1).Split([]int{1})
	sp := spec("robustness")
	sp.Index = 1
	_, err := children[0].Score(context.Background(), sp, nil)
	assert.Error(t, err)
}

func TestSimulatedScorer_NilRand(t *testing.T) {
	s := scoring.NewSimulatedScorer(nil)
	_, err := s.Score(context.Background(), spec("x"), nil)
	assert.NoError(t, err)
}

func TestFixedScorer(t *testing.T) {
	f := scoring.FixedScorer{
		Fraction: 0.8,
		Overrides: map[string]float64{
			"robustness":       0.1,
			"safety_alignment": 0.5,
			"harm_prevention":  2,
		},
	}
	ctx := context.Background()

	v, _ := f.Score(ctx, spec("abstract_reasoning"), nil)
	assert.InDelta(t, 20.0, v, 1e-9)

	v, _ = f.Score(ctx, scoring.TestSpec{Dimension: "safety_alignment", Name: "robustness", MaxPoints: 25}, nil)
	assert.InDelta(t, 2.5, v, 1e-9)

	v, _ = f.Score(ctx, scoring.TestSpec{Dimension: "safety_alignment", Name: "predictability", MaxPoints: 25}, nil)
	assert.InDelta(t, 12.5, v, 1e-9)

	v, _ = f.Score(ctx, scoring.TestSpec{Dimension: "safety_alignment", Name: "harm_prevention", MaxPoints: 25}, nil)
	assert.InDelta(t, 25.0, v, 1e-9, "fractions above 1 are clamped")
}
