// Package scoring turns test measurements into dimension scores and the
// 0-255 composite.
//
// A Scorer produces the raw points for a single test. SimulatedScorer is the
// catalog-driven stand-in; WASMScorer runs an external probe module. The
// Assessor and the aggregation functions never depend on which one is used.
package scoring

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// DefaultComplexityFactor applies to tests absent from the factor table.
const DefaultComplexityFactor = 0.7

// NoiseStdDev is the standard deviation of the simulated measurement noise.
const NoiseStdDev = 0.1

// complexityFactors is the expected fraction of max points for known tests.
var complexityFactors = map[string]float64{
	"novel_problem_solving":        0.6,
	"creative_solution_generation": 0.7,
	"self_maintenance":             0.8,
	"meta_cognitive_awareness":     0.4,
	"online_learning":              0.75,
	"ethical_reasoning":            0.5,
	"value_alignment":              0.65,
	"cross_domain_performance":     0.55,
	"system_state_understanding":   0.85,
	"resource_optimization":        0.9,
	"protocol_adaptation":          0.8,
	"paradigm_shifts":              0.3,
	"causal_relationships":         0.6,
}

// ComplexityFactor returns the base factor for a test name.
func ComplexityFactor(test string) float64 {
	if f, ok := complexityFactors[test]; ok {
		return f
	}
	return DefaultComplexityFactor
}

// TestSpec identifies one test execution.
type TestSpec struct {
	Dimension      string
	DimensionIndex int
	Name           string
	Index          int
	Weight         float64
	MaxPoints      float64
}

// Scorer produces the raw score of one test, in [0, spec.MaxPoints].
// The subject is opaque and may be nil.
type Scorer interface {
	Score(ctx context.Context, spec TestSpec, subject any) (float64, error)
}

// Splitter is implemented by scorers that own a random source. Split takes
// the test count of each dimension and returns one child per dimension. The
// children replay exactly the draws a sequential run would have made.
type Splitter interface {
	Split(testCounts []int) []Scorer
}

// SimulatedScorer draws factor + N(0, 0.1), clamped to [0,1], times max points.
// It is safe for concurrent use, though concurrent callers observe draws in
// scheduling order.
type SimulatedScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedScorer wraps rng. A nil rng is seeded from 1.
func NewSimulatedScorer(rng *rand.Rand) *SimulatedScorer {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &SimulatedScorer{rng: rng}
}

// NewSeededScorer is shorthand for a scorer over rand.NewSource(seed).
func NewSeededScorer(seed int64) *SimulatedScorer {
	return NewSimulatedScorer(rand.New(rand.NewSource(seed)))
}

// Score implements Scorer. It never fails.
func (s *SimulatedScorer) Score(_ context.Context, spec TestSpec, _ any) (float64, error) {
	s.mu.Lock()
	noise := s.rng.NormFloat64() * NoiseStdDev
	s.mu.Unlock()

	return simulated(spec, noise), nil
}

// Split implements Splitter. Noise is drawn from the parent in
// dimension-then-test order, so the parent ends where a sequential run would.
func (s *SimulatedScorer) Split(testCounts []int) []Scorer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Scorer, len(testCounts))
	for i, n := range testCounts {
		noise := make([]float64, n)
		for j := range noise {
			noise[j] = s.rng.NormFloat64() * NoiseStdDev
		}
		out[i] = replayScorer{noise: noise}
	}
	return out
}

// replayScorer scores a test with pre-drawn noise picked by test index.
type replayScorer struct {
	noise []float64
}

// Score implements Scorer.
func (r replayScorer) Score(_ context.Context, spec TestSpec, _ any) (float64, error) {
	if spec.Index < 0 || spec.Index >= len(r.noise) {
		return 0, fmt.Errorf("scoring: no pre-drawn sample for %s.%s (index %d of %d)",
			spec.Dimension, spec.Name, spec.Index, len(r.noise))
	}
	return simulated(spec, r.noise[spec.Index]), nil
}

func simulated(spec TestSpec, noise float64) float64 {
	return clamp(ComplexityFactor(spec.Name)+noise, 0, 1) * spec.MaxPoints
}

// FixedScorer awards the same fraction of max points to every test. Overrides
// keyed by test name, then by dimension name, take precedence.
type FixedScorer struct {
	Fraction  float64
	Overrides map[string]float64
}

// Score implements Scorer.
func (f FixedScorer) Score(_ context.Context, spec TestSpec, _ any) (float64, error) {
	frac := f.Fraction
	if v, ok := f.Overrides[spec.Name]; ok {
		frac = v
	} else if v, ok := f.Overrides[spec.Dimension]; ok {
		frac = v
	}
	return clamp(frac, 0, 1) * spec.MaxPoints, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
