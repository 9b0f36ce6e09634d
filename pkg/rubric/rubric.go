// Package rubric defines the AGI-AEF rubric catalog: the twelve assessment
// dimensions, their composite weights, and the four weighted tests that make
// up each dimension.
//
// The catalog is immutable after construction. Default returns the shared
// process-wide instance built from the canonical definitions below.
package rubric

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// FrameworkVersion is the rubric revision stamped on every assessment result.
const FrameworkVersion = "1.0.0"

// Tolerances applied by Validate.
const (
	DimensionWeightTotal     = 100.0
	DimensionWeightTolerance = 0.5
	TestWeightTotal          = 1.0
	TestWeightTolerance      = 0.01
	TestsPerDimension        = 4
)

// Canonical dimension names.
const (
	CognitiveAutonomy       = "cognitive_autonomy"
	OperationalIndependence = "operational_independence"
	LearningAdaptation      = "learning_adaptation"
	DecisionMaking          = "decision_making"
	Communication           = "communication"
	SafetyAlignment         = "safety_alignment"
	Generalization          = "generalization"
	SelfAwareness           = "self_awareness"
	Scalability             = "scalability"
	Integration             = "integration"
	Innovation              = "innovation"
	TemporalReasoning       = "temporal_reasoning"
)

// ErrInvalidCatalog is returned (wrapped) by Validate.
var ErrInvalidCatalog = errors.New("rubric: invalid catalog")

// Test is one weighted probe within a dimension.
type Test struct {
	Name      string  `json:"name" yaml:"name"`
	Weight    float64 `json:"weight" yaml:"weight"`
	MaxPoints float64 `json:"max_points" yaml:"max_points"`
}

// Dimension is one axis of the rubric.
type Dimension struct {
	Name        string  `json:"name" yaml:"name"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Description string  `json:"description" yaml:"description"`
	Tests       []Test  `json:"tests" yaml:"tests"`
}

// Catalog is an ordered set of dimensions. Order is used for deterministic
// iteration only; it never affects scoring.
type Catalog struct {
	dimensions []Dimension
	index      map[string]int
}

// NewCatalog builds a catalog from the given dimensions, preserving order.
// It does not validate; call Validate before use.
func NewCatalog(dims []Dimension) *Catalog {
	c := &Catalog{
		dimensions: make([]Dimension, len(dims)),
		index:      make(map[string]int, len(dims)),
	}
	for i, d := range dims {
		tests := make([]Test, len(d.Tests))
		copy(tests, d.Tests)
		d.Tests = tests
		c.dimensions[i] = d
		if _, dup := c.index[d.Name]; !dup {
			c.index[d.Name] = i
		}
	}
	return c
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the canonical AGI-AEF catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewCatalog(canonical())
	})
	return defaultCatalog
}

// Validate checks the catalog invariants: dimension weights sum to 100 within
// tolerance, every dimension has exactly four tests whose weights sum to 1
// within tolerance, every test has positive max points and names are unique.
func (c *Catalog) Validate() error {
	if len(c.dimensions) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidCatalog)
	}
	if len(c.index) != len(c.dimensions) {
		return fmt.Errorf("%w: duplicate dimension names", ErrInvalidCatalog)
	}

	var total float64
	for _, d := range c.dimensions {
		if d.Weight < 0 {
			return fmt.Errorf("%w: dimension %s has negative weight %v", ErrInvalidCatalog, d.Name, d.Weight)
		}
		total += d.Weight

		if len(d.Tests) != TestsPerDimension {
			return fmt.Errorf("%w: dimension %s has %d tests, want %d",
				ErrInvalidCatalog, d.Name, len(d.Tests), TestsPerDimension)
		}
		seen := make(map[string]bool, len(d.Tests))
		var testTotal float64
		for _, t := range d.Tests {
			if seen[t.Name] {
				return fmt.Errorf("%w: dimension %s repeats test %s", ErrInvalidCatalog, d.Name, t.Name)
			}
			seen[t.Name] = true
			if t.Weight <= 0 || t.Weight > 1 {
				return fmt.Errorf("%w: test %s.%s weight %v outside (0,1]", ErrInvalidCatalog, d.Name, t.Name, t.Weight)
			}
			if t.MaxPoints <= 0 {
				return fmt.Errorf("%w: test %s.%s max points must be positive", ErrInvalidCatalog, d.Name, t.Name)
			}
			testTotal += t.Weight
		}
		if math.Abs(testTotal-TestWeightTotal) > TestWeightTolerance {
			return fmt.Errorf("%w: dimension %s test weights sum to %.4f", ErrInvalidCatalog, d.Name, testTotal)
		}
	}
	if math.Abs(total-DimensionWeightTotal) > DimensionWeightTolerance {
		return fmt.Errorf("%w: dimension weights sum to %.4f", ErrInvalidCatalog, total)
	}
	return nil
}

// Dimensions returns a copy of the dimensions in catalog order.
func (c *Catalog) Dimensions() []Dimension {
	out := make([]Dimension, len(c.dimensions))
	for i, d := range c.dimensions {
		tests := make([]Test, len(d.Tests))
		copy(tests, d.Tests)
		d.Tests = tests
		out[i] = d
	}
	return out
}

// Dimension looks up a dimension by name.
func (c *Catalog) Dimension(name string) (Dimension, bool) {
	i, ok := c.index[name]
	if !ok {
		return Dimension{}, false
	}
	d := c.dimensions[i]
	tests := make([]Test, len(d.Tests))
	copy(tests, d.Tests)
	d.Tests = tests
	return d, true
}

// IndexOf returns the catalog position of a dimension, or -1.
func (c *Catalog) IndexOf(name string) int {
	if i, ok := c.index[name]; ok {
		return i
	}
	return -1
}

// Names returns dimension names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.dimensions))
	for i, d := range c.dimensions {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of dimensions.
func (c *Catalog) Len() int { return len(c.dimensions) }

// TotalWeight returns the sum of dimension weights.
func (c *Catalog) TotalWeight() float64 {
	var total float64
	for _, d := range c.dimensions {
		total += d.Weight
	}
	return total
}

// IsTest reports whether name is a test of any dimension.
func (c *Catalog) IsTest(name string) bool {
	for _, d := range c.dimensions {
		for _, t := range d.Tests {
			if t.Name == name {
				return true
			}
		}
	}
	return false
}
