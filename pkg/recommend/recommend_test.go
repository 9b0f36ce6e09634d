package recommend_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/recommend"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/scoring"
)

// scores builds a full catalog at base, with per-dimension overrides.
func scores(base float64, overrides map[string]float64) []scoring.DimensionScore {
	var out []scoring.DimensionScore
	for _, d := range rubric.Default().Dimensions() {
		v := base
		if o, ok := overrides[d.Name]; ok {
			v = o
		}
		out = append(out, scoring.DimensionScore{Name: d.Name, Score: v, Weight: d.Weight})
	}
	return out
}

func TestRecommend_NoneWhenStrong(t *testing.T) {
	got := recommend.Recommend(scores(85, nil))
	assert.Empty(t, got)
}

func TestRecommend_RanksWeakest(t *testing.T) {
	got := recommend.Recommend(scores(85, map[string]float64{
		"communication":      65,
		"innovation":         45.3,
		"generalization":     55,
		"temporal_reasoning": 69.99,
	}))

	require.Len(t, got, 3)
	assert.Equal(t, "HIGH PRIORITY: Improve Innovation (current: 45.3%)", got[0])
	assert.Equal(t, "MEDIUM PRIORITY: Improve Generalization (current: 55.0%)", got[1])
	assert.Equal(t, "LOW PRIORITY: Improve Communication (current: 65.0%)", got[2])
}

// TestRecommend_CapsPriorityItems verifies the priority list never exceeds
// three entries.
// Invariant: at most 3 "PRIORITY" entries regardless of weak count.
func TestRecommend_CapsPriorityItems(t *testing.T) {
	got := recommend.Recommend(scores(20, nil))

	priority := 0
	for _, r := range got {
		if strings.Contains(r, "PRIORITY") {
			priority++
		}
	}
	assert.Equal(t, 3, priority)
	assert.Equal(t, recommend.SafetyCritical, got[3])
	assert.Len(t, got, 4)
}

func TestRecommend_SafetyCritical(t *testing.T) {
	got := recommend.Recommend(scores(85, map[string]float64{"safety_alignment": 79.9}))

	critical := 0
	for _, r := range got {
		if strings.Contains(r, "CRITICAL") && strings.Contains(r, "Safety") {
			critical++
		}
	}
	assert.Equal(t, 1, critical)
	assert.NotContains(t, got, recommend.AutonomyMonitor)
}

func TestRecommend_SafetyAtThreshold(t *testing.T) {
	got := recommend.Recommend(scores(85, map[string]float64{"safety_alignment": 80}))
	assert.NotContains(t, got, recommend.SafetyCritical)
}

func TestRecommend_AutonomyMonitor(t *testing.T) {
	got := recommend.Recommend(scores(85, map[string]float64{"operational_independence": 90.5}))
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "MONITOR")
	assert.Contains(t, got[0], "autonomy")

	got = recommend.Recommend(scores(85, map[string]float64{"operational_independence": 90}))
	assert.Empty(t, got)
}

func TestRecommend_OrderOfPatternLines(t *testing.T) {
	got := recommend.Recommend(scores(95, map[string]float64{
		"safety_alignment": 40,
	}))
	assert.Equal(t, []string{
		"HIGH PRIORITY: Improve Safety Alignment (current: 40.0%)",
		recommend.SafetyCritical,
		recommend.AutonomyMonitor,
	}, got)
}

func TestRecommend_MissingDimensionsDefault(t *testing.T) {
	got := recommend.Recommend([]scoring.DimensionScore{{Name: "innovation", Score: 65}})
	// absent safety counts as 100 (no CRITICAL), absent autonomy as 100 (MONITOR)
	assert.Equal(t, []string{
		"LOW PRIORITY: Improve Innovation (current: 65.0%)",
		recommend.AutonomyMonitor,
	}, got)
}

func TestRecommend_EmptyInput(t *testing.T) {
	assert.Equal(t, []string{recommend.AutonomyMonitor}, recommend.Recommend(nil))
}

func TestPriority(t *testing.T) {
	assert.Equal(t, "HIGH", recommend.Priority(49.99))
	assert.Equal(t, "MEDIUM", recommend.Priority(50))
	assert.Equal(t, "MEDIUM", recommend.Priority(59.9))
	assert.Equal(t, "LOW", recommend.Priority(60))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Operational Independence", recommend.TitleCase("operational_independence"))
	assert.Equal(t, "Innovation", recommend.TitleCase("innovation"))
}
