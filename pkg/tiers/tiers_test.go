package tiers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/tiers"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{0, "NASCENT (Level 0-31)"},
		{31, "NASCENT (Level 0-31)"},
		{32, "BASIC (Level 32-63)"},
		{95, "INTERMEDIATE (Level 64-95)"},
		{96, "ADVANCED (Level 96-127)"},
		{128, "AUTONOMOUS (Level 128-159)"},
		{191, "SUPER-AUTONOMOUS (Level 160-191)"},
		{200, "META-AUTONOMOUS (Level 192-223)"},
		{254, "HYPER-AUTONOMOUS (Level 224-254)"},
		{255, "MAXIMUM THEORETICAL (Level 255-255)"},
		{-1, "UNCLASSIFIED"},
		{256, "UNCLASSIFIED"},
		{300, "UNCLASSIFIED"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tiers.Classify(tt.score), "score %d", tt.score)
	}
}

// TestTiers_Partition verifies the tiers cover [0,255] with no gaps or
// overlaps.
// Invariant: every score in range maps to exactly one tier.
func TestTiers_Partition(t *testing.T) {
	all := tiers.All()
	require.Len(t, all, 9)
	assert.Equal(t, 0, all[0].Min)
	assert.Equal(t, 255, all[len(all)-1].Max)

	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].Max+1, all[i].Min, "gap before %s", all[i].ID)
	}

	for score := 0; score <= 255; score++ {
		hits := 0
		for _, tier := range all {
			if tier.Contains(score) {
				hits++
			}
		}
		assert.Equal(t, 1, hits, "score %d", score)
	}
}

func TestTiers_Get(t *testing.T) {
	tier := tiers.Get(tiers.TierAutonomous)
	require.NotNil(t, tier)
	assert.Equal(t, 128, tier.Min)
	assert.Equal(t, 159, tier.Max)

	assert.Nil(t, tiers.Get("SENTIENT"))
}

func TestTiers_ForScore(t *testing.T) {
	tier := tiers.ForScore(100)
	require.NotNil(t, tier)
	assert.Equal(t, tiers.TierAdvanced, tier.ID)
	assert.Nil(t, tiers.ForScore(-5))
}

func TestTiers_AllReturnsCopy(t *testing.T) {
	all := tiers.All()
	all[0].Max = 200
	assert.Equal(t, "NASCENT (Level 0-31)", tiers.Classify(10))
}
