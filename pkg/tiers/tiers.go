// Package tiers defines the AGI-AEF autonomy tiers.
// Tiers partition the 0-255 composite scale into nine contiguous bands.
package tiers

import "fmt"

// TierID identifies an autonomy tier.
type TierID string

const (
	TierNascent            TierID = "NASCENT"
	TierBasic              TierID = "BASIC"
	TierIntermediate       TierID = "INTERMEDIATE"
	TierAdvanced           TierID = "ADVANCED"
	TierAutonomous         TierID = "AUTONOMOUS"
	TierSuperAutonomous    TierID = "SUPER-AUTONOMOUS"
	TierMetaAutonomous     TierID = "META-AUTONOMOUS"
	TierHyperAutonomous    TierID = "HYPER-AUTONOMOUS"
	TierMaximumTheoretical TierID = "MAXIMUM THEORETICAL"
)

// Unclassified is returned for scores outside the composite scale.
const Unclassified = "UNCLASSIFIED"

// Tier is a named inclusive range of composite scores.
type Tier struct {
	ID          TierID `json:"id"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Description string `json:"description"`
}

// All tiers, lowest first
var (
	Nascent = Tier{
		ID: TierNascent, Min: 0, Max: 31,
		Description: "Minimal autonomy; operates only under direct instruction",
	}
	Basic = Tier{
		ID: TierBasic, Min: 32, Max: 63,
		Description: "Executes routine tasks with frequent supervision",
	}
	Intermediate = Tier{
		ID: TierIntermediate, Min: 64, Max: 95,
		Description: "Handles familiar tasks independently within a domain",
	}
	Advanced = Tier{
		ID: TierAdvanced, Min: 96, Max: 127,
		Description: "Plans and adapts across related tasks with light oversight",
	}
	Autonomous = Tier{
		ID: TierAutonomous, Min: 128, Max: 159,
		Description: "Operates independently across domains with periodic review",
	}
	SuperAutonomous = Tier{
		ID: TierSuperAutonomous, Min: 160, Max: 191,
		Description: "Sets and pursues its own sub-goals reliably",
	}
	MetaAutonomous = Tier{
		ID: TierMetaAutonomous, Min: 192, Max: 223,
		Description: "Improves its own methods of reasoning and learning",
	}
	HyperAutonomous = Tier{
		ID: TierHyperAutonomous, Min: 224, Max: 254,
		Description: "Near-complete independence across open-ended environments",
	}
	MaximumTheoretical = Tier{
		ID: TierMaximumTheoretical, Min: 255, Max: 255,
		Description: "Theoretical ceiling of the scale",
	}

	ordered = []Tier{
		Nascent, Basic, Intermediate, Advanced, Autonomous,
		SuperAutonomous, MetaAutonomous, HyperAutonomous, MaximumTheoretical,
	}

	// AllTiers indexes tiers by ID.
	AllTiers = map[TierID]Tier{
		TierNascent:            Nascent,
		TierBasic:              Basic,
		TierIntermediate:       Intermediate,
		TierAdvanced:           Advanced,
		TierAutonomous:         Autonomous,
		TierSuperAutonomous:    SuperAutonomous,
		TierMetaAutonomous:     MetaAutonomous,
		TierHyperAutonomous:    HyperAutonomous,
		TierMaximumTheoretical: MaximumTheoretical,
	}
)

// All returns the tiers in ascending order.
func All() []Tier {
	out := make([]Tier, len(ordered))
	copy(out, ordered)
	return out
}

// Get returns a tier by ID, or nil if not found.
func Get(id TierID) *Tier {
	tier, ok := AllTiers[id]
	if !ok {
		return nil
	}
	return &tier
}

// ForScore returns the tier containing score, or nil outside [0,255].
func ForScore(score int) *Tier {
	for _, t := range ordered {
		if t.Contains(score) {
			tier := t
			return &tier
		}
	}
	return nil
}

// Contains reports whether score falls in the tier's inclusive range.
func (t Tier) Contains(score int) bool {
	return score >= t.Min && score <= t.Max
}

// Label renders "<TIER> (Level <min>-<max>)".
func (t Tier) Label() string {
	return fmt.Sprintf("%s (Level %d-%d)", t.ID, t.Min, t.Max)
}

// Classify returns the label of the tier containing score, or Unclassified.
func Classify(score int) string {
	if t := ForScore(score); t != nil {
		return t.Label()
	}
	return Unclassified
}
