package crew

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// OutcomeSuccess is the only outcome that completes a storyline step.
const OutcomeSuccess = "success"

const defaultStoryline = "default"

// StorylineRewards is applied when a step succeeds.
type StorylineRewards struct {
	Loyalty     int            `json:"loyalty"`
	TraitBoosts map[string]int `json:"traitBoosts,omitempty"`
	Perk        string         `json:"perk,omitempty"`
}

// StorylinePenalty is applied when a step fails.
type StorylinePenalty struct {
	Loyalty int `json:"loyalty"`
}

// StorylineStep is one loyalty mission in a background's storyline. Duration
// is in hours. Summaries may carry a %s for the member's name.
type StorylineStep struct {
	ID                 string           `json:"id"`
	Label              string           `json:"label"`
	Description        string           `json:"description"`
	LoyaltyRequirement int              `json:"loyaltyRequirement"`
	Difficulty         float64          `json:"difficulty"`
	RiskTier           string           `json:"riskTier"`
	Payout             float64          `json:"payout"`
	Heat               float64          `json:"heat"`
	Duration           float64          `json:"duration"`
	Rewards            StorylineRewards `json:"rewards"`
	FailurePenalty     StorylinePenalty `json:"failurePenalty"`
	SuccessSummary     string           `json:"successSummary"`
	FailureSummary     string           `json:"failureSummary"`
}

// MissionTemplate is a crew loyalty mission offered to the mission system.
type MissionTemplate struct {
	ID                          string  `json:"id"`
	Name                        string  `json:"name"`
	Description                 string  `json:"description"`
	Category                    string  `json:"category"`
	CrewID                      string  `json:"crewId"`
	StepID                      string  `json:"stepId"`
	Difficulty                  float64 `json:"difficulty"`
	RiskTier                    string  `json:"riskTier"`
	Payout                      float64 `json:"payout"`
	Heat                        float64 `json:"heat"`
	Duration                    float64 `json:"duration"`
	IgnoreCrackdownRestrictions bool    `json:"ignoreCrackdownRestrictions"`
}

// StorylineResult summarizes ApplyCrewStorylineOutcome.
type StorylineResult struct {
	CrewID       string         `json:"crewId"`
	StepID       string         `json:"stepId"`
	Success      bool           `json:"success"`
	LoyaltyDelta int            `json:"loyaltyDelta"`
	TraitBoosts  map[string]int `json:"traitBoosts"`
	PerkAwarded  string         `json:"perkAwarded,omitempty"`
	Summary      string         `json:"summary"`
}

var storylines = map[string][]StorylineStep{
	defaultStoryline: {
		{
			ID: "old-debts", Label: "Old Debts", LoyaltyRequirement: 1, Difficulty: 2, RiskTier: "low", Payout: 4000, Heat: 1, Duration: 6,
			Description:    "%s owes the wrong people. Settle it before they come collecting.",
			Rewards:        StorylineRewards{Loyalty: 1, TraitBoosts: map[string]int{"composure": 1}},
			FailurePenalty: StorylinePenalty{Loyalty: -1},
			SuccessSummary: "%s paid off the old debt and walked away clean.",
			FailureSummary: "%s's creditors were not satisfied. The debt is still open.",
		},
		{
			ID: "proving-ground", Label: "Proving Ground", LoyaltyRequirement: 3, Difficulty: 3, RiskTier: "moderate", Payout: 7000, Heat: 2, Duration: 10,
			Description:    "%s wants to run a job of their own design.",
			Rewards:        StorylineRewards{Loyalty: 1, TraitBoosts: map[string]int{"planning": 1}, Perk: "Trusted Hand"},
			FailurePenalty: StorylinePenalty{Loyalty: -1},
			SuccessSummary: "%s ran their own job and the crew followed without question.",
			FailureSummary: "%s's plan fell apart halfway. They want to try again.",
		},
	},
	"ex-cop": {
		{
			ID: "burned-badge", Label: "Burned Badge", LoyaltyRequirement: 1, Difficulty: 3, RiskTier: "moderate", Payout: 5000, Heat: 2, Duration: 8,
			Description:    "A former partner is about to testify against %s.",
			Rewards:        StorylineRewards{Loyalty: 1, TraitBoosts: map[string]int{"intimidation": 1}},
			FailurePenalty: StorylinePenalty{Loyalty: -1},
			SuccessSummary: "%s's old partner decided not to testify after all.",
			FailureSummary: "The testimony is still on the calendar and %s knows it.",
		},
		{
			ID: "evidence-locker", Label: "Evidence Locker", LoyaltyRequirement: 3, Difficulty: 4, RiskTier: "high", Payout: 9000, Heat: 3, Duration: 12,
			Description:    "%s knows a way into the precinct evidence locker.",
			Rewards:        StorylineRewards{Loyalty: 2, TraitBoosts: map[string]int{"stealth": 1}, Perk: "Precinct Contacts"},
			FailurePenalty: StorylinePenalty{Loyalty: -2},
			SuccessSummary: "%s walked the evidence back out of the precinct.",
			FailureSummary: "The locker run blew up and %s barely got out.",
		},
	},
	"hacker": {
		{
			ID: "ghost-handle", Label: "Ghost Handle", LoyaltyRequirement: 0, Difficulty: 2, RiskTier: "low", Payout: 3000, Heat: 1, Duration: 4,
			Description:    "Someone is using %s's old handle to sell exploits.",
			Rewards:        StorylineRewards{Loyalty: 1, TraitBoosts: map[string]int{"tech": 1}},
			FailurePenalty: StorylinePenalty{Loyalty: -1},
			SuccessSummary: "%s took the old handle back and burned the impostor.",
			FailureSummary: "The impostor slipped away and %s's handle is still being sold.",
		},
		{
			ID: "zero-day", Label: "Zero Day", LoyaltyRequirement: 2, Difficulty: 4, RiskTier: "moderate", Payout: 8000, Heat: 2, Duration: 8,
			Description:    "%s found a flaw in the city's traffic grid and wants to use it.",
			Rewards:        StorylineRewards{Loyalty: 1, TraitBoosts: map[string]int{"tech": 2}, Perk: "Grid Backdoor"},
			FailurePenalty: StorylinePenalty{Loyalty: -1},
			SuccessSummary: "%s left a quiet backdoor in the traffic grid.",
			FailureSummary: "The grid flaw was patched before %s could use it.",
		},
	},
	"wheelman": {
		{
			ID: "pink-slip", Label: "Pink Slip", LoyaltyRequirement: 1, Difficulty: 2, RiskTier: "moderate", Payout: 4500, Heat: 2, Duration: 5,
			Description:    "%s lost a car in a street race and wants it back.",
			Rewards:        StorylineRewards{Loyalty: 1, TraitBoosts: map[string]int{"driving": 1}},
			FailurePenalty: StorylinePenalty{Loyalty: -1},
			SuccessSummary: "%s drove the car home with the pink slip on the dash.",
			FailureSummary: "%s lost the rematch and the car with it.",
		},
		{
			ID: "last-run", Label: "Last Run", LoyaltyRequirement: 3, Difficulty: 5, RiskTier: "high", Payout: 12000, Heat: 4, Duration: 9,
			Description:    "%s wants one more run through the lockdown cordon.",
			Rewards:        StorylineRewards{Loyalty: 2, TraitBoosts: map[string]int{"driving": 2}, Perk: "Cordon Runner"},
			FailurePenalty: StorylinePenalty{Loyalty: -2},
			SuccessSummary: "%s threaded the cordon one last time without a scratch.",
			FailureSummary: "The cordon held and %s had to ditch the car.",
		},
	},
}

func storylineFor(m *Member) []StorylineStep {
	if steps, ok := storylines[normalizeID(m.Background.ID)]; ok {
		return steps
	}
	return storylines[defaultStoryline]
}

// GetAvailableCrewStorylineMissions returns one loyalty mission per member
// whose storyline has an incomplete step they qualify for. The first such
// step in table order wins.
func GetAvailableCrewStorylineMissions(members []Record) []MissionTemplate {
	out := []MissionTemplate{}
	for _, r := range members {
		m := member(r)
		if m == nil || strings.TrimSpace(m.ID) == "" {
			continue
		}
		for _, step := range storylineFor(m) {
			if m.HasCompleted(step.ID) || m.Loyalty < step.LoyaltyRequirement {
				continue
			}
			out = append(out, missionTemplate(m, step))
			break
		}
	}
	return out
}

func missionTemplate(m *Member, step StorylineStep) MissionTemplate {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	return MissionTemplate{
		ID:                          fmt.Sprintf("loyalty-%s-%s", m.ID, step.ID),
		Name:                        fmt.Sprintf("%s: %s", name, step.Label),
		Description:                 fmt.Sprintf(step.Description, name),
		Category:                    "crew-loyalty",
		CrewID:                      m.ID,
		StepID:                      step.ID,
		Difficulty:                  step.Difficulty,
		RiskTier:                    step.RiskTier,
		Payout:                      step.Payout,
		Heat:                        step.Heat,
		Duration:                    step.Duration,
		IgnoreCrackdownRestrictions: true,
	}
}

// ApplyCrewStorylineOutcome applies a storyline step's rewards on success or
// its failure penalty otherwise. Failed steps stay open for a retry. It
// returns nil when the step is not in the member's storyline.
func ApplyCrewStorylineOutcome(r Record, stepID, outcome string) *StorylineResult {
	m := member(r)
	if m == nil {
		return nil
	}
	steps := storylineFor(m)
	i := slices.IndexFunc(steps, func(s StorylineStep) bool { return s.ID == stepID })
	if i < 0 {
		return nil
	}
	step := steps[i]
	name := m.Name
	if name == "" {
		name = m.ID
	}
	res := &StorylineResult{CrewID: m.ID, StepID: step.ID, TraitBoosts: map[string]int{}}

	if outcome != OutcomeSuccess {
		res.LoyaltyDelta = step.FailurePenalty.Loyalty
		adjustLoyalty(r, step.FailurePenalty.Loyalty)
		res.Summary = stepSummary(step.FailureSummary, name)
		return res
	}

	res.Success = true
	res.LoyaltyDelta = step.Rewards.Loyalty
	adjustLoyalty(r, step.Rewards.Loyalty)
	for _, trait := range slices.Sorted(maps.Keys(step.Rewards.TraitBoosts)) {
		delta := step.Rewards.TraitBoosts[trait]
		boostTrait(m, trait, delta)
		res.TraitBoosts[trait] = delta
	}
	if addPerk(r, step.Rewards.Perk) {
		res.PerkAwarded = step.Rewards.Perk
	}
	markStepComplete(r, step.ID)
	res.Summary = stepSummary(step.SuccessSummary, name)
	if res.PerkAwarded != "" {
		res.Summary += " Perk unlocked: " + res.PerkAwarded + "."
	}
	return res
}

func stepSummary(format, name string) string {
	if strings.Contains(format, "%s") {
		return fmt.Sprintf(format, name)
	}
	return format
}
