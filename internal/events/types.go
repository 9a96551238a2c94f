// Event, choice and candidate types shared by the deck builder and the safehouse/crew services.
package events

import "maps"

// RiskTier is the per-mission danger classification.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskModerate RiskTier = "moderate"
	RiskHigh     RiskTier = "high"
)

// CrackdownTier is the city-wide police pressure level.
type CrackdownTier string

const (
	CrackdownCalm     CrackdownTier = "calm"
	CrackdownAlert    CrackdownTier = "alert"
	CrackdownLockdown CrackdownTier = "lockdown"
)

// DifficultyBand buckets mission difficulty for weight multipliers.
type DifficultyBand string

const (
	BandLow  DifficultyBand = "low"
	BandMid  DifficultyBand = "mid"
	BandHigh DifficultyBand = "high"
)

// FacilityDowntime describes a temporary loss of a facility's passive bonuses.
type FacilityDowntime struct {
	FacilityID   string   `yaml:"facility_id" json:"facilityId"`
	DurationDays int      `yaml:"duration_days" json:"durationDays"`
	Summary      string   `yaml:"summary,omitempty" json:"summary,omitempty"`
	Penalties    []string `yaml:"penalties,omitempty" json:"penalties,omitempty"`
}

// Effects lists the state changes a choice applies. Multipliers are optional;
// a nil multiplier leaves the value untouched.
type Effects struct {
	PayoutMultiplier   *float64          `yaml:"payout_multiplier,omitempty" json:"payoutMultiplier,omitempty"`
	PayoutDelta        float64           `yaml:"payout_delta,omitempty" json:"payoutDelta,omitempty"`
	HeatMultiplier     *float64          `yaml:"heat_multiplier,omitempty" json:"heatMultiplier,omitempty"`
	HeatDelta          float64           `yaml:"heat_delta,omitempty" json:"heatDelta,omitempty"`
	DurationMultiplier *float64          `yaml:"duration_multiplier,omitempty" json:"durationMultiplier,omitempty"`
	DurationDelta      float64           `yaml:"duration_delta,omitempty" json:"durationDelta,omitempty"`
	SuccessDelta       float64           `yaml:"success_delta,omitempty" json:"successDelta,omitempty"`
	CrewLoyaltyDelta   int               `yaml:"crew_loyalty_delta,omitempty" json:"crewLoyaltyDelta,omitempty"`
	AffinityDelta      int               `yaml:"affinity_delta,omitempty" json:"affinityDelta,omitempty"`
	FundsDelta         float64           `yaml:"funds_delta,omitempty" json:"fundsDelta,omitempty"`
	FutureDebt         bool              `yaml:"future_debt,omitempty" json:"futureDebt,omitempty"`
	ClearBand          bool              `yaml:"clear_band,omitempty" json:"clearBand,omitempty"`
	FacilityDowntime   *FacilityDowntime `yaml:"facility_downtime,omitempty" json:"facilityDowntime,omitempty"`
}

// Clone returns a deep copy of the effects.
func (e Effects) Clone() Effects {
	out := e
	out.PayoutMultiplier = cloneFloat(e.PayoutMultiplier)
	out.HeatMultiplier = cloneFloat(e.HeatMultiplier)
	out.DurationMultiplier = cloneFloat(e.DurationMultiplier)
	if e.FacilityDowntime != nil {
		fd := *e.FacilityDowntime
		fd.Penalties = append([]string(nil), e.FacilityDowntime.Penalties...)
		out.FacilityDowntime = &fd
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v, for building optional multipliers.
func Float(v float64) *float64 { return &v }

// Choice is one response the player can pick for an event.
type Choice struct {
	ID          string  `yaml:"id" json:"id"`
	Label       string  `yaml:"label" json:"label"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Narrative   string  `yaml:"narrative,omitempty" json:"narrative,omitempty"`
	Effects     Effects `yaml:"effects,omitempty" json:"effects"`
}

// Badge is a short tag rendered next to an event.
type Badge struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Tone  string `yaml:"tone,omitempty" json:"tone,omitempty"`
}

// Definition is a static event entry. Definitions are shared and must be
// cloned before any runtime state is attached to them.
type Definition struct {
	ID                    string                     `yaml:"id" json:"id"`
	Label                 string                     `yaml:"label" json:"label"`
	Description           string                     `yaml:"description" json:"description"`
	Category              string                     `yaml:"category,omitempty" json:"category,omitempty"`
	TriggerProgress       float64                    `yaml:"trigger_progress" json:"triggerProgress"`
	MinDifficulty         float64                    `yaml:"min_difficulty" json:"minDifficulty"`
	MaxDifficulty         float64                    `yaml:"max_difficulty" json:"maxDifficulty"`
	RiskTiers             []RiskTier                 `yaml:"risk_tiers,omitempty" json:"riskTiers,omitempty"`
	CrackdownTiers        []CrackdownTier            `yaml:"crackdown_tiers,omitempty" json:"crackdownTiers,omitempty"`
	BaseWeight            float64                    `yaml:"base_weight" json:"baseWeight"`
	DifficultyBandWeights map[DifficultyBand]float64 `yaml:"difficulty_band_weights,omitempty" json:"difficultyBandWeights,omitempty"`
	RiskTierWeights       map[RiskTier]float64       `yaml:"risk_tier_weights,omitempty" json:"riskTierWeights,omitempty"`
	CrackdownTierWeights  map[CrackdownTier]float64  `yaml:"crackdown_tier_weights,omitempty" json:"crackdownTierWeights,omitempty"`
	Badges                []Badge                    `yaml:"badges,omitempty" json:"badges,omitempty"`
	SafehouseAlertID      string                     `yaml:"safehouse_alert_id,omitempty" json:"safehouseAlertId,omitempty"`
	Choices               []Choice                   `yaml:"choices" json:"choices"`
}

// Clone returns a deep copy including nested effect values.
func (d Definition) Clone() Definition {
	out := d
	out.RiskTiers = append([]RiskTier(nil), d.RiskTiers...)
	out.CrackdownTiers = append([]CrackdownTier(nil), d.CrackdownTiers...)
	out.DifficultyBandWeights = maps.Clone(d.DifficultyBandWeights)
	out.RiskTierWeights = maps.Clone(d.RiskTierWeights)
	out.CrackdownTierWeights = maps.Clone(d.CrackdownTierWeights)
	out.Badges = append([]Badge(nil), d.Badges...)
	if d.Choices != nil {
		out.Choices = make([]Choice, len(d.Choices))
		for i, c := range d.Choices {
			c.Effects = c.Effects.Clone()
			out.Choices[i] = c
		}
	}
	return out
}

// Choice returns the choice with the given id.
func (d Definition) Choice(id string) (Choice, bool) {
	for _, c := range d.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Candidate is a cloned definition evaluated against one mission.
type Candidate struct {
	Definition
	SelectionWeight       float64        `json:"selectionWeight"`
	AppliedDifficultyBand DifficultyBand `json:"appliedDifficultyBand"`
	AppliedRiskTier       RiskTier       `json:"appliedRiskTier,omitempty"`
	AppliedCrackdownTier  CrackdownTier  `json:"appliedCrackdownTier,omitempty"`
	Triggered             bool           `json:"triggered"`
	Resolved              bool           `json:"resolved"`
}

// Deck is the ordered list of candidates played back during a mission.
type Deck []Candidate

// PointOfInterest is the optional mission target that flavors one event.
type PointOfInterest struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Mission is the context supplied by the mission system. Several crackdown
// field names are accepted; the first non-empty one wins.
type Mission struct {
	ID                  string           `yaml:"id" json:"id"`
	Name                string           `yaml:"name,omitempty" json:"name,omitempty"`
	Difficulty          float64          `yaml:"difficulty" json:"difficulty"`
	RiskTier            string           `yaml:"risk_tier,omitempty" json:"riskTier,omitempty"`
	CrackdownTier       string           `yaml:"crackdown_tier,omitempty" json:"crackdownTier,omitempty"`
	ActiveCrackdownTier string           `yaml:"active_crackdown_tier,omitempty" json:"activeCrackdownTier,omitempty"`
	CrackdownLevel      string           `yaml:"crackdown_level,omitempty" json:"crackdownLevel,omitempty"`
	PointOfInterest     *PointOfInterest `yaml:"point_of_interest,omitempty" json:"pointOfInterest,omitempty"`
	CrewIDs             []string         `yaml:"crew_ids,omitempty" json:"crewIds,omitempty"`
}

// RawCrackdown returns the first non-empty crackdown alias.
func (m Mission) RawCrackdown() string {
	for _, v := range []string{m.CrackdownTier, m.ActiveCrackdownTier, m.CrackdownLevel} {
		if v != "" {
			return v
		}
	}
	return ""
}
