package events

import "slices"

// SelectionContext is the normalized mission context used for eligibility.
type SelectionContext struct {
	Difficulty    float64
	Band          DifficultyBand
	RiskTier      RiskTier
	CrackdownTier CrackdownTier
}

// NewSelectionContext normalizes the mission fields used for selection.
func NewSelectionContext(m Mission) SelectionContext {
	d := normalizeDifficulty(m.Difficulty)
	return SelectionContext{
		Difficulty:    d,
		Band:          BandForDifficulty(d),
		RiskTier:      NormalizeRiskTier(m.RiskTier),
		CrackdownTier: NormalizeCrackdownTier(m.RawCrackdown()),
	}
}

// Eligible reports whether def may be drawn in ctx. A zero MaxDifficulty
// means no upper bound. An empty tier on ctx is never filtered.
func Eligible(def Definition, ctx SelectionContext) bool {
	if ctx.Difficulty < def.MinDifficulty {
		return false
	}
	if def.MaxDifficulty > 0 && ctx.Difficulty > def.MaxDifficulty {
		return false
	}
	if len(def.RiskTiers) > 0 && ctx.RiskTier != "" && !slices.Contains(def.RiskTiers, ctx.RiskTier) {
		return false
	}
	if len(def.CrackdownTiers) > 0 && ctx.CrackdownTier != "" && !slices.Contains(def.CrackdownTiers, ctx.CrackdownTier) {
		return false
	}
	return true
}

// Weight computes the selection weight of def in ctx. Missing multipliers
// count as 1 and negative factors are floored at 0.
func Weight(def Definition, ctx SelectionContext) float64 {
	w := floor(def.BaseWeight)
	w *= multiplier(def.DifficultyBandWeights, ctx.Band)
	w *= multiplier(def.RiskTierWeights, ctx.RiskTier)
	w *= multiplier(def.CrackdownTierWeights, ctx.CrackdownTier)
	return w
}

func multiplier[K comparable](weights map[K]float64, key K) float64 {
	var zero K
	if key == zero {
		return 1
	}
	v, ok := weights[key]
	if !ok {
		return 1
	}
	return floor(v)
}

func floor(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}

// Evaluate clones def and attaches its weight for ctx. ok is false when the
// definition is ineligible or its weight is not positive.
func Evaluate(def Definition, ctx SelectionContext) (Candidate, bool) {
	if !Eligible(def, ctx) {
		return Candidate{}, false
	}
	w := Weight(def, ctx)
	if w <= 0 {
		return Candidate{}, false
	}
	clone := def.Clone()
	clone.TriggerProgress = normalizeProgress(clone.TriggerProgress)
	return Candidate{
		Definition:            clone,
		SelectionWeight:       w,
		AppliedDifficultyBand: ctx.Band,
		AppliedRiskTier:       ctx.RiskTier,
		AppliedCrackdownTier:  ctx.CrackdownTier,
	}, true
}
