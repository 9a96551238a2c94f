package events

import (
	"math"
	"strings"
)

// NormalizeRiskTier maps free-form input to a RiskTier. Empty input yields the
// low tier; unrecognized input yields "" which callers treat as unrestricted.
func NormalizeRiskTier(raw string) RiskTier {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return RiskLow
	case "low", "minimal":
		return RiskLow
	case "moderate", "medium", "mid":
		return RiskModerate
	case "high", "severe", "extreme":
		return RiskHigh
	}
	return ""
}

// NormalizeCrackdownTier maps free-form input to a CrackdownTier. Empty input
// yields calm; unrecognized input yields "".
func NormalizeCrackdownTier(raw string) CrackdownTier {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "calm", "low":
		return CrackdownCalm
	case "alert", "elevated", "heightened":
		return CrackdownAlert
	case "lockdown", "locked-down", "martial":
		return CrackdownLockdown
	}
	return ""
}

// BandForDifficulty buckets difficulty into low, mid or high.
func BandForDifficulty(difficulty float64) DifficultyBand {
	switch {
	case difficulty >= 5:
		return BandHigh
	case difficulty >= 3:
		return BandMid
	}
	return BandLow
}

// DeckSize returns the number of events drawn for a mission.
func DeckSize(difficulty float64) int {
	switch {
	case difficulty >= 5:
		return 5
	case difficulty >= 3:
		return 4
	}
	return 3
}

func normalizeDifficulty(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 1
	}
	return d
}

func normalizeProgress(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0.5
	}
	return math.Min(1, math.Max(0, p))
}
