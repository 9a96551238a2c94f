// Package journal records deck draws, incursion alerts and resolutions to
// pluggable sinks.
package journal

import (
	"time"

	"github.com/google/uuid"

	"heist-engine/internal/events"
	"heist-engine/internal/safehouse"
)

// Kind names a journal stream.
type Kind string

const (
	KindEvent      Kind = "event"
	KindAlert      Kind = "alert"
	KindResolution Kind = "resolution"
)

// EventRow is one candidate drawn into a mission deck.
type EventRow struct {
	CampaignID     string    `json:"campaign_id"`
	MissionID      string    `json:"mission_id"`
	EventID        string    `json:"event_id"`
	Label          string    `json:"label"`
	Category       string    `json:"category,omitempty"`
	Position       int       `json:"position"`
	Progress       float64   `json:"trigger_progress"`
	Weight         float64   `json:"selection_weight"`
	RiskTier       string    `json:"risk_tier,omitempty"`
	CrackdownTier  string    `json:"crackdown_tier,omitempty"`
	DifficultyBand string    `json:"difficulty_band"`
	Timestamp      time.Time `json:"ts"`
}

// AlertRow is one safehouse incursion alert.
type AlertRow struct {
	CampaignID   string    `json:"campaign_id"`
	AlertID      string    `json:"alert_id"`
	SafehouseID  string    `json:"safehouse_id"`
	FacilityID   string    `json:"facility_id,omitempty"`
	HeatTier     string    `json:"heat_tier,omitempty"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	CooldownDays int       `json:"cooldown_days"`
	Timestamp    time.Time `json:"ts"`
}

// ResolutionKind distinguishes what a resolution row resolved.
type ResolutionKind string

const (
	ResolvedIncursion    ResolutionKind = "incursion"
	ResolvedRelationship ResolutionKind = "relationship"
	ResolvedStoryline    ResolutionKind = "storyline"
)

// ResolutionRow is one player decision and its outcome.
type ResolutionRow struct {
	ID         string             `json:"id"`
	CampaignID string             `json:"campaign_id"`
	Kind       ResolutionKind     `json:"kind"`
	SubjectID  string             `json:"subject_id"`
	ChoiceID   string             `json:"choice_id"`
	Summary    string             `json:"summary"`
	Deltas     map[string]float64 `json:"deltas,omitempty"`
	Timestamp  time.Time          `json:"ts"`
}

// NewResolutionRow returns a row with a fresh id.
func NewResolutionRow(campaignID string, kind ResolutionKind, subjectID, choiceID, summary string, ts time.Time) ResolutionRow {
	return ResolutionRow{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		Kind:       kind,
		SubjectID:  subjectID,
		ChoiceID:   choiceID,
		Summary:    summary,
		Deltas:     map[string]float64{},
		Timestamp:  ts,
	}
}

// DeckRows converts a drawn deck into event rows.
func DeckRows(campaignID, missionID string, deck events.Deck, ts time.Time) []EventRow {
	rows := make([]EventRow, len(deck))
	for i, c := range deck {
		rows[i] = EventRow{
			CampaignID:     campaignID,
			MissionID:      missionID,
			EventID:        c.ID,
			Label:          c.Label,
			Category:       c.Category,
			Position:       i,
			Progress:       c.TriggerProgress,
			Weight:         c.SelectionWeight,
			RiskTier:       string(c.AppliedRiskTier),
			CrackdownTier:  string(c.AppliedCrackdownTier),
			DifficultyBand: string(c.AppliedDifficultyBand),
			Timestamp:      ts,
		}
	}
	return rows
}

// AlertRows converts incursion alerts into alert rows.
func AlertRows(campaignID string, alerts []safehouse.Alert) []AlertRow {
	rows := make([]AlertRow, len(alerts))
	for i, a := range alerts {
		rows[i] = AlertRow{
			CampaignID:   campaignID,
			AlertID:      a.ID,
			SafehouseID:  a.SafehouseID,
			FacilityID:   a.FacilityID,
			HeatTier:     a.HeatTier,
			Severity:     string(a.Severity),
			Status:       string(a.Status),
			CooldownDays: a.CooldownDays,
			Timestamp:    time.UnixMilli(a.TriggeredAt).UTC(),
		}
	}
	return rows
}

// EffectDeltas flattens the numeric parts of a choice's effects.
func EffectDeltas(e events.Effects) map[string]float64 {
	out := map[string]float64{}
	add := func(k string, v float64) {
		if v != 0 {
			out[k] = v
		}
	}
	add("payout", e.PayoutDelta)
	add("heat", e.HeatDelta)
	add("duration", e.DurationDelta)
	add("success", e.SuccessDelta)
	add("loyalty", float64(e.CrewLoyaltyDelta))
	add("affinity", float64(e.AffinityDelta))
	add("funds", e.FundsDelta)
	if e.PayoutMultiplier != nil {
		out["payout_multiplier"] = *e.PayoutMultiplier
	}
	if e.HeatMultiplier != nil {
		out["heat_multiplier"] = *e.HeatMultiplier
	}
	if e.DurationMultiplier != nil {
		out["duration_multiplier"] = *e.DurationMultiplier
	}
	if e.FacilityDowntime != nil {
		add("downtime_days", float64(e.FacilityDowntime.DurationDays))
	}
	return out
}
