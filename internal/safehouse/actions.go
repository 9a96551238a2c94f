package safehouse

import (
	"fmt"

	"heist-engine/internal/events"
)

// TrackStatus describes which way an escalation track is moving.
type TrackStatus string

const (
	TrackActive      TrackStatus = "active"
	TrackEscalating  TrackStatus = "escalating"
	TrackStabilizing TrackStatus = "stabilizing"
)

// EscalationTrack is a bounded pressure counter on a defense scenario.
type EscalationTrack struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	Value        int         `json:"value"`
	Max          int         `json:"max"`
	BasePressure int         `json:"basePressure"`
	Status       TrackStatus `json:"status"`
}

func (t EscalationTrack) nearCap() bool { return t.Value >= t.Max-1 }

// RecommendedAction is a suggested response shown alongside a scenario.
type RecommendedAction struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Summary string `json:"summary"`
	ZoneID  string `json:"zoneId,omitempty"`
	TrackID string `json:"trackId,omitempty"`
}

const maxRecommendedActions = 3

var trackTemplates = []EscalationTrack{
	{ID: "perimeter-pressure", Label: "Perimeter Pressure", Max: 6, BasePressure: 1},
	{ID: "informant-chatter", Label: "Informant Chatter", Max: 5, BasePressure: 1},
	{ID: "crew-strain", Label: "Crew Strain", Max: 4, BasePressure: 0},
}

func tierModifier(tier events.CrackdownTier) int {
	switch tier {
	case events.CrackdownLockdown:
		return 2
	case events.CrackdownAlert:
		return 1
	default:
		return 0
	}
}

// accumulateTracks adds one activation's pressure on top of prev. The first
// track takes the full tier modifier and later ones take one less.
func accumulateTracks(prev []EscalationTrack, tier events.CrackdownTier) []EscalationTrack {
	byID := make(map[string]EscalationTrack, len(prev))
	for _, t := range prev {
		byID[t.ID] = t
	}
	mod := tierModifier(tier)
	out := make([]EscalationTrack, len(trackTemplates))
	for i, tmpl := range trackTemplates {
		t := tmpl
		if p, ok := byID[tmpl.ID]; ok {
			t.Value = p.Value
		}
		add := tmpl.BasePressure
		if i == 0 {
			add += mod
		} else {
			add += max(0, mod-1)
		}
		t.Value = min(max(t.Value+add, 0), t.Max)
		t.Status = TrackActive
		if t.nearCap() {
			t.Status = TrackEscalating
		}
		out[i] = t
	}
	return out
}

func stabilizeTracks(tracks []EscalationTrack) []EscalationTrack {
	out := make([]EscalationTrack, len(tracks))
	for i, t := range tracks {
		t.Value = max(t.Value-1, 0)
		t.Status = TrackStabilizing
		out[i] = t
	}
	return out
}

// BuildRecommendedActions suggests fortifying the weakest zone and
// stabilizing the track nearest its cap, falling back to rotating crews.
func BuildRecommendedActions(layout *Layout, tracks []EscalationTrack) []RecommendedAction {
	actions := make([]RecommendedAction, 0, maxRecommendedActions)

	if layout != nil {
		var weakest *Zone
		for i := range layout.Zones {
			z := &layout.Zones[i]
			if z.ID == UnassignedZone {
				continue
			}
			if weakest == nil || z.DefenseScore < weakest.DefenseScore {
				weakest = z
			}
		}
		if weakest != nil {
			actions = append(actions, RecommendedAction{
				ID:      "fortify-" + weakest.ID,
				Label:   "Fortify " + weakest.Label,
				Summary: fmt.Sprintf("%s is the weakest zone (defense %d). Move lookouts and barricades there.", weakest.Label, weakest.DefenseScore),
				ZoneID:  weakest.ID,
			})
		}
	}

	var hottest *EscalationTrack
	for i := range tracks {
		t := &tracks[i]
		if !t.nearCap() {
			continue
		}
		if hottest == nil || t.Max-t.Value < hottest.Max-hottest.Value {
			hottest = t
		}
	}
	if hottest != nil {
		actions = append(actions, RecommendedAction{
			ID:      "stabilize-" + hottest.ID,
			Label:   "Stabilize " + hottest.Label,
			Summary: fmt.Sprintf("%s is at %d of %d. Spend the next day bleeding it off.", hottest.Label, hottest.Value, hottest.Max),
			TrackID: hottest.ID,
		})
	}

	if layout != nil && len(layout.UnassignedFacilityIDs) > 0 {
		actions = append(actions, RecommendedAction{
			ID:      "assign-facilities",
			Label:   "Assign idle facilities",
			Summary: fmt.Sprintf("%d facilities sit outside every zone.", len(layout.UnassignedFacilityIDs)),
		})
	}

	if len(actions) == 0 {
		actions = append(actions, RecommendedAction{
			ID:      "rotate-crews",
			Label:   "Rotate crews",
			Summary: "Swap the watch rotation so no crew stays on post long enough to get sloppy.",
		})
	}
	if len(actions) > maxRecommendedActions {
		actions = actions[:maxRecommendedActions]
	}
	return actions
}
