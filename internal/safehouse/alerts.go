package safehouse

import (
	"fmt"
	"strings"
	"time"

	"heist-engine/internal/events"
)

// AlertStatus is the lifecycle state of an incursion alert.
type AlertStatus string

const (
	AlertActive   AlertStatus = "alert"
	AlertCooldown AlertStatus = "cooldown"
)

// Severity grades an incursion alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a safehouse incursion alert. Each alert is paired with an event
// whose SafehouseAlertID equals the alert ID.
type Alert struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	Summary      string      `json:"summary"`
	Status       AlertStatus `json:"status"`
	Severity     Severity    `json:"severity"`
	FacilityID   string      `json:"facilityId,omitempty"`
	HeatTier     string      `json:"heatTier,omitempty"`
	SafehouseID  string      `json:"safehouseId"`
	MissionID    string      `json:"missionId,omitempty"`
	CooldownDays int         `json:"cooldownDays"`
	TriggeredAt  int64       `json:"triggeredAt"`
}

// IncursionContext carries the safehouse and city heat for alert generation.
type IncursionContext struct {
	Safehouse Safehouse
	HeatTier  string
	Now       time.Time
}

// IncursionResult holds paired events and alerts. Both slices are non-nil.
type IncursionResult struct {
	Events []events.Definition `json:"events"`
	Alerts []Alert             `json:"alerts"`
}

var alertBadge = events.Badge{ID: "safehouse-alert", Label: "Safehouse Alert", Tone: "danger"}

type alertProfile struct {
	key          string
	label        string
	summary      string
	severity     Severity
	cooldownDays int
	progress     float64
	choices      func(facilityID, facilityName string) []events.Choice
}

// facilityEffects lists the passive bonuses each facility grants; downtime
// suspends them.
var facilityEffects = map[string][]string{
	"ops-terminal":        {"Mission planning time -10%", "Intel reveals one extra point of interest"},
	"command-center":      {"Crew coordination +1", "Mission planning time -5%"},
	"dead-drop-network":   {"Fence payouts +5%", "Heat decay +1 per day"},
	"courier-relay":       {"Supply deliveries arrive a day early"},
	"rapid-response-cell": {"Safehouse defense +2", "Incursion alerts arrive earlier"},
	"armory":              {"Crew success +3% on high-risk jobs"},
}

var facilityAlertProfiles = map[string]string{
	"ops-terminal":        "terminal-intrusion",
	"command-center":      "terminal-intrusion",
	"dead-drop-network":   "dead-drop-burned",
	"courier-relay":       "courier-tailed",
	"rapid-response-cell": "response-probe",
	"armory":              "armory-raid",
}

var alertProfiles = map[string]alertProfile{
	"terminal-intrusion": {
		key:          "terminal-intrusion",
		label:        "Terminal Intrusion",
		summary:      "Someone is probing the operations network from outside the safehouse.",
		severity:     SeverityWarning,
		cooldownDays: 3,
		progress:     0.35,
		choices:      facilityChoices("wipe-network", "Wipe and rebuild", "isolate-node", "Isolate the node", 2, 1),
	},
	"dead-drop-burned": {
		key:          "dead-drop-burned",
		label:        "Dead Drop Burned",
		summary:      "A courier reports police tape around one of the dead drops.",
		severity:     SeverityWarning,
		cooldownDays: 2,
		progress:     0.4,
		choices:      facilityChoices("abandon-drops", "Abandon the drops", "relocate-drops", "Relocate quietly", 3, 1),
	},
	"courier-tailed": {
		key:          "courier-tailed",
		label:        "Courier Tailed",
		summary:      "An unmarked car has followed the courier route two nights running.",
		severity:     SeverityWarning,
		cooldownDays: 2,
		progress:     0.45,
		choices:      facilityChoices("suspend-runs", "Suspend courier runs", "shake-tail", "Shake the tail", 2, 0),
	},
	"response-probe": {
		key:          "response-probe",
		label:        "Response Cell Probed",
		summary:      "Undercover officers are asking around about the rapid-response cell.",
		severity:     SeverityCritical,
		cooldownDays: 4,
		progress:     0.3,
		choices:      facilityChoices("stand-down", "Stand the cell down", "feed-misdirection", "Feed misdirection", 3, 1),
	},
	"armory-raid": {
		key:          "armory-raid",
		label:        "Armory Raid Warning",
		summary:      "A tip says the armory's supplier has been flipped.",
		severity:     SeverityCritical,
		cooldownDays: 4,
		progress:     0.5,
		choices:      facilityChoices("move-weapons", "Move the weapons", "burn-supplier", "Burn the supplier", 3, 0),
	},
}

var heatAlertProfiles = map[events.CrackdownTier]alertProfile{
	events.CrackdownAlert: {
		key:          "heat-stakeout",
		label:        "Stakeout Spotted",
		summary:      "A surveillance van has parked across from the safehouse.",
		severity:     SeverityWarning,
		cooldownDays: 2,
		progress:     0.55,
		choices:      heatChoices(1, 1500),
	},
	events.CrackdownLockdown: {
		key:          "heat-raid",
		label:        "Raid Imminent",
		summary:      "Lockdown patrols are sweeping the district door to door.",
		severity:     SeverityCritical,
		cooldownDays: 5,
		progress:     0.6,
		choices:      heatChoices(2, 4000),
	},
}

func downtimePenalties(facilityID string) []string {
	effects := facilityEffects[facilityID]
	if len(effects) == 0 {
		return []string{"Passive bonuses suspended"}
	}
	out := make([]string, len(effects))
	for i, e := range effects {
		out[i] = "Suspended: " + e
	}
	return out
}

func facilityChoices(safeID, safeLabel, riskyID, riskyLabel string, safeDays, riskyDays int) func(string, string) []events.Choice {
	return func(facilityID, facilityName string) []events.Choice {
		safe := events.Choice{
			ID:          safeID,
			Label:       safeLabel,
			Description: fmt.Sprintf("Take the %s offline until things cool down.", facilityName),
			Narrative:   fmt.Sprintf("The crew shuts down the %s and waits out the heat.", facilityName),
			Effects: events.Effects{
				HeatDelta: -2,
				FacilityDowntime: &events.FacilityDowntime{
					FacilityID:   facilityID,
					DurationDays: safeDays,
					Summary:      fmt.Sprintf("%s offline for %d days.", facilityName, safeDays),
					Penalties:    downtimePenalties(facilityID),
				},
			},
		}
		risky := events.Choice{
			ID:          riskyID,
			Label:       riskyLabel,
			Description: fmt.Sprintf("Keep the %s running and deal with the threat directly.", facilityName),
			Narrative:   fmt.Sprintf("The crew keeps the %s humming and hopes nobody looks too closely.", facilityName),
			Effects:     events.Effects{HeatDelta: 1, FundsDelta: -750},
		}
		if riskyDays > 0 {
			risky.Effects.FacilityDowntime = &events.FacilityDowntime{
				FacilityID:   facilityID,
				DurationDays: riskyDays,
				Summary:      fmt.Sprintf("%s degraded for %d day.", facilityName, riskyDays),
				Penalties:    downtimePenalties(facilityID),
			}
		}
		return []events.Choice{safe, risky}
	}
}

func heatChoices(downtimeDays int, bribe float64) func(string, string) []events.Choice {
	return func(facilityID, facilityName string) []events.Choice {
		layLow := events.Choice{
			ID:          "lay-low",
			Label:       "Lay low",
			Description: "Go dark and shut down anything that draws attention.",
			Narrative:   "Lights off, phones off. The safehouse goes quiet.",
			Effects:     events.Effects{HeatDelta: -3},
		}
		if facilityID != "" {
			layLow.Effects.FacilityDowntime = &events.FacilityDowntime{
				FacilityID:   facilityID,
				DurationDays: downtimeDays,
				Summary:      fmt.Sprintf("%s dark for %d days.", facilityName, downtimeDays),
				Penalties:    downtimePenalties(facilityID),
			}
		}
		bribeChoice := events.Choice{
			ID:          "grease-precinct",
			Label:       "Grease the precinct",
			Description: "Pay a friendly sergeant to redirect the patrols.",
			Narrative:   "An envelope changes hands and the patrols drift elsewhere.",
			Effects:     events.Effects{FundsDelta: -bribe, HeatDelta: -1},
		}
		return []events.Choice{layLow, bribeChoice}
	}
}

// AlertID returns the deterministic alert id for a safehouse and profile key.
func AlertID(safehouseID, profileKey string) string {
	return fmt.Sprintf("incursion-%s-%s", safehouseID, profileKey)
}

// BuildSafehouseIncursionEvents maps installed facilities and the city heat
// tier to paired incursion events and alerts. It never returns nil slices.
func BuildSafehouseIncursionEvents(mission *events.Mission, ctx IncursionContext) IncursionResult {
	res := IncursionResult{Events: []events.Definition{}, Alerts: []Alert{}}
	shID := safehouseID(ctx.Safehouse)
	if shID == "" {
		return res
	}
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	missionID := ""
	heatRaw := ctx.HeatTier
	if mission != nil {
		missionID = mission.ID
		if heatRaw == "" {
			heatRaw = mission.RawCrackdown()
		}
	}

	// Each trigger source contributes at most one alert: the first installed
	// facility with a known profile wins.
	facilities := liveFacilities(ctx.Safehouse)
	used := make(map[string]struct{})
	for _, f := range facilities {
		key, ok := facilityAlertProfiles[f.ID]
		if !ok {
			continue
		}
		id := AlertID(shID, key)
		used[id] = struct{}{}
		p := alertProfiles[key]
		name := f.Name
		if name == "" {
			name = titleize(f.ID)
		}
		badge := events.Badge{ID: "facility-" + f.ID, Label: name, Tone: "info"}
		res.add(p, id, shID, missionID, f.ID, name, "", badge, now)
		break
	}

	if tier := events.NormalizeCrackdownTier(heatRaw); tier != "" {
		if p, ok := heatAlertProfiles[tier]; ok {
			id := AlertID(shID, p.key)
			if _, dup := used[id]; !dup {
				used[id] = struct{}{}
				var fid, fname string
				if len(facilities) > 0 {
					fid = facilities[0].ID
					fname = facilities[0].Name
					if fname == "" {
						fname = titleize(fid)
					}
				}
				badge := events.Badge{ID: "heat-" + string(tier), Label: "Heat: " + titleize(string(tier)), Tone: "warning"}
				res.add(p, id, shID, missionID, fid, fname, string(tier), badge, now)
			}
		}
	}
	return res
}

func (r *IncursionResult) add(p alertProfile, id, shID, missionID, facilityID, facilityName, heatTier string, badge events.Badge, now time.Time) {
	alert := Alert{
		ID:           id,
		Label:        p.label,
		Summary:      p.summary,
		Status:       AlertActive,
		Severity:     p.severity,
		HeatTier:     heatTier,
		SafehouseID:  shID,
		MissionID:    missionID,
		CooldownDays: p.cooldownDays,
		TriggeredAt:  now.UnixMilli(),
	}
	if heatTier == "" {
		alert.FacilityID = facilityID
	}
	ev := events.Definition{
		ID:               id,
		Label:            p.label,
		Description:      p.summary,
		Category:         "safehouse-incursion",
		TriggerProgress:  p.progress,
		MinDifficulty:    0,
		BaseWeight:       1,
		Badges:           []events.Badge{alertBadge, badge},
		SafehouseAlertID: id,
		Choices:          p.choices(facilityID, facilityName),
	}
	r.Alerts = append(r.Alerts, alert)
	r.Events = append(r.Events, ev)
}

func titleize(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
