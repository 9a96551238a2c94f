package safehouse

import (
	"fmt"
	"strings"
	"time"

	"heist-engine/internal/events"
)

// ScenarioStatus is the lifecycle state of a defense scenario.
type ScenarioStatus string

const (
	ScenarioActive   ScenarioStatus = "active"
	ScenarioCooldown ScenarioStatus = "cooldown"
)

const (
	maxScenarioHistory  = 6
	maxDefenseHistory   = 20
	DefaultCooldownDays = 3
)

// HistoryEntry records one resolved incursion.
type HistoryEntry struct {
	AlertID     string `json:"alertId,omitempty"`
	SafehouseID string `json:"safehouseId,omitempty"`
	ChoiceID    string `json:"choiceId"`
	Summary     string `json:"summary"`
	ResolvedAt  int64  `json:"resolvedAt"`
}

// Scenario is the defense bookkeeping for one incursion alert.
type Scenario struct {
	AlertID      string              `json:"alertId"`
	SafehouseID  string              `json:"safehouseId"`
	Status       ScenarioStatus      `json:"status"`
	HeatTier     string              `json:"heatTier,omitempty"`
	CooldownDays int                 `json:"cooldownDays"`
	StartedAt    int64               `json:"startedAt"`
	UpdatedAt    int64               `json:"updatedAt"`
	ResolvedAt   *int64              `json:"resolvedAt"`
	Layout       *Layout             `json:"layout"`
	Tracks       []EscalationTrack   `json:"tracks"`
	Actions      []RecommendedAction `json:"actions"`
	History      []HistoryEntry      `json:"history"`
}

// DefenseState is the persisted safehouse defense block of the game state.
type DefenseState struct {
	Scenarios map[string]*Scenario `json:"scenarios"`
	Layouts   map[string]*Layout   `json:"layouts"`
	History   []HistoryEntry       `json:"history"`
}

// NewDefenseState returns an empty defense block.
func NewDefenseState() *DefenseState {
	return &DefenseState{
		Scenarios: map[string]*Scenario{},
		Layouts:   map[string]*Layout{},
		History:   []HistoryEntry{},
	}
}

// Normalize coerces missing or malformed members to their empty shape.
func (s *DefenseState) Normalize() {
	if s.Scenarios == nil {
		s.Scenarios = map[string]*Scenario{}
	}
	for id, sc := range s.Scenarios {
		if sc == nil || id == "" {
			delete(s.Scenarios, id)
		}
	}
	if s.Layouts == nil {
		s.Layouts = map[string]*Layout{}
	}
	for id, l := range s.Layouts {
		if l == nil || id == "" {
			delete(s.Layouts, id)
		}
	}
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	if len(s.History) > maxDefenseHistory {
		s.History = s.History[len(s.History)-maxDefenseHistory:]
	}
}

// DefenseStore owns the defense block. Implementations lazily initialize it.
type DefenseStore interface {
	SafehouseDefense() *DefenseState
}

// ActivateOptions configures a scenario activation.
type ActivateOptions struct {
	Safehouse    Safehouse
	HeatTier     string
	CooldownDays int
}

// ResolutionOptions configures a scenario resolution.
type ResolutionOptions struct {
	Summary    string
	ResolvedAt time.Time
}

// DefenseManager runs the activate/resolve lifecycle over a DefenseStore.
type DefenseManager struct {
	store               DefenseStore
	defaultCooldownDays int

	// Now is the clock used for timestamps.
	Now func() time.Time
}

// NewDefenseManager returns a manager over store. A non-positive
// cooldownDays uses DefaultCooldownDays.
func NewDefenseManager(store DefenseStore, cooldownDays int) *DefenseManager {
	if cooldownDays <= 0 {
		cooldownDays = DefaultCooldownDays
	}
	return &DefenseManager{store: store, defaultCooldownDays: cooldownDays, Now: time.Now}
}

func (m *DefenseManager) state() *DefenseState {
	st := m.store.SafehouseDefense()
	st.Normalize()
	return st
}

// ActivateScenario creates or refreshes the scenario for alert. Escalation
// tracks accumulate across activations. It returns the live scenario, or
// nil when alert has no id.
func (m *DefenseManager) ActivateScenario(alert *Alert, opts ActivateOptions) *Scenario {
	if alert == nil || strings.TrimSpace(alert.ID) == "" {
		return nil
	}
	st := m.state()
	now := m.Now().UnixMilli()

	shID := safehouseID(opts.Safehouse)
	if shID == "" {
		shID = alert.SafehouseID
	}
	heat := opts.HeatTier
	if heat == "" {
		heat = alert.HeatTier
	}
	tier := events.NormalizeCrackdownTier(heat)
	cooldown := opts.CooldownDays
	if cooldown <= 0 {
		cooldown = alert.CooldownDays
	}
	if cooldown <= 0 {
		cooldown = m.defaultCooldownDays
	}

	sc, ok := st.Scenarios[alert.ID]
	if !ok {
		sc = &Scenario{AlertID: alert.ID, StartedAt: now, History: []HistoryEntry{}}
		st.Scenarios[alert.ID] = sc
	}
	sc.SafehouseID = shID
	sc.Status = ScenarioActive
	sc.HeatTier = string(tier)
	sc.CooldownDays = cooldown
	sc.UpdatedAt = now
	sc.ResolvedAt = nil
	sc.Layout = BuildLayout(opts.Safehouse, st.Layouts[shID], m.Now())
	if sc.Layout.SafehouseID == "" {
		sc.Layout.SafehouseID = shID
	}
	sc.Tracks = accumulateTracks(sc.Tracks, tier)
	sc.Actions = BuildRecommendedActions(sc.Layout, sc.Tracks)
	if sc.History == nil {
		sc.History = []HistoryEntry{}
	}

	alert.Status = AlertActive
	return sc
}

// Scenario returns the live scenario for alertID, or nil.
func (m *DefenseManager) Scenario(alertID string) *Scenario {
	return m.state().Scenarios[alertID]
}

// ScenarioSummaryLines renders a scenario as short display lines. It returns
// an empty slice for unknown alerts.
func (m *DefenseManager) ScenarioSummaryLines(alertID string) []string {
	sc := m.Scenario(alertID)
	if sc == nil {
		return []string{}
	}
	lines := []string{fmt.Sprintf("Status: %s (heat %s, cooldown %dd)", sc.Status, orDash(sc.HeatTier), sc.CooldownDays)}
	if sc.Layout != nil {
		for _, z := range sc.Layout.Zones {
			lines = append(lines, fmt.Sprintf("Zone %s: defense %d, %d facilities", z.Label, z.DefenseScore, len(z.FacilityIDs)))
		}
		if n := len(sc.Layout.UnassignedFacilityIDs); n > 0 {
			lines = append(lines, fmt.Sprintf("Unassigned: %s", strings.Join(sc.Layout.UnassignedFacilityIDs, ", ")))
		}
	}
	for _, t := range sc.Tracks {
		lines = append(lines, fmt.Sprintf("%s: %d/%d (%s)", t.Label, t.Value, t.Max, t.Status))
	}
	for _, a := range sc.Actions {
		lines = append(lines, "Recommended: "+a.Label)
	}
	if n := len(sc.History); n > 0 {
		last := sc.History[n-1]
		lines = append(lines, fmt.Sprintf("Last resolution: %s", orDash(last.Summary)))
	}
	return lines
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RecordResolution moves the scenario for alert to cooldown and records the
// chosen response. Calling it again with the same ResolvedAt updates the
// existing history entry. It returns nil when no scenario exists.
func (m *DefenseManager) RecordResolution(alert *Alert, choice events.Choice, opts ResolutionOptions) *Scenario {
	if alert == nil || strings.TrimSpace(alert.ID) == "" {
		return nil
	}
	st := m.state()
	sc, ok := st.Scenarios[alert.ID]
	if !ok {
		return nil
	}
	resolved := opts.ResolvedAt
	if resolved.IsZero() {
		resolved = m.Now()
	}
	at := resolved.UnixMilli()
	summary := opts.Summary
	if summary == "" {
		summary = choice.Narrative
	}
	if summary == "" {
		summary = choice.Label
	}
	entry := HistoryEntry{
		AlertID:     alert.ID,
		SafehouseID: sc.SafehouseID,
		ChoiceID:    choice.ID,
		Summary:     summary,
		ResolvedAt:  at,
	}

	repeat := false
	for i := range sc.History {
		if sc.History[i].ResolvedAt == at {
			sc.History[i] = entry
			repeat = true
		}
	}
	if !repeat {
		sc.History = append(sc.History, entry)
		if len(sc.History) > maxScenarioHistory {
			sc.History = sc.History[len(sc.History)-maxScenarioHistory:]
		}
		sc.Tracks = stabilizeTracks(sc.Tracks)
	}

	globalRepeat := false
	for i := range st.History {
		if st.History[i].AlertID == alert.ID && st.History[i].ResolvedAt == at {
			st.History[i] = entry
			globalRepeat = true
		}
	}
	if !globalRepeat {
		st.History = append(st.History, entry)
		if len(st.History) > maxDefenseHistory {
			st.History = st.History[len(st.History)-maxDefenseHistory:]
		}
	}

	sc.Status = ScenarioCooldown
	sc.ResolvedAt = &at
	sc.UpdatedAt = at
	sc.Actions = BuildRecommendedActions(sc.Layout, sc.Tracks)

	alert.Status = AlertCooldown
	if d := choice.Effects.FacilityDowntime; d != nil && d.DurationDays > sc.CooldownDays {
		sc.CooldownDays = d.DurationDays
	}
	alert.CooldownDays = sc.CooldownDays
	return sc
}

// SaveCustomLayout stores a player-edited layout for its safehouse. Later
// activations reconcile against it. It returns the stored copy.
func (m *DefenseManager) SaveCustomLayout(layout *Layout) *Layout {
	if layout == nil || strings.TrimSpace(layout.SafehouseID) == "" {
		return nil
	}
	st := m.state()
	stored := layout.Clone()
	stored.SafehouseID = strings.TrimSpace(layout.SafehouseID)
	stored.Source = SourceCustom
	stored.UpdatedAt = m.Now().UnixMilli()
	st.Layouts[stored.SafehouseID] = stored
	return stored.Clone()
}
