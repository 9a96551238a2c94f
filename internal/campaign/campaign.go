// Package campaign ties the engine services to one running campaign: it
// owns the game state, routes player decisions to the right service and
// journals every outcome.
package campaign

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"heist-engine/internal/config"
	"heist-engine/internal/crew"
	"heist-engine/internal/events"
	"heist-engine/internal/gamestate"
	"heist-engine/internal/journal"
	"heist-engine/internal/safehouse"
	"heist-engine/internal/scenario"
)

var (
	ErrUnknownMission = errors.New("unknown mission")
	ErrUnknownAlert   = errors.New("unknown alert")
	ErrUnknownChoice  = errors.New("unknown choice")
	ErrUnknownEvent   = errors.New("unknown relationship event")
	ErrUnknownCrew    = errors.New("unknown crew member")
	ErrUnknownStep    = errors.New("unknown storyline step")
	ErrAlertCooling   = errors.New("alert already resolved")
)

// Campaign is safe for concurrent use.
type Campaign struct {
	mu sync.Mutex

	id        string
	seed      *scenario.Scenario
	state     *gamestate.State
	safehouse *safehouse.Record
	heatTier  string

	decks     *events.DeckBuilder
	rel       *crew.RelationshipService
	defense   *safehouse.DefenseManager
	relConfig crew.RelationshipConfig
	cooldown  int

	drawn      map[string]events.Deck
	alerts     map[string]*safehouse.Alert
	incursions map[string]events.Definition

	writer journal.Writer
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New starts a campaign from seed. A nil cfg uses config.Default, a nil
// writer discards journal rows and a nil log uses slog.Default.
func New(id string, seed *scenario.Scenario, cfg *config.EngineConfig, w journal.Writer, log *slog.Logger) (*Campaign, error) {
	if seed == nil {
		return nil, errors.New("campaign: nil scenario")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	var table []events.Definition
	if cfg.EventTable != "" {
		t, err := events.LoadTable(cfg.EventTable)
		if err != nil {
			return nil, fmt.Errorf("campaign: %w", err)
		}
		table = t
	}
	if w == nil {
		w = journal.Discard{}
	}
	if log == nil {
		log = slog.Default()
	}
	sh := seed.Safehouse
	c := &Campaign{
		id:         id,
		seed:       seed,
		safehouse:  &sh,
		heatTier:   seed.HeatTier,
		decks:      events.NewDeckBuilder(table),
		relConfig:  cfg.RelationshipConfig(),
		cooldown:   cfg.Defense.CooldownDays,
		drawn:      map[string]events.Deck{},
		alerts:     map[string]*safehouse.Alert{},
		incursions: map[string]events.Definition{},
		writer:     w,
		log:        log.With("campaign_id", id),
		now:        time.Now,
	}
	c.attach(seed.NewState())
	return c, nil
}

// attach binds the services to st. Callers hold mu or own c exclusively.
func (c *Campaign) attach(st *gamestate.State) {
	c.state = st
	c.rel = crew.NewRelationshipService(st, c.relConfig)
	c.rel.Now = c.clock
	if c.newID != nil {
		c.rel.NewID = c.newID
	}
	c.defense = safehouse.NewDefenseManager(st, c.cooldown)
	c.defense.Now = c.clock
}

func (c *Campaign) clock() time.Time { return c.now() }

// SetClock replaces the campaign clock.
func (c *Campaign) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// SetIDGenerator replaces the relationship event id source.
func (c *Campaign) SetIDGenerator(next func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.newID = next
	c.rel.NewID = next
}

// ID returns the campaign id.
func (c *Campaign) ID() string { return c.id }

// Scenario returns the seed the campaign started from.
func (c *Campaign) Scenario() *scenario.Scenario { return c.seed }

// HeatTier returns the current city heat tier.
func (c *Campaign) HeatTier() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heatTier
}

// SetHeatTier changes the city heat tier used for incursions.
func (c *Campaign) SetHeatTier(tier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heatTier = tier
	c.log.Info("heat tier changed", "heat_tier", tier)
}

// Funds returns the current balance.
func (c *Campaign) Funds() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Funds
}

// Member returns a copy of a crew member.
func (c *Campaign) Member(id string) (crew.Member, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.state.Member(id)
	if !ok {
		return crew.Member{}, false
	}
	out := *m
	out.Traits = maps.Clone(m.Traits)
	out.Perks = slices.Clone(m.Perks)
	out.Affinity = maps.Clone(m.Affinity)
	out.StoryProgress.CompletedSteps = slices.Clone(m.StoryProgress.CompletedSteps)
	return out, true
}

// DrawDeck builds and journals the event deck for a seeded mission.
func (c *Campaign) DrawDeck(missionID string) (events.Deck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.seed.Mission(missionID)
	if !ok {
		return nil, fmt.Errorf("draw deck %q: %w", missionID, ErrUnknownMission)
	}
	deck := c.decks.Build(m)
	c.drawn[missionID] = deck
	c.log.Info("deck drawn", "mission_id", missionID, "events", len(deck))
	if err := journal.WriteEvents(c.writer, journal.DeckRows(c.id, missionID, deck, c.now())); err != nil {
		c.log.Error("journal deck", "mission_id", missionID, "err", err)
	}
	return cloneDeck(deck), nil
}

// Deck returns the last deck drawn for a mission.
func (c *Campaign) Deck(missionID string) (events.Deck, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drawn[missionID]
	if !ok {
		return nil, false
	}
	return cloneDeck(d), true
}

func cloneDeck(d events.Deck) events.Deck {
	out := make(events.Deck, len(d))
	for i, cand := range d {
		cand.Definition = cand.Definition.Clone()
		out[i] = cand
	}
	return out
}

// TriggerIncursions generates incursion alerts for the safehouse, activates
// a defense scenario for each and journals them. missionID may be empty.
func (c *Campaign) TriggerIncursions(missionID string) (safehouse.IncursionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var mission *events.Mission
	if missionID != "" {
		m, ok := c.seed.Mission(missionID)
		if !ok {
			return safehouse.IncursionResult{}, fmt.Errorf("trigger incursions %q: %w", missionID, ErrUnknownMission)
		}
		mission = &m
	}
	res := safehouse.BuildSafehouseIncursionEvents(mission, safehouse.IncursionContext{
		Safehouse: c.safehouse,
		HeatTier:  c.heatTier,
		Now:       c.now(),
	})
	for i := range res.Alerts {
		alert := res.Alerts[i]
		c.defense.ActivateScenario(&alert, safehouse.ActivateOptions{Safehouse: c.safehouse, HeatTier: c.heatTier})
		c.alerts[alert.ID] = &alert
		res.Alerts[i] = alert
		c.log.Warn("safehouse incursion", "alert_id", alert.ID, "severity", alert.Severity)
	}
	for _, ev := range res.Events {
		c.incursions[ev.SafehouseAlertID] = ev.Clone()
	}
	if err := journal.WriteAlerts(c.writer, journal.AlertRows(c.id, res.Alerts)); err != nil {
		c.log.Error("journal alerts", "err", err)
	}
	return res, nil
}

// Alerts returns copies of every known alert ordered by id.
func (c *Campaign) Alerts() []safehouse.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]safehouse.Alert, 0, len(c.alerts))
	for _, a := range c.alerts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IncursionEvent returns the event paired with an alert.
func (c *Campaign) IncursionEvent(alertID string) (events.Definition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.incursions[alertID]
	if !ok {
		return events.Definition{}, false
	}
	return ev.Clone(), true
}

// ResolveIncursion applies the player's response to an alert, moves its
// scenario to cooldown and journals the decision.
func (c *Campaign) ResolveIncursion(alertID, choiceID string) (*safehouse.Scenario, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	alert, ok := c.alerts[alertID]
	if !ok {
		return nil, fmt.Errorf("resolve incursion %q: %w", alertID, ErrUnknownAlert)
	}
	if alert.Status == safehouse.AlertCooldown {
		return nil, fmt.Errorf("resolve incursion %q: %w", alertID, ErrAlertCooling)
	}
	choice, ok := c.incursions[alertID].Choice(choiceID)
	if !ok {
		return nil, fmt.Errorf("resolve incursion %q choice %q: %w", alertID, choiceID, ErrUnknownChoice)
	}
	at := c.now()
	sc := c.defense.RecordResolution(alert, choice, safehouse.ResolutionOptions{ResolvedAt: at})
	if sc == nil {
		return nil, fmt.Errorf("resolve incursion %q: %w", alertID, ErrUnknownAlert)
	}
	if choice.Effects.FundsDelta != 0 {
		c.state.AdjustFunds(choice.Effects.FundsDelta)
	}
	c.log.Info("incursion resolved", "alert_id", alertID, "choice_id", choiceID, "cooldown_days", sc.CooldownDays)

	summary := sc.History[len(sc.History)-1].Summary
	row := journal.NewResolutionRow(c.id, journal.ResolvedIncursion, alertID, choiceID, summary, at)
	row.Deltas = journal.EffectDeltas(choice.Effects)
	c.journalResolution(row)
	if err := c.writer.WriteAlert(journal.AlertRows(c.id, []safehouse.Alert{*alert})[0]); err != nil {
		c.log.Error("journal alert", "alert_id", alertID, "err", err)
	}
	return cloneScenario(sc), nil
}

// DefenseScenario returns a copy of an alert's defense scenario and its
// summary lines.
func (c *Campaign) DefenseScenario(alertID string) (*safehouse.Scenario, []string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc := c.defense.Scenario(alertID)
	if sc == nil {
		return nil, nil, false
	}
	return cloneScenario(sc), c.defense.ScenarioSummaryLines(alertID), true
}

// SaveLayout stores a custom defense layout for the campaign safehouse.
func (c *Campaign) SaveLayout(layout *safehouse.Layout) *safehouse.Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	if layout != nil && layout.SafehouseID == "" {
		layout = layout.Clone()
		layout.SafehouseID = c.safehouse.ID()
	}
	return c.defense.SaveCustomLayout(layout)
}

func cloneScenario(sc *safehouse.Scenario) *safehouse.Scenario {
	out := *sc
	out.Layout = sc.Layout.Clone()
	if sc.ResolvedAt != nil {
		at := *sc.ResolvedAt
		out.ResolvedAt = &at
	}
	out.Tracks = slices.Clone(sc.Tracks)
	out.Actions = slices.Clone(sc.Actions)
	out.History = slices.Clone(sc.History)
	return &out
}

// RecordChemistry reports a crew's chemistry after a mission. It returns the
// fired relationship event, or nil.
func (c *Campaign) RecordChemistry(missionID string, crewIDs []string, profile crew.ChemistryProfile) *crew.EventView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordChemistry(missionID, crewIDs, profile)
}

func (c *Campaign) recordChemistry(missionID string, crewIDs []string, profile crew.ChemistryProfile) *crew.EventView {
	in := crew.ChemistryInput{CrewIDs: crewIDs, CrewMembers: c.state.Roster(), Profile: profile}
	if m, ok := c.seed.Mission(missionID); ok {
		in.Mission = &m
	}
	ev := c.rel.RecordChemistryMilestones(in)
	if ev != nil {
		c.log.Info("relationship event", "event_id", ev.ID, "band", ev.Band, "team", ev.TeamKey)
	}
	return ev
}

// PlayBeats replays the scenario's scripted chemistry beats for a mission
// and returns the events they fired.
func (c *Campaign) PlayBeats(missionID string) []crew.EventView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []crew.EventView{}
	for _, b := range c.seed.BeatsFor(missionID) {
		if ev := c.recordChemistry(missionID, b.CrewIDs, b.Profile()); ev != nil {
			out = append(out, *ev)
		}
	}
	return out
}

// PendingRelationshipEvents lists queued relationship events.
func (c *Campaign) PendingRelationshipEvents() []crew.EventView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rel.PendingEvents()
}

// ResolveRelationshipEvent applies a choice to a pending relationship event.
func (c *Campaign) ResolveRelationshipEvent(eventID, choiceID string) (*crew.Resolution, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.rel.PendingEvents()
	i := slices.IndexFunc(pending, func(ev crew.EventView) bool { return ev.ID == eventID })
	if i < 0 {
		return nil, fmt.Errorf("resolve %q: %w", eventID, ErrUnknownEvent)
	}
	if !slices.ContainsFunc(pending[i].Choices, func(ch events.Choice) bool { return ch.ID == choiceID }) {
		return nil, fmt.Errorf("resolve %q choice %q: %w", eventID, choiceID, ErrUnknownChoice)
	}
	res := c.rel.ResolveEventChoice(eventID, choiceID)
	if res == nil {
		return nil, fmt.Errorf("resolve %q choice %q: %w", eventID, choiceID, ErrUnknownEvent)
	}
	c.log.Info("relationship resolved", "event_id", eventID, "choice_id", choiceID, "funds", res.FundsAfter)
	row := journal.NewResolutionRow(c.id, journal.ResolvedRelationship, eventID, choiceID, res.Summary, c.now())
	addDelta(row.Deltas, "loyalty", float64(res.LoyaltyDelta))
	addDelta(row.Deltas, "affinity", float64(res.AffinityDelta))
	addDelta(row.Deltas, "funds", res.FundsDelta)
	c.journalResolution(row)
	return res, nil
}

// Storylines lists the loyalty missions the crew can take on.
func (c *Campaign) Storylines() []crew.MissionTemplate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return crew.GetAvailableCrewStorylineMissions(c.state.Roster())
}

// ResolveStoryline applies a storyline step outcome to a crew member.
func (c *Campaign) ResolveStoryline(crewID, stepID, outcome string) (*crew.StorylineResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.state.Member(crewID)
	if !ok {
		return nil, fmt.Errorf("resolve storyline for %q: %w", crewID, ErrUnknownCrew)
	}
	res := crew.ApplyCrewStorylineOutcome(m, stepID, outcome)
	if res == nil {
		return nil, fmt.Errorf("resolve storyline step %q: %w", stepID, ErrUnknownStep)
	}
	c.log.Info("storyline resolved", "crew_id", crewID, "step_id", stepID, "success", res.Success)
	row := journal.NewResolutionRow(c.id, journal.ResolvedStoryline, crewID, stepID, res.Summary, c.now())
	addDelta(row.Deltas, "loyalty", float64(res.LoyaltyDelta))
	for trait, d := range res.TraitBoosts {
		addDelta(row.Deltas, "trait:"+trait, float64(d))
	}
	c.journalResolution(row)
	return res, nil
}

func addDelta(m map[string]float64, k string, v float64) {
	if v != 0 {
		m[k] = v
	}
}

func (c *Campaign) journalResolution(row journal.ResolutionRow) {
	if err := c.writer.WriteResolution(row); err != nil {
		c.log.Error("journal resolution", "kind", row.Kind, "subject_id", row.SubjectID, "err", err)
	}
}

// Snapshot encodes the game state as a save blob.
func (c *Campaign) Snapshot() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(c.state)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return b, nil
}

// Restore replaces the game state with a decoded save blob. Malformed
// subsystem blocks fall back to their empty shape.
func (c *Campaign) Restore(data []byte) error {
	st, err := gamestate.Decode(data)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attach(st)
	c.alerts = map[string]*safehouse.Alert{}
	c.incursions = map[string]events.Definition{}
	c.log.Info("state restored", "funds", st.Funds, "crew", len(st.Crew))
	return nil
}
