package campaign

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"heist-engine/internal/crew"
	"heist-engine/internal/journal"
	"heist-engine/internal/logging"
	"heist-engine/internal/safehouse"
	"heist-engine/internal/scenario"
)

type recordingWriter struct {
	mu          sync.Mutex
	events      []journal.EventRow
	alerts      []journal.AlertRow
	resolutions []journal.ResolutionRow
}

func (w *recordingWriter) WriteEvent(r journal.EventRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, r)
	return nil
}

func (w *recordingWriter) WriteAlert(r journal.AlertRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alerts = append(w.alerts, r)
	return nil
}

func (w *recordingWriter) WriteResolution(r journal.ResolutionRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resolutions = append(w.resolutions, r)
	return nil
}

type failingWriter struct{}

func (failingWriter) WriteEvent(journal.EventRow) error           { return errors.New("down") }
func (failingWriter) WriteAlert(journal.AlertRow) error           { return errors.New("down") }
func (failingWriter) WriteResolution(journal.ResolutionRow) error { return errors.New("down") }

var fixedNow = time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)

func newHarbor(t *testing.T, w journal.Writer) *Campaign {
	t.Helper()
	seed := scenario.BuiltIn()["harbor-job"]
	c, err := New("test", &seed, nil, w, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.SetClock(func() time.Time { return fixedNow })
	n := 0
	c.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("rel-%d", n)
	})
	return c
}

func TestNewRejectsNilScenario(t *testing.T) {
	if _, err := New("x", nil, nil, nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDrawDeckJournalsRows(t *testing.T) {
	w := &recordingWriter{}
	c := newHarbor(t, w)

	deck, err := c.DrawDeck("customs-vault")
	if err != nil {
		t.Fatalf("DrawDeck: %v", err)
	}
	if len(deck) == 0 {
		t.Fatalf("expected a non-empty deck")
	}
	if len(w.events) != len(deck) {
		t.Fatalf("journaled %d rows for %d events", len(w.events), len(deck))
	}
	for i, r := range w.events {
		if r.Position != i || r.MissionID != "customs-vault" || r.CampaignID != "test" {
			t.Fatalf("row %d: %+v", i, r)
		}
	}
	again, ok := c.Deck("customs-vault")
	if !ok || len(again) != len(deck) || again[0].ID != deck[0].ID {
		t.Fatalf("Deck did not return the drawn deck")
	}
	if _, err := c.DrawDeck("nope"); !errors.Is(err, ErrUnknownMission) {
		t.Fatalf("expected ErrUnknownMission, got %v", err)
	}
}

func TestIncursionLifecycle(t *testing.T) {
	w := &recordingWriter{}
	c := newHarbor(t, w)

	res, err := c.TriggerIncursions("")
	if err != nil {
		t.Fatalf("TriggerIncursions: %v", err)
	}
	if len(res.Alerts) != 2 || len(res.Events) != 2 {
		t.Fatalf("expected facility and heat alerts, got %d/%d", len(res.Alerts), len(res.Events))
	}
	if len(w.alerts) != 2 {
		t.Fatalf("expected 2 journaled alerts, got %d", len(w.alerts))
	}

	armory := safehouse.AlertID("dockside-warehouse", "armory-raid")
	sc, lines, ok := c.DefenseScenario(armory)
	if !ok || sc.Status != safehouse.ScenarioActive || len(lines) == 0 {
		t.Fatalf("expected active scenario, got %+v", sc)
	}
	if !strings.HasPrefix(lines[0], "Status: active") {
		t.Fatalf("unexpected summary %q", lines[0])
	}

	if _, err := c.ResolveIncursion(armory, "nope"); !errors.Is(err, ErrUnknownChoice) {
		t.Fatalf("expected ErrUnknownChoice, got %v", err)
	}
	if _, err := c.ResolveIncursion("missing", "move-weapons"); !errors.Is(err, ErrUnknownAlert) {
		t.Fatalf("expected ErrUnknownAlert, got %v", err)
	}

	sc, err = c.ResolveIncursion(armory, "move-weapons")
	if err != nil {
		t.Fatalf("ResolveIncursion: %v", err)
	}
	if sc.Status != safehouse.ScenarioCooldown || sc.ResolvedAt == nil || len(sc.History) != 1 {
		t.Fatalf("unexpected scenario after resolve: %+v", sc)
	}
	for _, a := range c.Alerts() {
		if a.ID == armory && a.Status != safehouse.AlertCooldown {
			t.Fatalf("alert not moved to cooldown: %+v", a)
		}
	}
	if len(w.resolutions) != 1 || w.resolutions[0].Kind != journal.ResolvedIncursion || w.resolutions[0].Deltas["downtime_days"] != 3 {
		t.Fatalf("unexpected resolution rows: %+v", w.resolutions)
	}
	if last := w.alerts[len(w.alerts)-1]; last.AlertID != armory || last.Status != "cooldown" {
		t.Fatalf("cooldown alert not journaled: %+v", last)
	}

	stakeout := safehouse.AlertID("dockside-warehouse", "heat-stakeout")
	if _, err := c.ResolveIncursion(stakeout, "grease-precinct"); err != nil {
		t.Fatalf("ResolveIncursion stakeout: %v", err)
	}
	if got := c.Funds(); got != 10500 {
		t.Fatalf("funds = %v, want 10500", got)
	}
}

func TestResolveIncursionOnlyOnce(t *testing.T) {
	w := &recordingWriter{}
	c := newHarbor(t, w)
	if _, err := c.TriggerIncursions(""); err != nil {
		t.Fatalf("TriggerIncursions: %v", err)
	}
	stakeout := safehouse.AlertID("dockside-warehouse", "heat-stakeout")
	if _, err := c.ResolveIncursion(stakeout, "grease-precinct"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	c.SetClock(func() time.Time { return fixedNow.Add(time.Minute) })
	if _, err := c.ResolveIncursion(stakeout, "grease-precinct"); !errors.Is(err, ErrAlertCooling) {
		t.Fatalf("expected ErrAlertCooling, got %v", err)
	}
	if got := c.Funds(); got != 10500 {
		t.Fatalf("funds = %v, want a single charge to 10500", got)
	}
	sc, _, _ := c.DefenseScenario(stakeout)
	if len(sc.History) != 1 || len(w.resolutions) != 1 {
		t.Fatalf("expected one history entry and one row, got %d/%d", len(sc.History), len(w.resolutions))
	}

	// A fresh trigger reopens the alert.
	if _, err := c.TriggerIncursions(""); err != nil {
		t.Fatalf("TriggerIncursions: %v", err)
	}
	if _, err := c.ResolveIncursion(stakeout, "lay-low"); err != nil {
		t.Fatalf("resolve after retrigger: %v", err)
	}
}

func TestIncursionsEscalateAcrossTriggers(t *testing.T) {
	c := newHarbor(t, nil)
	c.SetHeatTier("lockdown")
	if c.HeatTier() != "lockdown" {
		t.Fatalf("heat tier not updated")
	}
	if _, err := c.TriggerIncursions("customs-vault"); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	if _, err := c.TriggerIncursions("customs-vault"); err != nil {
		t.Fatalf("second trigger: %v", err)
	}
	raid := safehouse.AlertID("dockside-warehouse", "heat-raid")
	sc, _, ok := c.DefenseScenario(raid)
	if !ok {
		t.Fatalf("raid scenario missing")
	}
	if sc.Tracks[0].Value != 6 {
		t.Fatalf("expected perimeter pressure to accumulate to 6, got %d", sc.Tracks[0].Value)
	}
	if _, err := c.TriggerIncursions("ghost"); !errors.Is(err, ErrUnknownMission) {
		t.Fatalf("expected ErrUnknownMission, got %v", err)
	}
}

func TestRelationshipFlow(t *testing.T) {
	w := &recordingWriter{}
	c := newHarbor(t, w)

	fired := c.PlayBeats("container-swap")
	if len(fired) != 1 || fired[0].ID != "rel-1" || fired[0].Band != crew.BandSynergy {
		t.Fatalf("unexpected beats: %+v", fired)
	}
	if again := c.PlayBeats("container-swap"); len(again) != 0 {
		t.Fatalf("repeat beat should not fire without a transition")
	}
	if pending := c.PendingRelationshipEvents(); len(pending) != 1 {
		t.Fatalf("expected 1 pending event, got %d", len(pending))
	}

	if _, err := c.ResolveRelationshipEvent("rel-1", "shrug"); !errors.Is(err, ErrUnknownChoice) {
		t.Fatalf("expected ErrUnknownChoice, got %v", err)
	}
	if pending := c.PendingRelationshipEvents(); len(pending) != 1 {
		t.Fatalf("unknown choice must leave the event pending, got %d", len(pending))
	}

	res, err := c.ResolveRelationshipEvent("rel-1", "celebrate")
	if err != nil {
		t.Fatalf("ResolveRelationshipEvent: %v", err)
	}
	if res.FundsAfter != 11500 || c.Funds() != 11500 {
		t.Fatalf("funds after = %v", res.FundsAfter)
	}
	vega, _ := c.Member("vega")
	if vega.Loyalty != 3 || vega.Affinity["moss"] != 1 {
		t.Fatalf("unexpected vega: %+v", vega)
	}
	vega.Traits["driving"] = 99
	vega.Affinity["moss"] = 99
	vega.Perks = append(vega.Perks, "Borrowed")
	if again, _ := c.Member("vega"); again.Traits["driving"] != 3 || again.Affinity["moss"] != 1 || len(again.Perks) != 0 {
		t.Fatalf("Member should return a detached copy, got %+v", again)
	}
	if _, err := c.ResolveRelationshipEvent("rel-1", "celebrate"); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
	if len(w.resolutions) != 1 || w.resolutions[0].Deltas["funds"] != -500 {
		t.Fatalf("unexpected resolution rows: %+v", w.resolutions)
	}

	ev := c.RecordChemistry("customs-vault", []string{"hale", "moss"}, crew.ChemistryProfile{Band: crew.BandStrain, EnteredStrainBand: true})
	if ev == nil || ev.MissionID != "customs-vault" {
		t.Fatalf("expected strain event tied to mission, got %+v", ev)
	}
}

func TestStorylineFlow(t *testing.T) {
	w := &recordingWriter{}
	c := newHarbor(t, w)

	offered := map[string]string{}
	for _, m := range c.Storylines() {
		offered[m.CrewID] = m.StepID
	}
	if offered["moss"] != "ghost-handle" || offered["vega"] != "pink-slip" || offered["hale"] != "burned-badge" {
		t.Fatalf("unexpected offers: %v", offered)
	}

	res, err := c.ResolveStoryline("moss", "ghost-handle", crew.OutcomeSuccess)
	if err != nil {
		t.Fatalf("ResolveStoryline: %v", err)
	}
	if !res.Success || res.TraitBoosts["tech"] != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, m := range c.Storylines() {
		if m.CrewID == "moss" && m.StepID == "ghost-handle" {
			t.Fatalf("completed step offered again")
		}
	}
	if w.resolutions[0].Kind != journal.ResolvedStoryline || w.resolutions[0].Deltas["trait:tech"] != 1 {
		t.Fatalf("unexpected row: %+v", w.resolutions[0])
	}

	if _, err := c.ResolveStoryline("ghost", "ghost-handle", "success"); !errors.Is(err, ErrUnknownCrew) {
		t.Fatalf("expected ErrUnknownCrew, got %v", err)
	}
	if _, err := c.ResolveStoryline("moss", "last-run", "success"); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
}

func TestJournalFailuresDoNotBreakGameLogic(t *testing.T) {
	c := newHarbor(t, failingWriter{})
	if _, err := c.DrawDeck("container-swap"); err != nil {
		t.Fatalf("DrawDeck: %v", err)
	}
	if _, err := c.TriggerIncursions(""); err != nil {
		t.Fatalf("TriggerIncursions: %v", err)
	}
	if _, err := c.ResolveStoryline("moss", "ghost-handle", "success"); err != nil {
		t.Fatalf("ResolveStoryline: %v", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := newHarbor(t, nil)
	c.PlayBeats("container-swap")
	if _, err := c.TriggerIncursions(""); err != nil {
		t.Fatalf("TriggerIncursions: %v", err)
	}
	data, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	other := newHarbor(t, nil)
	if err := other.Restore(data); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(other.PendingRelationshipEvents()) != 1 {
		t.Fatalf("pending events not restored")
	}
	if _, _, ok := other.DefenseScenario(safehouse.AlertID("dockside-warehouse", "armory-raid")); !ok {
		t.Fatalf("defense scenario not restored")
	}
	if err := other.Restore([]byte("[]")); err == nil {
		t.Fatalf("expected error for non-object save")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := newHarbor(t, &recordingWriter{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.DrawDeck("container-swap")
			_, _ = c.TriggerIncursions("")
			_ = c.Storylines()
			_, _ = c.Snapshot()
		}()
	}
	wg.Wait()
}
