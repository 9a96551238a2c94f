package crew

import (
	"fmt"
	"testing"
	"time"
)

type testStore struct {
	rel    *RelationshipState
	roster []Record
	funds  float64
}

func (s *testStore) RelationshipEvents() *RelationshipState {
	if s.rel == nil {
		s.rel = NewRelationshipState()
	}
	return s.rel
}

func (s *testStore) Roster() []Record { return s.roster }

func (s *testStore) AdjustFunds(delta float64) float64 {
	s.funds = max(s.funds+delta, 0)
	return s.funds
}

// hookedMember records hook calls instead of letting the engine mutate fields.
type hookedMember struct {
	Member
	loyaltyCalls  []int
	affinityCalls map[string]int
	perks         []string
	steps         []string
}

func (h *hookedMember) CrewMember() *Member { return &h.Member }
func (h *hookedMember) AdjustLoyalty(delta int) {
	h.loyaltyCalls = append(h.loyaltyCalls, delta)
	h.Loyalty += delta
}
func (h *hookedMember) AdjustAffinityForCrewmate(peerID string, delta int) {
	if h.affinityCalls == nil {
		h.affinityCalls = map[string]int{}
	}
	h.affinityCalls[peerID] += delta
}
func (h *hookedMember) AddPerk(perk string) {
	h.perks = append(h.perks, perk)
	h.Perks = append(h.Perks, perk)
}
func (h *hookedMember) MarkStoryStepComplete(id string) {
	h.steps = append(h.steps, id)
	h.StoryProgress.CompletedSteps = append(h.StoryProgress.CompletedSteps, id)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(store *testStore, c *clock) *RelationshipService {
	s := NewRelationshipService(store, RelationshipConfig{})
	s.Now = c.now
	n := 0
	s.NewID = func() string {
		n++
		return fmt.Sprintf("rel-%d", n)
	}
	return s
}

func synergy() ChemistryProfile {
	return ChemistryProfile{Band: BandSynergy, EnteredSynergyBand: true}
}

func TestTeamKey(t *testing.T) {
	if got, want := TeamKey([]string{"Vex", " ada ", "vex"}), "ada|vex"; got != want {
		t.Fatalf("TeamKey = %q, want %q", got, want)
	}
	if TeamKey([]string{"b", "a"}) != TeamKey([]string{"a", "b"}) {
		t.Fatalf("TeamKey should not depend on order")
	}
	for _, ids := range [][]string{nil, {"solo"}, {"solo", " SOLO "}, {"", " "}} {
		if TeamKey(ids) != "" {
			t.Fatalf("expected empty key for %v", ids)
		}
	}
}

func TestRecordChemistryMilestones_Cooldown(t *testing.T) {
	store := &testStore{}
	c := &clock{t: time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)}
	s := newService(store, c)
	in := ChemistryInput{CrewIDs: []string{"ada", "vex"}, Profile: synergy()}

	first := s.RecordChemistryMilestones(in)
	if first == nil || first.Band != BandSynergy || first.TeamKey != "ada|vex" {
		t.Fatalf("expected synergy event, got %+v", first)
	}
	if got := store.rel.CooldownByKey["ada|vex:synergy"]; got != c.t.UnixMilli() {
		t.Fatalf("cooldown not recorded at fire time: %d", got)
	}

	c.t = c.t.Add(time.Hour)
	s.RecordChemistryMilestones(ChemistryInput{CrewIDs: in.CrewIDs, Profile: ChemistryProfile{Band: BandNeutral}})
	c.t = c.t.Add(time.Hour)
	if again := s.RecordChemistryMilestones(in); again != nil {
		t.Fatalf("expected cooldown to block second event, got %+v", again)
	}

	c.t = c.t.Add(17 * time.Hour)
	s.RecordChemistryMilestones(ChemistryInput{CrewIDs: in.CrewIDs, Profile: ChemistryProfile{Band: BandNeutral}})
	if later := s.RecordChemistryMilestones(in); later == nil {
		t.Fatalf("expected event after cooldown lapsed")
	}
	if n := len(s.PendingEvents()); n != 2 {
		t.Fatalf("expected 2 pending events, got %d", n)
	}
}

func TestRecordChemistryMilestones_RequiresTransitionAndFlag(t *testing.T) {
	s := newService(&testStore{}, &clock{t: time.Now()})
	if s.RecordChemistryMilestones(ChemistryInput{CrewIDs: []string{"solo"}, Profile: synergy()}) != nil {
		t.Fatalf("solo crew should never fire")
	}
	if s.RecordChemistryMilestones(ChemistryInput{CrewIDs: []string{"a", "b"}, Profile: ChemistryProfile{Band: BandStrain}}) != nil {
		t.Fatalf("strain without milestone flag should not fire")
	}
	if s.RecordChemistryMilestones(ChemistryInput{CrewIDs: []string{"a", "b"}, Profile: ChemistryProfile{Band: BandStrain, EnteredStrainBand: true}}) != nil {
		t.Fatalf("staying in strain is not a transition")
	}
}

func TestRecordChemistryMilestones_PendingCapAndIsolation(t *testing.T) {
	store := &testStore{}
	s := newService(store, &clock{t: time.Now()})
	var last *EventView
	for i := range 10 {
		last = s.RecordChemistryMilestones(ChemistryInput{CrewIDs: []string{"x", fmt.Sprintf("p%d", i)}, Profile: synergy()})
	}
	pending := s.PendingEvents()
	if len(pending) != 8 || pending[0].ID != "rel-3" {
		t.Fatalf("expected oldest dropped, got %d starting at %s", len(pending), pending[0].ID)
	}
	last.Choices[0].Effects.CrewLoyaltyDelta = 42
	last.CrewIDs[0] = "mutated"
	stored := store.rel.Pending[len(store.rel.Pending)-1]
	if stored.Choices[0].Effects.CrewLoyaltyDelta == 42 || stored.CrewIDs[0] == "mutated" {
		t.Fatalf("returned view shares memory with stored event")
	}
}

func TestResolveEventChoice(t *testing.T) {
	ada := &Member{ID: "ada", Name: "Ada", Loyalty: 5}
	vex := &hookedMember{Member: Member{ID: "vex", Name: "Vex", Loyalty: 2}}
	store := &testStore{roster: []Record{ada, vex}, funds: 200}
	s := newService(store, &clock{t: time.Now()})

	ev := s.RecordChemistryMilestones(ChemistryInput{CrewIDs: []string{"vex", "ada", "ghost"}, CrewMembers: []Record{ada, vex}, Profile: synergy()})
	if ev == nil {
		t.Fatalf("expected event")
	}
	if s.ResolveEventChoice(ev.ID, "nope") != nil {
		t.Fatalf("unknown choice should yield nil")
	}
	res := s.ResolveEventChoice(ev.ID, "celebrate")
	if res == nil {
		t.Fatalf("expected resolution")
	}
	if len(res.AffectedCrewIDs) != 2 {
		t.Fatalf("unknown crew ids should be skipped, got %v", res.AffectedCrewIDs)
	}
	if ada.Loyalty != 5 {
		t.Fatalf("direct loyalty should clamp at 5, got %d", ada.Loyalty)
	}
	if len(vex.loyaltyCalls) != 1 || vex.Loyalty != 3 {
		t.Fatalf("expected loyalty hook call, got %v", vex.loyaltyCalls)
	}
	if ada.Affinity["vex"] != 1 || vex.affinityCalls["ada"] != 1 {
		t.Fatalf("expected pairwise affinity, got %v / %v", ada.Affinity, vex.affinityCalls)
	}
	if store.funds != 0 || res.FundsAfter != 0 {
		t.Fatalf("funds should clamp at zero, got %f", store.funds)
	}
	if s.ResolveEventChoice(ev.ID, "celebrate") != nil {
		t.Fatalf("second resolution should yield nil")
	}
	if len(store.rel.History) != 1 || len(store.rel.Pending) != 0 {
		t.Fatalf("unexpected state %+v", store.rel)
	}
}

func TestResolveEventChoice_ClearBand(t *testing.T) {
	store := &testStore{roster: []Record{&Member{ID: "a"}, &Member{ID: "b"}}, funds: 1000}
	s := newService(store, &clock{t: time.Now()})
	ev := s.RecordChemistryMilestones(ChemistryInput{CrewIDs: []string{"a", "b"}, Profile: ChemistryProfile{Band: BandStrain, EnteredStrainBand: true}})
	res := s.ResolveEventChoice(ev.ID, "mediate")
	if !res.BandReset || store.rel.LastBandByTeam["a|b"] != BandNeutral {
		t.Fatalf("mediate should reset the band")
	}
	if store.funds != 700 {
		t.Fatalf("expected funds 700, got %f", store.funds)
	}
}

func TestStorylines_Monotonic(t *testing.T) {
	m := &Member{ID: "ray", Name: "Ray", Loyalty: 1, Background: Background{ID: "wheelman"}}
	missions := GetAvailableCrewStorylineMissions([]Record{m})
	if len(missions) != 1 || missions[0].ID != "loyalty-ray-pink-slip" {
		t.Fatalf("unexpected missions %+v", missions)
	}
	if !missions[0].IgnoreCrackdownRestrictions || missions[0].Category != "crew-loyalty" {
		t.Fatalf("unexpected template %+v", missions[0])
	}

	res := ApplyCrewStorylineOutcome(m, "pink-slip", OutcomeSuccess)
	if res == nil || !res.Success || res.LoyaltyDelta != 1 || res.TraitBoosts["driving"] != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !m.HasCompleted("pink-slip") || m.Traits["driving"] != 1 {
		t.Fatalf("step not recorded: %+v", m)
	}
	for _, tmpl := range GetAvailableCrewStorylineMissions([]Record{m}) {
		if tmpl.StepID == "pink-slip" {
			t.Fatalf("completed step offered again")
		}
	}
	if got := GetAvailableCrewStorylineMissions([]Record{m}); len(got) != 0 {
		t.Fatalf("loyalty 2 should not unlock last-run, got %+v", got)
	}
}

func TestStorylines_FailureRetriesAndFallback(t *testing.T) {
	m := &Member{ID: "nia", Loyalty: 2, Background: Background{ID: "smuggler"}}
	res := ApplyCrewStorylineOutcome(m, "old-debts", "failure")
	if res == nil || res.Success || res.LoyaltyDelta != -1 || m.Loyalty != 1 {
		t.Fatalf("unexpected failure result %+v (loyalty %d)", res, m.Loyalty)
	}
	if m.HasCompleted("old-debts") || len(m.Traits) != 0 {
		t.Fatalf("failure must not complete the step or boost traits")
	}
	missions := GetAvailableCrewStorylineMissions([]Record{m, &Member{ID: "rookie", Loyalty: 0}})
	if len(missions) != 1 || missions[0].StepID != "old-debts" {
		t.Fatalf("expected retry offer only, got %+v", missions)
	}
	if ApplyCrewStorylineOutcome(m, "zero-day", OutcomeSuccess) != nil {
		t.Fatalf("step outside the member's storyline should yield nil")
	}
}

func TestStorylines_TemplateAndSummaries(t *testing.T) {
	m := &Member{ID: "ray", Name: "Ray", Loyalty: 1, Background: Background{ID: "wheelman"}}
	missions := GetAvailableCrewStorylineMissions([]Record{m})
	if len(missions) != 1 {
		t.Fatalf("expected one offer, got %+v", missions)
	}
	if missions[0].Heat != 2 || missions[0].Duration != 5 || missions[0].Payout != 4500 {
		t.Fatalf("template should carry step heat and duration, got %+v", missions[0])
	}

	res := ApplyCrewStorylineOutcome(m, "pink-slip", "failure")
	if res.Summary != "Ray lost the rematch and the car with it." {
		t.Fatalf("unexpected failure summary %q", res.Summary)
	}
	res = ApplyCrewStorylineOutcome(m, "pink-slip", OutcomeSuccess)
	if res.Summary != "Ray drove the car home with the pink slip on the dash." {
		t.Fatalf("unexpected success summary %q", res.Summary)
	}

	anon := &Member{ID: "kit", Loyalty: 2, Background: Background{ID: "hacker"}, Perks: []string{}}
	ApplyCrewStorylineOutcome(anon, "ghost-handle", OutcomeSuccess)
	res = ApplyCrewStorylineOutcome(anon, "zero-day", OutcomeSuccess)
	want := "kit left a quiet backdoor in the traffic grid. Perk unlocked: Grid Backdoor."
	if res.Summary != want {
		t.Fatalf("summary = %q, want %q", res.Summary, want)
	}
}

func TestStorylines_Hooks(t *testing.T) {
	h := &hookedMember{Member: Member{ID: "kit", Loyalty: 3, Background: Background{ID: "Hacker"}, Perks: []string{}}}
	if ApplyCrewStorylineOutcome(h, "ghost-handle", OutcomeSuccess) == nil {
		t.Fatalf("expected result")
	}
	res := ApplyCrewStorylineOutcome(h, "zero-day", OutcomeSuccess)
	if res.PerkAwarded != "Grid Backdoor" || len(h.perks) != 1 {
		t.Fatalf("expected perk hook, got %+v / %v", res, h.perks)
	}
	if len(h.steps) != 2 || len(h.loyaltyCalls) != 2 {
		t.Fatalf("expected hooks to be used, got steps %v loyalty %v", h.steps, h.loyaltyCalls)
	}
	again := ApplyCrewStorylineOutcome(h, "zero-day", OutcomeSuccess)
	if again.PerkAwarded != "" || len(h.perks) != 1 {
		t.Fatalf("perk should not be awarded twice")
	}
}
