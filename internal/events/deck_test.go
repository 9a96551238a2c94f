package events

import (
	"math"
	"reflect"
	"testing"
)

func deckIDs(d Deck) []string {
	ids := make([]string, len(d))
	for i, c := range d {
		ids[i] = c.ID
	}
	return ids
}

func TestBuildMissionEventDeck_Deterministic(t *testing.T) {
	m := Mission{Difficulty: 5, RiskTier: "high", CrackdownTier: "lockdown", PointOfInterest: &PointOfInterest{ID: "v1", Name: "First Civic", Type: "vault"}}
	a := BuildMissionEventDeck(m)
	b := BuildMissionEventDeck(m)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical decks, got %v and %v", deckIDs(a), deckIDs(b))
	}
}

func TestBuildMissionEventDeck_SizeBound(t *testing.T) {
	cases := map[float64]int{1: 3, 2: 3, 3: 4, 4: 4, 5: 5, 6: 5}
	for difficulty, want := range cases {
		deck := BuildMissionEventDeck(Mission{Difficulty: difficulty, RiskTier: "moderate", CrackdownTier: "alert"})
		if len(deck) > want {
			t.Errorf("difficulty %.0f: deck size %d exceeds %d", difficulty, len(deck), want)
		}
		if len(deck) == 0 {
			t.Errorf("difficulty %.0f: expected a non-empty deck", difficulty)
		}
	}
}

func TestBuildMissionEventDeck_NeverExceedsEligible(t *testing.T) {
	table := []Definition{
		{ID: "only", TriggerProgress: 0.5, MinDifficulty: 1, MaxDifficulty: 10, BaseWeight: 1},
	}
	deck := NewDeckBuilder(table).Build(Mission{Difficulty: 6})
	if len(deck) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(deck))
	}
}

func TestBuildMissionEventDeck_EmptyWhenNothingEligible(t *testing.T) {
	table := []Definition{
		{ID: "late", TriggerProgress: 0.5, MinDifficulty: 8, MaxDifficulty: 10, BaseWeight: 1},
		{ID: "weightless", TriggerProgress: 0.5, MinDifficulty: 1, MaxDifficulty: 10, BaseWeight: 0},
	}
	deck := NewDeckBuilder(table).Build(Mission{Difficulty: 2})
	if deck == nil || len(deck) != 0 {
		t.Fatalf("expected empty non-nil deck, got %#v", deck)
	}
}

func TestBuildMissionEventDeck_EligibilityFilter(t *testing.T) {
	for _, risk := range []string{"low", "moderate", "high"} {
		for _, crackdown := range []string{"calm", "alert", "lockdown"} {
			deck := BuildMissionEventDeck(Mission{Difficulty: 2, RiskTier: risk, CrackdownTier: crackdown})
			for _, c := range deck {
				if c.MinDifficulty > 2 {
					t.Fatalf("event %s (min %.0f) drawn at difficulty 2", c.ID, c.MinDifficulty)
				}
			}
		}
	}
}

func TestBuildMissionEventDeck_PlaybackOrder(t *testing.T) {
	missions := []Mission{
		{Difficulty: 1},
		{Difficulty: 3, RiskTier: "moderate"},
		{Difficulty: 4, RiskTier: "high", CrackdownTier: "alert"},
		{Difficulty: 7, RiskTier: "high", ActiveCrackdownTier: "lockdown", PointOfInterest: &PointOfInterest{ID: "lab", Name: "Helix", Type: "megacorp-lab"}},
	}
	for _, m := range missions {
		deck := BuildMissionEventDeck(m)
		for i := 1; i < len(deck); i++ {
			if deck[i].TriggerProgress < deck[i-1].TriggerProgress {
				t.Fatalf("deck out of order for %+v: %v", m, deckIDs(deck))
			}
		}
	}
}

func TestBuildMissionEventDeck_HighRiskAlertExample(t *testing.T) {
	deck := BuildMissionEventDeck(Mission{Difficulty: 4, RiskTier: "high", CrackdownTier: "alert"})
	if len(deck) != 4 {
		t.Fatalf("expected deck size 4, got %d (%v)", len(deck), deckIDs(deck))
	}
	found := map[string]bool{}
	for _, c := range deck {
		found[c.ID] = true
		if c.AppliedRiskTier != RiskHigh || c.AppliedCrackdownTier != CrackdownAlert || c.AppliedDifficultyBand != BandMid {
			t.Fatalf("unexpected applied context on %s: %+v", c.ID, c)
		}
		if c.Triggered || c.Resolved {
			t.Fatalf("fresh candidate %s should not be triggered or resolved", c.ID)
		}
	}
	for _, id := range []string{"armored-response", "exit-ambush"} {
		if !found[id] {
			t.Fatalf("expected %s in deck, got %v", id, deckIDs(deck))
		}
	}
}

func TestBuildMissionEventDeck_CrackdownAliases(t *testing.T) {
	want := deckIDs(BuildMissionEventDeck(Mission{Difficulty: 4, RiskTier: "high", CrackdownTier: "lockdown"}))
	for _, m := range []Mission{
		{Difficulty: 4, RiskTier: "high", ActiveCrackdownTier: "lockdown"},
		{Difficulty: 4, RiskTier: "high", CrackdownLevel: "LOCKDOWN"},
	} {
		if got := deckIDs(BuildMissionEventDeck(m)); !reflect.DeepEqual(got, want) {
			t.Fatalf("alias deck %v, want %v", got, want)
		}
	}
}

func TestBuildMissionEventDeck_NonFiniteDifficulty(t *testing.T) {
	got := BuildMissionEventDeck(Mission{Difficulty: math.NaN()})
	want := BuildMissionEventDeck(Mission{Difficulty: 1})
	if !reflect.DeepEqual(deckIDs(got), deckIDs(want)) {
		t.Fatalf("NaN difficulty deck %v, want %v", deckIDs(got), deckIDs(want))
	}
}

func TestBuildMissionEventDeck_DoesNotPolluteTable(t *testing.T) {
	deck := BuildMissionEventDeck(Mission{Difficulty: 4, RiskTier: "high", CrackdownTier: "alert"})
	for i := range deck {
		deck[i].Label = "mutated"
		for j := range deck[i].Choices {
			deck[i].Choices[j].Effects.HeatDelta = 99
			if deck[i].Choices[j].Effects.PayoutMultiplier != nil {
				*deck[i].Choices[j].Effects.PayoutMultiplier = 99
			}
		}
	}
	def, ok := Lookup("armored-response")
	if !ok {
		t.Fatalf("armored-response missing from table")
	}
	if def.Label == "mutated" || def.Choices[0].Effects.HeatDelta == 99 || *def.Choices[0].Effects.PayoutMultiplier == 99 {
		t.Fatalf("built-in table was mutated: %+v", def)
	}
}

func TestEvaluate_UnknownTierIsUnrestricted(t *testing.T) {
	def := Definition{ID: "x", MinDifficulty: 1, MaxDifficulty: 10, BaseWeight: 2,
		RiskTiers:       []RiskTier{RiskHigh},
		RiskTierWeights: map[RiskTier]float64{RiskHigh: 3},
	}
	ctx := NewSelectionContext(Mission{Difficulty: 2, RiskTier: "catastrophic"})
	c, ok := Evaluate(def, ctx)
	if !ok {
		t.Fatalf("expected unknown risk tier to pass the filter")
	}
	if c.SelectionWeight != 2 {
		t.Fatalf("expected neutral multiplier, got weight %f", c.SelectionWeight)
	}
}

func TestEvaluate_ClampsWeightsAndProgress(t *testing.T) {
	ctx := NewSelectionContext(Mission{Difficulty: 1})
	if _, ok := Evaluate(Definition{ID: "neg", MinDifficulty: 1, BaseWeight: -3}, ctx); ok {
		t.Fatalf("negative base weight should be discarded")
	}
	if _, ok := Evaluate(Definition{ID: "negmul", MinDifficulty: 1, BaseWeight: 1, DifficultyBandWeights: map[DifficultyBand]float64{BandLow: -1}}, ctx); ok {
		t.Fatalf("negative multiplier should floor weight at 0")
	}
	c, ok := Evaluate(Definition{ID: "nan", MinDifficulty: 1, BaseWeight: 1, TriggerProgress: math.Inf(1)}, ctx)
	if !ok || c.TriggerProgress != 0.5 {
		t.Fatalf("expected non-finite progress to default to 0.5, got %+v", c)
	}
}

func TestBuildMissionEventDeck_TieBreaks(t *testing.T) {
	table := []Definition{
		{ID: "a", TriggerProgress: 0.2, MinDifficulty: 1, BaseWeight: 1},
		{ID: "b", TriggerProgress: 0.9, MinDifficulty: 1, BaseWeight: 1},
		{ID: "c", TriggerProgress: 0.5, MinDifficulty: 1, BaseWeight: 1},
		{ID: "d", TriggerProgress: 0.5, MinDifficulty: 1, BaseWeight: 2},
	}
	deck := NewDeckBuilder(table).Build(Mission{Difficulty: 1})
	// selection keeps d (heaviest) then b and c (latest progress wins ties)
	want := []string{"d", "c", "b"}
	if got := deckIDs(deck); !reflect.DeepEqual(got, want) {
		t.Fatalf("deck %v, want %v", got, want)
	}
}

func TestLoadTable(t *testing.T) {
	table, err := LoadTable("testdata/table.yaml")
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 events, got %d", len(table))
	}
	if table[0].DifficultyBandWeights[BandLow] != 2 {
		t.Fatalf("unexpected band weights %+v", table[0].DifficultyBandWeights)
	}
	pm := table[0].Choices[1].Effects.PayoutMultiplier
	if pm == nil || *pm != 0.9 {
		t.Fatalf("expected payout multiplier 0.9, got %v", pm)
	}
	deck := NewDeckBuilder(table).Build(Mission{Difficulty: 1, RiskTier: "high"})
	if got := deckIDs(deck); !reflect.DeepEqual(got, []string{"quiet-night"}) {
		t.Fatalf("high risk deck %v", got)
	}
}

func TestLoadTable_Missing(t *testing.T) {
	if _, err := LoadTable("testdata/missing.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
