package events

import "sort"

// DeckBuilder draws mission decks from a definition table.
type DeckBuilder struct {
	table []Definition
}

// NewDeckBuilder returns a builder over table. A nil table uses BuiltIn.
func NewDeckBuilder(table []Definition) *DeckBuilder {
	if table == nil {
		table = BuiltIn()
	}
	return &DeckBuilder{table: table}
}

// BuildMissionEventDeck draws a deck for m from the built-in table.
func BuildMissionEventDeck(m Mission) Deck {
	return NewDeckBuilder(nil).Build(m)
}

// Candidates returns every eligible candidate for m in table order,
// including the point-of-interest event when one applies.
func (b *DeckBuilder) Candidates(m Mission) []Candidate {
	ctx := NewSelectionContext(m)
	var out []Candidate
	for _, def := range b.table {
		if c, ok := Evaluate(def, ctx); ok {
			out = append(out, c)
		}
	}
	if poi := BuildPOIEvent(m.PointOfInterest); poi != nil {
		if c, ok := Evaluate(*poi, ctx); ok {
			out = append(out, c)
		}
	}
	return out
}

// Build ranks the eligible candidates by weight, keeps the top DeckSize of
// them and returns them in playback order.
func (b *DeckBuilder) Build(m Mission) Deck {
	candidates := b.Candidates(m)
	if len(candidates) == 0 {
		return Deck{}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, c := candidates[i], candidates[j]
		if a.SelectionWeight != c.SelectionWeight {
			return a.SelectionWeight > c.SelectionWeight
		}
		return a.TriggerProgress > c.TriggerProgress
	})

	size := max(DeckSize(normalizeDifficulty(m.Difficulty)), 1)
	if size > len(candidates) {
		size = len(candidates)
	}
	deck := Deck(candidates[:size:size])

	sort.SliceStable(deck, func(i, j int) bool {
		a, c := deck[i], deck[j]
		if a.TriggerProgress != c.TriggerProgress {
			return a.TriggerProgress < c.TriggerProgress
		}
		return a.SelectionWeight > c.SelectionWeight
	})
	return deck
}
