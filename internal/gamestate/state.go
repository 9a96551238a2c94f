// Package gamestate holds the save container shared by the engine services.
package gamestate

import (
	"encoding/json"
	"fmt"

	"heist-engine/internal/crew"
	"heist-engine/internal/safehouse"
)

// State is the game-state container. Subsystem blocks are created on first
// access and replaced with their empty shape when malformed.
type State struct {
	Funds float64
	Crew  []*crew.Member

	relationshipEvents *crew.RelationshipState
	safehouseDefense   *safehouse.DefenseState
}

// New returns a state with the given funds and crew.
func New(funds float64, members ...*crew.Member) *State {
	return &State{Funds: max(funds, 0), Crew: members}
}

// RelationshipEvents returns the live relationship block.
func (s *State) RelationshipEvents() *crew.RelationshipState {
	if s.relationshipEvents == nil {
		s.relationshipEvents = crew.NewRelationshipState()
	}
	s.relationshipEvents.Normalize()
	return s.relationshipEvents
}

// SafehouseDefense returns the live defense block.
func (s *State) SafehouseDefense() *safehouse.DefenseState {
	if s.safehouseDefense == nil {
		s.safehouseDefense = safehouse.NewDefenseState()
	}
	s.safehouseDefense.Normalize()
	return s.safehouseDefense
}

// Roster returns the crew as engine records, skipping nil entries.
func (s *State) Roster() []crew.Record {
	out := make([]crew.Record, 0, len(s.Crew))
	for _, m := range s.Crew {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Member returns the crew member with the given id.
func (s *State) Member(id string) (*crew.Member, bool) {
	for _, m := range s.Crew {
		if m != nil && m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// AdjustFunds applies delta and clamps the balance at zero.
func (s *State) AdjustFunds(delta float64) float64 {
	s.Funds = max(s.Funds+delta, 0)
	return s.Funds
}

type wireState struct {
	Funds              float64         `json:"funds"`
	Crew               []*crew.Member  `json:"crew"`
	RelationshipEvents json.RawMessage `json:"relationshipEvents"`
	SafehouseDefense   json.RawMessage `json:"safehouseDefense"`
}

// MarshalJSON encodes the state including its subsystem blocks.
func (s *State) MarshalJSON() ([]byte, error) {
	rel, err := json.Marshal(s.RelationshipEvents())
	if err != nil {
		return nil, fmt.Errorf("encode relationship events: %w", err)
	}
	def, err := json.Marshal(s.SafehouseDefense())
	if err != nil {
		return nil, fmt.Errorf("encode safehouse defense: %w", err)
	}
	members := s.Crew
	if members == nil {
		members = []*crew.Member{}
	}
	return json.Marshal(wireState{Funds: s.Funds, Crew: members, RelationshipEvents: rel, SafehouseDefense: def})
}

// UnmarshalJSON decodes a save. Only a non-object top level fails; any
// malformed field is dropped and takes its default shape.
func (s *State) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode game state: %w", err)
	}
	*s = State{}
	decodeField(fields, "funds", &s.Funds)
	s.Funds = max(s.Funds, 0)

	var rawCrew []json.RawMessage
	decodeField(fields, "crew", &rawCrew)
	for _, raw := range rawCrew {
		var m crew.Member
		if json.Unmarshal(raw, &m) == nil && m.ID != "" {
			s.Crew = append(s.Crew, &m)
		}
	}

	var rel map[string]json.RawMessage
	if decodeField(fields, "relationshipEvents", &rel) {
		st := crew.NewRelationshipState()
		decodeField(rel, "pending", &st.Pending)
		decodeField(rel, "lastBandByTeam", &st.LastBandByTeam)
		decodeField(rel, "cooldownByKey", &st.CooldownByKey)
		decodeField(rel, "history", &st.History)
		s.relationshipEvents = st
	}

	var def map[string]json.RawMessage
	if decodeField(fields, "safehouseDefense", &def) {
		st := safehouse.NewDefenseState()
		decodeField(def, "scenarios", &st.Scenarios)
		decodeField(def, "layouts", &st.Layouts)
		decodeField(def, "history", &st.History)
		s.safehouseDefense = st
	}
	return nil
}

// decodeField unmarshals fields[key] into dst and reports success. dst is
// left untouched on failure.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) bool {
	raw, ok := fields[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// Decode parses a JSON save blob.
func Decode(data []byte) (*State, error) {
	s := &State{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
