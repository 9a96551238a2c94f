// Package scenario defines campaign seeds: the crew, safehouse and mission
// slate a campaign starts from.
package scenario

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"heist-engine/internal/crew"
	"heist-engine/internal/events"
	"heist-engine/internal/gamestate"
	"heist-engine/internal/safehouse"
)

// Scenario is a campaign seed.
type Scenario struct {
	Name        string           `yaml:"name,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Funds       float64          `yaml:"funds"`
	HeatTier    string           `yaml:"heat_tier,omitempty"`
	Safehouse   safehouse.Record `yaml:"safehouse"`
	Crew        []crew.Member    `yaml:"crew"`
	Missions    []events.Mission `yaml:"missions"`
	Beats       []Beat           `yaml:"beats,omitempty"`
}

// Beat is a scripted chemistry report, replayed after the named mission.
type Beat struct {
	MissionID string    `yaml:"mission_id"`
	CrewIDs   []string  `yaml:"crew_ids"`
	Band      crew.Band `yaml:"band"`
	Entered   bool      `yaml:"entered"`
}

// Profile converts the beat into a chemistry profile.
func (b Beat) Profile() crew.ChemistryProfile {
	p := crew.ChemistryProfile{Band: b.Band}
	switch b.Band {
	case crew.BandSynergy:
		p.EnteredSynergyBand = b.Entered
	case crew.BandStrain:
		p.EnteredStrainBand = b.Entered
	}
	return p
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Resolve returns the built-in seed called name, or loads name as a file.
func Resolve(name string) (*Scenario, error) {
	if s, ok := BuiltIn()[name]; ok {
		return &s, nil
	}
	return Load(name)
}

// Validate checks ids are present and unique.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Safehouse.SafehouseID == "" {
		errs = append(errs, errors.New("safehouse id is required"))
	}
	seen := map[string]bool{}
	for i, m := range s.Crew {
		if m.ID == "" {
			errs = append(errs, fmt.Errorf("crew[%d]: id is required", i))
			continue
		}
		if seen[m.ID] {
			errs = append(errs, fmt.Errorf("crew %q: duplicate id", m.ID))
		}
		seen[m.ID] = true
	}
	missions := map[string]bool{}
	for i, m := range s.Missions {
		if m.ID == "" {
			errs = append(errs, fmt.Errorf("missions[%d]: id is required", i))
			continue
		}
		if missions[m.ID] {
			errs = append(errs, fmt.Errorf("mission %q: duplicate id", m.ID))
		}
		missions[m.ID] = true
	}
	for i, b := range s.Beats {
		if !missions[b.MissionID] {
			errs = append(errs, fmt.Errorf("beats[%d]: unknown mission %q", i, b.MissionID))
		}
	}
	return errors.Join(errs...)
}

// Mission returns the mission with the given id.
func (s *Scenario) Mission(id string) (events.Mission, bool) {
	for _, m := range s.Missions {
		if m.ID == id {
			return m, true
		}
	}
	return events.Mission{}, false
}

// BeatsFor returns the chemistry beats scripted for a mission.
func (s *Scenario) BeatsFor(missionID string) []Beat {
	var out []Beat
	for _, b := range s.Beats {
		if b.MissionID == missionID {
			out = append(out, b)
		}
	}
	return out
}

// NewState builds a fresh game state from the seed. Crew members are copied
// so the seed can be reused.
func (s *Scenario) NewState() *gamestate.State {
	members := make([]*crew.Member, len(s.Crew))
	for i, m := range s.Crew {
		members[i] = cloneMember(m)
	}
	return gamestate.New(s.Funds, members...)
}

func cloneMember(m crew.Member) *crew.Member {
	out := m
	out.Traits = maps.Clone(m.Traits)
	out.Affinity = maps.Clone(m.Affinity)
	out.Perks = append([]string(nil), m.Perks...)
	out.StoryProgress.CompletedSteps = append([]string(nil), m.StoryProgress.CompletedSteps...)
	return &out
}
