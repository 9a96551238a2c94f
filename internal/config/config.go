// YAML engine tuning loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"heist-engine/internal/crew"
	"heist-engine/internal/safehouse"
)

// RelationshipTuning controls crew chemistry event pacing.
type RelationshipTuning struct {
	SynergyCooldownHours float64 `yaml:"synergy_cooldown_hours"`
	StrainCooldownHours  float64 `yaml:"strain_cooldown_hours"`
	MaxPending           int     `yaml:"max_pending"`
	MaxHistory           int     `yaml:"max_history"`
}

// DefenseTuning controls safehouse defense scenarios.
type DefenseTuning struct {
	CooldownDays int `yaml:"cooldown_days"`
}

// EngineConfig is the root tuning file.
type EngineConfig struct {
	Relationship RelationshipTuning `yaml:"relationship"`
	Defense      DefenseTuning      `yaml:"defense"`
	// EventTable optionally replaces the built-in mission event table.
	EventTable string `yaml:"event_table,omitempty"`
	// Scenario names a built-in campaign seed or a seed file path.
	Scenario string `yaml:"scenario,omitempty"`
}

// Default returns the stock tuning.
func Default() *EngineConfig {
	rel := crew.DefaultRelationshipConfig()
	return &EngineConfig{
		Relationship: RelationshipTuning{
			SynergyCooldownHours: rel.SynergyCooldown.Hours(),
			StrainCooldownHours:  rel.StrainCooldown.Hours(),
			MaxPending:           rel.MaxPending,
			MaxHistory:           rel.MaxHistory,
		},
		Defense:  DefenseTuning{CooldownDays: safehouse.DefaultCooldownDays},
		Scenario: "harbor-job",
	}
}

// RelationshipConfig converts the tuning into service configuration.
func (c *EngineConfig) RelationshipConfig() crew.RelationshipConfig {
	return crew.RelationshipConfig{
		SynergyCooldown: hours(c.Relationship.SynergyCooldownHours),
		StrainCooldown:  hours(c.Relationship.StrainCooldownHours),
		MaxPending:      c.Relationship.MaxPending,
		MaxHistory:      c.Relationship.MaxHistory,
	}
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// Load loads YAML tuning and validates it against a CUE schema. Fields
// missing from the file keep their defaults.
func Load(configPath, cueSchemaPath string) (*EngineConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
