package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const schemaPath = "../../schemas/engine.cue"

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeTemp(t, `
relationship:
  synergy_cooldown_hours: 12
  max_pending: 4
defense:
  cooldown_days: 5
event_table: tables/winter.yaml
`)
	cfg, err := Load(path, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	rel := cfg.RelationshipConfig()
	if rel.SynergyCooldown != 12*time.Hour || rel.StrainCooldown != 24*time.Hour {
		t.Errorf("unexpected cooldowns %+v", rel)
	}
	if rel.MaxPending != 4 || rel.MaxHistory != 12 {
		t.Errorf("unexpected caps %+v", rel)
	}
	if cfg.Defense.CooldownDays != 5 || cfg.EventTable != "tables/winter.yaml" || cfg.Scenario != "harbor-job" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadConfig_SampleFile(t *testing.T) {
	if _, err := Load("../../config/engine.yaml", schemaPath); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestLoadConfig_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"negative cooldown": "relationship:\n  strain_cooldown_hours: -1\n",
		"unknown field":     "relationship:\n  mood: sour\n",
		"wrong type":        "defense:\n  cooldown_days: soon\n",
		"too many pending":  "relationship:\n  max_pending: 500\n",
	}
	for name, body := range cases {
		if _, err := Load(writeTemp(t, body), schemaPath); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadConfig_MissingFiles(t *testing.T) {
	if _, err := Load("missing.yaml", schemaPath); err == nil {
		t.Fatalf("expected error for missing config")
	}
	if _, err := Load(writeTemp(t, "scenario: x\n"), "missing.cue"); err == nil {
		t.Fatalf("expected error for missing schema")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("HEIST_CAMPAIGN_ID", "night-owls")
	t.Setenv("HEIST_SQLITE_PATH", "/tmp/journal.db")
	e, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if e.CampaignID != "night-owls" || e.SQLitePath != "/tmp/journal.db" {
		t.Fatalf("unexpected env %+v", e)
	}
	if e.LogLevel != "info" || e.AdminAddr != ":8080" || e.GreptimeDatabase != "public" {
		t.Fatalf("defaults not applied: %+v", e)
	}
}
