package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds deployment settings read from the environment.
type Env struct {
	CampaignID       string `env:"HEIST_CAMPAIGN_ID" envDefault:"local"`
	LogLevel         string `env:"HEIST_LOG_LEVEL" envDefault:"info"`
	LogFormat        string `env:"HEIST_LOG_FORMAT" envDefault:"text"`
	GreptimeEndpoint string `env:"HEIST_GREPTIME_ENDPOINT"`
	GreptimeDatabase string `env:"HEIST_GREPTIME_DATABASE" envDefault:"public"`
	SQLitePath       string `env:"HEIST_SQLITE_PATH"`
	JournalDir       string `env:"HEIST_JOURNAL_DIR"`
	AdminAddr        string `env:"HEIST_ADMIN_ADDR" envDefault:":8080"`
}

// ParseEnv parses environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv returns Env populated from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}
