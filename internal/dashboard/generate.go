package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"heist-engine/internal/journal"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

// Params fills the dashboard templates.
type Params struct {
	Title           string
	EventTable      string
	AlertTable      string
	ResolutionTable string
	TopEvents       int
}

// DefaultParams points the dashboard at the journal's GreptimeDB tables.
func DefaultParams() Params {
	return Params{
		Title:           "Heist Engine Journal",
		EventTable:      journal.EventTable,
		AlertTable:      journal.AlertTable,
		ResolutionTable: journal.ResolutionTable,
		TopEvents:       10,
	}
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
// Datasource uids come from the environment.
func Render(outDir string, p Params) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	t, err := template.New("dashboards").Funcs(funcMap).ParseFS(templates, "templates/*.json.tmpl")
	if err != nil {
		return err
	}
	for _, tpl := range t.Templates() {
		name := tpl.Name()
		if !strings.HasSuffix(name, ".tmpl") {
			continue
		}
		var b strings.Builder
		if err := tpl.Execute(&b, p); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		if !json.Valid([]byte(b.String())) {
			return fmt.Errorf("render %s: output is not valid JSON", name)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
