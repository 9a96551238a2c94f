package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"heist-engine/internal/config"
	"heist-engine/internal/journal"
)

// Journal file names inside HEIST_JOURNAL_DIR.
const (
	eventsFile      = "events.jsonl"
	alertsFile      = "alerts.jsonl"
	resolutionsFile = "resolutions.jsonl"
)

// newWriters sets up journal sinks based on flags and env vars. printOnly
// sends rows to out and ignores every other sink. Without any configured
// sink rows go to errOut as JSON lines so command output stays readable.
func newWriters(ctx context.Context, e config.Env, printOnly bool, out, errOut io.Writer, log *slog.Logger) (*journal.MultiWriter, error) {
	mw := journal.NewMultiWriter()
	if printOnly {
		mw.Add(journal.NewJSONWriter(out))
		return mw, nil
	}

	fail := func(err error) (*journal.MultiWriter, error) {
		if cerr := mw.Close(); cerr != nil {
			log.Warn("close journal sinks", "err", cerr)
		}
		return nil, err
	}
	if e.GreptimeEndpoint != "" {
		w, err := journal.NewGreptimeDBWriter(e.GreptimeEndpoint, e.GreptimeDatabase, log)
		if err != nil {
			return fail(err)
		}
		mw.Add(w)
		log.Info("journal to greptimedb", "endpoint", e.GreptimeEndpoint, "database", e.GreptimeDatabase)
	}
	if e.JournalDir != "" {
		if err := os.MkdirAll(e.JournalDir, 0o755); err != nil {
			return fail(fmt.Errorf("journal dir: %w", err))
		}
		fw, err := journal.NewFileWriter(
			filepath.Join(e.JournalDir, eventsFile),
			filepath.Join(e.JournalDir, alertsFile),
			filepath.Join(e.JournalDir, resolutionsFile),
		)
		if err != nil {
			return fail(err)
		}
		mw.Add(fw)
		log.Info("journal to files", "dir", e.JournalDir)
	}
	if e.SQLitePath != "" {
		s, err := journal.OpenSQLite(ctx, e.SQLitePath)
		if err != nil {
			return fail(err)
		}
		mw.Add(s)
		log.Info("journal to sqlite", "path", e.SQLitePath)
	}
	if mw.Len() == 0 {
		mw.Add(journal.NewJSONWriter(errOut))
	}
	return mw, nil
}
