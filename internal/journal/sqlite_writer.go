package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type migration struct {
	Version int
	UpSQL   string
}

var migrations = []migration{
	{
		Version: 1,
		UpSQL: `
CREATE TABLE IF NOT EXISTS deck_events (
	campaign_id TEXT NOT NULL,
	mission_id TEXT NOT NULL,
	event_id TEXT NOT NULL,
	label TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL,
	trigger_progress REAL NOT NULL,
	selection_weight REAL NOT NULL,
	risk_tier TEXT NOT NULL DEFAULT '',
	crackdown_tier TEXT NOT NULL DEFAULT '',
	difficulty_band TEXT NOT NULL,
	ts TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS deck_events_mission ON deck_events(campaign_id, mission_id);

CREATE TABLE IF NOT EXISTS incursion_alerts (
	campaign_id TEXT NOT NULL,
	alert_id TEXT NOT NULL,
	safehouse_id TEXT NOT NULL,
	facility_id TEXT NOT NULL DEFAULT '',
	heat_tier TEXT NOT NULL DEFAULT '',
	severity TEXT NOT NULL CHECK(severity IN ('warning','critical')),
	status TEXT NOT NULL CHECK(status IN ('alert','cooldown')),
	cooldown_days INTEGER NOT NULL,
	ts TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS resolutions (
	id TEXT PRIMARY KEY,
	campaign_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('incursion','relationship','storyline')),
	subject_id TEXT NOT NULL,
	choice_id TEXT NOT NULL,
	summary TEXT NOT NULL,
	deltas_json TEXT NOT NULL DEFAULT '{}',
	ts TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS resolutions_subject ON resolutions(campaign_id, subject_id);
`,
	},
}

// SQLiteWriter stores journal rows in an embedded SQLite database.
type SQLiteWriter struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the journal database at path and
// applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteWriter{db: db}, nil
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations(version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.Version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, datetime('now'))`, m.Version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteWriter) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// WriteEvent inserts a single deck row.
func (s *SQLiteWriter) WriteEvent(row EventRow) error {
	return s.WriteEvents([]EventRow{row})
}

// WriteEvents inserts deck rows in one transaction.
func (s *SQLiteWriter) WriteEvents(rows []EventRow) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin deck tx: %w", err)
	}
	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
INSERT INTO deck_events(campaign_id, mission_id, event_id, label, category, position, trigger_progress, selection_weight, risk_tier, crackdown_tier, difficulty_band, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, r.CampaignID, r.MissionID, r.EventID, r.Label, r.Category, r.Position, r.Progress, r.Weight, r.RiskTier, r.CrackdownTier, r.DifficultyBand, ts(r.Timestamp))
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert deck event %s: %w", r.EventID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deck tx: %w", err)
	}
	return nil
}

// WriteAlert inserts an alert row.
func (s *SQLiteWriter) WriteAlert(r AlertRow) error {
	_, err := s.db.ExecContext(context.Background(), `
INSERT INTO incursion_alerts(campaign_id, alert_id, safehouse_id, facility_id, heat_tier, severity, status, cooldown_days, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, r.CampaignID, r.AlertID, r.SafehouseID, r.FacilityID, r.HeatTier, r.Severity, r.Status, r.CooldownDays, ts(r.Timestamp))
	if err != nil {
		return fmt.Errorf("insert alert %s: %w", r.AlertID, err)
	}
	return nil
}

// WriteResolution inserts a resolution row. Rows are keyed by ID; writing
// the same ID twice returns ErrDuplicate.
func (s *SQLiteWriter) WriteResolution(r ResolutionRow) error {
	deltas := r.Deltas
	if deltas == nil {
		deltas = map[string]float64{}
	}
	b, err := json.Marshal(deltas)
	if err != nil {
		return fmt.Errorf("encode deltas: %w", err)
	}
	res, err := s.db.ExecContext(context.Background(), `
INSERT INTO resolutions(id, campaign_id, kind, subject_id, choice_id, summary, deltas_json, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`, r.ID, r.CampaignID, string(r.Kind), r.SubjectID, r.ChoiceID, r.Summary, string(b), ts(r.Timestamp))
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("resolution %s: %w", r.ID, ErrDuplicate)
	}
	return nil
}

// Resolution loads a stored resolution by id.
func (s *SQLiteWriter) Resolution(ctx context.Context, id string) (ResolutionRow, error) {
	var (
		r      ResolutionRow
		kind   string
		deltas string
		when   string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, campaign_id, kind, subject_id, choice_id, summary, deltas_json, ts
FROM resolutions WHERE id = ?
`, id).Scan(&r.ID, &r.CampaignID, &kind, &r.SubjectID, &r.ChoiceID, &r.Summary, &deltas, &when)
	if errors.Is(err, sql.ErrNoRows) {
		return ResolutionRow{}, ErrNotFound
	}
	if err != nil {
		return ResolutionRow{}, fmt.Errorf("get resolution: %w", err)
	}
	r.Kind = ResolutionKind(kind)
	if err := json.Unmarshal([]byte(deltas), &r.Deltas); err != nil {
		return ResolutionRow{}, fmt.Errorf("decode deltas: %w", err)
	}
	if r.Timestamp, err = parseTS(when); err != nil {
		return ResolutionRow{}, fmt.Errorf("parse ts: %w", err)
	}
	return r, nil
}

// Resolutions lists a campaign's resolutions, oldest first.
func (s *SQLiteWriter) Resolutions(ctx context.Context, campaignID string) ([]ResolutionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id FROM resolutions WHERE campaign_id = ? ORDER BY ts ASC, id ASC
`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan resolution id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	rows.Close()

	out := make([]ResolutionRow, 0, len(ids))
	for _, id := range ids {
		r, err := s.Resolution(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// CountDeckEvents reports how many deck rows a mission has.
func (s *SQLiteWriter) CountDeckEvents(ctx context.Context, campaignID, missionID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deck_events WHERE campaign_id = ? AND mission_id = ?`, campaignID, missionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count deck events: %w", err)
	}
	return n, nil
}
