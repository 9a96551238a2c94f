package journal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"heist-engine/internal/events"
	"heist-engine/internal/safehouse"
)

type collectWriter struct {
	events      []EventRow
	alerts      []AlertRow
	resolutions []ResolutionRow
	err         error
}

func (c *collectWriter) WriteEvent(r EventRow) error {
	c.events = append(c.events, r)
	return c.err
}

func (c *collectWriter) WriteAlert(r AlertRow) error {
	c.alerts = append(c.alerts, r)
	return c.err
}

func (c *collectWriter) WriteResolution(r ResolutionRow) error {
	c.resolutions = append(c.resolutions, r)
	return c.err
}

type batchCollectWriter struct {
	collectWriter
	batches int
}

func (b *batchCollectWriter) WriteEvents(rows []EventRow) error {
	b.batches++
	b.events = append(b.events, rows...)
	return nil
}

type mockGreptimeClient struct {
	tables []*table.Table
	err    error
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.tables = append(m.tables, tables...)
	return &gpb.GreptimeResponse{}, m.err
}

var t0 = time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)

func sampleResolution(id string, at time.Time) ResolutionRow {
	return ResolutionRow{
		ID:         id,
		CampaignID: "local",
		Kind:       ResolvedRelationship,
		SubjectID:  "rel-1",
		ChoiceID:   "celebrate",
		Summary:    "Crew celebrated the win",
		Deltas:     map[string]float64{"loyalty": 1, "funds": -500},
		Timestamp:  at,
	}
}

func TestDeckRows(t *testing.T) {
	deck := events.Deck{
		{Definition: events.Definition{ID: "patrol", Label: "Patrol Sweep", Category: "heat", TriggerProgress: 0.25}, SelectionWeight: 1.5, AppliedDifficultyBand: events.BandMid},
		{Definition: events.Definition{ID: "tripwire", Label: "Tripwire", TriggerProgress: 0.6}, SelectionWeight: 1},
	}
	rows := DeckRows("c1", "m1", deck, t0)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Position != 1 || rows[1].EventID != "tripwire" || rows[0].DifficultyBand != "mid" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestAlertRows(t *testing.T) {
	alerts := []safehouse.Alert{{
		ID:           "incursion-sh1-armory",
		SafehouseID:  "sh1",
		FacilityID:   "armory",
		Severity:     safehouse.SeverityCritical,
		Status:       safehouse.AlertActive,
		CooldownDays: 4,
		TriggeredAt:  t0.UnixMilli(),
	}}
	rows := AlertRows("c1", alerts)
	if rows[0].Severity != "critical" || rows[0].Status != "alert" || !rows[0].Timestamp.Equal(t0) {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestEffectDeltasSkipsZero(t *testing.T) {
	mult := 1.2
	d := EffectDeltas(events.Effects{HeatDelta: 2, FundsDelta: -300, PayoutMultiplier: &mult})
	if len(d) != 3 || d["heat"] != 2 || d["funds"] != -300 || d["payout_multiplier"] != 1.2 {
		t.Fatalf("unexpected deltas: %v", d)
	}
}

func TestWriteEventsUsesBatch(t *testing.T) {
	b := &batchCollectWriter{}
	if err := WriteEvents(b, []EventRow{{EventID: "a"}, {EventID: "b"}}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if b.batches != 1 || len(b.events) != 2 {
		t.Fatalf("expected one batch of 2, got %d batches %d rows", b.batches, len(b.events))
	}

	c := &collectWriter{}
	if err := WriteAlerts(c, []AlertRow{{AlertID: "x"}, {AlertID: "y"}}); err != nil {
		t.Fatalf("WriteAlerts: %v", err)
	}
	if len(c.alerts) != 2 {
		t.Fatalf("expected per-row fallback, got %d", len(c.alerts))
	}
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.jsonl")
	resPath := filepath.Join(dir, "resolutions.jsonl")
	fw, err := NewFileWriter(eventsPath, "", resPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := fw.WriteEvents([]EventRow{{EventID: "a"}, {EventID: "b"}}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if err := fw.WriteAlert(AlertRow{AlertID: "skipped"}); err != nil {
		t.Fatalf("WriteAlert on disabled stream: %v", err)
	}
	if err := fw.WriteResolution(sampleResolution("r1", t0)); err != nil {
		t.Fatalf("WriteResolution: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(eventsPath)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Fatalf("expected 2 event lines, got %d", lines)
	}
	if _, err := os.Stat(filepath.Join(dir, "alerts.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("alerts file should not exist")
	}
}

func TestJSONWriterTagsRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	if err := w.WriteAlert(AlertRow{AlertID: "a1"}); err != nil {
		t.Fatalf("WriteAlert: %v", err)
	}
	if err := w.WriteResolution(sampleResolution("r1", t0)); err != nil {
		t.Fatalf("WriteResolution: %v", err)
	}
	sc := bufio.NewScanner(&buf)
	var kinds []Kind
	for sc.Scan() {
		var line struct {
			Kind Kind            `json:"kind"`
			Row  json.RawMessage `json:"row"`
		}
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		kinds = append(kinds, line.Kind)
	}
	if len(kinds) != 2 || kinds[0] != KindAlert || kinds[1] != KindResolution {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
}

func TestMultiWriterFanOutJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	bad := &collectWriter{err: boom}
	good := &batchCollectWriter{}
	mw := NewMultiWriter(bad)
	mw.Add(good)
	if mw.Len() != 2 {
		t.Fatalf("expected 2 writers, got %d", mw.Len())
	}

	err := mw.WriteResolution(sampleResolution("r1", t0))
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined boom error, got %v", err)
	}
	if len(good.resolutions) != 1 {
		t.Fatalf("later writer skipped after failure")
	}
	if err := mw.WriteEvents([]EventRow{{EventID: "a"}}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if good.batches != 1 {
		t.Fatalf("batch path not used for batch writer")
	}
}

func TestGreptimeWriterResolutionDeltasJSON(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, resolutionTable: ResolutionTable}

	if err := w.WriteResolution(sampleResolution("r1", t0)); err != nil {
		t.Fatalf("WriteResolution: %v", err)
	}
	if len(m.tables) != 1 {
		t.Fatalf("expected table to be captured")
	}
	rows := m.tables[0].GetRows()
	if rows.Schema[6].Datatype != gpb.ColumnDataType_JSON {
		t.Fatalf("deltas column type = %v, want %v", rows.Schema[6].Datatype, gpb.ColumnDataType_JSON)
	}
	got := rows.Rows[0].Values[6].GetStringValue()
	want := `{"funds":-500,"loyalty":1}`
	if got != want {
		t.Fatalf("deltas = %s, want %s", got, want)
	}
	if kind := rows.Rows[0].Values[1].GetStringValue(); kind != "relationship" {
		t.Fatalf("kind = %s", kind)
	}
}

func TestGreptimeWriterBatchesEvents(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, eventTable: EventTable}

	if err := w.WriteEvents(nil); err != nil || len(m.tables) != 0 {
		t.Fatalf("empty batch should be a no-op")
	}
	rows := []EventRow{
		{CampaignID: "c1", MissionID: "m1", EventID: "a", Position: 0, DifficultyBand: "mid", Timestamp: t0},
		{CampaignID: "c1", MissionID: "m1", EventID: "b", Position: 1, DifficultyBand: "mid", Timestamp: t0},
	}
	if err := w.WriteEvents(rows); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if len(m.tables) != 1 || len(m.tables[0].GetRows().Rows) != 2 {
		t.Fatalf("expected one table with 2 rows")
	}
}

func TestGreptimeWriterPropagatesError(t *testing.T) {
	m := &mockGreptimeClient{err: errors.New("unavailable")}
	w := &GreptimeDBWriter{client: m, alertTable: AlertTable, timeout: time.Second}
	if err := w.WriteAlert(AlertRow{AlertID: "a", Severity: "warning", Status: "alert", Timestamp: t0}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSQLiteWriterRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if err := WriteEvents(s, []EventRow{
		{CampaignID: "local", MissionID: "m1", EventID: "a", DifficultyBand: "mid", Timestamp: t0},
		{CampaignID: "local", MissionID: "m1", EventID: "b", Position: 1, DifficultyBand: "mid", Timestamp: t0},
	}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	n, err := s.CountDeckEvents(ctx, "local", "m1")
	if err != nil || n != 2 {
		t.Fatalf("CountDeckEvents = %d, %v", n, err)
	}

	if err := s.WriteAlert(AlertRow{CampaignID: "local", AlertID: "a1", SafehouseID: "sh1", Severity: "warning", Status: "alert", CooldownDays: 2, Timestamp: t0}); err != nil {
		t.Fatalf("WriteAlert: %v", err)
	}

	first := sampleResolution("r1", t0)
	second := sampleResolution("r2", t0.Add(time.Minute))
	second.Deltas = nil
	for _, r := range []ResolutionRow{second, first} {
		if err := s.WriteResolution(r); err != nil {
			t.Fatalf("WriteResolution %s: %v", r.ID, err)
		}
	}
	if err := s.WriteResolution(first); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := s.Resolution(ctx, "r1")
	if err != nil {
		t.Fatalf("Resolution: %v", err)
	}
	if got.Kind != ResolvedRelationship || got.Deltas["funds"] != -500 || !got.Timestamp.Equal(t0) {
		t.Fatalf("unexpected resolution: %+v", got)
	}
	if _, err := s.Resolution(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := s.Resolutions(ctx, "local")
	if err != nil {
		t.Fatalf("Resolutions: %v", err)
	}
	if len(list) != 2 || list[0].ID != "r1" || list[1].ID != "r2" {
		t.Fatalf("expected r1, r2 in time order, got %+v", list)
	}
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.WriteResolution(sampleResolution("r1", t0)); err != nil {
		t.Fatalf("WriteResolution: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Resolution(ctx, "r1"); err != nil {
		t.Fatalf("row lost after reopen: %v", err)
	}
}

func TestReplayLog(t *testing.T) {
	rows := []ResolutionRow{sampleResolution("r1", t0), sampleResolution("r2", t0.Add(time.Second))}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	n, err := ReplayLog(&buf, cw, 0)
	if err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if n != 2 || len(cw.resolutions) != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if cw.resolutions[1].ID != "r2" || cw.resolutions[0].Deltas["loyalty"] != 1 {
		t.Fatalf("row mismatch: %+v", cw.resolutions)
	}
}

func TestReplayLogBadLine(t *testing.T) {
	cw := &collectWriter{}
	n, err := ReplayLog(strings.NewReader("{\"id\":\"r1\"}\nnot-json\n"), cw, 0)
	if err == nil || n != 1 {
		t.Fatalf("expected error after 1 row, got n=%d err=%v", n, err)
	}
}

func TestReplayLogFileMissing(t *testing.T) {
	if _, err := ReplayLogFile(filepath.Join(t.TempDir(), "nope.jsonl"), Discard{}, 0); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
