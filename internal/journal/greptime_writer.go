package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// Default GreptimeDB table names.
const (
	EventTable      = "heist_deck_events"
	AlertTable      = "heist_incursion_alerts"
	ResolutionTable = "heist_resolutions"
)

const defaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes journal rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client          greptimeClient
	eventTable      string
	alertTable      string
	resolutionTable string
	timeout         time.Duration
	log             *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint (host or host:port). Tables are
// created by GreptimeDB on first write.
func NewGreptimeDBWriter(endpoint, database string, log *slog.Logger) (*GreptimeDBWriter, error) {
	host, port := endpoint, defaultGreptimePort
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptime port %q: %w", p, err)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &GreptimeDBWriter{
		client:          client,
		eventTable:      EventTable,
		alertTable:      AlertTable,
		resolutionTable: ResolutionTable,
		timeout:         5 * time.Second,
		log:             log,
	}, nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return slog.Default()
	}
	return w.log
}

func (w *GreptimeDBWriter) write(name string, tbl *table.Table, rows int) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if _, err := w.client.Write(ctx, tbl); err != nil {
		w.logger().Error("greptime write failed", "table", name, "err", err)
		return fmt.Errorf("greptime write %s: %w", name, err)
	}
	w.logger().Debug("greptime write", "table", name, "rows", rows)
	return nil
}

// WriteEvent inserts a single deck row.
func (w *GreptimeDBWriter) WriteEvent(row EventRow) error {
	return w.WriteEvents([]EventRow{row})
}

// WriteEvents inserts multiple deck rows.
func (w *GreptimeDBWriter) WriteEvents(rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("campaign_id", types.STRING)
	tbl.AddTagColumn("mission_id", types.STRING)
	tbl.AddFieldColumn("event_id", types.STRING)
	tbl.AddFieldColumn("label", types.STRING)
	tbl.AddFieldColumn("category", types.STRING)
	tbl.AddFieldColumn("position", types.INT64)
	tbl.AddFieldColumn("trigger_progress", types.FLOAT64)
	tbl.AddFieldColumn("selection_weight", types.FLOAT64)
	tbl.AddFieldColumn("risk_tier", types.STRING)
	tbl.AddFieldColumn("crackdown_tier", types.STRING)
	tbl.AddFieldColumn("difficulty_band", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.CampaignID, r.MissionID, r.EventID, r.Label, r.Category, int64(r.Position),
			r.Progress, r.Weight, r.RiskTier, r.CrackdownTier, r.DifficultyBand, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.eventTable, tbl, len(rows))
}

// WriteAlert inserts a single alert row.
func (w *GreptimeDBWriter) WriteAlert(row AlertRow) error {
	return w.WriteAlerts([]AlertRow{row})
}

// WriteAlerts inserts multiple alert rows.
func (w *GreptimeDBWriter) WriteAlerts(rows []AlertRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.alertTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("campaign_id", types.STRING)
	tbl.AddTagColumn("safehouse_id", types.STRING)
	tbl.AddFieldColumn("alert_id", types.STRING)
	tbl.AddFieldColumn("facility_id", types.STRING)
	tbl.AddFieldColumn("heat_tier", types.STRING)
	tbl.AddFieldColumn("severity", types.STRING)
	tbl.AddFieldColumn("status", types.STRING)
	tbl.AddFieldColumn("cooldown_days", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.CampaignID, r.SafehouseID, r.AlertID, r.FacilityID, r.HeatTier,
			r.Severity, r.Status, int64(r.CooldownDays), r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(w.alertTable, tbl, len(rows))
}

// WriteResolution inserts a resolution row. Deltas are stored as a JSON column.
func (w *GreptimeDBWriter) WriteResolution(row ResolutionRow) error {
	tbl, err := table.New(w.resolutionTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("campaign_id", types.STRING)
	tbl.AddTagColumn("kind", types.STRING)
	tbl.AddFieldColumn("id", types.STRING)
	tbl.AddFieldColumn("subject_id", types.STRING)
	tbl.AddFieldColumn("choice_id", types.STRING)
	tbl.AddFieldColumn("summary", types.STRING)
	tbl.AddFieldColumn("deltas", types.JSON)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	deltas := row.Deltas
	if deltas == nil {
		deltas = map[string]float64{}
	}
	b, err := json.Marshal(deltas)
	if err != nil {
		return fmt.Errorf("encode deltas: %w", err)
	}
	if err := tbl.AddRow(row.CampaignID, string(row.Kind), row.ID, row.SubjectID, row.ChoiceID,
		row.Summary, string(b), row.Timestamp); err != nil {
		return err
	}
	return w.write(w.resolutionTable, tbl, 1)
}
