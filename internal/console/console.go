// Package console is an interactive terminal browser for mission decks,
// incursion alerts and the live journal.
package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"heist-engine/internal/events"
	"heist-engine/internal/journal"
	"heist-engine/internal/safehouse"
)

// Engine is the slice of the campaign the console drives.
type Engine interface {
	DrawDeck(missionID string) (events.Deck, error)
	TriggerIncursions(missionID string) (safehouse.IncursionResult, error)
}

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// journalMsg carries a rendered journal line.
type journalMsg struct{ line string }

// deckMsg carries a freshly drawn deck.
type deckMsg struct {
	missionID string
	deck      events.Deck
	err       error
}

// incursionMsg carries generated alerts.
type incursionMsg struct {
	res safehouse.IncursionResult
	err error
}

const maxJournalLines = 200

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Console renders journal rows inside a bubbletea program. It implements
// journal.Writer so it can sit in a MultiWriter next to other sinks.
type Console struct {
	program teaProgram
	run     func() (tea.Model, error)
}

// New prepares a console over engine. Call Run to take over the terminal.
func New(engine Engine, missions []events.Mission) *Console {
	p := tea.NewProgram(newModel(engine, missions), tea.WithAltScreen())
	return &Console{program: p, run: p.Run}
}

// Run blocks until the user quits.
func (c *Console) Run() error {
	_, err := c.run()
	return err
}

// Close asks the program to quit.
func (c *Console) Close() error {
	c.program.Send(tea.Quit())
	return nil
}

// WriteEvent implements journal.Writer.
func (c *Console) WriteEvent(r journal.EventRow) error {
	c.program.Send(journalMsg{line: fmt.Sprintf("%s %s deck[%d] %s (%.2f, w=%.2f)",
		dimStyle.Render(r.Timestamp.Format("15:04:05")), r.MissionID, r.Position, r.EventID, r.Progress, r.Weight)})
	return nil
}

// WriteAlert implements journal.Writer.
func (c *Console) WriteAlert(r journal.AlertRow) error {
	style := warnStyle
	if r.Severity == string(safehouse.SeverityCritical) {
		style = criticalStyle
	}
	c.program.Send(journalMsg{line: fmt.Sprintf("%s %s %s status=%s cooldown=%dd",
		dimStyle.Render(r.Timestamp.Format("15:04:05")), style.Render("ALERT"), r.AlertID, r.Status, r.CooldownDays)})
	return nil
}

// WriteResolution implements journal.Writer.
func (c *Console) WriteResolution(r journal.ResolutionRow) error {
	c.program.Send(journalMsg{line: fmt.Sprintf("%s %s %s/%s -> %s: %s",
		dimStyle.Render(r.Timestamp.Format("15:04:05")), okStyle.Render("RESOLVED"), r.Kind, r.SubjectID, r.ChoiceID, r.Summary)})
	return nil
}

type model struct {
	engine   Engine
	missions []events.Mission
	current  int

	table   table.Model
	detail  viewport.Model
	journal viewport.Model

	deck   events.Deck
	alerts []safehouse.Alert
	lines  []string
	status string
	wrap   bool
	help   bool
	width  int
	height int
}

func newModel(engine Engine, missions []events.Mission) model {
	cols := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Event", Width: 28},
		{Title: "At", Width: 6},
		{Title: "Weight", Width: 7},
		{Title: "Band", Width: 6},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(8))
	return model{
		engine:   engine,
		missions: missions,
		table:    t,
		detail:   viewport.New(0, 0),
		journal:  viewport.New(0, 0),
		wrap:     true,
	}
}

func (m model) Init() tea.Cmd {
	if len(m.missions) == 0 {
		return nil
	}
	return m.drawCmd()
}

func (m model) missionID() string {
	if len(m.missions) == 0 {
		return ""
	}
	return m.missions[m.current].ID
}

// drawCmd runs the draw off the update loop; the engine journals back into
// this program and Send would block inside Update.
func (m model) drawCmd() tea.Cmd {
	engine, id := m.engine, m.missionID()
	return func() tea.Msg {
		deck, err := engine.DrawDeck(id)
		return deckMsg{missionID: id, deck: deck, err: err}
	}
}

func (m model) incursionCmd() tea.Cmd {
	engine, id := m.engine, m.missionID()
	return func() tea.Msg {
		res, err := engine.TriggerIncursions(id)
		return incursionMsg{res: res, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "h", "?", "esc", "q":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "h", "?":
			m.help = true
			return m, nil
		case "tab":
			if len(m.missions) > 0 {
				m.current = (m.current + 1) % len(m.missions)
				return m, m.drawCmd()
			}
			return m, nil
		case "d":
			if len(m.missions) > 0 {
				return m, m.drawCmd()
			}
			return m, nil
		case "i":
			return m, m.incursionCmd()
		case "w":
			m.wrap = !m.wrap
			m.refreshDetail()
			m.refreshJournal()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		m.refreshDetail()
		return m, cmd
	case deckMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.deck = msg.deck
		m.status = fmt.Sprintf("drew %d events for %s", len(msg.deck), msg.missionID)
		m.table.SetRows(deckRows(msg.deck))
		m.table.SetCursor(0)
		m.refreshDetail()
	case incursionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.alerts = msg.res.Alerts
		m.status = fmt.Sprintf("%d incursion alerts", len(msg.res.Alerts))
	case journalMsg:
		m.lines = append(m.lines, msg.line)
		if over := len(m.lines) - maxJournalLines; over > 0 {
			m.lines = m.lines[over:]
		}
		m.refreshJournal()
	}
	return m, nil
}

func deckRows(deck events.Deck) []table.Row {
	rows := make([]table.Row, len(deck))
	for i, c := range deck {
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			c.Label,
			fmt.Sprintf("%.0f%%", c.TriggerProgress*100),
			fmt.Sprintf("%.2f", c.SelectionWeight),
			string(c.AppliedDifficultyBand),
		}
	}
	return rows
}

func (m *model) layout() {
	m.table.SetWidth(m.width / 2)
	m.detail.Width = m.width - m.width/2 - 1
	m.detail.Height = m.table.Height() + 1
	m.journal.Width = m.width
	h := m.height - m.detail.Height - len(m.alertLines()) - 6
	if h < 1 {
		h = 1
	}
	m.journal.Height = h
	m.refreshDetail()
	m.refreshJournal()
}

func (m *model) refreshDetail() {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.deck) {
		m.detail.SetContent(dimStyle.Render("no event selected"))
		return
	}
	c := m.deck[i]
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Label) + "\n")
	b.WriteString(c.Description + "\n")
	for _, ch := range c.Choices {
		b.WriteString("\n• " + ch.Label)
		if ch.Description != "" {
			b.WriteString(": " + ch.Description)
		}
	}
	m.detail.SetContent(m.wrapText(b.String()))
}

func (m *model) refreshJournal() {
	lines := make([]string, len(m.lines))
	for i, l := range m.lines {
		lines[i] = m.wrapTextWidth(l, m.journal.Width)
	}
	m.journal.SetContent(strings.Join(lines, "\n"))
	m.journal.GotoBottom()
}

func (m model) wrapText(s string) string {
	return m.wrapTextWidth(s, m.detail.Width)
}

func (m model) wrapTextWidth(s string, width int) string {
	if !m.wrap || width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

func (m model) alertLines() []string {
	out := make([]string, 0, len(m.alerts))
	for _, a := range m.alerts {
		style := warnStyle
		if a.Severity == safehouse.SeverityCritical {
			style = criticalStyle
		}
		out = append(out, fmt.Sprintf("%s %s (%s)", style.Render("▲"), a.Label, a.ID))
	}
	return out
}

func (m model) View() string {
	if m.help {
		return m.renderHelp()
	}
	mission := "no missions"
	if len(m.missions) > 0 {
		ms := m.missions[m.current]
		mission = fmt.Sprintf("%s (%s) difficulty %.0f, risk %s", ms.Name, ms.ID, ms.Difficulty, orDash(ms.RiskTier))
	}
	divider := strings.Repeat("─", max(m.width, 1))
	sep := dimStyle.Render("│")
	sections := []string{
		titleStyle.Render("Mission: ") + mission,
		lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), sep, m.detail.View()),
		divider,
	}
	if alerts := m.alertLines(); len(alerts) > 0 {
		sections = append(sections, strings.Join(alerts, "\n"), divider)
	}
	sections = append(sections, m.journal.View(), divider, dimStyle.Render(m.status+" | tab next mission · d redraw · i incursions · w wrap · h help · q quit"))
	return strings.Join(sections, "\n")
}

func (m model) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q     quit",
		" tab   next mission",
		" d     redraw the current deck",
		" i     trigger safehouse incursions",
		" w     toggle word wrap",
		" ↑/↓   select event",
		" h/?   toggle this help view",
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
