// Package console is a terminal dashboard bound to a live station.
package console

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/dashboard"
	"github.com/AstroAssist-core/server/internal/mission/model"
	"github.com/AstroAssist-core/server/internal/mission/station"
)

const (
	barWidth     = 28
	historyRows  = 8
	aiLogRows    = 5
	subscriberCh = 32
)

// Station is the part of station.Station the console drives.
type Station interface {
	Submit(ctx context.Context, text string) (station.Outcome, error)
	Subscribe(buffer int) (<-chan model.Snapshot, func())
}

type snapshotMsg model.Snapshot

type submitDoneMsg struct {
	out station.Outcome
	err error
}

type theme struct {
	title   lipgloss.Style
	chip    lipgloss.Style
	alert   lipgloss.Style
	banner  lipgloss.Style
	panel   lipgloss.Style
	label   lipgloss.Style
	fill    lipgloss.Style
	danger  lipgloss.Style
	track   lipgloss.Style
	muted   lipgloss.Style
	pill    lipgloss.Style
	emerg   lipgloss.Style
	errText lipgloss.Style
}

func newTheme() theme {
	red := lipgloss.Color("#ff4d4f")
	green := lipgloss.Color("#05ffa1")
	blue := lipgloss.Color("#01cdfe")
	muted := lipgloss.Color("#9ca3d8")
	return theme{
		title:   lipgloss.NewStyle().Bold(true).Foreground(blue),
		chip:    lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#0b1020")).Background(green),
		alert:   lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#ffffff")).Background(red).Bold(true),
		banner:  lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#ffffff")).Background(red).Bold(true),
		panel:   lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
		label:   lipgloss.NewStyle().Width(12),
		fill:    lipgloss.NewStyle().Foreground(green),
		danger:  lipgloss.NewStyle().Foreground(red),
		track:   lipgloss.NewStyle().Foreground(lipgloss.Color("#3a3f5c")),
		muted:   lipgloss.NewStyle().Foreground(muted),
		pill:    lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("#2a184a")),
		emerg:   lipgloss.NewStyle().Padding(0, 1).Background(red).Bold(true),
		errText: lipgloss.NewStyle().Foreground(red),
	}
}

// Model is the bubbletea model of the console.
type Model struct {
	ctx     context.Context
	station Station
	loc     *time.Location

	snaps  <-chan model.Snapshot
	cancel func()

	input  textinput.Model
	view   dashboard.View
	status string
	theme  theme
	width  int
}

// New subscribes to st. Call Close (or let Run do it) to release the subscription.
func New(ctx context.Context, st Station, loc *time.Location) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Enter a command, e.g. open the airlock door"
	input.CharLimit = 512
	input.Focus()

	snaps, cancel := st.Subscribe(subscriberCh)
	return Model{
		ctx:     ctx,
		station: st,
		loc:     loc,
		snaps:   snaps,
		cancel:  cancel,
		input:   input,
		theme:   newTheme(),
		view:    dashboard.View{SubmitLabel: dashboard.SubmitIdle},
	}
}

func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitSnapshot(m.snaps))
}

func waitSnapshot(ch <-chan model.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m Model) submitCmd(text string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.station.Submit(m.ctx, text)
		return submitDoneMsg{out: out, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		snap := model.Snapshot(msg)
		if snap.Version >= m.view.Version {
			m.view = dashboard.Render(snap, m.loc)
		}
		return m, waitSnapshot(m.snaps)

	case submitDoneMsg:
		switch {
		case msg.err != nil:
			m.status = errx.MessageOf(msg.err)
		case msg.out.Failed:
			m.status = msg.out.Error
		case msg.out.Skipped:
			m.status = ""
		default:
			m.status = fmt.Sprintf("%q → %s", msg.out.Command, dashboard.IntentText(msg.out.DisplayedIntent))
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-8)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.Close()
			return m, tea.Quit
		case "enter":
			if m.view.SubmitDisabled {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if text == "" {
				return m, nil
			}
			m.status = dashboard.SubmitBusy
			return m, m.submitCmd(text)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	t := m.theme
	v := m.view
	var b strings.Builder

	b.WriteString(t.title.Render("AstroAssist Mission Control"))
	b.WriteString("  ")
	b.WriteString(t.chip.Render(v.Chips.Oxygen))
	b.WriteString(" ")
	b.WriteString(t.chip.Render(v.Chips.Battery))
	b.WriteString(" ")
	if v.EmergencyActive {
		b.WriteString(t.alert.Render(v.Chips.System))
	} else {
		b.WriteString(t.chip.Render(v.Chips.System))
	}
	b.WriteString("\n\n")

	if v.Banner.Visible {
		b.WriteString(t.banner.Render("EMERGENCY " + v.Banner.Reason))
		b.WriteString("\n\n")
	}

	gauges := make([]string, 0, len(v.Bars))
	for _, bar := range v.Bars {
		gauges = append(gauges, m.renderBar(bar))
	}
	left := t.panel.Render(strings.Join(gauges, "\n"))
	right := t.panel.Render(m.renderIntent() + "\n\n" + m.renderCounts())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	b.WriteString(t.panel.Render(m.renderHistory()))
	b.WriteString("\n")
	if len(v.AILog) > 0 {
		b.WriteString(t.panel.Render(m.renderAILog()))
		b.WriteString("\n")
	}

	b.WriteString(t.muted.Render("Status: " + v.ReasonText))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("  ")
	b.WriteString(t.muted.Render("[" + v.SubmitLabel + "]"))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(t.muted.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(t.muted.Render("enter: submit  esc: quit"))
	return b.String()
}

func (m Model) renderBar(bar dashboard.Bar) string {
	t := m.theme
	filled := int(math.Round(bar.Width / 100 * barWidth))
	filled = min(barWidth, max(0, filled))
	style := t.fill
	if bar.Danger {
		style = t.danger
	}
	track := style.Render(strings.Repeat("█", filled)) + t.track.Render(strings.Repeat("░", barWidth-filled))
	return t.label.Render(bar.Title) + track + " " + bar.Value
}

func (m Model) renderIntent() string {
	t := m.theme
	pill := t.pill
	if m.view.Intent.Text == "emergency" {
		pill = t.emerg
	}
	last := m.view.LastCommand
	if last == "" {
		last = "—"
	}
	return "Last command: " + last + "\nIntent: " + pill.Render(m.view.Intent.Text)
}

func (m Model) renderCounts() string {
	lines := make([]string, 0, len(m.view.Chart.Labels))
	for i, label := range m.view.Chart.Labels {
		n := 0
		if i < len(m.view.Chart.Series) {
			n = m.view.Chart.Series[i]
		}
		lines = append(lines, fmt.Sprintf("%-16s %s %d", label, strings.Repeat("▪", min(n, 20)), n))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHistory() string {
	t := m.theme
	if len(m.view.History) == 0 {
		return t.muted.Render("No commands yet")
	}
	rows := m.view.History
	if len(rows) > historyRows {
		rows = rows[:historyRows]
	}
	lines := make([]string, 0, len(rows))
	for _, h := range rows {
		line := fmt.Sprintf("%s  %-32s %s", h.Time, h.Command, h.Intent)
		if h.Reason != "" {
			line += "  " + t.errText.Render(h.Reason)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAILog() string {
	rows := m.view.AILog
	if len(rows) > aiLogRows {
		rows = rows[:aiLogRows]
	}
	return strings.Join(rows, "\n")
}

// Run drives the console until the user quits or ctx is done.
func Run(ctx context.Context, st Station, loc *time.Location) error {
	m := New(ctx, st, loc)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
