// Package dashboard projects application snapshots onto what a client shows.
// Render is pure: the same snapshot always yields the same view.
package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/AstroAssist-core/server/internal/mission/history"
	"github.com/AstroAssist-core/server/internal/mission/model"
)

const (
	SystemOnline = "System: ONLINE"
	SystemAlert  = "System: ALERT"

	SubmitIdle = "Analyze"
	SubmitBusy = "Analyzing…"

	noReason = "—"
	aiPrefix = "🤖 AI SYSTEM → "
)

type gauge struct {
	title  string
	value  func(v float64) string
	width  func(v float64) float64
	danger func(v float64) bool
}

// Display thresholds are independent of the emergency thresholds.
var gauges = map[model.Field]gauge{
	model.FieldOxygen: {
		title:  "Oxygen",
		value:  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		width:  func(v float64) float64 { return v },
		danger: func(v float64) bool { return v < 30 },
	},
	model.FieldPressure: {
		title:  "Pressure",
		value:  func(v float64) string { return fmt.Sprintf("%.1f kPa", v) },
		width:  func(v float64) float64 { return v / 110 * 100 },
		danger: func(v float64) bool { return v < 90 },
	},
	model.FieldPower: {
		title:  "Power",
		value:  func(v float64) string { return fmt.Sprintf("%d%%", round(v)) },
		width:  func(v float64) float64 { return v },
		danger: func(v float64) bool { return v < 20 },
	},
	model.FieldTemperature: {
		title:  "Temperature",
		value:  func(v float64) string { return fmt.Sprintf("%.1f °C", v) },
		width:  func(v float64) float64 { return (v + 10) / 55 * 100 },
		danger: func(v float64) bool { return v < 0 || v > 45 },
	},
	model.FieldRadiation: {
		title:  "Radiation",
		value:  func(v float64) string { return fmt.Sprintf("%.2f mSv", v) },
		width:  func(v float64) float64 { return v / 8 * 100 },
		danger: func(v float64) bool { return v > 5 },
	},
	model.FieldCO2: {
		title:  "CO₂",
		value:  func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
		width:  func(v float64) float64 { return v / 2 * 100 },
		danger: func(v float64) bool { return v > 1.5 },
	},
}

// Render builds the view of s. Times are formatted in loc (UTC when nil).
func Render(s model.Snapshot, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}
	active := s.Emergency.Active()

	v := View{
		Version:         s.Version,
		Bars:            renderBars(s.Readings),
		Chips:           renderChips(s.Readings, active),
		EmergencyActive: active,
		AlarmPlaying:    active,
		ReasonText:      ReasonText(s.Emergency, s.StatusNote),
		LastCommand:     s.LastCommand,
		Intent:          renderIntent(s.LastIntent),
		Chart:           renderChart(s.Counts),
		History:         renderHistory(s.History, loc),
		AILog:           renderAILog(s.Hazards.Decisions),
		Hazards:         renderHazards(s.Hazards),
		SubmitLabel:     SubmitIdle,
		SubmitDisabled:  s.Busy,
	}
	if active {
		v.Banner = Banner{Visible: true, Reason: "— " + s.Emergency.Reason}
	}
	if s.Busy {
		v.SubmitLabel = SubmitBusy
	}
	return v
}

// ReasonText is the emergency reason line: a pending status note wins over
// the state itself.
func ReasonText(e model.EmergencyState, note string) string {
	if note != "" {
		return note
	}
	if !e.Active() {
		return noReason
	}
	origin := "intent"
	if e.Source == model.SourceSensors {
		origin = "sensors"
	}
	return fmt.Sprintf("%s (%s)", e.Reason, origin)
}

// IntentText formats a label for display.
func IntentText(label string) string {
	return strings.Replace(label, "_", " ", 1)
}

func renderBars(r model.SensorReading) []Bar {
	bars := make([]Bar, 0, len(model.FieldSpecs))
	for _, spec := range model.FieldSpecs {
		g := gauges[spec.Field]
		val := r.Get(spec.Field)
		bars = append(bars, Bar{
			Field:  string(spec.Field),
			Title:  g.title,
			Value:  g.value(val),
			Width:  clampPercent(g.width(val)),
			Danger: g.danger(val),
		})
	}
	return bars
}

func renderChips(r model.SensorReading, active bool) Chips {
	c := Chips{
		Oxygen:  fmt.Sprintf("Oxygen: %.1f%%", r.Oxygen),
		Battery: fmt.Sprintf("Battery: %d%%", round(r.Power)),
		System:  SystemOnline,
	}
	if active {
		c.System = SystemAlert
	}
	return c
}

func renderIntent(label string) IntentPill {
	switch label {
	case "":
		return IntentPill{Text: noReason, Class: "intent-pill"}
	case model.ErrorLabel:
		return IntentPill{Text: model.ErrorLabel, Class: "intent-pill"}
	}
	return IntentPill{Text: IntentText(label), Class: "intent-pill intent-" + label}
}

func renderChart(c model.IntentCounts) Chart {
	labels := make([]string, len(model.IntentLabels))
	for i, l := range model.IntentLabels {
		labels[i] = string(l)
	}
	if c == nil {
		c = model.NewIntentCounts()
	}
	return Chart{Labels: labels, Series: c.Series()}
}

func renderHistory(entries []model.HistoryEntry, loc *time.Location) []HistoryItem {
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		cmd := e.Command
		if cmd == "" {
			cmd = history.AutoSensorCommand
		}
		item := HistoryItem{
			ID:      e.ID,
			Command: cmd,
			Intent:  IntentText(e.Intent),
			Class:   "badge badge-intent intent-" + e.Intent,
			Time:    e.Timestamp.In(loc).Format("15:04"),
			Auto:    e.Auto,
		}
		if e.Reason != "" {
			item.Reason = "⚠ " + e.Reason
		}
		items = append(items, item)
	}
	return items
}

// renderAILog lists decisions newest first.
func renderAILog(ds []model.AIDecision) []string {
	out := make([]string, 0, len(ds))
	for i := len(ds) - 1; i >= 0; i-- {
		out = append(out, aiPrefix+ds[i].Message)
	}
	return out
}

func renderHazards(h model.HazardState) Hazards {
	return Hazards{
		FireLevel:  fmt.Sprintf("%d%%", round(h.FireLevel)),
		CrewHealth: fmt.Sprintf("%d%%", round(h.CrewHealth)),
		DoorLocked: h.DoorLocked,
		Shutdown:   h.Shutdown,
		Evacuation: h.Evacuation,
	}
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// round rounds half up.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
