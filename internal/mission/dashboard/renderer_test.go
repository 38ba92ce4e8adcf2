package dashboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/AstroAssist-core/server/internal/mission/model"
)

func baseSnapshot() model.Snapshot {
	return model.Snapshot{
		Version:  7,
		Readings: model.NominalReading(),
		Counts:   model.NewIntentCounts(),
		Hazards:  model.InitialHazardState(),
	}
}

func TestRenderNominal(t *testing.T) {
	v := Render(baseSnapshot(), nil)

	if v.EmergencyActive || v.AlarmPlaying || v.Banner.Visible {
		t.Fatalf("nominal snapshot rendered as emergency: %+v", v)
	}
	if v.ReasonText != "—" {
		t.Fatalf("ReasonText = %q, want —", v.ReasonText)
	}
	wantChips := Chips{Oxygen: "Oxygen: 98.0%", Battery: "Battery: 90%", System: "System: ONLINE"}
	if diff := cmp.Diff(wantChips, v.Chips); diff != "" {
		t.Fatalf("chips mismatch (-want +got):\n%s", diff)
	}
	if v.SubmitLabel != "Analyze" || v.SubmitDisabled {
		t.Fatalf("submit = %q disabled=%v", v.SubmitLabel, v.SubmitDisabled)
	}
	if v.Intent.Text != "—" {
		t.Fatalf("intent text = %q", v.Intent.Text)
	}
}

func TestRenderBars(t *testing.T) {
	s := baseSnapshot()
	s.Readings = model.SensorReading{
		Oxygen:      25.04,
		Pressure:    88,
		Power:       19.5,
		Temperature: 50,
		Radiation:   6,
		CO2:         1.2,
	}

	want := []Bar{
		{Field: "oxygen", Title: "Oxygen", Value: "25.0%", Width: 25.04, Danger: true},
		{Field: "pressure", Title: "Pressure", Value: "88.0 kPa", Width: 80, Danger: true},
		{Field: "power", Title: "Power", Value: "20%", Width: 19.5, Danger: true},
		{Field: "temperature", Title: "Temperature", Value: "50.0 °C", Width: 100, Danger: true},
		{Field: "radiation", Title: "Radiation", Value: "6.00 mSv", Width: 75, Danger: true},
		{Field: "co2", Title: "CO₂", Value: "1.20%", Width: 60, Danger: false},
	}
	got := Render(s, nil).Bars
	approx := cmp.Comparer(func(a, b float64) bool { d := a - b; return d < 1e-9 && d > -1e-9 })
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Fatalf("bars mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderEmergency(t *testing.T) {
	tests := []struct {
		name       string
		state      model.EmergencyState
		note       string
		wantReason string
	}{
		{"sensors", model.NewEmergency("Low oxygen (< 30%)", model.SourceSensors), "", "Low oxygen (< 30%) (sensors)"},
		{"model", model.NewEmergency("Model detected emergency command", model.SourceModel), "", "Model detected emergency command (intent)"},
		{"note wins", model.NewEmergency("Cabin pressure low", model.SourceSensors), "Prediction failed", "Prediction failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSnapshot()
			s.Emergency = tt.state
			s.StatusNote = tt.note
			v := Render(s, nil)
			if !v.EmergencyActive || !v.AlarmPlaying {
				t.Fatal("expected active emergency with alarm")
			}
			if v.Chips.System != "System: ALERT" {
				t.Fatalf("system chip = %q", v.Chips.System)
			}
			if want := "— " + tt.state.Reason; v.Banner.Reason != want || !v.Banner.Visible {
				t.Fatalf("banner = %+v, want %q", v.Banner, want)
			}
			if v.ReasonText != tt.wantReason {
				t.Fatalf("ReasonText = %q, want %q", v.ReasonText, tt.wantReason)
			}
		})
	}
}

func TestRenderIntentPill(t *testing.T) {
	tests := []struct {
		label string
		want  IntentPill
	}{
		{"control_door", IntentPill{Text: "control door", Class: "intent-pill intent-control_door"}},
		{"emergency", IntentPill{Text: "emergency", Class: "intent-pill intent-emergency"}},
		{"Error", IntentPill{Text: "Error", Class: "intent-pill"}},
		{"make_coffee_now", IntentPill{Text: "make coffee_now", Class: "intent-pill intent-make_coffee_now"}},
	}
	for _, tt := range tests {
		s := baseSnapshot()
		s.LastIntent = tt.label
		if got := Render(s, nil).Intent; got != tt.want {
			t.Errorf("intent %q rendered %+v, want %+v", tt.label, got, tt.want)
		}
	}
}

func TestRenderChartHistoryAndAILog(t *testing.T) {
	s := baseSnapshot()
	s.Counts.Increment("control_door")
	s.Counts.Increment("control_door")
	s.Counts.Increment("emergency")
	at := time.Date(2031, 5, 4, 9, 5, 0, 0, time.UTC)
	s.History = []model.HistoryEntry{
		{ID: "b", Auto: true, Intent: "emergency", Reason: "Low oxygen (< 30%)", Timestamp: at},
		{ID: "a", Command: "open door", Intent: "control_door", Timestamp: at},
	}
	s.Hazards.Decisions = []model.AIDecision{
		{Trigger: model.TriggerOxygenBoost, Message: "first"},
		{Trigger: model.TriggerShutdown, Message: "second"},
	}

	v := Render(s, nil)
	wantChart := Chart{
		Labels: []string{"check_status", "control_door", "system_control", "ask_info", "emergency"},
		Series: []int{0, 2, 0, 0, 1},
	}
	if diff := cmp.Diff(wantChart, v.Chart); diff != "" {
		t.Fatalf("chart mismatch (-want +got):\n%s", diff)
	}
	wantHistory := []HistoryItem{
		{ID: "b", Command: "— AUTO SENSOR EVENT —", Intent: "emergency", Class: "badge badge-intent intent-emergency", Time: "09:05", Reason: "⚠ Low oxygen (< 30%)", Auto: true},
		{ID: "a", Command: "open door", Intent: "control door", Class: "badge badge-intent intent-control_door", Time: "09:05"},
	}
	if diff := cmp.Diff(wantHistory, v.History); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"🤖 AI SYSTEM → second", "🤖 AI SYSTEM → first"}, v.AILog); diff != "" {
		t.Fatalf("ai log mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderBusy(t *testing.T) {
	s := baseSnapshot()
	s.Busy = true
	v := Render(s, nil)
	if v.SubmitLabel != "Analyzing…" || !v.SubmitDisabled {
		t.Fatalf("submit = %q disabled=%v", v.SubmitLabel, v.SubmitDisabled)
	}
}
