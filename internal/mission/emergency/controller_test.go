package emergency

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AstroAssist-core/server/internal/mission/model"
	"github.com/AstroAssist-core/server/internal/mission/sensors"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		sensor string
		intent model.IntentResult
		want   Decision
	}{
		{
			name:   "nominal",
			intent: model.NewIntentResult("control_door"),
			want:   Decision{State: model.Normal, DisplayedIntent: "control_door"},
		},
		{
			name:   "model only",
			intent: model.NewIntentResult("emergency"),
			want: Decision{
				State:           model.EmergencyState{Reason: ReasonModel, Source: model.SourceModel},
				DisplayedIntent: "emergency",
			},
		},
		{
			name:   "sensor only forces emergency intent",
			sensor: sensors.ReasonLowOxygen,
			intent: model.NewIntentResult("ask_info"),
			want: Decision{
				State:           model.EmergencyState{Reason: sensors.ReasonLowOxygen, Source: model.SourceSensors},
				DisplayedIntent: "emergency",
			},
		},
		{
			name:   "both joins reasons and attributes sensors",
			sensor: sensors.ReasonRadiation,
			intent: model.NewIntentResult("emergency"),
			want: Decision{
				State: model.EmergencyState{
					Reason: ReasonModel + " + " + sensors.ReasonRadiation,
					Source: model.SourceSensors,
				},
				DisplayedIntent: "emergency",
			},
		},
		{
			name:   "unknown label keeps raw text",
			intent: model.NewIntentResult("greet"),
			want:   Decision{State: model.Normal, DisplayedIntent: "greet"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.sensor, tt.intent)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveBothContainsBothSubReasons(t *testing.T) {
	d := Resolve(sensors.ReasonLowOxygen, model.NewIntentResult("emergency"))
	parts := strings.Split(d.State.Reason, " + ")
	if len(parts) != 2 || parts[0] != ReasonModel || parts[1] != sensors.ReasonLowOxygen {
		t.Fatalf("unexpected joined reason %q", d.State.Reason)
	}
}

func TestModelEmergencySurvivesTicks(t *testing.T) {
	c := NewController()
	c.Submit("", model.NewIntentResult("emergency"))

	for i := 0; i < 5; i++ {
		state, applied := c.Tick("")
		if applied {
			t.Fatalf("tick %d: did not expect a model emergency to be rewritten", i)
		}
		if state.Source != model.SourceModel || state.Reason != ReasonModel {
			t.Fatalf("tick %d: expected model emergency to stay active, got %+v", i, state)
		}
	}

	if d := c.Submit("", model.NewIntentResult("check_status")); d.State.Active() {
		t.Fatalf("expected a new submission to clear the model emergency, got %+v", d.State)
	}
}

func TestSensorEmergencyClearsOnSafeTick(t *testing.T) {
	c := NewController()

	state, applied := c.Tick(sensors.ReasonCO2)
	if !applied || state.Source != model.SourceSensors || state.Reason != sensors.ReasonCO2 {
		t.Fatalf("expected sensor emergency, got %+v applied=%v", state, applied)
	}

	state, applied = c.Tick("")
	if !applied || state.Active() {
		t.Fatalf("expected sensor emergency to clear, got %+v applied=%v", state, applied)
	}
}

func TestSensorTickOverridesModelEmergency(t *testing.T) {
	c := NewController()
	c.Submit("", model.NewIntentResult("emergency"))

	state, _ := c.Tick(sensors.ReasonLowPower)
	if state.Source != model.SourceSensors {
		t.Fatalf("expected sensors to take over attribution, got %+v", state)
	}
	if state, _ = c.Tick(""); state.Active() {
		t.Fatalf("expected the now sensor-sourced emergency to clear, got %+v", state)
	}
}

func TestSubmissionWithSensorEmergencyThenSafeTick(t *testing.T) {
	c := NewController()
	c.Submit(sensors.ReasonLowOxygen, model.NewIntentResult("emergency"))

	if state, _ := c.Tick(""); state.Active() {
		t.Fatalf("expected joint sensor-attributed emergency to clear, got %+v", state)
	}
}
