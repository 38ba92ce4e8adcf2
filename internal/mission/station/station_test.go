package station

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/classifier"
	"github.com/AstroAssist-core/server/internal/mission/dashboard"
	"github.com/AstroAssist-core/server/internal/mission/emergency"
	"github.com/AstroAssist-core/server/internal/mission/history"
	"github.com/AstroAssist-core/server/internal/mission/model"
	"github.com/AstroAssist-core/server/internal/mission/notifier"
	"github.com/AstroAssist-core/server/internal/mission/sensors"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []model.EmergencyEvent
}

func (r *recordedEvents) Publish(_ context.Context, ev model.EmergencyEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordedEvents) list() []model.EmergencyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.EmergencyEvent(nil), r.events...)
}

func newStation(t *testing.T, reading model.SensorReading, c classifier.Classifier) (*Station, *recordedEvents) {
	t.Helper()
	ev := &recordedEvents{}
	rng := rand.New(rand.NewSource(42))
	s := New(Deps{
		Sensors:    sensors.New(reading, rng, model.SensorConfig{LeakProbability: 0}),
		Classifier: c,
		History:    history.NewLog(),
		Events:     ev,
	})
	return s, ev
}

func fixed(label string) classifier.Classifier {
	return classifier.Func(func(ctx context.Context, text string) (model.IntentResult, error) {
		return model.NewIntentResult(label), nil
	})
}

func predictServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScenarioNominalCommand(t *testing.T) {
	srv := predictServer(t, `{"predicted_intent":"control_door"}`)
	client := classifier.NewHTTPClient(model.ClassifierConfig{PredictURL: srv.URL}, srv.Client())
	s, _ := newStation(t, model.NominalReading(), client)

	out, err := s.Submit(context.Background(), "open door")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.DisplayedIntent != "control_door" || out.Emergency.Active() {
		t.Fatalf("unexpected outcome %+v", out)
	}

	snap := s.Snapshot()
	view := dashboard.Render(snap, nil)
	if view.Intent.Text != "control door" || view.Banner.Visible {
		t.Fatalf("unexpected view intent=%+v banner=%+v", view.Intent, view.Banner)
	}
	if len(snap.History) != 1 || snap.History[0].Intent != "control_door" || snap.History[0].Command != "open door" {
		t.Fatalf("history = %+v", snap.History)
	}
	if snap.Counts[model.IntentControlDoor] != 1 {
		t.Fatalf("counts = %v", snap.Counts)
	}
}

func TestScenarioSensorEmergencyForcesIntent(t *testing.T) {
	srv := predictServer(t, `{"intent":"ask_info"}`)
	client := classifier.NewHTTPClient(model.ClassifierConfig{PredictURL: srv.URL}, srv.Client())
	reading := model.NominalReading()
	reading.Oxygen = 20
	s, _ := newStation(t, reading, client)

	out, err := s.Submit(context.Background(), "what is the crew schedule")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	want := model.EmergencyState{Reason: "Low oxygen (< 30%)", Source: model.SourceSensors}
	if out.Emergency != want || out.DisplayedIntent != "emergency" {
		t.Fatalf("outcome = %+v", out)
	}

	snap := s.Snapshot()
	view := dashboard.Render(snap, nil)
	if !view.Banner.Visible || view.Banner.Reason != "— Low oxygen (< 30%)" {
		t.Fatalf("banner = %+v", view.Banner)
	}
	if view.Intent.Text != "emergency" {
		t.Fatalf("intent = %+v", view.Intent)
	}
	if snap.Counts[model.IntentEmergency] != 1 || snap.Counts[model.IntentAskInfo] != 0 {
		t.Fatalf("counts = %v", snap.Counts)
	}
}

func TestScenarioPredictionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	client := classifier.NewHTTPClient(model.ClassifierConfig{PredictURL: url}, nil)
	s, ev := newStation(t, model.NominalReading(), client)

	out, err := s.Submit(context.Background(), "open door")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !out.Failed || out.Error != errx.RequestFailureMessage {
		t.Fatalf("outcome = %+v", out)
	}

	snap := s.Snapshot()
	view := dashboard.Render(snap, nil)
	if view.Intent.Text != "Error" || view.ReasonText != "Prediction failed" {
		t.Fatalf("view intent=%+v reason=%q", view.Intent, view.ReasonText)
	}
	if len(snap.History) != 0 {
		t.Fatalf("history should be empty, got %+v", snap.History)
	}
	if diff := cmp.Diff([]int{0, 0, 0, 0, 0}, snap.Counts.Series()); diff != "" {
		t.Fatalf("counts changed (-want +got):\n%s", diff)
	}
	if snap.Busy {
		t.Fatal("station still busy after failure")
	}
	if len(ev.list()) != 0 {
		t.Fatalf("unexpected events %+v", ev.list())
	}
}

func TestStatusNoteClearedByAppliedTick(t *testing.T) {
	failing := classifier.Func(func(ctx context.Context, text string) (model.IntentResult, error) {
		return model.IntentResult{}, errx.RequestFailure(errors.New("boom"))
	})
	s, _ := newStation(t, model.NominalReading(), failing)

	if _, err := s.Submit(context.Background(), "status"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if s.Snapshot().StatusNote != StatusPredictionFailed {
		t.Fatal("expected status note after failure")
	}
	s.Tick(context.Background())
	if note := s.Snapshot().StatusNote; note != "" {
		t.Fatalf("status note = %q after tick", note)
	}
}

func TestModelEmergencySurvivesTicks(t *testing.T) {
	s, ev := newStation(t, model.NominalReading(), fixed("emergency"))

	out, err := s.Submit(context.Background(), "we need help now")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	want := model.EmergencyState{Reason: emergency.ReasonModel, Source: model.SourceModel}
	if out.Emergency != want {
		t.Fatalf("emergency = %+v, want %+v", out.Emergency, want)
	}

	for i := 0; i < 5; i++ {
		s.Tick(context.Background())
	}
	if got := s.Snapshot().Emergency; got != want {
		t.Fatalf("model emergency cleared by ticks: %+v", got)
	}

	s.classifier = fixed("check_status")
	if _, err := s.Submit(context.Background(), "status"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if s.Snapshot().Emergency.Active() {
		t.Fatal("submission should clear the model emergency")
	}
	if n := len(ev.list()); n != 2 {
		t.Fatalf("events = %d, want raise and clear", n)
	}
}

func TestSensorEmergencyClearsOnTick(t *testing.T) {
	s, ev := newStation(t, model.NominalReading(), fixed("ask_info"))
	low := 20.0
	s.ApplyFeed(model.SensorUpdate{Oxygen: &low})

	s.Tick(context.Background())
	snap := s.Snapshot()
	if snap.Emergency.Source != model.SourceSensors || snap.Emergency.Reason != sensors.ReasonLowOxygen {
		t.Fatalf("emergency = %+v", snap.Emergency)
	}
	if len(snap.History) != 1 || !snap.History[0].Auto || snap.History[0].Reason != sensors.ReasonLowOxygen {
		t.Fatalf("auto history entry missing: %+v", snap.History)
	}
	if snap.Counts[model.IntentEmergency] != 0 {
		t.Fatal("auto sensor events must not be counted")
	}

	if snap.Readings.Oxygen <= low {
		t.Fatalf("oxygen = %v, want boosted above %v", snap.Readings.Oxygen, low)
	}

	// a second violating tick does not add another auto entry
	s.ApplyFeed(model.SensorUpdate{Oxygen: &low})
	s.Tick(context.Background())
	if n := len(s.Snapshot().History); n != 1 {
		t.Fatalf("history len = %d, want 1", n)
	}

	ok := 90.0
	s.ApplyFeed(model.SensorUpdate{Oxygen: &ok})
	s.Tick(context.Background())
	if s.Snapshot().Emergency.Active() {
		t.Fatal("sensor emergency should clear when readings recover")
	}

	events := ev.list()
	if len(events) != 2 || events[0].To.Source != model.SourceSensors || events[1].To.Active() {
		t.Fatalf("events = %+v", events)
	}
}

func TestLowOxygenTickBoostsReading(t *testing.T) {
	s, _ := newStation(t, model.NominalReading(), fixed("ask_info"))
	low := 20.0
	s.ApplyFeed(model.SensorUpdate{Oxygen: &low})

	snap := s.Tick(context.Background())
	if snap.Readings.Oxygen < 30 {
		t.Fatalf("oxygen = %v, want boost applied", snap.Readings.Oxygen)
	}
	var boosted bool
	for _, d := range snap.Hazards.Decisions {
		if d.Trigger == model.TriggerOxygenBoost && d.OxygenBoost == notifier.OxygenBoostAmount {
			boosted = true
		}
	}
	if !boosted {
		t.Fatalf("decisions = %+v, want oxygen boost", snap.Hazards.Decisions)
	}
}

func TestFeedDoesNotRecomputeEmergency(t *testing.T) {
	s, _ := newStation(t, model.NominalReading(), fixed("ask_info"))
	low := 5.0
	snap := s.ApplyFeed(model.SensorUpdate{Oxygen: &low})
	if snap.Readings.Oxygen != 5 {
		t.Fatalf("oxygen = %v, want unclamped 5", snap.Readings.Oxygen)
	}
	if snap.Emergency.Active() {
		t.Fatal("feed update should wait for the next tick")
	}
}

func TestSubmitSkipsBlank(t *testing.T) {
	called := false
	c := classifier.Func(func(ctx context.Context, text string) (model.IntentResult, error) {
		called = true
		return model.IntentResult{}, nil
	})
	s, _ := newStation(t, model.NominalReading(), c)

	out, err := s.Submit(context.Background(), "   \t")
	if err != nil || !out.Skipped {
		t.Fatalf("Submit() = %+v, %v", out, err)
	}
	if called || s.Snapshot().Version != 0 {
		t.Fatal("blank submission must have no side effects")
	}
}

func TestSubmitBusy(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	c := classifier.Func(func(ctx context.Context, text string) (model.IntentResult, error) {
		close(entered)
		<-release
		return model.NewIntentResult("check_status"), nil
	})
	s, _ := newStation(t, model.NominalReading(), c)

	done := make(chan Outcome)
	go func() {
		out, _ := s.Submit(context.Background(), "status")
		done <- out
	}()
	<-entered

	if !s.Snapshot().Busy {
		t.Fatal("station should be busy while classifying")
	}
	if _, err := s.Submit(context.Background(), "status again"); errx.KindOf(err) != errx.KindBusy {
		t.Fatalf("second Submit() error = %v, want busy", err)
	}

	close(release)
	out := <-done
	if out.DisplayedIntent != "check_status" {
		t.Fatalf("outcome = %+v", out)
	}
	if s.Snapshot().Counts[model.IntentCheckStatus] != 1 {
		t.Fatal("only the first submission should count")
	}
}

func TestClassifierPanicReleasesBusy(t *testing.T) {
	var calls int
	c := classifier.Func(func(ctx context.Context, text string) (model.IntentResult, error) {
		calls++
		if calls == 1 {
			panic("nil model response")
		}
		return model.NewIntentResult("check_status"), nil
	})
	s, _ := newStation(t, model.NominalReading(), c)

	out, err := s.Submit(context.Background(), "status")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !out.Failed || out.Error != errx.RequestFailureMessage {
		t.Fatalf("outcome = %+v", out)
	}
	snap := s.Snapshot()
	if snap.Busy {
		t.Fatal("station still busy after classifier panic")
	}
	if snap.LastIntent != model.ErrorLabel || snap.StatusNote != StatusPredictionFailed {
		t.Fatalf("last intent = %q note = %q", snap.LastIntent, snap.StatusNote)
	}

	out, err = s.Submit(context.Background(), "status")
	if err != nil || out.DisplayedIntent != "check_status" {
		t.Fatalf("Submit() after panic = %+v, %v", out, err)
	}
}

func TestUnknownLabelDisplayedNotCounted(t *testing.T) {
	s, _ := newStation(t, model.NominalReading(), fixed("make_coffee"))
	out, err := s.Submit(context.Background(), "brew")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.DisplayedIntent != "make_coffee" || out.Counted {
		t.Fatalf("outcome = %+v", out)
	}
	snap := s.Snapshot()
	if snap.LastIntent != "make_coffee" || len(snap.History) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if diff := cmp.Diff([]int{0, 0, 0, 0, 0}, snap.Counts.Series()); diff != "" {
		t.Fatalf("counts changed (-want +got):\n%s", diff)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	s, _ := newStation(t, model.NominalReading(), fixed("ask_info"))
	ch, cancel := s.Subscribe(8)

	first := <-ch
	if first.Version != 0 {
		t.Fatalf("initial version = %d", first.Version)
	}
	s.Tick(context.Background())
	select {
	case snap := <-ch:
		if snap.Version != 1 {
			t.Fatalf("version = %d, want 1", snap.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot after tick")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}
	s.Tick(context.Background())
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newStation(t, model.NominalReading(), fixed("ask_info"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for s.Snapshot().Version < 2 {
		select {
		case <-deadline:
			t.Fatal("ticker did not advance the station")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
