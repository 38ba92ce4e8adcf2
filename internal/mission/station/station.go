// Package station owns the whole application state. Every mutation (sensor
// ticks, feed updates, command submissions) goes through one Station, which
// serialises them and fans snapshots out to subscribers.
package station

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/classifier"
	"github.com/AstroAssist-core/server/internal/mission/emergency"
	"github.com/AstroAssist-core/server/internal/mission/history"
	"github.com/AstroAssist-core/server/internal/mission/model"
	"github.com/AstroAssist-core/server/internal/mission/notifier"
	"github.com/AstroAssist-core/server/internal/mission/sensors"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// StatusPredictionFailed replaces the emergency reason line after a failed classification.
const StatusPredictionFailed = "Prediction failed"

// Classification outcomes reported to the Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// EventPublisher receives emergency state transitions.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.EmergencyEvent)
}

// Recorder receives metrics.
type Recorder interface {
	ObserveTick(r model.SensorReading)
	ObserveReadings(r model.SensorReading)
	ObserveClassification(outcome string, elapsed time.Duration)
	ObserveIntent(label string)
	SetEmergency(s model.EmergencyState)
	ObserveDecision(t model.Trigger)
}

// Deps are the collaborators of a Station. Sensors, Classifier and History
// are required; everything else falls back to a default or a no-op.
type Deps struct {
	Sensors    *sensors.Model
	Controller *emergency.Controller
	Classifier classifier.Classifier
	History    *history.Log
	Hazards    *notifier.Engine
	Speaker    notifier.Speaker
	Events     EventPublisher
	Metrics    Recorder
	Now        func() time.Time
}

// Outcome describes what happened to one submitted command.
type Outcome struct {
	Skipped         bool                 `json:"skipped,omitempty"`
	Failed          bool                 `json:"failed,omitempty"`
	Error           string               `json:"error,omitempty"`
	Command         string               `json:"command,omitempty"`
	Intent          model.IntentResult   `json:"intent"`
	DisplayedIntent string               `json:"displayed_intent,omitempty"`
	Counted         bool                 `json:"counted,omitempty"`
	Emergency       model.EmergencyState `json:"emergency"`
	Entry           *model.HistoryEntry  `json:"entry,omitempty"`
}

type Station struct {
	mu sync.Mutex

	sensors    *sensors.Model
	controller *emergency.Controller
	classifier classifier.Classifier
	history    *history.Log
	hazards    *notifier.Engine
	speaker    notifier.Speaker
	events     EventPublisher
	metrics    Recorder
	now        func() time.Time

	version     uint64
	counts      model.IntentCounts
	lastCommand string
	lastIntent  string
	statusNote  string
	busy        bool

	subMu   sync.Mutex
	subs    map[int]chan model.Snapshot
	nextSub int
}

func New(d Deps) *Station {
	s := &Station{
		sensors:    d.Sensors,
		controller: d.Controller,
		classifier: d.Classifier,
		history:    d.History,
		hazards:    d.Hazards,
		speaker:    d.Speaker,
		events:     d.Events,
		metrics:    d.Metrics,
		now:        d.Now,
		counts:     model.NewIntentCounts(),
		subs:       map[int]chan model.Snapshot{},
	}
	if s.controller == nil {
		s.controller = emergency.NewController()
	}
	if s.hazards == nil {
		s.hazards = notifier.NewEngine(model.DefaultHazardConfig(), nil)
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Station) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Station) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Version:     s.version,
		At:          s.now(),
		Readings:    s.sensors.Reading(),
		Emergency:   s.controller.State(),
		Counts:      s.counts.Clone(),
		History:     s.history.Entries(),
		LastCommand: s.lastCommand,
		LastIntent:  s.lastIntent,
		StatusNote:  s.statusNote,
		Busy:        s.busy,
		Hazards:     s.hazards.State(),
	}
}

// commitLocked bumps the version and returns the resulting snapshot.
func (s *Station) commitLocked() model.Snapshot {
	s.version++
	return s.snapshotLocked()
}

// Tick advances the sensors and the hazard engine by one step and re-evaluates
// the emergency state.
func (s *Station) Tick(ctx context.Context) model.Snapshot {
	s.mu.Lock()
	reading := s.sensors.Tick()
	reason := s.sensors.EmergencyReason()

	prev := s.controller.State()
	state, applied := s.controller.Tick(reason)
	if applied {
		s.statusNote = ""
	}
	if state.Source == model.SourceSensors && prev.Source != model.SourceSensors {
		s.history.Append(ctx, model.HistoryEntry{
			Auto:   true,
			Intent: string(model.IntentEmergency),
			Reason: state.Reason,
		})
	}

	fired := s.hazards.Step(reading)
	for _, d := range fired {
		if d.OxygenBoost > 0 {
			reading = s.sensors.BoostOxygen(d.OxygenBoost)
		}
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.metrics.ObserveTick(reading)
	s.metrics.SetEmergency(state)
	for _, d := range fired {
		s.metrics.ObserveDecision(d.Trigger)
	}
	notifier.Announce(ctx, s.speaker, fired)
	s.publishTransition(ctx, prev, state)
	s.broadcast(snap)
	return snap
}

// ApplyFeed overwrites readings from an external feed. The emergency state is
// re-evaluated on the next tick.
func (s *Station) ApplyFeed(u model.SensorUpdate) model.Snapshot {
	s.mu.Lock()
	reading := s.sensors.ApplyExternalUpdate(u)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.metrics.ObserveReadings(reading)
	s.broadcast(snap)
	return snap
}

// Submit classifies text and applies the result. Blank text is skipped
// without side effects; a second submission while one is in flight fails with
// errx.KindBusy. Classification failures are reported in the Outcome, never
// as an error.
func (s *Station) Submit(ctx context.Context, text string) (Outcome, error) {
	command := strings.TrimSpace(text)
	if command == "" {
		return Outcome{Skipped: true}, nil
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Outcome{}, errx.Busy()
	}
	s.busy = true
	snap := s.commitLocked()
	s.mu.Unlock()
	s.broadcast(snap)

	start := time.Now()
	result, err := s.classify(ctx, command)
	elapsed := time.Since(start)

	if err != nil {
		return s.fail(command, err, elapsed), nil
	}
	return s.apply(ctx, command, result, elapsed), nil
}

// classify runs the classifier, turning a panic into a request failure so
// the busy flag is always released.
func (s *Station) classify(ctx context.Context, command string) (result model.IntentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("command", command).Interface("panic", r).Msg("classifier panicked")
			err = errx.RequestFailure(fmt.Errorf("classifier panicked: %v", r))
		}
	}()
	return s.classifier.Classify(ctx, command)
}

func (s *Station) fail(command string, err error, elapsed time.Duration) Outcome {
	logx.Warn().Err(err).Str("command", command).Msg("classification failed")

	s.mu.Lock()
	s.busy = false
	s.lastIntent = model.ErrorLabel
	s.statusNote = StatusPredictionFailed
	state := s.controller.State()
	snap := s.commitLocked()
	s.mu.Unlock()

	s.metrics.ObserveClassification(OutcomeFailure, elapsed)
	s.broadcast(snap)
	return Outcome{
		Failed:    true,
		Error:     errx.MessageOf(err),
		Command:   command,
		Emergency: state,
	}
}

func (s *Station) apply(ctx context.Context, command string, result model.IntentResult, elapsed time.Duration) Outcome {
	s.mu.Lock()
	s.busy = false
	prev := s.controller.State()
	d := s.controller.Submit(s.sensors.EmergencyReason(), result)
	s.statusNote = ""
	counted := s.counts.Increment(d.DisplayedIntent)
	s.lastCommand = command
	s.lastIntent = d.DisplayedIntent
	entry := s.history.Append(ctx, model.HistoryEntry{
		Command: command,
		Intent:  d.DisplayedIntent,
		Reason:  d.State.Reason,
	})
	snap := s.commitLocked()
	s.mu.Unlock()

	logx.Info().
		Str("command", command).
		Str("intent", d.DisplayedIntent).
		Str("model_label", result.RawModelLabel).
		Str("emergency_source", string(d.State.Source)).
		Msg("command classified")

	s.metrics.ObserveClassification(OutcomeSuccess, elapsed)
	if counted {
		s.metrics.ObserveIntent(d.DisplayedIntent)
	}
	s.metrics.SetEmergency(d.State)
	s.publishTransition(ctx, prev, d.State)
	s.broadcast(snap)

	return Outcome{
		Command:         command,
		Intent:          result,
		DisplayedIntent: d.DisplayedIntent,
		Counted:         counted,
		Emergency:       d.State,
		Entry:           &entry,
	}
}

func (s *Station) publishTransition(ctx context.Context, from, to model.EmergencyState) {
	if from == to {
		return
	}
	s.events.Publish(ctx, model.EmergencyEvent{
		ID:     uuid.NewString(),
		From:   from,
		To:     to,
		Reason: to.Reason,
		Source: to.Source,
		At:     s.now(),
	})
}

// Run ticks every interval until ctx is done.
func (s *Station) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Subscribe returns a channel receiving every new snapshot, starting with the
// current one. Slow subscribers miss intermediate snapshots. cancel closes the
// channel.
func (s *Station) Subscribe(buffer int) (<-chan model.Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan model.Snapshot, buffer)

	s.subMu.Lock()
	ch <- s.Snapshot()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Station) broadcast(snap model.Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			logx.Debug().Int("subscriber", id).Uint64("version", snap.Version).Msg("subscriber full, snapshot dropped")
		}
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.EmergencyEvent) {}

type nopRecorder struct{}

func (nopRecorder) ObserveTick(model.SensorReading) {}
func (nopRecorder) ObserveReadings(model.SensorReading) {}
func (nopRecorder) ObserveClassification(string, time.Duration) {}
func (nopRecorder) ObserveIntent(string) {}
func (nopRecorder) SetEmergency(model.EmergencyState) {}
func (nopRecorder) ObserveDecision(model.Trigger) {}
