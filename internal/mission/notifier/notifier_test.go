package notifier

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/AstroAssist-core/server/internal/mission/model"
)

func newTestEngine(seed int64) *Engine {
	return NewEngine(model.DefaultHazardConfig(), rand.New(rand.NewSource(seed)))
}

func triggers(ds []model.AIDecision) []model.Trigger {
	out := make([]model.Trigger, len(ds))
	for i, d := range ds {
		out[i] = d.Trigger
	}
	return out
}

func TestStepNominalFiresNothing(t *testing.T) {
	e := newTestEngine(1)
	for i := 0; i < 5; i++ {
		if got := e.Step(model.NominalReading()); len(got) != 0 {
			t.Fatalf("step %d fired %v", i, triggers(got))
		}
	}
	st := e.State()
	if st.CrewHealth != 100 {
		t.Fatalf("crew health = %v, want 100", st.CrewHealth)
	}
	if st.FireLevel < 0 || st.FireLevel > 25 {
		t.Fatalf("fire level %v out of expected range", st.FireLevel)
	}
}

func TestLowOxygenBoostFiresOnce(t *testing.T) {
	e := newTestEngine(2)
	r := model.NominalReading()
	r.Oxygen = 20

	first := e.Step(r)
	if len(first) != 1 || first[0].Trigger != model.TriggerOxygenBoost {
		t.Fatalf("first step fired %v, want oxygen boost", triggers(first))
	}
	if first[0].Alert != "Warning! Oxygen levels critical. Emergency oxygen boost activated." {
		t.Fatalf("unexpected alert %q", first[0].Alert)
	}
	if first[0].OxygenBoost != OxygenBoostAmount {
		t.Fatalf("oxygen boost = %v, want %v", first[0].OxygenBoost, OxygenBoostAmount)
	}
	if got := e.Step(r); len(got) != 0 {
		t.Fatalf("second step fired %v", triggers(got))
	}
	if e.State().CrewHealth != 90 {
		t.Fatalf("crew health = %v, want 90", e.State().CrewHealth)
	}
}

func TestCrewHealthEvacuation(t *testing.T) {
	e := newTestEngine(3)
	r := model.NominalReading()
	r.Oxygen = 10

	var evacuatedAt int
	for i := 1; i <= 20 && evacuatedAt == 0; i++ {
		for _, d := range e.Step(r) {
			if d.Trigger == model.TriggerEvacuation {
				evacuatedAt = i
			}
		}
	}
	// 100 - 5*13 = 35 is the first value below 40
	if evacuatedAt != 13 {
		t.Fatalf("evacuation at step %d, want 13", evacuatedAt)
	}
	if !e.State().Evacuation {
		t.Fatal("evacuation flag not latched")
	}
}

func TestRadiationShutdown(t *testing.T) {
	e := newTestEngine(4)
	r := model.NominalReading()
	r.Radiation = 7.5
	got := e.Step(r)
	if len(got) != 1 || got[0].Trigger != model.TriggerShutdown {
		t.Fatalf("fired %v, want shutdown", triggers(got))
	}
	if got[0].Message != "☢ Radiation extreme → SYSTEM SHUTDOWN initiated" {
		t.Fatalf("unexpected message %q", got[0].Message)
	}
}

func TestFireDoorLockEventually(t *testing.T) {
	e := newTestEngine(5)
	// force the fire upwards
	e.state.FireLevel = 58
	e.rng = rand.New(alwaysLow{})
	got := e.Step(model.NominalReading())
	if len(got) != 1 || got[0].Trigger != model.TriggerDoorLock {
		t.Fatalf("fired %v, want door lock", triggers(got))
	}
	if e.State().FireLevel != 63 {
		t.Fatalf("fire level = %v, want 63", e.State().FireLevel)
	}
}

type alwaysLow struct{}

func (alwaysLow) Int63() int64 { return 0 }
func (alwaysLow) Seed(int64)   {}

type recordingSpeaker struct {
	said []string
	err  error
}

func (r *recordingSpeaker) Speak(_ context.Context, text string) error {
	r.said = append(r.said, text)
	return r.err
}

func TestAnnounceSwallowsErrors(t *testing.T) {
	s := &recordingSpeaker{err: errors.New("no audio device")}
	ds := []model.AIDecision{{Trigger: model.TriggerDoorLock, Alert: "a"}, {Trigger: model.TriggerShutdown, Alert: "b"}}
	Announce(context.Background(), s, ds)
	if len(s.said) != 2 {
		t.Fatalf("spoke %v, want both alerts", s.said)
	}
	Announce(context.Background(), nil, ds)
}
