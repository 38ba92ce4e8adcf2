package console

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/dashboard"
	"github.com/AstroAssist-core/server/internal/mission/model"
	"github.com/AstroAssist-core/server/internal/mission/station"
)

type fakeStation struct {
	mu        sync.Mutex
	submitted []string
	out       station.Outcome
	err       error
	ch        chan model.Snapshot
	cancelled bool
}

func (f *fakeStation) Submit(ctx context.Context, text string) (station.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, text)
	return f.out, f.err
}

func (f *fakeStation) Subscribe(int) (<-chan model.Snapshot, func()) {
	f.ch = make(chan model.Snapshot, 4)
	return f.ch, func() { f.cancelled = true }
}

func snapshot(version uint64) model.Snapshot {
	return model.Snapshot{
		Version:  version,
		Readings: model.NominalReading(),
		Counts:   model.NewIntentCounts(),
		Hazards:  model.InitialHazardState(),
	}
}

func typeText(m tea.Model, text string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestSnapshotUpdatesView(t *testing.T) {
	st := &fakeStation{}
	var m tea.Model = New(context.Background(), st, nil)

	snap := snapshot(3)
	snap.Readings.Oxygen = 12
	snap.Emergency = model.NewEmergency("Low oxygen (< 30%)", model.SourceSensors)
	m, cmd := m.Update(snapshotMsg(snap))
	if cmd == nil {
		t.Fatal("expected a command waiting for the next snapshot")
	}

	out := m.View()
	for _, want := range []string{"EMERGENCY", "Low oxygen (< 30%)", "Oxygen", dashboard.SystemAlert} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStaleSnapshotIgnored(t *testing.T) {
	st := &fakeStation{}
	var m tea.Model = New(context.Background(), st, nil)

	m, _ = m.Update(snapshotMsg(snapshot(5)))
	m, _ = m.Update(snapshotMsg(snapshot(4)))
	if got := m.(Model).view.Version; got != 5 {
		t.Fatalf("version = %d, want 5", got)
	}
}

func TestEnterSubmitsTrimmedText(t *testing.T) {
	st := &fakeStation{out: station.Outcome{Command: "open door", DisplayedIntent: "control_door"}}
	var m tea.Model = New(context.Background(), st, nil)

	m = typeText(m, "  open door ")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should start a submission")
	}
	if got := m.(Model).input.Value(); got != "" {
		t.Fatalf("input not cleared: %q", got)
	}

	m, _ = m.Update(cmd())
	if len(st.submitted) != 1 || st.submitted[0] != "open door" {
		t.Fatalf("submitted = %v", st.submitted)
	}
	if status := m.(Model).status; !strings.Contains(status, "control door") {
		t.Fatalf("status = %q", status)
	}
}

func TestEnterOnBlankDoesNothing(t *testing.T) {
	st := &fakeStation{}
	var m tea.Model = New(context.Background(), st, nil)

	m = typeText(m, "   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("blank input should not submit")
	}
}

func TestEnterWhileBusyIsIgnored(t *testing.T) {
	st := &fakeStation{}
	var m tea.Model = New(context.Background(), st, nil)

	busy := snapshot(1)
	busy.Busy = true
	m, _ = m.Update(snapshotMsg(busy))
	m = typeText(m, "status")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("submission should be disabled while busy")
	}
}

func TestSubmitErrorsShownInStatus(t *testing.T) {
	st := &fakeStation{}
	var m tea.Model = New(context.Background(), st, nil)

	m, _ = m.Update(submitDoneMsg{err: errx.Busy()})
	if got := m.(Model).status; got != errx.BusyMessage {
		t.Fatalf("status = %q", got)
	}
	m, _ = m.Update(submitDoneMsg{out: station.Outcome{Failed: true, Error: errx.RequestFailureMessage}})
	if got := m.(Model).status; got != errx.RequestFailureMessage {
		t.Fatalf("status = %q", got)
	}
}

func TestQuitReleasesSubscription(t *testing.T) {
	st := &fakeStation{}
	var m tea.Model = New(context.Background(), st, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("esc should return tea.Quit")
	}
	if !st.cancelled {
		t.Fatal("subscription not released")
	}
}
