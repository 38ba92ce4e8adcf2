// Package notifier runs the automatic hazard decisions that sit beside the
// emergency controller: a simulated fire level and crew health, and one-shot
// alerts when they or the sensors cross fixed limits.
package notifier

import (
	"context"
	"math/rand"
	"time"

	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

const (
	fireIgniteChance = 0.15
	fireRise         = 5
	fireDecay        = 2
	crewDamage       = 5

	// OxygenBoostAmount is added to the oxygen reading when the boost fires.
	OxygenBoostAmount = 15
)

type decisionText struct {
	message string
	alert   string
}

var decisions = map[model.Trigger]decisionText{
	model.TriggerDoorLock: {
		message: "🔥 Fire detected → Auto Door Lock ENABLED",
		alert:   "Warning! Fire detected. Auto door lock enabled.",
	},
	model.TriggerOxygenBoost: {
		message: "🫁 Oxygen critical → Emergency Oxygen BOOST activated",
		alert:   "Warning! Oxygen levels critical. Emergency oxygen boost activated.",
	},
	model.TriggerShutdown: {
		message: "☢ Radiation extreme → SYSTEM SHUTDOWN initiated",
		alert:   "Critical alert! Radiation levels extreme. Initiating system shutdown.",
	},
	model.TriggerEvacuation: {
		message: "🚀 Crew health critical → AUTO EVACUATION triggered",
		alert:   "Emergency! Crew health critical. Auto evacuation triggered.",
	},
}

// Engine is not safe for concurrent use; the station serialises access.
type Engine struct {
	cfg   model.HazardConfig
	rng   *rand.Rand
	now   func() time.Time
	state model.HazardState
}

// NewEngine returns an engine in its start-up state. A nil rng is seeded from the clock.
func NewEngine(cfg model.HazardConfig, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		cfg:   cfg,
		rng:   rng,
		now:   time.Now,
		state: model.InitialHazardState(),
	}
}

// State returns a copy of the current hazard state.
func (e *Engine) State() model.HazardState {
	return e.state.Clone()
}

// Step advances fire and crew health by one tick against r and returns the
// decisions fired by this step. Applying a decision's OxygenBoost to the
// sensors is up to the caller.
func (e *Engine) Step(r model.SensorReading) []model.AIDecision {
	if e.rng.Float64() < fireIgniteChance {
		e.state.FireLevel += fireRise
	} else {
		e.state.FireLevel -= fireDecay
	}
	e.state.FireLevel = clamp(e.state.FireLevel, 0, 100)

	if r.Oxygen < e.cfg.OxygenBoost {
		e.state.CrewHealth = clamp(e.state.CrewHealth-crewDamage, 0, 100)
	}

	var fired []model.AIDecision
	fire := func(latch *bool, t model.Trigger, cond bool) {
		if *latch || !cond {
			return
		}
		*latch = true
		text := decisions[t]
		d := model.AIDecision{Trigger: t, Message: text.message, Alert: text.alert, At: e.now()}
		if t == model.TriggerOxygenBoost {
			d.OxygenBoost = OxygenBoostAmount
		}
		e.state.Decisions = append(e.state.Decisions, d)
		fired = append(fired, d)
		logx.Info().Str("trigger", string(t)).Msg(text.message)
	}

	fire(&e.state.DoorLocked, model.TriggerDoorLock, e.state.FireLevel > e.cfg.FireLock)
	fire(&e.state.OxygenBoost, model.TriggerOxygenBoost, r.Oxygen < e.cfg.OxygenBoost)
	fire(&e.state.Shutdown, model.TriggerShutdown, r.Radiation > e.cfg.RadiationShutdown)
	fire(&e.state.Evacuation, model.TriggerEvacuation, e.state.CrewHealth < e.cfg.CrewEvacuation)

	return fired
}

// Speaker voices an alert. Implementations may fail; callers ignore the error.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Announce speaks every decision, swallowing speaker failures.
func Announce(ctx context.Context, s Speaker, ds []model.AIDecision) {
	if s == nil {
		return
	}
	for _, d := range ds {
		if err := s.Speak(ctx, d.Alert); err != nil {
			logx.Debug().Err(err).Str("trigger", string(d.Trigger)).Msg("speech failed")
		}
	}
}

// LogSpeaker writes alerts to the log instead of a speech device.
type LogSpeaker struct{}

func (LogSpeaker) Speak(_ context.Context, text string) error {
	logx.Warn().Str("component", "speech").Msg(text)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
