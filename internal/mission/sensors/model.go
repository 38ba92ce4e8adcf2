package sensors

import (
	"math/rand"
	"time"

	"github.com/AstroAssist-core/server/internal/mission/model"
)

// Emergency reasons, in priority order.
const (
	ReasonLowOxygen   = "Low oxygen (< 30%)"
	ReasonLowPressure = "Cabin pressure low"
	ReasonLowPower    = "Power critically low"
	ReasonTemperature = "Temperature out of range"
	ReasonRadiation   = "Radiation spike detected"
	ReasonCO2         = "CO₂ level too high"
)

const (
	defaultLeakProbability = 0.005
	defaultLeakDrop        = 8
)

// Model holds the live readings and drifts them on every tick.
// It is not safe for concurrent use; the station serialises access.
type Model struct {
	reading         model.SensorReading
	rng             *rand.Rand
	leakProbability float64
	leakDrop        float64
}

// New returns a model starting at initial. A nil rng is seeded from the clock.
func New(initial model.SensorReading, rng *rand.Rand, cfg model.SensorConfig) *Model {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	m := &Model{
		reading:         initial,
		rng:             rng,
		leakProbability: cfg.LeakProbability,
		leakDrop:        cfg.LeakDrop,
	}
	if m.leakDrop == 0 {
		m.leakDrop = defaultLeakDrop
	}
	return m
}

// NewFromConfig starts at the nominal reading with a generator seeded by cfg.Seed
// (or the clock when zero).
func NewFromConfig(cfg model.SensorConfig) *Model {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.LeakProbability == 0 {
		cfg.LeakProbability = defaultLeakProbability
	}
	return New(model.NominalReading(), rand.New(rand.NewSource(seed)), cfg)
}

// Reading returns the current values.
func (m *Model) Reading() model.SensorReading {
	return m.reading
}

// Tick drifts every field by a uniform delta within its magnitude, clamps it,
// and occasionally injects an oxygen leak.
func (m *Model) Tick() model.SensorReading {
	for _, spec := range model.FieldSpecs {
		v := m.reading.Get(spec.Field) + m.randomDelta(spec.Drift)
		m.reading.Set(spec.Field, spec.Clamp(v))
	}

	if m.rng.Float64() < m.leakProbability {
		spec, _ := model.SpecFor(model.FieldOxygen)
		m.reading.Oxygen = spec.Clamp(m.reading.Oxygen - m.leakDrop)
	}
	return m.reading
}

// ApplyExternalUpdate overwrites fields from a trusted feed, bypassing drift and clamping.
func (m *Model) ApplyExternalUpdate(u model.SensorUpdate) model.SensorReading {
	u.ApplyTo(&m.reading)
	return m.reading
}

// BoostOxygen raises oxygen by delta, clamped to its range.
func (m *Model) BoostOxygen(delta float64) model.SensorReading {
	spec, _ := model.SpecFor(model.FieldOxygen)
	m.reading.Oxygen = spec.Clamp(m.reading.Oxygen + delta)
	return m.reading
}

// EmergencyReason reports the first violated threshold of the current reading.
func (m *Model) EmergencyReason() string {
	return EmergencyReason(m.reading)
}

func (m *Model) randomDelta(maxAbs float64) float64 {
	return (m.rng.Float64()*2 - 1) * maxAbs
}

// EmergencyReason returns the first violated threshold in priority order, or ""
// when the reading is safe. Earlier checks mask later ones.
func EmergencyReason(r model.SensorReading) string {
	switch {
	case r.Oxygen < 30:
		return ReasonLowOxygen
	case r.Pressure < 60:
		return ReasonLowPressure
	case r.Power < 1:
		return ReasonLowPower
	case r.Temperature < 0 || r.Temperature > 45:
		return ReasonTemperature
	case r.Radiation > 5:
		return ReasonRadiation
	case r.CO2 > 1.5:
		return ReasonCO2
	}
	return ""
}
