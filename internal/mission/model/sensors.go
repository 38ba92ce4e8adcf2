package model

// Field names a single sensor channel.
type Field string

const (
	FieldOxygen      Field = "oxygen"
	FieldPressure    Field = "pressure"
	FieldPower       Field = "power"
	FieldTemperature Field = "temperature"
	FieldRadiation   Field = "radiation"
	FieldCO2         Field = "co2"
)

// FieldSpec bounds one channel and gives its per-tick drift magnitude.
type FieldSpec struct {
	Field Field
	Drift float64
	Min   float64
	Max   float64
}

// Clamp limits v to [Min, Max].
func (s FieldSpec) Clamp(v float64) float64 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// FieldSpecs lists every channel in display order.
var FieldSpecs = []FieldSpec{
	{Field: FieldOxygen, Drift: 0.5, Min: 15, Max: 100},
	{Field: FieldPressure, Drift: 0.8, Min: 85, Max: 105},
	{Field: FieldPower, Drift: 1.2, Min: 10, Max: 100},
	{Field: FieldTemperature, Drift: 0.4, Min: 18, Max: 35},
	{Field: FieldRadiation, Drift: 0.05, Min: 0.1, Max: 8},
	{Field: FieldCO2, Drift: 0.012, Min: 0.03, Max: 2.0},
}

// SpecFor returns the spec of f.
func SpecFor(f Field) (FieldSpec, bool) {
	for _, s := range FieldSpecs {
		if s.Field == f {
			return s, true
		}
	}
	return FieldSpec{}, false
}

// SensorReading holds the live value of every channel.
type SensorReading struct {
	Oxygen      float64 `json:"oxygen"`      // percent
	Pressure    float64 `json:"pressure"`    // kPa
	Power       float64 `json:"power"`       // percent
	Temperature float64 `json:"temperature"` // °C
	Radiation   float64 `json:"radiation"`   // mSv
	CO2         float64 `json:"co2"`         // percent
}

// NominalReading is the cabin state at start-up.
func NominalReading() SensorReading {
	return SensorReading{
		Oxygen:      98,
		Pressure:    101.3,
		Power:       90,
		Temperature: 23,
		Radiation:   0.3,
		CO2:         0.05,
	}
}

// Get returns the value of f.
func (r SensorReading) Get(f Field) float64 {
	switch f {
	case FieldOxygen:
		return r.Oxygen
	case FieldPressure:
		return r.Pressure
	case FieldPower:
		return r.Power
	case FieldTemperature:
		return r.Temperature
	case FieldRadiation:
		return r.Radiation
	case FieldCO2:
		return r.CO2
	}
	return 0
}

// Set overwrites the value of f.
func (r *SensorReading) Set(f Field, v float64) {
	switch f {
	case FieldOxygen:
		r.Oxygen = v
	case FieldPressure:
		r.Pressure = v
	case FieldPower:
		r.Power = v
	case FieldTemperature:
		r.Temperature = v
	case FieldRadiation:
		r.Radiation = v
	case FieldCO2:
		r.CO2 = v
	}
}

// SensorUpdate is a partial reading pushed by an external feed.
// Absent fields leave the live value untouched.
type SensorUpdate struct {
	Oxygen      *float64 `json:"oxygen,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	Power       *float64 `json:"power,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Radiation   *float64 `json:"radiation,omitempty"`
	CO2         *float64 `json:"co2,omitempty"`
}

// Empty reports whether the update carries no field.
func (u SensorUpdate) Empty() bool {
	return u.Oxygen == nil && u.Pressure == nil && u.Power == nil &&
		u.Temperature == nil && u.Radiation == nil && u.CO2 == nil
}

// ApplyTo overwrites the present fields of r without clamping.
func (u SensorUpdate) ApplyTo(r *SensorReading) {
	set := func(f Field, v *float64) {
		if v != nil {
			r.Set(f, *v)
		}
	}
	set(FieldOxygen, u.Oxygen)
	set(FieldPressure, u.Pressure)
	set(FieldPower, u.Power)
	set(FieldTemperature, u.Temperature)
	set(FieldRadiation, u.Radiation)
	set(FieldCO2, u.CO2)
}
