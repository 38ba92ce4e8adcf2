// Package metrics exposes station activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AstroAssist-core/server/internal/mission/model"
)

type Recorder struct {
	ticks           prometheus.Counter
	feedUpdates     prometheus.Counter
	classifications *prometheus.CounterVec
	latency         prometheus.Histogram
	intents         *prometheus.CounterVec
	emergency       *prometheus.GaugeVec
	sensors         *prometheus.GaugeVec
	decisions       *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mission_sensor_ticks_total",
			Help: "Sensor drift ticks applied.",
		}),
		feedUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mission_feed_updates_total",
			Help: "Sensor updates applied from the external feed.",
		}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_classifications_total",
			Help: "Command classifications by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mission_classification_latency_seconds",
			Help:    "Time spent waiting for the intent classifier.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_intents_total",
			Help: "Counted intents per label.",
		}, []string{"intent"}),
		emergency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mission_emergency_active",
			Help: "1 while an emergency is active, labelled by source.",
		}, []string{"source"}),
		sensors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mission_sensor_value",
			Help: "Latest sensor reading per field.",
		}, []string{"field"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mission_ai_decisions_total",
			Help: "Automatic hazard decisions fired.",
		}, []string{"trigger"}),
	}
	reg.MustRegister(r.ticks, r.feedUpdates, r.classifications, r.latency, r.intents, r.emergency, r.sensors, r.decisions)
	return r
}

func (r *Recorder) ObserveTick(reading model.SensorReading) {
	r.ticks.Inc()
	r.setSensors(reading)
}

func (r *Recorder) ObserveReadings(reading model.SensorReading) {
	r.feedUpdates.Inc()
	r.setSensors(reading)
}

func (r *Recorder) ObserveClassification(outcome string, elapsed time.Duration) {
	r.classifications.WithLabelValues(outcome).Inc()
	r.latency.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveIntent(label string) {
	r.intents.WithLabelValues(label).Inc()
}

func (r *Recorder) SetEmergency(s model.EmergencyState) {
	for _, src := range []model.Source{model.SourceSensors, model.SourceModel} {
		v := 0.0
		if s.Source == src {
			v = 1
		}
		r.emergency.WithLabelValues(string(src)).Set(v)
	}
}

func (r *Recorder) ObserveDecision(t model.Trigger) {
	r.decisions.WithLabelValues(string(t)).Inc()
}

func (r *Recorder) setSensors(reading model.SensorReading) {
	for _, spec := range model.FieldSpecs {
		r.sensors.WithLabelValues(string(spec.Field)).Set(reading.Get(spec.Field))
	}
}
