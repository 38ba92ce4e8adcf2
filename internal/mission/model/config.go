package model

import "time"

// ================ Config ================
type ServerConfig struct {
	Addr string `envconfig:"HTTP_ADDR" default:":8080"`
}

type SensorConfig struct {
	TickInterval    time.Duration `envconfig:"SENSOR_TICK_INTERVAL" default:"2s"`
	LeakProbability float64       `envconfig:"SENSOR_LEAK_PROBABILITY" default:"0.005"`
	LeakDrop        float64       `envconfig:"SENSOR_LEAK_DROP" default:"8"`
	Seed            int64         `envconfig:"SENSOR_SEED" default:"0"`
	FeedURL         string        `envconfig:"SENSOR_FEED_URL"`
}

const (
	BackendHTTP   = "http"
	BackendGemini = "gemini"
)

type ClassifierConfig struct {
	Backend    string `envconfig:"CLASSIFIER_BACKEND" default:"http"`
	PredictURL string `envconfig:"PREDICT_URL" default:"http://127.0.0.1:8000/predict"`
	// Zero means no deadline on the prediction call.
	Timeout time.Duration `envconfig:"PREDICT_TIMEOUT" default:"0s"`
}

type IntentModelConfig struct {
	APIKey       string  `envconfig:"GEMINI_API_KEY"`
	BaseURL      string  `envconfig:"GEMINI_BASE_URL"`
	Model        string  `envconfig:"INTENT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens    int     `envconfig:"INTENT_MAX_TOKENS" default:"256"`
	Temperature  float32 `envconfig:"INTENT_TEMPERATURE" default:"0.1"`
	ContextTurns int     `envconfig:"INTENT_CONTEXT_TURNS" default:"5"`
}

type HistoryConfig struct {
	RedisKey string        `envconfig:"HISTORY_REDIS_KEY" default:"mission:history"`
	TTL      time.Duration `envconfig:"HISTORY_TTL" default:"0s"`
	// MirrorTimeout bounds each redis write made while the station is locked.
	MirrorTimeout time.Duration `envconfig:"HISTORY_MIRROR_TIMEOUT" default:"500ms"`
}

type EventsConfig struct {
	Brokers []string `envconfig:"EVENTS_KAFKA_BROKERS"`
	Topic   string   `envconfig:"EVENTS_KAFKA_TOPIC" default:"mission.emergency"`
	Acks    int      `envconfig:"EVENTS_KAFKA_ACKS" default:"1"`
}

// Enabled reports whether any broker is configured.
func (c EventsConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type HazardConfig struct {
	FireLock          float64 `envconfig:"HAZARD_FIRE_LOCK" default:"60"`
	OxygenBoost       float64 `envconfig:"HAZARD_OXYGEN_BOOST" default:"30"`
	RadiationShutdown float64 `envconfig:"HAZARD_RADIATION_SHUTDOWN" default:"7"`
	CrewEvacuation    float64 `envconfig:"HAZARD_CREW_EVACUATION" default:"40"`
}

// DefaultHazardConfig mirrors the envconfig defaults for callers that skip env binding.
func DefaultHazardConfig() HazardConfig {
	return HazardConfig{FireLock: 60, OxygenBoost: 30, RadiationShutdown: 7, CrewEvacuation: 40}
}
