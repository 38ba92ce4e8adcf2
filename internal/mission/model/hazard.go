package model

import "time"

// Trigger names a one-shot automatic decision.
type Trigger string

const (
	TriggerDoorLock    Trigger = "door_lock"
	TriggerOxygenBoost Trigger = "oxygen_boost"
	TriggerShutdown    Trigger = "system_shutdown"
	TriggerEvacuation  Trigger = "evacuation"
)

// AIDecision is a fired trigger with its log line and spoken alert.
type AIDecision struct {
	Trigger Trigger   `json:"trigger"`
	Message string    `json:"message"`
	Alert   string    `json:"alert"`
	At      time.Time `json:"at"`
	// OxygenBoost is the oxygen percentage the station adds when applying the decision.
	OxygenBoost float64 `json:"oxygen_boost,omitempty"`
}

// HazardState is the decision engine's own state. Each flag latches once set.
type HazardState struct {
	FireLevel   float64      `json:"fire_level"`  // 0-100
	CrewHealth  float64      `json:"crew_health"` // 0-100
	DoorLocked  bool         `json:"door_locked"`
	OxygenBoost bool         `json:"oxygen_boost"`
	Shutdown    bool         `json:"shutdown"`
	Evacuation  bool         `json:"evacuation"`
	Decisions   []AIDecision `json:"decisions"`
}

// InitialHazardState is the start-up state of the decision engine.
func InitialHazardState() HazardState {
	return HazardState{FireLevel: 0, CrewHealth: 100}
}

// Clone returns a copy that does not share the decision log.
func (h HazardState) Clone() HazardState {
	out := h
	out.Decisions = append([]AIDecision(nil), h.Decisions...)
	return out
}
