package model

import "time"

// Source attributes an emergency to the subsystem that justified it.
type Source string

const (
	SourceNone    Source = ""
	SourceSensors Source = "sensors"
	SourceModel   Source = "model"
)

// EmergencyState is the single current alarm condition. Reason is set iff Source is.
type EmergencyState struct {
	Reason string `json:"reason,omitempty"`
	Source Source `json:"source,omitempty"`
}

// Normal is the cleared state.
var Normal = EmergencyState{}

// NewEmergency builds a state, collapsing to Normal when either half is missing.
func NewEmergency(reason string, source Source) EmergencyState {
	if reason == "" || source == SourceNone {
		return Normal
	}
	return EmergencyState{Reason: reason, Source: source}
}

// Active reports whether an emergency is raised.
func (s EmergencyState) Active() bool {
	return s.Source != SourceNone
}

// EmergencyEvent records a transition of the emergency state.
type EmergencyEvent struct {
	ID     string         `json:"id"`
	From   EmergencyState `json:"from"`
	To     EmergencyState `json:"to"`
	Reason string         `json:"reason,omitempty"`
	Source Source         `json:"source,omitempty"`
	At     time.Time      `json:"at"`
}
