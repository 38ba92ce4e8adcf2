package model

import "time"

// Snapshot is an immutable copy of the whole application state, handed to
// renderers and subscribers.
type Snapshot struct {
	Version     uint64         `json:"version"`
	At          time.Time      `json:"at"`
	Readings    SensorReading  `json:"readings"`
	Emergency   EmergencyState `json:"emergency"`
	Counts      IntentCounts   `json:"counts"`
	History     []HistoryEntry `json:"history"`
	LastCommand string         `json:"last_command,omitempty"`
	LastIntent  string         `json:"last_intent,omitempty"`
	// StatusNote replaces the emergency reason text until the next state application.
	StatusNote string      `json:"status_note,omitempty"`
	Busy       bool        `json:"busy"`
	Hazards    HazardState `json:"hazards"`
}
