package dashboard

// Bar is one sensor gauge.
type Bar struct {
	Field  string  `json:"field"`
	Title  string  `json:"title"`
	Value  string  `json:"value"`
	Width  float64 `json:"width"` // percent of the track, 0-100
	Danger bool    `json:"danger"`
}

// Chips are the status pills in the top bar.
type Chips struct {
	Oxygen  string `json:"oxygen"`
	Battery string `json:"battery"`
	System  string `json:"system"`
}

type Banner struct {
	Visible bool   `json:"visible"`
	Reason  string `json:"reason"`
}

type IntentPill struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

type Chart struct {
	Labels []string `json:"labels"`
	Series []int    `json:"series"`
}

type HistoryItem struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Intent  string `json:"intent"`
	Class   string `json:"class"`
	Time    string `json:"time"`
	Reason  string `json:"reason,omitempty"`
	Auto    bool   `json:"auto,omitempty"`
}

type Hazards struct {
	FireLevel  string `json:"fire_level"`
	CrewHealth string `json:"crew_health"`
	DoorLocked bool   `json:"door_locked"`
	Shutdown   bool   `json:"shutdown"`
	Evacuation bool   `json:"evacuation"`
}

// View is everything a client needs to draw the dashboard.
type View struct {
	Version         uint64        `json:"version"`
	Bars            []Bar         `json:"bars"`
	Chips           Chips         `json:"chips"`
	Banner          Banner        `json:"banner"`
	ReasonText      string        `json:"reason_text"`
	EmergencyActive bool          `json:"emergency_active"`
	AlarmPlaying    bool          `json:"alarm_playing"`
	LastCommand     string        `json:"last_command"`
	Intent          IntentPill    `json:"intent"`
	Chart           Chart         `json:"chart"`
	History         []HistoryItem `json:"history"`
	AILog           []string      `json:"ai_log"`
	Hazards         Hazards       `json:"hazards"`
	SubmitLabel     string        `json:"submit_label"`
	SubmitDisabled  bool          `json:"submit_disabled"`
}
