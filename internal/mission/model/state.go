package model

// ClassifyState stores per-invocation state for the intent graph.
// It is registered as graph local state and only touched inside state handlers,
// which the graph serialises.
type ClassifyState struct {
	Command      string
	ModelName    string
	RawOutput    string
	TotalCostUSD float64
}

// ScoredIntent is one candidate label emitted by the intent model.
type ScoredIntent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// IntentAnalysis is the parsed output of the intent model.
type IntentAnalysis struct {
	Intents         []ScoredIntent `json:"intents"`
	PrimaryIntent   string         `json:"primary_intent"`
	Confidence      float64        `json:"confidence"`
	ParsingMetadata map[string]any `json:"parsing_metadata,omitempty"`
}
