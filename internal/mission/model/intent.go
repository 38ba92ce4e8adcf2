package model

import "strings"

// IntentLabel is one of the closed set of command classes.
type IntentLabel string

const (
	IntentCheckStatus   IntentLabel = "check_status"
	IntentControlDoor   IntentLabel = "control_door"
	IntentSystemControl IntentLabel = "system_control"
	IntentAskInfo       IntentLabel = "ask_info"
	IntentEmergency     IntentLabel = "emergency"
	IntentUnknown       IntentLabel = "unknown"
)

// ErrorLabel is displayed when classification fails. It is never counted.
const ErrorLabel = "Error"

// IntentLabels is the closed intent set in chart order.
var IntentLabels = []IntentLabel{
	IntentCheckStatus,
	IntentControlDoor,
	IntentSystemControl,
	IntentAskInfo,
	IntentEmergency,
}

// ParseIntentLabel maps s onto the closed set. ok is false for anything else.
func ParseIntentLabel(s string) (IntentLabel, bool) {
	s = strings.TrimSpace(s)
	for _, l := range IntentLabels {
		if string(l) == s {
			return l, true
		}
	}
	return IntentUnknown, false
}

// IntentResult is a classified command.
type IntentResult struct {
	Label         IntentLabel `json:"label"`
	RawModelLabel string      `json:"raw_model_label"`
}

// NewIntentResult normalises a label returned by a classifier backend.
func NewIntentResult(raw string) IntentResult {
	label, _ := ParseIntentLabel(raw)
	return IntentResult{Label: label, RawModelLabel: raw}
}

// Display is the text shown and logged for the result: unknown labels keep
// what the model said.
func (r IntentResult) Display() string {
	if r.Label == IntentUnknown && strings.TrimSpace(r.RawModelLabel) != "" {
		return r.RawModelLabel
	}
	return string(r.Label)
}

// IntentCounts counts resolved submissions per label of the closed set.
type IntentCounts map[IntentLabel]int

// NewIntentCounts returns counts with every label at zero.
func NewIntentCounts() IntentCounts {
	c := make(IntentCounts, len(IntentLabels))
	for _, l := range IntentLabels {
		c[l] = 0
	}
	return c
}

// Increment bumps label if it belongs to the closed set and reports whether it did.
func (c IntentCounts) Increment(label string) bool {
	l, ok := ParseIntentLabel(label)
	if !ok {
		return false
	}
	c[l]++
	return true
}

// Clone returns an independent copy.
func (c IntentCounts) Clone() IntentCounts {
	out := make(IntentCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Series returns the counts in IntentLabels order.
func (c IntentCounts) Series() []int {
	out := make([]int, len(IntentLabels))
	for i, l := range IntentLabels {
		out[i] = c[l]
	}
	return out
}
