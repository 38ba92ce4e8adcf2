// Package emergency merges sensor-derived and classifier-derived signals into
// the single authoritative emergency state.
//
// The controller is a two-state machine, Normal and Emergency(reason, source).
// Submissions always replace the state. Sensor ticks raise or refresh a
// sensor emergency, and clear only an emergency that is not attributed to the
// model: a model-sourced emergency survives ticks until the next submission.
package emergency

import (
	"github.com/AstroAssist-core/server/internal/mission/model"
)

// ReasonModel is the text of a classifier-raised emergency.
const ReasonModel = "Model detected emergency command"

const reasonJoiner = " + "

// Decision is the outcome of resolving one submission.
type Decision struct {
	State model.EmergencyState
	// DisplayedIntent is the label shown and counted: sensor emergencies force "emergency".
	DisplayedIntent string
}

// Resolve merges a sensor reason (empty when safe) with a classified intent.
// Sensors dominate attribution when both fire.
func Resolve(sensorReason string, intent model.IntentResult) Decision {
	modelReason := ""
	if intent.Label == model.IntentEmergency {
		modelReason = ReasonModel
	}

	d := Decision{DisplayedIntent: intent.Display()}
	switch {
	case sensorReason != "":
		reason := sensorReason
		if modelReason != "" {
			reason = modelReason + reasonJoiner + sensorReason
		}
		d.State = model.NewEmergency(reason, model.SourceSensors)
		d.DisplayedIntent = string(model.IntentEmergency)
	case modelReason != "":
		d.State = model.NewEmergency(modelReason, model.SourceModel)
	default:
		d.State = model.Normal
	}
	return d
}

// Controller owns the current emergency state. It is not safe for concurrent
// use; the station serialises access.
type Controller struct {
	current model.EmergencyState
}

func NewController() *Controller {
	return &Controller{}
}

// State returns the current emergency state.
func (c *Controller) State() model.EmergencyState {
	return c.current
}

// Submit resolves a submission and replaces the current state with the result.
func (c *Controller) Submit(sensorReason string, intent model.IntentResult) Decision {
	d := Resolve(sensorReason, intent)
	c.current = d.State
	return d
}

// Tick applies a periodic sensor evaluation. applied reports whether the state
// was (re)written; it is false only when a model-sourced emergency is kept.
func (c *Controller) Tick(sensorReason string) (state model.EmergencyState, applied bool) {
	if sensorReason != "" {
		c.current = model.NewEmergency(sensorReason, model.SourceSensors)
		return c.current, true
	}
	if !c.current.Active() || c.current.Source == model.SourceSensors {
		c.current = model.Normal
		return c.current, true
	}
	return c.current, false
}
