package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// GetCleanInfo queries the device's current cleaning activity. Pushes of
// the same payload arrive whenever the activity changes.
type GetCleanInfo struct{}

func (GetCleanInfo) Name() string { return "getCleanInfo" }
func (GetCleanInfo) Args() any    { return noArgs() }

func (c GetCleanInfo) Handle(bundle *events.Bundle, data map[string]any) bool {
	return handleBody(c, bundle, data)
}

func (c GetCleanInfo) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	return handleRequested(c, bundle, response)
}

func (c GetCleanInfo) parseBody(bundle *events.Bundle, body map[string]any) bool {
	return parseStandardBody(c, bundle, body)
}

func (GetCleanInfo) parseBodyData(bundle *events.Bundle, data map[string]any) bool {
	state := events.StateUnknown

	if stringFrom(data["trigger"]) == "alert" {
		state = events.StateError
	} else {
		switch stringFrom(data["state"]) {
		case "clean":
			cleanState := nestedMap(data, "cleanState")
			switch stringFrom(cleanState["motionState"]) {
			case "working":
				state = events.StateCleaning
			case "pause":
				state = events.StatePaused
			case "goCharging":
				state = events.StateReturning
			}
		case "goCharging":
			state = events.StateReturning
		case "idle":
			state = events.StateIdle
		}
	}

	if state == events.StateUnknown {
		return false
	}
	bundle.Status.Notify(events.StatusEvent{Available: true, State: state})
	return true
}
