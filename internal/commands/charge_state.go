package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// GetChargeState queries whether the device is currently charging.
type GetChargeState struct{}

func (GetChargeState) Name() string { return "getChargeState" }
func (GetChargeState) Args() any    { return noArgs() }

func (c GetChargeState) Handle(bundle *events.Bundle, data map[string]any) bool {
	return handleBody(c, bundle, data)
}

func (c GetChargeState) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	return handleRequested(c, bundle, response)
}

func (c GetChargeState) parseBody(bundle *events.Bundle, body map[string]any) bool {
	if code, ok := intFrom(body["code"]); ok && code != 0 {
		// Some firmware reports charge state through a failure body.
		// 30007 is "already charging"; 3 and 5 arrive when the device
		// is stuck or busy but still report as docked upstream.
		if stringFrom(body["msg"]) == "fail" {
			switch code {
			case codeAlreadyCharging, 3, 5:
				bundle.Status.Notify(events.StatusEvent{Available: true, State: events.StateDocked})
				return true
			}
		}
		return false
	}
	return c.parseBodyData(bundle, nestedMap(body, "data"))
}

func (GetChargeState) parseBodyData(bundle *events.Bundle, data map[string]any) bool {
	charging, ok := intFrom(data["isCharging"])
	if !ok {
		return false
	}
	if charging == 1 {
		bundle.Status.Notify(events.StatusEvent{Available: true, State: events.StateDocked})
	}
	return true
}
