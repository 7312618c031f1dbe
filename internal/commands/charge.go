package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// codeAlreadyCharging is the cloud failure code returned when a charge
// command is issued while the device is already on the dock.
const codeAlreadyCharging = 30007

// Charge sends the device back to its charging dock.
type Charge struct{}

func (Charge) Name() string { return "charge" }
func (Charge) Args() any    { return map[string]any{"act": "go"} }
func (Charge) mutator()     {}

func (c Charge) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	resp, ok := UnwrapRequested(response)
	if !ok {
		return false
	}
	return c.parseBody(bundle, nestedMap(resp, "body"))
}

// parseBody treats "already charging" as success: the device is docked,
// which is the end state the command was trying to reach anyway.
func (Charge) parseBody(bundle *events.Bundle, body map[string]any) bool {
	code, ok := intFrom(body["code"])
	switch {
	case !ok || code == 0:
		bundle.Status.Notify(events.StatusEvent{Available: true, State: events.StateReturning})
		return true
	case code == codeAlreadyCharging:
		bundle.Status.Notify(events.StatusEvent{Available: true, State: events.StateDocked})
		return true
	default:
		return false
	}
}
