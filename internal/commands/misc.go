package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// PlaySound makes the device play its locate beep.
type PlaySound struct{}

func (PlaySound) Name() string { return "playSound" }
func (PlaySound) Args() any    { return map[string]any{"count": 1, "sid": 30} }
func (PlaySound) mutator()     {}

func (c PlaySound) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	resp, ok := UnwrapRequested(response)
	if !ok {
		return false
	}
	return parseExecuteBody(nestedMap(resp, "body"))
}

// Relocate asks the device to re-establish its position on the map.
type Relocate struct{}

func (Relocate) Name() string { return "setRelocationState" }
func (Relocate) Args() any    { return map[string]any{"mode": "manu"} }
func (Relocate) mutator()     {}

func (c Relocate) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	resp, ok := UnwrapRequested(response)
	if !ok {
		return false
	}
	return parseExecuteBody(nestedMap(resp, "body"))
}
