package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// GetBattery queries the battery charge percentage.
type GetBattery struct{}

func (GetBattery) Name() string { return "getBattery" }
func (GetBattery) Args() any    { return noArgs() }

func (c GetBattery) Handle(bundle *events.Bundle, data map[string]any) bool {
	return handleBody(c, bundle, data)
}

func (c GetBattery) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	return handleRequested(c, bundle, response)
}

func (c GetBattery) parseBody(bundle *events.Bundle, body map[string]any) bool {
	return parseStandardBody(c, bundle, body)
}

func (GetBattery) parseBodyData(bundle *events.Bundle, data map[string]any) bool {
	value, ok := intFrom(data["value"])
	if !ok {
		return false
	}
	bundle.Battery.Notify(events.BatteryEvent{Value: value})
	return true
}
