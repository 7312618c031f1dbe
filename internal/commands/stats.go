package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// GetStats queries statistics for the current or most recent cleaning
// run. Every field is optional on the wire; absent fields stay nil so
// consumers can tell "not reported" from zero.
type GetStats struct{}

func (GetStats) Name() string { return "getStats" }
func (GetStats) Args() any    { return noArgs() }

func (c GetStats) Handle(bundle *events.Bundle, data map[string]any) bool {
	return handleBody(c, bundle, data)
}

func (c GetStats) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	return handleRequested(c, bundle, response)
}

func (c GetStats) parseBody(bundle *events.Bundle, body map[string]any) bool {
	return parseStandardBody(c, bundle, body)
}

func (GetStats) parseBodyData(bundle *events.Bundle, data map[string]any) bool {
	event := events.StatsEvent{}
	if area, ok := intFrom(data["area"]); ok {
		event.Area = &area
	}
	if _, present := data["cid"]; present {
		cid := stringFrom(data["cid"])
		event.CleanID = &cid
	}
	if seconds, ok := intFrom(data["time"]); ok {
		event.Time = &seconds
	}
	if _, present := data["type"]; present {
		kind := stringFrom(data["type"])
		event.Type = &kind
	}
	if start, ok := intFrom(data["start"]); ok {
		event.Start = &start
	}
	bundle.Stats.Notify(event)
	return true
}
