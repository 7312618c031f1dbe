package commands

import (
	"math"

	"github.com/nerrad567/ozmo-core/internal/events"
)

// Consumable component identifiers reported by the device.
const (
	ComponentMainBrush = "brush"
	ComponentSideBrush = "sideBrush"
	ComponentFilter    = "heap"
)

// GetLifeSpan queries the remaining life of every consumable component.
type GetLifeSpan struct{}

func (GetLifeSpan) Name() string { return "getLifeSpan" }

func (GetLifeSpan) Args() any {
	return []any{ComponentMainBrush, ComponentSideBrush, ComponentFilter}
}

func (c GetLifeSpan) Handle(bundle *events.Bundle, data map[string]any) bool {
	return handleBody(c, bundle, data)
}

func (c GetLifeSpan) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	return handleRequested(c, bundle, response)
}

// parseBody handles the list-valued data payload directly; the shared
// object path does not apply here.
func (GetLifeSpan) parseBody(bundle *events.Bundle, body map[string]any) bool {
	if code, ok := intFrom(body["code"]); ok && code != 0 {
		return false
	}
	components, ok := sliceFrom(body["data"])
	if !ok {
		return false
	}

	percents := make(map[string]float64, len(components))
	for _, raw := range components {
		component, ok := mapFrom(raw)
		if !ok {
			continue
		}
		name := stringFrom(component["type"])
		left, leftOK := intFrom(component["left"])
		total, totalOK := intFrom(component["total"])
		if name == "" || !leftOK || !totalOK || total <= 0 {
			continue
		}
		percent := float64(left) / float64(total) * 100
		percents[name] = math.Round(percent*100) / 100
	}
	if len(percents) == 0 {
		return false
	}

	bundle.LifeSpan.Notify(events.LifeSpanEvent{Percents: percents})
	return true
}
