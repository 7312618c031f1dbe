package commands

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nerrad567/ozmo-core/internal/events"
)

// newTestBundle builds a bundle with quiescent emitters (no refresh
// triggers, no polling loops).
func newTestBundle() *events.Bundle {
	status := events.NewEmitter[events.StatusEvent]("status", nil)
	return events.NewBundle(events.Bundle{
		Battery:       events.NewEmitter[events.BatteryEvent]("battery", nil),
		CleanLogs:     events.NewEmitter[events.CleanLogEvent]("cleanLogs", nil),
		CustomCommand: events.NewEmitter[events.CustomCommandEvent]("customCommand", nil),
		Error:         events.NewEmitter[events.ErrorEvent]("error", nil),
		FanSpeed:      events.NewEmitter[events.FanSpeedEvent]("fanSpeed", nil),
		LifeSpan:      events.NewPollingEmitter[events.LifeSpanEvent]("lifeSpan", time.Minute, nil, status),
		Map:           events.NewEmitter[events.MapEvent]("map", nil),
		Position:      events.NewEmitter[events.PositionEvent]("position", nil),
		Rooms:         events.NewEmitter[events.RoomsEvent]("rooms", nil),
		Stats:         events.NewEmitter[events.StatsEvent]("stats", nil),
		Status:        status,
		WaterInfo:     events.NewEmitter[events.WaterInfoEvent]("waterInfo", nil),
	})
}

// decodePayload decodes a JSON literal into the loose map shape the
// dispatcher hands to command handlers.
func decodePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("invalid test payload: %v", err)
	}
	return payload
}
