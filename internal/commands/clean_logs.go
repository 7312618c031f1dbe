package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// GetCleanLogs fetches the device's cleaning history. Unlike the other
// queries it is served by the portal's log endpoint, so the response is
// the bare legacy envelope with a top-level "logs" array.
type GetCleanLogs struct{}

func (GetCleanLogs) Name() string { return "GetCleanLogs" }
func (GetCleanLogs) Args() any    { return []any{} }

func (c GetCleanLogs) Handle(bundle *events.Bundle, data map[string]any) bool {
	return c.HandleRequested(bundle, data)
}

func (GetCleanLogs) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	if stringFrom(response["ret"]) != "ok" {
		return false
	}

	rawLogs, _ := sliceFrom(response["logs"])
	logs := make([]events.CleanLogEntry, 0, len(rawLogs))
	for _, raw := range rawLogs {
		entry, ok := mapFrom(raw)
		if !ok {
			continue
		}
		ts, ok := intFrom(entry["ts"])
		if !ok {
			continue
		}
		area, _ := intFrom(entry["area"])
		stopReason, _ := intFrom(entry["stopReason"])
		duration, _ := intFrom(entry["last"])
		logs = append(logs, events.CleanLogEntry{
			Timestamp:  int64(ts),
			ImageURL:   stringFrom(entry["imageUrl"]),
			Type:       stringFrom(entry["type"]),
			Area:       area,
			StopReason: stopReason,
			Duration:   duration,
		})
	}

	bundle.CleanLogs.Notify(events.CleanLogEvent{Logs: logs})
	return true
}
