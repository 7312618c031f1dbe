package events

// VacuumState is the appliance's current activity classification.
type VacuumState int

// Operating states. StateUnknown means no evidence has been received yet.
const (
	StateUnknown VacuumState = iota
	StateIdle
	StateCleaning
	StatePaused
	StateReturning
	StateDocked
	StateError
)

// String returns the lowercase name of the state.
func (s VacuumState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCleaning:
		return "cleaning"
	case StatePaused:
		return "paused"
	case StateReturning:
		return "returning"
	case StateDocked:
		return "docked"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StatusEvent reports device availability and operating state.
// State is StateUnknown when availability changed without state evidence.
type StatusEvent struct {
	Available bool        `json:"available"`
	State     VacuumState `json:"state"`
}

// BatteryEvent reports the battery charge percentage.
type BatteryEvent struct {
	Value int `json:"value"`
}

// FanSpeedEvent reports the current fan speed as a display name
// (quiet, normal, max, max+).
type FanSpeedEvent struct {
	Speed string `json:"speed"`
}

// WaterInfoEvent reports the water level and whether the mop is attached.
type WaterInfoEvent struct {
	MopAttached bool   `json:"mop_attached"`
	Amount      string `json:"amount"`
}

// LifeSpanEvent reports remaining life per consumable component,
// as a percentage keyed by component name (brush, sideBrush, heap).
type LifeSpanEvent struct {
	Percents map[string]float64 `json:"percents"`
}

// StatsEvent reports statistics for the current or last cleaning run.
// Fields are nil when the payload did not include them.
type StatsEvent struct {
	Area    *int    `json:"area,omitempty"`
	CleanID *string `json:"clean_id,omitempty"`
	Time    *int    `json:"time,omitempty"`
	Type    *string `json:"type,omitempty"`
	Start   *int    `json:"start,omitempty"`
}

// ErrorEvent reports a device error code with its description.
type ErrorEvent struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// CleanLogEntry is one historical cleaning run.
type CleanLogEntry struct {
	Timestamp  int64  `json:"timestamp"`
	ImageURL   string `json:"image_url"`
	Type       string `json:"type"`
	Area       int    `json:"area"`
	StopReason int    `json:"stop_reason"`
	Duration   int    `json:"duration"`
}

// CleanLogEvent reports the device's cleaning history, newest first.
type CleanLogEvent struct {
	Logs []CleanLogEntry `json:"logs"`
}

// CustomCommandEvent carries the raw response of a user-supplied command
// that is not part of the built-in registry.
type CustomCommandEvent struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// MapEvent signals that cached map data changed. The geometry itself is
// owned by the map collaborator; subscribers re-read it from there.
type MapEvent struct{}

// PositionEvent reports a device or charger position on the current map.
type PositionEvent struct {
	Kind string `json:"kind"` // "deebotPos" or "chargePos"
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Room is a named map region the device can clean individually.
type Room struct {
	Subtype string `json:"subtype"`
	ID      int    `json:"id"`
}

// RoomsEvent reports the rooms present on the current map.
type RoomsEvent struct {
	Rooms []Room `json:"rooms"`
}
