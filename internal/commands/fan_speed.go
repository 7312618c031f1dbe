package commands

import (
	"fmt"

	"github.com/nerrad567/ozmo-core/internal/events"
)

// Fan speed display names.
const (
	FanSpeedQuiet   = "quiet"
	FanSpeedNormal  = "normal"
	FanSpeedMax     = "max"
	FanSpeedMaxPlus = "max+"
)

// fanSpeedFromWire maps device speed levels to display names.
var fanSpeedFromWire = map[int]string{
	0:    FanSpeedNormal,
	1:    FanSpeedMax,
	2:    FanSpeedMaxPlus,
	1000: FanSpeedQuiet,
}

// fanSpeedToWire is the inverse of fanSpeedFromWire.
var fanSpeedToWire = map[string]int{
	FanSpeedNormal:  0,
	FanSpeedMax:     1,
	FanSpeedMaxPlus: 2,
	FanSpeedQuiet:   1000,
}

// GetFanSpeed queries the suction fan speed.
type GetFanSpeed struct{}

func (GetFanSpeed) Name() string { return "getSpeed" }
func (GetFanSpeed) Args() any    { return noArgs() }

func (c GetFanSpeed) Handle(bundle *events.Bundle, data map[string]any) bool {
	return handleBody(c, bundle, data)
}

func (c GetFanSpeed) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	return handleRequested(c, bundle, response)
}

func (c GetFanSpeed) parseBody(bundle *events.Bundle, body map[string]any) bool {
	return parseStandardBody(c, bundle, body)
}

func (GetFanSpeed) parseBodyData(bundle *events.Bundle, data map[string]any) bool {
	level, ok := intFrom(data["speed"])
	if !ok {
		return false
	}
	name, ok := fanSpeedFromWire[level]
	if !ok {
		return false
	}
	bundle.FanSpeed.Notify(events.FanSpeedEvent{Speed: name})
	return true
}

// SetFanSpeed changes the suction fan speed. On a confirmed success the
// new value is published through the getter's parser, so subscribers see
// the change without waiting for the next poll.
type SetFanSpeed struct {
	level int
}

// NewSetFanSpeed builds a fan speed change from a display name.
func NewSetFanSpeed(speed string) (SetFanSpeed, error) {
	level, ok := fanSpeedToWire[speed]
	if !ok {
		return SetFanSpeed{}, fmt.Errorf("commands: unknown fan speed %q", speed)
	}
	return SetFanSpeed{level: level}, nil
}

func (SetFanSpeed) Name() string { return "setSpeed" }
func (SetFanSpeed) mutator()     {}

func (c SetFanSpeed) Args() any {
	return map[string]any{"speed": c.level}
}

func (c SetFanSpeed) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	resp, ok := UnwrapRequested(response)
	if !ok {
		return false
	}
	if !parseExecuteBody(nestedMap(resp, "body")) {
		return false
	}
	return GetFanSpeed{}.Handle(bundle, map[string]any{"speed": c.level})
}
