package commands

import (
	"fmt"

	"github.com/nerrad567/ozmo-core/internal/events"
)

// Water level display names.
const (
	WaterLow       = "low"
	WaterMedium    = "medium"
	WaterHigh      = "high"
	WaterUltraHigh = "ultrahigh"
)

// waterLevelFromWire maps device water amounts to display names.
var waterLevelFromWire = map[int]string{
	1: WaterLow,
	2: WaterMedium,
	3: WaterHigh,
	4: WaterUltraHigh,
}

// waterLevelToWire is the inverse of waterLevelFromWire.
var waterLevelToWire = map[string]int{
	WaterLow:       1,
	WaterMedium:    2,
	WaterHigh:      3,
	WaterUltraHigh: 4,
}

// GetWaterInfo queries the mopping water level and mop attachment.
type GetWaterInfo struct{}

func (GetWaterInfo) Name() string { return "getWaterInfo" }
func (GetWaterInfo) Args() any    { return noArgs() }

func (c GetWaterInfo) Handle(bundle *events.Bundle, data map[string]any) bool {
	return handleBody(c, bundle, data)
}

func (c GetWaterInfo) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	return handleRequested(c, bundle, response)
}

func (c GetWaterInfo) parseBody(bundle *events.Bundle, body map[string]any) bool {
	return parseStandardBody(c, bundle, body)
}

func (GetWaterInfo) parseBodyData(bundle *events.Bundle, data map[string]any) bool {
	amount, ok := intFrom(data["amount"])
	if !ok {
		return false
	}
	level, ok := waterLevelFromWire[amount]
	if !ok {
		return false
	}
	enable, _ := intFrom(data["enable"])
	bundle.WaterInfo.Notify(events.WaterInfoEvent{
		MopAttached: enable == 1,
		Amount:      level,
	})
	return true
}

// SetWaterInfo changes the mopping water level. Mop attachment is a
// physical property and cannot be set. On a confirmed success the new
// value is published through the getter's parser.
type SetWaterInfo struct {
	amount int
}

// NewSetWaterInfo builds a water level change from a display name.
func NewSetWaterInfo(amount string) (SetWaterInfo, error) {
	level, ok := waterLevelToWire[amount]
	if !ok {
		return SetWaterInfo{}, fmt.Errorf("commands: unknown water level %q", amount)
	}
	return SetWaterInfo{amount: level}, nil
}

func (SetWaterInfo) Name() string { return "setWaterInfo" }
func (SetWaterInfo) mutator()     {}

func (c SetWaterInfo) Args() any {
	return map[string]any{"amount": c.amount}
}

func (c SetWaterInfo) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	resp, ok := UnwrapRequested(response)
	if !ok {
		return false
	}
	if !parseExecuteBody(nestedMap(resp, "body")) {
		return false
	}
	return GetWaterInfo{}.Handle(bundle, map[string]any{"amount": c.amount})
}
