package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// errorDescriptions maps device error codes to human-readable text.
// Code 0 means the device is operational.
var errorDescriptions = map[int]string{
	0:   "NoError: robot is operational",
	3:   "RequestOverdue: request timeout",
	100: "NoError: robot is operational",
	101: "BatteryLow: low battery",
	102: "HostHang: robot is off the floor",
	103: "WheelAbnormal: driving wheel abnormal",
	104: "DownSensorAbnormal: excess dust on the anti-drop sensors",
	105: "Stuck: robot is stuck",
	106: "SideBrushExhausted: side brushes are exhausted",
	107: "DustCaseHeapExhausted: dust case filter exhausted",
	108: "SideAbnormal: side brushes are entangled",
	109: "RollAbnormal: main brush is entangled",
	110: "NoDustBox: dust bin not installed",
	111: "BumpAbnormal: bump sensor stuck",
	112: "LDS: laser distance sensor malfunction",
	113: "MainBrushExhausted: main brush is exhausted",
	114: "DustCaseFilled: dust bin full",
	115: "BatteryError",
	116: "ForwardLookingError: camera error",
	117: "GyroscopeError",
	118: "StrainerBlock: filter clogged",
	119: "FanError",
	120: "WaterBoxError",
	201: "AirFilterUninstall: air filter not installed",
	202: "UltrasonicComponentAbnormal",
	203: "SmallWheelError",
	204: "WheelHang: wheel suspended",
	205: "IonSterilizeExhausted",
	206: "IonSterilizeAbnormal",
	207: "IonSterilizeFault",
	404: "Recipient unavailable",
	500: "Request Timeout",
	601: "ERROR_ClosedAIVISideAbnormal",
	602: "ClosedAIVIRollAbnormal",
}

// ErrorDescription returns the text for a device error code, or
// "unknown error" for codes outside the known table.
func ErrorDescription(code int) string {
	if desc, ok := errorDescriptions[code]; ok {
		return desc
	}
	return "unknown error"
}

// GetError queries the device's most recent error code.
type GetError struct{}

func (GetError) Name() string { return "getError" }
func (GetError) Args() any    { return noArgs() }

func (c GetError) Handle(bundle *events.Bundle, data map[string]any) bool {
	return handleBody(c, bundle, data)
}

func (c GetError) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	return handleRequested(c, bundle, response)
}

func (c GetError) parseBody(bundle *events.Bundle, body map[string]any) bool {
	return parseStandardBody(c, bundle, body)
}

// parseBodyData publishes the newest code from the device's error list.
// A nonzero code also flips the operating state to error, since the
// device stops whatever it was doing.
func (GetError) parseBodyData(bundle *events.Bundle, data map[string]any) bool {
	codes, ok := sliceFrom(data["code"])
	if !ok || len(codes) == 0 {
		return false
	}
	code, ok := intFrom(codes[len(codes)-1])
	if !ok {
		return false
	}
	if code != 0 {
		bundle.Status.Notify(events.StatusEvent{Available: true, State: events.StateError})
	}
	bundle.Error.Notify(events.ErrorEvent{Code: code, Description: ErrorDescription(code)})
	return true
}
