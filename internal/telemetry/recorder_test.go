package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/ozmo-core/internal/events"
)

type recordedWrite struct {
	measurement string
	component   string
	cleanType   string
	state       string
	value       float64
	available   bool
}

type fakeWriter struct {
	mu     sync.Mutex
	writes []recordedWrite
}

func (w *fakeWriter) WriteBatteryLevel(deviceID string, percent float64) {
	w.record(recordedWrite{measurement: "battery", value: percent})
}

func (w *fakeWriter) WriteCleanStats(deviceID string, areaM2, durationSeconds float64, cleanType string) {
	w.record(recordedWrite{measurement: "clean_stats", value: areaM2, cleanType: cleanType})
}

func (w *fakeWriter) WriteComponentLife(deviceID string, component string, percent float64) {
	w.record(recordedWrite{measurement: "component_life", component: component, value: percent})
}

func (w *fakeWriter) WriteAvailability(deviceID string, available bool, state string) {
	w.record(recordedWrite{measurement: "availability", available: available, state: state})
}

func (w *fakeWriter) record(write recordedWrite) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, write)
}

func (w *fakeWriter) byMeasurement(name string) []recordedWrite {
	w.mu.Lock()
	defer w.mu.Unlock()
	var matched []recordedWrite
	for _, write := range w.writes {
		if write.measurement == name {
			matched = append(matched, write)
		}
	}
	return matched
}

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

func TestRecorderForwardsEvents(t *testing.T) {
	writer := &fakeWriter{}
	bundle := newTestBundle()
	recorder := NewRecorder("E0001234567890", writer, bundle)
	defer recorder.Stop()

	bundle.Battery.Notify(events.BatteryEvent{Value: 91})

	area, duration, cleanType := 28, 1800, "auto"
	bundle.Stats.Notify(events.StatsEvent{Area: &area, Time: &duration, Type: &cleanType})

	bundle.LifeSpan.Notify(events.LifeSpanEvent{Percents: map[string]float64{
		"brush":     48.77,
		"sideBrush": 50,
	}})

	bundle.Status.Notify(events.StatusEvent{Available: true, State: events.StateCleaning})

	battery := writer.byMeasurement("battery")
	if len(battery) != 1 || battery[0].value != 91 {
		t.Errorf("battery writes = %+v", battery)
	}

	stats := writer.byMeasurement("clean_stats")
	if len(stats) != 1 || stats[0].value != 28 || stats[0].cleanType != "auto" {
		t.Errorf("stats writes = %+v", stats)
	}

	life := writer.byMeasurement("component_life")
	if len(life) != 2 {
		t.Fatalf("component life writes = %+v", life)
	}

	availability := writer.byMeasurement("availability")
	if len(availability) != 1 || !availability[0].available || availability[0].state != "cleaning" {
		t.Errorf("availability writes = %+v", availability)
	}
}

func TestRecorderSkipsEmptyStats(t *testing.T) {
	writer := &fakeWriter{}
	bundle := newTestBundle()
	recorder := NewRecorder("E0001234567890", writer, bundle)
	defer recorder.Stop()

	bundle.Stats.Notify(events.StatsEvent{})

	if got := writer.byMeasurement("clean_stats"); len(got) != 0 {
		t.Errorf("empty stats should not be written, got %+v", got)
	}
}

func TestRecorderStopDetaches(t *testing.T) {
	writer := &fakeWriter{}
	bundle := newTestBundle()
	recorder := NewRecorder("E0001234567890", writer, bundle)
	recorder.Stop()

	bundle.Battery.Notify(events.BatteryEvent{Value: 42})

	if got := writer.byMeasurement("battery"); len(got) != 0 {
		t.Errorf("writes after Stop = %+v", got)
	}
}
