package telemetry

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// Writer is the subset of the InfluxDB client the recorder needs.
// *influxdb.Client satisfies it.
type Writer interface {
	WriteBatteryLevel(deviceID string, percent float64)
	WriteCleanStats(deviceID string, areaM2 float64, durationSeconds float64, cleanType string)
	WriteComponentLife(deviceID string, component string, percent float64)
	WriteAvailability(deviceID string, available bool, state string)
}

// Recorder forwards published events to time-series storage.
type Recorder struct {
	deviceID string
	writer   Writer

	batterySub  *events.Subscription[events.BatteryEvent]
	statsSub    *events.Subscription[events.StatsEvent]
	lifeSpanSub *events.Subscription[events.LifeSpanEvent]
	statusSub   *events.Subscription[events.StatusEvent]
}

// NewRecorder subscribes writer to the bundle's telemetry-relevant
// emitters. Stop detaches the subscriptions.
func NewRecorder(deviceID string, writer Writer, bundle *events.Bundle) *Recorder {
	r := &Recorder{deviceID: deviceID, writer: writer}
	r.batterySub = bundle.Battery.Subscribe(r.onBattery)
	r.statsSub = bundle.Stats.Subscribe(r.onStats)
	r.lifeSpanSub = bundle.LifeSpan.Subscribe(r.onLifeSpan)
	r.statusSub = bundle.Status.Subscribe(r.onStatus)
	return r
}

// Stop detaches the recorder from the emitters.
func (r *Recorder) Stop() {
	r.batterySub.Cancel()
	r.statsSub.Cancel()
	r.lifeSpanSub.Cancel()
	r.statusSub.Cancel()
}

func (r *Recorder) onBattery(event events.BatteryEvent) error {
	r.writer.WriteBatteryLevel(r.deviceID, float64(event.Value))
	return nil
}

func (r *Recorder) onStats(event events.StatsEvent) error {
	// Stats payloads are sparse; a run with neither area nor time
	// carries nothing worth charting.
	if event.Area == nil && event.Time == nil {
		return nil
	}

	var area, duration float64
	if event.Area != nil {
		area = float64(*event.Area)
	}
	if event.Time != nil {
		duration = float64(*event.Time)
	}
	cleanType := ""
	if event.Type != nil {
		cleanType = *event.Type
	}

	r.writer.WriteCleanStats(r.deviceID, area, duration, cleanType)
	return nil
}

func (r *Recorder) onLifeSpan(event events.LifeSpanEvent) error {
	for component, percent := range event.Percents {
		r.writer.WriteComponentLife(r.deviceID, component, percent)
	}
	return nil
}

func (r *Recorder) onStatus(event events.StatusEvent) error {
	r.writer.WriteAvailability(r.deviceID, event.Available, event.State.String())
	return nil
}
