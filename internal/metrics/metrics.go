// Package metrics exposes Prometheus collectors for the runtime: command
// executions, in-flight executions, published events and push traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the runtime reports.
//
// It implements vacbot.CommandObserver so the executor can feed it
// directly.
type Metrics struct {
	commandsTotal    *prometheus.CounterVec
	commandsInFlight prometheus.Gauge
	eventsTotal      *prometheus.CounterVec
	pushTotal        prometheus.Counter
	deviceAvailable  prometheus.Gauge
	batteryPercent   prometheus.Gauge
}

// New creates the collector set.
func New() *Metrics {
	return &Metrics{
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ozmocore_commands_total",
			Help: "Command executions by name and outcome",
		}, []string{"command", "outcome"}),
		commandsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ozmocore_commands_in_flight",
			Help: "Commands currently executing against the cloud",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ozmocore_events_total",
			Help: "Events published by topic",
		}, []string{"topic"}),
		pushTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ozmocore_push_messages_total",
			Help: "Push messages received from the vendor broker",
		}),
		deviceAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ozmocore_device_available",
			Help: "Device availability (1=available, 0=unavailable)",
		}),
		batteryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ozmocore_battery_percent",
			Help: "Last reported battery charge percentage",
		}),
	}
}

// Collectors returns every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.commandsTotal,
		m.commandsInFlight,
		m.eventsTotal,
		m.pushTotal,
		m.deviceAvailable,
		m.batteryPercent,
	}
}

// Register adds every collector to the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// CommandStarted marks one execution in flight.
func (m *Metrics) CommandStarted(name string) {
	m.commandsInFlight.Inc()
}

// CommandFinished records the outcome and releases the in-flight slot.
func (m *Metrics) CommandFinished(name string, err error) {
	m.commandsInFlight.Dec()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.commandsTotal.WithLabelValues(name, outcome).Inc()
}

// EventPublished counts one event on a topic.
func (m *Metrics) EventPublished(topic string) {
	m.eventsTotal.WithLabelValues(topic).Inc()
}

// PushReceived counts one inbound push message.
func (m *Metrics) PushReceived() {
	m.pushTotal.Inc()
}

// SetAvailable records the device availability gauge.
func (m *Metrics) SetAvailable(available bool) {
	if available {
		m.deviceAvailable.Set(1)
		return
	}
	m.deviceAvailable.Set(0)
}

// SetBattery records the battery gauge.
func (m *Metrics) SetBattery(percent int) {
	m.batteryPercent.Set(float64(percent))
}
