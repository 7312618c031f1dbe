// Package telemetry streams vacuum events into time-series storage.
//
// The Recorder subscribes to the battery, stats, life-span and status
// emitters and forwards each published event to InfluxDB as a measurement
// tagged with the device ID. Writes are non-blocking; a slow or unreachable
// InfluxDB never stalls event delivery.
package telemetry
