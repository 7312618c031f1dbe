package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteBatteryLevel records the battery charge percentage for a device.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: The vacuum's portal device ID
//   - percent: Battery charge (0-100)
func (c *Client) WriteBatteryLevel(deviceID string, percent float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"battery",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"percent": percent,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCleanStats records statistics for the current or last cleaning run.
//
// Parameters:
//   - deviceID: The vacuum's portal device ID
//   - areaM2: Cleaned area in square metres
//   - durationSeconds: Run duration in seconds
//   - cleanType: Run type reported by the device (e.g. "auto", "spotArea")
func (c *Client) WriteCleanStats(deviceID string, areaM2 float64, durationSeconds float64, cleanType string) {
	if !c.IsConnected() {
		return
	}

	if cleanType == "" {
		cleanType = "unknown"
	}

	point := write.NewPoint(
		"clean_stats",
		map[string]string{
			"device_id":  deviceID,
			"clean_type": cleanType,
		},
		map[string]interface{}{
			"area_m2":          areaM2,
			"duration_seconds": durationSeconds,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteComponentLife records the remaining life of a consumable component.
//
// Used for wear tracking of the main brush, side brush and filter so that
// replacements can be scheduled before performance degrades.
//
// Parameters:
//   - deviceID: The vacuum's portal device ID
//   - component: Component name (brush, sideBrush, heap)
//   - percent: Remaining life (0-100)
func (c *Client) WriteComponentLife(deviceID string, component string, percent float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"component_life",
		map[string]string{
			"device_id": deviceID,
			"component": component,
		},
		map[string]interface{}{
			"percent": percent,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAvailability records an availability/state transition.
//
// Parameters:
//   - deviceID: The vacuum's portal device ID
//   - available: Whether the device is reachable
//   - state: Operating state name (idle, cleaning, docked, ...)
func (c *Client) WriteAvailability(deviceID string, available bool, state string) {
	if !c.IsConnected() {
		return
	}

	availableValue := 0
	if available {
		availableValue = 1
	}

	point := write.NewPoint(
		"availability",
		map[string]string{
			"device_id": deviceID,
			"state":     state,
		},
		map[string]interface{}{
			"available": availableValue,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., backfilled clean logs).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
