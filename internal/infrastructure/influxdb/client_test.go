package influxdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/ozmo-core/internal/infrastructure/config"
	"github.com/nerrad567/ozmo-core/internal/infrastructure/influxdb"
)

// devConfig points at the local dev InfluxDB from docker-compose.yml.
func devConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "ozmo-dev-token",
		Org:           "ozmo",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectDev returns a client against the dev server, skipping the test
// when no server is listening. The client is closed when the test ends.
func connectDev(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(devConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// errorCapture collects async write failures for later assertion.
type errorCapture struct {
	mu  sync.Mutex
	err error
}

func (e *errorCapture) set(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

func (e *errorCapture) check(t *testing.T) {
	t.Helper()
	time.Sleep(100 * time.Millisecond)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		t.Errorf("async write error = %v", e.err)
	}
}

func TestConnectDisabled(t *testing.T) {
	cfg := devConfig()
	cfg.Enabled = false

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect error = %v, want ErrDisabled", err)
	}
}

func TestConnectRefusedPort(t *testing.T) {
	cfg := devConfig()
	cfg.URL = "http://127.0.0.1:59999"

	if _, err := influxdb.Connect(cfg); err == nil {
		t.Fatal("Connect succeeded against a dead port")
	}
}

func TestConnectAndHealthCheck(t *testing.T) {
	client := connectDev(t)

	if !client.IsConnected() {
		t.Error("IsConnected = false after Connect")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck error = %v", err)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if err := client.HealthCheck(cancelled); err == nil {
		t.Error("HealthCheck ignored a cancelled context")
	}
}

func TestTelemetryWrites(t *testing.T) {
	client := connectDev(t)
	capture := &errorCapture{}
	client.SetOnError(capture.set)

	client.WriteBatteryLevel("E0001234567890", 87)
	client.WriteCleanStats("E0001234567890", 28, 1800, "auto")
	client.WriteCleanStats("E0001234567890", 9, 600, "") // type falls back to "unknown"
	client.WriteComponentLife("E0001234567890", "sideBrush", 48.77)
	client.WriteAvailability("E0001234567890", true, "cleaning")
	client.Flush()

	capture.check(t)
}

func TestRawPointWrites(t *testing.T) {
	client := connectDev(t)
	capture := &errorCapture{}
	client.SetOnError(capture.set)

	client.WritePoint(
		"custom_measurement",
		map[string]string{"source": "test"},
		map[string]any{"value": 99.9, "count": 5},
	)
	client.WritePointWithTime(
		"custom_measurement",
		map[string]string{"source": "backfill"},
		map[string]any{"value": 88.8},
		time.Now().Add(-time.Hour),
	)
	client.Flush()

	capture.check(t)
}

func TestCloseMarksDisconnected(t *testing.T) {
	client, err := influxdb.Connect(devConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}

	client.WriteBatteryLevel("E0001234567890", 50)

	if err := client.Close(); err != nil {
		t.Errorf("Close error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected = true after Close")
	}

	// Flush after Close is a documented no-op.
	client.Flush()
}
