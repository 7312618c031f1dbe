package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/ozmo-core/internal/infrastructure/config"
)

func TestNewAcceptsEitherFormat(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		logger := New(config.LoggingConfig{
			Level:  "info",
			Format: format,
			Output: "stdout",
		}, "0.1.0")
		if logger == nil {
			t.Fatalf("New(%s) returned nil", format)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWithReturnsDetachedChild(t *testing.T) {
	logger := Default()
	child := logger.With("component", "push")

	if child == nil {
		t.Fatal("With returned nil")
	}
	if child == logger {
		t.Error("With returned the parent logger")
	}
}

func TestServiceFieldsAppearInEveryRecord(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{
			slog.String("service", "ozmocore"),
			slog.String("version", "test"),
		})
	logger := &Logger{Logger: slog.New(handler)}

	logger.Info("device online", "device_id", "E0001234567890")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["service"] != "ozmocore" || record["version"] != "test" {
		t.Errorf("default fields missing: %s", buf.String())
	}
	if record["msg"] != "device online" || record["device_id"] != "E0001234567890" {
		t.Errorf("record fields wrong: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "level") {
		t.Errorf("record has no level field: %s", buf.String())
	}
}
