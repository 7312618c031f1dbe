package commands

import (
	"strings"
	"testing"
)

func TestRegistryLookupNormalizes(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		raw  string
		want string
	}{
		{"getBattery", "getBattery"},
		{"onBattery", "getBattery"},
		{"onBattery_V2", "getBattery"},
		{"reportStats", "getStats"},
		{"getCleanInfo_v2", "getCleanInfo"},
	}

	for _, tt := range tests {
		h, ok := r.Lookup(tt.raw)
		if !ok {
			t.Errorf("Lookup(%q): no handler", tt.raw)
			continue
		}
		if got := Canonical(h.Name()); got != tt.want {
			t.Errorf("Lookup(%q) resolved to %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	r := DefaultRegistry()
	if _, ok := r.Lookup("getNoSuchThing"); ok {
		t.Error("Lookup returned a handler for an unregistered name")
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	// onBattery normalizes to getBattery, colliding with the real handler.
	_, err := NewRegistry(GetBattery{}, aliasedHandler{GetBattery{}, "onBattery"})
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if !strings.Contains(err.Error(), "getBattery") {
		t.Errorf("error %q does not name the colliding command", err)
	}
}

func TestDefaultRegistryCoversBuiltins(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range []string{
		"getBattery", "getChargeState", "getCleanInfo", "GetCleanLogs",
		"getError", "getSpeed", "getLifeSpan", "getStats", "getWaterInfo",
	} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("builtin %q not registered", name)
		}
	}
}

// aliasedHandler wraps a handler under a different wire name.
type aliasedHandler struct {
	Handler
	name string
}

func (a aliasedHandler) Name() string { return a.name }
