package commands

import (
	"fmt"
)

// Registry maps canonical command names to the handler that knows how to
// parse the device's response for that command. Lookups normalize the
// requested name first, so legacy wire names ("onBattery", "ReportStats")
// resolve to the same handler as their canonical form.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry from the given handlers. Registration
// fails if two handlers normalize to the same canonical name, since a
// duplicate would silently shadow an earlier parser.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		name := Canonical(h.Name())
		if _, exists := r.handlers[name]; exists {
			return nil, fmt.Errorf("commands: duplicate registration for %q", name)
		}
		r.handlers[name] = h
	}
	return r, nil
}

// Lookup resolves a raw wire name to its handler. The boolean reports
// whether a handler is registered for the canonical form of name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[Canonical(name)]
	return h, ok
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// DefaultRegistry returns a registry populated with every built-in
// data-bearing command. It panics only on a programming error (duplicate
// builtin names), which the registry tests guard against.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		GetBattery{},
		GetChargeState{},
		GetCleanInfo{},
		GetCleanLogs{},
		GetError{},
		GetFanSpeed{},
		GetLifeSpan{},
		GetStats{},
		GetWaterInfo{},
	)
	if err != nil {
		panic(err)
	}
	return r
}
