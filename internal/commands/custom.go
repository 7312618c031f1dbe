package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// CustomCommand sends an arbitrary wire command that is not part of the
// built-in set. The raw response is published unparsed so callers can
// experiment with firmware features the library does not model yet.
type CustomCommand struct {
	name string
	args any
}

// NewCustomCommand builds a custom command. A nil args sends an empty
// object, matching the get-style convention.
func NewCustomCommand(name string, args any) CustomCommand {
	if args == nil {
		args = noArgs()
	}
	return CustomCommand{name: name, args: args}
}

func (c CustomCommand) Name() string { return c.name }
func (c CustomCommand) Args() any    { return c.args }

func (c CustomCommand) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	if stringFrom(response["ret"]) != "ok" {
		return false
	}
	bundle.CustomCommand.Notify(events.CustomCommandEvent{
		Name:     c.name,
		Response: response,
	})
	return true
}
