package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// CleanAction is the verb sent with a clean command.
type CleanAction string

// Supported clean actions.
const (
	CleanStart  CleanAction = "start"
	CleanPause  CleanAction = "pause"
	CleanResume CleanAction = "resume"
	CleanStop   CleanAction = "stop"
)

// CleanMode selects the targeting behavior of an area clean.
type CleanMode string

// Supported area clean modes.
const (
	ModeCustomArea CleanMode = "customArea"
	ModeSpotArea   CleanMode = "spotArea"
)

// Clean starts, pauses, resumes or stops a whole-home cleaning run.
//
// The action is resolved against the device's current operating state
// before dispatch: resuming an idle device becomes a start, starting a
// paused device becomes a resume.
type Clean struct {
	action CleanAction
}

// NewClean builds a whole-home clean command with the given action.
func NewClean(action CleanAction) Clean {
	return Clean{action: action}
}

func (Clean) Name() string { return "clean" }
func (Clean) mutator()     {}

func (c Clean) Args() any {
	return map[string]any{"act": string(c.action), "type": "auto"}
}

// Action returns the verb this command will send.
func (c Clean) Action() CleanAction { return c.action }

// WithAction returns a copy of the command carrying a different verb.
func (c Clean) WithAction(action CleanAction) Clean {
	c.action = action
	return c
}

func (c Clean) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	resp, ok := UnwrapRequested(response)
	if !ok {
		return false
	}
	return parseExecuteBody(nestedMap(resp, "body"))
}

// CleanArea cleans specific map coordinates or rooms. Unlike Clean, its
// verb is never rewritten against the current state: an area clean is
// always an explicit start.
type CleanArea struct {
	mode      CleanMode
	area      string
	cleanings int
}

// NewCleanArea builds an area clean. area is a coordinate rectangle for
// ModeCustomArea or a comma-separated room ID list for ModeSpotArea.
// cleanings below 1 is treated as a single pass.
func NewCleanArea(mode CleanMode, area string, cleanings int) CleanArea {
	if cleanings < 1 {
		cleanings = 1
	}
	return CleanArea{mode: mode, area: area, cleanings: cleanings}
}

func (CleanArea) Name() string { return "clean" }
func (CleanArea) mutator()     {}

func (c CleanArea) Args() any {
	return map[string]any{
		"act":     string(CleanStart),
		"content": c.area,
		"count":   c.cleanings,
		"type":    string(c.mode),
	}
}

func (c CleanArea) HandleRequested(bundle *events.Bundle, response map[string]any) bool {
	resp, ok := UnwrapRequested(response)
	if !ok {
		return false
	}
	return parseExecuteBody(nestedMap(resp, "body"))
}
