package commands

import (
	"github.com/nerrad567/ozmo-core/internal/events"
)

// Command is an outbound wire command: a canonical name plus arguments.
// Commands are immutable value types.
type Command interface {
	// Name is the canonical wire name (e.g. "getBattery", "clean").
	Name() string

	// Args is the JSON-encodable argument payload. Get-style commands
	// send an empty object; a few legacy commands send arrays.
	Args() any
}

// Handler is a Command that can parse an event payload (a direct response
// body or an unsolicited push) into zero or more domain events.
//
// Handle returns false when nothing could be parsed; the dispatcher logs
// the failure and no emitter state changes. Handlers are idempotent and
// treat missing optional fields as "no new information".
type Handler interface {
	Command

	Handle(bundle *events.Bundle, data map[string]any) bool
}

// ResponseParser is a Command that parses its own direct response,
// including the legacy request envelope. Direct responses bypass registry
// lookup because the wire name in a response can be ambiguous or missing.
type ResponseParser interface {
	Command

	HandleRequested(bundle *events.Bundle, response map[string]any) bool
}

// Mutator marks set-style commands (they mutate device state).
// Everything else is get-style (queries state).
type Mutator interface {
	Command

	mutator()
}

// noArgs is the empty argument object shared by get-style commands.
func noArgs() any { return map[string]any{} }

// dataParser is implemented by commands whose response body carries a
// "data" object in the current wire generation.
type dataParser interface {
	parseBodyData(bundle *events.Bundle, data map[string]any) bool
}

// bodyParser is implemented by commands needing access to the whole body,
// e.g. to reinterpret special server failure codes.
type bodyParser interface {
	parseBody(bundle *events.Bundle, body map[string]any) bool
}

// UnwrapRequested strips the legacy request envelope from a direct
// response: {"ret": "ok", "resp": {...}}. A ret other than "ok" is a
// logical server failure; nothing is published.
func UnwrapRequested(response map[string]any) (map[string]any, bool) {
	if stringFrom(response["ret"]) != "ok" {
		return nil, false
	}
	return nestedMap(response, "resp"), true
}

// handleRequested is the standard direct-response path: unwrap the legacy
// envelope, then parse like an unsolicited payload.
func handleRequested(h Handler, bundle *events.Bundle, response map[string]any) bool {
	data, ok := UnwrapRequested(response)
	if !ok {
		return false
	}
	return h.Handle(bundle, data)
}

// handleBody extracts the message body from a payload and delegates to
// the command's body parser. Both wire generations nest the interesting
// fields under "body"; some legacy pushes deliver the body directly.
func handleBody(p bodyParser, bundle *events.Bundle, data map[string]any) bool {
	return p.parseBody(bundle, nestedMap(data, "body"))
}

// parseStandardBody implements the common body contract: a missing code
// field or code 0 means success and the payload lives under "data";
// anything else is a logical failure and nothing is published.
func parseStandardBody(p dataParser, bundle *events.Bundle, body map[string]any) bool {
	if code, ok := intFrom(body["code"]); ok && code != 0 {
		return false
	}
	return p.parseBodyData(bundle, nestedMap(body, "data"))
}

// parseExecuteBody is the body contract for action commands that produce
// no event of their own: success is code 0 (or absent).
func parseExecuteBody(body map[string]any) bool {
	code, ok := intFrom(body["code"])
	return !ok || code == 0
}
