// Package commands defines the wire commands understood by the device and
// the parsing of their responses into domain events.
//
// Every command has a canonical wire name (e.g. "getBattery"). Get-style
// commands query state and parse response payloads into events; set-style
// commands mutate state and, on success, replay their own arguments through
// the paired getter's parser so subscribers see the new value without an
// extra round-trip.
//
// The Registry maps canonical names to handlers for unsolicited pushes.
// It is built once at startup from a fixed list; duplicate names are a
// programming error and fail construction.
//
// Payloads are handled as decoded JSON (map[string]any) because the cloud
// service emits two generations of envelope with loosely-typed fields;
// see the helpers in wire.go.
package commands
