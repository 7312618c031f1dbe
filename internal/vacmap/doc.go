// Package vacmap is the map collaborator: it parses map-related payloads
// (trace, map pieces, positions, map sets and rooms), caches the raw
// pieces, and publishes change events on the map, position and rooms
// emitters it owns.
//
// Map geometry is not decoded. Consumers that need the actual image data
// read the cached raw pieces; the emitters only signal that something
// changed.
//
// Map commands carry no response parser, so their direct responses flow
// back through the dispatcher's fallback into Handle, the same path
// unsolicited pushes take.
package vacmap
