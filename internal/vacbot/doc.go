// Package vacbot is the per-device runtime: it owns the command executor,
// the inbound message dispatcher, and the event emitter bundle for one
// robot vacuum.
//
// The executor resolves ambiguous clean verbs against the device's current
// state, limits in-flight cloud requests, and routes every direct response
// back through the command's own parser. The dispatcher feeds unsolicited
// push messages into the command registry, with a fallback path for legacy
// wire names, map payloads and echoed set commands.
//
// A status subscriber reconciles availability transitions: when the device
// comes back after being unreachable every data emitter is asked to
// refresh, and docking triggers a clean-log refresh so the just-finished
// run shows up without polling.
package vacbot
