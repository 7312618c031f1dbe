// Package api implements the HTTP REST API and WebSocket server for Ozmo Core.
//
// This package provides:
//   - REST endpoints for vacuum state reads and command execution
//   - WebSocket hub for real-time event broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - Prometheus metrics endpoint
//
// # Architecture
//
// The API server sits between local clients (dashboards, automations) and
// the vacuum runtime. Commands flow from the API through the executor to the
// cloud IoT endpoint, and device events flow back via push and polling,
// which are broadcast to WebSocket clients.
//
// State reads return the latest cached event for each topic; a topic with no
// evidence yet returns 404 rather than a zero value.
package api
