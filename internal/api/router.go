package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus metrics
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Device state reads (latest cached event per topic)
		r.Get("/status", s.handleStatus)
		r.Get("/battery", s.handleBattery)
		r.Get("/stats", s.handleStats)
		r.Get("/lifespan", s.handleLifeSpan)
		r.Get("/fan-speed", s.handleFanSpeed)
		r.Get("/water-info", s.handleWaterInfo)
		r.Get("/error", s.handleError)
		r.Get("/position", s.handlePosition)
		r.Get("/rooms", s.handleRooms)

		// History reads (database-backed)
		r.Get("/clean-logs", s.handleCleanLogs)
		r.Get("/status-history", s.handleStatusHistory)

		// Command endpoints
		r.Route("/commands", func(r chi.Router) {
			r.Post("/clean", s.handleClean)
			r.Post("/clean-area", s.handleCleanArea)
			r.Post("/charge", s.handleCharge)
			r.Post("/fan-speed", s.handleSetFanSpeed)
			r.Post("/water-level", s.handleSetWaterLevel)
			r.Post("/play-sound", s.handlePlaySound)
			r.Post("/relocate", s.handleRelocate)
			r.Post("/custom", s.handleCustomCommand)
		})

		// WebSocket event stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"device_id": s.bot.DeviceID(),
	})
}
