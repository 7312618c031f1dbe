package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/ozmo-core/internal/events"
)

// writeLatest responds with the emitter's cached event, or 404 when the
// topic has produced no evidence yet.
func writeLatest[T any](w http.ResponseWriter, emitter *events.Emitter[T], topic string) {
	event, ok := emitter.Latest()
	if !ok {
		writeNotFound(w, "no "+topic+" data received yet")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// handleStatus returns availability, operating state and firmware version.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.bot.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"available": status.Available,
		"state":     status.State.String(),
		"firmware":  s.bot.FirmwareVersion(),
	})
}

func (s *Server) handleBattery(w http.ResponseWriter, _ *http.Request) {
	writeLatest(w, s.bot.Events().Battery, "battery")
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeLatest(w, s.bot.Events().Stats, "stats")
}

func (s *Server) handleLifeSpan(w http.ResponseWriter, _ *http.Request) {
	writeLatest(w, s.bot.Events().LifeSpan.Emitter, "life span")
}

func (s *Server) handleFanSpeed(w http.ResponseWriter, _ *http.Request) {
	writeLatest(w, s.bot.Events().FanSpeed, "fan speed")
}

func (s *Server) handleWaterInfo(w http.ResponseWriter, _ *http.Request) {
	writeLatest(w, s.bot.Events().WaterInfo, "water info")
}

func (s *Server) handleError(w http.ResponseWriter, _ *http.Request) {
	writeLatest(w, s.bot.Events().Error, "error")
}

func (s *Server) handlePosition(w http.ResponseWriter, _ *http.Request) {
	writeLatest(w, s.bot.Events().Position, "position")
}

func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	writeLatest(w, s.bot.Events().Rooms, "rooms")
}

// handleCleanLogs returns stored cleaning history, newest first. Without
// database-backed history it falls back to the latest fetched event.
func (s *Server) handleCleanLogs(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeLatest(w, s.bot.Events().CleanLogs, "clean log")
		return
	}

	logs, err := s.history.RecentLogs(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("reading clean logs", "error", err)
		writeInternalError(w, "failed to read clean logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// handleStatusHistory returns stored availability/state transitions.
func (s *Server) handleStatusHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "history storage not configured")
		return
	}

	records, err := s.history.StatusHistory(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("reading status history", "error", err)
		writeInternalError(w, "failed to read status history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

// queryLimit parses the limit query parameter, 0 when absent or invalid.
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
