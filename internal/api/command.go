package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/ozmo-core/internal/commands"
)

// decodeBody decodes a JSON request body into v. A missing body is
// tolerated for commands without parameters.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// execute runs a command through the bot and writes the response.
// Commands are accepted once the cloud endpoint acknowledges them; the
// resulting state change arrives via push and is visible on the event
// stream and state endpoints.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, cmd commands.Command) {
	if err := s.bot.Execute(r.Context(), cmd); err != nil {
		s.logger.Warn("command failed", "command", cmd.Name(), "error", err)
		writeUpstreamError(w, "command "+cmd.Name()+" failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted": true,
		"command":  cmd.Name(),
	})
}

// handleClean starts, pauses, resumes or stops an automatic clean.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	action := commands.CleanAction(req.Action)
	switch action {
	case commands.CleanStart, commands.CleanPause, commands.CleanResume, commands.CleanStop:
	default:
		writeBadRequest(w, "action must be one of start, pause, resume, stop")
		return
	}

	s.execute(w, r, commands.NewClean(action))
}

// handleCleanArea starts a targeted clean of rooms or a custom rectangle.
func (s *Server) handleCleanArea(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode      string `json:"mode"`
		Area      string `json:"area"`
		Cleanings int    `json:"cleanings"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	mode := commands.CleanMode(req.Mode)
	if mode != commands.ModeSpotArea && mode != commands.ModeCustomArea {
		writeBadRequest(w, "mode must be spotArea or customArea")
		return
	}
	if req.Area == "" {
		writeBadRequest(w, "area is required")
		return
	}

	s.execute(w, r, commands.NewCleanArea(mode, req.Area, req.Cleanings))
}

// handleCharge sends the vacuum back to its dock.
func (s *Server) handleCharge(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, commands.Charge{})
}

// handleSetFanSpeed changes the suction level.
func (s *Server) handleSetFanSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed string `json:"speed"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := commands.NewSetFanSpeed(req.Speed)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.execute(w, r, cmd)
}

// handleSetWaterLevel changes the mopping water flow.
func (s *Server) handleSetWaterLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := commands.NewSetWaterInfo(req.Amount)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.execute(w, r, cmd)
}

// handlePlaySound makes the vacuum beep so it can be located.
func (s *Server) handlePlaySound(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, commands.PlaySound{})
}

// handleRelocate triggers a manual relocation on the map.
func (s *Server) handleRelocate(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, commands.Relocate{})
}

// handleCustomCommand sends an arbitrary named command with raw arguments.
// The device response is published on the custom_command channel.
func (s *Server) handleCustomCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Args any    `json:"args"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	s.execute(w, r, commands.NewCustomCommand(req.Name, req.Args))
}
