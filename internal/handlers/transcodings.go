package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"media-streamer/internal/database"
	"media-streamer/internal/logging"
	"media-streamer/internal/transcoder"
)

// transcodingResponse is a preset plus whether its encoders are present in
// the transcode directory.
type transcodingResponse struct {
	transcoder.Spec
	Installed bool `json:"installed"`
}

// ListTranscodings returns all registered presets.
// GET /api/transcodings
func (h *Handlers) ListTranscodings(w http.ResponseWriter, r *http.Request) {
	specs, err := h.db.ListTranscodings(r.Context())
	if err != nil {
		logging.Error("Failed to list transcodings: %v", err)
		writeJSONError(w, "Failed to list transcodings", http.StatusInternalServerError)
		return
	}

	installer := h.service.Installer()
	resp := make([]transcodingResponse, 0, len(specs))
	for i := range specs {
		resp = append(resp, transcodingResponse{
			Spec:      specs[i],
			Installed: installer.IsInstalled(&specs[i]),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// ListPlayers returns all known players.
// GET /api/players
func (h *Handlers) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.db.ListPlayers(r.Context())
	if err != nil {
		logging.Error("Failed to list players: %v", err)
		writeJSONError(w, "Failed to list players", http.StatusInternalServerError)
		return
	}
	if players == nil {
		players = []transcoder.Player{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, players)
}

// GetPlayerTranscodings returns the presets active for a player.
// GET /api/players/{id}/transcodings
func (h *Handlers) GetPlayerTranscodings(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	if _, err := h.db.GetPlayer(r.Context(), playerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Player not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to get player %s: %v", playerID, err)
		writeJSONError(w, "Failed to get player", http.StatusInternalServerError)
		return
	}

	h.writePlayerTranscodings(w, r, playerID)
}

// setTranscodingsRequest is the body of SetPlayerTranscodings.
type setTranscodingsRequest struct {
	TranscodingIDs []int64 `json:"transcodingIds"`
}

// SetPlayerTranscodings replaces the presets active for a player.
// PUT /api/players/{id}/transcodings
func (h *Handlers) SetPlayerTranscodings(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	var req setTranscodingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	for _, id := range req.TranscodingIDs {
		if _, err := h.db.GetTranscoding(r.Context(), id); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				writeJSONError(w, "Unknown transcoding", http.StatusBadRequest)
				return
			}
			logging.Error("Failed to get transcoding %d: %v", id, err)
			writeJSONError(w, "Failed to update transcodings", http.StatusInternalServerError)
			return
		}
	}

	if err := h.db.SetPlayerTranscodings(r.Context(), playerID, req.TranscodingIDs); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Player not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to set transcodings of player %s: %v", playerID, err)
		writeJSONError(w, "Failed to update transcodings", http.StatusInternalServerError)
		return
	}

	logging.Info("Player %s now uses transcodings %v", playerID, req.TranscodingIDs)
	h.writePlayerTranscodings(w, r, playerID)
}

func (h *Handlers) writePlayerTranscodings(w http.ResponseWriter, r *http.Request, playerID string) {
	specs, err := h.db.TranscodingsForPlayer(r.Context(), playerID)
	if err != nil {
		logging.Error("Failed to list transcodings of player %s: %v", playerID, err)
		writeJSONError(w, "Failed to list transcodings", http.StatusInternalServerError)
		return
	}
	if specs == nil {
		specs = []transcoder.Spec{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, specs)
}

// ActiveStreams returns the streams currently being served.
// GET /api/streams
func (h *Handlers) ActiveStreams(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.registry.Active())
}
