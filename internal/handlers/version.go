package handlers

import (
	"net/http"
	"time"

	"media-streamer/internal/startup"
)

// versionResponse is the build information plus how long the server has run.
type versionResponse struct {
	startup.BuildInfo
	StartedAt time.Time `json:"startedAt"`
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, versionResponse{
		BuildInfo: startup.GetBuildInfo(),
		StartedAt: h.startTime.UTC(),
	})
}
