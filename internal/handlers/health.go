package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"media-streamer/internal/logging"
	"media-streamer/internal/startup"
)

const (
	statusHealthy     = "healthy"
	statusDegraded    = "degraded"
	statusUnavailable = "unavailable"
)

// readinessTimeout bounds the database ping of health and readiness checks.
const readinessTimeout = 2 * time.Second

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Transcoding info
	TranscodingEnabled bool `json:"transcodingEnabled"`
	Executables        int  `json:"executables"`
	ActiveStreams      int  `json:"activeStreams"`
	MemoryPaused       bool `json:"memoryPaused"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	MediaFiles   int `json:"mediaFiles"`
	Players      int `json:"players"`
	Transcodings int `json:"transcodings"`
}

// HealthCheck returns the health status of the service. It is degraded when
// no encoders are installed or new transcodes are paused.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ready := h.ping(r.Context()) == nil

	executables, err := h.service.Installer().Executables()
	if err != nil {
		logging.Debug("Health: listing transcode directory: %v", err)
	}

	response := HealthResponse{
		Ready:              ready,
		Version:            startup.Version,
		Uptime:             time.Since(h.startTime).Round(time.Second).String(),
		TranscodingEnabled: len(executables) > 0,
		Executables:        len(executables),
		ActiveStreams:      len(h.registry.Active()),
		MemoryPaused:       h.memory.IsPaused(),
		GoVersion:          runtime.Version(),
		NumCPU:             runtime.NumCPU(),
		NumGoroutine:       runtime.NumGoroutine(),
	}

	switch {
	case !ready:
		response.Status = statusUnavailable
	case !response.TranscodingEnabled || response.MemoryPaused:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	if ready {
		stats := h.db.GetStats()
		response.MediaFiles = stats.MediaFiles
		response.Players = stats.Players
		response.Transcodings = stats.Transcodings
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if the database is unreachable
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the database answers
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.ping(r.Context()); err != nil {
		logging.Warn("Readiness check failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}

func (h *Handlers) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	return h.db.Ping(ctx)
}
