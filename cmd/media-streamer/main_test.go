package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"media-streamer/internal/database"
	"media-streamer/internal/filesystem"
	"media-streamer/internal/handlers"
	"media-streamer/internal/metrics"
	"media-streamer/internal/startup"
	"media-streamer/internal/streaming"
	"media-streamer/internal/transcoder"
	"media-streamer/internal/workers"
)

func newTestHandlers(t *testing.T) (*handlers.Handlers, *database.Database, string) {
	t.Helper()
	root := t.TempDir()
	transcodeDir := filepath.Join(root, "transcode")
	if err := os.MkdirAll(transcodeDir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	db, err := database.New(context.Background(), filepath.Join(root, "streamer.db"))
	if err != nil {
		t.Fatalf("database.New failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	config := &startup.Config{MediaDir: root, TranscodeDir: transcodeDir}
	service := transcoder.New(transcoder.Config{
		TranscodeDir: transcodeDir,
		Retry:        filesystem.DefaultRetryConfig(),
	}, db, db, workers.NewPool(1))
	return handlers.New(db, service, streaming.NewRegistry(), nil, config), db, transcodeDir
}

func TestDbStatsAdapter(t *testing.T) {
	_, db, transcodeDir := newTestHandlers(t)
	for _, name := range []string{"ffmpeg", "lame"} {
		if err := os.WriteFile(filepath.Join(transcodeDir, name), nil, 0o755); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	adapter := &dbStatsAdapter{db: db, installer: transcoder.NewInstaller(transcodeDir)}

	// Verify the adapter implements the interface
	var _ metrics.StatsProvider = adapter

	stats := adapter.GetStats()
	if stats.Executables != 2 {
		t.Errorf("Executables = %d, want 2", stats.Executables)
	}
	if stats.Transcodings != len(database.DefaultTranscodings) {
		t.Errorf("Transcodings = %d, want %d", stats.Transcodings, len(database.DefaultTranscodings))
	}
}

func TestDbStatsAdapterMissingTranscodeDir(t *testing.T) {
	_, db, transcodeDir := newTestHandlers(t)
	adapter := &dbStatsAdapter{db: db, installer: transcoder.NewInstaller(filepath.Join(transcodeDir, "missing"))}

	if stats := adapter.GetStats(); stats.Executables != 0 {
		t.Errorf("Executables = %d, want 0", stats.Executables)
	}
}

func TestSetupRouter(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	router := setupRouter(h)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/livez", http.StatusOK},
		{http.MethodHead, "/livez", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodGet, "/api/transcodings", http.StatusOK},
		{http.MethodGet, "/api/players", http.StatusOK},
		{http.MethodGet, "/api/streams", http.StatusOK},
		{http.MethodGet, "/api/players/unknown/transcodings", http.StatusNotFound},
		{http.MethodGet, "/rest/stream", http.StatusBadRequest},
		{http.MethodGet, "/rest/stream.view", http.StatusBadRequest},
		{http.MethodPost, "/rest/stream", http.StatusMethodNotAllowed},
		{http.MethodGet, "/does-not-exist", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMetricsServer(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	srv := newMetricsServer("0", h)

	if srv.WriteTimeout != 30*time.Second {
		t.Errorf("WriteTimeout = %v, want 30s", srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout != serverReadHeaderTimeout {
		t.Errorf("ReadHeaderTimeout = %v, want %v", srv.ReadHeaderTimeout, serverReadHeaderTimeout)
	}

	metrics.StreamsActive.Set(0)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); !slices.Contains(strings.Split(body, "\n"), "media_streamer_streams_active 0") {
		t.Error("/metrics does not expose media_streamer_streams_active")
	}
}

func TestShutdownTimeout(t *testing.T) {
	if shutdownTimeout < 10*time.Second {
		t.Errorf("shutdownTimeout = %v, streams need time to stop", shutdownTimeout)
	}
}
