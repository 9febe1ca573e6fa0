package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"media-streamer/internal/database"
	"media-streamer/internal/filesystem"
	"media-streamer/internal/startup"
	"media-streamer/internal/streaming"
	"media-streamer/internal/transcoder"
	"media-streamer/internal/workers"
)

type testEnv struct {
	h            *Handlers
	db           *database.Database
	mediaDir     string
	transcodeDir string
	config       *startup.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		mediaDir:     filepath.Join(root, "music"),
		transcodeDir: filepath.Join(root, "transcode"),
	}
	for _, dir := range []string{env.mediaDir, env.transcodeDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
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
	env.db = db

	env.config = &startup.Config{
		MediaDir:              env.mediaDir,
		TranscodeDir:          env.transcodeDir,
		HLSCommand:            startup.DefaultHLSCommand,
		PreferredFormatScheme: startup.PreferredFormatAnnotation,
	}
	service := transcoder.New(transcoder.Config{
		TranscodeDir: env.transcodeDir,
		HLSCommand:   env.config.HLSCommand,
		Retry:        filesystem.DefaultRetryConfig(),
	}, db, db, workers.NewPool(2))

	env.h = New(db, service, streaming.NewRegistry(), nil, env.config)
	return env
}

// addMedia writes content below the media directory and catalogs it.
func (env *testEnv) addMedia(t *testing.T, name, content string, file transcoder.MediaFile) *transcoder.MediaFile {
	t.Helper()
	file.Path = filepath.Join(env.mediaDir, name)
	if err := os.MkdirAll(filepath.Dir(file.Path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(file.Path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	file.FileSize = int64(len(content))
	if err := env.db.UpsertMediaFile(context.Background(), &file); err != nil {
		t.Fatalf("UpsertMediaFile failed: %v", err)
	}
	return &file
}

// installExecutable places a file named name in the transcode directory.
func (env *testEnv) installExecutable(t *testing.T, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(env.transcodeDir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func intPtr(i int) *int { return &i }

func TestStreamRawFile(t *testing.T) {
	env := newTestEnv(t)
	file := env.addMedia(t, "a.mp3", "hello world", transcoder.MediaFile{Format: "mp3", BitRate: intPtr(128)})

	req := httptest.NewRequest(http.MethodGet, "/rest/stream?id="+strconv.FormatInt(file.ID, 10), nil)
	w := httptest.NewRecorder()
	env.h.Stream(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "hello world" {
		t.Errorf("body = %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("Content-Type = %q, want audio/mpeg", got)
	}
	if got := w.Header().Get("Content-Length"); got != "11" {
		t.Errorf("Content-Length = %q, want 11", got)
	}
	if got := w.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q, want bytes", got)
	}

	if _, err := env.db.GetPlayer(context.Background(), defaultPlayerID); err != nil {
		t.Errorf("default player was not registered: %v", err)
	}
	if active := env.h.registry.Active(); len(active) != 0 {
		t.Errorf("Active() = %d streams after the response, want 0", len(active))
	}
}

func TestStreamByPath(t *testing.T) {
	env := newTestEnv(t)
	env.addMedia(t, "album/b.mp3", "bytes", transcoder.MediaFile{Format: "mp3"})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"catalogued file", "album/b.mp3", http.StatusOK},
		{"unknown file", "album/missing.mp3", http.StatusNotFound},
		{"outside media dir", "../streamer.db", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rest/stream?path="+tt.path+"&player=web", nil)
			w := httptest.NewRecorder()
			env.h.Stream(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestStreamRequestErrors(t *testing.T) {
	env := newTestEnv(t)
	file := env.addMedia(t, "a.mp3", "x", transcoder.MediaFile{Format: "mp3"})
	id := strconv.FormatInt(file.ID, 10)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"no file", "", http.StatusBadRequest},
		{"invalid id", "id=abc", http.StatusBadRequest},
		{"unknown id", "id=999", http.StatusNotFound},
		{"invalid maxBitRate", "id=" + id + "&maxBitRate=fast", http.StatusBadRequest},
		{"negative timeOffset", "id=" + id + "&timeOffset=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rest/stream?"+tt.query, nil)
			w := httptest.NewRecorder()
			env.h.Stream(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestStreamRawRange(t *testing.T) {
	env := newTestEnv(t)
	file := env.addMedia(t, "a.mp3", "hello world", transcoder.MediaFile{Format: "mp3"})

	req := httptest.NewRequest(http.MethodGet, "/rest/stream?id="+strconv.FormatInt(file.ID, 10), nil)
	req.Header.Set("Range", "bytes=6-")
	w := httptest.NewRecorder()
	env.h.Stream(w, req)

	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if w.Body.String() != "world" {
		t.Errorf("body = %q, want world", w.Body.String())
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 6-10/11" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestStreamHead(t *testing.T) {
	env := newTestEnv(t)
	file := env.addMedia(t, "a.mp3", "hello world", transcoder.MediaFile{Format: "mp3"})

	req := httptest.NewRequest(http.MethodHead, "/rest/stream?id="+strconv.FormatInt(file.ID, 10), nil)
	w := httptest.NewRecorder()
	env.h.Stream(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD wrote %d body bytes", w.Body.Len())
	}
	if got := w.Header().Get("Content-Length"); got != "11" {
		t.Errorf("Content-Length = %q, want 11", got)
	}
}

func TestStreamFileMissingOnDisk(t *testing.T) {
	env := newTestEnv(t)
	file := env.addMedia(t, "gone.mp3", "x", transcoder.MediaFile{Format: "mp3"})
	if err := os.Remove(file.Path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/rest/stream?id="+strconv.FormatInt(file.ID, 10), nil)
	w := httptest.NewRecorder()
	env.h.Stream(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if strings.Contains(w.Body.String(), env.mediaDir) {
		t.Errorf("response leaks the media path: %q", w.Body.String())
	}
}

func TestStreamInfo(t *testing.T) {
	env := newTestEnv(t)
	flac := env.addMedia(t, "a.flac", "flacdata", transcoder.MediaFile{
		Format:          "flac",
		BitRate:         intPtr(900),
		DurationSeconds: intPtr(100),
	})
	query := "/api/stream-info?id=" + strconv.FormatInt(flac.ID, 10) + "&maxBitRate=128"

	getInfo := func(t *testing.T) streamInfoResponse {
		t.Helper()
		w := httptest.NewRecorder()
		env.h.StreamInfo(w, httptest.NewRequest(http.MethodGet, query, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		var info streamInfoResponse
		if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		return info
	}

	t.Run("encoder missing", func(t *testing.T) {
		info := getInfo(t)
		if info.Transcode {
			t.Error("Transcode = true without an installed encoder")
		}
		if info.Suffix != "flac" {
			t.Errorf("Suffix = %q, want flac", info.Suffix)
		}
		if info.ExpectedLength == nil || *info.ExpectedLength != int64(len("flacdata")) {
			t.Errorf("ExpectedLength = %v, want file size", info.ExpectedLength)
		}
	})

	t.Run("encoder installed", func(t *testing.T) {
		env.installExecutable(t, "ffmpeg", "exit 0")
		info := getInfo(t)
		if !info.Transcode {
			t.Fatal("Transcode = false with ffmpeg installed")
		}
		if info.Transcoding != "mp3 audio" {
			t.Errorf("Transcoding = %q, want mp3 audio", info.Transcoding)
		}
		if info.Suffix != "mp3" || info.ContentType != "audio/mpeg" {
			t.Errorf("Suffix = %q, ContentType = %q", info.Suffix, info.ContentType)
		}
		if info.MaxBitRate != 128 {
			t.Errorf("MaxBitRate = %d, want 128", info.MaxBitRate)
		}
		if info.ExpectedLength == nil || *info.ExpectedLength != 1_632_000 {
			t.Errorf("ExpectedLength = %v, want 1632000", info.ExpectedLength)
		}
		if !info.RangeAllowed {
			t.Error("RangeAllowed = false for a bitrate-driven preset")
		}
	})
}

func TestStreamInfoVideo(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantWidth  int
		wantHeight int
	}{
		{"explicit size", "&size=640x360", 640, 360},
		{"no size or bitrate uses smallest", "", 400, 224},
		{"size from requested bitrate", "&maxBitRate=1000", 640, 360},
		{"invalid size falls back", "&size=big&maxBitRate=2500", 960, 540},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.installExecutable(t, "ffmpeg", "exit 0")
			video := env.addMedia(t, "clip.mkv", "video", transcoder.MediaFile{
				Format:          "mkv",
				IsVideo:         true,
				Width:           intPtr(1920),
				Height:          intPtr(1080),
				DurationSeconds: intPtr(60),
			})

			req := httptest.NewRequest(http.MethodGet, "/api/stream-info?id="+strconv.FormatInt(video.ID, 10)+tt.query, nil)
			w := httptest.NewRecorder()
			env.h.StreamInfo(w, req)

			var info streamInfoResponse
			if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !info.Transcode || info.Suffix != "flv" {
				t.Errorf("Transcode = %v, Suffix = %q, want flv transcode", info.Transcode, info.Suffix)
			}
			if info.MaxBitRate != transcoder.DefaultVideoBitRate {
				t.Errorf("MaxBitRate = %d, want %d", info.MaxBitRate, transcoder.DefaultVideoBitRate)
			}
			if info.Width != tt.wantWidth || info.Height != tt.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", info.Width, info.Height, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestPreferredFormat(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		scheme    string
		target    string
		want      string
	}{
		{"request format wins", "mp3", startup.PreferredFormatAnnotation, "/rest/stream?format=ogg", "ogg"},
		{"nothing configured", "", startup.PreferredFormatAnnotation, "/rest/stream", ""},
		{"annotation applies to rest", "mp3", startup.PreferredFormatAnnotation, "/rest/stream", "mp3"},
		{"request_only skips rest", "mp3", startup.PreferredFormatRequestOnly, "/rest/stream", ""},
		{"request_only applies elsewhere", "mp3", startup.PreferredFormatRequestOnly, "/api/stream-info", "mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handlers{config: &startup.Config{PreferredFormat: tt.preferred, PreferredFormatScheme: tt.scheme}}
			got := h.preferredFormat(httptest.NewRequest(http.MethodGet, tt.target, nil))
			if got != tt.want {
				t.Errorf("preferredFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlayerID(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"player=car&c=web", "car"},
		{"c=web", "web"},
		{"", defaultPlayerID},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := playerID(httptest.NewRequest(http.MethodGet, "/rest/stream?"+tt.query, nil)); got != tt.want {
				t.Errorf("playerID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvePlayerKeepsScheme(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.db.UpsertPlayer(ctx, &transcoder.Player{ID: "car", Name: "Car", Scheme: transcoder.Scheme96}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}

	player, err := env.h.resolvePlayer(ctx, "car", "alice")
	if err != nil {
		t.Fatalf("resolvePlayer failed: %v", err)
	}
	if player.Scheme != transcoder.Scheme96 || player.Username != "alice" {
		t.Errorf("player = %+v, want scheme 96 and username alice", player)
	}

	stored, err := env.db.GetPlayer(ctx, "car")
	if err != nil {
		t.Fatalf("GetPlayer failed: %v", err)
	}
	if stored.Scheme != transcoder.Scheme96 || stored.Username != "alice" || stored.Name != "Car" {
		t.Errorf("stored player = %+v", stored)
	}
}

func TestParseByteRange(t *testing.T) {
	tests := []struct {
		header      string
		size        int64
		first, last int64
		ok          bool
	}{
		{"bytes=0-", 100, 0, 99, true},
		{"bytes=10-19", 100, 10, 19, true},
		{"bytes=90-200", 100, 90, 99, true},
		{"bytes=-10", 100, 90, 99, true},
		{"bytes=-500", 100, 0, 99, true},
		{"bytes=100-", 100, 0, 0, false},
		{"bytes=20-10", 100, 0, 0, false},
		{"bytes=0-1,5-6", 100, 0, 0, false},
		{"items=0-1", 100, 0, 0, false},
		{"bytes=abc", 100, 0, 0, false},
		{"bytes=0-", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			first, last, ok := parseByteRange(tt.header, tt.size)
			if ok != tt.ok || (ok && (first != tt.first || last != tt.last)) {
				t.Errorf("parseByteRange(%q, %d) = %d, %d, %v; want %d, %d, %v",
					tt.header, tt.size, first, last, ok, tt.first, tt.last, tt.ok)
			}
		})
	}
}

func TestIsSubPath(t *testing.T) {
	parent := filepath.Join(string(filepath.Separator), "music")
	tests := []struct {
		child string
		want  bool
	}{
		{filepath.Join(parent, "a.mp3"), true},
		{filepath.Join(parent, "album", "b.mp3"), true},
		{parent, true},
		{filepath.Join(string(filepath.Separator), "musicians", "a.mp3"), false},
		{filepath.Join(parent, "..", "etc", "passwd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.child, func(t *testing.T) {
			if got := isSubPath(parent, tt.child); got != tt.want {
				t.Errorf("isSubPath(%q, %q) = %v, want %v", parent, tt.child, got, tt.want)
			}
		})
	}
}

func TestListTranscodings(t *testing.T) {
	env := newTestEnv(t)
	env.installExecutable(t, "ffmpeg", "exit 0")

	w := httptest.NewRecorder()
	env.h.ListTranscodings(w, httptest.NewRequest(http.MethodGet, "/api/transcodings", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp []transcodingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(resp) != len(database.DefaultTranscodings) {
		t.Fatalf("got %d transcodings, want %d", len(resp), len(database.DefaultTranscodings))
	}
	for _, tr := range resp {
		if !tr.Installed {
			t.Errorf("transcoding %q reported as not installed", tr.Name)
		}
	}
}

func TestPlayerTranscodings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.db.UpsertPlayer(ctx, &transcoder.Player{ID: "car", Name: "Car"}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}
	specs, err := env.db.ListTranscodings(ctx)
	if err != nil {
		t.Fatalf("ListTranscodings failed: %v", err)
	}
	mkv := specs[2]

	do := func(method, player, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/players/"+player+"/transcodings", strings.NewReader(body))
		req = mux.SetURLVars(req, map[string]string{"id": player})
		w := httptest.NewRecorder()
		if method == http.MethodPut {
			env.h.SetPlayerTranscodings(w, req)
		} else {
			env.h.GetPlayerTranscodings(w, req)
		}
		return w
	}

	t.Run("get defaults", func(t *testing.T) {
		w := do(http.MethodGet, "car", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var got []transcoder.Spec
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d transcodings, want the 2 default-active ones", len(got))
		}
	})

	t.Run("replace", func(t *testing.T) {
		w := do(http.MethodPut, "car", `{"transcodingIds":[`+strconv.FormatInt(mkv.ID, 10)+`]}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		var got []transcoder.Spec
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if len(got) != 1 || got[0].Name != "mkv video" {
			t.Errorf("got %+v, want only mkv video", got)
		}
	})

	errorTests := []struct {
		name       string
		method     string
		player     string
		body       string
		wantStatus int
	}{
		{"get unknown player", http.MethodGet, "boat", "", http.StatusNotFound},
		{"put unknown player", http.MethodPut, "boat", `{"transcodingIds":[]}`, http.StatusNotFound},
		{"put invalid body", http.MethodPut, "car", `{`, http.StatusBadRequest},
		{"put unknown transcoding", http.MethodPut, "car", `{"transcodingIds":[999]}`, http.StatusBadRequest},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(tt.method, tt.player, tt.body); w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestListPlayers(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.h.ListPlayers(w, httptest.NewRequest(http.MethodGet, "/api/players", nil))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q, want empty list", w.Body.String())
	}

	if _, err := env.db.UpsertPlayer(context.Background(), &transcoder.Player{ID: "car", Name: "Car"}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}
	w = httptest.NewRecorder()
	env.h.ListPlayers(w, httptest.NewRequest(http.MethodGet, "/api/players", nil))
	var players []transcoder.Player
	if err := json.NewDecoder(w.Body).Decode(&players); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(players) != 1 || players[0].ID != "car" {
		t.Errorf("players = %+v", players)
	}
}

func TestActiveStreams(t *testing.T) {
	env := newTestEnv(t)
	_, status := env.h.registry.Start(context.Background(), "car", "/music/a.mp3")
	defer env.h.registry.Finish(status)

	w := httptest.NewRecorder()
	env.h.ActiveStreams(w, httptest.NewRequest(http.MethodGet, "/api/streams", nil))

	var snapshots []streaming.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snapshots); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].PlayerID != "car" {
		t.Errorf("snapshots = %+v", snapshots)
	}
}
