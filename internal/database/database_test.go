package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"media-streamer/internal/transcoder"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "streamer.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return db
}

func intPtr(i int) *int { return &i }

// TestRecordQuery tests the recordQuery helper function.
func TestRecordQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		operation string
		err       error
	}{
		{"successful query", "test_operation", nil},
		{"failed query", "test_operation", errors.New("test error")},
		{"empty operation name", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// Must not panic.
			recordQuery(tt.operation, time.Now(), tt.err)
		})
	}
}

func TestNewSeedsDefaultTranscodings(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "streamer.db")

	for i := 0; i < 2; i++ {
		db, err := New(ctx, path)
		if err != nil {
			t.Fatalf("open %d failed: %v", i, err)
		}
		specs, err := db.ListTranscodings(ctx)
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("Close failed: %v", closeErr)
		}
		if err != nil {
			t.Fatalf("ListTranscodings failed: %v", err)
		}

		// Reopening must not seed twice.
		if len(specs) != len(DefaultTranscodings) {
			t.Fatalf("open %d: got %d presets, want %d", i, len(specs), len(DefaultTranscodings))
		}
		if specs[0].Name != "mp3 audio" || !specs[0].Accepts("flac") || !specs[0].DefaultActive {
			t.Errorf("unexpected first preset: %+v", specs[0])
		}
	}
}

func TestUpsertPlayerAttachesDefaultActive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	player := &transcoder.Player{ID: "p1", Name: "Kitchen", Username: "alice", Scheme: transcoder.Scheme128}
	created, err := db.UpsertPlayer(ctx, player)
	if err != nil || !created {
		t.Fatalf("UpsertPlayer = %v, %v", created, err)
	}

	specs, err := db.TranscodingsForPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("TranscodingsForPlayer failed: %v", err)
	}
	for _, s := range specs {
		if !s.DefaultActive {
			t.Errorf("non default preset %q attached", s.Name)
		}
	}
	if len(specs) != 2 {
		t.Errorf("got %d presets, want 2", len(specs))
	}

	// An update keeps the existing assignment.
	if err := db.SetPlayerTranscodings(ctx, "p1", []int64{specs[0].ID}); err != nil {
		t.Fatalf("SetPlayerTranscodings failed: %v", err)
	}
	player.Name = "Living room"
	created, err = db.UpsertPlayer(ctx, player)
	if err != nil || created {
		t.Fatalf("second UpsertPlayer = %v, %v", created, err)
	}
	specs, _ = db.TranscodingsForPlayer(ctx, "p1")
	if len(specs) != 1 {
		t.Errorf("update changed assignment: %d presets", len(specs))
	}

	got, err := db.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlayer failed: %v", err)
	}
	if got.Name != "Living room" || got.Scheme != transcoder.Scheme128 || got.Username != "alice" {
		t.Errorf("GetPlayer = %+v", got)
	}

	if _, err := db.GetPlayer(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing player: %v", err)
	}
}

func TestCreateDefaultActiveTranscodingAttachesToPlayers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if _, err := db.UpsertPlayer(ctx, &transcoder.Player{ID: id}); err != nil {
			t.Fatalf("UpsertPlayer failed: %v", err)
		}
	}

	spec := &transcoder.Spec{
		Name:          "opus",
		SourceFormats: []string{"flac", "wav"},
		TargetFormat:  "opus",
		Step1:         "ffmpeg -i %s -b:a %bk -f opus -",
		DefaultActive: true,
	}
	if err := db.CreateTranscoding(ctx, spec); err != nil {
		t.Fatalf("CreateTranscoding failed: %v", err)
	}
	if spec.ID == 0 {
		t.Fatal("CreateTranscoding did not set ID")
	}

	for _, id := range []string{"a", "b"} {
		specs, err := db.TranscodingsForPlayer(ctx, id)
		if err != nil {
			t.Fatalf("TranscodingsForPlayer failed: %v", err)
		}
		if specs[len(specs)-1].Name != "opus" {
			t.Errorf("player %s missing new preset", id)
		}
	}

	got, err := db.GetTranscoding(ctx, spec.ID)
	if err != nil {
		t.Fatalf("GetTranscoding failed: %v", err)
	}
	if len(got.SourceFormats) != 2 || got.Step1 != spec.Step1 {
		t.Errorf("GetTranscoding = %+v", got)
	}
}

func TestDeleteTranscodingDetaches(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.UpsertPlayer(ctx, &transcoder.Player{ID: "p1"}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}
	before, _ := db.TranscodingsForPlayer(ctx, "p1")

	if err := db.DeleteTranscoding(ctx, before[0].ID); err != nil {
		t.Fatalf("DeleteTranscoding failed: %v", err)
	}
	after, _ := db.TranscodingsForPlayer(ctx, "p1")
	if len(after) != len(before)-1 {
		t.Errorf("got %d presets after delete, want %d", len(after), len(before)-1)
	}

	if err := db.DeleteTranscoding(ctx, before[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestSetPlayerTranscodingsUnknownPlayer(t *testing.T) {
	db := newTestDB(t)
	if err := db.SetPlayerTranscodings(context.Background(), "ghost", []int64{1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserScheme(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	scheme, err := db.UserScheme(ctx, "nobody")
	if err != nil || scheme != transcoder.SchemeOff {
		t.Errorf("unset user = %v, %v", scheme, err)
	}

	if err := db.SetUserScheme(ctx, "alice", transcoder.Scheme96); err != nil {
		t.Fatalf("SetUserScheme failed: %v", err)
	}
	if err := db.SetUserScheme(ctx, "alice", transcoder.Scheme192); err != nil {
		t.Fatalf("SetUserScheme failed: %v", err)
	}
	scheme, err = db.UserScheme(ctx, "alice")
	if err != nil || scheme != transcoder.Scheme192 {
		t.Errorf("UserScheme = %v, %v", scheme, err)
	}
}

func TestMediaFileRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	file := &transcoder.MediaFile{
		Path:            "/music/Artist/Album/01 Song.flac",
		Format:          "flac",
		BitRate:         intPtr(912),
		DurationSeconds: intPtr(245),
		FileSize:        27_000_000,
		Title:           "Song",
		Album:           "Album",
		Artist:          "Artist",
	}
	if err := db.UpsertMediaFile(ctx, file); err != nil {
		t.Fatalf("UpsertMediaFile failed: %v", err)
	}
	if file.ID == 0 {
		t.Fatal("UpsertMediaFile did not set ID")
	}

	got, err := db.GetMediaFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("GetMediaFile failed: %v", err)
	}
	if *got.BitRate != 912 || *got.DurationSeconds != 245 || got.Width != nil || got.Title != "Song" {
		t.Errorf("GetMediaFile = %+v", got)
	}

	file.BitRate = nil
	if err := db.UpsertMediaFile(ctx, file); err != nil {
		t.Fatalf("second UpsertMediaFile failed: %v", err)
	}
	got, err = db.GetMediaFileByPath(ctx, file.Path)
	if err != nil {
		t.Fatalf("GetMediaFileByPath failed: %v", err)
	}
	if got.ID != file.ID || got.BitRate != nil {
		t.Errorf("update lost identity or kept bitrate: %+v", got)
	}

	if _, err := db.GetMediaFile(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: %v", err)
	}
	if _, err := db.GetMediaFileByPath(ctx, "/nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing path: %v", err)
	}
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.UpsertPlayer(ctx, &transcoder.Player{ID: "p1"}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}
	if err := db.UpsertMediaFile(ctx, &transcoder.MediaFile{Path: "/a.mp3", Format: "mp3"}); err != nil {
		t.Fatalf("UpsertMediaFile failed: %v", err)
	}

	stats := db.GetStats()
	if stats.Players != 1 || stats.MediaFiles != 1 || stats.Transcodings != len(DefaultTranscodings) {
		t.Errorf("GetStats = %+v", stats)
	}
}
