package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"media-streamer/internal/database"
	"media-streamer/internal/startup"
	"media-streamer/internal/transcoder"
)

// defaultPlayerID is used when a request names no player or client.
const defaultPlayerID = "default"

// requestError is a client error with the status code to answer with.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(format string, args ...interface{}) error {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return &requestError{status: http.StatusNotFound, message: fmt.Sprintf(format, args...)}
}

// writeRequestError answers with the status of a requestError, or 500 for
// anything else.
func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		http.Error(w, reqErr.message, reqErr.status)
		return
	}
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// streamRequest is a parsed stream or stream-info request.
type streamRequest struct {
	file    *transcoder.MediaFile
	player  *transcoder.Player
	options transcoder.Request
	single  bool
}

// parseStreamRequest resolves the file and player of r and collects the
// per-request overrides.
func (h *Handlers) parseStreamRequest(r *http.Request) (*streamRequest, error) {
	q := r.URL.Query()

	file, err := h.resolveFile(r.Context(), q.Get("id"), q.Get("path"))
	if err != nil {
		return nil, err
	}

	maxBitRate, err := optionalInt(q.Get("maxBitRate"), "maxBitRate")
	if err != nil {
		return nil, err
	}
	timeOffset, err := optionalInt(q.Get("timeOffset"), "timeOffset")
	if err != nil {
		return nil, err
	}
	duration, err := optionalInt(q.Get("duration"), "duration")
	if err != nil {
		return nil, err
	}

	player, err := h.resolvePlayer(r.Context(), playerID(r), q.Get("u"))
	if err != nil {
		return nil, err
	}

	req := &streamRequest{
		file:   file,
		player: player,
		single: parseBool(q.Get("single")),
		options: transcoder.Request{
			Player:          player,
			MaxBitRate:      maxBitRate,
			PreferredFormat: h.preferredFormat(r),
		},
	}

	if file.IsVideo {
		videoBitRate := 0
		if maxBitRate != nil {
			videoBitRate = *maxBitRate
		}
		req.options.Video = transcoder.NewVideoSettings(file, videoBitRate, q.Get("size"), timeOffset, duration, parseBool(q.Get("hls")))
	}

	return req, nil
}

// resolveFile looks a catalogued file up by ID or by its path below the
// media directory.
func (h *Handlers) resolveFile(ctx context.Context, idParam, pathParam string) (*transcoder.MediaFile, error) {
	switch {
	case idParam != "":
		id, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil || id <= 0 {
			return nil, badRequest("Invalid id %q", idParam)
		}
		file, err := h.db.GetMediaFile(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Media file not found")
		}
		return file, err

	case pathParam != "":
		absPath, err := filepath.Abs(filepath.Join(h.config.MediaDir, pathParam))
		if err != nil || !isSubPath(h.config.MediaDir, absPath) {
			return nil, badRequest("Invalid path")
		}
		file, err := h.db.GetMediaFileByPath(ctx, absPath)
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("Media file not found")
		}
		return file, err

	default:
		return nil, badRequest("id or path is required")
	}
}

// resolvePlayer loads the player, registering it on first use. A non-empty
// username replaces the stored one; the stored scheme is kept.
func (h *Handlers) resolvePlayer(ctx context.Context, id, username string) (*transcoder.Player, error) {
	player, err := h.db.GetPlayer(ctx, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		player = &transcoder.Player{ID: id, Name: id, Scheme: transcoder.SchemeOff}
	case err != nil:
		return nil, err
	}
	if username != "" {
		player.Username = username
	}
	if _, err := h.db.UpsertPlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// preferredFormat returns the requested format, falling back to the
// configured preferred format. With the request_only scheme the fallback is
// not applied to REST API calls.
func (h *Handlers) preferredFormat(r *http.Request) string {
	if format := r.URL.Query().Get("format"); format != "" {
		return format
	}
	if h.config.PreferredFormat == "" {
		return ""
	}
	if h.config.PreferredFormatScheme == startup.PreferredFormatRequestOnly && strings.HasPrefix(r.URL.Path, "/rest/") {
		return ""
	}
	return h.config.PreferredFormat
}

func playerID(r *http.Request) string {
	q := r.URL.Query()
	if id := q.Get("player"); id != "" {
		return id
	}
	if client := q.Get("c"); client != "" {
		return client
	}
	return defaultPlayerID
}

func optionalInt(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, badRequest("Invalid %s %q", name, raw)
	}
	return &v, nil
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
