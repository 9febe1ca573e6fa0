package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"media-streamer/internal/logging"
	"media-streamer/internal/mediatypes"
	"media-streamer/internal/metrics"
	"media-streamer/internal/streaming"
	"media-streamer/internal/transcoder"
)

// retryAfterSeconds is sent with 503 responses when memory pressure stops
// new transcodes.
const retryAfterSeconds = "5"

// Stream sends a media file to the requesting player, transcoded when the
// player's presets and bitrate limits require it.
// GET|HEAD /rest/stream?id=|path=&player=&u=&format=&maxBitRate=&size=&timeOffset=&duration=&hls=&single=
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseStreamRequest(r)
	if err != nil {
		var reqErr *requestError
		if !errors.As(err, &reqErr) {
			logging.Error("Stream: failed to resolve request %s: %v", r.URL.RawQuery, err)
		}
		writeRequestError(w, err)
		return
	}

	params, err := h.service.GetParameters(r.Context(), req.file, req.options)
	if err != nil {
		logging.Error("Stream: failed to resolve parameters for %s: %v", req.file.Path, err)
		http.Error(w, "Failed to resolve stream parameters", http.StatusInternalServerError)
		return
	}

	mode := streamMode(params)
	length, lengthKnown := params.ExpectedLength()
	rangeHeader := r.Header.Get("Range")

	w.Header().Set("Content-Type", mediatypes.GetMimeType(params.Suffix()))
	if params.RangeAllowed() {
		w.Header().Set("Accept-Ranges", "bytes")
	} else {
		w.Header().Set("Accept-Ranges", "none")
	}

	if r.Method == http.MethodHead {
		if params.RangeAllowed() && lengthKnown {
			w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	if params.IsTranscoding() && !h.memory.Admit() {
		logging.Warn("Stream: rejecting transcode of %s for player %s under memory pressure", req.file.Path, req.player.ID)
		w.Header().Set("Retry-After", retryAfterSeconds)
		http.Error(w, "Server busy, retry later", http.StatusServiceUnavailable)
		return
	}

	ctx, status, closed := h.registry.Replace(r.Context(), req.player.ID, req.file.Path, req.file.Podcast || req.single)
	if closed > 0 {
		logging.Debug("Stream: closed %d earlier stream(s) of player %s", closed, req.player.ID)
	}
	defer h.registry.Finish(status)

	start := time.Now()
	result := "error"
	defer func() {
		metrics.StreamDuration.WithLabelValues(mode, result).Observe(time.Since(start).Seconds())
	}()

	stream, err := h.service.GetTranscodedInputStream(ctx, params)
	if err != nil {
		if r.Context().Err() != nil {
			result = "client_gone"
			return
		}
		logging.Error("Stream: %v", err)
		writeStreamError(w, err)
		return
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logging.Debug("Stream: closing %s: %v", req.file.Path, err)
		}
	}()

	onWrite := func(n int64) {
		status.AddBytes(n)
		metrics.StreamBytesTotal.WithLabelValues(mode).Add(float64(n))
	}

	if rangeHeader != "" && !params.IsTranscoding() {
		if seeker, ok := stream.(io.ReadSeeker); ok {
			cw := &countingWriter{ResponseWriter: w, onWrite: onWrite}
			http.ServeContent(cw, r, "", time.Time{}, seeker)
			result = streamResult(r.Context().Err(), status)
			return
		}
	}

	var body io.Reader = stream
	promised := int64(-1)
	if params.RangeAllowed() && lengthKnown {
		promised = length
		if rangeHeader != "" {
			first, last, ok := parseByteRange(rangeHeader, length)
			if !ok {
				w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", length))
				http.Error(w, "Requested range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
				result = "complete"
				return
			}
			if _, err := io.CopyN(io.Discard, stream, first); err != nil && !errors.Is(err, io.EOF) {
				logging.Warn("Stream: skipping %d bytes of %s: %v", first, req.file.Path, err)
			}
			promised = last - first + 1
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", first, last, length))
			w.Header().Set("Content-Length", strconv.FormatInt(promised, 10))
			w.WriteHeader(http.StatusPartialContent)
		} else {
			w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		}
		body = io.LimitReader(stream, promised)
	}

	config := streaming.DefaultTimeoutWriterConfig()
	if h.config.StreamWriteTimeout > 0 {
		config.WriteTimeout = h.config.StreamWriteTimeout
	}
	if h.config.StreamIdleTimeout > 0 {
		config.IdleTimeout = h.config.StreamIdleTimeout
	}
	config.OnWrite = onWrite

	written, copyErr := streaming.Copy(ctx, w, body, config)
	result = streamResult(copyErr, status)
	logging.Debug("Stream: %s to player %s ended (%s) after %d bytes", req.file.Path, req.player.ID, result, written)

	if promised < 0 {
		if result == "terminated" {
			if err := streaming.SendPaddingDelayed(r.Context(), w, streaming.PaddingChunkSize); err != nil {
				logging.Debug("Stream: padding after termination: %v", err)
			}
		}
		return
	}
	if promised <= written {
		return
	}
	remaining := promised - written
	switch result {
	case "terminated":
		if err := streaming.SendPaddingDelayed(r.Context(), w, remaining); err != nil {
			logging.Debug("Stream: padding after termination: %v", err)
		}
	case "complete":
		if err := streaming.SendPadding(r.Context(), w, remaining); err != nil {
			logging.Debug("Stream: padding short stream: %v", err)
		}
	}
}

// streamInfoResponse describes how a file would be streamed.
type streamInfoResponse struct {
	Transcode      bool   `json:"transcode"`
	Transcoding    string `json:"transcoding,omitempty"`
	Suffix         string `json:"suffix"`
	ContentType    string `json:"contentType"`
	MaxBitRate     int    `json:"maxBitRate"`
	ExpectedLength *int64 `json:"expectedLength,omitempty"`
	RangeAllowed   bool   `json:"rangeAllowed"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
}

// StreamInfo resolves stream parameters without opening the stream.
// GET /api/stream-info takes the same parameters as Stream.
func (h *Handlers) StreamInfo(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseStreamRequest(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	params, err := h.service.GetParameters(r.Context(), req.file, req.options)
	if err != nil {
		logging.Error("StreamInfo: failed to resolve parameters for %s: %v", req.file.Path, err)
		writeJSONError(w, "Failed to resolve stream parameters", http.StatusInternalServerError)
		return
	}

	resp := streamInfoResponse{
		Transcode:    params.IsTranscoding(),
		Suffix:       params.Suffix(),
		ContentType:  mediatypes.GetMimeType(params.Suffix()),
		MaxBitRate:   params.MaxBitRate(),
		RangeAllowed: params.RangeAllowed(),
	}
	if spec := params.Spec(); spec != nil {
		resp.Transcoding = spec.Name
	}
	if length, ok := params.ExpectedLength(); ok {
		resp.ExpectedLength = &length
	}
	if video := params.VideoSettings(); video != nil {
		resp.Width = video.Width
		resp.Height = video.Height
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

func streamMode(params *transcoder.Parameters) string {
	switch {
	case !params.IsTranscoding():
		return "raw"
	case params.VideoSettings() != nil && params.VideoSettings().HLS:
		return "hls"
	default:
		return "transcode"
	}
}

func streamResult(err error, status *streaming.Status) string {
	switch {
	case status.Terminated():
		return "terminated"
	case err == nil:
		return "complete"
	case errors.Is(err, streaming.ErrClientGone), errors.Is(err, context.Canceled):
		return "client_gone"
	case errors.Is(err, streaming.ErrWriteTimeout), errors.Is(err, streaming.ErrStreamCanceled):
		return "timeout"
	default:
		return "error"
	}
}

// writeStreamError answers a failure to open a stream without leaking
// host paths or command lines.
func writeStreamError(w http.ResponseWriter, err error) {
	var streamErr *transcoder.StreamError
	if !errors.As(err, &streamErr) {
		http.Error(w, "Media stream unavailable", http.StatusInternalServerError)
		return
	}
	code := http.StatusInternalServerError
	if errors.Is(err, fs.ErrNotExist) {
		code = http.StatusNotFound
	}
	http.Error(w, streamErr.Public(), code)
}

// parseByteRange parses a single "bytes=first-last" range against size.
// Suffix ranges ("bytes=-n") are supported; multiple ranges are not.
func parseByteRange(header string, size int64) (first, last int64, ok bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(spec, ",") || size <= 0 {
		return 0, 0, false
	}
	startStr, endStr, found := strings.Cut(strings.TrimSpace(spec), "-")
	if !found {
		return 0, 0, false
	}

	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	first, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || first < 0 || first >= size {
		return 0, 0, false
	}
	last = size - 1
	if endStr != "" {
		last, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || last < first {
			return 0, 0, false
		}
		if last >= size {
			last = size - 1
		}
	}
	return first, last, true
}

// countingWriter reports every successful write to onWrite.
type countingWriter struct {
	http.ResponseWriter
	onWrite func(n int64)
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(p)
	if n > 0 {
		cw.onWrite(int64(n))
	}
	return n, err
}

func (cw *countingWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
