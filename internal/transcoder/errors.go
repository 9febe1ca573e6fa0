package transcoder

import (
	"errors"
	"fmt"
	"io/fs"

	"media-streamer/internal/process"
)

// Sentinel errors returned by Service.
var (
	// ErrNoMediaFile is returned when no media file was supplied.
	ErrNoMediaFile = errors.New("no media file")

	// ErrPlayerNotFound is returned when a request has no resolved player.
	ErrPlayerNotFound = errors.New("player not found")
)

// StreamError reports a failure to open a stream for Source, either because
// an encoder could not be started or the file could not be read. Error
// includes paths and arguments and is meant for logs; use Public for
// messages sent to clients.
type StreamError struct {
	Source string
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Source, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Public returns a message without host paths or command lines.
func (e *StreamError) Public() string {
	var startErr *process.StartError
	switch {
	case errors.As(e.Err, &startErr):
		return "transcoder could not be started"
	case errors.Is(e.Err, fs.ErrNotExist):
		return "media file not found"
	case errors.Is(e.Err, fs.ErrPermission):
		return "media file not readable"
	default:
		return "media stream unavailable"
	}
}
