package process

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"media-streamer/internal/filesystem"
	"media-streamer/internal/logging"
)

// Temp file removal is attempted this many times, pausing between attempts,
// since the encoder may still hold the file open briefly after exit.
var (
	removeAttempts = 3
	removeDelay    = 3 * time.Second
)

// NeedsASCIIPath reports whether source paths with non-ASCII characters
// must be copied to an ASCII-named temp file before being passed to an
// encoder on this platform.
func NeedsASCIIPath() bool {
	return needsASCIIPath
}

// IsASCII reports whether s contains only ASCII characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

// ASCIICopy copies src to a new temp file with an ASCII name and the same
// extension, returning its path.
func ASCIICopy(src string) (string, error) {
	ext := filepath.Ext(src)
	if !IsASCII(ext) {
		ext = ""
	}

	in, err := filesystem.OpenWithRetry(src, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	defer func() {
		if err := in.Close(); err != nil {
			logging.Warn("failed to close %s: %v", src, err)
		}
	}()

	out, err := os.CreateTemp("", "transcode-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("copy to %s: %w", out.Name(), err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("close %s: %w", out.Name(), err)
	}

	logging.Debug("Copied %s to %s for encoder input", src, out.Name())
	return out.Name(), nil
}

// RemoveTempFiles removes the temp files of commands that were never started.
func RemoveTempFiles(commands []Command) {
	for _, c := range commands {
		removeTempFile(c.TempFile)
	}
}

// removeTempFile deletes path. The first attempt is synchronous; retries run
// in the background.
func removeTempFile(path string) {
	if path == "" {
		return
	}
	if tryRemove(path) {
		return
	}
	go func() {
		for attempt := 2; attempt <= removeAttempts; attempt++ {
			time.Sleep(removeDelay)
			if tryRemove(path) {
				return
			}
		}
		logging.Warn("Giving up deleting temp file %s after %d attempts", path, removeAttempts)
	}()
}

func tryRemove(path string) bool {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		logging.Debug("Deleted temp file %s", path)
		return true
	}
	logging.Debug("Failed to delete temp file %s: %v", path, err)
	return false
}
