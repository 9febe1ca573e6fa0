package transcoder

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"media-streamer/internal/logging"
)

// Installer checks that the executables a spec needs are present in the
// transcode directory. It only reads the directory and needs no locking.
type Installer struct {
	dir string
}

// NewInstaller returns an Installer for dir.
func NewInstaller(dir string) *Installer {
	return &Installer{dir: dir}
}

// Dir returns the transcode directory.
func (i *Installer) Dir() string {
	return i.dir
}

// IsInstalled reports whether every non-empty step of spec names an
// executable found in the transcode directory. A file matches when its
// name starts with the executable name, so "ffmpeg" finds "ffmpeg.exe".
func (i *Installer) IsInstalled(spec *Spec) bool {
	steps := spec.Steps()
	if len(steps) == 0 {
		return false
	}

	var names []string
	for _, step := range steps {
		exe := executableName(step)
		if exe == "" {
			continue
		}
		if names == nil {
			var err error
			if names, err = i.Executables(); err != nil {
				logging.Debug("Transcode directory %s unreadable: %v", i.dir, err)
				return false
			}
		}
		if !hasPrefixMatch(names, exe) {
			logging.Debug("Transcoding %q unavailable: %s not found in %s", spec.Name, exe, i.dir)
			return false
		}
	}
	return true
}

// Executables lists the regular files in the transcode directory.
func (i *Installer) Executables() ([]string, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func executableName(step string) string {
	args, err := splitCommand(step)
	if err != nil || len(args) == 0 {
		return ""
	}
	return filepath.Base(args[0])
}

func hasPrefixMatch(names []string, exe string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, exe) {
			return true
		}
	}
	return false
}
