package transcoder

import (
	"strings"

	"media-streamer/internal/logging"
)

// FormatRaw requests the file without any transcoding.
const FormatRaw = "raw"

// HLSTargetFormat is the target of the synthetic spec used for HLS.
const HLSTargetFormat = "ts"

// InstallChecker reports whether a spec can run on this host.
type InstallChecker interface {
	IsInstalled(spec *Spec) bool
}

// Policy selects the transcoding to apply to a file.
type Policy struct {
	installed  InstallChecker
	hlsCommand string
}

// NewPolicy returns a Policy. hlsCommand is the single-step template used
// for HLS requests.
func NewPolicy(installed InstallChecker, hlsCommand string) *Policy {
	return &Policy{installed: installed, hlsCommand: hlsCommand}
}

// SelectSpec picks the preset for file from the player's active presets, or
// returns nil when the file should be sent as is.
//
// "raw" disables transcoding. HLS requests always use the configured HLS
// command. Otherwise candidates must accept the file's format and have
// their executables installed, and a candidate producing preferredFormat
// is preferred over the first candidate.
func (p *Policy) SelectSpec(file *MediaFile, playerSpecs []Spec, preferredFormat string, hls bool) *Spec {
	if preferredFormat == FormatRaw {
		return nil
	}
	if hls {
		if strings.TrimSpace(p.hlsCommand) == "" {
			logging.Warn("HLS requested for %s but no HLS command is configured", file.Path)
			return nil
		}
		return &Spec{
			Name:          "hls",
			SourceFormats: []string{file.Format},
			TargetFormat:  HLSTargetFormat,
			Step1:         p.hlsCommand,
		}
	}
	if file.Format == "" {
		return nil
	}

	var candidates []*Spec
	for i := range playerSpecs {
		spec := &playerSpecs[i]
		if !spec.Accepts(file.Format) || !p.installed.IsInstalled(spec) {
			continue
		}
		if file.IsVideo && preferredFormat != "" && strings.EqualFold(spec.TargetFormat, preferredFormat) {
			return spec
		}
		candidates = append(candidates, spec)
	}
	if len(candidates) == 0 {
		return nil
	}

	if preferredFormat != "" {
		for _, spec := range candidates {
			if strings.EqualFold(spec.TargetFormat, preferredFormat) {
				return spec
			}
		}
	}
	return candidates[0]
}

// NeedsTranscoding reports whether a selected spec must actually be applied:
// the file's bitrate is unknown or above a set ceiling, or a format other
// than the file's own was requested.
func NeedsTranscoding(spec *Spec, maxBitRate, fileBitRate int, preferredFormat string, file *MediaFile) bool {
	if spec == nil {
		return false
	}
	if maxBitRate != 0 && (fileBitRate == 0 || fileBitRate > maxBitRate) {
		return true
	}
	return preferredFormat != "" && !strings.EqualFold(preferredFormat, file.Format)
}
