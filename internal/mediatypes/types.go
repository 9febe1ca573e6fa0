package mediatypes

import (
	"mime"
	"strings"
)

// FileType represents the kind of a media format.
type FileType string

const (
	// FileTypeAudio represents an audio format.
	FileTypeAudio FileType = "audio"
	// FileTypeVideo represents a video format.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents an unknown or unsupported format.
	FileTypeOther FileType = "other"
)

// AudioFormats maps format suffixes to whether they are audio formats.
var AudioFormats = map[string]bool{
	"mp3":  true,
	"ogg":  true,
	"oga":  true,
	"opus": true,
	"flac": true,
	"m4a":  true,
	"aac":  true,
	"wav":  true,
	"wma":  true,
	"aif":  true,
	"aiff": true,
	"ape":  true,
	"mpc":  true,
	"shn":  true,
}

// VideoFormats maps format suffixes to whether they are video formats.
var VideoFormats = map[string]bool{
	"mp4":  true,
	"m4v":  true,
	"mkv":  true,
	"avi":  true,
	"mov":  true,
	"wmv":  true,
	"flv":  true,
	"webm": true,
	"mpeg": true,
	"mpg":  true,
	"3gp":  true,
	"ts":   true,
}

// MimeTypes maps format suffixes to the MIME types players expect. These
// are missing from, or inconsistent across, system mime tables.
var MimeTypes = map[string]string{
	// Audio
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"opus": "audio/ogg",
	"flac": "audio/flac",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"wav":  "audio/x-wav",
	"wma":  "audio/x-ms-wma",
	"aif":  "audio/x-aiff",
	"aiff": "audio/x-aiff",

	// Video
	"flv":  "video/x-flv",
	"mp4":  "video/mp4",
	"m4v":  "video/x-m4v",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
	"ts":   "video/MP2T",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"wmv":  "video/x-ms-wmv",
	"mpeg": "video/mpeg",
	"mpg":  "video/mpeg",
	"3gp":  "video/3gpp",
}

// normalize lowercases a suffix and strips a leading dot, so both "MP3"
// and ".mp3" are accepted.
func normalize(suffix string) string {
	return strings.ToLower(strings.TrimPrefix(suffix, "."))
}

// GetFileType returns the FileType for a format suffix.
// Returns FileTypeOther if the suffix is not recognized.
func GetFileType(suffix string) FileType {
	suffix = normalize(suffix)
	if AudioFormats[suffix] {
		return FileTypeAudio
	}
	if VideoFormats[suffix] {
		return FileTypeVideo
	}
	return FileTypeOther
}

// IsVideo reports whether suffix names a video format.
func IsVideo(suffix string) bool {
	return GetFileType(suffix) == FileTypeVideo
}

// GetMimeType returns the MIME type for a format suffix, consulting the
// system mime table for suffixes not listed in MimeTypes.
// Returns "application/octet-stream" if the suffix is not recognized.
func GetMimeType(suffix string) string {
	suffix = normalize(suffix)
	if ct, ok := MimeTypes[suffix]; ok {
		return ct
	}
	if suffix != "" {
		if ct := mime.TypeByExtension("." + suffix); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}
