// Package mediatypes classifies audio and video formats by suffix and maps
// them to the MIME types sent with streams.
//
// This package exists as a dependency-free foundation that can be imported by
// the HTTP handlers and the management CLI without creating import cycles.
//
// # Format Detection
//
// Suffixes are matched case-insensitively, with or without a leading dot:
//
//	mediatypes.GetFileType("FLAC") // FileTypeAudio
//	mediatypes.IsVideo(".mkv")     // true
//
// # MIME Types
//
// Use GetMimeType for the Content-Type of a stream. The suffix is the target
// format of the transcoding when one applies, otherwise the source format:
//
//	w.Header().Set("Content-Type", mediatypes.GetMimeType(params.Suffix()))
package mediatypes
