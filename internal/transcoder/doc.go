// Package transcoder decides how a media file is delivered to a player and
// opens the resulting byte stream.
//
// It covers:
//   - Spec selection from the player's active transcodings (see [Policy])
//   - Bitrate negotiation between player, user and request ceilings
//   - Expected length estimation and range eligibility for transcoded output
//   - Rendering configured command templates into process arguments
//   - Opening the stream, either the raw file or a chain of encoder processes
//
// Encoders are never resolved from PATH. The first word of every command
// template is looked up in the configured transcode directory, and a spec
// whose executables are missing there is simply not selectable.
//
// [Service] is the entry point used by HTTP handlers:
//
//	params, err := svc.GetParameters(ctx, file, transcoder.Request{Player: player})
//	stream, err := svc.GetTranscodedInputStream(ctx, params)
//	defer stream.Close()
package transcoder
