// Package logging provides leveled logging for the media streamer.
//
// Levels, lowest first:
//   - DEBUG: verbose diagnostics, including encoder stderr unless TRANSCODE_VERBOSE is set
//   - INFO: operational messages
//   - WARN: recoverable problems
//   - ERROR: failed operations
//   - FATAL: logged, then the process exits
//
// The level comes from DEBUG=true or LOG_LEVEL (debug, info, warn, error).
//
// [LineWriter] adapts the logger to an io.Writer so that the stderr of an
// external encoder can be forwarded line by line without buffering it.
package logging
