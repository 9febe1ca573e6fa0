// Package database provides SQLite storage for the media streamer.
//
// It holds:
//   - Transcoding presets and the per-player set of active presets
//   - Players and their bitrate ceilings
//   - Per-user bitrate ceilings
//   - The catalog of streamable media files
//
// The database uses WAL mode for concurrent reads, enforces foreign keys,
// and seeds the stock presets into an empty database.
package database
