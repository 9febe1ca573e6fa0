// Package metrics provides Prometheus instrumentation for the media streamer.
//
// All metrics are prefixed with "media_streamer_" and registered with the
// default registry through promauto, so importing the package is enough to
// expose them on the metrics server.
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Database Metrics
//   - DBQueryTotal, DBQueryDuration, DBConnectionsOpen
//
// ## Streaming Metrics
//   - StreamsStarted: streams opened, by mode (raw, transcode, hls)
//   - StreamsActive: streams currently being served
//   - StreamsTerminated: streams closed because the player started another
//   - StreamBytesTotal: bytes sent, by mode
//   - StreamDuration: time spent serving, by mode and result
//
// ## Transcoder Metrics
//   - TranscodeStartFailures: encoder chains that failed to start
//   - TranscodeProcessesRunning: encoder processes alive right now
//   - WorkerSlots, WorkerSlotsInUse: encoder chain pool capacity and usage
//
// ## Catalog Metrics
//
// Refreshed by [Collector] from a [StatsProvider]:
//   - CatalogItems: media files, players and transcodings
//   - TranscodeExecutables: files present in the transcode directory
//
// ## Filesystem Metrics
//
// Recorded through [NewFilesystemObserver] for opens retried after a stale
// NFS file handle.
//
// Call [InitializeMetrics] once at startup so labelled series exist before
// their first event.
package metrics
