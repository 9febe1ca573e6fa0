// Package main provides the entry point for the media streaming server.
//
// The server sends catalogued audio and video files to players over HTTP,
// converting them on the fly through chains of external encoder processes
// when a player's transcoding presets or bitrate limits require it.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or container limits
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Tracing: Configures the OpenTelemetry exporter when an endpoint is set
//  4. Database Initialization: Opens SQLite and seeds the default presets
//  5. Component Initialization:
//     - Worker Pool: Bounds the number of concurrently running encoder chains
//     - Transcoder: Resolves stream parameters and starts encoder chains
//     - Memory Monitor: Refuses new transcodes while heap usage is critical
//     - Metrics Collector: Publishes catalog counts to Prometheus
//  6. HTTP Server Setup: Configures routes, middleware, and starts server
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - /rest/stream: the media stream itself (GET and HEAD)
//     - /api/stream-info: how a file would be streamed, without opening it
//     - /api/transcodings, /api/players: preset assignment per player
//     - /api/streams: streams currently being served
//     - /health, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Liveness endpoint (/health)
//
// # Environment Variables
//
// Configuration is through environment variables:
//
//   - MEDIA_DIR: Root directory of the media files (default: /music)
//   - TRANSCODE_DIR: Directory holding the encoder executables (default: /transcode)
//   - DATABASE_DIR: Directory for the SQLite database (default: /database)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - HLS_COMMAND: Command template for HLS segments
//   - TRANSCODE_WORKERS: Maximum concurrent encoder chains (default: 2 per CPU)
//   - TRANSCODE_VERBOSE: Log encoder stderr at info level
//   - PREFERRED_FORMAT, PREFERRED_FORMAT_SCHEME: Fallback target format
//   - STREAM_WRITE_TIMEOUT, STREAM_IDLE_TIMEOUT: Slow client protection
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: Trace collector (tracing is off when unset)
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO: Memory limit configuration
//
// # Graceful Shutdown
//
// The application handles SIGINT and SIGTERM signals gracefully:
//
//  1. Cancel active streams, which stops their encoder chains
//  2. Shutdown main HTTP server (30s timeout)
//  3. Stop metrics collector
//  4. Stop memory monitor
//  5. Shutdown metrics server (if running)
//  6. Flush pending traces
//  7. Close database connections
//
// # Build Requirements
//
// The application requires CGO for SQLite:
//
//	go build -o media-streamer ./cmd/media-streamer
//
// Encoders such as FFmpeg are not linked; they are executables placed in
// TRANSCODE_DIR and referenced by the transcoding presets.
//
// # Related Packages
//
//   - [media-streamer/internal/database]: SQLite store for presets, players and media files
//   - [media-streamer/internal/handlers]: HTTP request handlers
//   - [media-streamer/internal/transcoder]: Transcoding decisions and stream opening
//   - [media-streamer/internal/process]: Encoder process chains
//   - [media-streamer/internal/streaming]: Stream status, timeouts and padding
//   - [media-streamer/internal/middleware]: HTTP middleware (logging, metrics, compression)
//   - [media-streamer/internal/startup]: Configuration and initialization
package main
