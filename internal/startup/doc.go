// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - MEDIA_DIR: Path to the music and video library (default: /music)
//   - TRANSCODE_DIR: Directory holding encoder executables (default: /transcode)
//   - DATABASE_DIR: Path to database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - HLS_COMMAND: Command template for HLS segments
//   - TRANSCODE_WORKERS: Concurrent encoder chains (default: derived from CPUs)
//   - TRANSCODE_VERBOSE: Log encoder stderr at info instead of debug (default: false)
//   - PREFERRED_FORMAT: Target format for requests that name none
//   - PREFERRED_FORMAT_SCHEME: annotation or request_only (default: annotation)
//   - STREAM_WRITE_TIMEOUT: Per-write deadline for stream responses (default: 30s)
//   - STREAM_IDLE_TIMEOUT: Abort streams idle this long (default: 60s)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: Enables trace export when set
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: Go heap limit configuration
//
// # Directory Setup
//
// The package validates required directories:
//   - Database directory: Required, must be writable
//   - Transcode directory: Created if missing; transcoding is disabled if it cannot be
//   - Media directory: Checked but not created (should be mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogTranscoderInit]: Installed encoder executables and worker slots
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	// Initialize components...
//	startup.LogDatabaseInit(dbInitDuration)
//	startup.LogTranscoderInit(config.TranscodeDir, installer.Executables(), pool.Size())
//
//	// Start server...
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
