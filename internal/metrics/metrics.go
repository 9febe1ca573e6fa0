package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_streamer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_streamer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_streamer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_streamer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Catalog metrics
var (
	CatalogItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_streamer_catalog_items",
			Help: "Number of catalogued items by kind",
		},
		[]string{"kind"}, // "media_file", "player", "transcoding"
	)

	TranscodeExecutables = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_transcode_executables",
			Help: "Number of files present in the transcode directory",
		},
	)
)

// Streaming metrics
var (
	StreamsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_streamer_streams_started_total",
			Help: "Total number of streams opened by mode",
		},
		[]string{"mode"}, // "raw", "transcode", "hls"
	)

	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_streams_active",
			Help: "Number of streams currently being served",
		},
	)

	StreamsTerminated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_streamer_streams_terminated_total",
			Help: "Total number of streams closed because the player started another stream",
		},
	)

	StreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_streamer_stream_bytes_total",
			Help: "Total bytes sent to clients by mode",
		},
		[]string{"mode"},
	)

	StreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_streamer_stream_duration_seconds",
			Help:    "Time spent serving a stream",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		},
		[]string{"mode", "result"}, // result: "complete", "client_gone", "timeout", "error"
	)
)

// Transcoder metrics
var (
	TranscodeStartFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_streamer_transcode_start_failures_total",
			Help: "Total number of encoder chains that failed to start",
		},
	)

	TranscodeProcessesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_transcode_processes_running",
			Help: "Number of encoder processes currently running",
		},
	)

	WorkerSlots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_transcode_worker_slots",
			Help: "Configured number of concurrent encoder chains",
		},
	)

	WorkerSlotsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_transcode_worker_slots_in_use",
			Help: "Number of encoder chain slots currently held",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_streamer_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts after a stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_streamer_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_streamer_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_streamer_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_streamer_filesystem_retry_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_memory_usage_ratio",
			Help: "Go heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_streamer_memory_paused",
			Help: "1 while new transcodes are refused because memory is critical",
		},
	)

	MemoryRejectedStreams = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_streamer_memory_rejected_streams_total",
			Help: "Transcoded streams refused while memory was critical",
		},
	)
)

// Application info
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "media_streamer_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
