package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"media-streamer/internal/database"
	"media-streamer/internal/filesystem"
	"media-streamer/internal/handlers"
	"media-streamer/internal/logging"
	"media-streamer/internal/memory"
	"media-streamer/internal/metrics"
	"media-streamer/internal/middleware"
	"media-streamer/internal/startup"
	"media-streamer/internal/streaming"
	"media-streamer/internal/telemetry"
	"media-streamer/internal/transcoder"
	"media-streamer/internal/workers"
)

const (
	serviceName             = "media-streamer"
	metricsCollectInterval  = 1 * time.Minute
	shutdownTimeout         = 30 * time.Second
	serverReadHeaderTimeout = 10 * time.Second
	serverIdleTimeout       = 120 * time.Second
)

// dbStatsAdapter adds the transcode directory listing to the database counts.
type dbStatsAdapter struct {
	db        *database.Database
	installer *transcoder.Installer
}

// GetStats implements metrics.StatsProvider
func (a *dbStatsAdapter) GetStats() metrics.Stats {
	stats := a.db.GetStats()
	if executables, err := a.installer.Executables(); err == nil {
		stats.Executables = len(executables)
	}
	return stats
}

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT before significant allocations
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media":     config.MediaDir,
		"transcode": config.TranscodeDir,
		"database":  config.DatabaseDir,
	}))

	shutdownTracing, err := telemetry.Init(context.Background(), serviceName, startup.Version)
	if err != nil {
		startup.LogFatal("Failed to initialize tracing: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize transcoder
	workerCount := config.TranscodeWorkers
	if workerCount <= 0 {
		workerCount = workers.ForIO(0)
	}
	pool := workers.NewPool(workerCount)
	service := transcoder.New(transcoder.Config{
		TranscodeDir: config.TranscodeDir,
		HLSCommand:   config.HLSCommand,
		Verbose:      config.TranscodeVerbose,
		Retry:        filesystem.DefaultRetryConfig(),
	}, db, db, pool)

	executables, err := service.Installer().Executables()
	if err != nil {
		logging.Warn("Failed to list %s: %v", config.TranscodeDir, err)
	}
	startup.LogTranscoderInit(config.TranscodeDir, executables, pool.Size())

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	collector := metrics.NewCollector(&dbStatsAdapter{db: db, installer: service.Installer()}, metricsCollectInterval)
	collector.Start()

	registry := streaming.NewRegistry()
	h := handlers.New(db, service, registry, monitor, config)

	// Setup router
	router := setupRouter(h)
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Create server. Streams can last for hours, so there is no write timeout;
	// slow clients are handled by the stream's own timeouts. Canceling the
	// base context ends all running streams and their encoder chains.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           otelhttp.NewHandler(handler, serviceName),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		WriteTimeout:      0,
		IdleTimeout:       serverIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	idleConnsClosed := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, cancelStreams, collector, monitor, shutdownTracing)
		close(idleConnsClosed)
	}()

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	<-idleConnsClosed
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	}
	startup.LogShutdownComplete()
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Streaming
	rest := r.PathPrefix("/rest").Subrouter()
	rest.HandleFunc("/stream", h.Stream).Methods("GET", "HEAD")
	rest.HandleFunc("/stream.view", h.Stream).Methods("GET", "HEAD")

	// Management API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stream-info", h.StreamInfo).Methods("GET")
	api.HandleFunc("/streams", h.ActiveStreams).Methods("GET")
	api.HandleFunc("/transcodings", h.ListTranscodings).Methods("GET")
	api.HandleFunc("/players", h.ListPlayers).Methods("GET")
	api.HandleFunc("/players/{id}/transcodings", h.GetPlayerTranscodings).Methods("GET")
	api.HandleFunc("/players/{id}/transcodings", h.SetPlayerTranscodings).Methods("PUT")

	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())
	metricsMux.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: serverReadHeaderTimeout,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       serverIdleTimeout,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, cancelStreams context.CancelFunc, collector *metrics.Collector, monitor *memory.Monitor, shutdownTracing func(context.Context) error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping active streams")
	cancelStreams()
	startup.LogShutdownStepComplete("Active streams stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
		if err := srv.Close(); err != nil {
			logging.Warn("Server close error: %v", err)
		}
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Flushing traces")
	if err := shutdownTracing(ctx); err != nil {
		logging.Warn("Trace shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Traces flushed")
	}
}
