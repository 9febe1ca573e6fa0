package metrics

import (
	"time"

	"media-streamer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current catalog counts
type Stats struct {
	MediaFiles   int
	Players      int
	Transcodings int
	Executables  int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogItems.WithLabelValues("media_file").Set(float64(stats.MediaFiles))
	CatalogItems.WithLabelValues("player").Set(float64(stats.Players))
	CatalogItems.WithLabelValues("transcoding").Set(float64(stats.Transcodings))
	TranscodeExecutables.Set(float64(stats.Executables))

	logging.Debug("Metrics collected: files=%d, players=%d, transcodings=%d, executables=%d",
		stats.MediaFiles, stats.Players, stats.Transcodings, stats.Executables)
}
