package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("failed to read gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"CatalogItems", CatalogItems},
		{"StreamsStarted", StreamsStarted},
		{"StreamsActive", StreamsActive},
		{"StreamsTerminated", StreamsTerminated},
		{"StreamBytesTotal", StreamBytesTotal},
		{"StreamDuration", StreamDuration},
		{"TranscodeStartFailures", TranscodeStartFailures},
		{"TranscodeProcessesRunning", TranscodeProcessesRunning},
		{"WorkerSlots", WorkerSlots},
		{"WorkerSlotsInUse", WorkerSlotsInUse},
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestStreamingMetricOperations(t *testing.T) {
	before := counterValue(t, StreamsStarted.WithLabelValues("transcode"))
	StreamsStarted.WithLabelValues("transcode").Inc()
	if got := counterValue(t, StreamsStarted.WithLabelValues("transcode")); got != before+1 {
		t.Errorf("StreamsStarted = %v, want %v", got, before+1)
	}

	StreamsActive.Set(0)
	StreamsActive.Inc()
	StreamsActive.Inc()
	StreamsActive.Dec()
	if got := gaugeValue(t, StreamsActive); got != 1 {
		t.Errorf("StreamsActive = %v, want 1", got)
	}
	StreamsActive.Set(0)

	StreamBytesTotal.WithLabelValues("raw").Add(1024)
	StreamDuration.WithLabelValues("raw", "complete").Observe(3.5)
}

func TestInitializeMetricsIdempotent(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("InitializeMetrics panicked: %v", r)
		}
	}()
	InitializeMetrics()
	InitializeMetrics()
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")
	if got := gaugeValue(t, AppInfo.WithLabelValues("1.0.0", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := counterValue(t, FilesystemRetryAttempts.WithLabelValues("open", "media"))
	obs.ObserveRetryAttempt("open", "media")
	obs.ObserveRetrySuccess("open", "media")
	obs.ObserveRetryFailure("open", "media")
	obs.ObserveStaleError("open", "media")
	obs.ObserveRetryDuration("open", "media", 0.05)

	if got := counterValue(t, FilesystemRetryAttempts.WithLabelValues("open", "media")); got != before+1 {
		t.Errorf("FilesystemRetryAttempts = %v, want %v", got, before+1)
	}
}
