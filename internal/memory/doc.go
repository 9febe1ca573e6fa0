// Package memory keeps the streamer inside its container memory limit.
//
// [ConfigureFromEnv] sets GOMEMLIMIT from the Kubernetes Downward API:
//
//   - GOMEMLIMIT: Standard Go variable. Takes precedence when set.
//   - MEMORY_LIMIT: Container memory limit in bytes.
//   - MEMORY_RATIO: Fraction of MEMORY_LIMIT given to the Go heap (default 0.5).
//
// The default ratio is low because encoder processes started for
// transcoded streams are counted against the same container limit.
//
// A [Monitor] samples heap usage and reports through [Monitor.Admit]
// whether a new transcoded stream may start. Above the critical mark new
// transcodes are refused until usage drops below the resume mark. Raw
// streams and streams already running are unaffected.
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
package memory
