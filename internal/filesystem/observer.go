package filesystem

import "sync/atomic"

// Observer records retry metrics. The metrics package provides the
// implementation, which keeps this package free of a metrics import.
type Observer interface {
	// retryOp is "stat" or "open"; volume is the label from the VolumeResolver.
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

type noopObserver struct{}

func (noopObserver) ObserveRetryAttempt(string, string)           {}
func (noopObserver) ObserveRetrySuccess(string, string)           {}
func (noopObserver) ObserveRetryFailure(string, string)           {}
func (noopObserver) ObserveRetryDuration(string, string, float64) {}
func (noopObserver) ObserveStaleError(string, string)             {}

type observerHolder struct{ Observer }

var observer atomic.Value

func init() {
	observer.Store(observerHolder{noopObserver{}})
}

// SetObserver installs the package-level observer. nil restores the no-op.
func SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	observer.Store(observerHolder{o})
}

func currentObserver() Observer {
	return observer.Load().(observerHolder).Observer
}
