package workers

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"media-streamer/internal/metrics"
)

// Pool bounds how many encoder chains run at once.
type Pool struct {
	sem   *semaphore.Weighted
	size  int
	inUse atomic.Int64
}

// NewPool returns a Pool with size slots. Sizes below 1 are raised to 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	metrics.WorkerSlots.Set(float64(size))
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Acquire blocks until a slot is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	metrics.WorkerSlotsInUse.Set(float64(p.inUse.Add(1)))
	return nil
}

// TryAcquire takes a slot without blocking and reports whether it got one.
func (p *Pool) TryAcquire() bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	metrics.WorkerSlotsInUse.Set(float64(p.inUse.Add(1)))
	return true
}

// Release returns a slot taken by Acquire or TryAcquire.
func (p *Pool) Release() {
	metrics.WorkerSlotsInUse.Set(float64(p.inUse.Add(-1)))
	p.sem.Release(1)
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// InUse returns the number of slots currently held.
func (p *Pool) InUse() int {
	return int(p.inUse.Load())
}
