/*
Package workers sizes and bounds the encoder work running next to request
handling.

# Sizing

Count derives a worker count from runtime.GOMAXPROCS, which follows the
container CPU limit since Go 1.19, rather than runtime.NumCPU, which reports
the host:

	workers.ForCPU(8)   // 1 per CPU, at most 8
	workers.ForIO(16)   // 2 per CPU, at most 16
	workers.ForMixed(0) // 1.5 per CPU, no cap

Encoders are CPU-bound but spend much of a stream blocked on a slow client,
so the server sizes its pool with ForIO.

# Environment Variable Override

TRANSCODE_WORKERS overrides the computed count, still subject to the limit:

	env:
	- name: TRANSCODE_WORKERS
	  value: "4"

# Pool

A Pool is a counting semaphore. Each running encoder chain holds one slot
for its whole lifetime, so a burst of transcodes waits for a slot instead of
starving the HTTP server of CPU:

	pool := workers.NewPool(workers.ForIO(16))
	if err := pool.Acquire(ctx); err != nil {
		return err // ctx done while waiting
	}
	defer pool.Release()
*/
package workers
