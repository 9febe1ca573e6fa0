/*
Package filesystem wraps os.Stat and os.Open with retries for NFS stale file
handle errors (ESTALE).

Media libraries and transcode directories are often NFS mounts. A file that
is replaced on the server can briefly report ESTALE on the client; reopening
it usually succeeds. Every other error fails immediately.

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())

Retries back off exponentially from InitialBackoff (50ms) up to MaxBackoff
(500ms), at most MaxRetries (3) times.

Retry metrics are labeled with a volume name from a [VolumeResolver] and
reported to the [Observer] installed with [SetObserver].
*/
package filesystem
