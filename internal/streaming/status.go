package streaming

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"media-streamer/internal/logging"
	"media-streamer/internal/metrics"
)

// Status tracks one stream of a player. A player's finished Status is kept
// and reused for its next stream.
type Status struct {
	ID       uuid.UUID
	PlayerID string

	bytes atomic.Int64

	mu         sync.Mutex
	path       string
	started    time.Time
	active     bool
	terminated bool
	cancel     context.CancelFunc
}

// Snapshot is a point-in-time copy of a Status for reporting.
type Snapshot struct {
	ID               string    `json:"id"`
	PlayerID         string    `json:"playerId"`
	Path             string    `json:"path"`
	Started          time.Time `json:"started"`
	BytesTransferred int64     `json:"bytesTransferred"`
	Active           bool      `json:"active"`
}

// AddBytes records n more bytes sent to the client.
func (s *Status) AddBytes(n int64) {
	s.bytes.Add(n)
}

// BytesTransferred returns the bytes sent so far.
func (s *Status) BytesTransferred() int64 {
	return s.bytes.Load()
}

// Terminate stops the stream by canceling the context returned from Start.
func (s *Status) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.terminated {
		return
	}
	s.terminated = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Terminated reports whether Terminate stopped the current stream.
func (s *Status) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// IsActive reports whether the stream is still being served.
func (s *Status) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Snapshot returns a copy of the current state.
func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:               s.ID.String(),
		PlayerID:         s.PlayerID,
		Path:             s.path,
		Started:          s.started,
		BytesTransferred: s.bytes.Load(),
		Active:           s.active,
	}
}

// Registry holds the stream statuses of all players. Stream starts are rare
// compared to bytes sent, so one mutex guards everything.
type Registry struct {
	mu       sync.Mutex
	active   []*Status
	inactive map[string]*Status
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{inactive: make(map[string]*Status)}
}

// Start registers a new active stream for playerID. The returned context is
// canceled when ctx ends or the status is terminated.
func (r *Registry) Start(ctx context.Context, playerID, path string) (context.Context, *Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(ctx, playerID, path)
}

// Replace terminates the active streams of playerID and registers the new
// one while holding the registry lock, so two requests of the same player
// cannot both survive. Podcast and single-file playback (exempt) leave the
// earlier streams running. It returns how many streams were terminated.
func (r *Registry) Replace(ctx context.Context, playerID, path string, exempt bool) (context.Context, *Status, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	if !exempt {
		closed = r.terminateLocked(playerID)
	}
	ctx, s := r.startLocked(ctx, playerID, path)
	return ctx, s, closed
}

func (r *Registry) startLocked(ctx context.Context, playerID, path string) (context.Context, *Status) {
	ctx, cancel := context.WithCancel(ctx)

	s, reused := r.inactive[playerID]
	if reused {
		delete(r.inactive, playerID)
	} else {
		s = &Status{ID: uuid.New(), PlayerID: playerID}
	}

	s.mu.Lock()
	s.path = path
	s.started = time.Now()
	s.active = true
	s.terminated = false
	s.cancel = cancel
	s.bytes.Store(0)
	s.mu.Unlock()

	r.active = append(r.active, s)
	metrics.StreamsActive.Inc()
	logging.Debug("Stream %s started for player %s (reused=%v): %s", s.ID, playerID, reused, path)
	return ctx, s
}

// Finish marks s as no longer active and keeps it for the player's next
// stream.
func (r *Registry) Finish(s *Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.active {
		if a == s {
			r.active = append(r.active[:i], r.active[i+1:]...)
			metrics.StreamsActive.Dec()
			break
		}
	}

	s.mu.Lock()
	s.active = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	r.inactive[s.PlayerID] = s
}

// CloseAllFor terminates the active streams of playerID and returns how many
// were terminated. Podcast and single-file playback leave them running.
func (r *Registry) CloseAllFor(playerID string, isPodcast, isSingleFile bool) int {
	if isPodcast || isSingleFile {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminateLocked(playerID)
}

func (r *Registry) terminateLocked(playerID string) int {
	closed := 0
	for _, s := range r.active {
		if s.PlayerID != playerID || s.Terminated() {
			continue
		}
		s.Terminate()
		closed++
		metrics.StreamsTerminated.Inc()
		logging.Debug("Terminated stream %s of player %s", s.ID, playerID)
	}
	return closed
}

// ForPlayer returns the active statuses of playerID.
func (r *Registry) ForPlayer(playerID string) []*Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Status
	for _, s := range r.active {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	return out
}

// Active returns snapshots of all active streams, oldest first.
func (r *Registry) Active() []Snapshot {
	r.mu.Lock()
	statuses := make([]*Status, len(r.active))
	copy(statuses, r.active)
	r.mu.Unlock()

	out := make([]Snapshot, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}
