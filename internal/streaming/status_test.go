package streaming

import (
	"context"
	"sync"
	"testing"
)

func TestRegistryStartFinish(t *testing.T) {
	r := NewRegistry()

	ctx, s := r.Start(context.Background(), "p1", "/music/a.mp3")
	if !s.IsActive() {
		t.Error("status should be active after Start")
	}
	if got := r.ForPlayer("p1"); len(got) != 1 || got[0] != s {
		t.Errorf("ForPlayer = %v", got)
	}

	s.AddBytes(100)
	s.AddBytes(28)
	snap := r.Active()
	if len(snap) != 1 || snap[0].BytesTransferred != 128 || snap[0].Path != "/music/a.mp3" {
		t.Errorf("Active() = %+v", snap)
	}

	r.Finish(s)
	if s.IsActive() {
		t.Error("status should be inactive after Finish")
	}
	if ctx.Err() == nil {
		t.Error("stream context should be canceled after Finish")
	}
	if len(r.Active()) != 0 {
		t.Error("no streams should be active")
	}
}

func TestRegistryReusesInactiveStatus(t *testing.T) {
	r := NewRegistry()

	_, first := r.Start(context.Background(), "p1", "/music/a.mp3")
	first.AddBytes(500)
	r.Finish(first)

	_, second := r.Start(context.Background(), "p1", "/music/b.mp3")
	if second != first {
		t.Fatal("expected the player's inactive status to be reused")
	}
	if second.BytesTransferred() != 0 {
		t.Errorf("reused status kept %d bytes", second.BytesTransferred())
	}
	if second.Terminated() {
		t.Error("reused status should not be terminated")
	}
	if got := second.Snapshot().Path; got != "/music/b.mp3" {
		t.Errorf("reused status path = %q", got)
	}

	_, other := r.Start(context.Background(), "p2", "/music/c.mp3")
	if other == first {
		t.Error("another player must not reuse p1's status")
	}
}

func TestCloseAllFor(t *testing.T) {
	tests := []struct {
		name           string
		isPodcast      bool
		isSingleFile   bool
		wantTerminated bool
	}{
		{"regular playback terminates", false, false, true},
		{"podcast is exempt", true, false, false},
		{"single file is exempt", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			ctx, prior := r.Start(context.Background(), "p1", "/music/a.mp3")
			otherCtx, other := r.Start(context.Background(), "p2", "/music/b.mp3")

			n := r.CloseAllFor("p1", tt.isPodcast, tt.isSingleFile)

			if prior.Terminated() != tt.wantTerminated {
				t.Errorf("Terminated() = %v, want %v", prior.Terminated(), tt.wantTerminated)
			}
			if (ctx.Err() != nil) != tt.wantTerminated {
				t.Errorf("context canceled = %v, want %v", ctx.Err() != nil, tt.wantTerminated)
			}
			if tt.wantTerminated && n != 1 {
				t.Errorf("CloseAllFor returned %d, want 1", n)
			}
			if other.Terminated() || otherCtx.Err() != nil {
				t.Error("another player's stream must not be terminated")
			}
		})
	}
}

func TestTerminateInactiveIsNoop(t *testing.T) {
	r := NewRegistry()
	_, s := r.Start(context.Background(), "p1", "/music/a.mp3")
	r.Finish(s)

	s.Terminate()
	if s.Terminated() {
		t.Error("terminating an inactive status should do nothing")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			player := []string{"a", "b", "c"}[i%3]
			r.CloseAllFor(player, false, false)
			_, s := r.Start(context.Background(), player, "/music/x.mp3")
			s.AddBytes(10)
			_ = r.Active()
			r.Finish(s)
		}(i)
	}
	wg.Wait()

	if n := len(r.Active()); n != 0 {
		t.Errorf("%d streams still active", n)
	}
}

func TestReplace(t *testing.T) {
	tests := []struct {
		name       string
		exempt     bool
		wantClosed int
	}{
		{"terminates earlier streams", false, 1},
		{"exempt playback keeps them", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			priorCtx, prior := r.Start(context.Background(), "p1", "/music/a.mp3")

			ctx, s, closed := r.Replace(context.Background(), "p1", "/music/b.mp3", tt.exempt)

			if closed != tt.wantClosed {
				t.Errorf("Replace closed %d, want %d", closed, tt.wantClosed)
			}
			if prior.Terminated() == tt.exempt || (priorCtx.Err() != nil) == tt.exempt {
				t.Errorf("prior terminated = %v, want %v", prior.Terminated(), !tt.exempt)
			}
			if s.Terminated() || ctx.Err() != nil {
				t.Error("the new stream must not be terminated")
			}
			if got := len(r.ForPlayer("p1")); got != 2 {
				t.Errorf("ForPlayer returned %d statuses, want 2", got)
			}
		})
	}
}

func TestReplaceConcurrentLeavesOneSurvivor(t *testing.T) {
	r := NewRegistry()
	const n = 20

	statuses := make([]*Status, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, statuses[i], _ = r.Replace(context.Background(), "p1", "/music/x.mp3", false)
		}(i)
	}
	wg.Wait()

	survivors := 0
	for _, s := range statuses {
		if !s.Terminated() {
			survivors++
		}
	}
	if survivors != 1 {
		t.Errorf("%d streams of the player survived, want 1", survivors)
	}
}

func TestCloseAllForSkipsTerminated(t *testing.T) {
	r := NewRegistry()
	r.Start(context.Background(), "p1", "/music/a.mp3")

	if n := r.CloseAllFor("p1", false, false); n != 1 {
		t.Errorf("first CloseAllFor returned %d, want 1", n)
	}
	if n := r.CloseAllFor("p1", false, false); n != 0 {
		t.Errorf("second CloseAllFor returned %d, want 0", n)
	}
}
