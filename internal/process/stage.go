package process

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"media-streamer/internal/logging"
	"media-streamer/internal/metrics"
)

// GracePeriod is how long a process may take to exit after the terminate
// signal before it is killed.
var GracePeriod = 2 * time.Second

// Options configures how processes are run.
type Options struct {
	// StderrLevel is the level encoder stderr is logged at.
	StderrLevel logging.LogLevel
}

// stage is one running process. stdout is the read end of its output pipe.
type stage struct {
	name     string
	cmd      *exec.Cmd
	stdout   *os.File
	stderr   *logging.LineWriter
	tempFile string
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	closeOnce sync.Once
}

// startStage starts c with stdin connected to input, or to the null device
// when input is nil.
func startStage(ctx context.Context, c Command, input *os.File, opts Options) (*stage, error) {
	if len(c.Args) == 0 {
		return nil, &StartError{Err: errors.New("empty command")}
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, &StartError{Command: c.Args, Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(terminateSignal)
	}
	cmd.WaitDelay = GracePeriod
	if input != nil {
		cmd.Stdin = input
	}
	cmd.Stdout = w
	stderr := logging.NewLineWriter(c.Name(), opts.StderrLevel)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		_ = r.Close()
		_ = w.Close()
		return nil, &StartError{Command: c.Args, Err: err}
	}
	// The child holds its own copy of the write end.
	_ = w.Close()

	s := &stage{
		name:     c.Name(),
		cmd:      cmd,
		stdout:   r,
		stderr:   stderr,
		tempFile: c.TempFile,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	metrics.TranscodeProcessesRunning.Inc()
	logging.Debug("Started %s (pid %d)", s.name, cmd.Process.Pid)

	go s.wait()
	return s, nil
}

func (s *stage) wait() {
	err := s.cmd.Wait()
	s.stderr.Flush()
	metrics.TranscodeProcessesRunning.Dec()

	switch {
	case s.ctx.Err() != nil:
		logging.Debug("Stopped %s (pid %d)", s.name, s.cmd.Process.Pid)
	case err != nil:
		logging.Warn("%s (pid %d) exited: %v", s.name, s.cmd.Process.Pid, err)
	default:
		logging.Debug("%s (pid %d) finished", s.name, s.cmd.Process.Pid)
	}

	removeTempFile(s.tempFile)
	s.cancel()
	close(s.done)
}

// stop closes the output pipe and signals the process without waiting.
func (s *stage) stop() {
	s.closeOnce.Do(func() {
		_ = s.stdout.Close()
		s.cancel()
	})
}
