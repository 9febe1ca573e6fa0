package process

import (
	"context"
	"errors"
	"os"
)

// Chain is a running pipeline. It is an io.ReadCloser over the last
// process's stdout.
type Chain struct {
	stages []*stage
	out    *os.File
	done   chan struct{}
}

// Start runs commands as a pipeline, each command's stdout feeding the next
// one's stdin. If a command fails to start, the processes already running
// are stopped, every temp file is removed and a *StartError is returned.
//
// Canceling ctx stops the chain just like Close does.
func Start(ctx context.Context, commands []Command, opts Options) (*Chain, error) {
	if len(commands) == 0 {
		return nil, &StartError{Err: errors.New("no commands")}
	}

	stages := make([]*stage, 0, len(commands))
	var input *os.File
	for i, c := range commands {
		s, err := startStage(ctx, c, input, opts)
		if input != nil {
			// The next process owns the read end now.
			_ = input.Close()
		}
		if err != nil {
			RemoveTempFiles(commands[i:])
			stopAll(stages)
			return nil, err
		}
		stages = append(stages, s)
		input = s.stdout
	}

	c := &Chain{stages: stages, out: input, done: make(chan struct{})}
	go func() {
		for _, s := range stages {
			<-s.done
		}
		close(c.done)
	}()
	return c, nil
}

// Read reads the pipeline output.
func (c *Chain) Read(p []byte) (int, error) {
	return c.out.Read(p)
}

// Close stops every process and waits for them to exit, which takes at
// most GracePeriod once signaled. It is safe to call more than once.
func (c *Chain) Close() error {
	stopAll(c.stages)
	<-c.done
	return nil
}

// Exited is closed once every process in the chain has exited.
func (c *Chain) Exited() <-chan struct{} {
	return c.done
}

// Len returns the number of processes in the chain.
func (c *Chain) Len() int {
	return len(c.stages)
}

func stopAll(stages []*stage) {
	for i := len(stages) - 1; i >= 0; i-- {
		stages[i].stop()
	}
	for _, s := range stages {
		<-s.done
	}
}
