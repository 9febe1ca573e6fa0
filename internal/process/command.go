package process

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Command is one rendered pipeline step.
type Command struct {
	// Args holds the executable path followed by its arguments.
	Args []string
	// TempFile is removed after the process exits. Empty when unused.
	TempFile string
}

// Name returns the executable's base name.
func (c Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return filepath.Base(c.Args[0])
}

// StartError reports a command that could not be started.
type StartError struct {
	Command []string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}
