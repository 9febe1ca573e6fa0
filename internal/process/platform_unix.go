//go:build unix

package process

import (
	"os"
	"syscall"
)

var terminateSignal os.Signal = syscall.SIGTERM

const needsASCIIPath = false
