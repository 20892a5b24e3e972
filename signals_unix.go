//go:build !windows

package scale

import (
	"os"
	"syscall"
)

// TerminationSignals are interrupt (SIGINT), close-request (SIGHUP),
// break (SIGQUIT) and shutdown (SIGTERM).
var TerminationSignals = []os.Signal{os.Interrupt, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM}
