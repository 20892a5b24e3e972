package scale

import (
	"os"
	"syscall"
)

// TerminationSignals covers the console control events. The runtime delivers
// Ctrl+C and Ctrl+Break as os.Interrupt, and close, logoff and shutdown as SIGTERM.
var TerminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
