package scale

import (
	"errors"
	"fmt"
)

var (
	// ErrPortUnavailable is returned when the serial port cannot be opened or configured.
	ErrPortUnavailable = errors.New("scale: port unavailable")

	// ErrPortClosed is returned by Read and Write once the link has been closed.
	ErrPortClosed = errors.New("scale: port closed")

	// ErrUsage is returned when the command line is missing the port identifier.
	ErrUsage = errors.New("scale: usage")
)

// PortError reports an open or configure failure for a specific port.
// It matches ErrPortUnavailable with errors.Is.
type PortError struct {
	Port string
	Op   string
	Err  error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
}

func (e *PortError) Unwrap() error { return e.Err }

func (e *PortError) Is(target error) bool { return target == ErrPortUnavailable }
