package scale

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Line parameters of the scale. They are fixed by the device protocol.
const (
	BaudRate = 9600
	DataBits = 8
	StopBits = 1
)

// ReadTimeouts bounds a single Read on the link.
//
// A read waits at most Constant + PerByte*len(buf) for data. Once bytes have
// arrived it returns as soon as Interval passes without another byte, or the
// buffer is full.
type ReadTimeouts struct {
	Interval time.Duration
	Constant time.Duration
	PerByte  time.Duration
}

// DefaultReadTimeouts are the timeouts applied to every opened link.
var DefaultReadTimeouts = ReadTimeouts{
	Interval: 50 * time.Millisecond,
	Constant: 50 * time.Millisecond,
	PerByte:  10 * time.Millisecond,
}

// Total returns the overall deadline for a read of n bytes.
func (t ReadTimeouts) Total(n int) time.Duration {
	return t.Constant + time.Duration(n)*t.PerByte
}

// Config holds the parameters for opening a serial link.
type Config struct {
	// Device is the port identifier, e.g. "ttyUSB0", "/dev/ttyS1" or "COM3".
	Device string
	Logger zerolog.Logger
	// OnOpen, if set, receives the link's close capability before Open returns.
	OnOpen func(io.Closer)
}

func (c Config) opened(l *Link) (*Link, error) {
	if c.OnOpen != nil {
		c.OnOpen(l)
	}
	return l, nil
}

func (c Config) logger() zerolog.Logger {
	return c.Logger.With().Str("port", c.Device).Logger()
}
