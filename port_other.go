//go:build !linux

package scale

import (
	"errors"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// Link is an open, configured serial connection to the scale.
type Link struct {
	port      *serial.Port
	path      string
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex // held shared by whileOpen, exclusively while the port is released
	timeouts  ReadTimeouts
	log       zerolog.Logger
}

// QualifyPath returns the platform path for a port identifier:
// `\\.\COM3` on Windows, /dev/<name> elsewhere.
func QualifyPath(id string) string {
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(id, `\\.\`) {
			return id
		}
		return `\\.\` + id
	}
	if strings.HasPrefix(id, "/") {
		return id
	}
	return "/dev/" + id
}

// Open opens and configures the port for 9600-8-N-1 operation.
func Open(cfg Config) (*Link, error) {
	path := QualifyPath(cfg.Device)
	port, err := serial.OpenPort(&serial.Config{
		Name:        path,
		Baud:        BaudRate,
		Size:        DataBits,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: DefaultReadTimeouts.Interval,
	})
	if err != nil {
		return nil, &PortError{Port: path, Op: "open", Err: err}
	}
	return cfg.opened(&Link{
		port:     port,
		path:     path,
		done:     make(chan struct{}),
		timeouts: DefaultReadTimeouts,
		log:      cfg.logger(),
	})
}

// Path returns the qualified device path.
func (l *Link) Path() string { return l.path }

// Closed reports whether Close has been called.
func (l *Link) Closed() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// whileOpen runs fn unless the link is closed, and reports whether it ran.
// Close does not complete while fn is running.
func (l *Link) whileOpen(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.Closed() {
		return false
	}
	fn()
	return true
}

// Write sends p to the device.
func (l *Link) Write(p []byte) (int, error) {
	if l.Closed() {
		return 0, ErrPortClosed
	}
	return l.port.Write(p)
}

// Read fills buf with whatever the device sends within the link's ReadTimeouts.
// Each underlying read is bounded by the inter-byte interval, so an empty read
// after data has arrived ends the response.
func (l *Link) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	deadline := time.Now().Add(l.timeouts.Total(len(buf)))
	n := 0
	for n < len(buf) && time.Now().Before(deadline) {
		if l.Closed() {
			return n, ErrPortClosed
		}
		m, err := l.port.Read(buf[n:])
		n += m
		if err != nil && !errors.Is(err, io.EOF) {
			return n, err
		}
		if m == 0 && n > 0 {
			break
		}
	}
	return n, nil
}

// Close releases the port. Safe to call multiple times and on a nil Link.
func (l *Link) Close() error {
	if l == nil {
		return nil
	}
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		l.mu.Lock()
		defer l.mu.Unlock()
		err = l.port.Close()
		l.log.Info().Msg("serial port closed")
	})
	return err
}
