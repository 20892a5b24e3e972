package scale

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Link is an open, configured serial connection to the scale.
// Read and Write may be called from one goroutine while Close is called from another.
type Link struct {
	fd        int
	path      string
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex // held shared by Read/Write, exclusively while fds are released
	timeouts  ReadTimeouts
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
	log       zerolog.Logger
}

// QualifyPath turns a bare device name such as "ttyUSB0" into its /dev path.
// Absolute paths are returned unchanged.
func QualifyPath(id string) string {
	if strings.HasPrefix(id, "/") {
		return id
	}
	return "/dev/" + id
}

// Open opens the port named by cfg.Device with exclusive read/write access and
// configures it for raw 9600-8-N-1 operation.
func Open(cfg Config) (*Link, error) {
	path := QualifyPath(cfg.Device)

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &PortError{Port: path, Op: "open", Err: err}
	}
	if err := configure(fd); err != nil {
		unix.Close(fd)
		return nil, &PortError{Port: path, Op: "configure", Err: err}
	}

	// Self-pipe so Close can wake a Read blocked in poll
	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, &PortError{Port: path, Op: "pipe", Err: err}
	}

	return cfg.opened(&Link{
		fd:       fd,
		path:     path,
		done:     make(chan struct{}),
		timeouts: DefaultReadTimeouts,
		pipeR:    pipeFds[0],
		pipeW:    pipeFds[1],
		log:      cfg.logger(),
	})
}

func configure(fd int) error {
	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		return fmt.Errorf("exclusive access: %w", err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN

	// 8 data bits, no parity, 1 stop bit, no hardware flow control
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	termios.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD | unix.B9600
	termios.Ispeed = unix.B9600
	termios.Ospeed = unix.B9600

	// Timeouts are enforced with poll, a ready fd never blocks in read
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	// Turn back into blocking mode now that config is done
	return unix.SetNonblock(fd, false)
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
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.Closed() {
		return 0, ErrPortClosed
	}

	n := 0
	for n < len(p) {
		m, err := unix.Write(l.fd, p[n:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return n, err
		}
		n += m
	}
	return n, nil
}

// Read fills buf with whatever the device sends within the link's ReadTimeouts.
// A timeout with no data is not an error: Read returns 0, nil.
func (l *Link) Read(buf []byte) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.Closed() {
		return 0, ErrPortClosed
	}
	if len(buf) == 0 {
		return 0, nil
	}

	deadline := time.Now().Add(l.timeouts.Total(len(buf)))
	n := 0
	for n < len(buf) {
		wait := time.Until(deadline)
		if n > 0 && wait > l.timeouts.Interval {
			wait = l.timeouts.Interval
		}
		if wait <= 0 {
			break
		}

		ready, err := l.wait(wait)
		if err != nil {
			return n, err
		}
		if !ready {
			break
		}

		m, err := unix.Read(l.fd, buf[n:])
		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		}
		if err != nil {
			return n, err
		}
		if m == 0 {
			break
		}
		n += m
	}
	return n, nil
}

// wait blocks until the port is readable, the link is closed, or d elapses.
func (l *Link) wait(d time.Duration) (bool, error) {
	ms := int((d + time.Millisecond - 1) / time.Millisecond)
	pfd := []unix.PollFd{
		{Fd: int32(l.fd), Events: unix.POLLIN},
		{Fd: int32(l.pipeR), Events: unix.POLLIN},
	}
	for {
		_, err := unix.Poll(pfd, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		break
	}
	if pfd[1].Revents != 0 {
		return false, ErrPortClosed
	}
	return pfd[0].Revents != 0, nil
}

// Close releases the port and unblocks a pending Read.
// Safe to call multiple times and on a nil Link; subsequent calls are no-ops.
func (l *Link) Close() error {
	if l == nil {
		return nil
	}
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		// Wake up poll using self-pipe
		unix.Write(l.pipeW, []byte{1})

		l.mu.Lock()
		defer l.mu.Unlock()
		err = unix.Close(l.fd)
		unix.Close(l.pipeR)
		unix.Close(l.pipeW)
		l.log.Info().Msg("serial port closed")
	})
	return err
}
