package scale

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ReadBufferSize is the size of the buffer handed to each Read.
	ReadBufferSize = 256
	// PollInterval is the pause between two request/response cycles.
	PollInterval = 200 * time.Millisecond
)

var pollRequest = []byte{ENQ}

// Driver polls one scale and writes every weight frame to an output stream.
type Driver struct {
	device string
	out    io.Writer
	log    zerolog.Logger
	onOpen []func(io.Closer)
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithOnOpen registers fn to receive the link's close capability as soon as
// the port is opened. It is how a ShutdownCoordinator gets hold of the port.
func WithOnOpen(fn func(io.Closer)) Option {
	return func(d *Driver) { d.onOpen = append(d.onOpen, fn) }
}

// NewDriver returns a Driver for the given port identifier.
func NewDriver(device string, out io.Writer, opts ...Option) *Driver {
	d := &Driver{
		device: device,
		out:    out,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run opens the port and polls it until ctx is done or the link is closed
// from elsewhere. An open failure is returned as a *PortError before any
// polling happens. The link is always closed when Run returns.
func (d *Driver) Run(ctx context.Context) error {
	link, err := Open(Config{Device: d.device, Logger: d.log, OnOpen: d.attach})
	if err != nil {
		return err
	}
	defer link.Close()

	d.log.Info().Str("port", link.Path()).Msg("scale connected, reading weight")

	return d.poll(ctx, link)
}

func (d *Driver) attach(c io.Closer) {
	for _, fn := range d.onOpen {
		fn(c)
	}
}

func (d *Driver) poll(ctx context.Context, link *Link) error {
	var ext Extractor
	buf := make([]byte, ReadBufferSize)
	timer := time.NewTimer(PollInterval)
	defer timer.Stop()

	// Frames are written under the link's lock, so none can follow Close.
	emit := func(frame []byte) {
		link.whileOpen(func() {
			if err := WriteFrame(d.out, frame); err != nil {
				d.log.Warn().Err(err).Msg("write frame")
			}
		})
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := link.Write(pollRequest); errors.Is(err, ErrPortClosed) {
			return nil
		}

		n, err := link.Read(buf)
		if errors.Is(err, ErrPortClosed) {
			return nil
		}
		if err != nil {
			d.log.Debug().Err(err).Msg("read miss")
		}
		if n > 0 {
			ext.Feed(buf[:n], emit)
		}

		timer.Reset(PollInterval)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}
