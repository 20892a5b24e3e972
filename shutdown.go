package scale

import (
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ShutdownCoordinator releases the serial port when the process is asked to
// terminate, then exits. It only ever holds the port's close capability.
type ShutdownCoordinator struct {
	signals  []os.Signal
	exit     func(int)
	log      zerolog.Logger
	closer   atomic.Pointer[io.Closer]
	sigCh    chan os.Signal
	stop     chan struct{}
	stopOnce sync.Once
}

// CoordinatorOption configures a ShutdownCoordinator.
type CoordinatorOption func(*ShutdownCoordinator)

// WithExit replaces os.Exit.
func WithExit(fn func(int)) CoordinatorOption {
	return func(s *ShutdownCoordinator) { s.exit = fn }
}

// WithSignals replaces TerminationSignals.
func WithSignals(sigs ...os.Signal) CoordinatorOption {
	return func(s *ShutdownCoordinator) { s.signals = sigs }
}

// WithCoordinatorLogger sets the diagnostic logger.
func WithCoordinatorLogger(l zerolog.Logger) CoordinatorOption {
	return func(s *ShutdownCoordinator) { s.log = l }
}

// NewShutdownCoordinator returns a coordinator watching TerminationSignals.
func NewShutdownCoordinator(opts ...CoordinatorOption) *ShutdownCoordinator {
	s := &ShutdownCoordinator{
		signals: TerminationSignals,
		exit:    os.Exit,
		log:     zerolog.Nop(),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register starts listening for termination signals. Call it once.
func (s *ShutdownCoordinator) Register() {
	s.sigCh = make(chan os.Signal, 1)
	signal.Notify(s.sigCh, s.signals...)
	go s.wait()
}

func (s *ShutdownCoordinator) wait() {
	select {
	case sig := <-s.sigCh:
		s.log.Info().Str("signal", sig.String()).Msg("termination signal received")
		s.Release()
		s.exit(0)
	case <-s.stop:
	}
}

// Attach hands over the resource to release on termination.
func (s *ShutdownCoordinator) Attach(c io.Closer) {
	s.closer.Store(&c)
}

// Release closes the attached resource. Only the first call after Attach
// closes it; later calls are no-ops.
func (s *ShutdownCoordinator) Release() {
	p := s.closer.Swap(nil)
	if p == nil {
		return
	}
	if err := (*p).Close(); err != nil {
		s.log.Warn().Err(err).Msg("close port")
	}
}

// Stop stops listening for signals. It does not release the resource.
func (s *ShutdownCoordinator) Stop() {
	s.stopOnce.Do(func() {
		if s.sigCh != nil {
			signal.Stop(s.sigCh)
		}
		close(s.stop)
	})
}
