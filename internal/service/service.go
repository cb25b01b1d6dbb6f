// internal/service/service.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tamzrod/pinlogger/internal/metrics"
	"github.com/tamzrod/pinlogger/internal/pinlog"
	"github.com/tamzrod/pinlogger/internal/sample"
	"github.com/tamzrod/pinlogger/internal/source"
	"github.com/tamzrod/pinlogger/internal/status"
)

// Service runs serial -> append log on one background worker and tracks
// status for the operator surfaces.
type Service struct {
	cfg       Config
	logger    *zap.Logger
	newSource SourceFactory
	newLog    LogFactory
	now       func() time.Time

	// lifecycle: serialises Start/Stop, never held by the worker
	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// status: held for field assignment or copy only
	mu sync.Mutex
	st state
}

// state is the mutable status behind mu.
// Counters are cumulative across runs; run fields reset on Start.
type state struct {
	runID     string
	running   bool
	startedAt time.Time

	lastSampleAt time.Time
	last         sample.Sample

	samplesWritten uint64
	badReads       uint64
	writeErrors    uint64

	lastError string
}

// Option customises a Service.
type Option func(*Service)

// WithSourceFactory replaces the serial source factory.
func WithSourceFactory(f SourceFactory) Option {
	return func(s *Service) { s.newSource = f }
}

// WithLogFactory replaces the append log factory.
func WithLogFactory(f LogFactory) Option {
	return func(s *Service) { s.newLog = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a stopped service.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if cfg.PollSleep < 0 {
		return nil, errors.New("service: poll sleep must be >= 0")
	}
	if cfg.StopTimeout < 0 {
		return nil, errors.New("service: stop timeout must be >= 0")
	}
	if cfg.StopTimeout == 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	s.newSource = func() (SampleSource, error) {
		src, err := source.New(s.cfg.Source, source.OpenSerial, s.logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	s.newLog = func() (SampleLog, error) {
		w, err := pinlog.New(s.cfg.Log, s.logger)
		if err != nil {
			return nil, err
		}
		return w, nil
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.newSource == nil || s.newLog == nil {
		return nil, errors.New("service: source and log factories required")
	}

	return s, nil
}

// Start launches the acquisition worker. No-op while a worker is alive,
// including one that outlived a timed-out Stop.
func (s *Service) Start(ctx context.Context) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
		default:
			return
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	runID := uuid.NewString()
	done := make(chan struct{})

	s.mu.Lock()
	s.st.runID = runID
	s.st.running = true
	s.st.startedAt = s.now()
	s.st.lastError = ""
	s.mu.Unlock()
	metrics.Running.Set(1)

	s.cancel = cancel
	s.done = done

	go s.run(runCtx, runID, done)
}

// Stop signals the worker and waits up to StopTimeout for it to exit.
// Status reads not-running when Stop returns, even if the worker is late.
// No-op before the first Start.
func (s *Service) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.done == nil {
		return
	}

	s.cancel()

	t := time.NewTimer(s.cfg.StopTimeout)
	defer t.Stop()

	select {
	case <-s.done:
	case <-t.C:
		s.logger.Warn("acquisition worker did not exit in time",
			zap.Duration("stop_timeout", s.cfg.StopTimeout))
	}

	s.mu.Lock()
	s.st.running = false
	s.mu.Unlock()
	metrics.Running.Set(0)
}

// IsRunning reports the running flag.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.running
}

// Status returns a consistent copy of the service state. Never blocks on I/O.
func (s *Service) Status() status.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	snap := status.Snapshot{
		RunID:          s.st.runID,
		Running:        s.st.running,
		Port:           s.cfg.Source.Device,
		Baud:           s.cfg.Source.BaudRate,
		LogPath:        s.cfg.Log.Path,
		SamplesWritten: s.st.samplesWritten,
		BadReads:       s.st.badReads,
		WriteErrors:    s.st.writeErrors,
		LastError:      s.st.lastError,
		Pins: status.PinStates{
			D4: s.st.last.Ref(sample.PinD4),
			D5: s.st.last.Ref(sample.PinD5),
			D6: s.st.last.Ref(sample.PinD6),
			D7: s.st.last.Ref(sample.PinD7),
		},
	}

	if !s.st.startedAt.IsZero() {
		v := now.Sub(s.st.startedAt).Seconds()
		snap.UptimeSeconds = &v
	}
	if !s.st.lastSampleAt.IsZero() {
		v := now.Sub(s.st.lastSampleAt).Seconds()
		snap.LastSampleAgeSeconds = &v
	}

	return snap
}
