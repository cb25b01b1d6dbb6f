// internal/service/runner.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/pinlogger/internal/metrics"
	"github.com/tamzrod/pinlogger/internal/pinlog"
	"github.com/tamzrod/pinlogger/internal/sample"
	"github.com/tamzrod/pinlogger/internal/source"
)

// run is the worker body. Nothing unwinds past it.
func (s *Service) run(ctx context.Context, runID string, done chan struct{}) {
	defer close(done)

	log := s.logger.With(zap.String("run_id", runID))
	log.Info("acquisition started",
		zap.String("port", s.cfg.Source.Device),
		zap.Int("baud", s.cfg.Source.BaudRate),
		zap.String("log_path", s.cfg.Log.Path),
	)

	if err := safeRun(func() error { return s.loop(ctx, log) }); err != nil {
		s.fatal(log, err)
	}

	s.mu.Lock()
	current := s.st.runID == runID
	if current {
		s.st.running = false
	}
	s.mu.Unlock()
	if current {
		metrics.Running.Set(0)
	}

	log.Info("acquisition stopped")
}

// loop owns the log and the source for one run. Both are released on every
// exit path, source first.
func (s *Service) loop(ctx context.Context, log *zap.Logger) error {
	lg, err := s.newLog()
	if err != nil {
		return err
	}
	if err := lg.Open(); err != nil {
		return err
	}
	defer func() {
		if err := lg.Close(); err != nil {
			var we *pinlog.WriteError
			if errors.As(err, &we) && we.Lost > 0 {
				s.writeFailed(log, err, we.Lost)
				return
			}
			log.Warn("append log close failed", zap.Error(err))
		}
	}()

	src, err := s.newSource()
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("source close failed", zap.Error(err))
		}
	}()
	if err := src.Open(ctx); err != nil {
		if ctx.Err() != nil {
			// stopped during the startup delay
			return nil
		}
		return err
	}

	for ctx.Err() == nil {
		begin := time.Now()
		r, err := src.Read()
		metrics.ReadDuration.Observe(time.Since(begin).Seconds())
		if err != nil {
			return err
		}

		if !r.OK() {
			s.badRead(log, r)
			s.idle(ctx)
			continue
		}

		s.accept(r.Sample)

		err = lg.WriteSample(r.Sample)
		lost := pinlog.LostRecords(err)
		if lost == 0 {
			s.written()
		}
		if err != nil {
			s.writeFailed(log, err, lost)
		}

		s.idle(ctx)
	}

	return nil
}

func (s *Service) accept(smp sample.Sample) {
	s.mu.Lock()
	s.st.last = smp
	s.st.lastSampleAt = s.now()
	s.mu.Unlock()

	for _, pin := range sample.TrackedPins {
		if v, ok := smp.Get(pin); ok {
			metrics.PinState.WithLabelValues(fmt.Sprintf("d%d", pin)).Set(float64(v))
		}
	}
}

func (s *Service) badRead(log *zap.Logger, r source.Reading) {
	s.mu.Lock()
	s.st.badReads++
	s.mu.Unlock()
	metrics.BadReads.WithLabelValues(r.Kind.String()).Inc()

	if r.Kind == source.KindMalformed {
		log.Debug("malformed line dropped", zap.String("line", r.Line), zap.Error(r.Err))
	}
}

func (s *Service) written() {
	s.mu.Lock()
	s.st.samplesWritten++
	s.mu.Unlock()
	metrics.SamplesWritten.Inc()
}

// writeFailed records a log error. lost is how many records it cost; a
// flush that left its records queued costs none.
func (s *Service) writeFailed(log *zap.Logger, err error, lost int) {
	s.mu.Lock()
	s.st.writeErrors += uint64(lost)
	s.st.lastError = "log write error: " + err.Error()
	s.mu.Unlock()
	metrics.WriteErrors.Add(float64(lost))

	s.echo(log, "log write error", err)
}

func (s *Service) fatal(log *zap.Logger, err error) {
	s.mu.Lock()
	s.st.lastError = "fatal: " + err.Error()
	s.mu.Unlock()
	metrics.FatalErrors.Inc()

	s.echo(log, "fatal", err)
}

// echo is the error side channel: Error level when enabled, Debug otherwise.
func (s *Service) echo(log *zap.Logger, msg string, err error) {
	if s.cfg.EchoErrors {
		log.Error(msg, zap.Error(err))
		return
	}
	log.Debug(msg, zap.Error(err))
}

func (s *Service) idle(ctx context.Context) {
	if s.cfg.PollSleep <= 0 {
		return
	}
	t := time.NewTimer(s.cfg.PollSleep)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// safeRun executes fn and turns a panic into an error.
func safeRun(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
