// internal/mirror/runner.go
package mirror

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/pinlogger/internal/metrics"
	"github.com/tamzrod/pinlogger/internal/status"
)

// StatusFunc returns the current status snapshot. Must not block.
type StatusFunc func() status.Snapshot

// Mirror periodically pushes the service status into the register block.
type Mirror struct {
	w        *Writer
	interval time.Duration
	statusFn StatusFunc
	logger   *zap.Logger

	failing bool
}

// New creates a mirror loop around a writer.
func New(w *Writer, interval time.Duration, statusFn StatusFunc, logger *zap.Logger) *Mirror {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		w:        w,
		interval: interval,
		statusFn: statusFn,
		logger:   logger,
	}
}

// Run writes once immediately, then on every tick until ctx is done.
// One goroutine. No overlap. No retries beyond the next tick.
func (m *Mirror) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.PushOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.PushOnce()
		}
	}
}

// PushOnce delivers one snapshot and reports transitions in the log.
func (m *Mirror) PushOnce() error {
	err := m.w.WriteStatus(m.statusFn())

	switch {
	case err != nil:
		metrics.MirrorWrites.WithLabelValues("error").Inc()
		if !m.failing {
			m.logger.Warn("status mirror write failed", zap.Error(err))
		} else {
			m.logger.Debug("status mirror write failed", zap.Error(err))
		}
		m.failing = true
	default:
		metrics.MirrorWrites.WithLabelValues("ok").Inc()
		if m.failing {
			m.logger.Info("status mirror recovered")
		}
		m.failing = false
	}

	return err
}
