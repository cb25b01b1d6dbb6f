// internal/source/source.go
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/pinlogger/internal/sample"
)

// ErrNotOpen is returned by Read before Open.
var ErrNotOpen = errors.New("source: serial port is not open")

// maxLineBytes bounds a partial line waiting for its terminator.
const maxLineBytes = 4096

// Config is the minimal runtime config the source needs.
type Config struct {
	Device       string
	BaudRate     int
	ReadTimeout  time.Duration
	StartupDelay time.Duration
	ResetInput   bool
}

// Source owns one serial connection and turns its lines into samples.
// Closed -> Open -> Closed. Not safe for concurrent use: one owner per run.
type Source struct {
	cfg    Config
	opener Opener
	logger *zap.Logger
	now    func() time.Time

	port  Port
	buf   []byte
	chunk []byte

	// skip bytes up to the next terminator: the rest of an overlong line
	discarding bool
}

// New creates a closed source with immutable config.
func New(cfg Config, opener Opener, logger *zap.Logger) (*Source, error) {
	if cfg.Device == "" {
		return nil, errors.New("source: device required")
	}
	if cfg.BaudRate <= 0 {
		return nil, errors.New("source: baud rate must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return nil, errors.New("source: read timeout must be > 0")
	}
	if cfg.StartupDelay < 0 {
		return nil, errors.New("source: startup delay must be >= 0")
	}
	if opener == nil {
		return nil, errors.New("source: opener required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Source{
		cfg:    cfg,
		opener: opener,
		logger: logger.With(zap.String("port", cfg.Device)),
		now:    time.Now,
		chunk:  make([]byte, 256),
	}, nil
}

// IsOpen reports whether the port is open.
func (s *Source) IsOpen() bool { return s.port != nil }

// Open connects to the device. No-op when already open.
// After connecting it waits StartupDelay (the device resets on connect) and
// then, if configured, discards input buffered before that point.
// The buffer reset is best-effort: its failure is logged and ignored.
func (s *Source) Open(ctx context.Context) error {
	if s.port != nil {
		return nil
	}

	p, err := s.opener(s.cfg)
	if err != nil {
		return fmt.Errorf("source: open %s @ %d: %w", s.cfg.Device, s.cfg.BaudRate, err)
	}
	s.port = p
	s.buf = s.buf[:0]

	if s.cfg.StartupDelay > 0 {
		t := time.NewTimer(s.cfg.StartupDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			_ = s.Close()
			return ctx.Err()
		case <-t.C:
		}
	}

	if s.cfg.ResetInput {
		if err := p.ResetInputBuffer(); err != nil {
			s.logger.Debug("input buffer reset failed", zap.Error(err))
		}
	}

	s.logger.Debug("serial port open", zap.Int("baud", s.cfg.BaudRate))
	return nil
}

// Close releases the port. Safe to call repeatedly.
func (s *Source) Close() error {
	if s.port == nil {
		return nil
	}
	p := s.port
	s.port = nil
	s.buf = s.buf[:0]
	s.discarding = false

	if err := p.Close(); err != nil {
		return fmt.Errorf("source: close %s: %w", s.cfg.Device, err)
	}
	return nil
}

// Read waits up to the read timeout for one complete line and decodes it.
// Timeouts, blank lines and undecodable lines are reported through
// Reading.Kind, never as an error. The returned error is reserved for misuse
// (ErrNotOpen) and transport failures.
func (s *Source) Read() (Reading, error) {
	if s.port == nil {
		return Reading{}, ErrNotOpen
	}

	deadline := s.now().Add(s.cfg.ReadTimeout)

	for {
		if s.discarding {
			if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
				n := copy(s.buf, s.buf[i+1:])
				s.buf = s.buf[:n]
				s.discarding = false
			} else {
				s.buf = s.buf[:0]
			}
		}

		if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
			line := decodeText(s.buf[:i])
			n := copy(s.buf, s.buf[i+1:])
			s.buf = s.buf[:n]
			return s.decode(line), nil
		}

		if len(s.buf) > maxLineBytes {
			s.buf = s.buf[:0]
			s.discarding = true
			return Reading{
				At:   s.now(),
				Kind: KindMalformed,
				Err:  fmt.Errorf("%w: no terminator within %d bytes", sample.ErrMalformedLine, maxLineBytes),
			}, nil
		}

		if !s.now().Before(deadline) {
			return Reading{At: s.now(), Kind: KindTimeout}, nil
		}

		n, err := s.port.Read(s.chunk)
		if n > 0 {
			s.buf = append(s.buf, s.chunk[:n]...)
		}
		if err != nil {
			return Reading{}, fmt.Errorf("source: read %s: %w", s.cfg.Device, err)
		}
		if n == 0 {
			// Port-level timeout. Partial bytes stay buffered for the next call.
			return Reading{At: s.now(), Kind: KindTimeout}, nil
		}
	}
}

func (s *Source) decode(line string) Reading {
	r := Reading{At: s.now(), Line: line}

	if line == "" {
		r.Kind = KindEmpty
		return r
	}

	smp, err := sample.Decode(line)
	if err != nil {
		r.Kind = KindMalformed
		r.Err = err
		return r
	}

	r.Kind = KindSample
	r.Sample = smp
	return r
}

// decodeText turns raw bytes into a trimmed line.
// Invalid UTF-8 is replaced, never rejected.
func decodeText(raw []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), "\uFFFD"))
}
