// internal/pinlog/writer.go
package pinlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/pinlogger/internal/sample"
)

// ErrNotOpen is returned by WriteSample before Open.
var ErrNotOpen = errors.New("pinlog: log is not open")

// DefaultQueueLimit is how many unwritten bytes the writer holds before it
// writes them out without being asked, and the most it keeps while the file
// refuses writes.
const DefaultQueueLimit = 64 << 10

// WriteError is a failed append, flush or sync. Lost is the number of
// records that will never reach the file because of it. Lost == 0 means
// every record is still queued and the next flush retries it.
type WriteError struct {
	Op   string
	Path string
	Lost int
	Err  error
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("pinlog: %s %s: %v", e.Op, e.Path, e.Err)
	if e.Lost > 0 {
		msg += fmt.Sprintf(" (%d records lost)", e.Lost)
	}
	return msg
}

func (e *WriteError) Unwrap() error { return e.Err }

// LostRecords reports how many records err accounts for as lost.
// Errors that are not a *WriteError cost the one record being written.
func LostRecords(err error) int {
	if err == nil {
		return 0
	}
	var we *WriteError
	if errors.As(err, &we) {
		return we.Lost
	}
	return 1
}

// Config is the append log runtime config.
type Config struct {
	Path string
	// FlushEvery forces queued records to stable storage after this many
	// writes. <= 0 means only on Close or when the queue fills.
	FlushEvery int
}

// file is the subset of *os.File the writer needs.
type file interface {
	io.Writer
	Sync() error
	Close() error
}

// Writer appends samples to an NDJSON file.
// Not safe for concurrent use: one owner per run.
type Writer struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
	limit  int

	openFile func(path string) (file, error)

	f file

	// queued records not yet accepted by the file; lens[i] is the unwritten
	// byte count of the i-th record, oldest first
	buf  []byte
	lens []int

	pending int
	lastTS  time.Time
}

// New creates a closed writer.
func New(cfg Config, logger *zap.Logger) (*Writer, error) {
	if cfg.Path == "" {
		return nil, errors.New("pinlog: path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Writer{
		cfg:      cfg,
		logger:   logger.With(zap.String("path", cfg.Path)),
		now:      time.Now,
		limit:    DefaultQueueLimit,
		openFile: openAppend,
	}, nil
}

// Open creates parent directories and opens the file for append.
// Existing content is never truncated. No-op when already open.
func (w *Writer) Open() error {
	if w.f != nil {
		return nil
	}

	if dir := filepath.Dir(w.cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("pinlog: create %s: %w", dir, err)
		}
	}

	f, err := w.openFile(w.cfg.Path)
	if err != nil {
		return fmt.Errorf("pinlog: open %s: %w", w.cfg.Path, err)
	}

	w.f = f
	w.pending = 0

	w.logger.Debug("append log open", zap.Int("flush_every", w.cfg.FlushEvery))
	return nil
}

// WriteSample appends one record stamped with the current UTC time.
// Auto-assigned timestamps never go backwards within one writer.
func (w *Writer) WriteSample(s sample.Sample) error {
	ts := w.now().UTC()
	if ts.Before(w.lastTS) {
		ts = w.lastTS
	}
	queued, err := w.append(s, ts)
	if queued {
		w.lastTS = ts
	}
	return err
}

// WriteSampleAt appends one record with an explicit timestamp.
func (w *Writer) WriteSampleAt(s sample.Sample, ts time.Time) error {
	_, err := w.append(s, ts)
	return err
}

// append queues one record and flushes on cadence. queued reports whether
// the record is held by the writer, even when the flush that followed failed.
func (w *Writer) append(s sample.Sample, ts time.Time) (queued bool, err error) {
	if w.f == nil {
		return false, ErrNotOpen
	}

	line, err := NewRecord(s, ts).MarshalLine()
	if err != nil {
		return false, &WriteError{Op: "encode", Path: w.cfg.Path, Lost: 1, Err: err}
	}

	var flushErr error
	if len(w.buf)+len(line) > w.limit {
		flushErr = w.flush()
		if flushErr != nil && len(w.buf)+len(line) > w.limit {
			return false, &WriteError{Op: "write", Path: w.cfg.Path, Lost: 1, Err: flushErr}
		}
	}

	w.buf = append(w.buf, line...)
	w.lens = append(w.lens, len(line))

	w.pending++
	if w.cfg.FlushEvery > 0 && w.pending >= w.cfg.FlushEvery {
		w.pending = 0
		flushErr = w.sync()
	}
	if flushErr != nil {
		return true, &WriteError{Op: "flush", Path: w.cfg.Path, Err: flushErr}
	}
	return true, nil
}

// Close flushes, syncs and releases the file. Safe to call repeatedly.
// Records still queued when the final flush fails are reported as lost.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}

	syncErr := w.sync()
	lost := len(w.lens)
	closeErr := w.f.Close()

	w.f = nil
	w.buf = nil
	w.lens = nil
	w.pending = 0

	if syncErr != nil {
		return &WriteError{Op: "flush", Path: w.cfg.Path, Lost: lost, Err: syncErr}
	}
	if closeErr != nil {
		return fmt.Errorf("pinlog: close %s: %w", w.cfg.Path, closeErr)
	}
	return nil
}

// IsOpen reports whether the file is open.
func (w *Writer) IsOpen() bool { return w.f != nil }

// flush hands queued bytes to the file. Bytes the file accepted are
// dropped from the queue, the rest stay for the next attempt.
func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}

	n, err := w.f.Write(w.buf)
	if n < 0 {
		n = 0
	}
	if err == nil && n < len(w.buf) {
		err = io.ErrShortWrite
	}
	w.consume(n)
	return err
}

func (w *Writer) consume(n int) {
	w.buf = append(w.buf[:0], w.buf[n:]...)

	done := 0
	for done < len(w.lens) && w.lens[done] <= n {
		n -= w.lens[done]
		done++
	}
	w.lens = append(w.lens[:0], w.lens[done:]...)
	if n > 0 && len(w.lens) > 0 {
		w.lens[0] -= n
	}
}

func (w *Writer) sync() error {
	if err := w.flush(); err != nil {
		return err
	}
	return w.f.Sync()
}

func openAppend(path string) (file, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}
