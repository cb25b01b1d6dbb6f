// internal/service/types.go
package service

import (
	"context"
	"time"

	"github.com/tamzrod/pinlogger/internal/pinlog"
	"github.com/tamzrod/pinlogger/internal/sample"
	"github.com/tamzrod/pinlogger/internal/source"
)

// SampleSource is what the loop reads from. Owned by one run.
type SampleSource interface {
	Open(ctx context.Context) error
	Read() (source.Reading, error)
	Close() error
}

// SampleLog is where accepted samples go. Owned by one run.
type SampleLog interface {
	Open() error
	WriteSample(s sample.Sample) error
	Close() error
}

// SourceFactory builds a fresh closed source for one run.
type SourceFactory func() (SampleSource, error)

// LogFactory builds a fresh closed log for one run.
type LogFactory func() (SampleLog, error)

// DefaultStopTimeout bounds Stop when Config.StopTimeout is zero.
const DefaultStopTimeout = 2 * time.Second

// Config is the acquisition service runtime config.
type Config struct {
	Source source.Config
	Log    pinlog.Config

	// PollSleep is the idle sleep after each iteration. 0 disables.
	PollSleep time.Duration

	// StopTimeout bounds how long Stop waits for the worker.
	StopTimeout time.Duration

	// EchoErrors logs acquisition errors at Error level instead of Debug.
	EchoErrors bool
}
