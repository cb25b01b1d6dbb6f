// internal/source/types.go
package source

import (
	"io"
	"time"

	"github.com/tamzrod/pinlogger/internal/sample"
)

// Kind classifies one read attempt.
type Kind int

const (
	// KindSample means a line decoded into a Sample.
	KindSample Kind = iota
	// KindTimeout means no line terminator arrived within the read timeout.
	KindTimeout
	// KindEmpty means the line was blank after trimming.
	KindEmpty
	// KindMalformed means the line failed to decode. The line is dropped.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindTimeout:
		return "timeout"
	case KindEmpty:
		return "empty"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Reading is the outcome of one read attempt.
// Only KindSample carries a Sample.
type Reading struct {
	At     time.Time
	Kind   Kind
	Sample sample.Sample

	// Line is the decoded text line (empty on timeout).
	Line string

	// Err holds the swallowed decode error for KindMalformed.
	Err error
}

// OK reports whether the reading carries a sample.
func (r Reading) OK() bool { return r.Kind == KindSample }

// Port is the byte stream the source reads lines from.
// A Read that times out returns 0, nil.
type Port interface {
	io.ReadCloser
	ResetInputBuffer() error
}

// Opener opens a Port. ONE attempt per call.
type Opener func(cfg Config) (Port, error)
