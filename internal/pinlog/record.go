// internal/pinlog/record.go
package pinlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tamzrod/pinlogger/internal/sample"
)

// TimestampLayout is the persisted ts_utc format: UTC, microseconds, literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Record is one persisted line. Field order is the on-disk key order.
type Record struct {
	TS string `json:"ts_utc"`
	D4 *int   `json:"d4"`
	D5 *int   `json:"d5"`
	D6 *int   `json:"d6"`
	D7 *int   `json:"d7"`
}

// FormatTimestamp renders t in the persisted format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NewRecord projects a sample onto the tracked pins.
func NewRecord(s sample.Sample, ts time.Time) Record {
	return Record{
		TS: FormatTimestamp(ts),
		D4: s.Ref(sample.PinD4),
		D5: s.Ref(sample.PinD5),
		D6: s.Ref(sample.PinD6),
		D7: s.Ref(sample.PinD7),
	}
}

// MarshalLine returns the compact record followed by a newline.
func (r Record) MarshalLine() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("pinlog: encode record: %w", err)
	}
	return append(b, '\n'), nil
}
