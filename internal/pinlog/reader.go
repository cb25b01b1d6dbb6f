// internal/pinlog/reader.go
package pinlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/tamzrod/pinlogger/internal/sample"
)

// Entry is one record read back from the log.
type Entry struct {
	At time.Time `json:"ts_utc"`
	D4 *int      `json:"d4"`
	D5 *int      `json:"d5"`
	D6 *int      `json:"d6"`
	D7 *int      `json:"d7"`
}

// Sample rebuilds the pin sample; absent pins stay absent.
func (e Entry) Sample() sample.Sample {
	m := make(map[int]int, len(sample.TrackedPins))
	for i, p := range []*int{e.D4, e.D5, e.D6, e.D7} {
		if p != nil {
			m[sample.TrackedPins[i]] = *p
		}
	}
	return sample.New(m)
}

// ParseRecord decodes one persisted line.
func ParseRecord(line []byte) (Entry, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return Entry{}, fmt.Errorf("pinlog: decode record: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, r.TS)
	if err != nil {
		return Entry{}, fmt.Errorf("pinlog: ts_utc %q: %w", r.TS, err)
	}

	return Entry{At: at.UTC(), D4: r.D4, D5: r.D5, D6: r.D6, D7: r.D7}, nil
}

// ReadRecords reads every well-formed record at or after since (zero keeps
// all), sorted by timestamp. Blank and malformed lines are skipped.
func ReadRecords(r io.Reader, since time.Time) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []Entry
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		e, err := ParseRecord(line)
		if err != nil {
			continue
		}
		if !since.IsZero() && e.At.Before(since) {
			continue
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("pinlog: scan: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// ReadFile is ReadRecords over a file.
func ReadFile(path string, since time.Time) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pinlog: open %s: %w", path, err)
	}
	defer f.Close()

	return ReadRecords(f, since)
}

// Downsample keeps at most maxPoints evenly spaced entries.
// The last entry is always kept. maxPoints <= 0 returns entries unchanged.
func Downsample(entries []Entry, maxPoints int) []Entry {
	n := len(entries)
	if maxPoints <= 0 || n <= maxPoints {
		return entries
	}

	step := float64(n) / float64(maxPoints)
	out := make([]Entry, 0, maxPoints)
	for i := 0; i < maxPoints; i++ {
		out = append(out, entries[int(float64(i)*step)])
	}
	out[len(out)-1] = entries[n-1]
	return out
}

// FileStore reads records back from one log file.
type FileStore struct {
	Path string
}

// ReadSince returns the records at or after since.
func (s FileStore) ReadSince(since time.Time) ([]Entry, error) {
	return ReadFile(s.Path, since)
}
