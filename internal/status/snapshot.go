// internal/status/snapshot.go
package status

// PinStates holds the most recent state of each tracked pin.
// nil means the pin was absent from the last accepted sample.
type PinStates struct {
	D4 *int `json:"d4"`
	D5 *int `json:"d5"`
	D6 *int `json:"d6"`
	D7 *int `json:"d7"`
}

// Snapshot is a point-in-time copy of the acquisition service state.
// Every field reflects the same instant; it holds no references into the
// service's live state.
type Snapshot struct {
	RunID   string `json:"run_id,omitempty"`
	Running bool   `json:"running"`

	Port    string `json:"port"`
	Baud    int    `json:"baud"`
	LogPath string `json:"log_path"`

	UptimeSeconds        *float64 `json:"uptime_s"`
	LastSampleAgeSeconds *float64 `json:"last_sample_age_s"`

	SamplesWritten uint64 `json:"samples_written"`
	BadReads       uint64 `json:"bad_reads"`
	WriteErrors    uint64 `json:"write_errors"`

	LastError string `json:"last_error,omitempty"`

	Pins PinStates `json:"pins"`
}

// Started reports whether the service was ever started.
func (s Snapshot) Started() bool {
	return s.UptimeSeconds != nil
}
