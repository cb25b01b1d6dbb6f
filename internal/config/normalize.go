// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize.
const (
	DefaultBaud           = 115200
	DefaultTimeoutMs      = 1000
	DefaultStartupDelayMs = 2000
	DefaultLogPath        = "pin_samples.ndjson"
	DefaultFlushEvery     = 1
	DefaultStopTimeoutMs  = 2000
	DefaultLogLevel       = "info"

	DefaultMirrorTimeoutMs  = 1000
	DefaultMirrorIntervalMs = 1000
	DefaultMirrorStaleMs    = 5000

	// DeviceNameMaxChars matches the register block name capacity.
	DeviceNameMaxChars = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	s := &cfg.Serial
	s.Port = strings.TrimSpace(s.Port)
	if s.Baud == 0 {
		s.Baud = DefaultBaud
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = DefaultTimeoutMs
	}
	if s.StartupDelayMs == nil {
		v := DefaultStartupDelayMs
		s.StartupDelayMs = &v
	}
	if s.ResetInputBuffer == nil {
		v := true
		s.ResetInputBuffer = &v
	}

	if cfg.Log.Path == "" {
		cfg.Log.Path = DefaultLogPath
	}
	if cfg.Log.FlushEvery == nil {
		v := DefaultFlushEvery
		cfg.Log.FlushEvery = &v
	}

	if cfg.Service.StopTimeoutMs == 0 {
		cfg.Service.StopTimeoutMs = DefaultStopTimeoutMs
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}

	// ------------------------------------------------------------
	// STATUS MIRROR NORMALIZATION (OPT-IN)
	// ------------------------------------------------------------

	m := cfg.StatusMirror
	if m == nil {
		return
	}
	if m.TimeoutMs == 0 {
		m.TimeoutMs = DefaultMirrorTimeoutMs
	}
	if m.IntervalMs == 0 {
		m.IntervalMs = DefaultMirrorIntervalMs
	}
	if m.StaleAfterMs == 0 {
		m.StaleAfterMs = DefaultMirrorStaleMs
	}

	// ASCII already validated; truncate to register capacity.
	if len(m.DeviceName) > DeviceNameMaxChars {
		m.DeviceName = m.DeviceName[:DeviceNameMaxChars]
	}
}
