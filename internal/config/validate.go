// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"
)

// SupportedBaudRates lists the rates accepted in serial.baud.
var SupportedBaudRates = []int{
	300, 600, 1200, 2400, 4800, 9600, 19200, 38400,
	57600, 115200, 230400, 460800, 500000, 921600,
}

// mirrorBlockSlots is the status block size in registers.
const mirrorBlockSlots = 20

var logLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	s := cfg.Serial
	if strings.TrimSpace(s.Port) == "" {
		return errors.New("serial.port is required")
	}
	if s.Baud != 0 && !supportedBaud(s.Baud) {
		return fmt.Errorf("serial.baud %d is not a supported rate", s.Baud)
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("serial.timeout_ms must be >= 0, got %d", s.TimeoutMs)
	}
	if s.StartupDelayMs != nil && *s.StartupDelayMs < 0 {
		return fmt.Errorf("serial.startup_delay_ms must be >= 0, got %d", *s.StartupDelayMs)
	}

	// ------------------------------------------------------------
	// APPEND LOG
	// ------------------------------------------------------------

	if strings.ContainsRune(cfg.Log.Path, 0) {
		return errors.New("log.path contains a NUL byte")
	}
	if cfg.Log.Path != "" && strings.HasSuffix(cfg.Log.Path, "/") {
		return fmt.Errorf("log.path %q names a directory", cfg.Log.Path)
	}

	// ------------------------------------------------------------
	// SERVICE
	// ------------------------------------------------------------

	if cfg.Service.PollSleepMs < 0 {
		return fmt.Errorf("service.poll_sleep_ms must be >= 0, got %d", cfg.Service.PollSleepMs)
	}
	if cfg.Service.StopTimeoutMs < 0 {
		return fmt.Errorf("service.stop_timeout_ms must be >= 0, got %d", cfg.Service.StopTimeoutMs)
	}

	if !logLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level)
	}

	// ------------------------------------------------------------
	// STATUS MIRROR (OPT-IN)
	// ------------------------------------------------------------

	m := cfg.StatusMirror
	if m == nil {
		return nil
	}

	if m.Endpoint == "" {
		return errors.New("status_mirror.endpoint is required when status_mirror is set")
	}
	if m.TimeoutMs < 0 || m.IntervalMs < 0 || m.StaleAfterMs < 0 {
		return errors.New("status_mirror timings must be >= 0")
	}
	// the whole block must fit the 16-bit register space
	if (int(m.BaseSlot)+1)*mirrorBlockSlots > 65536 {
		return fmt.Errorf("status_mirror.base_slot %d is out of range", m.BaseSlot)
	}

	// device_name sanity (ASCII only)
	for i := 0; i < len(m.DeviceName); i++ {
		if m.DeviceName[i] > 0x7F {
			return errors.New("status_mirror.device_name must contain ASCII characters only")
		}
	}

	return nil
}

func supportedBaud(b int) bool {
	for _, r := range SupportedBaudRates {
		if r == b {
			return true
		}
	}
	return false
}
