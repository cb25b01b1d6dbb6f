// internal/source/builder.go
package source

import (
	"time"

	cfg "github.com/tamzrod/pinlogger/internal/config"
)

// RuntimeConfig maps the file config onto the source's runtime config.
func RuntimeConfig(c cfg.SerialConfig) Config {
	reset := true
	if c.ResetInputBuffer != nil {
		reset = *c.ResetInputBuffer
	}

	delayMs := cfg.DefaultStartupDelayMs
	if c.StartupDelayMs != nil {
		delayMs = *c.StartupDelayMs
	}

	return Config{
		Device:       c.Port,
		BaudRate:     c.Baud,
		ReadTimeout:  time.Duration(c.TimeoutMs) * time.Millisecond,
		StartupDelay: time.Duration(delayMs) * time.Millisecond,
		ResetInput:   reset,
	}
}
