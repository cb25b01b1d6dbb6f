// internal/service/builder.go
package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	cfg "github.com/tamzrod/pinlogger/internal/config"
	"github.com/tamzrod/pinlogger/internal/pinlog"
	"github.com/tamzrod/pinlogger/internal/source"
)

// Build constructs a stopped Service from a validated, normalized config.
func Build(c *cfg.Config, logger *zap.Logger) (*Service, error) {
	if c == nil {
		return nil, errors.New("service: config required")
	}
	return New(RuntimeConfig(c), logger)
}

// RuntimeConfig maps the file config onto the service's runtime config.
func RuntimeConfig(c *cfg.Config) Config {
	flushEvery := cfg.DefaultFlushEvery
	if c.Log.FlushEvery != nil {
		flushEvery = *c.Log.FlushEvery
	}

	return Config{
		Source: source.RuntimeConfig(c.Serial),
		Log: pinlog.Config{
			Path:       c.Log.Path,
			FlushEvery: flushEvery,
		},
		PollSleep:   time.Duration(c.Service.PollSleepMs) * time.Millisecond,
		StopTimeout: time.Duration(c.Service.StopTimeoutMs) * time.Millisecond,
		EchoErrors:  c.Service.PrintErrors,
	}
}
