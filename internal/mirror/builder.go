// internal/mirror/builder.go
package mirror

import (
	"errors"
	"time"

	"go.uber.org/zap"

	cfg "github.com/tamzrod/pinlogger/internal/config"
	mmodbus "github.com/tamzrod/pinlogger/internal/mirror/modbus"
)

// Build wires the Modbus client, the writer and the loop from config.
// The returned closer releases the TCP connection.
func Build(c *cfg.MirrorConfig, statusFn StatusFunc, logger *zap.Logger) (*Mirror, func() error, error) {
	if c == nil {
		return nil, nil, errors.New("mirror: config required")
	}
	if statusFn == nil {
		return nil, nil, errors.New("mirror: status func required")
	}

	cli, err := mmodbus.NewEndpointClient(mmodbus.Config{
		Endpoint: c.Endpoint,
		Timeout:  time.Duration(c.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	w, err := NewWriter(Plan{
		Endpoint:   c.Endpoint,
		UnitID:     c.UnitID,
		BaseSlot:   c.BaseSlot,
		DeviceName: c.DeviceName,
		StaleAfter: time.Duration(c.StaleAfterMs) * time.Millisecond,
	}, cli)
	if err != nil {
		_ = cli.Close()
		return nil, nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("endpoint", c.Endpoint))

	m := New(w, time.Duration(c.IntervalMs)*time.Millisecond, statusFn, logger)
	return m, cli.Close, nil
}
