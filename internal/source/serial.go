// internal/source/serial.go
package source

import (
	"go.bug.st/serial"
)

// OpenSerial opens a real serial device as 8N1 with the configured read timeout.
func OpenSerial(cfg Config) (Port, error) {
	p, err := serial.Open(cfg.Device, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}

	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = p.Close()
		return nil, err
	}

	return p, nil
}
