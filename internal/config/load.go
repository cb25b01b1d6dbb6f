// internal/config/load.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is decoded.
const (
	EnvSerialPort = "PINLOGGER_SERIAL_PORT"
	EnvLogPath    = "PINLOGGER_LOG_PATH"
	EnvLogLevel   = "PINLOGGER_LOG_LEVEL"
	EnvHTTPListen = "PINLOGGER_HTTP_LISTEN"
)

// Load reads a YAML config file and applies environment overrides.
// It does not validate; call Validate then Normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	ApplyEnv(cfg, os.Getenv)
	return cfg, nil
}

// Parse decodes YAML. Unknown keys are rejected; an empty document is an
// empty config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overrides selected fields from the environment.
// getenv is os.Getenv outside tests.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil {
		return
	}
	if v := getenv(EnvSerialPort); v != "" {
		cfg.Serial.Port = v
	}
	if v := getenv(EnvLogPath); v != "" {
		cfg.Log.Path = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := getenv(EnvHTTPListen); v != "" {
		cfg.HTTP.Listen = v
	}
}
