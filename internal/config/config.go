// internal/config/config.go
package config

type Config struct {
	Serial       SerialConfig  `yaml:"serial"`
	Log          LogConfig     `yaml:"log"`
	Service      ServiceConfig `yaml:"service"`
	Logging      LoggingConfig `yaml:"logging"`
	HTTP         HTTPConfig    `yaml:"http"`
	StatusMirror *MirrorConfig `yaml:"status_mirror"` // optional, opt-in
}

// ---- SERIAL ----

type SerialConfig struct {
	Port           string `yaml:"port"`
	Baud           int    `yaml:"baud"`
	TimeoutMs      int    `yaml:"timeout_ms"`
	StartupDelayMs *int   `yaml:"startup_delay_ms"` // nil => default; 0 disables

	// Discard bytes buffered before the device finished booting.
	ResetInputBuffer *bool `yaml:"reset_input_buffer"`
}

// ---- APPEND LOG ----

type LogConfig struct {
	Path       string `yaml:"path"`
	FlushEvery *int   `yaml:"flush_every"` // records per forced flush; <=0 => only on close
}

// ---- ACQUISITION SERVICE ----

type ServiceConfig struct {
	PollSleepMs   int  `yaml:"poll_sleep_ms"`
	StopTimeoutMs int  `yaml:"stop_timeout_ms"`
	PrintErrors   bool `yaml:"print_errors"`
	Headless      bool `yaml:"headless"` // no interactive menu
}

// ---- AMBIENT ----

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty => disabled
}

// ---- STATUS MIRROR (Modbus TCP) ----

type MirrorConfig struct {
	Endpoint     string `yaml:"endpoint"`
	UnitID       uint8  `yaml:"unit_id"`
	BaseSlot     uint16 `yaml:"base_slot"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	IntervalMs   int    `yaml:"interval_ms"`
	StaleAfterMs int    `yaml:"stale_after_ms"`
	DeviceName   string `yaml:"device_name"`
}
