// internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Power     PowerConfig     `yaml:"power"`
	Log       LogConfig       `yaml:"log"`
	Timing    TimingConfig    `yaml:"timing"`
	Sim       SimConfig       `yaml:"sim"`
}

// ---- TRANSPORT ----

type TransportKind string

const (
	TransportDS2482 TransportKind = "ds2482"
	TransportUART   TransportKind = "uart"
	TransportSim    TransportKind = "sim" // built-in simulated pack
)

type TransportConfig struct {
	Kind TransportKind `yaml:"kind"`

	// ds2482
	I2CBus       string `yaml:"i2c_bus"` // periph bus name, "" = first available
	I2CAddr      uint16 `yaml:"i2c_addr"`
	ActivePullup *bool  `yaml:"active_pullup"`

	// uart
	UARTPort      string `yaml:"uart_port"`
	UARTTimeoutMs int    `yaml:"uart_timeout_ms"`
}

// ---- POWER ----

type PowerConfig struct {
	EnablePin string `yaml:"enable_pin"` // periph pin name; "" = not wired
	ActiveLow bool   `yaml:"active_low"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"` // zerolog level name
	JSON  bool   `yaml:"json"`  // raw JSON lines instead of console output
}

// ---- TIMING ----

type TimingConfig struct {
	// Simulated skips real sleeps; only for the built-in simulator.
	Simulated bool `yaml:"simulated"`
}

// ---- SIM ----

// SimConfig shapes the built-in pack used by transport kind "sim".
type SimConfig struct {
	Kind      string `yaml:"kind"`       // standard | legacy | tencell
	ErrorCode uint8  `yaml:"error_code"` // start with this error nibble set
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// Load reads, validates and normalizes a YAML file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML, rejecting unknown keys.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)
	return &cfg, nil
}
