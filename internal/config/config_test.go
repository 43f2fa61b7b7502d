package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("transport:\n  kind: ds2482\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Transport.I2CAddr != 0x18 || cfg.Log.Level != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Transport.ActivePullup == nil || !*cfg.Transport.ActivePullup {
		t.Fatal("active_pullup should default to true")
	}
}

func TestParseFull(t *testing.T) {
	src := `
transport:
  kind: uart
  uart_port: /dev/ttyUSB0
  uart_timeout_ms: 250
power:
  enable_pin: GPIO17
  active_low: true
log:
  level: debug
`
	cfg, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Transport.Kind != TransportUART || cfg.Transport.UARTTimeoutMs != 250 {
		t.Fatalf("transport = %+v", cfg.Transport)
	}
	if cfg.Power.EnablePin != "GPIO17" || !cfg.Power.ActiveLow {
		t.Fatalf("power = %+v", cfg.Power)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // substring of the error; "" = ok
	}{
		{"empty", "", ""},
		{"sim", "transport: {kind: sim}", ""},
		{"bad kind", "transport: {kind: spi}", "transport.kind"},
		{"uart without port", "transport: {kind: uart}", "uart_port"},
		{"bad addr", "transport: {i2c_addr: 0x40}", "i2c_addr"},
		{"active low without pin", "power: {active_low: true}", "enable_pin"},
		{"bad sim kind", "sim: {kind: nicd}", "sim.kind"},
		{"sim error too wide", "sim: {error_code: 0x10}", "sim.error_code"},
		{"bad level", "log: {level: loud}", "log.level"},
		{"unknown key", "transport: {speed: 9}", "speed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSimImpliesSimulatedTiming(t *testing.T) {
	cfg, err := Parse([]byte("transport: {kind: sim}"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Timing.Simulated {
		t.Fatal("sim transport should use simulated timing")
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "makita.yaml")
	if err := os.WriteFile(p, []byte("log: {level: warn}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("level = %q", cfg.Log.Level)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file should fail")
	}
}
