// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Validate checks configuration correctness.
// It performs declarative validation only and never mutates cfg.
func Validate(cfg *Config) error {
	t := cfg.Transport
	switch t.Kind {
	case "", TransportDS2482, TransportUART, TransportSim:
	default:
		return fmt.Errorf("transport.kind %q: want ds2482, uart or sim", t.Kind)
	}

	if t.Kind == TransportUART && t.UARTPort == "" {
		return fmt.Errorf("transport.uart_port is required for kind uart")
	}
	if t.I2CAddr != 0 && (t.I2CAddr < 0x18 || t.I2CAddr > 0x1B) {
		return fmt.Errorf("transport.i2c_addr %#x: DS2482-100 answers on 0x18..0x1B", t.I2CAddr)
	}
	if t.UARTTimeoutMs < 0 {
		return fmt.Errorf("transport.uart_timeout_ms must not be negative")
	}

	if cfg.Power.ActiveLow && cfg.Power.EnablePin == "" {
		return fmt.Errorf("power.active_low set without power.enable_pin")
	}

	switch cfg.Sim.Kind {
	case "", "standard", "legacy", "tencell":
	default:
		return fmt.Errorf("sim.kind %q: want standard, legacy or tencell", cfg.Sim.Kind)
	}
	if cfg.Sim.ErrorCode > 0x0F {
		return fmt.Errorf("sim.error_code %#x does not fit a nibble", cfg.Sim.ErrorCode)
	}

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}
