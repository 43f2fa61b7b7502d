// internal/config/normalize.go
package config

// Normalize fills defaults. Call it only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	t := &cfg.Transport
	if t.Kind == "" {
		t.Kind = TransportDS2482
	}
	if t.I2CAddr == 0 {
		t.I2CAddr = 0x18
	}
	if t.ActivePullup == nil {
		on := true
		t.ActivePullup = &on
	}
	if t.UARTTimeoutMs == 0 {
		t.UARTTimeoutMs = 100
	}
	if t.Kind == TransportSim {
		cfg.Timing.Simulated = true
	}
	if cfg.Sim.Kind == "" {
		cfg.Sim.Kind = "standard"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
