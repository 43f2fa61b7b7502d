// Package makita talks to the controller inside Makita LXT battery packs over
// their single-wire bus.
//
// The Device type holds the bus, the power side-channel and a delay source and
// implements the command dispatcher, record reads and writes, decoders and the
// unlock sequence. Session adds the snapshot cache and the saved-record slot
// used by the CLI.
//
//	dev := makita.New(bus, power, makita.DefaultConfig())
//	s := makita.NewSession(dev)
//	if err := s.ReadAllBatteryData(); err != nil { ... }
//	data := s.Data()
//
// Every operation blocks for the full protocol delays. Nothing is safe for
// concurrent use.
package makita

import (
	"time"

	"github.com/rs/zerolog"

	"batterycode-go/drivers/onewire"
)

// Config for a Device. The zero value is usable.
type Config struct {
	// Logger receives per-command debug output and phase progress. Nil means
	// no logging.
	Logger *zerolog.Logger
	// Sleeper implements every protocol delay. Nil means time.Sleep.
	Sleeper onewire.Sleeper
}

// DefaultConfig returns a Config with real-time delays and no logging.
func DefaultConfig() Config {
	return Config{Sleeper: onewire.RealSleeper{}}
}

// Device is one battery pack reachable over a Transport.
type Device struct {
	bus   onewire.Transport
	power onewire.Power
	sleep onewire.Sleeper
	log   zerolog.Logger
}

// New constructs a Device. power may be nil when the enable line is not wired;
// recovery power cycles then only wait.
func New(bus onewire.Transport, power onewire.Power, cfg Config) *Device {
	if bus == nil {
		panic("makita: nil transport")
	}
	if power == nil {
		power = &onewire.NopPower{On: true}
	}
	sl := cfg.Sleeper
	if sl == nil {
		sl = onewire.RealSleeper{}
	}
	lg := zerolog.Nop()
	if cfg.Logger != nil {
		lg = cfg.Logger.With().Str("drv", "makita").Logger()
	}
	return &Device{bus: bus, power: power, sleep: sl, log: lg}
}

func (d *Device) wait(t time.Duration) { d.sleep.Sleep(t) }

// setPower drives the enable line. Failures are logged, not returned: a stuck
// enable line shows up as a missing presence pulse on the next reset.
func (d *Device) setPower(on bool) {
	if err := d.power.SetPower(on); err != nil {
		d.log.Warn().Err(err).Bool("on", on).Msg("set power failed")
	}
}

// powerCycleFor switches the pack off for off, then on and waits on.
func (d *Device) powerCycleFor(off, on time.Duration) {
	d.log.Debug().Dur("off", off).Dur("on", on).Msg("power cycle")
	d.setPower(false)
	d.wait(off)
	d.setPower(true)
	d.wait(on)
}

// powerCycle is the short recovery cycle that re-arms the bus interface.
func (d *Device) powerCycle() { d.powerCycleFor(powerOffDelay, powerOnDelay) }
