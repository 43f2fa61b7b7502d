// internal/platform/platform.go
//
// Package platform turns a config.Config into the engine's collaborators:
// a single-wire Transport, the pack power line and a Sleeper.
package platform

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"batterycode-go/drivers/ds2482"
	"batterycode-go/drivers/makita"
	"batterycode-go/drivers/makita/makitasim"
	"batterycode-go/drivers/onewire"
	"batterycode-go/drivers/uartw1"
	"batterycode-go/internal/config"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	ErrNoPin     = errors.New("platform: power pin not found")
	ErrTransport = errors.New("platform: unknown transport")
)

// Hardware is an opened set of collaborators. Close releases them.
type Hardware struct {
	Bus     onewire.Transport
	Power   onewire.Power
	Sleeper onewire.Sleeper

	// Sim is set for transport kind "sim".
	Sim *makitasim.Battery

	closers []io.Closer
}

// Close releases buses and ports in reverse open order.
func (h *Hardware) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// Device builds the engine on top of h.
func (h *Hardware) Device(log *zerolog.Logger) *makita.Device {
	return makita.New(h.Bus, h.Power, makita.Config{Logger: log, Sleeper: h.Sleeper})
}

var hostOnce struct {
	sync.Once
	err error
}

// initHost registers periph host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		_, hostOnce.err = host.Init()
	})
	return hostOnce.err
}

// Open builds Hardware for cfg. cfg must be normalized.
func Open(cfg *config.Config, log zerolog.Logger) (*Hardware, error) {
	h := &Hardware{Sleeper: onewire.RealSleeper{}}
	if cfg.Timing.Simulated {
		h.Sleeper = nopSleeper{}
	}

	t := cfg.Transport
	switch t.Kind {
	case config.TransportSim:
		h.Sim = NewSim(cfg.Sim)
		h.Bus, h.Power = h.Sim, h.Sim
		log.Info().Str("kind", cfg.Sim.Kind).Msg("simulated pack")
		return h, nil

	case config.TransportDS2482:
		if err := initHost(); err != nil {
			return nil, fmt.Errorf("periph host: %w", err)
		}
		bus, err := i2creg.Open(t.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("open i2c %q: %w", t.I2CBus, err)
		}
		h.closers = append(h.closers, bus)
		dev := ds2482.New(bus)
		if err := dev.Configure(ds2482.Config{Address: t.I2CAddr, ActivePullup: *t.ActivePullup}); err != nil {
			_ = h.Close()
			return nil, fmt.Errorf("ds2482 at %#x: %w", t.I2CAddr, err)
		}
		h.Bus = dev
		log.Info().Str("bus", bus.String()).Uint16("addr", t.I2CAddr).Msg("ds2482 ready")

	case config.TransportUART:
		m := uartw1.New(uartw1.Config{
			Address: t.UARTPort,
			Timeout: time.Duration(t.UARTTimeoutMs) * time.Millisecond,
		}, nil)
		h.closers = append(h.closers, m)
		h.Bus = m
		log.Info().Str("port", t.UARTPort).Msg("uart 1-wire master")

	default:
		return nil, fmt.Errorf("%w: %q", ErrTransport, t.Kind)
	}

	pw, err := openPower(cfg.Power)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	if pw == nil {
		log.Warn().Msg("no power pin configured; recovery power cycles are no-ops")
		h.Power = &onewire.NopPower{On: true}
	} else {
		h.Power = pw
	}
	return h, nil
}

// ---- power line ----

// PinPower drives the pack enable line through a periph GPIO.
type PinPower struct {
	out       func(gpio.Level) error
	activeLow bool
}

// NewPinPower wraps an output function; activeLow inverts the level.
func NewPinPower(out func(gpio.Level) error, activeLow bool) *PinPower {
	return &PinPower{out: out, activeLow: activeLow}
}

func (p *PinPower) SetPower(on bool) error {
	lvl := gpio.Level(on != p.activeLow)
	return p.out(lvl)
}

func openPower(pc config.PowerConfig) (onewire.Power, error) {
	if pc.EnablePin == "" {
		return nil, nil
	}
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("periph host: %w", err)
	}
	pin := gpioreg.ByName(pc.EnablePin)
	if pin == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoPin, pc.EnablePin)
	}
	p := NewPinPower(pin.Out, pc.ActiveLow)
	if err := p.SetPower(true); err != nil {
		return nil, fmt.Errorf("power pin %s: %w", pin.Name(), err)
	}
	return p, nil
}

// ---- simulation ----

type nopSleeper struct{}

func (nopSleeper) Sleep(time.Duration) {}

// NewSim builds the simulated pack described by sc.
func NewSim(sc config.SimConfig) *makitasim.Battery {
	o := makitasim.Options{ResetClearsError: true}
	switch sc.Kind {
	case "legacy":
		o.Kind = makitasim.Legacy
	case "tencell":
		o.Kind = makitasim.TenCell
	default:
		o.Kind = makitasim.Standard
	}
	if sc.ErrorCode != 0 {
		rec := makitasim.DefaultRecord()
		rec.SetErrorCode(sc.ErrorCode)
		rec.Recompute()
		o.Record = &rec
	}
	return makitasim.New(o)
}
