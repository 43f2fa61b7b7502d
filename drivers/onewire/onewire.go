// Package onewire defines the capabilities a single-wire battery protocol
// engine consumes: a bit/byte-level bus Transport, a Power side-channel that
// switches the pack's enable line, and a Sleeper for protocol delays.
//
// Adapters (DS2482 bridge, UART bit-slot driver, simulators) implement
// Transport; nothing above this package touches hardware directly.
package onewire

import (
	"errors"
	"time"
)

// Transport is a half-duplex single-wire bus.
//
// Reset issues the reset pulse and reports whether a device answered with a
// presence pulse. A false result with a nil error means "nobody there"; a
// non-nil error means the adapter itself failed.
type Transport interface {
	Reset() (present bool, err error)
	WriteBit(bit bool) error
	ReadBit() (bool, error)
	WriteByte(b byte) error
	ReadByte() (byte, error)
	WriteBytes(p []byte) error
	ReadBytes(p []byte) error
}

// Power switches the battery enable line. Implementations are stateful:
// callers assume the line stays at the last value set.
type Power interface {
	SetPower(on bool) error
}

// Sleeper blocks for at least d.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper waits on the wall clock.
type RealSleeper struct{}

func (RealSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// NopPower is used when no enable line is wired. It remembers the last value.
type NopPower struct{ On bool }

func (p *NopPower) SetPower(on bool) error {
	p.On = on
	return nil
}

var ErrShortTransfer = errors.New("onewire: short transfer")
