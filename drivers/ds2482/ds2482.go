// Package ds2482 drives a DS2482-100 I²C to 1-Wire bridge and exposes it as an
// onewire.Transport.
//
//	d := ds2482.New(i2c)
//	err := d.Configure(ds2482.Config{ActivePullup: true})
//	present, err := d.Reset()
//
// Every 1-Wire primitive is a single bridge command followed by status polling
// until the 1WB (busy) bit clears. The read pointer is left on the status
// register after each command, so a bare read returns status.
package ds2482

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Default I²C address (AD1=AD0=0).
const Address = 0x18

// Bridge commands.
const (
	cmdDeviceReset = 0xF0
	cmdSetReadPtr  = 0xE1
	cmdWriteConfig = 0xD2
	cmd1WReset     = 0xB4
	cmd1WSingleBit = 0x87
	cmd1WWriteByte = 0xA5
	cmd1WReadByte  = 0x96
)

// Read pointer codes.
const (
	ptrStatus = 0xF0
	ptrData   = 0xE1
)

// Status register bits.
const (
	status1WB = 0x01 // 1-Wire busy
	statusPPD = 0x02 // presence pulse detected
	statusSD  = 0x04 // short detected
	statusRST = 0x10 // device reset since last config write
	statusSBR = 0x20 // single bit result
)

// Configuration bits (low nibble; the high nibble carries the complement).
const (
	cfgAPU = 0x01 // active pullup
)

var (
	ErrTimeout = errors.New("ds2482: 1-Wire busy timeout")
	ErrShort   = errors.New("ds2482: 1-Wire short detected")
	ErrReset   = errors.New("ds2482: device reset failed")
	ErrConfig  = errors.New("ds2482: config readback mismatch")
)

// Config controls bridge behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x18 if zero.
	Address uint16
	// ActivePullup enables APU, recommended for anything but the shortest lines.
	ActivePullup bool
	// PollLimit bounds status polls per command. Default 64: at 100 kHz one
	// poll takes ~200 µs, well over a reset slot (~1.2 ms).
	PollLimit int
}

// Device is one bridge on an I²C bus.
type Device struct {
	bus     drivers.I2C
	Address uint16

	pollLimit int
	w         [2]byte
	r         [1]byte
}

// New creates a Device. It does not touch the bus.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:       bus,
		Address:   Address,
		pollLimit: 64,
	}
}

// Configure resets the bridge and writes the configuration register.
func (d *Device) Configure(cfgs ...Config) error {
	if len(cfgs) > 0 {
		c := cfgs[0]
		if c.Address != 0 {
			d.Address = c.Address
		}
		if c.PollLimit > 0 {
			d.pollLimit = c.PollLimit
		}
	}

	st, err := d.cmd(cmdDeviceReset)
	if err != nil {
		return err
	}
	if st&statusRST == 0 {
		return ErrReset
	}

	var cfg byte
	if len(cfgs) > 0 && cfgs[0].ActivePullup {
		cfg |= cfgAPU
	}
	if err := d.bus.Tx(d.Address, []byte{cmdWriteConfig, cfg | (^cfg << 4)}, d.r[:]); err != nil {
		return err
	}
	// A config write returns the config register (high nibble reads as zero).
	if d.r[0] != cfg {
		return ErrConfig
	}
	return nil
}

// Reset issues a 1-Wire reset and reports the presence pulse.
func (d *Device) Reset() (bool, error) {
	st, err := d.run(cmd1WReset)
	if err != nil {
		return false, err
	}
	if st&statusSD != 0 {
		return false, ErrShort
	}
	return st&statusPPD != 0, nil
}

// WriteBit generates a single write time slot.
func (d *Device) WriteBit(bit bool) error {
	_, err := d.runArg(cmd1WSingleBit, bitArg(bit))
	return err
}

// ReadBit generates a write-one slot and samples the line.
func (d *Device) ReadBit() (bool, error) {
	st, err := d.runArg(cmd1WSingleBit, bitArg(true))
	if err != nil {
		return false, err
	}
	return st&statusSBR != 0, nil
}

func (d *Device) WriteByte(b byte) error {
	_, err := d.runArg(cmd1WWriteByte, b)
	return err
}

func (d *Device) ReadByte() (byte, error) {
	if _, err := d.run(cmd1WReadByte); err != nil {
		return 0, err
	}
	d.w[0], d.w[1] = cmdSetReadPtr, ptrData
	if err := d.bus.Tx(d.Address, d.w[:2], d.r[:]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) WriteBytes(p []byte) error {
	for _, b := range p {
		if err := d.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) ReadBytes(p []byte) error {
	for i := range p {
		b, err := d.ReadByte()
		if err != nil {
			return err
		}
		p[i] = b
	}
	return nil
}

// Status reads the status register without issuing a 1-Wire command.
func (d *Device) Status() (byte, error) {
	d.w[0], d.w[1] = cmdSetReadPtr, ptrStatus
	if err := d.bus.Tx(d.Address, d.w[:2], d.r[:]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func bitArg(bit bool) byte {
	if bit {
		return 0x80
	}
	return 0x00
}

// cmd writes a one-byte command and returns the status byte that follows.
func (d *Device) cmd(c byte) (byte, error) {
	d.w[0] = c
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) run(c byte) (byte, error) {
	d.w[0] = c
	if err := d.bus.Tx(d.Address, d.w[:1], nil); err != nil {
		return 0, err
	}
	return d.wait()
}

func (d *Device) runArg(c, arg byte) (byte, error) {
	d.w[0], d.w[1] = c, arg
	if err := d.bus.Tx(d.Address, d.w[:2], nil); err != nil {
		return 0, err
	}
	return d.wait()
}

// wait polls status until the bridge finishes the 1-Wire activity.
func (d *Device) wait() (byte, error) {
	for i := 0; i < d.pollLimit; i++ {
		if err := d.bus.Tx(d.Address, nil, d.r[:]); err != nil {
			return 0, err
		}
		if d.r[0]&status1WB == 0 {
			return d.r[0], nil
		}
	}
	return 0, ErrTimeout
}
