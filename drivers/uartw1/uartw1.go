// Package uartw1 bit-bangs 1-Wire over a plain UART with TX and RX tied to the
// data line through a diode or open-drain buffer.
//
// A reset is one 0xF0 byte at 9600 Bd: a device pulling the line low during
// the stop bits corrupts the echo, which is the presence pulse. Every time slot
// is one byte at 115200 Bd: 0xFF writes a one (and samples), 0x00 writes a
// zero. Bytes go LSB first.
package uartw1

import (
	"errors"
	"fmt"
	"io"
	"time"

	"batterycode-go/drivers/onewire"

	"github.com/goburrow/serial"
)

const (
	resetBaud = 9600
	slotBaud  = 115200

	resetPulse = 0xF0
	slotOne    = 0xFF
	slotZero   = 0x00
)

var (
	ErrClosed = errors.New("uartw1: port closed")
	ErrEcho   = fmt.Errorf("uartw1: short echo: %w", onewire.ErrShortTransfer)
)

// Opener opens the port with the given settings. It defaults to serial.Open.
type Opener func(*serial.Config) (io.ReadWriteCloser, error)

// Config for a UART 1-Wire master.
type Config struct {
	Address string        // e.g. /dev/ttyUSB0
	Timeout time.Duration // per read; default 100 ms
}

// Master implements onewire.Transport on a serial port.
type Master struct {
	cfg  Config
	open Opener
	port io.ReadWriteCloser
	baud int
	buf  [8]byte
}

// New creates a Master. The port is opened lazily on first use.
func New(cfg Config, open Opener) *Master {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 100 * time.Millisecond
	}
	if open == nil {
		open = func(c *serial.Config) (io.ReadWriteCloser, error) {
			p, err := serial.Open(c)
			if err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	return &Master{cfg: cfg, open: open}
}

// Close releases the port.
func (m *Master) Close() error {
	if m.port == nil {
		return nil
	}
	err := m.port.Close()
	m.port = nil
	m.baud = 0
	return err
}

func (m *Master) setBaud(baud int) error {
	if m.port != nil && m.baud == baud {
		return nil
	}
	if m.port != nil {
		_ = m.port.Close()
		m.port = nil
	}
	p, err := m.open(&serial.Config{
		Address:  m.cfg.Address,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  m.cfg.Timeout,
	})
	if err != nil {
		return err
	}
	m.port, m.baud = p, baud
	return nil
}

// exchange writes p and reads the same number of echoed bytes back into p.
func (m *Master) exchange(p []byte) error {
	if m.port == nil {
		return ErrClosed
	}
	if _, err := m.port.Write(p); err != nil {
		return err
	}
	if _, err := io.ReadFull(m.port, p); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return ErrEcho
		}
		return err
	}
	return nil
}

func (m *Master) Reset() (bool, error) {
	if err := m.setBaud(resetBaud); err != nil {
		return false, err
	}
	m.buf[0] = resetPulse
	if err := m.exchange(m.buf[:1]); err != nil {
		return false, err
	}
	present := m.buf[0] != resetPulse
	if err := m.setBaud(slotBaud); err != nil {
		return false, err
	}
	return present, nil
}

func (m *Master) WriteBit(bit bool) error {
	_, err := m.slot(bit)
	return err
}

func (m *Master) ReadBit() (bool, error) {
	return m.slot(true)
}

func (m *Master) slot(bit bool) (bool, error) {
	if err := m.setBaud(slotBaud); err != nil {
		return false, err
	}
	m.buf[0] = slotZero
	if bit {
		m.buf[0] = slotOne
	}
	if err := m.exchange(m.buf[:1]); err != nil {
		return false, err
	}
	return m.buf[0] == slotOne, nil
}

func (m *Master) WriteByte(b byte) error {
	_, err := m.xferByte(b)
	return err
}

func (m *Master) ReadByte() (byte, error) {
	return m.xferByte(0xFF)
}

func (m *Master) xferByte(b byte) (byte, error) {
	if err := m.setBaud(slotBaud); err != nil {
		return 0, err
	}
	for i := 0; i < 8; i++ {
		if b&(1<<i) != 0 {
			m.buf[i] = slotOne
		} else {
			m.buf[i] = slotZero
		}
	}
	if err := m.exchange(m.buf[:8]); err != nil {
		return 0, err
	}
	var v byte
	for i := 0; i < 8; i++ {
		if m.buf[i] == slotOne {
			v |= 1 << i
		}
	}
	return v, nil
}

func (m *Master) WriteBytes(p []byte) error {
	for _, b := range p {
		if err := m.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (m *Master) ReadBytes(p []byte) error {
	for i := range p {
		b, err := m.ReadByte()
		if err != nil {
			return err
		}
		p[i] = b
	}
	return nil
}
