// Package makitasim simulates a Makita pack at the byte level so the makita
// engine can run end to end without hardware.
//
// A Battery implements onewire.Transport and onewire.Power. Each reset starts
// a transaction; replies are computed when the host first reads, and the
// transaction's side effects (test mode, scratchpad, commit, error reset)
// apply when the next reset or power change ends it.
package makitasim

import (
	"time"

	"batterycode-go/drivers/makita"
)

// Kind selects the simulated controller.
type Kind uint8

const (
	Standard Kind = iota // 5-cell, standard chip
	Legacy               // 5-cell, F0513
	TenCell              // 10-cell, standard chip
)

// Options configure a Battery. Zero fields take defaults from New.
type Options struct {
	Kind   Kind
	ROM    makita.RomID
	Record *makita.Record // EEPROM contents; default is an unlocked 5 Ah pack
	Model  string         // reply to the model command; "" = default per kind

	CellsMilliVolt []uint16  // 5-cell kinds
	TenCellVolts   []float64 // TenCell
	CellTempK10    uint16    // 0.1 K
	MosfetTempK10  uint16
	LegacyTemp     uint16 // F0513 raw reading, /100 = °C

	HardwareHealth bool // answer the health probe

	// ResetClearsError makes DA 04 in test mode clear the error nibble.
	ResetClearsError bool
	// IgnoreWrites drops every commit.
	IgnoreWrites bool
	// Absent never answers a reset.
	Absent bool
	// Silent answers resets but every read returns 0xFF.
	Silent bool
}

// Tx is one logged transaction.
type Tx struct {
	Selector byte
	Cmd      []byte // bytes written after the selector
}

// Battery is the simulated pack.
type Battery struct {
	opts Options

	eeprom makita.Record
	live   makita.Record

	powered       bool
	testMode      bool
	tenCellMode   bool
	legacyTree    bool
	scratch       *makita.Record
	commitPending bool
	ledsOn        bool

	// current transaction
	open      bool
	written   []byte
	out       []byte
	responded bool

	Log      []Tx
	Resets   int
	PowerOns int
	Commits  int
}

// DefaultRecord returns an unlocked record: 5000 mAh, 42 cycles.
func DefaultRecord() makita.Record {
	var r makita.Record
	for i := range r {
		r[i] = byte(0x11 * (i % 7))
	}
	r[11] = makita.SwapNibbles(5)
	r[16] = 0x05
	r[20] = 0x00
	r[24] = makita.SwapNibbles(20)
	r[25] = makita.SwapNibbles(30)
	r.SetCycles(42)
	r.Recompute()
	return r
}

// New builds a powered Battery.
func New(o Options) *Battery {
	if o.ROM == (makita.RomID{}) {
		o.ROM = makita.RomID{0x17, 0x06, 0x15, 0x42, 0x13, 0x37, 0x00, 0xA5}
	}
	if o.Model == "" {
		switch o.Kind {
		case Standard:
			o.Model = "BL1850B"
		case TenCell:
			o.Model = "BL3626"
		}
	}
	if o.CellsMilliVolt == nil {
		o.CellsMilliVolt = []uint16{3900, 3905, 3910, 3895, 3900}
	}
	if o.TenCellVolts == nil {
		o.TenCellVolts = []float64{3.9, 3.9, 3.9, 3.9, 3.9, 3.9, 3.9, 3.9, 3.9, 3.8}
	}
	if o.CellTempK10 == 0 {
		o.CellTempK10 = 2982 // 25.05 °C
	}
	if o.MosfetTempK10 == 0 {
		o.MosfetTempK10 = 2992
	}
	if o.LegacyTemp == 0 {
		o.LegacyTemp = 2500
	}
	b := &Battery{opts: o, powered: true}
	if o.Record != nil {
		b.eeprom = *o.Record
	} else {
		b.eeprom = DefaultRecord()
	}
	b.live = b.eeprom
	return b
}

// EEPROM returns the non-volatile record.
func (b *Battery) EEPROM() makita.Record { return b.eeprom }

// Live returns the record the pack currently reports.
func (b *Battery) Live() makita.Record { return b.live }

// LEDs reports the LED state.
func (b *Battery) LEDs() bool { return b.ledsOn }

// TestMode reports whether test mode is active.
func (b *Battery) TestMode() bool { return b.testMode }

// Count returns the number of logged transactions whose command starts with
// prefix.
func (b *Battery) Count(prefix ...byte) int {
	n := 0
	for _, tx := range b.Log {
		if len(tx.Cmd) >= len(prefix) && string(tx.Cmd[:len(prefix)]) == string(prefix) {
			n++
		}
	}
	return n
}

// SetPower implements onewire.Power.
func (b *Battery) SetPower(on bool) error {
	b.finish()
	if on && !b.powered {
		b.PowerOns++
		b.live = b.eeprom
	}
	if !on {
		b.testMode = false
		b.tenCellMode = false
		b.legacyTree = false
		b.scratch = nil
		b.commitPending = false
	}
	b.powered = on
	return nil
}

// Reset implements onewire.Transport.
func (b *Battery) Reset() (bool, error) {
	b.finish()
	b.Resets++
	if b.opts.Absent || !b.powered {
		return false, nil
	}
	b.open = true
	return true, nil
}

func (b *Battery) WriteBit(bool) error     { return nil }
func (b *Battery) ReadBit() (bool, error) { return true, nil }

func (b *Battery) WriteByte(c byte) error {
	if !b.open {
		return nil
	}
	b.written = append(b.written, c)
	if len(b.written) == 1 && c == byte(makita.SelectReadROM) {
		b.out = append(b.out[:0], b.opts.ROM[:]...)
		return nil
	}
	// A write after the ROM phase ends it.
	if len(b.written) > 1 {
		b.out = b.out[:0]
	}
	return nil
}

func (b *Battery) ReadByte() (byte, error) {
	if !b.open || b.opts.Silent {
		return 0xFF, nil
	}
	if len(b.out) == 0 && !b.responded && len(b.written) > 0 {
		b.out = b.respond()
		b.responded = true
	}
	if len(b.out) == 0 {
		return 0xFF, nil
	}
	c := b.out[0]
	b.out = b.out[1:]
	return c, nil
}

func (b *Battery) WriteBytes(p []byte) error {
	for _, c := range p {
		if err := b.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}

func (b *Battery) ReadBytes(p []byte) error {
	for i := range p {
		c, err := b.ReadByte()
		if err != nil {
			return err
		}
		p[i] = c
	}
	return nil
}

// cmd splits the current transaction.
func (b *Battery) cmd() (sel byte, cmd []byte) {
	if len(b.written) == 0 {
		return 0, nil
	}
	return b.written[0], b.written[1:]
}

func (b *Battery) standardChip() bool { return b.opts.Kind != Legacy }

func fill(n int, v byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = v
	}
	return p
}

func hasPrefix(p []byte, prefix ...byte) bool {
	return len(p) >= len(prefix) && string(p[:len(prefix)]) == string(prefix)
}

func le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

// respond computes the reply bytes for the transaction so far.
func (b *Battery) respond() []byte {
	sel, c := b.cmd()
	switch sel {
	case byte(makita.SelectReadROM):
		return b.respondROM(c)
	case byte(makita.SelectSkipROM):
		return b.respondSkip(c)
	case 0xD4:
		if b.opts.Kind == TenCell && b.tenCellMode {
			var out []byte
			for _, v := range b.opts.TenCellVolts {
				out = append(out, le(uint16((5.5-v)*11916.0+0.5))...)
			}
			return out
		}
	default:
		if b.legacyTree && b.opts.Kind == Legacy {
			switch sel {
			case 0x31:
				return []byte{0x30, 0x14}
			case 0x32:
				return []byte{0x02, 0x01}
			}
		}
	}
	return nil
}

func (b *Battery) respondROM(c []byte) []byte {
	switch {
	case hasPrefix(c, 0xF0, 0x00):
		return append([]byte(nil), b.live[:]...)
	case hasPrefix(c, 0xD9, 0x96, 0xA5), hasPrefix(c, 0xD9, 0xFF, 0xFF):
		if b.standardChip() {
			return fill(29, 0x00)
		}
	case hasPrefix(c, 0xDA):
		if b.standardChip() {
			return fill(9, 0x00)
		}
	}
	return nil
}

func (b *Battery) respondSkip(c []byte) []byte {
	o := b.opts
	switch {
	case hasPrefix(c, 0xDC, 0x0C):
		if o.Model == "" {
			return nil
		}
		out := fill(10, 0x00)
		copy(out, o.Model)
		return out
	case hasPrefix(c, 0xD7, 0x00, 0x00, 0xFF):
		if o.Kind != Standard {
			return nil
		}
		out := fill(29, 0x00)
		out[0], out[1] = 0x1D, 0x00
		for i, mv := range o.CellsMilliVolt {
			copy(out[2+2*i:], le(mv))
		}
		return out
	case hasPrefix(c, 0xD7, 0x0E, 0x00, 0x02):
		if o.Kind == Standard {
			return append(le(o.CellTempK10), 0)
		}
	case hasPrefix(c, 0xD7, 0x10, 0x00, 0x02):
		if o.Kind == Standard {
			return append(le(o.MosfetTempK10), 0)
		}
	case hasPrefix(c, 0xD4, 0xBA, 0x00, 0x01):
		if o.HardwareHealth {
			return []byte{0x0A, 0x06}
		}
	case hasPrefix(c, 0xD4, 0x8D, 0x00, 0x07):
		if o.HardwareHealth {
			return []byte{0, 0, 0, 0, 0, 0x30, 0x10, 0}
		}
	case hasPrefix(c, 0xD4, 0x50, 0x01, 0x02):
		if o.HardwareHealth {
			return []byte{0x00, 0x0F, 0x00}
		}
	case len(c) == 1 && c[0] >= 0x31 && c[0] <= 0x35:
		if o.Kind == Legacy {
			return le(o.CellsMilliVolt[c[0]-0x31])
		}
	case len(c) == 1 && c[0] == 0x52:
		if o.Kind == Legacy {
			return le(o.LegacyTemp)
		}
	}
	return nil
}

// finish applies the side effects of the open transaction and logs it.
func (b *Battery) finish() {
	if !b.open {
		return
	}
	sel, c := b.cmd()
	// The legacy tree only lasts for the transaction after 0x99.
	b.legacyTree = false

	switch sel {
	case byte(makita.SelectReadROM):
		b.applyROM(c)
	case byte(makita.SelectSkipROM):
		switch {
		case hasPrefix(c, 0x99):
			b.legacyTree = true
		case hasPrefix(c, 0x10, 0x21):
			b.tenCellMode = b.opts.Kind == TenCell
		}
	}

	if len(b.written) > 0 {
		b.Log = append(b.Log, Tx{Selector: sel, Cmd: append([]byte(nil), c...)})
	}
	b.open = false
	b.written = b.written[:0]
	b.out = b.out[:0]
	b.responded = false
}

func (b *Battery) applyROM(c []byte) {
	if !b.standardChip() {
		return
	}
	switch {
	case hasPrefix(c, 0xD9, 0x96, 0xA5):
		b.testMode = true
	case hasPrefix(c, 0xD9, 0xFF, 0xFF):
		if b.testMode && b.commitPending && b.scratch != nil {
			b.eeprom = *b.scratch
		}
		b.testMode = false
		b.commitPending = false
	case hasPrefix(c, 0xDA, 0x04):
		if b.testMode && b.opts.ResetClearsError {
			b.live.ClearError()
			b.eeprom.ClearError()
		}
	case hasPrefix(c, 0xDA, 0x31):
		b.ledsOn = true
	case hasPrefix(c, 0xDA, 0x34):
		b.ledsOn = false
	case hasPrefix(c, 0x0F, 0x00) && len(c) == 2+makita.RecordLen:
		if b.testMode {
			var r makita.Record
			copy(r[:], c[2:])
			b.scratch = &r
		}
	case hasPrefix(c, 0x55, 0xA5):
		if b.testMode && b.scratch != nil && !b.opts.IgnoreWrites {
			b.commitPending = true
			b.Commits++
		}
	}
}

// Clock is a Sleeper that records requested delays instead of sleeping.
type Clock struct {
	Sleeps []time.Duration
	Total  time.Duration
}

func (c *Clock) Sleep(d time.Duration) {
	c.Sleeps = append(c.Sleeps, d)
	c.Total += d
}

// Count returns how many sleeps of exactly d were requested.
func (c *Clock) Count(d time.Duration) int {
	n := 0
	for _, s := range c.Sleeps {
		if s == d {
			n++
		}
	}
	return n
}
