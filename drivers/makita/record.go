package makita

import (
	"encoding/hex"
	"fmt"

	"batterycode-go/drivers/onewire"
)

// RomID is the 8-byte device id returned ahead of ROM-addressed replies.
// Bytes 0..2 carry the manufacturing date as year-2000, month, day.
type RomID [8]byte

func (r RomID) String() string { return hex.EncodeToString(r[:]) }

// ManufactureDate returns day, month and four-digit year.
func (r RomID) ManufactureDate() (day, month, year int) {
	return int(r[2]), int(r[1]), 2000 + int(r[0])
}

// DateString formats the manufacturing date as D-MM-20YY.
func (r RomID) DateString() string {
	day, month, year := r.ManufactureDate()
	return fmt.Sprintf("%d-%02d-%d", day, month, year)
}

// CRCValid reports whether byte 7 is the Dallas CRC8 of bytes 0..6. Makita
// controllers do not always fill it in, so a mismatch is informational.
func (r RomID) CRCValid() bool { return onewire.CRC8(r[:7]) == r[7] }

// Fingerprint is a CRC-16/MAXIM over the record, handy for telling saved
// records apart.
func (r *Record) Fingerprint() uint16 { return onewire.CRC16(r[:]) }

// Record is the 32-byte status record.
//
//	byte 11      type (nibble-swapped)
//	byte 16      capacity code
//	byte 20      high: checksum 1, low: error code
//	byte 21      high: checksum 3, low: checksum 2
//	byte 24/25   overdischarge / overload codes (nibble-swapped)
//	byte 26/27   cycle count, 12 bits, nibble-swapped
//	byte 31      high: checksum 5, low: checksum 4
type Record [RecordLen]byte

// Field offsets.
const (
	offType          = 11
	offCapacity      = 16
	offErrorChk1     = 20
	offChk23         = 21
	offOverdischarge = 24
	offOverload      = 25
	offCyclesHi      = 26
	offCyclesLo      = 27
	offChk45         = 31
)

// Error codes held in the low nibble of byte 20.
const (
	ErrCodeOK         byte = 0x0
	ErrCodeOverloaded byte = 0x1
	ErrCodeWarning    byte = 0x5
	ErrCodeDead       byte = 0xF
)

// MaxCycles is the largest value the 12-bit cycle counter holds.
const MaxCycles = 0x0FFF

func (r *Record) ErrorCode() byte { return r[offErrorChk1] & 0x0F }

func (r *Record) SetErrorCode(c byte) {
	r[offErrorChk1] = r[offErrorChk1]&0xF0 | c&0x0F
}

// ClearError zeroes the error nibble and recomputes the checksums.
func (r *Record) ClearError() {
	r.SetErrorCode(ErrCodeOK)
	r.Recompute()
}

// Cycles returns the 12-bit charge cycle counter.
func (r *Record) Cycles() uint16 {
	v := uint16(SwapNibbles(r[offCyclesHi]))<<8 | uint16(SwapNibbles(r[offCyclesLo]))
	return v & MaxCycles
}

// SetCycles stores n (masked to 12 bits). Checksums are not touched.
func (r *Record) SetCycles(n uint16) {
	n &= MaxCycles
	r[offCyclesHi] = SwapNibbles(byte(n >> 8))
	r[offCyclesLo] = SwapNibbles(byte(n))
}

func (r *Record) Type() byte             { return SwapNibbles(r[offType]) }
func (r *Record) CapacityCode() byte     { return r[offCapacity] }
func (r *Record) OverdischargeRaw() byte { return SwapNibbles(r[offOverdischarge]) }
func (r *Record) OverloadRaw() byte      { return SwapNibbles(r[offOverload]) }

// Locked reports whether a charger would refuse the pack: the error code is
// neither OK nor Warning, or the checksums do not verify.
func (r *Record) Locked() bool {
	switch r.ErrorCode() {
	case ErrCodeOK, ErrCodeWarning:
		return !r.Verify()
	default:
		return true
	}
}

// ErrorLabel names an error code.
func ErrorLabel(c byte) string {
	switch c {
	case ErrCodeOK:
		return "OK"
	case ErrCodeOverloaded:
		return "Overloaded"
	case ErrCodeWarning:
		return "Warning"
	default:
		return "ERROR"
	}
}

// Diff is one byte that differs between two records.
type Diff struct {
	Index int
	Old   byte
	New   byte
	Field string
}

// FieldName labels a record offset, or "" when the byte has no known meaning.
func FieldName(i int) string {
	switch i {
	case offType:
		return "type"
	case offCapacity:
		return "capacity"
	case offErrorChk1:
		return "error/chk1"
	case offChk23:
		return "chk2/chk3"
	case offOverdischarge:
		return "overdischarge"
	case offOverload:
		return "overload"
	case offCyclesHi, offCyclesLo:
		return "cycles"
	case offChk45:
		return "chk4/chk5"
	}
	return ""
}

// DiffRecords lists every differing byte from old to cur.
func DiffRecords(old, cur *Record) []Diff {
	var out []Diff
	for i := range old {
		if old[i] != cur[i] {
			out = append(out, Diff{Index: i, Old: old[i], New: cur[i], Field: FieldName(i)})
		}
	}
	return out
}
