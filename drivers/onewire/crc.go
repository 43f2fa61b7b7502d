package onewire

import (
	"github.com/sigurn/crc16"
	periphow "periph.io/x/conn/v3/onewire"
)

var crc16Table = crc16.MakeTable(crc16.CRC16_MAXIM)

// CRC8 is the Dallas/Maxim 8-bit CRC used over ROM codes and scratchpads.
func CRC8(p []byte) byte { return periphow.CalcCRC(p) }

// CRC16 is CRC-16/MAXIM. The final inversion is part of the algorithm, so the
// result matches the two bytes a device sends after memory-function commands.
func CRC16(p []byte) uint16 { return crc16.Checksum(p, crc16Table) }

// CheckCRC16 verifies p against the little-endian CRC the device sent.
func CheckCRC16(p []byte, sent [2]byte) bool {
	c := CRC16(p)
	return byte(c) == sent[0] && byte(c>>8) == sent[1]
}
