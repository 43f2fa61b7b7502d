package makita

import "time"

// Selector is the first byte of every framed command.
type Selector byte

const (
	// SelectReadROM addresses all devices; the 8-byte ROM id precedes the payload.
	SelectReadROM Selector = 0x33
	// SelectSkipROM skips addressing; the payload follows directly.
	SelectSkipROM Selector = 0xCC
	// selectTenCellBlock is written raw (no payload) to fetch the 10-cell block.
	selectTenCellBlock Selector = 0xD4
)

// Payloads. Response lengths live next to the call sites.
var (
	cmdModel         = []byte{0xDC, 0x0C}
	cmdDataBlock     = []byte{0xD7, 0x00, 0x00, 0xFF}
	cmdReadRecord    = []byte{0xF0, 0x00}
	cmdTestMode      = []byte{0xD9, 0x96, 0xA5}
	cmdExitTestMode  = []byte{0xD9, 0xFF, 0xFF}
	cmdCellTemp      = []byte{0xD7, 0x0E, 0x00, 0x02}
	cmdMosfetTemp    = []byte{0xD7, 0x10, 0x00, 0x02}
	cmdHealthProbe   = []byte{0xD4, 0xBA, 0x00, 0x01}
	cmdOverload      = []byte{0xD4, 0x8D, 0x00, 0x07}
	cmdHealth        = []byte{0xD4, 0x50, 0x01, 0x02}
	cmdTenCellTest   = []byte{0x10, 0x21}
	cmdLegacyTree    = []byte{0x99}
	cmdLegacyTemp    = []byte{0x52}
	cmdScratchHeader = []byte{0x0F, 0x00}
	cmdCommit        = []byte{0x55, 0xA5}
)

// Control sub-commands sent as DA xx.
const (
	ctrlResetError byte = 0x04
	ctrlLEDsOn     byte = 0x31
	ctrlLEDsOff    byte = 0x34
)

// Legacy (F0513) opcodes issued inside the second command tree.
const (
	legacyModel   byte = 0x31
	legacyVersion byte = 0x32
	legacyCell1   byte = 0x31 // cells are 0x31..0x35 at the top level
)

// Response sizes.
const (
	romLen         = 8
	RecordLen      = 32
	dataBlockLen   = 29
	modelLen       = 10
	testModeLen    = 29
	controlLen     = 9
	tempLen        = 3
	tenCellLen     = 20
	healthProbeLen = 2
	overloadLen    = 8
	healthLen      = 3
)

// Retry bounds and delays. These are the timings the packs were observed to
// need; shortening any of them makes the bus unreliable on real hardware.
const (
	// resetRetries is the number of extra bus resets after the first one fails.
	resetRetries    = 5
	resetRetryDelay = 500 * time.Millisecond
	// busSettle follows a successful reset before the selector byte.
	busSettle = 310 * time.Microsecond
	// legacyByteGap separates legacy opcode and reply bytes.
	legacyByteGap = 90 * time.Microsecond

	// Recovery power cycle used by the dispatcher.
	powerOffDelay = 200 * time.Millisecond
	powerOnDelay  = 500 * time.Millisecond

	modelAttempts  = 10
	recordAttempts = 20

	// EEPROM write protocol.
	storeResetDelay    = 100 * time.Millisecond
	scratchpadSettle   = 500 * time.Millisecond
	commitAttempts     = 3
	eepromProgramDelay = 500 * time.Millisecond // >= 10 ms per byte written

	// Long power cycle that forces an EEPROM reload.
	reloadOff = 2 * time.Second
	reloadOn  = 1 * time.Second
)

// sentinel is the byte the device returns for "no data".
const sentinel = 0xFF
