package makita

import (
	"fmt"
	"time"

	"batterycode-go/errcode"
)

// ChipFamily distinguishes the standard controller from the older F0513.
type ChipFamily uint8

const (
	ChipStandard ChipFamily = iota
	ChipLegacy              // F0513: no test mode, LEDs or error reset
)

func (c ChipFamily) String() string {
	if c == ChipLegacy {
		return "legacy (F0513)"
	}
	return "standard"
}

// Chemistry is the pack's cell arrangement.
type Chemistry uint8

const (
	ChemUnknown  Chemistry = iota
	ChemFiveCell           // 18 V class
	ChemTenCell            // 36/40 V class
)

func (c Chemistry) String() string {
	switch c {
	case ChemFiveCell:
		return "5-cell"
	case ChemTenCell:
		return "10-cell"
	default:
		return "unknown"
	}
}

// Cells returns the number of cells for the arrangement.
func (c Chemistry) Cells() int {
	switch c {
	case ChemFiveCell:
		return 5
	case ChemTenCell:
		return 10
	default:
		return 0
	}
}

// enterLegacyTree switches an F0513 into its second command tree, leaving the
// bus reset and settled for a raw opcode.
func (d *Device) enterLegacyTree() {
	_, _ = d.SendCommand(SelectSkipROM, cmdLegacyTree, 0)
	d.bareReset()
	d.wait(busSettle)
}

// legacyQuery sends one raw opcode in the legacy tree and reads two bytes.
// Bus failures read as the sentinel.
func (d *Device) legacyQuery(opcode byte) [2]byte {
	rsp := [2]byte{sentinel, sentinel}
	d.enterLegacyTree()
	if err := d.bus.WriteByte(opcode); err != nil {
		d.log.Debug().Err(err).Msg("legacy query")
		return rsp
	}
	for i := range rsp {
		d.wait(legacyByteGap)
		b, err := d.bus.ReadByte()
		if err != nil {
			d.log.Debug().Err(err).Msg("legacy query")
			return [2]byte{sentinel, sentinel}
		}
		rsp[i] = b
	}
	return rsp
}

// DetectChipFamily probes the legacy model query. Standard chips answer with
// the sentinel.
func (d *Device) DetectChipFamily() ChipFamily {
	rsp := d.legacyQuery(legacyModel)
	if rsp[0] == sentinel && rsp[1] == sentinel {
		return ChipStandard
	}
	return ChipLegacy
}

// IsLegacyChip is DetectChipFamily() == ChipLegacy.
func (d *Device) IsLegacyChip() bool { return d.DetectChipFamily() == ChipLegacy }

// warnIfLegacy reports whether the chip is an F0513 and, if so, logs that op
// relies on test-mode commands the chip does not implement.
func (d *Device) warnIfLegacy(op string) bool {
	if !d.IsLegacyChip() {
		return false
	}
	d.log.Warn().Str("op", op).Msg("F0513 chip has no test mode; error reset and EEPROM commit are ignored")
	return true
}

// requireStandard fails with Unsupported on legacy chips.
func (d *Device) requireStandard(op string) error {
	if d.IsLegacyChip() {
		return errcode.New(errcode.Unsupported, op, "not supported by F0513 chips")
	}
	return nil
}

// LegacyVersion returns the F0513 version word.
func (d *Device) LegacyVersion() (uint16, error) {
	rsp := d.legacyQuery(legacyVersion)
	if rsp[0] == sentinel && rsp[1] == sentinel {
		return 0, errcode.New(errcode.NoResponse, "legacy version", "")
	}
	return le16(rsp[:]), nil
}

// ModelCode reads the model identification. Standard chips answer "BLxxxx"
// to the model command; legacy chips return two BCD-like bytes from the
// legacy model query. NoResponse means neither answered.
func (d *Device) ModelCode() (string, error) {
	for i := 0; i < modelAttempts; i++ {
		rsp, err := d.SendCommand(SelectSkipROM, cmdModel, modelLen)
		if err != nil {
			continue
		}
		if rsp[0] == 'B' && rsp[1] == 'L' {
			return string(rsp[:6]), nil
		}
		break
	}
	rsp := d.legacyQuery(legacyModel)
	if !(rsp[0] == sentinel && rsp[1] == sentinel) {
		return fmt.Sprintf("BL%02X%02X", rsp[1], rsp[0]), nil
	}
	return "", errcode.New(errcode.NoResponse, "model", "no model reply")
}

// ModelFromRecord derives a model name from record fields.
func ModelFromRecord(r *Record) string {
	capacity := ModelCapacity(r.CapacityCode())
	switch {
	case r.Type() == 14:
		return "BL3626"
	case r.OverloadRaw() < 0x0C:
		return fmt.Sprintf("BL14%02d", capacity)
	default:
		return fmt.Sprintf("BL18%02d", capacity)
	}
}

// DetectChemistry reads the voltages and reports which arrangement answered.
func (d *Device) DetectChemistry() Chemistry {
	chem, _, _ := d.ReadVoltages()
	return chem
}

// ReadVoltages tries the 5-cell path first and the 10-cell path on failure.
func (d *Device) ReadVoltages() (Chemistry, Voltages, error) {
	v, err := d.ReadVoltages5()
	if err == nil {
		return ChemFiveCell, v, nil
	}
	d.log.Debug().Err(err).Msg("5-cell read failed, trying 10-cell")
	v, err = d.ReadVoltages10()
	if err == nil {
		return ChemTenCell, v, nil
	}
	return ChemUnknown, Voltages{}, err
}

// settleAfterROM runs the discarded temperature reads needed after a
// ROM-addressed command before skip-ROM commands answer reliably.
func (d *Device) settleAfterROM() {
	d.bareReset()
	d.wait(100 * time.Millisecond)
	for i := 0; i < 2; i++ {
		_, _ = d.SendCommand(SelectSkipROM, cmdCellTemp, tempLen)
		d.wait(50 * time.Millisecond)
	}
}
