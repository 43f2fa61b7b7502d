package makita

import (
	"time"

	"batterycode-go/errcode"
)

// WriteRecord writes rec to the pack's EEPROM as-is. The caller must have run
// Recompute; a record with stale checksums locks the pack.
//
// Sequence: test mode, a discarded record read, scratchpad write, three
// commits, test-mode exit (without it nothing is kept), and a power cycle so
// the pack reloads from EEPROM. Individual commits are not checked; re-read
// the record to confirm. An error is returned only when the scratchpad write
// could not be sent at all.
func (d *Device) WriteRecord(rec *Record) error {
	d.log.Info().Hex("record", rec[:]).Msg("writing record")
	d.warnIfLegacy("write record")

	d.testMode()
	d.wait(100 * time.Millisecond)
	// The first read after entering test mode is unreliable.
	_, _, _ = d.readRecordOnce()
	d.wait(100 * time.Millisecond)

	err := d.storeDirect(rec)
	if err != nil {
		d.log.Error().Err(err).Msg("scratchpad write failed")
	}

	d.wait(500 * time.Millisecond)
	d.exitTestMode()
	d.wait(200 * time.Millisecond)
	d.powerCycle()
	d.wait(300 * time.Millisecond)
	return err
}

// WriteRecordSafe recomputes the checksums in rec and writes it.
func (d *Device) WriteRecordSafe(rec *Record) error {
	rec.Recompute()
	return d.WriteRecord(rec)
}

// storeDirect sends the scratchpad write and the commit commands.
func (d *Device) storeDirect(rec *Record) error {
	const op = "store"
	if err := d.resetWithRetry(resetRetries, storeResetDelay); err != nil {
		return err
	}
	d.wait(busSettle)
	if err := d.romPrefix(); err != nil {
		return errcode.Wrap(errcode.BusError, op, err)
	}
	if err := d.bus.WriteBytes(cmdScratchHeader); err != nil {
		return errcode.Wrap(errcode.BusError, op, err)
	}
	if err := d.bus.WriteBytes(rec[:]); err != nil {
		return errcode.Wrap(errcode.BusError, op, err)
	}
	d.wait(scratchpadSettle)

	for i := 0; i < commitAttempts; i++ {
		if err := d.resetWithRetry(resetRetries, storeResetDelay); err != nil {
			d.log.Warn().Int("attempt", i+1).Msg("commit: no presence")
		}
		d.wait(busSettle)
		err := d.romPrefix()
		if err == nil {
			err = d.bus.WriteBytes(cmdCommit)
		}
		if err != nil {
			d.log.Warn().Err(err).Int("attempt", i+1).Msg("commit failed")
		}
		d.wait(eepromProgramDelay)
	}
	return nil
}

// romPrefix writes the read-ROM selector and discards the id.
func (d *Device) romPrefix() error {
	var rom [romLen]byte
	if err := d.bus.WriteByte(byte(SelectReadROM)); err != nil {
		return err
	}
	return d.bus.ReadBytes(rom[:])
}
