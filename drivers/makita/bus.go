package makita

import (
	"time"

	"batterycode-go/errcode"
)

// SendCommand frames and sends one command and reads n response bytes.
//
// With SelectReadROM the returned slice holds the 8-byte ROM id followed by the
// n response bytes; with SelectSkipROM it holds the n bytes only. Any other
// selector is written raw with the payload (used for the 10-cell block).
//
// The buffer is pre-filled with 0xFF and is returned even when err != nil, so
// callers that fall back on sentinel bytes can inspect it. Errors:
// TransportTimeout when no presence pulse was seen after all resets,
// NoResponse when n >= 3 and the first three response bytes are 0xFF, and
// BusError when the adapter fails mid-transaction. The first two also run the
// recovery power cycle.
func (d *Device) SendCommand(sel Selector, payload []byte, n int) ([]byte, error) {
	const op = "send"
	off := 0
	if sel == SelectReadROM {
		off = romLen
	}
	buf := make([]byte, off+n)
	for i := range buf {
		buf[i] = sentinel
	}

	if err := d.resetWithRetry(resetRetries, resetRetryDelay); err != nil {
		d.log.Warn().Hex("sel", []byte{byte(sel)}).Hex("cmd", payload).Msg("no presence, power cycling")
		d.powerCycle()
		return buf, err
	}
	d.wait(busSettle)

	if err := d.bus.WriteByte(byte(sel)); err != nil {
		return buf, errcode.Wrap(errcode.BusError, op, err)
	}
	if off > 0 {
		if err := d.bus.ReadBytes(buf[:off]); err != nil {
			return buf, errcode.Wrap(errcode.BusError, op, err)
		}
	}
	if len(payload) > 0 {
		if err := d.bus.WriteBytes(payload); err != nil {
			return buf, errcode.Wrap(errcode.BusError, op, err)
		}
	}
	if n > 0 {
		if err := d.bus.ReadBytes(buf[off:]); err != nil {
			return buf, errcode.Wrap(errcode.BusError, op, err)
		}
	}

	d.log.Debug().Hex("sel", []byte{byte(sel)}).Hex("cmd", payload).Hex("rsp", buf).Msg("command")

	if n >= 3 && buf[off] == sentinel && buf[off+1] == sentinel && buf[off+2] == sentinel {
		d.log.Warn().Hex("cmd", payload).Msg("sentinel response, power cycling")
		d.powerCycle()
		return buf, errcode.New(errcode.NoResponse, op, "")
	}
	return buf, nil
}

// resetWithRetry issues one reset plus up to retries more, waiting delay
// before each retry. It never power cycles.
func (d *Device) resetWithRetry(retries int, delay time.Duration) error {
	var last error
	for i := 0; ; i++ {
		present, err := d.bus.Reset()
		if err == nil && present {
			return nil
		}
		if err != nil {
			last = err
		}
		if i == retries {
			break
		}
		d.wait(delay)
	}
	e := errcode.New(errcode.TransportTimeout, "reset", "no presence pulse")
	e.Err = last
	return e
}

// ReadRecord reads the ROM id and the 32-byte record, retrying the whole
// command up to 20 times.
func (d *Device) ReadRecord() (RomID, Record, error) {
	var err error
	for i := 0; i < recordAttempts; i++ {
		var rom RomID
		var rec Record
		rom, rec, err = d.readRecordOnce()
		if err == nil {
			return rom, rec, nil
		}
	}
	d.log.Error().Err(err).Int("attempts", recordAttempts).Msg("record read failed")
	return RomID{}, Record{}, err
}

func (d *Device) readRecordOnce() (RomID, Record, error) {
	var rom RomID
	var rec Record
	buf, err := d.SendCommand(SelectReadROM, cmdReadRecord, RecordLen)
	copy(rom[:], buf[:romLen])
	copy(rec[:], buf[romLen:])
	return rom, rec, err
}

// testMode enters the device test mode needed for writes and control commands.
func (d *Device) testMode() {
	if _, err := d.SendCommand(SelectReadROM, cmdTestMode, testModeLen); err != nil {
		d.log.Debug().Err(err).Msg("test mode")
	}
}

func (d *Device) exitTestMode() {
	if _, err := d.SendCommand(SelectReadROM, cmdExitTestMode, 1); err != nil {
		d.log.Debug().Err(err).Msg("exit test mode")
	}
}

// control sends DA sub. The reply carries no useful data.
func (d *Device) control(sub byte) {
	if _, err := d.SendCommand(SelectReadROM, []byte{0xDA, sub}, controlLen); err != nil {
		d.log.Debug().Err(err).Hex("sub", []byte{sub}).Msg("control")
	}
}

func (d *Device) resetError() { d.control(ctrlResetError) }

// warmUp wakes the pack and settles the bus before a full read.
func (d *Device) warmUp() {
	d.powerCycle()
	d.wait(200 * time.Millisecond)
	for i := 0; i < 3; i++ {
		d.bareReset()
		d.wait(100 * time.Millisecond)
		_, _ = d.SendCommand(SelectSkipROM, cmdCellTemp, tempLen)
		d.wait(50 * time.Millisecond)
	}
	d.bareReset()
	d.wait(100 * time.Millisecond)
}

// bareReset issues a single reset and ignores the result.
func (d *Device) bareReset() {
	if _, err := d.bus.Reset(); err != nil {
		d.log.Debug().Err(err).Msg("reset")
	}
}
