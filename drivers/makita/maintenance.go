package makita

import (
	"fmt"
	"time"

	"batterycode-go/errcode"
)

// Template selects the record edits applied by FactoryReset.
type Template uint8

const (
	TemplateMinimal Template = iota // clear the error only
	TemplateC1                      // bytes 8,9 = 0xC1; byte 24 = 0x92
	Template94                      // bytes 8,9 = 0x94; byte 24 = 0x02
)

// ParseTemplate accepts "minimal", "c1" or "94".
func ParseTemplate(s string) (Template, error) {
	switch s {
	case "minimal", "1":
		return TemplateMinimal, nil
	case "c1", "C1", "2":
		return TemplateC1, nil
	case "94", "3":
		return Template94, nil
	}
	return 0, errcode.New(errcode.InvalidParams, "template", fmt.Sprintf("unknown template %q", s))
}

// Apply edits r for the template, clears the error and recomputes checksums.
func (t Template) Apply(r *Record) {
	switch t {
	case TemplateC1:
		r[8], r[9], r[24] = 0xC1, 0xC1, 0x92
	case Template94:
		r[8], r[9], r[24] = 0x94, 0x94, 0x02
	}
	r.ClearError()
}

// SetCycleCount rewrites the 12-bit cycle counter and confirms it by reading
// the record back.
func (d *Device) SetCycleCount(n uint16) error {
	const op = "set cycles"
	if n > MaxCycles {
		return errcode.New(errcode.InvalidParams, op, fmt.Sprintf("%d exceeds %d", n, MaxCycles))
	}
	_, rec, err := d.ReadRecord()
	if err != nil {
		return err
	}
	d.log.Info().Uint16("old", rec.Cycles()).Uint16("new", n).Msg("set cycle count")
	rec.SetCycles(n)
	if err := d.WriteRecordSafe(&rec); err != nil {
		return err
	}
	_, got, err := d.ReadRecord()
	if err != nil {
		return errcode.Wrap(errcode.CommitUnverified, op, err)
	}
	if got.Cycles() != n {
		return errcode.New(errcode.CommitUnverified, op,
			fmt.Sprintf("read back %d cycles", got.Cycles()))
	}
	return nil
}

// FactoryReset applies a template to the current record and writes it.
func (d *Device) FactoryReset(t Template) error {
	const op = "factory reset"
	_, rec, err := d.ReadRecord()
	if err != nil {
		return err
	}
	t.Apply(&rec)
	if err := d.WriteRecord(&rec); err != nil {
		return err
	}
	return d.verifyWritten(op, &rec)
}

// verifyWritten reads the record back and checks it matches want and is
// unlocked.
func (d *Device) verifyWritten(op string, want *Record) error {
	_, got, err := d.ReadRecord()
	if err != nil {
		return errcode.Wrap(errcode.CommitUnverified, op, err)
	}
	if got.Locked() {
		return errcode.New(errcode.CommitUnverified, op,
			fmt.Sprintf("still locked: err=%#x", got.ErrorCode()))
	}
	if got != *want {
		return errcode.New(errcode.CommitUnverified, op,
			fmt.Sprintf("%d bytes differ", len(DiffRecords(want, &got))))
	}
	return nil
}

// LEDs switches the pack's fuel gauge LEDs.
func (d *Device) LEDs(on bool) error {
	if err := d.requireStandard("leds"); err != nil {
		return err
	}
	d.testMode()
	d.wait(100 * time.Millisecond)
	d.bareReset()
	d.wait(50 * time.Millisecond)
	if on {
		d.control(ctrlLEDsOn)
	} else {
		d.control(ctrlLEDsOff)
	}
	return nil
}

// ResetHandshake clears the state a charger keeps tripping over: a long power
// cycle, repeated error resets with short power cycles in between, a
// checksum-corrected clear and a final long power cycle.
func (d *Device) ResetHandshake() error {
	d.log.Info().Msg("reset handshake")
	d.warnIfLegacy("reset handshake")
	d.powerCycleFor(3*time.Second, 1*time.Second)
	for i := 0; i < 10; i++ {
		d.testMode()
		d.wait(50 * time.Millisecond)
		d.resetError()
		d.wait(50 * time.Millisecond)
		if i%3 == 2 {
			d.powerCycleFor(200*time.Millisecond, 300*time.Millisecond)
		}
	}
	_, rec, err := d.ReadRecord()
	if err == nil {
		rec.ClearError()
		err = d.WriteRecord(&rec)
	}
	d.powerCycleFor(reloadOff, reloadOn)
	return err
}

// Fault is a deliberate lock condition for testing the unlock path.
type Fault uint8

const (
	FaultChecksum   Fault = iota // corrupt checksum 3, no recompute
	FaultOverloaded              // error code 1
	FaultWarning                 // error code 5 (does not lock)
	FaultDead                    // error code F
)

// ParseFault accepts "checksum", "overloaded", "warning" or "dead".
func ParseFault(s string) (Fault, error) {
	switch s {
	case "checksum", "1":
		return FaultChecksum, nil
	case "overloaded", "2":
		return FaultOverloaded, nil
	case "warning", "3":
		return FaultWarning, nil
	case "dead", "4":
		return FaultDead, nil
	}
	return 0, errcode.New(errcode.InvalidParams, "fault", fmt.Sprintf("unknown fault %q", s))
}

// InjectFault writes a faulted record, power cycles the pack, turns the LEDs
// on and reports whether the pack now reads as locked.
func (d *Device) InjectFault(f Fault) (bool, error) {
	_, rec, err := d.ReadRecord()
	if err != nil {
		return false, err
	}
	switch f {
	case FaultChecksum:
		rec[offChk23] ^= 0xF0
		err = d.WriteRecord(&rec)
	case FaultOverloaded:
		rec.SetErrorCode(ErrCodeOverloaded)
		err = d.WriteRecordSafe(&rec)
	case FaultWarning:
		rec.SetErrorCode(ErrCodeWarning)
		err = d.WriteRecordSafe(&rec)
	case FaultDead:
		rec.SetErrorCode(ErrCodeDead)
		err = d.WriteRecordSafe(&rec)
	default:
		return false, errcode.New(errcode.InvalidParams, "inject fault", "unknown fault")
	}
	if err != nil {
		return false, err
	}
	d.powerCycleFor(reloadOff, reloadOn)
	d.control(ctrlLEDsOn)
	d.wait(100 * time.Millisecond)
	return d.IsBatteryLocked(), nil
}

// ChargerReport is the outcome of DiagnoseCharger.
type ChargerReport struct {
	RecordOK       bool
	ErrorCode      byte
	Locked         bool
	CellTemp       Temperature
	MosfetTemp     Temperature
	DataBlockOK    bool // false on F0513 chips
	HardwareHealth bool
}

// TemperatureOK reports a cell temperature inside the charging window.
func (r ChargerReport) TemperatureOK() bool {
	return r.CellTemp.Valid && r.CellTemp.Celsius > 0 && r.CellTemp.Celsius < 50
}

// Passed is true when nothing would stop a charger from starting.
func (r ChargerReport) Passed() bool { return r.TemperatureOK() }

// DiagnoseCharger runs the reads a charger performs before charging.
func (d *Device) DiagnoseCharger() ChargerReport {
	var rep ChargerReport
	if _, rec, err := d.ReadRecord(); err == nil {
		rep.RecordOK = true
		rep.ErrorCode = rec.ErrorCode()
		rep.Locked = rec.Locked()
	}

	d.bareReset()
	d.wait(100 * time.Millisecond)
	_ = d.CellTemperature()
	d.wait(50 * time.Millisecond)
	rep.CellTemp = d.CellTemperature()
	rep.MosfetTemp = d.MosfetTemperature()

	rsp, _ := d.SendCommand(SelectSkipROM, cmdDataBlock, dataBlockLen)
	rep.DataBlockOK = rsp[0] != sentinel
	rep.HardwareHealth = d.HasHardwareHealth()
	return rep
}
