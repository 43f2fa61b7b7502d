package makita

import (
	"time"

	"batterycode-go/errcode"
)

// Phase of the unlock sequence.
type Phase uint8

const (
	PhaseNone          Phase = iota
	PhaseStandardReset       // power cycle + test mode + error reset
	PhaseChecksumClear       // rewrite the record with the error cleared
	PhasePowerCycle          // long power cycles + repeated error reset
)

func (p Phase) String() string {
	switch p {
	case PhaseStandardReset:
		return "phase 1 (standard reset)"
	case PhaseChecksumClear:
		return "phase 2 (checksum-corrected clear)"
	case PhasePowerCycle:
		return "phase 3 (extended power cycling)"
	default:
		return "none"
	}
}

// Outcome is the terminal state of UnlockBattery.
type Outcome struct {
	Phase   Phase // last phase run
	Success bool
	Legacy  bool // F0513 chip: the test-mode steps had no effect
}

const (
	phase1Cycles  = 5
	phase1Repeats = 5
	phase1Gap     = 200 * time.Millisecond

	phase2Attempts = 3

	phase3Cycles  = 3
	phase3Repeats = 10
	phase3Gap     = 100 * time.Millisecond

	quickResetRepeats = 3
	quickResetGap     = 300 * time.Millisecond
)

// IsBatteryLocked reads the record and applies Record.Locked. A failed read
// counts as locked.
func (d *Device) IsBatteryLocked() bool {
	_, rec, err := d.ReadRecord()
	if err != nil {
		return true
	}
	return rec.Locked()
}

// ResetBatteryErrors sends the quick error-reset sequence.
func (d *Device) ResetBatteryErrors() error {
	if err := d.requireStandard("reset errors"); err != nil {
		return err
	}
	for i := 0; i < quickResetRepeats; i++ {
		d.wait(quickResetGap)
		d.testMode()
		d.resetError()
	}
	d.log.Info().Msg("error reset sent")
	return nil
}

// UnlockBattery escalates through three phases until the pack reads as
// unlocked. Exhausting phase 3 returns StillLocked.
func (d *Device) UnlockBattery() (Outcome, error) {
	legacy := d.warnIfLegacy("unlock")
	d.log.Info().Stringer("phase", PhaseStandardReset).Msg("unlock")
	for cycle := 1; cycle <= phase1Cycles; cycle++ {
		d.powerCycle()
		for i := 0; i < phase1Repeats; i++ {
			d.wait(phase1Gap)
			d.testMode()
			d.resetError()
		}
		if !d.IsBatteryLocked() {
			return d.unlocked(PhaseStandardReset, cycle, legacy), nil
		}
	}

	d.log.Info().Stringer("phase", PhaseChecksumClear).Msg("unlock")
	if _, rec, err := d.ReadRecord(); err == nil {
		rec.ClearError()
		for attempt := 1; attempt <= phase2Attempts; attempt++ {
			if err := d.WriteRecord(&rec); err != nil {
				d.log.Warn().Err(err).Int("attempt", attempt).Msg("write failed")
			}
			d.powerCycleFor(reloadOff, reloadOn)
			if !d.IsBatteryLocked() {
				return d.unlocked(PhaseChecksumClear, attempt, legacy), nil
			}
		}
	} else {
		d.log.Warn().Err(err).Msg("record unreadable, skipping checksum clear")
	}

	d.log.Info().Stringer("phase", PhasePowerCycle).Msg("unlock")
	for cycle := 1; cycle <= phase3Cycles; cycle++ {
		d.powerCycleFor(reloadOff, reloadOn)
		for i := 0; i < phase3Repeats; i++ {
			d.testMode()
			d.wait(phase3Gap)
			d.resetError()
			d.wait(phase3Gap)
		}
		if !d.IsBatteryLocked() {
			return d.unlocked(PhasePowerCycle, cycle, legacy), nil
		}
	}

	d.log.Error().Msg("unlock failed")
	return Outcome{Phase: PhasePowerCycle, Legacy: legacy}, errcode.New(errcode.StillLocked, "unlock",
		"may need cell charging or PCB replacement")
}

func (d *Device) unlocked(p Phase, attempt int, legacy bool) Outcome {
	d.log.Info().Stringer("phase", p).Int("attempt", attempt).Msg("unlocked")
	return Outcome{Phase: p, Success: true, Legacy: legacy}
}
