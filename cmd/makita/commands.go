package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"batterycode-go/drivers/makita"
	"batterycode-go/errcode"
	"batterycode-go/types"

	"github.com/spf13/cobra"
)

// commands returns a fresh set of subcommands bound to a.
func commands(a *app) []*cobra.Command {
	return []*cobra.Command{
		{
			Use:   "read",
			Short: "Read ROM id, record and voltages into the session cache",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.read() },
		},
		{
			Use:   "info",
			Short: "Battery summary: model, cycles, capacity, health",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.info() },
		},
		{
			Use:   "voltages",
			Short: "Cell voltages, spread, pack total and temperatures",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.voltages() },
		},
		{
			Use:   "diagnose",
			Short: "List problems found in the cached snapshot",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.diagnose() },
		},
		{
			Use:   "model",
			Short: "Ask the pack for its model name",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.model() },
		},
		{
			Use:   "probe",
			Short: "Detect chip family, cell arrangement and BMS health support",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.probe() },
		},
		{
			Use:   "lock",
			Short: "Report whether the pack is locked",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.lockStatus() },
		},
		{
			Use:   "raw <33|cc|d4> <hex payload|-> <n>",
			Short: "Send one framed command and print the reply",
			Args:  cobra.ExactArgs(3),
			RunE:  func(_ *cobra.Command, args []string) error { return a.raw(args) },
		},
		{
			Use:   "reset-errors",
			Short: "Quick error reset (test mode + reset command)",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return a.op("reset-errors", a.sess.ResetBatteryErrors())
			},
		},
		{
			Use:   "unlock",
			Short: "Run the three-phase unlock sequence",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.unlock() },
		},
		{
			Use:       "leds <on|off>",
			Short:     "Switch the fuel gauge LEDs",
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{"on", "off"},
			RunE: func(_ *cobra.Command, args []string) error {
				return a.op("leds", a.sess.LEDs(args[0] == "on"))
			},
		},
		{
			Use:   "save",
			Short: "Keep the current record for compare and clone",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.save() },
		},
		{
			Use:   "compare",
			Short: "Diff the current record against the saved one",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.compare() },
		},
		newCloneCmd(a),
		{
			Use:   "cycles <n>",
			Short: "Set the charge cycle counter (0..4095)",
			Args:  cobra.ExactArgs(1),
			RunE:  func(_ *cobra.Command, args []string) error { return a.cycles(args[0]) },
		},
		newFactoryResetCmd(a),
		{
			Use:   "handshake",
			Short: "Long power-cycle and error-reset handshake",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return a.op("handshake", a.sess.ResetHandshake())
			},
		},
		{
			Use:       "inject-fault <checksum|overloaded|warning|dead>",
			Short:     "Write a faulted record to exercise the unlock path",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"checksum", "overloaded", "warning", "dead"},
			RunE:      func(_ *cobra.Command, args []string) error { return a.injectFault(args[0]) },
		},
		{
			Use:   "charger",
			Short: "Run the reads a charger performs before charging",
			Args:  cobra.NoArgs,
			RunE:  func(*cobra.Command, []string) error { return a.charger() },
		},
	}
}

func newCloneCmd(a *app) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "clone",
		Short: "Write the saved record (error cleared) to the connected pack",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			done, err := a.sess.CloneRecord(yes)
			if err == nil && !done {
				fmt.Fprintln(a.out, "not written; rerun with --yes to overwrite the pack")
				return nil
			}
			return a.op("clone", err)
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the write")
	return c
}

func newFactoryResetCmd(a *app) *cobra.Command {
	var yes bool
	c := &cobra.Command{
		Use:   "factory-reset [minimal|c1|94]",
		Short: "Rewrite the record from a template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := "minimal"
			if len(args) == 1 {
				name = args[0]
			}
			t, err := makita.ParseTemplate(name)
			if err != nil {
				return err
			}
			if !yes {
				fmt.Fprintln(a.out, "not written; rerun with --yes to overwrite the pack")
				return nil
			}
			return a.op("factory-reset", a.sess.FactoryReset(t))
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the write")
	return c
}

// ---- handlers ----

// ensureData reads the pack unless the cache already holds a snapshot.
func (a *app) ensureData() error {
	if a.sess.Data().Valid {
		return nil
	}
	return a.sess.ReadAllBatteryData()
}

func (a *app) read() error {
	if err := a.sess.ReadAllBatteryData(); err != nil {
		return err
	}
	d := a.sess.Data()
	return a.emit(batteryReport(d), func(w io.Writer) { printReport(w, d) })
}

func (a *app) info() error {
	if err := a.ensureData(); err != nil {
		return err
	}
	inf, err := a.sess.Info()
	if err != nil && !errors.Is(err, errcode.ChecksumInvalid) {
		return err
	}
	if eerr := a.emit(batteryInfo(inf), func(w io.Writer) { printInfo(w, inf) }); eerr != nil {
		return eerr
	}
	return err
}

func (a *app) voltages() error {
	if err := a.ensureData(); err != nil {
		return err
	}
	d := a.sess.Data()
	if d.CellCount == 0 {
		return errcode.New(errcode.NoData, "voltages", "pack returned no voltage data")
	}
	return a.emit(voltageValue(d.Voltages), func(w io.Writer) { printVoltages(w, d.Voltages) })
}

func (a *app) diagnose() error {
	if err := a.ensureData(); err != nil {
		return err
	}
	g, err := a.sess.Diagnose()
	if err != nil {
		return err
	}
	return a.emit(diagnosisValue(g), func(w io.Writer) { printDiagnosis(w, g) })
}

func (a *app) model() error {
	name, err := a.sess.ModelName()
	if err != nil {
		return err
	}
	return a.emit(map[string]string{"model": name}, func(w io.Writer) { fmt.Fprintln(w, name) })
}

func (a *app) probe() error {
	fam := a.sess.DetectChipFamily()
	p := types.ChipProbe{
		Family:         fam.String(),
		Chemistry:      a.sess.DetectChemistry().String(),
		HardwareHealth: a.sess.HasHardwareHealth(),
	}
	if fam == makita.ChipLegacy {
		if v, err := a.sess.LegacyVersion(); err == nil {
			p.LegacyVersion = &v
		}
	}
	return a.emit(p, func(w io.Writer) {
		fmt.Fprintf(w, "Chip        %s\n", p.Family)
		if p.LegacyVersion != nil {
			fmt.Fprintf(w, "Version     %04X\n", *p.LegacyVersion)
		}
		fmt.Fprintf(w, "Cells       %s\n", p.Chemistry)
		fmt.Fprintf(w, "BMS health  %v\n", p.HardwareHealth)
	})
}

func (a *app) lockStatus() error {
	locked := a.sess.IsBatteryLocked()
	return a.emit(map[string]bool{"locked": locked}, func(w io.Writer) {
		if locked {
			fmt.Fprintln(w, "LOCKED")
		} else {
			fmt.Fprintln(w, "UNLOCKED")
		}
	})
}

func (a *app) raw(args []string) error {
	sel, err := strconv.ParseUint(args[0], 16, 8)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "raw", err)
	}
	var payload []byte
	if args[1] != "-" {
		if payload, err = hex.DecodeString(args[1]); err != nil {
			return errcode.Wrap(errcode.InvalidParams, "raw", err)
		}
	}
	n, err := strconv.Atoi(args[2])
	if err != nil || n < 0 || n > 64 {
		return errcode.New(errcode.InvalidParams, "raw", "response length must be 0..64")
	}
	rsp, err := a.sess.SendCommand(makita.Selector(sel), payload, n)
	if err != nil {
		return err
	}
	v := types.RawResponse{Selector: uint8(sel), Payload: hex.EncodeToString(payload), Response: hex.EncodeToString(rsp)}
	return a.emit(v, func(w io.Writer) { fmt.Fprintf(w, "% X\n", rsp) })
}

func (a *app) unlock() error {
	out, err := a.sess.UnlockBattery()
	a.sess.Invalidate()
	res := unlockResult(out, err)
	if eerr := a.emit(res, func(w io.Writer) { printUnlock(w, res) }); eerr != nil {
		return eerr
	}
	return err
}

func (a *app) save() error {
	rec, err := a.sess.SaveRecord()
	if err != nil {
		return err
	}
	return a.emit(map[string]string{"record": hex.EncodeToString(rec[:])}, func(w io.Writer) {
		fmt.Fprintf(w, "saved % X\n", rec[:])
	})
}

func (a *app) compare() error {
	diffs, err := a.sess.CompareRecord()
	if err != nil {
		return err
	}
	return a.emit(recordDiffs(diffs), func(w io.Writer) { printDiffs(w, diffs) })
}

func (a *app) cycles(arg string) error {
	n, err := strconv.ParseUint(arg, 10, 16)
	if err != nil {
		return errcode.Wrap(errcode.InvalidParams, "cycles", err)
	}
	return a.op("cycles", a.sess.SetCycleCount(uint16(n)))
}

func (a *app) injectFault(arg string) error {
	f, err := makita.ParseFault(arg)
	if err != nil {
		return err
	}
	locked, err := a.sess.InjectFault(f)
	a.sess.Invalidate()
	if err != nil {
		return a.op("inject-fault", err)
	}
	return a.emit(map[string]bool{"locked": locked}, func(w io.Writer) {
		fmt.Fprintf(w, "fault %s written; pack locked: %v\n", arg, locked)
	})
}

func (a *app) charger() error {
	rep := a.sess.DiagnoseCharger()
	return a.emit(chargerCheck(rep), func(w io.Writer) { printCharger(w, rep) })
}

// op reports the outcome of a write-style command and passes err through.
// Writes change the pack, so the cache is dropped either way.
func (a *app) op(name string, err error) error {
	a.sess.Invalidate()
	res := opResult(name, err)
	if eerr := a.emit(res, func(w io.Writer) {
		if err == nil {
			fmt.Fprintf(w, "%s: ok\n", name)
		}
	}); eerr != nil {
		return eerr
	}
	return err
}
