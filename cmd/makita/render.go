package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"batterycode-go/drivers/makita"
	"batterycode-go/errcode"
	"batterycode-go/types"
)

// emit writes v as JSON with --json, else calls text.
func (a *app) emit(v any, text func(io.Writer)) error {
	if a.opts.json {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.out)
	return nil
}

// ---- conversions to wire payloads (integer milli-units) ----

func milli(v float64) int32 { return int32(math.Round(v * 1000)) }

func tempMC(t makita.Temperature) *int32 {
	if !t.Valid {
		return nil
	}
	v := milli(t.Celsius)
	return &v
}

func voltageValue(v makita.Voltages) *types.VoltageValue {
	cells := make([]int32, len(v.Cells))
	for i, c := range v.Cells {
		cells[i] = milli(c)
	}
	return &types.VoltageValue{
		CellsMilliV:  cells,
		SpreadMilliV: milli(v.Spread),
		PackMilliV:   milli(v.Pack),
		CellTempMC:   tempMC(v.CellTemp),
		MosfetTempMC: tempMC(v.MosfetTemp),
		Balance:      makita.ClassifyBalance(v.Spread).String(),
	}
}

func batteryReport(d makita.BatteryData) types.BatteryReport {
	r := types.BatteryReport{
		ROM:       d.ROM.String(),
		ROMCRC:    d.ROM.CRCValid(),
		Date:      d.ROM.DateString(),
		Chemistry: d.Chemistry.String(),
		Cells:     uint8(d.CellCount),
		Record:    hex.EncodeToString(d.Record[:]),
		RecordCRC: d.Record.Fingerprint(),
		Checksum:  d.Trusted,
	}
	if d.CellCount > 0 {
		r.Voltages = voltageValue(d.Voltages)
	}
	return r
}

func healthValue(h makita.Health) types.HealthValue {
	src := types.HealthEstimate
	if h.Hardware {
		src = types.HealthBMS
	}
	return types.HealthValue{
		Overdischarge: h.Overdischarge,
		Overload:      h.Overload,
		Health:        h.Health,
		Source:        src,
	}
}

func batteryInfo(inf makita.Info) types.BatteryInfo {
	out := types.BatteryInfo{
		Model:       inf.Model,
		ROM:         inf.ROM.String(),
		Date:        inf.ROM.DateString(),
		Cycles:      inf.Cycles,
		ErrorCode:   inf.ErrorCode,
		ErrorLabel:  makita.ErrorLabel(inf.ErrorCode),
		Trusted:     inf.Trusted,
		Locked:      inf.Locked,
		CapacityMAh: inf.CapacityMAh,
		Type:        inf.Type,
	}
	if inf.Trusted || inf.Health.Hardware {
		h := healthValue(inf.Health)
		out.Health = &h
	}
	if inf.HasSOC {
		soc := inf.SOC
		out.SOC = &soc
	}
	return out
}

func diagnosisValue(g makita.Diagnosis) types.DiagnosisValue {
	return types.DiagnosisValue{
		OK:              g.OK(),
		Undervoltage:    g.Undervoltage,
		Imbalance:       g.Imbalance,
		Overtemperature: g.Overtemperature,
		ChipError:       g.ChipError,
		Legacy:          g.Legacy,
	}
}

func unlockResult(o makita.Outcome, err error) types.UnlockResult {
	r := types.UnlockResult{Phase: o.Phase.String(), Success: o.Success, Legacy: o.Legacy}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func recordDiffs(ds []makita.Diff) []types.RecordDiff {
	out := make([]types.RecordDiff, 0, len(ds))
	for _, d := range ds {
		out = append(out, types.RecordDiff{Index: uint8(d.Index), Field: d.Field, Old: d.Old, New: d.New})
	}
	return out
}

func chargerCheck(r makita.ChargerReport) types.ChargerCheck {
	return types.ChargerCheck{
		RecordOK:       r.RecordOK,
		ErrorCode:      r.ErrorCode,
		Locked:         r.Locked,
		CellTempMC:     tempMC(r.CellTemp),
		MosfetTempMC:   tempMC(r.MosfetTemp),
		DataBlockOK:    r.DataBlockOK,
		HardwareHealth: r.HardwareHealth,
		Passed:         r.Passed(),
	}
}

func opResult(op string, err error) types.OpResult {
	r := types.OpResult{Op: op, OK: err == nil}
	if err != nil {
		r.Code = string(errcode.Of(err))
		r.Error = err.Error()
	}
	return r
}

// ---- text ----

func fmtTemp(t makita.Temperature) string {
	if !t.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1f °C", t.Celsius)
}

func printReport(w io.Writer, d makita.BatteryData) {
	fmt.Fprintf(w, "ROM       %s (made %s)\n", d.ROM, d.ROM.DateString())
	fmt.Fprintf(w, "Record    % X\n", d.Record[:16])
	fmt.Fprintf(w, "          % X\n", d.Record[16:])
	fmt.Fprintf(w, "Checksum  %s (crc16 %04X)\n", okString(d.Trusted), d.Record.Fingerprint())
	if !d.Trusted {
		fmt.Fprintln(w, "          record untrusted; record fields are not decoded")
	}
	fmt.Fprintf(w, "Chemistry %s\n", d.Chemistry)
	if d.CellCount == 0 {
		fmt.Fprintln(w, "Voltages  unavailable")
		return
	}
	printVoltages(w, d.Voltages)
}

func printVoltages(w io.Writer, v makita.Voltages) {
	for i, c := range v.Cells {
		fmt.Fprintf(w, "Cell %-2d   %.3f V\n", i+1, c)
	}
	fmt.Fprintf(w, "Pack      %.3f V\n", v.Pack)
	fmt.Fprintf(w, "Spread    %.3f V (%s)\n", v.Spread, makita.ClassifyBalance(v.Spread))
	fmt.Fprintf(w, "Cell temp %s\n", fmtTemp(v.CellTemp))
	fmt.Fprintf(w, "FET temp  %s\n", fmtTemp(v.MosfetTemp))
}

func printInfo(w io.Writer, inf makita.Info) {
	model := inf.Model
	if model == "" {
		model = "unknown"
	}
	src := "estimated"
	if inf.Health.Hardware {
		src = "BMS"
	}
	fmt.Fprintf(w, "Model         %s\n", model)
	fmt.Fprintf(w, "ROM           %s\n", inf.ROM)
	fmt.Fprintf(w, "Manufactured  %s\n", inf.ROM.DateString())
	if inf.Trusted {
		fmt.Fprintf(w, "Charge count  %d\n", inf.Cycles)
	}
	fmt.Fprintf(w, "Error code    %X (%s)\n", inf.ErrorCode, makita.ErrorLabel(inf.ErrorCode))
	fmt.Fprintf(w, "Status        %s\n", lockString(inf.Locked))
	if inf.Trusted {
		fmt.Fprintf(w, "Capacity      %d mAh\n", inf.CapacityMAh)
		fmt.Fprintf(w, "Type          %d\n", inf.Type)
	} else {
		fmt.Fprintln(w, "Record        UNTRUSTED (checksum invalid); record fields not decoded")
	}
	if inf.Trusted || inf.Health.Hardware {
		fmt.Fprintf(w, "Overdischarge %d%% (%s)\n", inf.Health.Overdischarge, src)
		fmt.Fprintf(w, "Overload      %d (%s)\n", inf.Health.Overload, src)
		fmt.Fprintf(w, "Health        %d%% (%s)\n", inf.Health.Health, src)
	}
	if inf.HasSOC {
		fmt.Fprintf(w, "Charge        %d%%\n", inf.SOC)
	}
}

func printDiagnosis(w io.Writer, g makita.Diagnosis) {
	if g.OK() {
		fmt.Fprintln(w, "no problems found")
		return
	}
	var lines []string
	if g.Legacy {
		lines = append(lines, "legacy controller: error reset unsupported")
	}
	if g.Undervoltage {
		lines = append(lines, "undervoltage: a cell is below 3.0 V, charge it before unlocking")
	}
	if g.Imbalance {
		lines = append(lines, "imbalance: cell spread above 150 mV")
	}
	if g.Overtemperature {
		lines = append(lines, "overtemperature: cells above 40 °C")
	}
	if g.ChipError {
		lines = append(lines, "controller error with no cell-level cause: try unlock")
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func printUnlock(w io.Writer, r types.UnlockResult) {
	if r.Legacy {
		fmt.Fprintln(w, "legacy (F0513) controller: test mode and error reset are not supported")
	}
	if r.Success {
		fmt.Fprintf(w, "unlocked after %s\n", r.Phase)
		return
	}
	fmt.Fprintf(w, "still locked after %s\n", r.Phase)
}

func printDiffs(w io.Writer, ds []makita.Diff) {
	if len(ds) == 0 {
		fmt.Fprintln(w, "records match")
		return
	}
	for _, d := range ds {
		field := d.Field
		if field == "" {
			field = "-"
		}
		fmt.Fprintf(w, "byte %2d  %02X -> %02X  %s\n", d.Index, d.Old, d.New, field)
	}
}

func printCharger(w io.Writer, r makita.ChargerReport) {
	fmt.Fprintf(w, "Record      %s\n", okString(r.RecordOK))
	fmt.Fprintf(w, "Error code  %X (%s)\n", r.ErrorCode, lockString(r.Locked))
	fmt.Fprintf(w, "Cell temp   %s\n", fmtTemp(r.CellTemp))
	fmt.Fprintf(w, "FET temp    %s\n", fmtTemp(r.MosfetTemp))
	fmt.Fprintf(w, "Data block  %s\n", okString(r.DataBlockOK))
	fmt.Fprintf(w, "BMS health  %v\n", r.HardwareHealth)
	if r.Passed() {
		fmt.Fprintln(w, "charger would start")
	} else {
		fmt.Fprintln(w, "charger would refuse: temperature outside 0..50 °C or unreadable")
	}
}

func okString(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}

func lockString(locked bool) string {
	if locked {
		return "LOCKED"
	}
	return "UNLOCKED"
}
