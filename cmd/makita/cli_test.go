package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"batterycode-go/drivers/makita"
	"batterycode-go/drivers/makita/makitasim"
	"batterycode-go/errcode"
	"batterycode-go/types"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	a := newApp()
	a.out, a.errOut = &out, &logs
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "makita.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const lockedSim = "transport: {kind: sim}\nsim: {kind: standard, error_code: 1}\nlog: {level: error}\n"

func TestReadText(t *testing.T) {
	out, err := run(t, "", "--sim", "standard", "read")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{"Checksum  OK", "Cell 5", "Chemistry 5-cell"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInfoJSON(t *testing.T) {
	out, err := run(t, "", "--sim", "standard", "--json", "info")
	if err != nil {
		t.Fatal(err)
	}
	var inf types.BatteryInfo
	if err := json.Unmarshal([]byte(out), &inf); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if inf.Model != "BL1850" || inf.Cycles != 42 || inf.Locked || inf.CapacityMAh != 5000 {
		t.Fatalf("info = %+v", inf)
	}
	if !inf.Trusted || inf.Health == nil || inf.Health.Source != types.HealthEstimate || inf.SOC == nil {
		t.Fatalf("health/soc = %+v %v", inf.Health, inf.SOC)
	}
}

func TestInfoUntrustedRecord(t *testing.T) {
	rec := makitasim.DefaultRecord()
	rec[21] ^= 0xF0
	b := makitasim.New(makitasim.Options{Record: &rec})

	var out bytes.Buffer
	a := newApp()
	a.out = &out
	a.opts.json = true
	a.sess = makita.NewSession(makita.New(b, b, makita.Config{Sleeper: &makitasim.Clock{}}))

	err := a.info()
	if !errors.Is(err, errcode.ChecksumInvalid) {
		t.Fatalf("err = %v, want ChecksumInvalid", err)
	}
	var inf types.BatteryInfo
	if derr := json.Unmarshal(out.Bytes(), &inf); derr != nil {
		t.Fatalf("decode %q: %v", out.String(), derr)
	}
	if inf.Trusted || inf.Health != nil || inf.CapacityMAh != 0 || !inf.Locked {
		t.Fatalf("untrusted info = %+v", inf)
	}
}

func TestVoltagesTenCellJSON(t *testing.T) {
	out, err := run(t, "", "--sim", "tencell", "--json", "voltages")
	if err != nil {
		t.Fatal(err)
	}
	var v types.VoltageValue
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatal(err)
	}
	if len(v.CellsMilliV) != 10 || v.CellTempMC != nil {
		t.Fatalf("voltages = %+v", v)
	}
}

func TestDiagnoseLegacyLocked(t *testing.T) {
	cfg := writeConfig(t, "transport: {kind: sim}\nsim: {kind: legacy, error_code: 1}\n")
	out, err := run(t, "", "-c", cfg, "--json", "diagnose")
	if err != nil {
		t.Fatal(err)
	}
	var g types.DiagnosisValue
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		t.Fatal(err)
	}
	if g.OK || !g.Legacy {
		t.Fatalf("diagnosis = %+v", g)
	}
}

func TestUnlockLockedPack(t *testing.T) {
	cfg := writeConfig(t, lockedSim)
	out, err := run(t, "", "-c", cfg, "unlock")
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if !strings.Contains(out, "unlocked after phase 1") {
		t.Fatalf("output = %q", out)
	}
}

func TestLockStatusJSON(t *testing.T) {
	cfg := writeConfig(t, lockedSim)
	out, err := run(t, "", "-c", cfg, "--json", "lock")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != `{
  "locked": true
}` {
		t.Fatalf("output = %q", out)
	}
}

func TestChipDetectLegacy(t *testing.T) {
	out, err := run(t, "", "--sim", "legacy", "--json", "probe")
	if err != nil {
		t.Fatal(err)
	}
	var p types.ChipProbe
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatal(err)
	}
	if p.Family != "legacy (F0513)" || p.LegacyVersion == nil || p.Chemistry != "5-cell" || p.HardwareHealth {
		t.Fatalf("chip = %+v", p)
	}
}

func TestRaw(t *testing.T) {
	out, err := run(t, "", "--sim", "standard", "raw", "cc", "dc0c", "10")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "42 4C 31 38 35 30") {
		t.Fatalf("raw = %q", out)
	}
}

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want errcode.Code
	}{
		{"cycles too large", []string{"cycles", "5000"}, errcode.InvalidParams},
		{"cycles not a number", []string{"cycles", "many"}, errcode.InvalidParams},
		{"raw bad hex", []string{"raw", "cc", "zz", "2"}, errcode.InvalidParams},
		{"bad template", []string{"factory-reset", "c9"}, errcode.InvalidParams},
		{"bad fault", []string{"inject-fault", "fire"}, errcode.InvalidParams},
		{"compare before save", []string{"compare"}, errcode.NoSavedRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--sim", "standard"}, tt.args...)
			_, err := run(t, "", args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestBadSimKind(t *testing.T) {
	_, err := run(t, "", "--sim", "nicd", "read")
	if err == nil || !strings.Contains(err.Error(), "sim.kind") {
		t.Fatalf("err = %v", err)
	}
}

func TestShellKeepsSession(t *testing.T) {
	script := strings.Join([]string{
		"read",
		"save",
		"compare",
		"clone",
		"clone --yes",
		`leds "on"`,
		"bogus",
		"exit",
		"info", // never reached
	}, "\n")
	out, err := run(t, script, "--sim", "standard", "shell")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	for _, want := range []string{"saved ", "records match", "not written", "clone: ok", "leds: ok", "unknown command"} {
		if !strings.Contains(out, want) {
			t.Fatalf("shell output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Model ") {
		t.Fatal("lines after exit must not run")
	}
}
