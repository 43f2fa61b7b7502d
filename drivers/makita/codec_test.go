package makita

import (
	"math"
	"testing"

	"batterycode-go/drivers/onewire"
)

func TestSwapNibblesInvolution(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		if SwapNibbles(SwapNibbles(b)) != b {
			t.Fatalf("swap(swap(%#x)) != %#x", b, b)
		}
	}
	if SwapNibbles(0x12) != 0x21 {
		t.Fatal("SwapNibbles(0x12) != 0x21")
	}
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		code  byte
		isNew bool
		mah   uint32
		model int
	}{
		{0x05, true, 5000, 50},
		{0x06, true, 6000, 60},
		{0x21, false, 1800, 20},
		{0x03, false, 4800, 50}, // swap 0x30 = 48 <= 60
		{0x09, false, 14400, 145},
		{0x00, false, 0, 0},
	}
	for _, tt := range tests {
		if got := IsNewCapacityFormat(tt.code); got != tt.isNew {
			t.Errorf("IsNewCapacityFormat(%#x) = %v", tt.code, got)
		}
		if got := CapacityMilliAmpHours(tt.code); got != tt.mah {
			t.Errorf("CapacityMilliAmpHours(%#x) = %d, want %d", tt.code, got, tt.mah)
		}
		if got := ModelCapacity(tt.code); got != tt.model {
			t.Errorf("ModelCapacity(%#x) = %d, want %d", tt.code, got, tt.model)
		}
	}
}

func TestRound5(t *testing.T) {
	for in, want := range map[int]int{15: 15, 16: 15, 17: 15, 18: 20, 19: 20, 30: 30, 0: 0} {
		if got := Round5(in); got != want {
			t.Errorf("Round5(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTenCellVoltage(t *testing.T) {
	if got := TenCellVoltage(0x0000); got != 5.5 {
		t.Fatalf("TenCellVoltage(0) = %v", got)
	}
	raw := le16([]byte{0x8C, 0x2E})
	if raw != 11916 {
		t.Fatalf("le16 = %d", raw)
	}
	if got := TenCellVoltage(raw); math.Abs(got-4.5) > 1e-9 {
		t.Fatalf("TenCellVoltage(11916) = %v", got)
	}
}

func TestStateOfCharge(t *testing.T) {
	tests := []struct {
		v    float64
		want uint8
	}{
		{4.25, 100}, {4.20, 100}, {3.0, 0}, {2.5, 0}, {3.6, 49}, {3.9, 74},
	}
	for _, tt := range tests {
		if got := StateOfCharge(tt.v); got != tt.want {
			t.Errorf("StateOfCharge(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestEstimates(t *testing.T) {
	if got := EstimatedOverdischarge(20); got != 60 {
		t.Errorf("overdischarge(20) = %d", got)
	}
	if got := EstimatedOverdischarge(40); got != 0 {
		t.Errorf("overdischarge(40) = %d", got)
	}
	if got := EstimatedOverdischarge(0); got != 100 {
		t.Errorf("overdischarge(0) = %d", got)
	}
	if got := EstimatedOverload(40); got != 40 {
		t.Errorf("overload(40) = %d", got)
	}
	if got := EstimatedOverload(10); got != 0 {
		t.Errorf("overload(10) = %d", got)
	}
	if got := EstimatedHealth(0); got != 100 {
		t.Errorf("health(0) = %d", got)
	}
	if got := EstimatedHealth(100); got != 89 {
		t.Errorf("health(100) = %d", got)
	}
	if got := EstimatedHealth(MaxCycles); got != 0 {
		t.Errorf("health(max) = %d", got)
	}
}

func TestHardwareDecoders(t *testing.T) {
	if got := hwOverdischarge([]byte{0xFF, 0x06}); got != 0 {
		t.Errorf("overdischarge sentinel = %d", got)
	}
	if got := hwOverdischarge([]byte{0x0A, 0x06}); got != 20 {
		t.Errorf("overdischarge = %d", got)
	}
	if got := hwOverdischarge([]byte{0x40, 0x06}); got != 100 {
		t.Errorf("overdischarge clamp = %d", got)
	}
	if got := hwOverload([]byte{0, 0, 0, 0, 0, 0x3F, 0x1F, 0}); got != 0x13 {
		t.Errorf("overload = %#x", got)
	}
	for raw, want := range map[byte]uint8{0xFF: 100, 9: 100, 10: 0, 15: 70, 20: 100} {
		if got := hwHealth([]byte{0, raw, 0}); got != want {
			t.Errorf("health(%d) = %d, want %d", raw, got, want)
		}
	}
}

func TestCycles(t *testing.T) {
	var r Record
	for _, n := range []uint16{0, 1, 42, 0x123, MaxCycles} {
		r.SetCycles(n)
		if got := r.Cycles(); got != n {
			t.Fatalf("Cycles() = %d, want %d", got, n)
		}
	}
	r.SetCycles(0x123)
	if r[26] != 0x10 || r[27] != 0x32 {
		t.Fatalf("bytes 26/27 = %#x %#x", r[26], r[27])
	}
}

func TestRomDate(t *testing.T) {
	rom := RomID{0x17, 0x06, 0x15}
	if got := rom.DateString(); got != "21-06-2023" {
		t.Fatalf("DateString = %q", got)
	}
}

func TestRomCRC(t *testing.T) {
	rom := RomID{0x17, 0x06, 0x15, 0x42, 0x13, 0x37, 0x00}
	rom[7] = onewire.CRC8(rom[:7])
	if !rom.CRCValid() {
		t.Fatal("CRC8 of bytes 0..6 should validate")
	}
	rom[3] ^= 0x01
	if rom.CRCValid() {
		t.Fatal("corrupted ROM id validated")
	}
}

func TestRecordFingerprint(t *testing.T) {
	var a Record
	b := a
	b[26] = 0x10
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("fingerprint should change with the record")
	}
	if a.Fingerprint() != onewire.CRC16(a[:]) {
		t.Fatal("fingerprint is CRC-16/MAXIM of the record")
	}
}

func TestModelFromRecord(t *testing.T) {
	var r Record
	r[offCapacity] = 0x05
	r[offOverload] = SwapNibbles(0x0D)
	if got := ModelFromRecord(&r); got != "BL1850" {
		t.Errorf("got %q", got)
	}
	r[offOverload] = SwapNibbles(0x02)
	if got := ModelFromRecord(&r); got != "BL1450" {
		t.Errorf("got %q", got)
	}
	r[offType] = SwapNibbles(14)
	if got := ModelFromRecord(&r); got != "BL3626" {
		t.Errorf("got %q", got)
	}
}

func TestClassifyBalance(t *testing.T) {
	tests := []struct {
		spread float64
		want   Balance
	}{
		{0.0, BalanceGood}, {0.019, BalanceGood}, {0.03, BalanceOK}, {0.1, BalanceFair}, {0.2, BalancePoor},
	}
	for _, tt := range tests {
		if got := ClassifyBalance(tt.spread); got != tt.want {
			t.Errorf("ClassifyBalance(%v) = %v, want %v", tt.spread, got, tt.want)
		}
	}
}
