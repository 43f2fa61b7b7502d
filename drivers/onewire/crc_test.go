package onewire

import "testing"

func TestCRC8(t *testing.T) {
	// CRC-8/MAXIM check value.
	if got := CRC8([]byte("123456789")); got != 0xA1 {
		t.Fatalf("CRC8 = 0x%02X, want 0xA1", got)
	}
	rom := []byte{0x28, 0x4C, 0x66, 0x61, 0x16, 0x04, 0x00}
	rom = append(rom, CRC8(rom))
	if CRC8(rom) != 0 {
		t.Fatal("crc over data+crc must be zero")
	}
}

func TestCRC16(t *testing.T) {
	// CRC-16/MAXIM check value.
	if got := CRC16([]byte("123456789")); got != 0x44C2 {
		t.Fatalf("CRC16 = 0x%04X, want 0x44C2", got)
	}
	p := []byte{0x0F, 0x00, 0x00, 0x01, 0x02}
	c := CRC16(p)
	if !CheckCRC16(p, [2]byte{byte(c), byte(c >> 8)}) {
		t.Fatal("CheckCRC16 rejected its own value")
	}
}

func TestNopPowerRemembersLevel(t *testing.T) {
	var p NopPower
	_ = p.SetPower(true)
	if !p.On {
		t.Fatal("expected on")
	}
	_ = p.SetPower(false)
	if p.On {
		t.Fatal("expected off")
	}
}
