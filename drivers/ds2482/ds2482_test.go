package ds2482

import (
	"errors"
	"testing"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*fakeBridge)(nil)

// Register details the driver never reads but the fake bridge reports.
const (
	fakePtrConfig = 0xC3
	fakeStatusLL  = 0x08 // logic level
)

// fakeBridge models just enough of a DS2482-100 to exercise the command set.
type fakeBridge struct {
	ptr      byte
	status   byte
	config   byte
	data     byte
	present  bool
	short    bool
	busyFor  int // polls that still report 1WB
	rx       []byte
	written  []byte
	bitsOut  []bool
	readBit  bool
	lastAddr uint16
}

func (f *fakeBridge) Tx(addr uint16, w, r []byte) error {
	f.lastAddr = addr
	if len(w) == 0 {
		if len(r) > 0 {
			r[0] = f.poll()
		}
		return nil
	}
	switch w[0] {
	case cmdDeviceReset:
		f.ptr = ptrStatus
		f.status = statusRST | fakeStatusLL
		f.config = 0
	case cmdWriteConfig:
		f.config = w[1] & 0x0F
		f.status &^= statusRST
		f.ptr = fakePtrConfig
	case cmdSetReadPtr:
		f.ptr = w[1]
	case cmd1WReset:
		f.status = fakeStatusLL
		if f.present {
			f.status |= statusPPD
		}
		if f.short {
			f.status |= statusSD
		}
		f.begin()
	case cmd1WSingleBit:
		f.status = fakeStatusLL
		if w[1]&0x80 != 0 && f.readBit {
			f.status |= statusSBR
		}
		f.bitsOut = append(f.bitsOut, w[1]&0x80 != 0)
		f.begin()
	case cmd1WWriteByte:
		f.written = append(f.written, w[1])
		f.status = fakeStatusLL
		f.begin()
	case cmd1WReadByte:
		f.data = 0xFF
		if len(f.rx) > 0 {
			f.data, f.rx = f.rx[0], f.rx[1:]
		}
		f.status = fakeStatusLL
		f.begin()
	}
	if len(r) > 0 {
		r[0] = f.read()
	}
	return nil
}

func (f *fakeBridge) begin() {
	f.ptr = ptrStatus
	f.status |= status1WB
}

func (f *fakeBridge) poll() byte {
	if f.ptr == ptrStatus && f.status&status1WB != 0 {
		if f.busyFor > 0 {
			f.busyFor--
		} else {
			f.status &^= status1WB
		}
		return f.status | status1WB
	}
	return f.read()
}

func (f *fakeBridge) read() byte {
	switch f.ptr {
	case ptrData:
		return f.data
	case fakePtrConfig:
		return f.config
	default:
		return f.status
	}
}

func TestConfigureWritesComplementedConfig(t *testing.T) {
	f := &fakeBridge{}
	d := New(f)
	if err := d.Configure(Config{ActivePullup: true}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if f.config != cfgAPU {
		t.Fatalf("config = %#x, want %#x", f.config, cfgAPU)
	}
	if f.lastAddr != Address {
		t.Fatalf("addr = %#x", f.lastAddr)
	}
}

func TestResetPresence(t *testing.T) {
	tests := []struct {
		name    string
		present bool
		short   bool
		want    bool
		wantErr error
	}{
		{"present", true, false, true, nil},
		{"absent", false, false, false, nil},
		{"short", true, true, false, ErrShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeBridge{present: tt.present, short: tt.short, busyFor: 2}
			d := New(f)
			got, err := d.Reset()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("present = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestByteTransfers(t *testing.T) {
	f := &fakeBridge{rx: []byte{0x12, 0x34}}
	d := New(f)
	if err := d.WriteBytes([]byte{0xCC, 0xD7}); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}
	if string(f.written) != "\xCC\xD7" {
		t.Fatalf("written = % X", f.written)
	}
	buf := make([]byte, 3)
	if err := d.ReadBytes(buf); err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if buf[0] != 0x12 || buf[1] != 0x34 || buf[2] != 0xFF {
		t.Fatalf("read = % X", buf)
	}
}

func TestBits(t *testing.T) {
	f := &fakeBridge{readBit: true}
	d := New(f)
	if err := d.WriteBit(false); err != nil {
		t.Fatal(err)
	}
	b, err := d.ReadBit()
	if err != nil || !b {
		t.Fatalf("ReadBit = %v, %v", b, err)
	}
	if len(f.bitsOut) != 2 || f.bitsOut[0] || !f.bitsOut[1] {
		t.Fatalf("slots = %v", f.bitsOut)
	}
}

func TestBusyTimeout(t *testing.T) {
	f := &fakeBridge{present: true, busyFor: 1000}
	d := New(f)
	if err := d.Configure(Config{PollLimit: 4}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Reset(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}
