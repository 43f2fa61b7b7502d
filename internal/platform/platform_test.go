package platform

import (
	"errors"
	"testing"

	"batterycode-go/drivers/makita"
	"batterycode-go/internal/config"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
)

func TestPinPowerLevels(t *testing.T) {
	tests := []struct {
		activeLow bool
		on        bool
		want      gpio.Level
	}{
		{false, true, gpio.High},
		{false, false, gpio.Low},
		{true, true, gpio.Low},
		{true, false, gpio.High},
	}
	for _, tt := range tests {
		var got []gpio.Level
		p := NewPinPower(func(l gpio.Level) error { got = append(got, l); return nil }, tt.activeLow)
		if err := p.SetPower(tt.on); err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != tt.want {
			t.Fatalf("activeLow=%v on=%v: wrote %v, want %v", tt.activeLow, tt.on, got, tt.want)
		}
	}
}

func TestPinPowerError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPinPower(func(gpio.Level) error { return boom }, false)
	if err := p.SetPower(true); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenSim(t *testing.T) {
	cfg, err := config.Parse([]byte("transport: {kind: sim}\nsim: {kind: standard, error_code: 1}\n"))
	if err != nil {
		t.Fatal(err)
	}
	h, err := Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()
	if h.Sim == nil {
		t.Fatal("expected a simulated pack")
	}
	s := makita.NewSession(h.Device(nil))
	if err := s.ReadAllBatteryData(); err != nil {
		t.Fatalf("read: %v", err)
	}
	d := s.Data()
	if !d.Record.Locked() || d.Record.ErrorCode() != 1 {
		t.Fatalf("want locked pack with error 1, got %02x", d.Record.ErrorCode())
	}
	if !d.Record.Verify() {
		t.Fatal("sim record checksum should verify")
	}
}

func TestNewSimKinds(t *testing.T) {
	tests := []struct {
		kind   string
		legacy bool
		cells  int
	}{
		{"standard", false, 5},
		{"legacy", true, 5},
		{"tencell", false, 10},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			b := NewSim(config.SimConfig{Kind: tt.kind})
			s := makita.NewSession(makita.New(b, b, makita.Config{Sleeper: nopSleeper{}}))
			if got := s.IsLegacyChip(); got != tt.legacy {
				t.Fatalf("legacy = %v, want %v", got, tt.legacy)
			}
			if err := s.ReadAllBatteryData(); err != nil {
				t.Fatal(err)
			}
			if n := s.Data().CellCount; n != tt.cells {
				t.Fatalf("cells = %d, want %d", n, tt.cells)
			}
		})
	}
}

type closeRec struct {
	name  string
	order *[]string
	err   error
}

func (c closeRec) Close() error { *c.order = append(*c.order, c.name); return c.err }

func TestCloseReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	h := &Hardware{}
	h.closers = append(h.closers, closeRec{"bus", &order, nil}, closeRec{"port", &order, boom})
	if err := h.Close(); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(order) != 2 || order[0] != "port" || order[1] != "bus" {
		t.Fatalf("order = %v", order)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
