package makita

import "batterycode-go/errcode"

// Balance grades the cell spread.
type Balance uint8

const (
	BalanceGood Balance = iota // < 20 mV
	BalanceOK                  // < 50 mV
	BalanceFair                // < 150 mV
	BalancePoor
)

func (b Balance) String() string {
	switch b {
	case BalanceGood:
		return "GOOD"
	case BalanceOK:
		return "OK"
	case BalanceFair:
		return "FAIR"
	default:
		return "POOR"
	}
}

// ClassifyBalance grades a spread in volts.
func ClassifyBalance(spread float64) Balance {
	switch {
	case spread < 0.020:
		return BalanceGood
	case spread < 0.050:
		return BalanceOK
	case spread < 0.150:
		return BalanceFair
	default:
		return BalancePoor
	}
}

// Info is the battery summary built from the cache plus a few live reads.
// When Trusted is false only the ROM id, model, error code and lock state are
// filled; the record-derived fields stay zero.
type Info struct {
	Model       string
	ROM         RomID
	Trusted     bool
	Cycles      uint16
	ErrorCode   byte
	Locked      bool
	CapacityMAh uint32
	Type        byte
	Health      Health
	SOC         uint8 // from the lowest cell; 0 without voltages
	HasSOC      bool
}

// Info builds the summary. It needs a valid cache. A record that fails its
// checksums yields the partial Info together with ChecksumInvalid.
func (s *Session) Info() (Info, error) {
	if err := s.requireData("info"); err != nil {
		return Info{}, err
	}
	rec := s.data.Record
	model, err := s.ModelName()
	if err != nil {
		model = ""
	}
	inf := Info{
		Model:     model,
		ROM:       s.data.ROM,
		Trusted:   s.data.Trusted,
		ErrorCode: rec.ErrorCode(),
		Locked:    rec.Locked(),
	}
	if s.data.CellCount > 0 {
		inf.SOC = StateOfCharge(s.data.Voltages.MinCell())
		inf.HasSOC = true
	}
	if !inf.Trusted {
		if s.HasHardwareHealth() {
			inf.Health = s.Health(&rec)
		}
		return inf, errcode.New(errcode.ChecksumInvalid, "info", "record checksums do not verify")
	}
	inf.Cycles = rec.Cycles()
	inf.CapacityMAh = CapacityMilliAmpHours(rec.CapacityCode())
	inf.Type = rec.Type()
	inf.Health = s.Health(&rec)
	return inf, nil
}

// Diagnosis lists the problems found in the cached snapshot.
type Diagnosis struct {
	Undervoltage    bool // a cell below 3.0 V
	Imbalance       bool // error set and spread above 150 mV
	Overtemperature bool // cell above 40 °C
	ChipError       bool // error set with no cell-level cause
	Legacy          bool // F0513: error reset unsupported
}

// OK is true when no problem was found.
func (g Diagnosis) OK() bool {
	return !g.Undervoltage && !g.Imbalance && !g.Overtemperature && !g.ChipError && !g.Legacy
}

// Diagnose inspects the cache. On a faulted legacy chip it only reports
// Legacy, since nothing can be reset.
func (s *Session) Diagnose() (Diagnosis, error) {
	if err := s.requireData("diagnose"); err != nil {
		return Diagnosis{}, err
	}
	var g Diagnosis
	errSet := s.data.Record.ErrorCode() != ErrCodeOK
	v := s.data.Voltages
	if s.data.CellCount > 0 {
		for _, c := range v.Cells {
			if c < 3.0 {
				g.Undervoltage = true
			}
		}
		g.Imbalance = errSet && v.Spread > 0.15
		g.Overtemperature = v.CellTemp.Valid && v.CellTemp.Celsius > 40.0
	}
	if !g.Undervoltage && !g.Imbalance && !g.Overtemperature && !errSet {
		return g, nil
	}
	if s.IsLegacyChip() {
		return Diagnosis{Legacy: true}, nil
	}
	g.ChipError = errSet && !g.Undervoltage && !g.Imbalance
	return g, nil
}
