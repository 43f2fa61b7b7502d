package makita

import (
	"batterycode-go/errcode"
)

// BatteryData is the snapshot taken by ReadAllBatteryData.
type BatteryData struct {
	ROM       RomID
	Record    Record
	Voltages  Voltages // empty when CellCount == 0
	Chemistry Chemistry
	CellCount int
	TenCell   bool
	Valid     bool
	// Trusted is Record.Verify(). Record-derived fields (capacity, cycles,
	// wear estimates, model) are only decoded from trusted records.
	Trusted bool
}

// Session owns the snapshot cache and the saved-record slot for one Device.
// The cache is cleared when a read starts and only replaced when it finishes,
// so Data never returns a half-written snapshot.
type Session struct {
	*Device

	data  BatteryData
	saved *Record
}

// NewSession wraps dev with an empty cache.
func NewSession(dev *Device) *Session {
	return &Session{Device: dev}
}

// Data returns a copy of the cached snapshot.
func (s *Session) Data() BatteryData {
	out := s.data
	out.Voltages.Cells = append([]float64(nil), s.data.Voltages.Cells...)
	return out
}

// Invalidate drops the cached snapshot.
func (s *Session) Invalidate() { s.data = BatteryData{} }

// ReadAllBatteryData refreshes the cache: warm-up, record read (fatal on
// failure), settle reads, then the 5-cell and 10-cell voltage paths. A record
// without voltages is still a valid snapshot with CellCount 0.
func (s *Session) ReadAllBatteryData() error {
	s.Invalidate()
	s.warmUp()

	rom, rec, err := s.ReadRecord()
	if err != nil {
		return err
	}
	next := BatteryData{ROM: rom, Record: rec, Trusted: rec.Verify()}
	if !next.Trusted {
		s.log.Warn().Hex("record", rec[:]).Msg("record checksum invalid")
	}

	s.settleAfterROM()

	chem, v, err := s.ReadVoltages()
	if err != nil {
		s.log.Warn().Err(err).Msg("no voltage data")
	}
	next.Chemistry = chem
	next.Voltages = v
	next.CellCount = chem.Cells()
	next.TenCell = chem == ChemTenCell
	next.Valid = true

	s.data = next
	s.log.Info().Str("rom", rom.String()).Stringer("chem", chem).Bool("locked", rec.Locked()).Msg("battery read")
	return nil
}

// requireData returns NoData when the cache is empty.
func (s *Session) requireData(op string) error {
	if !s.data.Valid {
		return errcode.New(errcode.NoData, op, "read the battery first")
	}
	return nil
}

// SaveRecord reads the current record into the saved slot.
func (s *Session) SaveRecord() (Record, error) {
	_, rec, err := s.ReadRecord()
	if err != nil {
		return Record{}, err
	}
	saved := rec
	s.saved = &saved
	return rec, nil
}

// Saved returns the saved record, if any.
func (s *Session) Saved() (Record, bool) {
	if s.saved == nil {
		return Record{}, false
	}
	return *s.saved, true
}

// CompareRecord reads the current record and lists bytes that differ from
// the saved one.
func (s *Session) CompareRecord() ([]Diff, error) {
	if s.saved == nil {
		return nil, errcode.New(errcode.NoSavedRecord, "compare", "save a record first")
	}
	_, cur, err := s.ReadRecord()
	if err != nil {
		return nil, err
	}
	return DiffRecords(s.saved, &cur), nil
}

// CloneRecord writes the saved record, with its error cleared, to the
// connected pack. Without confirm nothing is written and it returns false.
func (s *Session) CloneRecord(confirm bool) (bool, error) {
	const op = "clone"
	if s.saved == nil {
		return false, errcode.New(errcode.NoSavedRecord, op, "save a record first")
	}
	if !confirm {
		return false, nil
	}
	rec := *s.saved
	rec.ClearError()
	if err := s.WriteRecord(&rec); err != nil {
		return false, err
	}
	if err := s.verifyWritten(op, &rec); err != nil {
		return false, err
	}
	return true, nil
}

// ModelName asks the pack for its model and falls back to a name derived
// from the cached record.
func (s *Session) ModelName() (string, error) {
	name, err := s.ModelCode()
	if err == nil {
		return name, nil
	}
	if s.data.Valid && s.data.Trusted {
		return ModelFromRecord(&s.data.Record), nil
	}
	return "", err
}
