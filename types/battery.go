package types

// ------------------------
// Makita pack reports (rendered by cmd/makita --json)
// ------------------------

// Snapshot of one full read.
type BatteryReport struct {
	ROM       string        `json:"rom"`
	ROMCRC    bool          `json:"rom_crc_ok"`
	Date      string        `json:"date"` // day-month-year from the ROM id
	Chemistry string        `json:"chemistry"`
	Cells     uint8         `json:"cells"`
	Record    string        `json:"record"` // 32 bytes, hex
	RecordCRC uint16        `json:"record_crc16"`
	Checksum  bool          `json:"checksum_ok"`
	Voltages  *VoltageValue `json:"voltages,omitempty"`
}

type VoltageValue struct {
	CellsMilliV  []int32 `json:"cells_mV"`
	SpreadMilliV int32   `json:"spread_mV"`
	PackMilliV   int32   `json:"pack_mV"`
	CellTempMC   *int32  `json:"cell_temp_mC,omitempty"`   // nil = unavailable
	MosfetTempMC *int32  `json:"mosfet_temp_mC,omitempty"` // nil = unavailable
	Balance      string  `json:"balance"`                  // GOOD | OK | FAIR | POOR
}

type HealthSource string

const (
	HealthBMS      HealthSource = "bms"
	HealthEstimate HealthSource = "est"
)

type HealthValue struct {
	Overdischarge uint8        `json:"overdischarge_pct"`
	Overload      uint8        `json:"overload"`
	Health        uint8        `json:"health_pct"`
	Source        HealthSource `json:"source"`
}

type BatteryInfo struct {
	Model       string       `json:"model"`
	ROM         string       `json:"rom"`
	Date        string       `json:"date"`
	Trusted     bool         `json:"trusted"` // record checksums verify; false leaves record fields zero
	Cycles      uint16       `json:"cycles"`
	ErrorCode   uint8        `json:"error_code"`
	ErrorLabel  string       `json:"error_label"`
	Locked      bool         `json:"locked"`
	CapacityMAh uint32       `json:"capacity_mAh"`
	Type        uint8        `json:"type"`
	Health      *HealthValue `json:"health,omitempty"` // nil unless trusted or read from the BMS
	SOC         *uint8       `json:"soc_pct,omitempty"`
}

type DiagnosisValue struct {
	OK              bool `json:"ok"`
	Undervoltage    bool `json:"undervoltage,omitempty"`
	Imbalance       bool `json:"imbalance,omitempty"`
	Overtemperature bool `json:"overtemperature,omitempty"`
	ChipError       bool `json:"chip_error,omitempty"`
	Legacy          bool `json:"legacy_unsupported,omitempty"`
}

type UnlockResult struct {
	Phase   string `json:"phase"`
	Success bool   `json:"success"`
	Legacy  bool   `json:"legacy,omitempty"` // F0513: test-mode steps had no effect
	Error   string `json:"error,omitempty"`
}

type RecordDiff struct {
	Index uint8  `json:"index"`
	Field string `json:"field,omitempty"`
	Old   uint8  `json:"old"`
	New   uint8  `json:"new"`
}

type ChargerCheck struct {
	RecordOK       bool   `json:"record_ok"`
	ErrorCode      uint8  `json:"error_code"`
	Locked         bool   `json:"locked"`
	CellTempMC     *int32 `json:"cell_temp_mC,omitempty"`
	MosfetTempMC   *int32 `json:"mosfet_temp_mC,omitempty"`
	DataBlockOK    bool   `json:"data_block_ok"`
	HardwareHealth bool   `json:"hardware_health"`
	Passed         bool   `json:"passed"`
}

// Generic result for write-style commands.
type OpResult struct {
	Op    string `json:"op"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"` // errcode value on failure
	Error string `json:"error,omitempty"`
}

type RawResponse struct {
	Selector uint8  `json:"selector"`
	Payload  string `json:"payload"`  // hex
	Response string `json:"response"` // hex
}

// Capability probes.
type ChipProbe struct {
	Family         string  `json:"family"` // standard | legacy (F0513)
	Chemistry      string  `json:"chemistry"`
	LegacyVersion  *uint16 `json:"legacy_version,omitempty"`
	HardwareHealth bool    `json:"hardware_health"`
}
