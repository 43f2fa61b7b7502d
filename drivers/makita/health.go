package makita

// Health is the wear summary shown to users. Values are percentages except
// Overload from hardware counters, which is the raw counter.
type Health struct {
	Overdischarge uint8
	Overload      uint8
	Health        uint8
	Hardware      bool // read from the BMS rather than estimated
}

// HasHardwareHealth probes whether the pack keeps wear counters itself.
func (d *Device) HasHardwareHealth() bool {
	rsp, _ := d.SendCommand(SelectSkipROM, cmdHealthProbe, healthProbeLen)
	return rsp[1] == 0x06
}

// Health reads hardware counters when available, else estimates from rec.
func (d *Device) Health(rec *Record) Health {
	if d.HasHardwareHealth() {
		return Health{
			Overdischarge: d.hardwareOverdischarge(),
			Overload:      d.hardwareOverload(),
			Health:        d.hardwareHealth(),
			Hardware:      true,
		}
	}
	return EstimateHealth(rec)
}

// EstimateHealth derives wear figures from the record alone.
func EstimateHealth(rec *Record) Health {
	return Health{
		Overdischarge: EstimatedOverdischarge(rec.OverdischargeRaw()),
		Overload:      EstimatedOverload(rec.OverloadRaw()),
		Health:        EstimatedHealth(rec.Cycles()),
	}
}

func (d *Device) hardwareOverdischarge() uint8 {
	rsp, _ := d.SendCommand(SelectSkipROM, cmdHealthProbe, healthProbeLen)
	return hwOverdischarge(rsp)
}

func (d *Device) hardwareOverload() uint8 {
	rsp, _ := d.SendCommand(SelectSkipROM, cmdOverload, overloadLen)
	return hwOverload(rsp)
}

func (d *Device) hardwareHealth() uint8 {
	rsp, _ := d.SendCommand(SelectSkipROM, cmdHealth, healthLen)
	return hwHealth(rsp)
}
