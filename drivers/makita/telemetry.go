package makita

import (
	"batterycode-go/errcode"
)

// Temperature is a reading that may be unavailable.
type Temperature struct {
	Celsius float64
	Valid   bool
}

// Voltages is one decoded voltage and temperature snapshot.
type Voltages struct {
	Cells      []float64 // volts, 5 or 10 entries
	Spread     float64   // max - min
	Pack       float64   // sum of cells
	CellTemp   Temperature
	MosfetTemp Temperature
}

// MinCell returns the lowest cell voltage (NaN with no cells).
func (v Voltages) MinCell() float64 { return minCell(v.Cells) }

// CellTemperature reads the cell thermistor.
func (d *Device) CellTemperature() Temperature { return d.readTemperature(cmdCellTemp) }

// MosfetTemperature reads the FET thermistor.
func (d *Device) MosfetTemperature() Temperature { return d.readTemperature(cmdMosfetTemp) }

func (d *Device) readTemperature(cmd []byte) Temperature {
	rsp, err := d.SendCommand(SelectSkipROM, cmd, tempLen)
	if err != nil || (rsp[0] == sentinel && rsp[1] == sentinel) {
		return Temperature{}
	}
	return Temperature{Celsius: KelvinTenthsToCelsius(le16(rsp)), Valid: true}
}

// ReadVoltages5 reads the 5-cell data block. When the block is the sentinel
// (F0513 chips) it falls back to the per-cell legacy queries. Older chips
// report doubled cell voltages; all cells are halved when any exceeds 5 V.
func (d *Device) ReadVoltages5() (Voltages, error) {
	var out Voltages
	// raw[2..11] hold five little-endian millivolt values in both paths.
	raw, _ := d.SendCommand(SelectSkipROM, cmdDataBlock, dataBlockLen)

	if raw[0] == sentinel && raw[1] == sentinel {
		d.log.Debug().Msg("data block unavailable, using legacy cell queries")
		raw = make([]byte, 12)
		for i := range raw {
			raw[i] = sentinel
		}
		for i := 0; i < 5; i++ {
			rsp, _ := d.SendCommand(SelectSkipROM, []byte{legacyCell1 + byte(i)}, 2)
			copy(raw[2+2*i:], rsp)
		}
		rsp, _ := d.SendCommand(SelectSkipROM, cmdLegacyTemp, 2)
		if !(rsp[0] == sentinel && rsp[1] == sentinel) {
			out.CellTemp = Temperature{Celsius: legacyTemperature(le16(rsp)), Valid: true}
		}
	} else {
		out.CellTemp = d.CellTemperature()
		out.MosfetTemp = d.MosfetTemperature()
	}

	if raw[2] == sentinel && raw[3] == sentinel {
		return Voltages{}, errcode.New(errcode.NoData, "voltages5", "no cell data")
	}

	cells := make([]float64, 5)
	doubled := false
	for i := range cells {
		cells[i] = float64(le16(raw[2+2*i:])) / 1000.0
		if cells[i] > 5.0 {
			doubled = true
		}
	}
	if doubled {
		for i := range cells {
			cells[i] /= 2
		}
	}
	out.Cells = cells
	out.Spread, out.Pack = spreadAndSum(cells)
	return out, nil
}

// ReadVoltages10 enters the 10-cell test mode and reads the 20-byte block.
// No temperatures are available on this path.
func (d *Device) ReadVoltages10() (Voltages, error) {
	if _, err := d.SendCommand(SelectSkipROM, cmdTenCellTest, 0); err != nil {
		return Voltages{}, err
	}
	rsp, err := d.SendCommand(selectTenCellBlock, nil, tenCellLen)
	if err != nil {
		return Voltages{}, err
	}
	cells := make([]float64, 10)
	for i := range cells {
		cells[i] = TenCellVoltage(le16(rsp[2*i:]))
	}
	var out Voltages
	out.Cells = cells
	out.Spread, out.Pack = spreadAndSum(cells)
	return out, nil
}
