package makita

import (
	"math"

	"batterycode-go/x/mathx"
)

// SwapNibbles exchanges the high and low nibble.
func SwapNibbles(b byte) byte { return b<<4 | b>>4 }

// IsNewCapacityFormat reports whether a capacity code uses the 1 Ah-per-unit
// encoding. The rule was derived from observed packs only.
func IsNewCapacityFormat(b byte) bool {
	return SwapNibbles(b) > 60 && b >= 1 && b <= 8
}

// CapacityMilliAmpHours decodes the design capacity.
func CapacityMilliAmpHours(b byte) uint32 {
	if IsNewCapacityFormat(b) {
		return uint32(b) * 1000
	}
	return uint32(SwapNibbles(b)) * 100
}

// ModelCapacity is the capacity as printed in model names (tenths of Ah).
func ModelCapacity(b byte) int {
	if IsNewCapacityFormat(b) {
		return int(b) * 10
	}
	return Round5(int(SwapNibbles(b)))
}

var round5Offsets = [5]int{0, -1, -2, 2, 1}

// Round5 rounds a non-negative n to the nearest multiple of five.
func Round5(n int) int {
	return n + round5Offsets[n%5]
}

// StateOfCharge maps a cell voltage linearly from 3.0 V (0 %) to 4.2 V (100 %).
func StateOfCharge(v float64) uint8 {
	switch {
	case v >= 4.20:
		return 100
	case v <= 3.00:
		return 0
	}
	return uint8((v - 3.0) * 83.33)
}

// TenCellVoltage converts one 10-cell block code to volts.
func TenCellVoltage(raw uint16) float64 {
	const (
		intercept     = 5.5
		countsPerVolt = 11916.0
	)
	return intercept - float64(raw)/countsPerVolt
}

// KelvinTenthsToCelsius converts a 0.1 K reading.
func KelvinTenthsToCelsius(raw uint16) float64 {
	return float64(raw)/10.0 - 273.15
}

// legacyTemperature picks the divisor that gives a plausible reading.
func legacyTemperature(raw uint16) float64 {
	t := float64(raw) / 100.0
	if t > 45.0 {
		return float64(raw) / 256.0
	}
	return t
}

func le16(p []byte) uint16 { return uint16(p[0]) | uint16(p[1])<<8 }

// Estimates derived from the record when the pack has no hardware counters.

func EstimatedOverdischarge(code byte) uint8 {
	return uint8(mathx.Percent(-5*int(code) + 160))
}

func EstimatedOverload(code byte) uint8 {
	return uint8(mathx.Percent(5*int(code) - 160))
}

func EstimatedHealth(cycles uint16) uint8 {
	return uint8(mathx.Percent(100 - int(float64(cycles)/8.96)))
}

// Hardware counter decoders.

func hwOverdischarge(rsp []byte) uint8 {
	if rsp[0] == sentinel {
		return 0
	}
	return uint8(min(int(rsp[0])*2, 100))
}

func hwOverload(rsp []byte) uint8 {
	return (rsp[5]&0xF0)>>4 | rsp[6]&0x70
}

func hwHealth(rsp []byte) uint8 {
	raw := rsp[1]
	if raw == sentinel || raw < 10 {
		return 100
	}
	return uint8(mathx.Percent(14 * (int(raw) - 10)))
}

// spreadAndSum returns max-min and the sum of cells.
func spreadAndSum(cells []float64) (spread, sum float64) {
	lo, hi, ok := mathx.MinMax(cells)
	if !ok {
		return 0, 0
	}
	return hi - lo, mathx.Sum(cells)
}

// minCell returns the lowest cell voltage, or NaN for no cells.
func minCell(cells []float64) float64 {
	lo, _, ok := mathx.MinMax(cells)
	if !ok {
		return math.NaN()
	}
	return lo
}
