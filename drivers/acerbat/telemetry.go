package acerbat

import (
	"math"

	"batterycode-go/x/mathx"
)

// Milliseconds per hour; scales energy/rate into the host's time unit.
const msPerHour = 60 * 60 * 1000

// Raw holds one read of every controller register.
// Zero values remain where individual reads failed.
type Raw struct {
	Status  uint8
	Energy  uint16
	Voltage uint16
	Rate    uint16

	// StatusFailed marks a STATUS read that exhausted its retries. A zero
	// byte would otherwise decode as Full.
	StatusFailed bool
}

// rawWords are the word registers ReadRaw covers after STATUS, in read order.
var rawWords = [...]Register{RegEnergy, RegVoltage, RegRate}

// RawReads is the number of byte exchanges in one ReadRaw: STATUS plus two
// per word register.
const RawReads = 1 + 2*len(rawWords)

// ReadRaw reads the status byte and the three word registers once each.
func ReadRaw(h Handle) Raw {
	st, ok := readStatus(h)
	var w [len(rawWords)]uint16
	for i, reg := range rawWords {
		w[i] = ReadWord(h, reg)
	}
	return Raw{
		Status:       st,
		StatusFailed: !ok,
		Energy:       w[0],
		Voltage:      w[1],
		Rate:         w[2],
	}
}

func readStatus(h Handle) (uint8, bool) {
	r := ReadByteResult(h, RegStatus)
	if !r.OK {
		h.diag().TransferFailed(r)
	}
	return r.Value, r.OK
}

// RateMagnitude undoes the two's-complement sign of the RATE word so that
// charge and discharge both yield a positive magnitude.
func RateMagnitude(raw uint16) uint32 {
	if raw > 0x7FFF {
		return 0x10000 - uint32(raw)
	}
	return uint32(raw)
}

func (r Raw) EnergyNow_mWh() uint32  { return uint32(r.Energy) * 10 }
func (r Raw) EnergyFull_mWh() uint32 { return DesignEnergyFull_mWh }
func (r Raw) Voltage_mV() uint32     { return uint32(r.Voltage) }

// Rate_mW fits in 32 bits: 0x8000 * 0xFFFF < 2^32.
func (r Raw) Rate_mW() uint32 { return RateMagnitude(r.Rate) * r.Voltage_mV() }

func (r Raw) BatteryStatus() Status {
	if r.StatusFailed {
		return StatusUnknown
	}
	return DecodeStatus(r.Status)
}

func (r Raw) Current_mA() uint32 {
	v := r.Voltage_mV()
	if v == 0 {
		return 0
	}
	return r.Rate_mW() / v
}

func (r Raw) Capacity() uint32 { return CapacityPercent(r.EnergyNow_mWh(), r.EnergyFull_mWh()) }

func (r Raw) Level() CapacityLevel { return LevelFor(r.Capacity()) }

func (r Raw) TimeToEmpty() uint32 { return TimeToEmptyFrom(r.EnergyNow_mWh(), r.Rate_mW()) }

func (r Raw) TimeToFull() uint32 {
	return TimeToFullFrom(r.EnergyNow_mWh(), r.EnergyFull_mWh(), r.Rate_mW())
}

// CapacityPercent is 100*now/full, or 0 when full is 0.
func CapacityPercent(now, full uint32) uint32 {
	if full == 0 {
		return 0
	}
	return uint32(100 * uint64(now) / uint64(full))
}

// TimeToEmptyFrom is now*3.6e6/rate, or 0 when rate is 0.
func TimeToEmptyFrom(now_mWh, rate_mW uint32) uint32 {
	if rate_mW == 0 {
		return 0
	}
	return scaleTime(uint64(now_mWh), rate_mW)
}

// TimeToFullFrom is max(full-now, 0)*3.6e6/rate, or 0 when rate is 0.
func TimeToFullFrom(now_mWh, full_mWh, rate_mW uint32) uint32 {
	if rate_mW == 0 {
		return 0
	}
	missing := mathx.Max(int64(full_mWh)-int64(now_mWh), 0)
	return scaleTime(uint64(missing), rate_mW)
}

// scaleTime saturates at MaxInt32, the widest value the host can carry.
func scaleTime(energy uint64, rate uint32) uint32 {
	t := energy * msPerHour / uint64(rate)
	return uint32(mathx.Min(t, math.MaxInt32))
}

// Live derivations. Each performs its own fresh register reads.

func EnergyNow_mWh(h Handle) uint32 { return Raw{Energy: ReadWord(h, RegEnergy)}.EnergyNow_mWh() }

func EnergyFull_mWh(Handle) uint32 { return DesignEnergyFull_mWh }

func Voltage_mV(h Handle) uint32 { return uint32(ReadWord(h, RegVoltage)) }

func Rate_mW(h Handle) uint32 {
	return Raw{Rate: ReadWord(h, RegRate), Voltage: ReadWord(h, RegVoltage)}.Rate_mW()
}

// Current_mA reads the voltage once and reuses it for the rate product.
func Current_mA(h Handle) uint32 {
	v := ReadWord(h, RegVoltage)
	if v == 0 {
		return 0
	}
	return Raw{Rate: ReadWord(h, RegRate), Voltage: v}.Current_mA()
}

// BatteryStatus reports Unknown when the controller cannot be read.
func BatteryStatus(h Handle) Status {
	b, ok := readStatus(h)
	return Raw{Status: b, StatusFailed: !ok}.BatteryStatus()
}

func Capacity(h Handle) uint32 { return CapacityPercent(EnergyNow_mWh(h), EnergyFull_mWh(h)) }

func Level(h Handle) CapacityLevel { return LevelFor(Capacity(h)) }

func TimeToEmpty(h Handle) uint32 {
	rate := Rate_mW(h)
	if rate == 0 {
		return 0
	}
	return TimeToEmptyFrom(EnergyNow_mWh(h), rate)
}

func TimeToFull(h Handle) uint32 {
	rate := Rate_mW(h)
	if rate == 0 {
		return 0
	}
	return TimeToFullFrom(EnergyNow_mWh(h), EnergyFull_mWh(h), rate)
}
