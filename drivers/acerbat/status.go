package acerbat

// Status mirrors the host power-supply status values.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusCharging
	StatusDischarging
	StatusNotCharging
	StatusFull
)

var statusNames = [...]string{"Unknown", "Charging", "Discharging", "Not charging", "Full"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return statusNames[StatusUnknown]
}

const (
	statusDischargingBit = 0x01
	statusChargingBit    = 0x02
)

// DecodeStatus classifies the STATUS byte. The discharging bit wins when
// both are set, so the final Unknown arm is only reached by patterns the
// earlier arms leave unmatched.
func DecodeStatus(b uint8) Status {
	switch {
	case b&statusDischargingBit != 0:
		return StatusDischarging
	case b&statusChargingBit != 0:
		return StatusCharging
	case b&(statusDischargingBit|statusChargingBit) == 0:
		return StatusFull
	default:
		return StatusUnknown
	}
}

// CapacityLevel mirrors the host's coarse capacity buckets.
type CapacityLevel uint8

const (
	LevelUnknown CapacityLevel = iota
	LevelCritical
	LevelLow
	LevelNormal
	LevelHigh
	LevelFull
)

var levelNames = [...]string{"Unknown", "Critical", "Low", "Normal", "High", "Full"}

func (l CapacityLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return levelNames[LevelUnknown]
}

// LevelFor buckets a capacity percentage. 100 is tested first so a full
// battery never lands in a lower bucket.
func LevelFor(pct uint32) CapacityLevel {
	switch {
	case pct == 100:
		return LevelFull
	case pct <= 5:
		return LevelCritical
	case pct <= 15:
		return LevelLow
	default:
		return LevelNormal
	}
}

// Technology mirrors the host's cell chemistry identifiers.
type Technology uint8

const (
	TechUnknown Technology = iota
	TechNiMH
	TechLiIon
	TechLiPoly
	TechLiFe
	TechNiCd
	TechLiMn
)

var techNames = [...]string{"Unknown", "NiMH", "Li-ion", "Li-poly", "LiFe", "NiCd", "LiMn"}

func (t Technology) String() string {
	if int(t) < len(techNames) {
		return techNames[t]
	}
	return techNames[TechUnknown]
}
