package acerbat

import (
	"errors"

	"batterycode-go/x/conv"
)

// ErrUnsupportedProperty is the only error the driver surfaces.
var ErrUnsupportedProperty = errors.New("unsupported property")

// Static descriptive metadata. Not measured.
const (
	Manufacturer = "Acer"
	ModelName    = "Switch 11 Battery"
	CellTech     = TechLiIon
)

// Property enumerates host power-supply property identifiers. Only those in
// SupportedProperties are answered.
type Property uint8

const (
	PropStatus Property = iota
	PropChargeType
	PropHealth
	PropPresent
	PropOnline
	PropTechnology
	PropCycleCount
	PropVoltageNow
	PropCurrentNow
	PropChargeFull
	PropChargeNow
	PropEnergyFull
	PropEnergyNow
	PropCapacity
	PropCapacityLevel
	PropTemp
	PropTimeToEmptyNow
	PropTimeToFullNow
	PropModelName
	PropManufacturer
	PropSerialNumber
	numProperties
)

var propNames = [numProperties]string{
	PropStatus:         "status",
	PropChargeType:     "charge_type",
	PropHealth:         "health",
	PropPresent:        "present",
	PropOnline:         "online",
	PropTechnology:     "technology",
	PropCycleCount:     "cycle_count",
	PropVoltageNow:     "voltage_now",
	PropCurrentNow:     "current_now",
	PropChargeFull:     "charge_full",
	PropChargeNow:      "charge_now",
	PropEnergyFull:     "energy_full",
	PropEnergyNow:      "energy_now",
	PropCapacity:       "capacity",
	PropCapacityLevel:  "capacity_level",
	PropTemp:           "temp",
	PropTimeToEmptyNow: "time_to_empty_now",
	PropTimeToFullNow:  "time_to_full_now",
	PropModelName:      "model_name",
	PropManufacturer:   "manufacturer",
	PropSerialNumber:   "serial_number",
}

func (p Property) String() string {
	if p < numProperties {
		return propNames[p]
	}
	return "unknown"
}

// ParseProperty maps a sysfs-style name back to its identifier.
func ParseProperty(name string) (Property, bool) {
	for i, n := range propNames {
		if n == name {
			return Property(i), true
		}
	}
	return 0, false
}

// SupportedProperties is the advertised capability list.
var SupportedProperties = [...]Property{
	PropStatus,
	PropCapacity,
	PropCapacityLevel,
	PropTimeToEmptyNow,
	PropTimeToFullNow,
	PropVoltageNow,
	PropCurrentNow,
	PropPresent,
	PropEnergyFull,
	PropEnergyNow,
	PropTechnology,
	PropModelName,
	PropManufacturer,
}

// Properties returns a copy of the advertised list.
func Properties() []Property {
	out := make([]Property, len(SupportedProperties))
	copy(out, SupportedProperties[:])
	return out
}

// Supported reports whether p is in the advertised list.
func Supported(p Property) bool {
	for _, s := range SupportedProperties {
		if s == p {
			return true
		}
	}
	return false
}

type ValueKind uint8

const (
	ValueInt ValueKind = iota
	ValueString
)

// Value is a property answer: an integer or a short string.
type Value struct {
	Kind ValueKind
	Int  int32
	Str  string
}

func IntValue(v int32) Value     { return Value{Kind: ValueInt, Int: v} }
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

func (v Value) String() string {
	if v.Kind == ValueString {
		return v.Str
	}
	var buf [12]byte
	return string(conv.Itoa(buf[:], int64(v.Int)))
}

// Format renders v for p, naming enumerated values.
func (p Property) Format(v Value) string {
	if v.Kind == ValueInt {
		switch p {
		case PropStatus:
			return Status(v.Int).String()
		case PropCapacityLevel:
			return CapacityLevel(v.Int).String()
		case PropTechnology:
			return Technology(v.Int).String()
		}
	}
	return v.String()
}

// GetProperty answers one property from a fresh read of the controller.
// Energy is reported in µWh; the engine works in mWh.
func GetProperty(h Handle, p Property) (Value, error) {
	switch p {
	case PropCapacity:
		return IntValue(int32(Capacity(h))), nil
	case PropStatus:
		return IntValue(int32(BatteryStatus(h))), nil
	case PropTimeToEmptyNow:
		return IntValue(int32(TimeToEmpty(h))), nil
	case PropTimeToFullNow:
		return IntValue(int32(TimeToFull(h))), nil
	case PropVoltageNow:
		return IntValue(int32(Voltage_mV(h))), nil
	case PropCurrentNow:
		return IntValue(int32(Current_mA(h))), nil
	case PropEnergyFull:
		return IntValue(int32(EnergyFull_mWh(h) * 1000)), nil
	case PropEnergyNow:
		return IntValue(int32(EnergyNow_mWh(h) * 1000)), nil
	case PropCapacityLevel:
		return IntValue(int32(Level(h))), nil
	case PropPresent:
		return IntValue(1), nil
	case PropTechnology:
		return IntValue(int32(CellTech)), nil
	case PropManufacturer:
		return StringValue(Manufacturer), nil
	case PropModelName:
		return StringValue(ModelName), nil
	default:
		h.diag().UnsupportedProperty(p)
		return Value{}, ErrUnsupportedProperty
	}
}
