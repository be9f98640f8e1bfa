package acerbat

// Snapshot is the full derived telemetry set from a single pass over the
// registers. Zero values remain where reads failed.
type Snapshot struct {
	EnergyNow_mWh  uint32
	EnergyFull_mWh uint32
	Voltage_mV     uint32
	Rate_mW        uint32
	Current_mA     uint32
	Capacity       uint32
	TimeToEmpty    uint32
	TimeToFull     uint32
	Status         Status
	Level          CapacityLevel
}

func TakeSnapshot(h Handle) Snapshot {
	var s Snapshot
	SnapshotInto(h, &s)
	return s
}

func SnapshotInto(h Handle, out *Snapshot) {
	*out = ReadRaw(h).Snapshot()
}

// Snapshot derives every metric from r without touching the bus.
func (r Raw) Snapshot() Snapshot {
	return Snapshot{
		EnergyNow_mWh:  r.EnergyNow_mWh(),
		EnergyFull_mWh: r.EnergyFull_mWh(),
		Voltage_mV:     r.Voltage_mV(),
		Rate_mW:        r.Rate_mW(),
		Current_mA:     r.Current_mA(),
		Capacity:       r.Capacity(),
		TimeToEmpty:    r.TimeToEmpty(),
		TimeToFull:     r.TimeToFull(),
		Status:         r.BatteryStatus(),
		Level:          r.Level(),
	}
}
