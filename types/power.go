package types

// ------------------------
// Battery (acerbat)
// ------------------------

// BatteryInfo is published once as Info.Detail on hal/cap/power/battery/<name>/info.
type BatteryInfo struct {
	Manufacturer     string `json:"manufacturer"`
	Model            string `json:"model"`
	Technology       string `json:"technology"`
	DesignEnergy_mWh uint32 `json:"design_energy_mWh"`
	Bus              string `json:"bus"`
	Addr             uint16 `json:"addr"`
}

// Retained value: hal/cap/power/battery/<name>/value
type BatteryValue struct {
	Status         string `json:"status"` // "Charging", "Discharging", "Full", "Unknown"
	Level          string `json:"level"`  // "Critical", "Low", "Normal", "Full"
	Capacity       uint32 `json:"capacity"`
	EnergyNow_mWh  uint32 `json:"energy_now_mWh"`
	EnergyFull_mWh uint32 `json:"energy_full_mWh"`
	Voltage_mV     uint32 `json:"voltage_mV"`
	Rate_mW        uint32 `json:"rate_mW"`
	Current_mA     uint32 `json:"current_mA"`
	TimeToEmpty    uint32 `json:"time_to_empty"`
	TimeToFull     uint32 `json:"time_to_full"`
}

// ------------ Payloads for verbs ------------

// PropertyGet is the payload of verb "get". Name is the sysfs-style
// property name, e.g. "voltage_now".
type PropertyGet struct {
	Name string `json:"name"`
}

// PropertyReply answers "get". Exactly one of Int or Str is meaningful,
// chosen by the property.
type PropertyReply struct {
	OK    bool   `json:"ok"`
	Name  string `json:"name"`
	Int   int32  `json:"int,omitempty"`
	Str   string `json:"str,omitempty"`
	IsStr bool   `json:"is_str,omitempty"`
	Text  string `json:"text"` // formatted value, suitable for a uevent line
}

// PropertiesReply answers "properties" with the advertised names in order.
type PropertiesReply struct {
	OK         bool     `json:"ok"`
	Properties []string `json:"properties"`
}
