//go:build rp2040 || rp2350

package provider

import (
	"machine"

	"batterycode-go/services/hal/internal/core"

	"tinygo.org/x/drivers"
)

// I2CPlan specifies wiring for one on-chip controller.
type I2CPlan struct {
	ID  string // "i2c0" | "i2c1"
	SDA machine.Pin
	SCL machine.Pin
	Hz  uint32
}

// NewRP2Registry configures the planned controllers and wraps them.
func NewRP2Registry(plan []I2CPlan) *Registry {
	buses := map[core.ResourceID]drivers.I2C{}
	for _, p := range plan {
		var hw *machine.I2C
		switch p.ID {
		case "i2c0":
			hw = machine.I2C0
		case "i2c1":
			hw = machine.I2C1
		default:
			println("[provider] unknown i2c id:", p.ID)
			continue
		}
		p.SDA.Configure(machine.PinConfig{Mode: machine.PinI2C})
		p.SCL.Configure(machine.PinConfig{Mode: machine.PinI2C})
		if err := hw.Configure(machine.I2CConfig{
			Frequency: p.Hz,
			SDA:       p.SDA,
			SCL:       p.SCL,
		}); err != nil {
			println("[provider] i2c configure failed:", p.ID, err.Error())
			continue
		}
		buses[core.ResourceID(p.ID)] = hw
	}
	return NewRegistry(buses)
}
