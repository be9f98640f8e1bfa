// Package hal runs the hardware abstraction layer: it builds devices from
// the retained config/hal document and exposes them as bus capabilities.
package hal

import (
	"context"

	"batterycode-go/bus"
	"batterycode-go/services/hal/internal/core"
	"batterycode-go/services/hal/internal/provider"

	// Device builders register themselves.
	_ "batterycode-go/services/hal/devices/acerbat"

	"tinygo.org/x/drivers"
)

// CapAddr is the public address of a capability.
type CapAddr = core.CapAddr

// CapCtrl is the control topic for verb on a.
func CapCtrl(a CapAddr, verb string) bus.Topic { return core.CapCtrl(a, verb) }

// CapValue is the retained value topic of a.
func CapValue(a CapAddr) bus.Topic { return core.CapValue(a) }

// Builders lists the registered device types.
func Builders() []string { return core.BuilderTypes() }

// Run serves HAL on conn until ctx is cancelled. buses maps resource ids
// (the "bus" device param) to configured adapters.
func Run(ctx context.Context, conn *bus.Connection, buses map[string]drivers.I2C) {
	m := make(map[core.ResourceID]drivers.I2C, len(buses))
	for id, b := range buses {
		m[core.ResourceID(id)] = b
	}
	RunWith(ctx, conn, provider.NewRegistry(m))
}

// RunWith serves HAL over an already-built registry.
func RunWith(ctx context.Context, conn *bus.Connection, reg core.ResourceRegistry) {
	core.NewHAL(conn, core.Resources{Reg: reg}).Run(ctx)
}
