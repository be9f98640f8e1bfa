//go:build rp2040 || rp2350

package hal

import (
	"context"

	"batterycode-go/bus"
	"batterycode-go/services/hal/internal/provider"
)

// I2CPlan describes one on-chip I2C controller.
type I2CPlan = provider.I2CPlan

// RunRP2 configures the planned controllers and serves HAL over them.
func RunRP2(ctx context.Context, conn *bus.Connection, plan []I2CPlan) {
	RunWith(ctx, conn, provider.NewRP2Registry(plan))
}
