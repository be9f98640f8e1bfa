//go:build rp2040 || rp2350

package main

import (
	"context"
	"machine"
	"runtime"
	"time"

	"batterycode-go/bus"
	"batterycode-go/services/config"
	"batterycode-go/services/hal"
	"batterycode-go/services/monitor"
	"batterycode-go/types"
)

const device = "pico-battery"

func printState(t bus.Topic, st types.HALState) {
	print("[main] ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		if s, ok := t.At(i).(string); ok {
			print(s)
		}
	}
	print(" ", st.Level)
	if st.Status != "" {
		print(" (", st.Status, ")")
	}
	println()
}

func main() {
	time.Sleep(3 * time.Second)
	ctx := config.WithDevice(context.Background(), device)

	println("[main] bootstrapping bus …")
	b := bus.NewBus(4)
	halConn := b.NewConnection("hal")
	cfgConn := b.NewConnection("config")
	monConn := b.NewConnection("monitor")
	uiConn := b.NewConnection("ui")

	state := uiConn.Subscribe(bus.T("hal", "state"))
	go func() {
		for m := range state.Channel() {
			if st, ok := m.Payload.(types.HALState); ok {
				printState(m.Topic, st)
			}
		}
	}()

	println("[main] starting hal …")
	go hal.RunRP2(ctx, halConn, []hal.I2CPlan{
		{ID: "i2c0", SDA: machine.GP4, SCL: machine.GP5, Hz: 100_000},
	})

	println("[main] starting monitor …")
	mon := &monitor.Service{}
	if err := mon.Start(ctx, monConn); err != nil {
		println("[main] monitor start failed:", err.Error())
	}

	println("[main] publishing config for", device, "…")
	config.NewConfigService().Start(ctx, cfgConn)

	var ms runtime.MemStats
	for {
		time.Sleep(30 * time.Second)
		runtime.ReadMemStats(&ms)
		println("[main] heap in use", int(ms.HeapInuse), "bytes")
	}
}
