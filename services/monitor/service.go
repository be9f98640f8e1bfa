// Package monitor prints a periodic one-line summary of every battery
// capability. It is the MCU's console view of the HAL.
package monitor

import (
	"context"
	"time"

	"batterycode-go/bus"
	"batterycode-go/types"
)

var (
	topicConfigMonitor = bus.Topic{"config", "monitor"}
	topicBatteryValues = bus.Topic{"hal", "cap", "+", string(types.KindBattery), "+", "value"}
)

const defaultInterval = 10 * time.Second

type Service struct {
	// Out receives one call per battery per tick. nil => println.
	Out func(name string, v types.BatteryValue)

	latest map[string]types.BatteryValue
	order  []string
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigMonitor)
	defer conn.Unsubscribe(cfgSub)
	valSub := conn.Subscribe(topicBatteryValues)
	defer conn.Unsubscribe(valSub)

	if s.Out == nil {
		s.Out = printLine
	}
	s.latest = map[string]types.BatteryValue{}

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			println("[monitor] stopping")
			return
		case <-tick.C:
			for _, name := range s.order {
				s.Out(name, s.latest[name])
			}
		case msg := <-valSub.Channel():
			v, ok := msg.Payload.(types.BatteryValue)
			if !ok || msg.Topic.Len() < 5 {
				continue
			}
			name, _ := msg.Topic.At(4).(string)
			if _, seen := s.latest[name]; !seen {
				s.order = append(s.order, name)
			}
			s.latest[name] = v
		case msg := <-cfgSub.Channel():
			if d, ok := intervalFrom(msg.Payload); ok {
				tick.Reset(d)
				println("[monitor] interval set to", int(d/time.Millisecond), "ms")
			}
		}
	}
}

// intervalFrom accepts {"interval": <seconds>} as decoded from JSON.
func intervalFrom(p any) (time.Duration, bool) {
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	sec, ok := m["interval"].(float64)
	if !ok || sec <= 0 {
		return 0, false
	}
	return time.Duration(sec * float64(time.Second)), true
}

func printLine(name string, v types.BatteryValue) {
	println("[monitor]", name, v.Status, v.Level,
		"cap", int(v.Capacity), "%",
		"v", int(v.Voltage_mV), "mV",
		"i", int(v.Current_mA), "mA",
		"tte", int(v.TimeToEmpty),
		"ttf", int(v.TimeToFull))
}

// Start the monitor service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
