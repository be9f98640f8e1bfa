package monitor

import (
	"context"
	"testing"
	"time"

	"batterycode-go/bus"
	"batterycode-go/types"
)

type line struct {
	name string
	v    types.BatteryValue
}

func TestMonitor_ReportsLatestPerBattery(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("mon")
	pub := b.NewConnection("hal")

	// Retained config is delivered on subscribe.
	pub.Publish(pub.NewMessage(topicConfigMonitor, map[string]any{"interval": 0.01}, true))

	lines := make(chan line, 16)
	s := &Service{Out: func(name string, v types.BatteryValue) { lines <- line{name, v} }}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = s.Start(ctx, conn)

	value := bus.T("hal", "cap", "power", "battery", "internal", "value")
	pub.Publish(pub.NewMessage(value, types.BatteryValue{Capacity: 40}, true))
	pub.Publish(pub.NewMessage(value, types.BatteryValue{Capacity: 41}, true))

	deadline := time.After(time.Second)
	for {
		select {
		case l := <-lines:
			if l.name != "internal" {
				t.Fatalf("name = %q", l.name)
			}
			if l.v.Capacity == 41 {
				return
			}
		case <-deadline:
			t.Fatal("no report with latest value")
		}
	}
}

func TestIntervalFrom(t *testing.T) {
	cases := []struct {
		in   any
		want time.Duration
		ok   bool
	}{
		{map[string]any{"interval": 2.0}, 2 * time.Second, true},
		{map[string]any{"interval": 0.5}, 500 * time.Millisecond, true},
		{map[string]any{"interval": 0.0}, 0, false},
		{map[string]any{"interval": "2"}, 0, false},
		{"interval", 0, false},
	}
	for _, tc := range cases {
		got, ok := intervalFrom(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("intervalFrom(%#v) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
