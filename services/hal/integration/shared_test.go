package integration

import (
	"context"
	"testing"
	"time"

	"batterycode-go/bus"
	"batterycode-go/types"
)

func recvOrTimeout(ch <-chan *bus.Message, d time.Duration) (*bus.Message, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case m := <-ch:
		return m, nil
	case <-timer.C:
		return nil, context.DeadlineExceeded
	}
}

// waitFor drains sub until match accepts a payload or d elapses.
func waitFor[T any](t *testing.T, sub *bus.Subscription, d time.Duration, match func(T) bool) T {
	t.Helper()
	deadline := time.Now().Add(d)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			t.Fatalf("timeout on %s", topicStr(sub.Topic()))
		}
		m, err := recvOrTimeout(sub.Channel(), left)
		if err != nil {
			t.Fatalf("timeout on %s", topicStr(sub.Topic()))
		}
		if v, ok := m.Payload.(T); ok && match(v) {
			return v
		}
	}
}

func waitReady(t *testing.T, conn *bus.Connection) {
	t.Helper()
	st := conn.Subscribe(bus.T("hal", "state"))
	defer conn.Unsubscribe(st)
	waitFor(t, st, time.Second, func(s types.HALState) bool { return s.Level == "ready" })
}

func topicStr(t bus.Topic) string {
	s := ""
	for i, tok := range t {
		if i > 0 {
			s += "/"
		}
		if v, ok := tok.(string); ok {
			s += v
		} else {
			s += "<tok>"
		}
	}
	return s
}
