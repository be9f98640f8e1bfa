package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"batterycode-go/types"
)

func capTopic(name string, leaf ...Token) Topic {
	return T("hal", "cap", "power", string(types.KindBattery), name).Append(leaf...)
}

func recv(t *testing.T, s *Subscription) *Message {
	t.Helper()
	select {
	case m, ok := <-s.Channel():
		if !ok {
			t.Fatal("subscription closed")
		}
		return m
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("nothing on %v", s.Topic())
	}
	return nil
}

func quiet(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case m := <-s.Channel():
		t.Fatalf("unexpected %v on %v", m.Topic, s.Topic())
	case <-time.After(40 * time.Millisecond):
	}
}

// valuesByName drains n battery values keyed by capability name.
func valuesByName(t *testing.T, s *Subscription, n int) map[string]types.BatteryValue {
	t.Helper()
	out := map[string]types.BatteryValue{}
	for i := 0; i < n; i++ {
		m := recv(t, s)
		v, ok := m.Payload.(types.BatteryValue)
		if !ok {
			t.Fatalf("payload %T on %v", m.Payload, m.Topic)
		}
		out[m.Topic.At(4).(string)] = v
	}
	return out
}

func TestPatterns_BatteryCapabilityTopics(t *testing.T) {
	cases := []struct {
		pattern Topic
		topic   Topic
		match   bool
	}{
		{T("hal", "cap", "+", "battery", "+", "value"), capTopic("BAT0", "value"), true},
		{T("hal", "cap", "+", "battery", "+", "value"), capTopic("BAT0", "status"), false},
		{T("hal", "cap", "+", "battery", "+", "status"), capTopic("internal", "status"), true},
		{T("hal", "cap", "+", "battery", "+", "control", "+"), capTopic("BAT0", "control", "get"), true},
		{T("hal", "cap", "+", "battery", "+", "control", "+"), capTopic("BAT0", "control"), false},
		{T("hal", "cap", "power", "battery", "#"), capTopic("BAT0", "info"), true},
		{T("hal", "cap", "power", "battery", "#"), T("hal", "state"), false},
		{T("hal", "#"), T("hal", "state"), true},
		{T("#"), T("config", "hal"), true},
		{T("config", "hal"), T("config", "monitor"), false},
	}
	for _, tc := range cases {
		b := NewBus(4)
		c := b.NewConnection("t")
		s := c.Subscribe(tc.pattern)
		c.Publish(c.NewMessage(tc.topic, "x", false))
		if tc.match {
			recv(t, s)
		} else {
			quiet(t, s)
		}
	}
}

func TestRetained_LateSubscriberGetsLatestPerBattery(t *testing.T) {
	b := NewBus(8)
	hal := b.NewConnection("hal")

	hal.Publish(hal.NewMessage(capTopic("BAT0", "value"), types.BatteryValue{Capacity: 40}, true))
	hal.Publish(hal.NewMessage(capTopic("BAT0", "value"), types.BatteryValue{Capacity: 41}, true))
	hal.Publish(hal.NewMessage(capTopic("internal", "value"), types.BatteryValue{Capacity: 90}, true))
	hal.Publish(hal.NewMessage(capTopic("BAT0", "status"), types.CapabilityStatus{Link: types.LinkUp}, true))

	exp := b.NewConnection("exporter")
	vals := exp.Subscribe(T("hal", "cap", "+", "battery", "+", "value"))
	got := valuesByName(t, vals, 2)
	if got["BAT0"].Capacity != 41 || got["internal"].Capacity != 90 {
		t.Fatalf("retained values = %+v", got)
	}
	quiet(t, vals)

	stats := exp.Subscribe(T("hal", "cap", "+", "battery", "+", "status"))
	if st, ok := recv(t, stats).Payload.(types.CapabilityStatus); !ok || st.Link != types.LinkUp {
		t.Fatal("retained status missing")
	}
}

func TestRetained_NilPayloadClearsBatteryValue(t *testing.T) {
	b := NewBus(8)
	hal := b.NewConnection("hal")
	hal.Publish(hal.NewMessage(capTopic("BAT0", "value"), types.BatteryValue{Capacity: 12}, true))
	hal.Publish(hal.NewMessage(capTopic("BAT1", "value"), types.BatteryValue{Capacity: 80}, true))

	live := hal.Subscribe(capTopic("BAT0", "value"))
	recv(t, live)

	hal.Publish(hal.NewMessage(capTopic("BAT0", "value"), nil, true))
	if m := recv(t, live); m.Payload != nil {
		t.Fatalf("live subscriber should see the clear, got %#v", m.Payload)
	}

	late := b.NewConnection("monitor").Subscribe(T("hal", "cap", "+", "battery", "+", "value"))
	got := valuesByName(t, late, 1)
	if _, ok := got["BAT1"]; !ok {
		t.Fatalf("got %+v, want only BAT1", got)
	}
	quiet(t, late)

	hal.Publish(hal.NewMessage(capTopic("BAT1", "value"), nil, true))
	b.mu.Lock()
	empty := b.ret.empty()
	b.mu.Unlock()
	if !empty {
		t.Fatal("retained trie keeps nodes for cleared topics")
	}

	// Clearing a topic that never held a value is harmless.
	hal.Publish(hal.NewMessage(capTopic("BAT9", "value"), nil, true))
}

func TestRetained_HALStateReplaced(t *testing.T) {
	b := NewBus(4)
	hal := b.NewConnection("hal")
	hal.Publish(hal.NewMessage(T("hal", "state"), types.HALState{Level: "idle", Status: "awaiting_config"}, true))
	hal.Publish(hal.NewMessage(T("hal", "state"), types.HALState{Level: "ready"}, true))

	s := b.NewConnection("ui").Subscribe(T("hal", "state"))
	if st := recv(t, s).Payload.(types.HALState); st.Level != "ready" {
		t.Fatalf("state = %+v", st)
	}
	quiet(t, s)
}

// serveControls answers every battery control with the verb it was sent on.
func serveControls(c *Connection) *Subscription {
	ctrl := c.Subscribe(T("hal", "cap", "+", "battery", "+", "control", "+"))
	go func() {
		for m := range ctrl.Channel() {
			verb := m.Topic.At(m.Topic.Len() - 1).(string)
			c.Reply(m, types.PropertyReply{OK: true, Name: verb}, false)
		}
	}()
	return ctrl
}

func TestRequestWait_BatteryControl(t *testing.T) {
	b := NewBus(8)
	hal := b.NewConnection("hal")
	defer hal.Unsubscribe(serveControls(hal))
	ui := b.NewConnection("ui")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var seqs []int64
	for _, verb := range []string{"get", "properties"} {
		req := ui.NewMessage(capTopic("BAT0", "control", verb), types.PropertyGet{Name: "capacity"}, false)
		rep, err := ui.RequestWait(ctx, req)
		if err != nil {
			t.Fatalf("%s: %v", verb, err)
		}
		if pr, ok := rep.Payload.(types.PropertyReply); !ok || pr.Name != verb {
			t.Fatalf("%s: reply %#v", verb, rep.Payload)
		}
		rt := req.ReplyTo
		if rt.Len() != 3 || rt.At(0) != "_reply" || rt.At(1) != "ui" {
			t.Fatalf("reply topic = %v", rt)
		}
		seqs = append(seqs, rt.At(2).(int64))
	}
	if seqs[1] <= seqs[0] {
		t.Fatalf("reply sequence not increasing: %v", seqs)
	}

	// Reply subscriptions are gone once RequestWait returns.
	b.mu.Lock()
	_, left := b.subs.children["_reply"]
	b.mu.Unlock()
	if left {
		t.Fatal("reply subscription leaked")
	}
}

func TestRequestWait_NoResponder(t *testing.T) {
	b := NewBus(4)
	ui := b.NewConnection("ui")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := ui.RequestWait(ctx, ui.NewMessage(capTopic("BAT0", "control", "read"), nil, false))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestRequestWait_DisconnectYieldsErrNoReply(t *testing.T) {
	b := NewBus(4)
	ui := b.NewConnection("ui")
	go func() {
		time.Sleep(20 * time.Millisecond)
		ui.Disconnect()
	}()
	_, err := ui.RequestWait(context.Background(), ui.NewMessage(capTopic("BAT0", "control", "get"), nil, false))
	if !errors.Is(err, ErrNoReply) {
		t.Fatalf("err = %v", err)
	}
}

func TestReply_WithoutReplyToPublishesNothing(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("hal")
	all := c.Subscribe(T("#"))

	c.Reply(c.NewMessage(capTopic("BAT0", "control", "read"), nil, false), types.OKReply{OK: true}, false)
	quiet(t, all)
}

func TestSlowSubscriber_KeepsNewestValues(t *testing.T) {
	b := NewBus(2)
	hal := b.NewConnection("hal")
	s := b.NewConnection("monitor").Subscribe(capTopic("BAT0", "value"))

	for pct := uint32(1); pct <= 3; pct++ {
		hal.Publish(hal.NewMessage(capTopic("BAT0", "value"), types.BatteryValue{Capacity: pct}, false))
	}
	for _, want := range []uint32{2, 3} {
		if v := recv(t, s).Payload.(types.BatteryValue); v.Capacity != want {
			t.Fatalf("capacity = %d, want %d", v.Capacity, want)
		}
	}
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("monitor")
	vals := c.Subscribe(capTopic("BAT0", "value"))
	state := c.Subscribe(T("hal", "state"))

	c.Unsubscribe(vals)
	c.Unsubscribe(vals)
	if _, ok := <-vals.Channel(); ok {
		t.Fatal("value channel still open")
	}

	c.Disconnect()
	if _, ok := <-state.Channel(); ok {
		t.Fatal("state channel still open")
	}
	b.mu.Lock()
	empty := b.subs.empty()
	b.mu.Unlock()
	if !empty {
		t.Fatal("subscription trie not pruned")
	}
	c.Publish(c.NewMessage(T("hal", "state"), types.HALState{Level: "stopped"}, false))
}

func TestTopics(t *testing.T) {
	base := make(Topic, 0, 8)
	base = append(base, "hal", "cap")
	info, status := base.Append("info"), base.Append("status")
	if info.At(2) != "info" || status.At(2) != "status" || base.Len() != 2 {
		t.Fatalf("Append aliased its receiver: %v %v %v", base, info, status)
	}

	for _, tok := range []Token{[]byte{1}, map[string]int{}, 1.5} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("T(%T) did not panic", tok)
				}
			}()
			T("hal", tok)
		}()
	}
}
