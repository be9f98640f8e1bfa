package core

import (
	"context"
	"time"

	"batterycode-go/bus"
	"batterycode-go/errcode"
	"batterycode-go/types"
)

const (
	eventQueueLen = 16
	pollQueueLen  = 8
)

// HAL-owned verbs; every other verb is forwarded to the owning device.
const (
	verbPollStart = "poll_start"
	verbPollStop  = "poll_stop"
)

type HAL struct {
	conn *bus.Connection
	res  Resources

	// Device registry
	dev map[string]Device // devID -> device

	// Capability index: address -> devID
	capIndex map[CapAddr]string

	cfgSub  *bus.Subscription
	ctrlSub *bus.Subscription

	poller *Poller
	pollCh chan PollReq

	// Single-threaded publication of device events
	evCh chan Event
}

func NewHAL(conn *bus.Connection, res Resources) *HAL {
	pollCh := make(chan PollReq, pollQueueLen)
	h := &HAL{
		conn:     conn,
		res:      res,
		dev:      map[string]Device{},
		capIndex: map[CapAddr]string{},
		poller:   NewPoller(pollCh),
		pollCh:   pollCh,
		evCh:     make(chan Event, eventQueueLen),
	}
	// HAL provides the emitter to devices.
	h.res.Pub = h
	return h
}

func (h *HAL) Run(ctx context.Context) {
	h.cfgSub = h.conn.Subscribe(topicConfigHAL())
	h.ctrlSub = h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(h.cfgSub)
	defer h.conn.Unsubscribe(h.ctrlSub)

	go h.poller.Run(ctx)

	h.pubHALState("idle", "awaiting_config")
	ready := false
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-h.cfgSub.Channel():
			cfg, code := As[types.HALConfig](msg.Payload)
			if code != "" {
				println("[hal] bad config payload:", string(code))
				continue
			}
			// applyConfig is additive/idempotent for existing devices.
			h.applyConfig(ctx, cfg)
			if !ready {
				ready = true
				h.pubHALState("ready", "")
			}
		case m := <-h.ctrlSub.Channel():
			if !ready {
				// Reject controls until HAL has a configuration.
				h.replyErr(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(m)
		case req := <-h.pollCh:
			h.handlePoll(req)
		case ev := <-h.evCh:
			// All device→HAL telemetry is published from this goroutine.
			h.handleEvent(ev)
		}
	}
}

func (h *HAL) applyConfig(ctx context.Context, cfg types.HALConfig) {
	for i := range cfg.Devices {
		dc := cfg.Devices[i]
		if _, exists := h.dev[dc.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(dc.Type)
		if !ok {
			println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
			continue
		}
		dev, err := b.Build(ctx, BuilderInput{
			ID:     dc.ID,
			Type:   dc.Type,
			Params: dc.Params,
			Res:    h.res,
		})
		if err != nil {
			println("[hal] build failed for:", dc.ID, "err:", err.Error())
			continue
		}
		if err := dev.Init(ctx); err != nil {
			println("[hal] init failed for:", dc.ID, "err:", err.Error())
			_ = dev.Close()
			continue
		}
		h.dev[dev.ID()] = dev

		// Register capabilities, publish retained info + initial status:down
		for _, cs := range dev.Capabilities() {
			a := CapAddr{Domain: cs.Domain, Kind: cs.Kind, Name: cs.Name}
			if a.Domain == "" {
				a.Domain = defaultDomainFor(a.Kind)
			}
			if a.Name == "" {
				a.Name = dev.ID()
			}
			h.capIndex[a] = dev.ID()

			h.conn.Publish(h.conn.NewMessage(capInfo(a), cs.Info, true))
			h.conn.Publish(h.conn.NewMessage(
				capStatus(a),
				types.CapabilityStatus{Link: types.LinkDown, TS: time.Now().UnixNano()},
				true,
			))
		}
	}

	for _, ps := range cfg.Pollers {
		a := CapAddr{Domain: ps.Domain, Kind: ps.Kind, Name: ps.Name}
		if _, ok := h.capIndex[a]; !ok {
			println("[hal] poller for unknown capability:", a.Domain, string(a.Kind), a.Name)
			continue
		}
		verb := ps.Verb
		if verb == "" {
			verb = "read"
		}
		h.poller.Upsert(a, verb,
			time.Duration(ps.IntervalMs)*time.Millisecond,
			time.Duration(ps.JitterMs)*time.Millisecond)
	}
}

func (h *HAL) handleControl(msg *bus.Message) {
	// hal/cap/<domain>/<kind>/<name>/control/<verb>
	if msg.Topic.Len() < 7 {
		h.replyErr(msg, errcode.InvalidTopic)
		return
	}
	domain, _ := msg.Topic.At(2).(string)
	kind, _ := msg.Topic.At(3).(string)
	name, _ := msg.Topic.At(4).(string)
	verb, _ := msg.Topic.At(6).(string)
	a := CapAddr{Domain: domain, Kind: types.Kind(kind), Name: name}

	ownerID, ok := h.capIndex[a]
	if !ok {
		h.replyErr(msg, errcode.UnknownCapability)
		return
	}
	dev := h.dev[ownerID]
	if dev == nil {
		h.replyErr(msg, errcode.Error)
		return
	}

	switch verb {
	case verbPollStart:
		p, code := As[types.PollStart](msg.Payload)
		if code != "" {
			h.replyErr(msg, code)
			return
		}
		if p.Verb == "" {
			p.Verb = "read"
		}
		if p.IntervalMs == 0 {
			h.replyErr(msg, errcode.InvalidParams)
			return
		}
		h.poller.Upsert(a, p.Verb,
			time.Duration(p.IntervalMs)*time.Millisecond,
			time.Duration(p.JitterMs)*time.Millisecond)
		h.replyOK(msg)
		return
	case verbPollStop:
		p, code := As[types.PollStop](msg.Payload)
		if code != "" {
			h.replyErr(msg, code)
			return
		}
		if p.Verb == "" {
			p.Verb = "read"
		}
		h.poller.Stop(a, p.Verb)
		h.replyOK(msg)
		return
	}

	res, err := dev.Control(a, verb, msg.Payload)
	if err != nil {
		h.replyFromError(msg, err)
		return
	}
	if res.OK {
		h.poller.BumpAfter(a, verb, time.Now().UnixNano())
	}
	h.replyResult(msg, res)
}

// handlePoll runs a scheduled verb; there is nobody to reply to.
func (h *HAL) handlePoll(req PollReq) {
	id, ok := h.capIndex[req.Addr]
	if !ok {
		h.poller.Stop(req.Addr, req.Verb)
		return
	}
	dev := h.dev[id]
	if dev == nil {
		return
	}
	res, err := dev.Control(req.Addr, req.Verb, nil)
	if err != nil {
		println("[hal] poll failed:", id, req.Verb, err.Error())
		return
	}
	if !res.OK && res.Error != errcode.Busy {
		println("[hal] poll rejected:", id, req.Verb, string(res.Error))
	}
}

func (h *HAL) handleEvent(ev Event) {
	a := ev.Addr
	ts := ev.TS
	if ts == 0 {
		ts = time.Now().UnixNano()
	}

	// 1) Error → retained status:degraded; no value/event published.
	if ev.Err != "" {
		h.conn.Publish(h.conn.NewMessage(
			capStatus(a),
			types.CapabilityStatus{Link: types.LinkDegraded, TS: ts, Error: ev.Err},
			true,
		))
		h.poller.Degraded(a)
		return
	}

	// 2) Success: event vs value
	if ev.IsEvent {
		if ev.EventTag != "" {
			h.conn.Publish(h.conn.NewMessage(capEventTagged(a, ev.EventTag), ev.Payload, false))
		} else {
			h.conn.Publish(h.conn.NewMessage(capEvent(a), ev.Payload, false))
		}
	} else {
		h.conn.Publish(h.conn.NewMessage(capValue(a), ev.Payload, true))
		h.poller.Healthy(a)
	}
	// Retained status: up
	h.conn.Publish(h.conn.NewMessage(
		capStatus(a),
		types.CapabilityStatus{Link: types.LinkUp, TS: ts},
		true,
	))
}

func (h *HAL) closeAll() {
	for id, d := range h.dev {
		if err := d.Close(); err != nil {
			println("[hal] close failed for:", id, "err:", err.Error())
		}
	}
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		topicHALState(),
		types.HALState{Level: level, Status: status, TS: time.Now().UnixNano()},
		true,
	))
}

func defaultDomainFor(kind types.Kind) string {
	switch kind {
	case types.KindBattery:
		return "power"
	default:
		return "io"
	}
}

// ---- HAL as EventEmitter (enqueue to single publisher) ----

func (h *HAL) Emit(ev Event) bool {
	select {
	case h.evCh <- ev:
		return true
	default:
		return false
	}
}
