package acerbatdev

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"batterycode-go/drivers/acerbat"
	"batterycode-go/errcode"
	"batterycode-go/services/hal/internal/core"
	"batterycode-go/types"
)

// Device publishes battery telemetry and answers property queries.
//
// "read" is queued to a single worker goroutine. "get" and "properties"
// answer inline because the property interface is synchronous. The
// select-then-read exchange is two bus transactions, so every use of the
// handle holds mu.
type Device struct {
	id   string
	addr core.CapAddr

	res    core.Resources
	params Params
	alive  atomic.Bool

	mu sync.Mutex
	h  acerbat.Handle

	reqCh chan request
	done  chan struct{}
}

type opCode uint8

const (
	opSample opCode = iota
	opStop
)

type request struct {
	op opCode
}

// ---- core.Device interface ----

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	bi := types.BatteryInfo{
		Manufacturer:     acerbat.Manufacturer,
		Model:            acerbat.ModelName,
		Technology:       acerbat.CellTech.String(),
		DesignEnergy_mWh: acerbat.DesignEnergyFull_mWh,
		Bus:              d.params.Bus,
		Addr:             d.params.Addr,
	}
	return []core.CapabilitySpec{{
		Domain: d.addr.Domain,
		Kind:   types.KindBattery,
		Name:   d.addr.Name,
		Info:   types.Info{SchemaVersion: 1, Driver: "acerbat", Detail: bi},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	d.reqCh = make(chan request, 4)
	d.done = make(chan struct{})
	d.alive.Store(true)
	go d.worker(ctx)

	// Seed the retained value.
	d.reqCh <- request{op: opSample}
	return nil
}

func (d *Device) Close() error {
	if d.alive.Load() {
		select {
		case d.reqCh <- request{op: opStop}:
		default:
		}
		t := time.NewTimer(300 * time.Millisecond)
		select {
		case <-d.done:
		case <-t.C:
		}
		t.Stop()
	}
	d.res.Reg.ReleaseI2C(d.id, core.ResourceID(d.params.Bus))
	return nil
}

func (d *Device) Control(_ core.CapAddr, verb string, payload any) (core.EnqueueResult, error) {
	switch verb {
	case "read":
		if !d.alive.Load() {
			return core.EnqueueResult{OK: false, Error: errcode.Unavailable}, nil
		}
		select {
		case d.reqCh <- request{op: opSample}:
			return core.EnqueueResult{OK: true}, nil
		default:
			return core.EnqueueResult{OK: false, Error: errcode.Busy}, nil
		}

	case "get":
		pg, code := core.As[types.PropertyGet](payload)
		if code != "" {
			return core.EnqueueResult{OK: false, Error: code}, nil
		}
		p, ok := acerbat.ParseProperty(pg.Name)
		if !ok {
			return core.EnqueueResult{OK: false, Error: errcode.UnknownProperty}, nil
		}
		rep, err := d.getProperty(p)
		if err != nil {
			return core.EnqueueResult{OK: false, Error: errcode.MapDriverErr(err)}, nil
		}
		return core.EnqueueResult{OK: true, Value: rep}, nil

	case "properties":
		props := acerbat.Properties()
		names := make([]string, len(props))
		for i, p := range props {
			names[i] = p.String()
		}
		return core.EnqueueResult{OK: true, Value: types.PropertiesReply{OK: true, Properties: names}}, nil

	default:
		return core.EnqueueResult{OK: false, Error: errcode.Unsupported}, nil
	}
}

func (d *Device) getProperty(p acerbat.Property) (types.PropertyReply, error) {
	d.mu.Lock()
	v, err := acerbat.GetProperty(d.h, p)
	d.mu.Unlock()
	if err != nil {
		return types.PropertyReply{}, err
	}
	return types.PropertyReply{
		OK:    true,
		Name:  p.String(),
		Int:   v.Int,
		Str:   v.Str,
		IsStr: v.Kind == acerbat.ValueString,
		Text:  p.Format(v),
	}, nil
}

// ---- Worker ----

func (d *Device) worker(ctx context.Context) {
	defer close(d.done)
	defer d.alive.Store(false)

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.reqCh:
			switch req.op {
			case opSample:
				d.sampleAndPublish()
			case opStop:
				return
			}
		}
	}
}

// failureCounter forwards diagnostics and counts failed exchanges.
type failureCounter struct {
	next   acerbat.Diagnostics
	failed int
	last   error
}

func (c *failureCounter) TransferFailed(r acerbat.Reading) {
	c.failed++
	c.last = r.Err
	c.next.TransferFailed(r)
}

func (c *failureCounter) UnsupportedProperty(p acerbat.Property) { c.next.UnsupportedProperty(p) }

func (d *Device) sampleAndPublish() {
	d.mu.Lock()
	h := d.h
	fc := &failureCounter{next: h.Diag}
	if fc.next == nil {
		fc.next = acerbat.PrintDiagnostics{}
	}
	h.Diag = fc
	raw := acerbat.ReadRaw(h)
	d.mu.Unlock()

	ts := time.Now().UnixNano()
	if fc.failed == acerbat.RawReads {
		// Nothing came back; keep the last good value and mark the link.
		code := errcode.MapDriverErr(fc.last)
		if code == errcode.OK || code == errcode.Error {
			code = errcode.TransferFailed
		}
		_ = d.res.Pub.Emit(core.Event{Addr: d.addr, TS: ts, Err: string(code)})
		return
	}
	_ = d.res.Pub.Emit(core.Event{Addr: d.addr, Payload: valueFrom(raw.Snapshot()), TS: ts})
}

func valueFrom(s acerbat.Snapshot) types.BatteryValue {
	return types.BatteryValue{
		Status:         s.Status.String(),
		Level:          s.Level.String(),
		Capacity:       s.Capacity,
		EnergyNow_mWh:  s.EnergyNow_mWh,
		EnergyFull_mWh: s.EnergyFull_mWh,
		Voltage_mV:     s.Voltage_mV,
		Rate_mW:        s.Rate_mW,
		Current_mA:     s.Current_mA,
		TimeToEmpty:    s.TimeToEmpty,
		TimeToFull:     s.TimeToFull,
	}
}
