// Package provider owns the physical buses and hands them to HAL devices.
package provider

import (
	"sync"
	"time"

	"batterycode-go/errcode"
	"batterycode-go/services/hal/internal/core"

	"tinygo.org/x/drivers"
)

// DefaultLockTimeout bounds how long a Tx waits for another claimant.
const DefaultLockTimeout = 250 * time.Millisecond

// busOwner serialises every transaction on one physical bus.
type busOwner struct {
	id     core.ResourceID
	hw     drivers.I2C
	lock   chan struct{} // 1-slot semaphore; a mutex cannot time out
	claims map[string]int
}

func newBusOwner(id core.ResourceID, hw drivers.I2C) *busOwner {
	return &busOwner{
		id:     id,
		hw:     hw,
		lock:   make(chan struct{}, 1),
		claims: map[string]int{},
	}
}

// lockedI2C adapts the owner to tinygo.org/x/drivers.I2C.
type lockedI2C struct {
	o       *busOwner
	timeout time.Duration // 0 => wait forever
}

// Ensure compile-time conformance with drivers.I2C
var _ drivers.I2C = (*lockedI2C)(nil)

func (l *lockedI2C) Tx(addr uint16, w, r []byte) error {
	if l.timeout <= 0 {
		l.o.lock <- struct{}{}
	} else {
		t := time.NewTimer(l.timeout)
		select {
		case l.o.lock <- struct{}{}:
			t.Stop()
		case <-t.C:
			return errcode.Busy
		}
	}
	defer func() { <-l.o.lock }()
	return l.o.hw.Tx(addr, w, r)
}

// Registry implements core.ResourceRegistry over a fixed set of I2C buses.
type Registry struct {
	mu      sync.Mutex
	owners  map[core.ResourceID]*busOwner
	timeout time.Duration
}

var _ core.ResourceRegistry = (*Registry)(nil)

// NewRegistry wraps already-configured buses keyed by resource id.
func NewRegistry(buses map[core.ResourceID]drivers.I2C) *Registry {
	r := &Registry{
		owners:  make(map[core.ResourceID]*busOwner, len(buses)),
		timeout: DefaultLockTimeout,
	}
	for id, hw := range buses {
		r.owners[id] = newBusOwner(id, hw)
	}
	return r
}

// WithLockTimeout changes the wait bound for buses claimed afterwards.
func (r *Registry) WithLockTimeout(d time.Duration) *Registry {
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
	return r
}

// ClaimI2C shares the bus; several devices may hold it at once.
func (r *Registry) ClaimI2C(devID string, id core.ResourceID) (drivers.I2C, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.owners[id]
	if o == nil {
		return nil, errcode.UnknownBus
	}
	o.claims[devID]++
	return &lockedI2C{o: o, timeout: r.timeout}, nil
}

func (r *Registry) ReleaseI2C(devID string, id core.ResourceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.owners[id]
	if o == nil {
		return
	}
	if n := o.claims[devID]; n > 1 {
		o.claims[devID] = n - 1
	} else {
		delete(o.claims, devID)
	}
}

// Claimants lists the devices currently holding bus id.
func (r *Registry) Claimants(id core.ResourceID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.owners[id]
	if o == nil {
		return nil
	}
	out := make([]string, 0, len(o.claims))
	for dev := range o.claims {
		out = append(out, dev)
	}
	return out
}
