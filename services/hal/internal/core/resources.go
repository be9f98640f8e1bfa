package core

import "tinygo.org/x/drivers"

type ResourceID string // e.g. "i2c0", "1"

// ---- Device → HAL telemetry (single shape) ----
// By default, an Event represents a "value-like" update for a capability that
// HAL should publish to .../value (retained). If IsEvent is true, HAL instead
// publishes to .../event (non-retained). Err, when non-empty, causes HAL to
// publish only .../status=degraded (retained).

type Event struct {
	Addr     CapAddr
	Payload  any    // typed value payload (e.g. types.BatteryValue)
	TS       int64  // Unix ns; 0 => HAL stamps on publication
	Err      string // "transfer_failed", "unavailable", ...
	IsEvent  bool   // true => publish to .../event (non-retained)
	EventTag string // optional subtopic tag for events
}

// ---- Event emission (devices → HAL) ----

type EventEmitter interface {
	// Emit tries to enqueue an Event for HAL publication.
	// It must be non-blocking; false indicates a drop under pressure.
	Emit(ev Event) bool
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Pub EventEmitter // provided by HAL; devices use it to emit values/events
}

// ResourceRegistry hands out shared buses.
//
// The I2C returned by ClaimI2C serialises every Tx against all other
// claimants of the same bus, so a driver may issue several transactions in a
// row without coordinating with other devices.
type ResourceRegistry interface {
	ClaimI2C(devID string, id ResourceID) (drivers.I2C, error)
	ReleaseI2C(devID string, id ResourceID)
}
