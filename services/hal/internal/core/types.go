package core

import (
	"context"

	"batterycode-go/errcode"
	"batterycode-go/types"
)

// ---- Capability & device model ----

// CapAddr is the public address of one capability:
// hal/cap/<Domain>/<Kind>/<Name>/...
type CapAddr struct {
	Domain string
	Kind   types.Kind
	Name   string
}

type CapabilitySpec struct {
	Domain string // "" => default for Kind
	Kind   types.Kind
	Name   string // "" => device ID
	Info   types.Info
}

// EnqueueResult is the immediate outcome of a control call. Devices that
// answer synchronously put the reply payload in Value; HAL sends it as is.
type EnqueueResult struct {
	OK    bool
	Error errcode.Code
	Value any
}

type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	// Control must not block on hardware for longer than one bus transaction
	// sequence; long work is queued to the device's own worker.
	Control(addr CapAddr, verb string, payload any) (EnqueueResult, error)
	Close() error // release claimed resources
}

// Builder input
type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}
