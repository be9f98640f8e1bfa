package acerbatdev

import (
	"context"

	"batterycode-go/drivers/acerbat"
	"batterycode-go/errcode"
	"batterycode-go/services/hal/internal/core"
	"batterycode-go/types"
)

// Params defines wiring for one smart-battery controller.
type Params struct {
	Bus    string `json:"bus"`    // resource id; default acerbat.BusDefault
	Addr   uint16 `json:"addr"`   // default acerbat.AddressDefault
	Domain string `json:"domain"` // default "power"
	Name   string `json:"name"`   // default device id
}

// Builder registration.
func init() {
	core.RegisterBuilder("acerbat", builder{})
	errcode.RegisterDriverErr(acerbat.ErrUnsupportedProperty, errcode.UnsupportedProperty)
}

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, code := core.As[Params](in.Params)
	if code != "" {
		return nil, errcode.InvalidParams
	}
	if p.Bus == "" {
		p.Bus = acerbat.BusDefault
	}
	if p.Addr == 0 {
		p.Addr = acerbat.AddressDefault
	}
	if p.Addr > 0x7F {
		return nil, errcode.InvalidParams
	}
	if p.Domain == "" {
		p.Domain = "power"
	}
	if p.Name == "" {
		p.Name = in.ID
	}
	if in.Res.Reg == nil {
		return nil, errcode.Unavailable
	}

	// Claim I2C (serialised by provider).
	i2c, err := in.Res.Reg.ClaimI2C(in.ID, core.ResourceID(p.Bus))
	if err != nil {
		return nil, err
	}

	return &Device{
		id:     in.ID,
		addr:   core.CapAddr{Domain: p.Domain, Kind: types.KindBattery, Name: p.Name},
		res:    in.Res,
		h:      acerbat.Handle{Bus: i2c, Addr: p.Addr},
		params: p,
	}, nil
}
