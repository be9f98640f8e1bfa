package acerbat

import "tinygo.org/x/drivers"

// Handle names the controller for the duration of one call. The caller owns
// the bus; the driver only borrows it.
type Handle struct {
	Bus  drivers.I2C
	Addr uint16
	Diag Diagnostics // nil => PrintDiagnostics
}

// NewHandle binds a bus to the default controller address.
func NewHandle(bus drivers.I2C) Handle {
	return Handle{Bus: bus, Addr: AddressDefault}
}

func (h Handle) addr() uint16 {
	if h.Addr == 0 {
		return AddressDefault
	}
	return h.Addr
}

func (h Handle) diag() Diagnostics {
	if h.Diag == nil {
		return PrintDiagnostics{}
	}
	return h.Diag
}

// Phase identifies which half of a register exchange a Reading ended in.
type Phase uint8

const (
	PhaseNone  Phase = iota // completed
	PhaseWrite              // register select
	PhaseRead               // data byte
)

func (p Phase) String() string {
	switch p {
	case PhaseWrite:
		return "write"
	case PhaseRead:
		return "read"
	default:
		return "none"
	}
}

// Reading is the outcome of one byte read. Value is zero unless OK.
// Attempts counts tries of the last phase that ran. Only the error of the
// final try is kept; earlier failed tries are not recorded individually.
type Reading struct {
	Reg      Register
	Value    uint8
	OK       bool
	Phase    Phase
	Attempts uint8
	Err      error
}

// ReadByteResult performs the select-then-read exchange with bounded retries
// and reports how it went. It never logs.
func ReadByteResult(h Handle, reg Register) Reading {
	addr := h.addr()
	cmd := [3]byte{cmdModeSelect, cmdAddrMode, byte(reg)}

	n, err := retry(func() error { return h.Bus.Tx(addr, cmd[:], nil) })
	if err != nil {
		return Reading{Reg: reg, Phase: PhaseWrite, Attempts: n, Err: err}
	}

	var buf [1]byte
	n, err = retry(func() error { return h.Bus.Tx(addr, nil, buf[:]) })
	if err != nil {
		return Reading{Reg: reg, Phase: PhaseRead, Attempts: n, Err: err}
	}
	return Reading{Reg: reg, Value: buf[0], OK: true, Attempts: n}
}

// ReadByte returns the register value, or 0 once retries are exhausted.
// Failures go to the handle's diagnostics, never to the caller.
func ReadByte(h Handle, reg Register) uint8 {
	r := ReadByteResult(h, reg)
	if !r.OK {
		h.diag().TransferFailed(r)
	}
	return r.Value
}

// ReadWord composes two independent byte reads: reg holds the low byte,
// reg+1 the high byte.
func ReadWord(h Handle, reg Register) uint16 {
	hi := ReadByte(h, reg+1)
	lo := ReadByte(h, reg)
	return uint16(hi)<<8 | uint16(lo)
}

// retry runs tx up to MaxAttempts times and returns the attempts used and
// the last error (nil on success).
func retry(tx func() error) (uint8, error) {
	var err error
	for i := uint8(1); i <= MaxAttempts; i++ {
		if err = tx(); err == nil {
			return i, nil
		}
	}
	return MaxAttempts, err
}
