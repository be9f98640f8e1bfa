package acerbat

import (
	"errors"
	"testing"
)

var errNak = errors.New("nak")

// fakeBus emulates the controller's select-then-read exchange over a map
// of register bytes. Failures can be scripted per phase and register.
type fakeBus struct {
	addr uint16
	regs map[Register]uint8

	sel    Register
	hasSel bool

	failAll    bool
	failWrites map[Register]int // remaining write failures per register
	failReads  map[Register]int // remaining read failures per register

	writes   int
	reads    int
	lastCmd  []byte
	readLens []int
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		addr:       AddressDefault,
		regs:       map[Register]uint8{},
		failWrites: map[Register]int{},
		failReads:  map[Register]int{},
	}
}

func (f *fakeBus) setWord(reg Register, v uint16) {
	f.regs[reg] = uint8(v)
	f.regs[reg+1] = uint8(v >> 8)
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if addr != f.addr {
		return errNak
	}
	if len(w) > 0 {
		f.writes++
		f.lastCmd = append(f.lastCmd[:0], w...)
		if f.failAll {
			return errNak
		}
		if len(w) != 3 || w[0] != cmdModeSelect || w[1] != cmdAddrMode {
			return errors.New("bad command")
		}
		reg := Register(w[2])
		if n := f.failWrites[reg]; n > 0 {
			f.failWrites[reg] = n - 1
			return errNak
		}
		f.sel, f.hasSel = reg, true
		return nil
	}
	if len(r) > 0 {
		f.reads++
		f.readLens = append(f.readLens, len(r))
		if f.failAll || !f.hasSel {
			return errNak
		}
		if n := f.failReads[f.sel]; n > 0 {
			f.failReads[f.sel] = n - 1
			return errNak
		}
		r[0] = f.regs[f.sel]
		return nil
	}
	return nil
}

// recorder captures diagnostics.
type recorder struct {
	failed      []Reading
	unsupported []Property
}

func (r *recorder) TransferFailed(rd Reading)      { r.failed = append(r.failed, rd) }
func (r *recorder) UnsupportedProperty(p Property) { r.unsupported = append(r.unsupported, p) }

func newHandle(t *testing.T, bus *fakeBus) (Handle, *recorder) {
	t.Helper()
	rec := &recorder{}
	return Handle{Bus: bus, Addr: AddressDefault, Diag: rec}, rec
}
