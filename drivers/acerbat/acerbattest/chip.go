// Package acerbattest provides an in-memory battery controller that answers
// the acerbat select-then-read exchange, for tests and demos.
package acerbattest

import (
	"errors"
	"sync"

	"batterycode-go/drivers/acerbat"
)

// ErrNak is returned for every scripted or protocol failure.
var ErrNak = errors.New("acerbattest: nak")

// Chip emulates one controller. It is safe for concurrent use.
type Chip struct {
	mu   sync.Mutex
	addr uint16
	regs map[acerbat.Register]uint8

	sel    acerbat.Register
	hasSel bool
	silent bool

	writes, reads int
}

func New() *Chip {
	return &Chip{addr: acerbat.AddressDefault, regs: map[acerbat.Register]uint8{}}
}

// At moves the chip to another slave address.
func (c *Chip) At(addr uint16) *Chip {
	c.mu.Lock()
	c.addr = addr
	c.mu.Unlock()
	return c
}

func (c *Chip) SetStatus(b uint8) {
	c.mu.Lock()
	c.regs[acerbat.RegStatus] = b
	c.mu.Unlock()
}

func (c *Chip) SetWord(reg acerbat.Register, v uint16) {
	c.mu.Lock()
	c.regs[reg] = uint8(v)
	c.regs[reg+1] = uint8(v >> 8)
	c.mu.Unlock()
}

// SetSilent makes every transfer fail until cleared.
func (c *Chip) SetSilent(on bool) {
	c.mu.Lock()
	c.silent = on
	c.mu.Unlock()
}

// Counts reports the number of write and read transfers seen.
func (c *Chip) Counts() (writes, reads int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes, c.reads
}

// Tx implements tinygo.org/x/drivers.I2C.
func (c *Chip) Tx(addr uint16, w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if addr != c.addr {
		return ErrNak
	}
	if len(w) > 0 {
		c.writes++
		if c.silent || len(w) != 3 || w[0] != 0x02 || w[1] != 0x80 {
			return ErrNak
		}
		c.sel, c.hasSel = acerbat.Register(w[2]), true
		return nil
	}
	if len(r) > 0 {
		c.reads++
		if c.silent || !c.hasSel {
			return ErrNak
		}
		r[0] = c.regs[c.sel]
	}
	return nil
}

// Discharging loads a typical discharging pack: 7.4 V, 50% of the design
// energy, drawing 100 units of rate.
func (c *Chip) Discharging() *Chip {
	c.SetStatus(0x01)
	c.SetWord(acerbat.RegVoltage, 7400)
	c.SetWord(acerbat.RegEnergy, uint16(acerbat.DesignEnergyFull_mWh/2/10))
	c.SetWord(acerbat.RegRate, 0xFF9C)
	return c
}
