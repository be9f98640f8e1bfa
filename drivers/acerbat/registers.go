// Package acerbat reads the embedded controller battery found on the Acer
// Switch 11 family and derives power-supply style telemetry from it.
//
// The controller answers on a shared SMBus segment and exposes four raw
// registers. Every metric is recomputed from a live read; nothing is cached.
package acerbat

import "batterycode-go/x/conv"

const (
	// 7-bit I2C address of the battery controller.
	AddressDefault = 0x70

	// Host bus the controller is wired to on the reference board.
	BusDefault = "1"

	// Attempts per transfer phase before a read degrades to zero.
	MaxAttempts = 5

	// Write-phase preamble: mode select, then addressing mode.
	cmdModeSelect = 0x02
	cmdAddrMode   = 0x80
)

// Register is an 8-bit controller register address. Word registers span
// two consecutive addresses, low byte first.
type Register uint8

const (
	RegStatus  Register = 0xC1 // byte: bit0 discharging, bit1 charging
	RegEnergy  Register = 0xC2 // word: remaining energy in 10 mWh units
	RegVoltage Register = 0xC6 // word: pack voltage in mV
	RegRate    Register = 0xD0 // word: signed-magnitude rate
)

// DesignEnergyFull_mWh stands in for the last-full energy. The controller
// has no register for it, so this is a fixed placeholder, not a measurement.
const DesignEnergyFull_mWh = 37500

func (r Register) String() string {
	var buf [4]byte
	buf[0], buf[1] = '0', 'x'
	conv.U8Hex(buf[2:], uint8(r))
	return string(buf[:])
}
