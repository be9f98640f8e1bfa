//go:build !tinygo

// Package hostbus opens Linux I2C adapters through periph for the HAL and
// the command-line tools.
package hostbus

import (
	"errors"
	"strings"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"tinygo.org/x/drivers"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the periph host drivers once per process.
func Init() error {
	initOnce.Do(func() { _, initErr = host.Init() })
	return initErr
}

// Name maps HAL resource ids onto periph bus names: "i2c1" and "/dev/i2c-1"
// both become "1". Anything else passes through.
func Name(id string) string {
	switch {
	case strings.HasPrefix(id, "/dev/i2c-"):
		return strings.TrimPrefix(id, "/dev/i2c-")
	case strings.HasPrefix(id, "i2c") && len(id) > 3 && isDigits(id[3:]):
		return id[3:]
	}
	return id
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// Open initialises the host and opens one adapter. hz of 0 keeps the
// kernel's speed.
func Open(id string, hz uint32) (i2c.BusCloser, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	b, err := i2creg.Open(Name(id))
	if err != nil {
		return nil, err
	}
	if hz != 0 {
		if err := b.SetSpeed(physic.Frequency(hz) * physic.Hertz); err != nil {
			_ = b.Close()
			return nil, err
		}
	}
	return b, nil
}

// Set is a group of opened adapters keyed by HAL resource id.
type Set struct {
	buses map[string]i2c.BusCloser
}

// OpenAll opens every id; on failure the ones already opened are closed.
func OpenAll(ids []string, hz uint32) (*Set, error) {
	s := &Set{buses: make(map[string]i2c.BusCloser, len(ids))}
	for _, id := range ids {
		if _, dup := s.buses[id]; dup {
			continue
		}
		b, err := Open(id, hz)
		if err != nil {
			return nil, errors.Join(err, s.Close())
		}
		s.buses[id] = b
	}
	return s, nil
}

// Drivers exposes the adapters with the TinyGo driver signature.
func (s *Set) Drivers() map[string]drivers.I2C {
	out := make(map[string]drivers.I2C, len(s.buses))
	for id, b := range s.buses {
		out[id] = b
	}
	return out
}

func (s *Set) Close() error {
	var errs []error
	for id, b := range s.buses {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.buses, id)
	}
	return errors.Join(errs...)
}
