package main

import (
	"encoding/json"

	"tinygo.org/x/drivers"

	"batterycode-go/services/hal/hostbus"
)

// openBus opens the adapter named by the options. Tests replace it.
var openBus = func(o *Options) (drivers.I2C, func() error, error) {
	b, err := hostbus.Open(o.Bus, o.Hz)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}

// openBuses opens every adapter a HAL document refers to, keyed by the id
// used in that document.
var openBuses = func(ids []string, hz uint32) (map[string]drivers.I2C, func() error, error) {
	set, err := hostbus.OpenAll(ids, hz)
	if err != nil {
		return nil, nil, err
	}
	return set.Drivers(), set.Close, nil
}

// deviceBuses lists the distinct "bus" params of an embedded config's hal
// devices, in document order.
func deviceBuses(raw []byte) ([]string, error) {
	var doc struct {
		HAL struct {
			Devices []struct {
				Params struct {
					Bus string `json:"bus"`
				} `json:"params"`
			} `json:"devices"`
		} `json:"hal"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	var ids []string
	seen := map[string]bool{}
	for _, d := range doc.HAL.Devices {
		if id := d.Params.Bus; id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}
