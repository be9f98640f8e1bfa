package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPicoBattery = `{
  "hal": {
    "devices": [
      {"id": "bat0", "type": "acerbat", "params": {"bus": "i2c0", "addr": 112, "domain": "power", "name": "internal"}}
    ],
    "pollers": [
      {"domain": "power", "kind": "battery", "name": "internal", "verb": "read", "interval_ms": 5000, "jitter_ms": 250}
    ]
  },
  "monitor": {
    "interval": 10
  }
}`

const cfgSwitch11 = `{
  "hal": {
    "devices": [
      {"id": "bat0", "type": "acerbat", "params": {"bus": "1", "addr": 112, "domain": "power", "name": "BAT0"}}
    ],
    "pollers": [
      {"domain": "power", "kind": "battery", "name": "BAT0", "verb": "read", "interval_ms": 2000}
    ]
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico-battery": []byte(cfgPicoBattery),
	"switch11":     []byte(cfgSwitch11),
}
