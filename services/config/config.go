package config

import (
	"context"
	"encoding/json"
	"errors"

	"batterycode-go/bus"
	"batterycode-go/types"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

type ctxKey string

// ctxDeviceKey is the context key the service reads the device ID from.
const ctxDeviceKey ctxKey = CtxDeviceKey

// WithDevice returns ctx carrying the device ID to publish for.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ctxDeviceKey, device)
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Decoders turn selected top-level keys into typed payloads so consumers
// can type-assert instead of walking maps. Unlisted keys are published as
// decoded JSON (map[string]any, []any, string, float64, bool).
var Decoders = map[string]func(json.RawMessage) (any, error){
	"hal": func(raw json.RawMessage) (any, error) {
		var c types.HALConfig
		err := json.Unmarshal(raw, &c)
		return c, err
	},
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the device config from embedded data and publishes it as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(ctxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}
	return Publish(conn, raw)
}

// Publish splits a JSON object into one retained message per top-level key
// on config/<key>.
func Publish(conn *bus.Connection, raw []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("embedded config is not a JSON object: " + err.Error())
	}

	for k, v := range m {
		payload, err := decodeKey(k, v)
		if err != nil {
			return errors.New("config key " + k + ": " + err.Error())
		}
		conn.Publish(&bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  payload,
			Retained: true,
		})
	}
	return nil
}

func decodeKey(k string, v json.RawMessage) (any, error) {
	if dec, ok := Decoders[k]; ok {
		return dec(v)
	}
	var out any
	err := json.Unmarshal(v, &out)
	return out, err
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}
