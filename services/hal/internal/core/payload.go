package core

import (
	"encoding/json"

	"batterycode-go/errcode"
)

// As[T] asserts a payload to the concrete value type T.
// A nil payload is treated as the zero value of T; *T is dereferenced.
// JSON-like payloads (maps, []byte, string) arriving from config or a bridge
// are decoded into T.
func As[T any](v any) (T, errcode.Code) {
	var zero T
	switch x := v.(type) {
	case nil:
		return zero, ""
	case T:
		return x, ""
	case *T:
		if x == nil {
			return zero, errcode.InvalidPayload
		}
		return *x, ""
	case map[string]any, []byte, string:
		var out T
		if err := DecodeJSON(x, &out); err != nil {
			return zero, errcode.InvalidPayload
		}
		return out, ""
	}
	return zero, errcode.InvalidPayload
}

// DecodeJSON fills dst from []byte, string or any JSON-encodable value.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		// Accept maps, structs, numbers… by marshaling then decoding to T.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
