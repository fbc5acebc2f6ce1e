package envelope

import (
	"encoding/json"
	"fmt"
)

// String returns payload[key] rendered as a string. Numbers are accepted because
// account handles and PINs sometimes arrive unquoted.
func (r Result) String(key string) string {
	switch v := r.Payload[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Bool returns payload[key] when it is a boolean.
func (r Result) Bool(key string) (bool, bool) {
	b, ok := r.Payload[key].(bool)
	return b, ok
}

// Decode re-marshals the payload into v.
func (r Result) Decode(v any) error {
	if r.Payload == nil {
		return fmt.Errorf("envelope: no payload")
	}
	raw, err := json.Marshal(r.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// MessageOr returns the service message, or fallback when there is none.
func (r Result) MessageOr(fallback string) string {
	if r.Message != "" {
		return r.Message
	}
	return fallback
}
