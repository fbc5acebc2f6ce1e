// Package envelope turns the bank's inconsistent response shapes into one
// {OK, Message, Payload} result.
//
// The service answers either with a plain JSON object or with a gateway envelope
// whose "body" field holds the real payload as a JSON-encoded string, optionally next
// to an inner "statusCode". Nothing outside this package looks at raw responses.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Fallback messages used when the service supplied none.
const (
	MessageGenericFailure = "Request failed"
	MessageUnreadable     = "Unexpected response from server"
)

// Result is the normalized outcome of one remote call.
type Result struct {
	// OK is true only for a 2xx effective status whose payload satisfies the endpoint's marker.
	OK bool
	// Status is the effective status: the inner envelope statusCode when present, else the HTTP status.
	Status int
	// Message is the service-provided message, or a fallback when OK is false. Never empty when OK is false.
	Message string
	// Payload is the decoded business payload; nil when nothing decodable was returned.
	Payload map[string]any
}

// Marker decides whether a decoded payload carries the endpoint's business success signal.
// A nil Marker means the effective status alone decides.
type Marker func(payload map[string]any) bool

// Normalize never fails: any decoding problem yields OK=false with a non-empty message.
func Normalize(statusCode int, body []byte, marker Marker) Result {
	res := Result{Status: statusCode}

	top, err := decodeObject(body)
	if err != nil {
		res.Message = fallbackMessage(statusCode)
		return res
	}

	payload := top
	nestedFailed := false
	if raw, ok := top["body"]; ok && raw != nil {
		switch b := raw.(type) {
		case string:
			inner, err := decodeObject([]byte(b))
			if err != nil {
				nestedFailed = true
			} else {
				payload = inner
			}
		case map[string]any:
			payload = b
		default:
			nestedFailed = true
		}
	}

	// A non-2xx transport status is final; the inner code can only downgrade a 2xx.
	if inner, ok := intField(top, "statusCode"); ok && IsSuccessStatus(statusCode) {
		res.Status = inner
	}
	res.Payload = payload

	res.Message = firstString(payload, "message", "error")
	if res.Message == "" {
		res.Message = firstString(top, "message", "error")
	}

	if nestedFailed {
		// Degrade to top-level fields; an unreadable body is never a success.
		res.Payload = top
		if res.Message == "" {
			res.Message = MessageUnreadable
		}
		return res
	}

	res.OK = IsSuccessStatus(res.Status) && (marker == nil || marker(payload))
	if !res.OK && res.Message == "" {
		res.Message = fallbackMessage(res.Status)
	}
	return res
}

// IsSuccessStatus reports whether code is in [200,299].
func IsSuccessStatus(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func fallbackMessage(status int) string {
	if IsSuccessStatus(status) {
		return MessageGenericFailure
	}
	return fmt.Sprintf("%s (%d)", MessageGenericFailure, status)
}

// decodeObject decodes a JSON object, unwrapping one extra level when the whole
// document is itself a JSON string holding an object.
func decodeObject(data []byte) (map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case string:
		return decodeObject([]byte(t))
	default:
		return nil, fmt.Errorf("body is %T, not an object", v)
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case json.Number:
		n, err := strconv.Atoi(v.String())
		return n, err == nil
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}
