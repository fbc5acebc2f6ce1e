// Package face holds the Face Sample value and the single slot a controller keeps
// its most recent capture in.
package face

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptySample is returned when a capture produced no image bytes.
var ErrEmptySample = errors.New("face sample is empty")

// Sample is an opaque encoded still image used as the liveness proof for one operation.
type Sample struct {
	ID         uuid.UUID
	Data       string // base64 JPEG without the data-URL prefix
	CapturedAt time.Time
}

// NewSample encodes raw image bytes into a Sample.
func NewSample(image []byte, capturedAt time.Time) (Sample, error) {
	if len(image) == 0 {
		return Sample{}, ErrEmptySample
	}
	return Sample{
		ID:         uuid.New(),
		Data:       base64.StdEncoding.EncodeToString(image),
		CapturedAt: capturedAt,
	}, nil
}

// FromEncoded accepts an already encoded payload, stripping a "data:image/...;base64," prefix
// if the capture source produced a data URL.
func FromEncoded(encoded string, capturedAt time.Time) (Sample, error) {
	if i := strings.Index(encoded, ","); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+1:]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return Sample{}, ErrEmptySample
	}
	if _, err := base64.StdEncoding.DecodeString(encoded); err != nil {
		return Sample{}, err
	}
	return Sample{ID: uuid.New(), Data: encoded, CapturedAt: capturedAt}, nil
}

// IsZero reports whether s holds no image.
func (s Sample) IsZero() bool {
	return s.Data == ""
}
