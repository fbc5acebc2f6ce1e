package tracer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	dErrors "facebank/pkg/domain-errors"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"transport fault", dErrors.New(dErrors.CodeTransport, "connection refused"), codes.Error},
		{"untyped error", errors.New("boom"), codes.Error},
		{"business rejection", dErrors.New(dErrors.CodeRejected, "Invalid OTP"), codes.Unset},
		{"validation", dErrors.New(dErrors.CodeValidation, "PIN is required"), codes.Unset},
		{"missing sample", dErrors.New(dErrors.CodeCaptureUnavailable, "no face"), codes.Unset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, description := status(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.err.Error(), description)
		})
	}
}

func TestKeyValues(t *testing.T) {
	assert.Nil(t, keyValues(nil))

	kvs := keyValues([]Attribute{
		String(AttrOperation, "login"),
		Bool(AttrOK, true),
		Int64(AttrStatusCode, 200),
		{Key: "latency", Value: 150 * time.Millisecond},
		{Key: "ignored", Value: struct{}{}},
	})
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(AttrOperation, "login"),
		attribute.Bool(AttrOK, true),
		attribute.Int64(AttrStatusCode, 200),
		attribute.Int64("latency", 150),
	}, kvs)
}
