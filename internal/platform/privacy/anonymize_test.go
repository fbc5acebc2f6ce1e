package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192.168.1.47", "192.168.1.0"},
		{"127.0.0.1", "127.0.0.0"},
		{"::ffff:10.1.2.3", "10.1.2.0"},
		{"2001:db8:85a3::8a2e:370:7334", "2001:0db8:85a3::"},
		{"::1", "0000:0000:0000::"},
		{"", "unknown"},
		{"unknown", "unknown"},
		{"not-an-ip", "invalid"},
		{"192.168.1.47:8080", "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@x.com", MaskEmail("a@x.com"))
	assert.Equal(t, "a***@example.com", MaskEmail(" alice@example.com "))
	assert.Equal(t, "***", MaskEmail("alice"))
	assert.Equal(t, "***", MaskEmail("@x.com"))
	assert.Equal(t, "***", MaskEmail(""))
}
