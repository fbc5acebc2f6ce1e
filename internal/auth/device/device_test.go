package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "facebank/pkg/domain-errors"
)

const (
	chromeMac     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	chromeMacNext = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.71 Safari/537.36"
	safariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	firefoxLinux  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint(chromeMac), Fingerprint(chromeMacNext), "minor version changes are ignored")
	assert.NotEqual(t, Fingerprint(chromeMac), Fingerprint(firefoxLinux))
	assert.NotEqual(t, Fingerprint(chromeMac), Fingerprint(safariIPhone))
	assert.Len(t, Fingerprint(""), 64)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		contains  []string
	}{
		{name: "empty", userAgent: "", contains: []string{"Unknown Device"}},
		{name: "chrome on desktop", userAgent: chromeMac, contains: []string{"Chrome", " on "}},
		{name: "safari on iphone", userAgent: safariIPhone, contains: []string{" on ", "iPhone"}},
		{name: "firefox on linux", userAgent: firefoxLinux, contains: []string{"Firefox", " on "}},
		{name: "unknown agent", userAgent: "Unknown/1.0", contains: []string{" on "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Describe(tt.userAgent)
			for _, want := range tt.contains {
				assert.Contains(t, result, want)
			}
			assert.NotContains(t, result, "  ")
		})
	}
}

func TestBinder(t *testing.T) {
	t.Run("disabled accepts everything", func(t *testing.T) {
		b := NewBinder(false)
		b.Bind("tok-1", chromeMac)
		assert.NoError(t, b.Check("tok-2", firefoxLinux))
	})

	t.Run("same device passes", func(t *testing.T) {
		b := NewBinder(true)
		b.Bind("tok-1", chromeMac)
		assert.NoError(t, b.Check("tok-1", chromeMacNext))
	})

	t.Run("other device is forbidden", func(t *testing.T) {
		b := NewBinder(true)
		b.Bind("tok-1", chromeMac)
		err := b.Check("tok-1", firefoxLinux)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("other session is forbidden", func(t *testing.T) {
		b := NewBinder(true)
		b.Bind("tok-1", chromeMac)
		assert.True(t, dErrors.HasCode(b.Check("tok-2", chromeMac), dErrors.CodeForbidden))
	})

	t.Run("release clears only the matching session", func(t *testing.T) {
		b := NewBinder(true)
		b.Bind("tok-1", chromeMac)
		b.Release("tok-0")
		assert.NoError(t, b.Check("tok-1", chromeMac))
		b.Release("tok-1")
		assert.Error(t, b.Check("tok-1", chromeMac))
	})
}
