// Package device binds the live session to the UI device that logged in, identified
// by a coarse User-Agent fingerprint.
package device

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/mssola/useragent"

	dErrors "facebank/pkg/domain-errors"
)

// Binder remembers which device fingerprint established the current session.
// A disabled Binder accepts every device.
type Binder struct {
	enabled bool

	mu          sync.Mutex
	token       string
	fingerprint string
	label       string
}

func NewBinder(enabled bool) *Binder {
	return &Binder{enabled: enabled}
}

func (b *Binder) Enabled() bool {
	return b.enabled
}

// Bind records the device that established the session with sessionToken, replacing
// any earlier binding.
func (b *Binder) Bind(sessionToken, userAgent string) {
	if !b.enabled {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = sessionToken
	b.fingerprint = Fingerprint(userAgent)
	b.label = Describe(userAgent)
}

// Check fails with CodeForbidden when the caller is not the device bound to sessionToken.
func (b *Binder) Check(sessionToken, userAgent string) error {
	if !b.enabled {
		return nil
	}
	b.mu.Lock()
	token, stored, label := b.token, b.fingerprint, b.label
	b.mu.Unlock()

	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sessionToken)) != 1 {
		return dErrors.New(dErrors.CodeForbidden, "session is not bound to this device")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(Fingerprint(userAgent))) != 1 {
		return dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("session belongs to %s", label))
	}
	return nil
}

// Release forgets the binding for sessionToken.
func (b *Binder) Release(sessionToken string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.token == sessionToken {
		b.token, b.fingerprint, b.label = "", "", ""
	}
}

// Fingerprint hashes browser, major version, OS and form factor. Minor version bumps
// and the remote address do not change it.
func Fingerprint(userAgentString string) string {
	ua := useragent.New(userAgentString)
	browser, version := ua.Browser()

	majorVersion := "unknown"
	if major, _, _ := strings.Cut(version, "."); major != "" {
		majorVersion = major
	}

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}

	data := fmt.Sprintf("%s|%s|%s|%s", normalize(browser), majorVersion, normalize(ua.OS()), platform)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// Describe renders "Browser on OS" for logs and error messages.
func Describe(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
