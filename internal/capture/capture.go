// Package capture owns the camera (or whatever produces face frames) and hands out
// Face Samples. The device is opened lazily when the first lease is taken and closed
// when the last lease is released.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"facebank/internal/face"
	dErrors "facebank/pkg/domain-errors"
)

//go:generate mockgen -source=capture.go -destination=mocks/mocks.go -package=mocks Provider

// Provider is a frame source.
type Provider interface {
	Open(ctx context.Context) error
	Capture(ctx context.Context) (face.Sample, error)
	Close() error
}

// ErrNotAcquired is returned by Capture when no lease is held.
var ErrNotAcquired = errors.New("capture device not acquired")

// Device ref-counts leases over a Provider.
type Device struct {
	mu       sync.Mutex
	provider Provider
	leases   int
	logger   *slog.Logger
}

type Option func(*Device)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDevice wraps provider. The provider is not opened until Acquire.
func NewDevice(provider Provider, opts ...Option) (*Device, error) {
	if provider == nil {
		return nil, fmt.Errorf("capture provider is required")
	}
	d := &Device{provider: provider, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Acquire takes a lease, opening the provider on the first one. The returned release
// func is safe to call more than once.
func (d *Device) Acquire(ctx context.Context) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.leases == 0 {
		if err := d.provider.Open(ctx); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeCaptureUnavailable, "capture device unavailable")
		}
		d.logger.DebugContext(ctx, "capture device opened")
	}
	d.leases++

	var once sync.Once
	return func() { once.Do(d.release) }, nil
}

func (d *Device) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.leases == 0 {
		return
	}
	d.leases--
	if d.leases > 0 {
		return
	}
	if err := d.provider.Close(); err != nil {
		d.logger.Warn("failed to close capture device", "error", err)
		return
	}
	d.logger.Debug("capture device closed")
}

// Active reports whether at least one lease is held.
func (d *Device) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leases > 0
}

// Capture grabs one frame. It requires an outstanding lease.
func (d *Device) Capture(ctx context.Context) (face.Sample, error) {
	d.mu.Lock()
	active := d.leases > 0
	d.mu.Unlock()
	if !active {
		return face.Sample{}, dErrors.Wrap(ErrNotAcquired, dErrors.CodeCaptureUnavailable, "capture device not started")
	}

	sample, err := d.provider.Capture(ctx)
	if err != nil {
		return face.Sample{}, dErrors.Wrap(err, dErrors.CodeCaptureUnavailable, "capture failed")
	}
	if sample.IsZero() {
		return face.Sample{}, dErrors.Wrap(face.ErrEmptySample, dErrors.CodeCaptureUnavailable, "capture produced no image")
	}
	return sample, nil
}
